package coverletters

import (
	"slices"
	"strings"
)

// ModelPolicy decides which model serves a request. Override wins when set,
// then the profile's preferred model if it is allowed, then Default.
type ModelPolicy struct {
	Default  string
	Override string
	Allowed  []string
}

func (p ModelPolicy) Effective(preferred string) string {
	if o := strings.TrimSpace(p.Override); o != "" {
		return o
	}
	if pref := strings.TrimSpace(preferred); pref != "" && p.IsAllowed(pref) {
		return pref
	}
	return p.Default
}

func (p ModelPolicy) IsAllowed(model string) bool {
	return slices.Contains(p.Allowed, model)
}
