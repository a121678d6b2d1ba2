package coverletters

import "strings"

const (
	companyLabel  = "Company:"
	jobTitleLabel = "Job Title:"
)

// ParseMetadata reads "Company:" and "Job Title:" lines from a model reply.
// Labels are case-sensitive and must start the line. Missing labels leave the
// field empty; when a label repeats, the last line wins.
func ParseMetadata(reply string) Metadata {
	var meta Metadata
	for _, line := range strings.Split(reply, "\n") {
		switch {
		case strings.HasPrefix(line, companyLabel):
			meta.CompanyName = afterLabel(line, companyLabel)
		case strings.HasPrefix(line, jobTitleLabel):
			meta.JobTitle = afterLabel(line, jobTitleLabel)
		}
	}
	return meta
}

func afterLabel(line, label string) string {
	_, rest, _ := strings.Cut(line, label)
	return strings.TrimSpace(rest)
}
