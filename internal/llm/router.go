package llm

import (
	"context"
	"strings"
)

const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderGemini    = "gemini"
)

// Router dispatches to a provider client by model prefix. A nil provider
// means its credential is not configured.
type Router struct {
	OpenAI    Client
	Anthropic Client
	Gemini    Client
}

// ProviderFor returns the provider serving model, or "" when none does.
func ProviderFor(model string) string {
	m := strings.ToLower(strings.TrimSpace(model))
	switch {
	case strings.HasPrefix(m, "claude-"):
		return ProviderAnthropic
	case strings.HasPrefix(m, "gemini-"):
		return ProviderGemini
	case strings.HasPrefix(m, "gpt-"), isOSeries(m):
		return ProviderOpenAI
	default:
		return ""
	}
}

func isOSeries(m string) bool {
	return len(m) > 1 && m[0] == 'o' && m[1] >= '0' && m[1] <= '9'
}

func (r *Router) Generate(ctx context.Context, model, systemPrompt, userPrompt string) (string, error) {
	if strings.TrimSpace(model) == "" {
		return "", ErrModelRequired
	}
	provider := ProviderFor(model)
	var client Client
	switch provider {
	case ProviderOpenAI:
		client = r.OpenAI
	case ProviderAnthropic:
		client = r.Anthropic
	case ProviderGemini:
		client = r.Gemini
	default:
		return "", NewCallError("router", 0, &UnknownModelError{Model: model})
	}
	if client == nil {
		return "", MissingCredential(provider)
	}
	return client.Generate(ctx, model, systemPrompt, userPrompt)
}

// UnknownModelError is the cause recorded for models no provider serves.
type UnknownModelError struct {
	Model string
}

func (e *UnknownModelError) Error() string {
	return "no provider for model " + e.Model
}

var _ Client = (*Router)(nil)
