package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"
)

type fakeClient struct {
	name  string
	calls int
}

func (f *fakeClient) Generate(ctx context.Context, model, systemPrompt, userPrompt string) (string, error) {
	f.calls++
	return f.name + ":" + model, nil
}

func TestProviderFor(t *testing.T) {
	cases := map[string]string{
		"gpt-4o-mini":             ProviderOpenAI,
		"o3-mini":                 ProviderOpenAI,
		"claude-3-5-haiku-latest": ProviderAnthropic,
		"Gemini-2.5-flash":        ProviderGemini,
		"llama-3":                 "",
		"omni":                    "",
	}
	for model, want := range cases {
		if got := ProviderFor(model); got != want {
			t.Fatalf("ProviderFor(%q) = %q, want %q", model, got, want)
		}
	}
}

func TestRouterDispatches(t *testing.T) {
	openai := &fakeClient{name: "openai"}
	claude := &fakeClient{name: "anthropic"}
	router := &Router{OpenAI: openai, Anthropic: claude}

	got, err := router.Generate(context.Background(), "claude-3-7-sonnet-latest", "", "hi")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if got != "anthropic:claude-3-7-sonnet-latest" || claude.calls != 1 || openai.calls != 0 {
		t.Fatalf("unexpected dispatch: %q openai=%d claude=%d", got, openai.calls, claude.calls)
	}
}

func TestRouterErrors(t *testing.T) {
	router := &Router{OpenAI: &fakeClient{name: "openai"}}

	if _, err := router.Generate(context.Background(), " ", "", "hi"); !errors.Is(err, ErrModelRequired) {
		t.Fatalf("expected ErrModelRequired, got %v", err)
	}
	if _, err := router.Generate(context.Background(), "gemini-2.5-pro", "", "hi"); !errors.Is(err, ErrAuth) {
		t.Fatalf("expected ErrAuth for unconfigured provider, got %v", err)
	}
	if _, err := router.Generate(context.Background(), "llama-3", "", "hi"); !errors.Is(err, ErrRemoteCall) {
		t.Fatalf("expected ErrRemoteCall for unknown model, got %v", err)
	}
}

func TestStatusError(t *testing.T) {
	cause := errors.New("denied")
	if err := StatusError("openai", http.StatusUnauthorized, cause); !errors.Is(err, ErrAuth) {
		t.Fatalf("expected ErrAuth for 401, got %v", err)
	}
	if err := StatusError("openai", http.StatusForbidden, cause); !errors.Is(err, ErrAuth) {
		t.Fatalf("expected ErrAuth for 403, got %v", err)
	}

	err := StatusError("openai", http.StatusTooManyRequests, cause)
	var ce *CallError
	if !errors.As(err, &ce) || ce.Status != http.StatusTooManyRequests {
		t.Fatalf("expected CallError with status 429, got %v", err)
	}
	if !errors.Is(err, ErrRemoteCall) || !errors.Is(err, cause) {
		t.Fatalf("expected CallError to match ErrRemoteCall and its cause")
	}
}

func TestNewCallErrorDetectsTimeout(t *testing.T) {
	err := NewCallError("anthropic", 0, fmt.Errorf("post: %w", context.DeadlineExceeded))
	if !err.Timeout || !IsTimeout(err) {
		t.Fatalf("expected timeout flag, got %+v", err)
	}
	if IsTimeout(NewCallError("anthropic", 500, errors.New("boom"))) {
		t.Fatalf("did not expect timeout for 500")
	}
}
