package gemini

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/googleapi"

	"coverletter-backend/internal/llm"
)

func TestClassify(t *testing.T) {
	if err := classify(&googleapi.Error{Code: http.StatusForbidden, Message: "API key not valid"}); !errors.Is(err, llm.ErrAuth) {
		t.Fatalf("expected ErrAuth, got %v", err)
	}

	err := classify(fmt.Errorf("rpc: %w", &googleapi.Error{Code: http.StatusTooManyRequests}))
	var ce *llm.CallError
	if !errors.As(err, &ce) || ce.Status != http.StatusTooManyRequests {
		t.Fatalf("expected CallError with 429, got %v", err)
	}

	if err := classify(context.DeadlineExceeded); !llm.IsTimeout(err) {
		t.Fatalf("expected timeout CallError, got %v", err)
	}

	if err := classify(&genai.BlockedError{}); !errors.Is(err, llm.ErrMalformedReply) {
		t.Fatalf("expected ErrMalformedReply for blocked reply, got %v", err)
	}
}

func TestExtractText(t *testing.T) {
	resp := &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Parts: []genai.Part{genai.Text("Company: Acme\n"), genai.Text("Job Title: Engineer ")}},
		}},
	}
	got, err := extractText(resp)
	if err != nil {
		t.Fatalf("extractText: %v", err)
	}
	if got != "Company: Acme\nJob Title: Engineer" {
		t.Fatalf("unexpected text: %q", got)
	}

	empty := []*genai.GenerateContentResponse{
		nil,
		{},
		{Candidates: []*genai.Candidate{{}}},
		{Candidates: []*genai.Candidate{{Content: &genai.Content{Parts: []genai.Part{genai.Text("  ")}}}}},
	}
	for i, r := range empty {
		if _, err := extractText(r); !errors.Is(err, llm.ErrMalformedReply) {
			t.Fatalf("case %d: expected ErrMalformedReply, got %v", i, err)
		}
	}
}

func TestNewClientRequiresKey(t *testing.T) {
	if _, err := NewClient(context.Background(), ""); err == nil {
		t.Fatalf("expected error for missing key")
	}
}
