package openai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"coverletter-backend/internal/llm"
)

func withServer(t *testing.T, handler http.HandlerFunc) {
	t.Helper()
	server := httptest.NewServer(handler)
	oldURL := apiURL
	apiURL = server.URL
	t.Cleanup(func() {
		apiURL = oldURL
		server.Close()
	})
}

func TestGenerateSendsPromptsAndReturnsContent(t *testing.T) {
	var mu sync.Mutex
	var lastBody map[string]any
	var auth string

	withServer(t, func(w http.ResponseWriter, r *http.Request) {
		defer r.Body.Close()
		var payload map[string]any
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Errorf("decode request: %v", err)
		}
		mu.Lock()
		lastBody = payload
		auth = r.Header.Get("Authorization")
		mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"  Dear Hiring Manager  "}}],"usage":{"prompt_tokens":3,"completion_tokens":4,"total_tokens":7}}`))
	})

	client, err := NewClient("test-key")
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	got, err := client.Generate(context.Background(), "gpt-4o-mini", "be brief", "write a letter")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if got != "Dear Hiring Manager" {
		t.Fatalf("unexpected content: %q", got)
	}

	mu.Lock()
	defer mu.Unlock()
	if auth != "Bearer test-key" {
		t.Fatalf("unexpected auth header: %q", auth)
	}
	messages, _ := lastBody["messages"].([]any)
	if len(messages) != 2 {
		t.Fatalf("expected system and user messages, got %v", lastBody["messages"])
	}
	if _, ok := lastBody["temperature"]; !ok {
		t.Fatalf("expected temperature for gpt-4o-mini")
	}
}

func TestGenerateOmitsTemperatureForReasoningModels(t *testing.T) {
	var mu sync.Mutex
	var lastBody map[string]any
	withServer(t, func(w http.ResponseWriter, r *http.Request) {
		var payload map[string]any
		_ = json.NewDecoder(r.Body).Decode(&payload)
		mu.Lock()
		lastBody = payload
		mu.Unlock()
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"ok"}}]}`))
	})

	client, _ := NewClient("test-key")
	for _, model := range []string{"gpt-5-mini", "o3-mini"} {
		if _, err := client.Generate(context.Background(), model, "", "hi"); err != nil {
			t.Fatalf("Generate(%s): %v", model, err)
		}
		mu.Lock()
		_, hasTemp := lastBody["temperature"]
		mu.Unlock()
		if hasTemp {
			t.Fatalf("expected temperature to be omitted for %s", model)
		}
	}
}

func TestGenerateErrorKinds(t *testing.T) {
	cases := []struct {
		name   string
		status int
		body   string
		check  func(error) bool
	}{
		{"unauthorized", http.StatusUnauthorized, `{"error":{"message":"bad key","type":"invalid_request_error"}}`, func(err error) bool { return errors.Is(err, llm.ErrAuth) }},
		{"rate limited", http.StatusTooManyRequests, `{"error":{"message":"slow down","type":"rate_limit"}}`, func(err error) bool {
			var ce *llm.CallError
			return errors.As(err, &ce) && ce.Status == http.StatusTooManyRequests
		}},
		{"server error", http.StatusBadGateway, `upstream down`, func(err error) bool { return errors.Is(err, llm.ErrRemoteCall) }},
		{"empty content", http.StatusOK, `{"choices":[{"message":{"content":"   "}}]}`, func(err error) bool { return errors.Is(err, llm.ErrMalformedReply) }},
		{"no choices", http.StatusOK, `{"choices":[]}`, func(err error) bool { return errors.Is(err, llm.ErrMalformedReply) }},
		{"garbage", http.StatusOK, `not json`, func(err error) bool { return errors.Is(err, llm.ErrMalformedReply) }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var calls int
			var mu sync.Mutex
			withServer(t, func(w http.ResponseWriter, r *http.Request) {
				mu.Lock()
				calls++
				mu.Unlock()
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte(tc.body))
			})
			client, _ := NewClient("test-key")
			_, err := client.Generate(context.Background(), "gpt-4o", "", "hi")
			if err == nil || !tc.check(err) {
				t.Fatalf("unexpected error: %v", err)
			}
			mu.Lock()
			defer mu.Unlock()
			if calls != 1 {
				t.Fatalf("expected exactly one request, got %d", calls)
			}
		})
	}
}

func TestGenerateTimeoutIsRemoteCallFailure(t *testing.T) {
	release := make(chan struct{})
	withServer(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	})
	defer close(release)

	client, _ := NewClient("test-key")
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := client.Generate(ctx, "gpt-4o", "", "hi")
	if !errors.Is(err, llm.ErrRemoteCall) || !llm.IsTimeout(err) {
		t.Fatalf("expected timed out CallError, got %v", err)
	}
}

func TestNewClientRequiresKeyAndModel(t *testing.T) {
	if _, err := NewClient(" "); err == nil {
		t.Fatalf("expected error for missing key")
	}
	client, _ := NewClient("k")
	if _, err := client.Generate(context.Background(), "", "", "hi"); !errors.Is(err, llm.ErrModelRequired) {
		t.Fatalf("expected ErrModelRequired, got %v", err)
	}
}
