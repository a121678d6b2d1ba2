package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"coverletter-backend/internal/llm"
	"coverletter-backend/internal/shared/telemetry"
)

const provider = llm.ProviderGemini

// Client implements llm.Client with the Gemini API.
type Client struct {
	client      *genai.Client
	Temperature float32
}

// NewClient creates a Gemini client authenticated with apiKey.
func NewClient(ctx context.Context, apiKey string) (*Client, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY is required")
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	return &Client{client: client, Temperature: 0.7}, nil
}

// Close releases the underlying client.
func (c *Client) Close() error {
	return c.client.Close()
}

func (c *Client) Generate(ctx context.Context, model, systemPrompt, userPrompt string) (string, error) {
	if strings.TrimSpace(model) == "" {
		return "", llm.ErrModelRequired
	}

	m := c.client.GenerativeModel(model)
	m.SetTemperature(c.Temperature)
	if strings.TrimSpace(systemPrompt) != "" {
		m.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(systemPrompt)}}
	}

	resp, err := m.GenerateContent(ctx, genai.Text(userPrompt))
	if err != nil {
		return "", classify(err)
	}
	text, err := extractText(resp)
	if err != nil {
		return "", err
	}

	fields := map[string]any{"provider": provider, "model": model}
	if resp.UsageMetadata != nil {
		fields["prompt_tokens"] = resp.UsageMetadata.PromptTokenCount
		fields["completion_tokens"] = resp.UsageMetadata.CandidatesTokenCount
		fields["total_tokens"] = resp.UsageMetadata.TotalTokenCount
	}
	telemetry.Info("llm.response", fields)
	return text, nil
}

func classify(err error) error {
	var blocked *genai.BlockedError
	if errors.As(err, &blocked) {
		return fmt.Errorf("%w: gemini blocked the reply: %v", llm.ErrMalformedReply, err)
	}
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		return llm.StatusError(provider, apiErr.Code, err)
	}
	return llm.NewCallError(provider, 0, err)
}

func extractText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 {
		return "", fmt.Errorf("%w: no candidates in gemini response", llm.ErrMalformedReply)
	}
	candidate := resp.Candidates[0]
	if candidate.Content == nil || len(candidate.Content.Parts) == 0 {
		return "", fmt.Errorf("%w: no content in gemini response", llm.ErrMalformedReply)
	}

	var b strings.Builder
	for _, part := range candidate.Content.Parts {
		if text, ok := part.(genai.Text); ok {
			b.WriteString(string(text))
		}
	}
	out := strings.TrimSpace(b.String())
	if out == "" {
		return "", fmt.Errorf("%w: empty gemini reply", llm.ErrMalformedReply)
	}
	return out, nil
}

var _ llm.Client = (*Client)(nil)
