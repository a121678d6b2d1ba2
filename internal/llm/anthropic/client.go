package anthropic

import (
	"context"
	"errors"
	"fmt"
	"strings"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"coverletter-backend/internal/llm"
	"coverletter-backend/internal/shared/telemetry"
)

const (
	provider         = llm.ProviderAnthropic
	defaultMaxTokens = 2048
)

// Client implements llm.Client with the Anthropic Messages API.
type Client struct {
	client    sdk.Client
	MaxTokens int64
}

// NewClient builds a Claude client. Extra options are appended after the API key.
func NewClient(apiKey string, opts ...option.RequestOption) (*Client, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("ANTHROPIC_API_KEY is required")
	}
	base := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	}
	return &Client{
		client:    sdk.NewClient(append(base, opts...)...),
		MaxTokens: defaultMaxTokens,
	}, nil
}

func (c *Client) Generate(ctx context.Context, model, systemPrompt, userPrompt string) (string, error) {
	if strings.TrimSpace(model) == "" {
		return "", llm.ErrModelRequired
	}

	params := sdk.MessageNewParams{
		Model:     sdk.Model(model),
		MaxTokens: c.MaxTokens,
		Messages: []sdk.MessageParam{{
			Content: []sdk.ContentBlockParamUnion{{
				OfText: &sdk.TextBlockParam{Text: userPrompt},
			}},
			Role: sdk.MessageParamRoleUser,
		}},
	}
	if strings.TrimSpace(systemPrompt) != "" {
		params.System = []sdk.TextBlockParam{{Text: systemPrompt}}
	}

	message, err := c.client.Messages.New(ctx, params)
	if err != nil {
		return "", classify(err)
	}

	var b strings.Builder
	for _, block := range message.Content {
		if block.Type != "text" {
			continue
		}
		b.WriteString(block.AsText().Text)
	}
	text := strings.TrimSpace(b.String())
	if text == "" {
		return "", fmt.Errorf("%w: no text content in Claude response", llm.ErrMalformedReply)
	}

	telemetry.Info("llm.response", map[string]any{
		"provider":          provider,
		"model":             model,
		"prompt_tokens":     message.Usage.InputTokens,
		"completion_tokens": message.Usage.OutputTokens,
		"stop_reason":       string(message.StopReason),
	})
	return text, nil
}

func classify(err error) error {
	var apiErr *sdk.Error
	if errors.As(err, &apiErr) {
		return llm.StatusError(provider, apiErr.StatusCode, err)
	}
	return llm.NewCallError(provider, 0, err)
}

var _ llm.Client = (*Client)(nil)
