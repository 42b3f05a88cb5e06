// AngelaMos | 2026
// completion.go

package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"go.opentelemetry.io/otel/attribute"

	"github.com/carterperez-dev/persona-advice/internal/config"
	"github.com/carterperez-dev/persona-advice/internal/core"
)

type completionRequest struct {
	Model       string   `json:"model"`
	Prompt      string   `json:"prompt"`
	Temperature float64  `json:"temperature"`
	MaxTokens   int      `json:"max_tokens"`
	Stop        []string `json:"stop,omitempty"`
}

type completionResponse struct {
	Choices []struct {
		Text         string `json:"text"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

// CompletionClient talks to an OpenAI-compatible /completions endpoint.
type CompletionClient struct {
	baseURL     string
	apiKey      string
	model       string
	temperature float64
	maxTokens   int
	stop        string
	client      *http.Client
	retry       RetryPolicy
}

func NewCompletionClient(
	cfg config.CompletionConfig,
	retry RetryPolicy,
) *CompletionClient {
	return &CompletionClient{
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:      cfg.APIKey,
		model:       cfg.Model,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
		stop:        cfg.Stop,
		client:      &http.Client{Timeout: cfg.Timeout},
		retry:       retry,
	}
}

func (c *CompletionClient) Complete(ctx context.Context, prompt string) (string, error) {
	ctx, span := core.StartSpan(ctx, "completion.create",
		attribute.String("completion.model", c.model),
		attribute.Int("completion.max_tokens", c.maxTokens),
	)
	defer span.End()

	text, err := c.complete(ctx, prompt)
	core.SetSpanError(span, err)
	return text, err
}

func (c *CompletionClient) complete(ctx context.Context, prompt string) (string, error) {
	payload := completionRequest{
		Model:       c.model,
		Prompt:      prompt,
		Temperature: c.temperature,
		MaxTokens:   c.maxTokens,
	}
	if c.stop != "" {
		payload.Stop = []string{c.stop}
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal completion request: %w", err)
	}

	resp, err := c.retry.Do(ctx, c.client, func(ctx context.Context) (*http.Request, error) {
		req, err := http.NewRequestWithContext(
			ctx,
			http.MethodPost,
			c.baseURL+"/completions",
			bytes.NewReader(body),
		)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		if c.apiKey != "" {
			req.Header.Set("Authorization", "Bearer "+c.apiKey)
		}
		return req, nil
	})
	if err != nil {
		return "", fmt.Errorf("completion: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("completion: %w", readStatusError(resp))
	}
	defer resp.Body.Close() //nolint:errcheck // read-only body

	var out completionResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("%w: decode completion: %w", core.ErrUpstream, err)
	}

	if out.Error != nil {
		return "", fmt.Errorf("%w: completion: %s", core.ErrUpstream, out.Error.Message)
	}

	if len(out.Choices) == 0 {
		return "", fmt.Errorf("%w: completion returned no choices", core.ErrUpstream)
	}

	text := strings.TrimSpace(out.Choices[0].Text)
	if c.stop != "" {
		text = strings.TrimSpace(strings.TrimSuffix(text, c.stop))
	}
	if text == "" {
		return "", fmt.Errorf("%w: completion returned empty text", core.ErrUpstream)
	}

	return text, nil
}
