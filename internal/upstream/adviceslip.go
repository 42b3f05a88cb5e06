// AngelaMos | 2026
// adviceslip.go

package upstream

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"go.opentelemetry.io/otel/attribute"

	"github.com/carterperez-dev/persona-advice/internal/config"
	"github.com/carterperez-dev/persona-advice/internal/core"
)

type Slip struct {
	ID     int    `json:"id"`
	Advice string `json:"advice"`
}

// slipEnvelope covers both shapes the service answers with. A missing id
// comes back as 200 with a message instead of a slip.
type slipEnvelope struct {
	Slip    *Slip `json:"slip"`
	Message *struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"message"`
}

type AdviceSlipClient struct {
	baseURL string
	client  *http.Client
	retry   RetryPolicy
}

func NewAdviceSlipClient(
	cfg config.AdviceSlipConfig,
	retry RetryPolicy,
) *AdviceSlipClient {
	return &AdviceSlipClient{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		client:  &http.Client{Timeout: cfg.Timeout},
		retry:   retry,
	}
}

func (c *AdviceSlipClient) Slip(ctx context.Context, id int) (*Slip, error) {
	ctx, span := core.StartSpan(ctx, "adviceslip.get",
		attribute.Int("adviceslip.id", id),
	)
	defer span.End()

	slip, err := c.fetch(ctx, id)
	core.SetSpanError(span, err)
	return slip, err
}

func (c *AdviceSlipClient) fetch(ctx context.Context, id int) (*Slip, error) {
	url := fmt.Sprintf("%s/advice/%d", c.baseURL, id)

	resp, err := c.retry.Do(ctx, c.client, func(ctx context.Context) (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Accept", "application/json")
		return req, nil
	})
	if err != nil {
		return nil, fmt.Errorf("advice slip %d: %w", id, err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("advice slip %d: %w", id, readStatusError(resp))
	}
	defer resp.Body.Close() //nolint:errcheck // read-only body

	var env slipEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, fmt.Errorf("%w: decode advice slip %d: %w", core.ErrUpstream, id, err)
	}

	if env.Slip == nil || env.Slip.Advice == "" {
		reason := "empty slip"
		if env.Message != nil && env.Message.Text != "" {
			reason = env.Message.Text
		}
		return nil, fmt.Errorf("%w: advice slip %d: %s", core.ErrUpstream, id, reason)
	}

	return env.Slip, nil
}
