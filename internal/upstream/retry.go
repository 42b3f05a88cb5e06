// AngelaMos | 2026
// retry.go

package upstream

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/carterperez-dev/persona-advice/internal/config"
	"github.com/carterperez-dev/persona-advice/internal/core"
)

const maxErrorBody = 4 << 10

type RetryPolicy struct {
	MaxRetries           int
	Backoff              time.Duration
	RetryableStatusCodes []int
}

func NewRetryPolicy(cfg config.UpstreamConfig) RetryPolicy {
	return RetryPolicy{
		MaxRetries: cfg.MaxRetries,
		Backoff:    cfg.RetryBackoff,
		RetryableStatusCodes: []int{
			http.StatusTooManyRequests,
			http.StatusInternalServerError,
			http.StatusBadGateway,
			http.StatusServiceUnavailable,
			http.StatusGatewayTimeout,
		},
	}
}

// StatusError is an upstream answer with a status the caller cannot use.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("status %d", e.StatusCode)
	}
	return fmt.Sprintf("status %d: %s", e.StatusCode, e.Body)
}

func (e *StatusError) Unwrap() error {
	return core.ErrUpstream
}

func (p RetryPolicy) retryable(status int) bool {
	return slices.Contains(p.RetryableStatusCodes, status)
}

// Do sends the request built by build, retrying transport errors and
// retryable statuses up to MaxRetries times. The returned response is never
// a retryable status; the caller owns its body.
func (p RetryPolicy) Do(
	ctx context.Context,
	client *http.Client,
	build func(ctx context.Context) (*http.Request, error),
) (*http.Response, error) {
	var lastErr error

	for attempt := 0; attempt <= p.MaxRetries; attempt++ {
		if attempt > 0 {
			if err := p.wait(ctx, attempt); err != nil {
				return nil, fmt.Errorf("%w: %w", core.ErrUpstream, err)
			}
		}

		req, err := build(ctx)
		if err != nil {
			return nil, fmt.Errorf("build request: %w", err)
		}

		resp, err := client.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return nil, fmt.Errorf("%w: %w", core.ErrUpstream, ctx.Err())
			}
			lastErr = fmt.Errorf("%w: %w", core.ErrUpstream, err)
			continue
		}

		if !p.retryable(resp.StatusCode) {
			return resp, nil
		}

		lastErr = readStatusError(resp)
	}

	return nil, lastErr
}

func (p RetryPolicy) wait(ctx context.Context, attempt int) error {
	if p.Backoff <= 0 {
		return ctx.Err()
	}

	delay := p.Backoff << (attempt - 1)
	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// readStatusError drains and closes resp.
func readStatusError(resp *http.Response) *StatusError {
	defer resp.Body.Close() //nolint:errcheck // body already consumed

	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody)) //nolint:errcheck // best-effort detail
	return &StatusError{
		StatusCode: resp.StatusCode,
		Body:       strings.TrimSpace(string(body)),
	}
}
