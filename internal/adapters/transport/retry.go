// Package transport wraps connectors with cross-cutting behavior: retries,
// structured logging and execution statistics. Wrapped connectors keep the
// name and capabilities of the connector they wrap.
package transport

import (
	"context"
	"math/rand"
	"time"

	"github.com/DanielPopoola/paykit/internal/config"
	"github.com/DanielPopoola/paykit/internal/core/domain"
	"github.com/DanielPopoola/paykit/internal/core/ports"
)

type RetryConnector struct {
	ports.Connector
	baseDelay  time.Duration
	maxDelay   time.Duration
	maxRetries int
	sleep      func(ctx context.Context, d time.Duration) error
}

// Retry resends requests that fail with a retryable TransportError. MaxRetries
// counts attempts after the first one. When every attempt fails the last error
// is returned as the connector produced it.
func Retry(inner ports.Connector, cfg config.RetryConfig) *RetryConnector {
	return &RetryConnector{
		Connector:  inner,
		baseDelay:  cfg.BaseDelay,
		maxDelay:   cfg.MaxDelay,
		maxRetries: cfg.MaxRetries,
		sleep:      sleepCtx,
	}
}

func (r *RetryConnector) Send(ctx context.Context, req domain.NormalizedRequest) (*domain.RawResponse, error) {
	var lastErr error

	for attempt := 0; attempt <= r.maxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, domain.ClassifyTransportFailure(r.Name(), err)
		}

		resp, err := r.Connector.Send(ctx, req)
		if err == nil {
			return resp, nil
		}

		lastErr = err

		if !isRetryable(err) {
			return nil, err
		}

		if attempt < r.maxRetries {
			if err := r.sleep(ctx, r.backoff(attempt)); err != nil {
				return nil, domain.ClassifyTransportFailure(r.Name(), err)
			}
		}
	}

	return nil, lastErr
}

func isRetryable(err error) bool {
	transportErr, ok := domain.IsTransportError(err)
	return ok && transportErr.IsRetryable()
}

// maxBackoff caps the delay when no MaxDelay is configured.
const maxBackoff = 10 * time.Minute

// backoff is exponential with up to 25% jitter, capped at maxDelay.
func (r *RetryConnector) backoff(attempt int) time.Duration {
	limit := r.maxDelay
	if limit <= 0 {
		limit = maxBackoff
	}

	base := r.baseDelay
	for i := 0; i < attempt && base > 0 && base < limit; i++ {
		base *= 2
	}
	if base > limit {
		base = limit
	}
	if base <= 0 {
		return 0
	}

	jitter := time.Duration(rand.Int63n(int64(base)/4 + 1))
	return base + jitter
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
