package oracle

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"evicite/internal/port"
)

// RetryOracle retries transient provider failures with exponential backoff.
// Rate-limit errors wait out the provider's reset instead, capped at the
// backoff ceiling. It implements port.RelevanceOracle.
type RetryOracle struct {
	inner       port.RelevanceOracle
	maxAttempts int
	baseDelay   time.Duration
	maxDelay    time.Duration
}

func NewRetryOracle(inner port.RelevanceOracle, maxAttempts int) *RetryOracle {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return &RetryOracle{
		inner:       inner,
		maxAttempts: maxAttempts,
		baseDelay:   time.Second,
		maxDelay:    30 * time.Second,
	}
}

func (r *RetryOracle) FindPassage(ctx context.Context, input port.OracleInput) (*port.OracleOutput, error) {
	var lastErr error
	delay := r.baseDelay

	for attempt := 1; attempt <= r.maxAttempts; attempt++ {
		out, err := r.inner.FindPassage(ctx, input)
		if err == nil {
			return out, nil
		}
		lastErr = err

		if errors.Is(err, ErrNoProviders) {
			return nil, err
		}
		if attempt == r.maxAttempts {
			break
		}

		wait := delay
		var rlErr *RateLimitError
		if errors.As(err, &rlErr) && rlErr.RetryAfter > 0 {
			wait = rlErr.RetryAfter
		}
		if wait > r.maxDelay {
			wait = r.maxDelay
		}
		log.Printf("oracle.RetryOracle: attempt %d/%d failed, retrying in %s: %v", attempt, r.maxAttempts, wait, err)

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(wait):
		}
		delay *= 2
	}

	return nil, fmt.Errorf("oracle exhausted after %d attempts: %w", r.maxAttempts, lastErr)
}
