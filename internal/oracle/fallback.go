package oracle

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"evicite/internal/port"
)

// ErrNoProviders reports a fallback chain built without any providers. It is
// permanent; retrying cannot make a provider appear.
var ErrNoProviders = errors.New("no oracle providers configured")

// circuitState tracks rate-limit backoff for a single oracle provider.
type circuitState struct {
	mu      sync.RWMutex
	resetAt time.Time // zero value = closed (healthy)
}

func (c *circuitState) isOpenWithReset(now time.Time) (time.Time, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.resetAt, !c.resetAt.IsZero() && now.Before(c.resetAt)
}

func (c *circuitState) open(resetAt time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.resetAt = resetAt
}

// FallbackOracle tries providers in order, skipping those with open
// circuits. It implements port.RelevanceOracle.
type FallbackOracle struct {
	oracles  []port.RelevanceOracle
	circuits []*circuitState
	names    []string
}

// NewFallbackOracle creates a FallbackOracle from an ordered list of providers and their names.
func NewFallbackOracle(oracles []port.RelevanceOracle, names []string) *FallbackOracle {
	circuits := make([]*circuitState, len(oracles))
	for i := range circuits {
		circuits[i] = &circuitState{}
	}
	return &FallbackOracle{
		oracles:  oracles,
		circuits: circuits,
		names:    names,
	}
}

func (f *FallbackOracle) FindPassage(ctx context.Context, input port.OracleInput) (*port.OracleOutput, error) {
	if len(f.oracles) == 0 {
		return nil, ErrNoProviders
	}

	now := time.Now()
	var lastErr error
	allRateLimited := true
	var earliestReset time.Time

	for i, o := range f.oracles {
		if resetAt, open := f.circuits[i].isOpenWithReset(now); open {
			log.Printf("oracle.FallbackOracle: skipping %s (circuit open until %s)", f.names[i], resetAt.Format(time.RFC3339))
			if earliestReset.IsZero() || resetAt.Before(earliestReset) {
				earliestReset = resetAt
			}
			continue
		}

		out, err := o.FindPassage(ctx, input)
		if err == nil {
			return out, nil
		}

		log.Printf("oracle.FallbackOracle: %s failed: %v", f.names[i], err)
		lastErr = err

		var rlErr *RateLimitError
		if errors.As(err, &rlErr) {
			resetAt := now.Add(rlErr.RetryAfter)
			f.circuits[i].open(resetAt)
			if earliestReset.IsZero() || resetAt.Before(earliestReset) {
				earliestReset = resetAt
			}
		} else {
			allRateLimited = false
		}
	}

	if lastErr == nil {
		// All providers were skipped due to open circuits
		retryAfter := time.Until(earliestReset)
		if retryAfter < 0 {
			retryAfter = time.Second
		}
		return nil, NewRateLimitError("all", fmt.Errorf("all oracle providers rate limited"), int(retryAfter.Seconds()))
	}

	if allRateLimited {
		retryAfter := time.Until(earliestReset)
		if retryAfter < 0 {
			retryAfter = time.Second
		}
		return nil, NewRateLimitError("all", fmt.Errorf("all oracle providers rate limited"), int(retryAfter.Seconds()))
	}

	return nil, fmt.Errorf("all oracle providers failed: %w", lastErr)
}
