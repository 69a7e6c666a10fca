package httpexec

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"net/http"
	"time"

	"github.com/rowbase/rowbase-go/internal/debug"
	"github.com/rowbase/rowbase-go/query"
)

// RetryPolicy controls how failed requests are re-sent.
type RetryPolicy struct {
	MaxAttempts   int           // Total attempts, including the first
	InitialDelay  time.Duration // Delay before the second attempt
	MaxDelay      time.Duration // Upper bound for any delay
	BackoffFactor float64       // Exponential backoff multiplier
	Jitter        bool          // Spread delays by ±25%
}

// DefaultRetryPolicy sends each request once.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts:   1,
		InitialDelay:  100 * time.Millisecond,
		MaxDelay:      5 * time.Second,
		BackoffFactor: 2.0,
		Jitter:        true,
	}
}

// retryable reports whether err came from the transport or a gateway status.
func retryable(err error) bool {
	var remote *query.RemoteError
	if !errors.As(err, &remote) {
		return false
	}
	switch remote.StatusCode {
	case 0:
		return remote.Cause != nil
	case http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return true
	default:
		return false
	}
}

func (p RetryPolicy) do(ctx context.Context, fn func(attempt int) error) error {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	delay := p.InitialDelay

	for attempt := 1; attempt <= attempts; attempt++ {
		err := fn(attempt)
		if err == nil {
			return nil
		}
		lastErr = err

		if !retryable(err) || ctx.Err() != nil {
			return err
		}
		if attempt == attempts {
			break
		}

		wait := delay
		if p.Jitter && delay > 0 {
			spread := delay / 4
			wait = delay - spread + time.Duration(rand.Int63n(int64(spread)*2+1))
		}
		debug.Debug("retrying request", "attempt", attempt+1, "delay", wait, "error", err)

		timer := time.NewTimer(wait)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		}

		delay = time.Duration(float64(delay) * p.BackoffFactor)
		if p.MaxDelay > 0 && delay > p.MaxDelay {
			delay = p.MaxDelay
		}
	}

	if attempts == 1 {
		return lastErr
	}
	return fmt.Errorf("%w after %d attempts: %w", ErrRetryExhausted, attempts, lastErr)
}
