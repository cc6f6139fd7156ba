package resilience

import (
	"context"
	"math"
	"math/rand"
	"time"

	"market-pulse/src/logger"
	"market-pulse/src/models"
)

// -----------------------------------------------------------------------------
// Retry with Backoff
// -----------------------------------------------------------------------------

// RetryPolicy retries an operation with exponential backoff:
// delay = min(base * multiplier^(attempt-1), cap), optionally jittered by a
// uniform factor in [0.5, 1.0).
type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
	Multiplier  float64
	Jitter      bool
}

// -----------------------------------------------------------------------------

func NewRetryPolicy(cfg models.MResilienceConfig) RetryPolicy {
	return RetryPolicy{
		MaxAttempts: cfg.MaxAttempts,
		BaseDelay:   time.Duration(cfg.BaseDelayMs) * time.Millisecond,
		MaxDelay:    time.Duration(cfg.MaxDelayMs) * time.Millisecond,
		Multiplier:  cfg.Multiplier,
		Jitter:      cfg.Jitter,
	}
}

// -----------------------------------------------------------------------------

// DelayFor returns the pre-jitter backoff delay for a 1-based attempt number.
// The sequence is non-decreasing and capped at MaxDelay.
func (p RetryPolicy) DelayFor(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}

	delay := float64(p.BaseDelay) * math.Pow(p.Multiplier, float64(attempt-1))
	if delay > float64(p.MaxDelay) {
		return p.MaxDelay
	}
	return time.Duration(delay)
}

// -----------------------------------------------------------------------------

// jittered scales a delay by a uniform random factor in [0.5, 1.0)
func (p RetryPolicy) jittered(delay time.Duration) time.Duration {
	if !p.Jitter {
		return delay
	}
	factor := 0.5 + rand.Float64()*0.5
	return time.Duration(float64(delay) * factor)
}

// -----------------------------------------------------------------------------

// Do runs fn up to MaxAttempts times. Permanent and circuit-open failures
// stop immediately; exhausting all attempts surfaces the last error.
func (p RetryPolicy) Do(ctx context.Context, operation string, log *logger.Logger, fn func() error) error {
	var lastErr error

	for attempt := 1; attempt <= p.MaxAttempts; attempt++ {
		lastErr = fn()
		if lastErr == nil {
			return nil
		}

		if !retryable(lastErr) {
			log.Warning("%s failed with non-retryable error: %v", operation, lastErr)
			return lastErr
		}

		if attempt == p.MaxAttempts {
			break
		}

		delay := p.jittered(p.DelayFor(attempt))
		log.Warning("%s failed (attempt %d/%d): %v. Retrying in %v", operation, attempt, p.MaxAttempts, lastErr, delay)

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	log.Error("%s failed after %d attempts: %v", operation, p.MaxAttempts, lastErr)
	return lastErr
}
