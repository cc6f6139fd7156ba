package resilience

import (
	"context"
	"fmt"

	"market-pulse/src/logger"
	"market-pulse/src/models"

	"github.com/sony/gobreaker"
)

// -----------------------------------------------------------------------------
// Service Identities
// -----------------------------------------------------------------------------

// ServicePrimaryFeed is the circuit-breaker identity of the quote provider
const ServicePrimaryFeed = "primary-feed"

// ServiceSnapshotStore is the circuit-breaker identity of the shared cache
const ServiceSnapshotStore = "snapshot-store"

// -----------------------------------------------------------------------------
// Executor (retry inside circuit breaker)
// -----------------------------------------------------------------------------

// Executor wraps an operation in both resilience primitives. Every retry
// attempt is a protected call, so an open circuit short-circuits all attempts
// immediately instead of burning the retry budget.
type Executor struct {
	Retry    RetryPolicy
	Breakers *BreakerRegistry
	Logger   *logger.Logger
}

// -----------------------------------------------------------------------------

func NewExecutor(cfg models.MResilienceConfig, log *logger.Logger) *Executor {
	return &Executor{
		Retry:    NewRetryPolicy(cfg),
		Breakers: NewBreakerRegistry(cfg, log),
		Logger:   log,
	}
}

// -----------------------------------------------------------------------------

// Execute runs fn against the named service. The operation name is only used
// for diagnostics.
func (e *Executor) Execute(ctx context.Context, service, operation string, fn func(ctx context.Context) error) error {
	cb := e.Breakers.Get(service)

	return e.Retry.Do(ctx, operation, e.Logger, func() error {
		_, err := cb.Execute(func() (interface{}, error) {
			return nil, fn(ctx)
		})

		if err == gobreaker.ErrOpenState || err == gobreaker.ErrTooManyRequests {
			return fmt.Errorf("%w: service %q rejected %q", ErrCircuitOpen, service, operation)
		}
		return err
	})
}

// -----------------------------------------------------------------------------

// Protect runs fn under the named service's circuit breaker without the retry
// policy. For callers whose own cadence already provides the repetition, like
// the periodic drain or a client-driven data pull.
func (e *Executor) Protect(ctx context.Context, service, operation string, fn func(ctx context.Context) error) error {
	cb := e.Breakers.Get(service)

	_, err := cb.Execute(func() (interface{}, error) {
		return nil, fn(ctx)
	})

	if err == gobreaker.ErrOpenState || err == gobreaker.ErrTooManyRequests {
		return fmt.Errorf("%w: service %q rejected %q", ErrCircuitOpen, service, operation)
	}
	return err
}
