package resilience

import (
	"sync"
	"time"

	"market-pulse/src/logger"
	"market-pulse/src/models"

	"github.com/sony/gobreaker"
)

// -----------------------------------------------------------------------------
// Circuit Breaker Registry (one breaker per named external service)
// -----------------------------------------------------------------------------

type BreakerRegistry struct {
	cfg      models.MResilienceConfig
	Logger   *logger.Logger
	mu       sync.Mutex
	breakers map[string]*gobreaker.CircuitBreaker
}

// -----------------------------------------------------------------------------

func NewBreakerRegistry(cfg models.MResilienceConfig, log *logger.Logger) *BreakerRegistry {
	return &BreakerRegistry{
		cfg:      cfg,
		Logger:   log,
		breakers: make(map[string]*gobreaker.CircuitBreaker),
	}
}

// -----------------------------------------------------------------------------

// Get returns the breaker for a service, creating it on first use. Breakers
// live for the process lifetime.
func (r *BreakerRegistry) Get(service string) *gobreaker.CircuitBreaker {
	r.mu.Lock()
	defer r.mu.Unlock()

	if cb, ok := r.breakers[service]; ok {
		return cb
	}

	threshold := uint32(r.cfg.FailureThreshold)
	settings := gobreaker.Settings{
		Name: service,
		// Half-open closes again after this many consecutive successes;
		// any failure in half-open reopens the circuit.
		MaxRequests: uint32(r.cfg.HalfOpenSuccesses),
		Timeout:     time.Duration(r.cfg.ResetTimeoutSeconds) * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			r.Logger.Warning("Circuit %q: %s -> %s", name, from, to)
		},
	}

	cb := gobreaker.NewCircuitBreaker(settings)
	r.breakers[service] = cb
	return cb
}

// -----------------------------------------------------------------------------

// States returns the current state of every known breaker (ops surface)
func (r *BreakerRegistry) States() map[string]string {
	r.mu.Lock()
	defer r.mu.Unlock()

	states := make(map[string]string, len(r.breakers))
	for name, cb := range r.breakers {
		states[name] = cb.State().String()
	}
	return states
}

// -----------------------------------------------------------------------------

// AnyOpen reports whether at least one breaker is currently open
func (r *BreakerRegistry) AnyOpen() bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, cb := range r.breakers {
		if cb.State() == gobreaker.StateOpen {
			return true
		}
	}
	return false
}
