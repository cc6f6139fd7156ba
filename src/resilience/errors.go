package resilience

import (
	"errors"
	"fmt"

	"github.com/sony/gobreaker"
)

// -----------------------------------------------------------------------------
// Error Taxonomy
// -----------------------------------------------------------------------------

// ErrCircuitOpen is returned when a call fails fast because the breaker for
// its service is open. Callers can short-circuit fallback logic (serve the
// last cached value) instead of waiting out a retry budget.
var ErrCircuitOpen = errors.New("circuit open")

// TransientError marks a failure worth retrying: timeout, rate limit,
// upstream unavailable.
type TransientError struct {
	Op  string
	Err error
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransientError) Unwrap() error {
	return e.Err
}

// PermanentError marks a failure retrying cannot fix, e.g. an unknown symbol.
type PermanentError struct {
	Op  string
	Err error
}

func (e *PermanentError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *PermanentError) Unwrap() error {
	return e.Err
}

// -----------------------------------------------------------------------------

// Transient wraps err as a retryable failure
func Transient(op string, err error) error {
	return &TransientError{Op: op, Err: err}
}

// Permanent wraps err as a non-retryable failure
func Permanent(op string, err error) error {
	return &PermanentError{Op: op, Err: err}
}

// -----------------------------------------------------------------------------

// IsTransient reports whether err is explicitly marked transient
func IsTransient(err error) bool {
	var te *TransientError
	return errors.As(err, &te)
}

// IsPermanent reports whether err is explicitly marked permanent
func IsPermanent(err error) bool {
	var pe *PermanentError
	return errors.As(err, &pe)
}

// IsCircuitOpen reports whether err means the breaker rejected the call
// without invoking the operation.
func IsCircuitOpen(err error) bool {
	return errors.Is(err, ErrCircuitOpen) ||
		errors.Is(err, gobreaker.ErrOpenState) ||
		errors.Is(err, gobreaker.ErrTooManyRequests)
}

// -----------------------------------------------------------------------------

// retryable decides whether another attempt makes sense. Untyped errors are
// treated as transient; permanent and circuit-open failures are not retried.
func retryable(err error) bool {
	return !IsPermanent(err) && !IsCircuitOpen(err)
}
