package interfaces

import (
	"context"

	"market-pulse/src/models"
)

// -----------------------------------------------------------------------------
// ISourceGateway interface for fetching quotes from external providers.
// -----------------------------------------------------------------------------

type ISourceGateway interface {

	// Name returns the unique identifier of the source
	Name() string

	// -----------------------------------------------------------------------------

	// Fetch retrieves one normalized snapshot for one instrument. Safe to call
	// concurrently for distinct symbols. Errors are typed transient vs. permanent
	// (see resilience package); only transient errors should be retried.
	Fetch(ctx context.Context, symbol string) (models.MInstrumentSnapshot, error)

	// -----------------------------------------------------------------------------

	// Symbols returns the instrument universe this source monitors
	Symbols() []string

	// -----------------------------------------------------------------------------

	// UpdateSymbols updates the list of symbols being monitored
	UpdateSymbols(symbols []string) error
}
