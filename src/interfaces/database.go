package interfaces

import "market-pulse/src/models"

// -----------------------------------------------------------------------------
// IDatabase interface for the optional relational snapshot archive.
// -----------------------------------------------------------------------------

type IDatabase interface {

	// Initialize opens the connection and creates tables
	Initialize() error

	// -----------------------------------------------------------------------------

	// SaveSnapshotsBulk archives a batch of drained snapshots
	SaveSnapshotsBulk(snapshots []models.MInstrumentSnapshot) error

	// -----------------------------------------------------------------------------

	// CleanupOldData prunes rows older than the retention window
	CleanupOldData() error

	// -----------------------------------------------------------------------------

	Close() error
}
