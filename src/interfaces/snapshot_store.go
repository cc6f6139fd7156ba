package interfaces

import (
	"context"
	"time"
)

// -----------------------------------------------------------------------------
// ISnapshotStore interface for the shared cache (latest values + bounded
// time series). All operations are independently idempotent and safe to retry.
// -----------------------------------------------------------------------------

type ISnapshotStore interface {

	// SetWithTTL stores a JSON-encoded value under key with an expiry
	SetWithTTL(ctx context.Context, key string, value interface{}, ttl time.Duration) error

	// -----------------------------------------------------------------------------

	// Get returns the raw value for key, or found=false when absent
	Get(ctx context.Context, key string) (value string, found bool, err error)

	// -----------------------------------------------------------------------------

	// AppendToTimeSeries appends a scored member to a sorted collection.
	// A non-zero retention refreshes the expiry of the whole collection.
	AppendToTimeSeries(ctx context.Context, key string, score float64, value interface{}, retention time.Duration) error

	// -----------------------------------------------------------------------------

	// TrimTimeSeries drops the oldest members beyond maxLength
	TrimTimeSeries(ctx context.Context, key string, maxLength int) error

	// -----------------------------------------------------------------------------

	// RangeByScore returns members with score in [from, to], oldest first
	RangeByScore(ctx context.Context, key string, from, to float64) ([]string, error)
}
