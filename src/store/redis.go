package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"market-pulse/src/interfaces"
	"market-pulse/src/logger"
	"market-pulse/src/models"
	"market-pulse/src/pipeline"

	"github.com/redis/go-redis/v9"
)

// Compile-time check to ensure RedisSnapshotStore implements ISnapshotStore
var _ interfaces.ISnapshotStore = (*RedisSnapshotStore)(nil)

// -----------------------------------------------------------------------------
// Redis Snapshot Store
// -----------------------------------------------------------------------------

// RedisSnapshotStore keeps the latest quote per instrument under a short TTL
// and bounded time series in sorted sets scored by capture timestamp.
type RedisSnapshotStore struct {
	client *redis.Client
	Logger *logger.Logger
}

// -----------------------------------------------------------------------------

func NewRedisSnapshotStore(client *redis.Client, log *logger.Logger) *RedisSnapshotStore {
	return &RedisSnapshotStore{
		client: client,
		Logger: log,
	}
}

// -----------------------------------------------------------------------------

// Ping verifies connectivity on startup
func (r *RedisSnapshotStore) Ping(ctx context.Context) error {
	if err := r.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	return nil
}

// -----------------------------------------------------------------------------

func (r *RedisSnapshotStore) SetWithTTL(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal value for %s: %w", key, err)
	}

	if err := r.client.Set(ctx, key, data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to set %s: %w", key, err)
	}
	return nil
}

// -----------------------------------------------------------------------------

func (r *RedisSnapshotStore) Get(ctx context.Context, key string) (string, bool, error) {
	val, err := r.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to get %s: %w", key, err)
	}
	return val, true, nil
}

// -----------------------------------------------------------------------------

func (r *RedisSnapshotStore) AppendToTimeSeries(ctx context.Context, key string, score float64, value interface{}, retention time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal member for %s: %w", key, err)
	}

	if err := r.client.ZAdd(ctx, key, redis.Z{Score: score, Member: data}).Err(); err != nil {
		return fmt.Errorf("failed to append to %s: %w", key, err)
	}

	// Refresh expiry so abandoned series clean themselves up
	if retention > 0 {
		r.client.Expire(ctx, key, retention)
	}
	return nil
}

// -----------------------------------------------------------------------------

func (r *RedisSnapshotStore) TrimTimeSeries(ctx context.Context, key string, maxLength int) error {
	if maxLength <= 0 {
		return nil
	}

	// Keep only the maxLength newest members
	if err := r.client.ZRemRangeByRank(ctx, key, 0, int64(-(maxLength + 1))).Err(); err != nil {
		return fmt.Errorf("failed to trim %s: %w", key, err)
	}
	return nil
}

// -----------------------------------------------------------------------------

func (r *RedisSnapshotStore) RangeByScore(ctx context.Context, key string, from, to float64) ([]string, error) {
	vals, err := r.client.ZRangeByScore(ctx, key, &redis.ZRangeBy{
		Min: fmt.Sprintf("%f", from),
		Max: fmt.Sprintf("%f", to),
	}).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to range %s: %w", key, err)
	}
	return vals, nil
}

// -----------------------------------------------------------------------------
// Data-Pull Lookups (websocket request/reply path)
// -----------------------------------------------------------------------------

// LatestQuote returns the cached snapshot for one symbol
func (r *RedisSnapshotStore) LatestQuote(ctx context.Context, symbol string) (models.MInstrumentSnapshot, bool, error) {
	var snap models.MInstrumentSnapshot

	raw, found, err := r.Get(ctx, pipeline.QuoteKey(symbol))
	if err != nil || !found {
		return snap, false, err
	}

	if err := json.Unmarshal([]byte(raw), &snap); err != nil {
		return snap, false, fmt.Errorf("corrupt snapshot for %s: %w", symbol, err)
	}
	return snap, true, nil
}

// -----------------------------------------------------------------------------

// MarketSummary returns the cached market summary, if one has been generated
func (r *RedisSnapshotStore) MarketSummary(ctx context.Context) (models.MMarketSummary, bool, error) {
	var summary models.MMarketSummary

	raw, found, err := r.Get(ctx, pipeline.SummaryKey)
	if err != nil || !found {
		return summary, false, err
	}

	if err := json.Unmarshal([]byte(raw), &summary); err != nil {
		return summary, false, fmt.Errorf("corrupt market summary: %w", err)
	}
	return summary, true, nil
}

// -----------------------------------------------------------------------------

// History returns the time-series snapshots for a symbol in [from, to]
func (r *RedisSnapshotStore) History(ctx context.Context, symbol string, from, to time.Time) ([]models.MInstrumentSnapshot, error) {
	vals, err := r.RangeByScore(ctx, pipeline.SeriesKey(symbol), float64(from.Unix()), float64(to.Unix()))
	if err != nil {
		return nil, err
	}

	history := make([]models.MInstrumentSnapshot, 0, len(vals))
	for _, raw := range vals {
		var snap models.MInstrumentSnapshot
		if err := json.Unmarshal([]byte(raw), &snap); err != nil {
			r.Logger.Warning("Skipping corrupt series member for %s: %v", symbol, err)
			continue
		}
		history = append(history, snap)
	}
	return history, nil
}
