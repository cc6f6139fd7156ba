package pipeline

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"market-pulse/src/interfaces"
	"market-pulse/src/logger"
	"market-pulse/src/models"
	"market-pulse/src/resilience"
	"market-pulse/src/utils"
)

// -----------------------------------------------------------------------------
// Key Scheme (shared cache)
// -----------------------------------------------------------------------------

const (
	QuoteKeyPrefix   = "quote:"
	SeriesKeyPrefix  = "series:"
	HistoryKeyPrefix = "history:"
	SummaryKey       = "market:summary"
)

// QuoteKey is the latest-value cache key for one symbol
func QuoteKey(symbol string) string { return QuoteKeyPrefix + symbol }

// SeriesKey is the bounded time-series key for one symbol
func SeriesKey(symbol string) string { return SeriesKeyPrefix + symbol }

// HistoryKey is the day-bucketed short-term history key for one symbol
func HistoryKey(symbol string, t time.Time) string {
	return fmt.Sprintf("%s%s:%s", HistoryKeyPrefix, symbol, t.UTC().Format("2006-01-02"))
}

// -----------------------------------------------------------------------------
// Batch Processor
// -----------------------------------------------------------------------------

// BatchProcessor drains the update queue on a fixed period and fans each
// batch out to cache writes, room broadcasts, the short-term history log and
// (when enabled) the relational archive. The fan-outs run concurrently and
// fail independently.
type BatchProcessor struct {
	Config *models.MPipelineConfig
	Queue  *UpdateQueue
	Store  interfaces.ISnapshotStore
	Hub    interfaces.IBroadcaster
	DB     interfaces.IDatabase // optional, nil when storage is disabled
	Exec   *resilience.Executor
	Logger *logger.Logger

	draining atomic.Bool
	running  atomic.Bool
	cancel   context.CancelFunc
	wg       sync.WaitGroup

	totalProcessed atomic.Int64
	fanOutFailures atomic.Int64
	broadcasts     atomic.Int64

	metricsMu     sync.Mutex
	durations     *utils.RingBuffer // recent drain durations, ms
	lastDrainSize int
	lastDrainAt   int64
}

// -----------------------------------------------------------------------------

func NewBatchProcessor(cfg *models.MPipelineConfig, queue *UpdateQueue, store interfaces.ISnapshotStore,
	hub interfaces.IBroadcaster, db interfaces.IDatabase, exec *resilience.Executor, log *logger.Logger) *BatchProcessor {

	return &BatchProcessor{
		Config:    cfg,
		Queue:     queue,
		Store:     store,
		Hub:       hub,
		DB:        db,
		Exec:      exec,
		Logger:    log,
		durations: utils.NewRingBuffer(60),
	}
}

// -----------------------------------------------------------------------------

// Start launches the periodic drain loop. Idempotent.
func (p *BatchProcessor) Start(ctx context.Context) {
	if !p.running.CompareAndSwap(false, true) {
		p.Logger.Info("Batch processor already running")
		return
	}

	ctx, p.cancel = context.WithCancel(ctx)

	p.wg.Add(1)
	go p.run(ctx)

	p.Logger.Info("Batch processor started (drain every %dms, batch size %d)",
		p.Config.DrainIntervalMs, p.Config.DrainBatchSize)
}

// -----------------------------------------------------------------------------

// Stop cancels the drain loop and waits for an in-flight drain. Idempotent.
func (p *BatchProcessor) Stop() {
	if !p.running.CompareAndSwap(true, false) {
		p.Logger.Info("Batch processor already stopped")
		return
	}

	p.cancel()
	p.wg.Wait()
	p.Logger.Info("Batch processor stopped")
}

// -----------------------------------------------------------------------------

func (p *BatchProcessor) run(ctx context.Context) {
	defer p.wg.Done()

	ticker := time.NewTicker(time.Duration(p.Config.DrainIntervalMs) * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			// Final drains so records accepted before shutdown are not lost,
			// even when the backlog spans several batches
			for p.Drain(context.Background()) > 0 {
			}
			return
		case <-ticker.C:
			p.Drain(ctx)
		}
	}
}

// -----------------------------------------------------------------------------

// Drain pops one bounded batch and fans it out. At most one drain runs at a
// time: a tick that fires mid-drain is skipped, not queued.
func (p *BatchProcessor) Drain(ctx context.Context) int {
	if !p.draining.CompareAndSwap(false, true) {
		p.Logger.Debug("Drain already in progress, skipping tick")
		return 0
	}
	defer p.draining.Store(false)

	batch := p.Queue.PopBatch(p.Config.DrainBatchSize)
	if len(batch) == 0 {
		return 0
	}

	start := time.Now()

	var wg sync.WaitGroup
	wg.Add(3)

	go func() {
		defer wg.Done()
		if err := p.writeThrough(ctx, batch); err != nil {
			p.fanOutFailures.Add(1)
			p.Logger.Error("Cache write fan-out failed: %v", err)
		}
	}()

	go func() {
		defer wg.Done()
		p.broadcastChanged(batch)
	}()

	go func() {
		defer wg.Done()
		if err := p.appendHistory(ctx, batch); err != nil {
			p.fanOutFailures.Add(1)
			p.Logger.Error("History fan-out failed: %v", err)
		}
	}()

	if p.DB != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := p.archive(batch); err != nil {
				p.fanOutFailures.Add(1)
				p.Logger.Error("Archive fan-out failed: %v", err)
			}
		}()
	}

	wg.Wait()

	elapsed := time.Since(start)
	p.totalProcessed.Add(int64(len(batch)))

	p.metricsMu.Lock()
	p.durations.Append(float64(elapsed.Microseconds()) / 1000.0)
	p.lastDrainSize = len(batch)
	p.lastDrainAt = time.Now().Unix()
	p.metricsMu.Unlock()

	p.Logger.Debug("Drained %d records in %v", len(batch), elapsed)
	return len(batch)
}

// -----------------------------------------------------------------------------

// storeCall runs one cache operation under the shared-cache circuit breaker.
// The drain's own cadence provides the repetition, so no retry on top.
func (p *BatchProcessor) storeCall(ctx context.Context, operation string, fn func(ctx context.Context) error) error {
	return p.Exec.Protect(ctx, resilience.ServiceSnapshotStore, operation, fn)
}

// -----------------------------------------------------------------------------

// writeThrough refreshes the latest-value cache and the bounded time series
// for every record, material or not, so TTLs stay fresh even when nothing is
// broadcast.
func (p *BatchProcessor) writeThrough(ctx context.Context, batch []models.MUpdateRecord) error {
	ttl := time.Duration(p.Config.SnapshotTTLSeconds) * time.Second
	retention := time.Duration(p.Config.HistoryRetentionDays) * 24 * time.Hour

	var firstErr error
	for _, rec := range batch {
		snap := rec.Snapshot

		err := p.storeCall(ctx, "cache snapshot", func(ctx context.Context) error {
			return p.Store.SetWithTTL(ctx, QuoteKey(snap.Symbol), snap, ttl)
		})
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}

		err = p.storeCall(ctx, "append series", func(ctx context.Context) error {
			return p.Store.AppendToTimeSeries(ctx, SeriesKey(snap.Symbol), float64(snap.Timestamp), snap, retention)
		})
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}

		err = p.storeCall(ctx, "trim series", func(ctx context.Context) error {
			return p.Store.TrimTimeSeries(ctx, SeriesKey(snap.Symbol), p.Config.SeriesMaxLength)
		})
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// -----------------------------------------------------------------------------

// broadcastChanged sends material records, in enqueue order, to the
// instrument room and the global room.
func (p *BatchProcessor) broadcastChanged(batch []models.MUpdateRecord) {
	for _, rec := range batch {
		if !rec.ChangeDetected {
			continue
		}

		msg := models.MStockUpdate{
			Type:      "stock_update",
			Symbol:    rec.Snapshot.Symbol,
			Data:      rec.Snapshot,
			Timestamp: time.Now().Unix(),
		}

		p.Hub.BroadcastToRoom(models.InstrumentRoom(rec.Snapshot.Symbol), msg)
		p.Hub.BroadcastToRoom(models.RoomGlobal, msg)
		p.broadcasts.Add(1)
	}
}

// -----------------------------------------------------------------------------

// appendHistory adds material records to the day-bucketed short-term log
func (p *BatchProcessor) appendHistory(ctx context.Context, batch []models.MUpdateRecord) error {
	retention := time.Duration(p.Config.HistoryRetentionDays) * 24 * time.Hour

	var firstErr error
	for _, rec := range batch {
		if !rec.ChangeDetected {
			continue
		}

		snap := rec.Snapshot
		key := HistoryKey(snap.Symbol, time.Unix(snap.Timestamp, 0))
		err := p.storeCall(ctx, "append history", func(ctx context.Context) error {
			return p.Store.AppendToTimeSeries(ctx, key, float64(snap.Timestamp), snap, retention)
		})
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// -----------------------------------------------------------------------------

// archive persists the drained snapshots to the relational store
func (p *BatchProcessor) archive(batch []models.MUpdateRecord) error {
	snapshots := make([]models.MInstrumentSnapshot, 0, len(batch))
	for _, rec := range batch {
		snapshots = append(snapshots, rec.Snapshot)
	}
	return p.DB.SaveSnapshotsBulk(snapshots)
}

// -----------------------------------------------------------------------------

// Metrics returns a point-in-time view of processing counters
func (p *BatchProcessor) Metrics() models.MPipelineMetrics {
	p.metricsMu.Lock()
	avg := p.durations.Average()
	lastSize := p.lastDrainSize
	lastAt := p.lastDrainAt
	p.metricsMu.Unlock()

	return models.MPipelineMetrics{
		TotalProcessed:       p.totalProcessed.Load(),
		AvgDrainDurationMs:   avg,
		QueueDepth:           p.Queue.Len(),
		LastDrainSize:        lastSize,
		LastDrainAt:          lastAt,
		FanOutFailures:       p.fanOutFailures.Load(),
		BroadcastsDispatched: p.broadcasts.Load(),
	}
}
