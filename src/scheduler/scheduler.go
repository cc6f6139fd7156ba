package scheduler

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"market-pulse/src/detector"
	"market-pulse/src/interfaces"
	"market-pulse/src/logger"
	"market-pulse/src/models"
	"market-pulse/src/pipeline"
	"market-pulse/src/resilience"
	"market-pulse/src/utils"
)

// Default job names
const (
	JobUniverseSweep = "universe-sweep"
	JobPrioritySweep = "priority-sweep"
	JobSummarySweep  = "summary-sweep"
)

// -----------------------------------------------------------------------------
// Ingestion Scheduler
// -----------------------------------------------------------------------------

// IngestionScheduler drives the periodic polling schedules: the full-universe
// sweep, the high-frequency priority sweep and the market-summary sweep. Each
// schedule is a ScheduleJob running its own ticker loop; per-instrument
// failures are tolerated and never abort a sweep.
type IngestionScheduler struct {
	Gateway  interfaces.ISourceGateway
	Exec     *resilience.Executor
	Detector *detector.ChangeDetector
	Queue    *pipeline.UpdateQueue
	Store    interfaces.ISnapshotStore
	Hub      interfaces.IBroadcaster
	Markets  *utils.MarketScheduler
	Config   *models.MIngestionConfig
	Pipeline *models.MPipelineConfig
	Logger   *logger.Logger

	mu      sync.Mutex
	jobs    map[string]*ScheduleJob
	started bool
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// -----------------------------------------------------------------------------

func NewIngestionScheduler(
	gateway interfaces.ISourceGateway,
	exec *resilience.Executor,
	det *detector.ChangeDetector,
	queue *pipeline.UpdateQueue,
	store interfaces.ISnapshotStore,
	hub interfaces.IBroadcaster,
	markets *utils.MarketScheduler,
	ingestCfg *models.MIngestionConfig,
	pipeCfg *models.MPipelineConfig,
	log *logger.Logger,
) *IngestionScheduler {
	return &IngestionScheduler{
		Gateway:  gateway,
		Exec:     exec,
		Detector: det,
		Queue:    queue,
		Store:    store,
		Hub:      hub,
		Markets:  markets,
		Config:   ingestCfg,
		Pipeline: pipeCfg,
		Logger:   log,
		jobs:     make(map[string]*ScheduleJob),
	}
}

// -----------------------------------------------------------------------------

// Start registers the default sweeps and launches every job loop. Starting a
// running scheduler is a no-op.
func (s *IngestionScheduler) Start(parentCtx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		s.Logger.Info("Scheduler already running, ignoring start")
		return
	}

	s.ctx, s.cancel = context.WithCancel(parentCtx)
	s.started = true

	s.registerDefaultJobsLocked()

	for _, job := range s.jobs {
		s.launchLocked(job)
	}

	s.Logger.Info("Scheduler started with %d jobs", len(s.jobs))
}

// -----------------------------------------------------------------------------

// Stop cancels every job loop and waits for in-flight sweeps. In-flight
// fetches complete (their records may still enqueue) but nothing reschedules.
// Stopping a stopped scheduler is a no-op.
func (s *IngestionScheduler) Stop() {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		s.Logger.Info("Scheduler already stopped, ignoring stop")
		return
	}
	s.started = false
	cancel := s.cancel
	s.mu.Unlock()

	cancel()
	s.wg.Wait()
	s.Logger.Info("Scheduler stopped")
}

// -----------------------------------------------------------------------------

// Running reports whether the scheduler is active (health surface)
func (s *IngestionScheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.started
}

// -----------------------------------------------------------------------------

// Jobs returns the status of every registered job
func (s *IngestionScheduler) Jobs() []models.MScheduleJobStatus {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]models.MScheduleJobStatus, 0, len(s.jobs))
	for _, job := range s.jobs {
		out = append(out, job.Status())
	}
	return out
}

// -----------------------------------------------------------------------------

// RegisterJob adds a named polling unit. When the scheduler is running the
// job loop starts immediately.
func (s *IngestionScheduler) RegisterJob(name, group string, interval time.Duration, run func(ctx context.Context)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.jobs[name]; exists {
		return fmt.Errorf("job %s already registered", name)
	}

	job := newScheduleJob(name, group, interval, run)
	s.jobs[name] = job

	if s.started {
		s.launchLocked(job)
	}

	s.Logger.Info("Registered job %s (group %s, every %v)", name, group, interval)
	return nil
}

// -----------------------------------------------------------------------------

// UnregisterJob cancels and removes one job
func (s *IngestionScheduler) UnregisterJob(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, exists := s.jobs[name]
	if !exists {
		return fmt.Errorf("job %s not found", name)
	}

	if job.cancel != nil {
		job.cancel()
	}
	delete(s.jobs, name)

	s.Logger.Info("Unregistered job %s", name)
	return nil
}

// -----------------------------------------------------------------------------

func (s *IngestionScheduler) registerDefaultJobsLocked() {
	if _, ok := s.jobs[JobUniverseSweep]; !ok {
		job := newScheduleJob(JobUniverseSweep, "universe",
			time.Duration(s.Config.UpdateIntervalSeconds)*time.Second, nil)
		job.run = func(ctx context.Context) { s.sweepUniverse(ctx, job) }
		s.jobs[JobUniverseSweep] = job
	}

	if len(s.Config.PrioritySymbols) > 0 {
		if _, ok := s.jobs[JobPrioritySweep]; !ok {
			job := newScheduleJob(JobPrioritySweep, "priority",
				time.Duration(s.Config.PriorityIntervalSeconds)*time.Second, nil)
			job.run = func(ctx context.Context) { s.sweepPriority(ctx, job) }
			s.jobs[JobPrioritySweep] = job
		}
	}

	if _, ok := s.jobs[JobSummarySweep]; !ok {
		job := newScheduleJob(JobSummarySweep, "summary",
			time.Duration(s.Config.SummaryIntervalSeconds)*time.Second, nil)
		job.run = func(ctx context.Context) { s.sweepSummary(ctx, job) }
		s.jobs[JobSummarySweep] = job
	}
}

// -----------------------------------------------------------------------------

func (s *IngestionScheduler) launchLocked(job *ScheduleJob) {
	jobCtx, jobCancel := context.WithCancel(s.ctx)
	job.cancel = jobCancel

	s.wg.Add(1)
	go s.runJob(jobCtx, job)
}

// -----------------------------------------------------------------------------

func (s *IngestionScheduler) runJob(ctx context.Context, job *ScheduleJob) {
	defer s.wg.Done()

	ticker := time.NewTicker(job.Interval)
	defer ticker.Stop()

	// Run immediately on start, then on every tick
	job.execute(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			job.execute(ctx)
		}
	}
}

// -----------------------------------------------------------------------------
// Sweeps
// -----------------------------------------------------------------------------

// sweepUniverse polls the whole universe in fixed-size batches with a small
// pause between batches to avoid saturating the upstream provider.
func (s *IngestionScheduler) sweepUniverse(ctx context.Context, job *ScheduleJob) {
	if s.Config.MarketHoursOnly && s.Markets != nil && !s.Markets.AnyMarketOpen() {
		s.Logger.Debug("All mapped markets closed, skipping universe sweep")
		return
	}

	symbols := s.Gateway.Symbols()
	successes, failures := s.fetchGroup(ctx, symbols, "universe", true)

	if len(symbols) > 0 && successes == 0 {
		job.RecordFailure()
	} else {
		job.RecordSuccess()
	}

	s.Logger.Info("Universe sweep: %d/%d symbols fetched (%d failed)", successes, len(symbols), failures)
}

// -----------------------------------------------------------------------------

// sweepPriority polls the small priority subset without batching pauses. It
// always runs, even outside market hours.
func (s *IngestionScheduler) sweepPriority(ctx context.Context, job *ScheduleJob) {
	symbols := s.Config.PrioritySymbols
	successes, _ := s.fetchGroup(ctx, symbols, "priority", false)

	if len(symbols) > 0 && successes == 0 {
		job.RecordFailure()
	} else {
		job.RecordSuccess()
	}
}

// -----------------------------------------------------------------------------

// sweepSummary builds the market summary from the last emitted snapshots,
// caches it and broadcasts it to the global room.
func (s *IngestionScheduler) sweepSummary(ctx context.Context, job *ScheduleJob) {
	marketOpen := s.Markets != nil && s.Markets.AnyMarketOpen()
	summary := BuildMarketSummary(s.Detector.Baselines(), marketOpen)

	ttl := 2 * time.Duration(s.Config.SummaryIntervalSeconds) * time.Second
	err := s.Exec.Execute(ctx, resilience.ServiceSnapshotStore, "cache market summary", func(ctx context.Context) error {
		return s.Store.SetWithTTL(ctx, pipeline.SummaryKey, summary, ttl)
	})
	if err != nil {
		job.RecordFailure()
		s.Logger.Error("Failed to cache market summary: %v", err)
		return
	}
	job.RecordSuccess()

	s.Hub.BroadcastToRoom(models.RoomGlobal, models.MMarketSummaryMessage{
		Type:      "market_summary",
		Summary:   summary,
		Timestamp: time.Now().Unix(),
	})
}

// -----------------------------------------------------------------------------

// fetchGroup fans out over one group of symbols. Every fetch is independent:
// one symbol failing never aborts the others.
func (s *IngestionScheduler) fetchGroup(ctx context.Context, symbols []string, source string, batched bool) (int, int) {
	if len(symbols) == 0 {
		return 0, 0
	}

	batchSize := len(symbols)
	if batched && s.Config.SweepBatchSize > 0 && s.Config.SweepBatchSize < batchSize {
		batchSize = s.Config.SweepBatchSize
	}
	pause := time.Duration(s.Config.BatchPauseMs) * time.Millisecond

	var successes, failures atomic.Int64

	for start := 0; start < len(symbols); start += batchSize {
		end := start + batchSize
		if end > len(symbols) {
			end = len(symbols)
		}

		var wg sync.WaitGroup
		for _, symbol := range symbols[start:end] {
			wg.Add(1)
			go func(sym string) {
				defer wg.Done()
				if err := s.fetchOne(ctx, sym, source); err != nil {
					failures.Add(1)
					return
				}
				successes.Add(1)
			}(symbol)
		}
		wg.Wait()

		if end < len(symbols) && pause > 0 {
			select {
			case <-time.After(pause):
			case <-ctx.Done():
				return int(successes.Load()), int(failures.Load())
			}
		}
	}

	return int(successes.Load()), int(failures.Load())
}

// -----------------------------------------------------------------------------

// fetchOne runs fetch -> detect -> enqueue for one instrument. The gateway
// call goes through retry and the primary-feed circuit breaker.
func (s *IngestionScheduler) fetchOne(ctx context.Context, symbol, source string) error {
	var snapshot models.MInstrumentSnapshot

	err := s.Exec.Execute(ctx, resilience.ServicePrimaryFeed, "fetch "+symbol, func(ctx context.Context) error {
		snap, err := s.Gateway.Fetch(ctx, symbol)
		if err != nil {
			return err
		}
		snapshot = snap
		return nil
	})
	if err != nil {
		if resilience.IsCircuitOpen(err) {
			s.Logger.Debug("Fetch %s short-circuited: %v", symbol, err)
		} else {
			s.Logger.Warning("Fetch %s failed: %v", symbol, err)
		}
		return err
	}

	record := s.Detector.Evaluate(snapshot, source)
	s.Queue.Push(record)
	return nil
}
