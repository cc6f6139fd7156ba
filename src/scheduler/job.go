package scheduler

import (
	"context"
	"sync"
	"time"

	"market-pulse/src/models"
)

// -----------------------------------------------------------------------------
// Schedule Job
// -----------------------------------------------------------------------------

// ScheduleJob is one registrable polling unit. After every run, successful or
// not, it reschedules itself for now + interval until it is removed or the
// scheduler stops.
type ScheduleJob struct {
	Name     string
	Group    string
	Interval time.Duration

	run    func(ctx context.Context)
	cancel context.CancelFunc

	mu                  sync.Mutex
	nextRun             time.Time
	running             bool
	consecutiveFailures int
}

// -----------------------------------------------------------------------------

func newScheduleJob(name, group string, interval time.Duration, run func(ctx context.Context)) *ScheduleJob {
	return &ScheduleJob{
		Name:     name,
		Group:    group,
		Interval: interval,
		run:      run,
	}
}

// -----------------------------------------------------------------------------

func (j *ScheduleJob) execute(ctx context.Context) {
	j.mu.Lock()
	j.running = true
	j.mu.Unlock()

	j.run(ctx)

	j.mu.Lock()
	j.running = false
	j.nextRun = time.Now().Add(j.Interval)
	j.mu.Unlock()
}

// -----------------------------------------------------------------------------

// RecordFailure bumps the consecutive-failure counter
func (j *ScheduleJob) RecordFailure() {
	j.mu.Lock()
	j.consecutiveFailures++
	j.mu.Unlock()
}

// RecordSuccess resets the consecutive-failure counter
func (j *ScheduleJob) RecordSuccess() {
	j.mu.Lock()
	j.consecutiveFailures = 0
	j.mu.Unlock()
}

// ConsecutiveFailures returns the current failure streak
func (j *ScheduleJob) ConsecutiveFailures() int {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.consecutiveFailures
}

// -----------------------------------------------------------------------------

// Status returns a point-in-time view for the ops surface
func (j *ScheduleJob) Status() models.MScheduleJobStatus {
	j.mu.Lock()
	defer j.mu.Unlock()

	return models.MScheduleJobStatus{
		Name:                j.Name,
		Group:               j.Group,
		IntervalSeconds:     int(j.Interval / time.Second),
		NextRun:             j.nextRun.Unix(),
		Running:             j.running,
		ConsecutiveFailures: j.consecutiveFailures,
	}
}
