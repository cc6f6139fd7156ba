package pipeline

import (
	"sync"
	"time"

	"market-pulse/src/models"
)

// -----------------------------------------------------------------------------
// Update Queue
// -----------------------------------------------------------------------------

// UpdateQueue buffers update records between the many concurrent fetches and
// the single batch processor. Unbounded: producers never block on enqueue.
type UpdateQueue struct {
	mu    sync.Mutex
	items []models.MUpdateRecord
}

// -----------------------------------------------------------------------------

func NewUpdateQueue() *UpdateQueue {
	return &UpdateQueue{}
}

// -----------------------------------------------------------------------------

// Push appends one record. Never blocks.
func (q *UpdateQueue) Push(record models.MUpdateRecord) {
	if record.EnqueuedAt == 0 {
		record.EnqueuedAt = time.Now().UnixMilli()
	}

	q.mu.Lock()
	q.items = append(q.items, record)
	q.mu.Unlock()
}

// -----------------------------------------------------------------------------

// PopBatch removes and returns up to n records in FIFO order
func (q *UpdateQueue) PopBatch(n int) []models.MUpdateRecord {
	if n <= 0 {
		return nil
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.items) == 0 {
		return nil
	}

	if n > len(q.items) {
		n = len(q.items)
	}

	batch := make([]models.MUpdateRecord, n)
	copy(batch, q.items[:n])

	// Shift the remainder so the backing array doesn't pin popped records
	remaining := copy(q.items, q.items[n:])
	for i := remaining; i < len(q.items); i++ {
		q.items[i] = models.MUpdateRecord{}
	}
	q.items = q.items[:remaining]

	return batch
}

// -----------------------------------------------------------------------------

// Len returns the current queue depth
func (q *UpdateQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}
