package pipeline

import (
	"testing"

	"market-pulse/src/models"
)

func record(symbol string) models.MUpdateRecord {
	return models.MUpdateRecord{
		Snapshot: models.MInstrumentSnapshot{Symbol: symbol},
		Source:   "universe",
	}
}

func TestQueue_FIFO(t *testing.T) {
	q := NewUpdateQueue()
	q.Push(record("A"))
	q.Push(record("B"))
	q.Push(record("C"))

	batch := q.PopBatch(2)
	if len(batch) != 2 {
		t.Fatalf("Expected batch of 2, got %d", len(batch))
	}
	if batch[0].Snapshot.Symbol != "A" || batch[1].Snapshot.Symbol != "B" {
		t.Errorf("Expected FIFO order A,B got %s,%s", batch[0].Snapshot.Symbol, batch[1].Snapshot.Symbol)
	}
	if q.Len() != 1 {
		t.Errorf("Expected 1 record left, got %d", q.Len())
	}
}

func TestQueue_PopBeyondDepth(t *testing.T) {
	q := NewUpdateQueue()
	q.Push(record("A"))

	batch := q.PopBatch(10)
	if len(batch) != 1 {
		t.Errorf("Expected the whole queue, got %d records", len(batch))
	}

	if batch = q.PopBatch(10); batch != nil {
		t.Errorf("Expected nil batch from empty queue, got %v", batch)
	}
}

func TestQueue_PushStampsEnqueuedAt(t *testing.T) {
	q := NewUpdateQueue()
	q.Push(record("A"))

	batch := q.PopBatch(1)
	if batch[0].EnqueuedAt == 0 {
		t.Errorf("Push must stamp EnqueuedAt when unset")
	}

	stamped := record("B")
	stamped.EnqueuedAt = 42
	q.Push(stamped)
	if got := q.PopBatch(1)[0].EnqueuedAt; got != 42 {
		t.Errorf("Push must preserve an existing EnqueuedAt, got %d", got)
	}
}
