package detector

import (
	"math"
	"sync"
	"time"

	"market-pulse/src/models"
)

// -----------------------------------------------------------------------------
// Change Detector
// -----------------------------------------------------------------------------

// ChangeDetector suppresses redundant broadcasts by comparing each fetch
// against the last emitted snapshot per instrument. The baseline map is
// unbounded by design but bounded in practice by the fixed universe.
type ChangeDetector struct {
	epsilon   float64
	mu        sync.Mutex
	baselines map[string]models.MInstrumentSnapshot
}

// -----------------------------------------------------------------------------

func NewChangeDetector(epsilon float64) *ChangeDetector {
	return &ChangeDetector{
		epsilon:   epsilon,
		baselines: make(map[string]models.MInstrumentSnapshot),
	}
}

// -----------------------------------------------------------------------------

// Evaluate decides whether a fresh snapshot is material and returns the
// resulting update record. First-seen instruments are always material. A
// known instrument is material when the price moved more than epsilon or the
// volume differs at all. Comparison and baseline replacement happen under one
// lock so the baseline is always the most recently emitted snapshot.
func (d *ChangeDetector) Evaluate(snapshot models.MInstrumentSnapshot, source string) models.MUpdateRecord {
	d.mu.Lock()
	prev, seen := d.baselines[snapshot.Symbol]

	changed := !seen ||
		math.Abs(snapshot.Price-prev.Price) > d.epsilon ||
		snapshot.Volume != prev.Volume

	if changed {
		d.baselines[snapshot.Symbol] = snapshot
	}
	d.mu.Unlock()

	return models.MUpdateRecord{
		Snapshot:       snapshot,
		Source:         source,
		ChangeDetected: changed,
		EnqueuedAt:     time.Now().UnixMilli(),
	}
}

// -----------------------------------------------------------------------------

// Baseline returns the last emitted snapshot for one instrument
func (d *ChangeDetector) Baseline(symbol string) (models.MInstrumentSnapshot, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	snap, ok := d.baselines[symbol]
	return snap, ok
}

// -----------------------------------------------------------------------------

// Baselines returns a copy of every instrument's last emitted snapshot
func (d *ChangeDetector) Baselines() []models.MInstrumentSnapshot {
	d.mu.Lock()
	defer d.mu.Unlock()

	out := make([]models.MInstrumentSnapshot, 0, len(d.baselines))
	for _, snap := range d.baselines {
		out = append(out, snap)
	}
	return out
}
