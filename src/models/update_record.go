package models

// -----------------------------------------------------------------------------
// Update Record (transient work item, detector -> queue -> batch processor)
// -----------------------------------------------------------------------------

// MUpdateRecord wraps one snapshot with the schedule that produced it and the
// change-detection verdict. Consumed exactly once by the batch processor, then
// discarded.
type MUpdateRecord struct {
	Snapshot       MInstrumentSnapshot `json:"snapshot"`
	Source         string              `json:"source"`
	ChangeDetected bool                `json:"change_detected"`
	EnqueuedAt     int64               `json:"enqueued_at"`
}
