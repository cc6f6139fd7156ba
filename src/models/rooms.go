package models

// -----------------------------------------------------------------------------
// Room Naming
// -----------------------------------------------------------------------------

// RoomGlobal is the broadcast topic every market-wide message goes to.
const RoomGlobal = "market:global"

// InstrumentRoomPrefix scopes per-instrument topics: "instrument:<symbol>".
const InstrumentRoomPrefix = "instrument:"

// InstrumentRoom builds the room name for one symbol.
func InstrumentRoom(symbol string) string {
	return InstrumentRoomPrefix + symbol
}

// -----------------------------------------------------------------------------
// Schedule Job Status (ops surface)
// -----------------------------------------------------------------------------

type MScheduleJobStatus struct {
	Name                string `json:"name"`
	Group               string `json:"group"`
	IntervalSeconds     int    `json:"interval_seconds"`
	NextRun             int64  `json:"next_run"`
	Running             bool   `json:"running"`
	ConsecutiveFailures int    `json:"consecutive_failures"`
}

// -----------------------------------------------------------------------------
// Pipeline Metrics (ops surface)
// -----------------------------------------------------------------------------

type MPipelineMetrics struct {
	TotalProcessed       int64   `json:"total_processed"`
	AvgDrainDurationMs   float64 `json:"avg_drain_duration_ms"`
	QueueDepth           int     `json:"queue_depth"`
	LastDrainSize        int     `json:"last_drain_size"`
	LastDrainAt          int64   `json:"last_drain_at"`
	FanOutFailures       int64   `json:"fan_out_failures"`
	BroadcastsDispatched int64   `json:"broadcasts_dispatched"`
}
