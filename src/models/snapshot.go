package models

// MInstrumentSnapshot represents one normalized quote for one instrument.
// A snapshot is immutable once produced; a new fetch replaces, never mutates,
// the prior one.
type MInstrumentSnapshot struct {
	Symbol        string  `json:"symbol"`
	Price         float64 `json:"price"`
	Change        float64 `json:"change"`
	PercentChange float64 `json:"percent_change"`
	Volume        float64 `json:"volume"`
	DayOpen       float64 `json:"day_open"`
	DayHigh       float64 `json:"day_high"`
	DayLow        float64 `json:"day_low"`
	PreviousClose float64 `json:"previous_close"`
	MarketCap     float64 `json:"market_cap"`
	Source        string  `json:"source"`
	Timestamp     int64   `json:"timestamp"`
}
