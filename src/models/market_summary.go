package models

// -----------------------------------------------------------------------------
// Market Summary (global room payload + data-pull response)
// -----------------------------------------------------------------------------

type MMarketSummary struct {
	InstrumentCount  int                   `json:"instrument_count"`
	Advancers        int                   `json:"advancers"`
	Decliners        int                   `json:"decliners"`
	Unchanged        int                   `json:"unchanged"`
	TotalVolume      float64               `json:"total_volume"`
	AvgPercentChange float64               `json:"avg_percent_change"`
	TopGainers       []MInstrumentSnapshot `json:"top_gainers"`
	TopLosers        []MInstrumentSnapshot `json:"top_losers"`
	MarketOpen       bool                  `json:"market_open"`
	GeneratedAt      int64                 `json:"generated_at"`
}
