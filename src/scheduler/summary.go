package scheduler

import (
	"sort"
	"time"

	"market-pulse/src/models"
)

const topMoversCount = 5

// -----------------------------------------------------------------------------
// Market Summary Builder
// -----------------------------------------------------------------------------

// BuildMarketSummary aggregates the last emitted snapshot of every instrument
// into the periodic market overview
func BuildMarketSummary(snapshots []models.MInstrumentSnapshot, marketOpen bool) models.MMarketSummary {
	summary := models.MMarketSummary{
		InstrumentCount: len(snapshots),
		MarketOpen:      marketOpen,
		GeneratedAt:     time.Now().Unix(),
	}

	if len(snapshots) == 0 {
		summary.TopGainers = []models.MInstrumentSnapshot{}
		summary.TopLosers = []models.MInstrumentSnapshot{}
		return summary
	}

	var pctSum float64
	for _, snap := range snapshots {
		summary.TotalVolume += snap.Volume
		pctSum += snap.PercentChange

		switch {
		case snap.PercentChange > 0:
			summary.Advancers++
		case snap.PercentChange < 0:
			summary.Decliners++
		default:
			summary.Unchanged++
		}
	}
	summary.AvgPercentChange = pctSum / float64(len(snapshots))

	sorted := make([]models.MInstrumentSnapshot, len(snapshots))
	copy(sorted, snapshots)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].PercentChange > sorted[j].PercentChange
	})

	n := topMoversCount
	if n > len(sorted) {
		n = len(sorted)
	}

	summary.TopGainers = make([]models.MInstrumentSnapshot, n)
	copy(summary.TopGainers, sorted[:n])

	summary.TopLosers = make([]models.MInstrumentSnapshot, n)
	for i := 0; i < n; i++ {
		summary.TopLosers[i] = sorted[len(sorted)-1-i]
	}

	return summary
}
