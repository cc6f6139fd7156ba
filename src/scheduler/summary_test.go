package scheduler

import (
	"testing"

	"market-pulse/src/models"
)

func summarySnap(symbol string, pct, volume float64) models.MInstrumentSnapshot {
	return models.MInstrumentSnapshot{Symbol: symbol, PercentChange: pct, Volume: volume}
}

func TestBuildMarketSummary_Counts(t *testing.T) {
	snaps := []models.MInstrumentSnapshot{
		summarySnap("A", 2.0, 100),
		summarySnap("B", -1.0, 200),
		summarySnap("C", 0, 300),
		summarySnap("D", 0.5, 400),
	}

	s := BuildMarketSummary(snaps, true)

	if s.InstrumentCount != 4 {
		t.Errorf("Expected 4 instruments, got %d", s.InstrumentCount)
	}
	if s.Advancers != 2 || s.Decliners != 1 || s.Unchanged != 1 {
		t.Errorf("Counts wrong: %d/%d/%d", s.Advancers, s.Decliners, s.Unchanged)
	}
	if s.TotalVolume != 1000 {
		t.Errorf("Expected total volume 1000, got %f", s.TotalVolume)
	}
	if want := (2.0 - 1.0 + 0 + 0.5) / 4; s.AvgPercentChange != want {
		t.Errorf("Expected avg %f, got %f", want, s.AvgPercentChange)
	}
	if !s.MarketOpen {
		t.Errorf("MarketOpen flag not carried through")
	}
}

func TestBuildMarketSummary_TopMovers(t *testing.T) {
	snaps := []models.MInstrumentSnapshot{
		summarySnap("A", 1, 0), summarySnap("B", 7, 0), summarySnap("C", -3, 0),
		summarySnap("D", 4, 0), summarySnap("E", -8, 0), summarySnap("F", 2, 0),
		summarySnap("G", 0.5, 0),
	}

	s := BuildMarketSummary(snaps, false)

	if len(s.TopGainers) != 5 || len(s.TopLosers) != 5 {
		t.Fatalf("Expected 5 gainers and losers, got %d/%d", len(s.TopGainers), len(s.TopLosers))
	}
	if s.TopGainers[0].Symbol != "B" {
		t.Errorf("Expected B as top gainer, got %s", s.TopGainers[0].Symbol)
	}
	if s.TopLosers[0].Symbol != "E" {
		t.Errorf("Expected E as top loser, got %s", s.TopLosers[0].Symbol)
	}
}

func TestBuildMarketSummary_FewerThanFive(t *testing.T) {
	snaps := []models.MInstrumentSnapshot{
		summarySnap("A", 1, 0),
		summarySnap("B", -1, 0),
	}

	s := BuildMarketSummary(snaps, false)

	if len(s.TopGainers) != 2 || len(s.TopLosers) != 2 {
		t.Errorf("Movers must be capped at the universe size, got %d/%d", len(s.TopGainers), len(s.TopLosers))
	}
}

func TestBuildMarketSummary_Empty(t *testing.T) {
	s := BuildMarketSummary(nil, false)

	if s.InstrumentCount != 0 || s.AvgPercentChange != 0 {
		t.Errorf("Empty universe must produce a zeroed summary: %+v", s)
	}
	if s.TopGainers == nil || s.TopLosers == nil {
		t.Errorf("Movers must be empty slices, not nil, for JSON consumers")
	}
}
