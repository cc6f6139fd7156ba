package sim

import (
	"context"
	"testing"

	"market-pulse/src/logger"
	"market-pulse/src/models"
	"market-pulse/src/resilience"
)

func testSource(symbols ...string) *SimSource {
	return NewSimSource(models.MSourceConfig{
		Name:    "sim-test",
		Symbols: symbols,
	}, logger.NewNop("test"))
}

func TestSim_DeterministicWalk(t *testing.T) {
	ctx := context.Background()

	a := testSource("AAPL")
	b := testSource("AAPL")

	for i := 0; i < 5; i++ {
		snapA, errA := a.Fetch(ctx, "AAPL")
		snapB, errB := b.Fetch(ctx, "AAPL")
		if errA != nil || errB != nil {
			t.Fatalf("Fetch failed: %v %v", errA, errB)
		}
		if snapA.Price != snapB.Price || snapA.Volume != snapB.Volume {
			t.Fatalf("Walks diverged at step %d: %f vs %f", i, snapA.Price, snapB.Price)
		}
	}
}

func TestSim_QuoteInvariants(t *testing.T) {
	s := testSource("AAPL")
	ctx := context.Background()

	for i := 0; i < 50; i++ {
		snap, err := s.Fetch(ctx, "AAPL")
		if err != nil {
			t.Fatalf("Fetch failed: %v", err)
		}
		if snap.Price <= 0 {
			t.Fatalf("Price must stay positive, got %f", snap.Price)
		}
		if snap.DayHigh < snap.Price || snap.DayLow > snap.Price {
			t.Fatalf("Day range must contain the price: low=%f price=%f high=%f",
				snap.DayLow, snap.Price, snap.DayHigh)
		}
		if snap.Source != "sim-test" {
			t.Fatalf("Expected source sim-test, got %s", snap.Source)
		}
	}
}

func TestSim_VolumeMonotonic(t *testing.T) {
	s := testSource("AAPL")
	ctx := context.Background()

	prev := -1.0
	for i := 0; i < 10; i++ {
		snap, _ := s.Fetch(ctx, "AAPL")
		if snap.Volume < prev {
			t.Fatalf("Cumulative volume decreased: %f -> %f", prev, snap.Volume)
		}
		prev = snap.Volume
	}
}

func TestSim_UnknownSymbolIsPermanent(t *testing.T) {
	s := testSource("AAPL")

	_, err := s.Fetch(context.Background(), "NOPE")
	if !resilience.IsPermanent(err) {
		t.Errorf("Unknown symbol must be permanent, got %v", err)
	}
}

func TestSim_UpdateSymbolsAddsStates(t *testing.T) {
	s := testSource("AAPL")
	s.UpdateSymbols([]string{"AAPL", "MSFT"})

	if _, err := s.Fetch(context.Background(), "MSFT"); err != nil {
		t.Errorf("New symbol must be fetchable: %v", err)
	}
}
