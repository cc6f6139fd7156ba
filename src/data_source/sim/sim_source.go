package sim

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"market-pulse/src/interfaces"
	"market-pulse/src/logger"
	"market-pulse/src/models"
	"market-pulse/src/resilience"
)

// -----------------------------------------------------------------------------
// Simulated Gateway
// -----------------------------------------------------------------------------

// SimSource generates random-walk quotes for local development and load
// testing. Each symbol gets a deterministic seed so runs are reproducible.
type SimSource struct {
	SourceConfig models.MSourceConfig
	Logger       *logger.Logger

	mu      sync.Mutex
	symbols []string
	states  map[string]*walkState
}

type walkState struct {
	rng     *rand.Rand
	price   float64
	dayOpen float64
	dayHigh float64
	dayLow  float64
	prevDay float64
	volume  float64
}

var _ interfaces.ISourceGateway = (*SimSource)(nil)

// -----------------------------------------------------------------------------

func NewSimSource(sourceCfg models.MSourceConfig, log *logger.Logger) *SimSource {
	s := &SimSource{
		SourceConfig: sourceCfg,
		Logger:       log,
		symbols:      sourceCfg.Symbols,
		states:       make(map[string]*walkState),
	}
	for _, symbol := range sourceCfg.Symbols {
		s.states[symbol] = newWalkState(symbol)
	}
	return s
}

// -----------------------------------------------------------------------------

func newWalkState(symbol string) *walkState {
	var seed int64
	for _, r := range symbol {
		seed = seed*31 + int64(r)
	}
	rng := rand.New(rand.NewSource(seed))

	base := 20 + rng.Float64()*480
	return &walkState{
		rng:     rng,
		price:   base,
		dayOpen: base,
		dayHigh: base,
		dayLow:  base,
		prevDay: base,
		volume:  0,
	}
}

// -----------------------------------------------------------------------------

func (s *SimSource) Name() string {
	return s.SourceConfig.Name
}

// -----------------------------------------------------------------------------

func (s *SimSource) Symbols() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]string, len(s.symbols))
	copy(out, s.symbols)
	return out
}

// -----------------------------------------------------------------------------

func (s *SimSource) UpdateSymbols(symbols []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.symbols = symbols
	for _, symbol := range symbols {
		if _, ok := s.states[symbol]; !ok {
			s.states[symbol] = newWalkState(symbol)
		}
	}
	s.Logger.Info("Updated symbol list. New count: %d", len(symbols))
	return nil
}

// -----------------------------------------------------------------------------

// Fetch advances the random walk one step and returns the resulting quote.
// An unknown symbol is a permanent failure, matching a real provider.
func (s *SimSource) Fetch(ctx context.Context, symbol string) (models.MInstrumentSnapshot, error) {
	if err := ctx.Err(); err != nil {
		return models.MInstrumentSnapshot{}, resilience.Transient("sim fetch", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	state, ok := s.states[symbol]
	if !ok {
		return models.MInstrumentSnapshot{}, resilience.Permanent("sim fetch",
			fmt.Errorf("unknown symbol %s", symbol))
	}

	// Step size up to 0.5% of the current price, drift-free
	step := state.price * 0.005 * (state.rng.Float64()*2 - 1)
	state.price += step
	if state.price < 1 {
		state.price = 1
	}
	if state.price > state.dayHigh {
		state.dayHigh = state.price
	}
	if state.price < state.dayLow {
		state.dayLow = state.price
	}
	state.volume += float64(state.rng.Intn(10000))

	change := state.price - state.prevDay
	pct := 0.0
	if state.prevDay > 0 {
		pct = change / state.prevDay * 100
	}

	return models.MInstrumentSnapshot{
		Symbol:        symbol,
		Price:         state.price,
		Change:        change,
		PercentChange: pct,
		Volume:        state.volume,
		DayOpen:       state.dayOpen,
		DayHigh:       state.dayHigh,
		DayLow:        state.dayLow,
		PreviousClose: state.prevDay,
		MarketCap:     state.price * 1e9,
		Source:        s.Name(),
		Timestamp:     time.Now().Unix(),
	}, nil
}
