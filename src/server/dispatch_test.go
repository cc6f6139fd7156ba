package server

import (
	"context"
	"errors"
	"sort"
	"strings"
	"testing"
	"time"

	"market-pulse/src/logger"
	"market-pulse/src/models"
	"market-pulse/src/resilience"
)

// -----------------------------------------------------------------------------
// Mocks
// -----------------------------------------------------------------------------

type mockQuotes struct {
	summary      models.MMarketSummary
	summaryFound bool
	summaryErr   error
	summaryCalls int
	history      []models.MInstrumentSnapshot
	historyErr   error
	lastSymbol   string
}

func (m *mockQuotes) MarketSummary(ctx context.Context) (models.MMarketSummary, bool, error) {
	m.summaryCalls++
	return m.summary, m.summaryFound, m.summaryErr
}

func (m *mockQuotes) History(ctx context.Context, symbol string, from, to time.Time) ([]models.MInstrumentSnapshot, error) {
	m.lastSymbol = symbol
	return m.history, m.historyErr
}

// dispatchExecutor builds a single-attempt executor whose breaker trips after
// the given number of consecutive failures.
func dispatchExecutor(failureThreshold int) *resilience.Executor {
	return resilience.NewExecutor(models.MResilienceConfig{
		MaxAttempts:         1,
		BaseDelayMs:         1,
		MaxDelayMs:          10,
		Multiplier:          2.0,
		FailureThreshold:    failureThreshold,
		ResetTimeoutSeconds: 60,
		HalfOpenSuccesses:   1,
	}, logger.NewNop("test"))
}

func testDispatcher(quotes QuoteReader) (*Dispatcher, *Client) {
	h := testHub()
	d := NewDispatcher(h, quotes, dispatchExecutor(100), logger.NewNop("test"))
	c := testClient(h)
	h.Register(c)
	<-c.send // connection_established
	return d, c
}

// -----------------------------------------------------------------------------
// Tests
// -----------------------------------------------------------------------------

func TestDispatch_MalformedFrame(t *testing.T) {
	d, c := testDispatcher(&mockQuotes{})

	d.HandleClientMessage(c, []byte("{not json"))

	msg, ok := drainOne(t, c).(models.MErrorMessage)
	if !ok || msg.Message != "invalid message format" {
		t.Errorf("Expected invalid-format error, got %+v", msg)
	}

	// The connection survives a malformed frame
	if count, _ := d.Hub.Stats(); count != 1 {
		t.Errorf("Malformed frame must not disconnect the client")
	}
}

func TestDispatch_UnknownTypeNamesIt(t *testing.T) {
	d, c := testDispatcher(&mockQuotes{})

	d.HandleClientMessage(c, []byte(`{"type":"teleport"}`))

	msg, ok := drainOne(t, c).(models.MErrorMessage)
	if !ok || !strings.Contains(msg.Message, "teleport") {
		t.Errorf("Error must name the unknown type, got %+v", msg)
	}
}

func TestDispatch_SubscribeAndUnsubscribe(t *testing.T) {
	d, c := testDispatcher(&mockQuotes{})

	d.HandleClientMessage(c, []byte(`{"type":"subscribe","symbols":["AAPL","MSFT"]}`))

	msg, ok := drainOne(t, c).(models.MSubscriptionUpdated)
	if !ok {
		t.Fatalf("Expected MSubscriptionUpdated, got %T", msg)
	}
	sort.Strings(msg.Subscriptions)
	want := []string{"instrument:AAPL", "instrument:MSFT", models.RoomGlobal}
	sort.Strings(want)
	if len(msg.Subscriptions) != 3 {
		t.Fatalf("Expected 3 subscriptions, got %v", msg.Subscriptions)
	}
	for i := range want {
		if msg.Subscriptions[i] != want[i] {
			t.Errorf("Expected subscriptions %v, got %v", want, msg.Subscriptions)
			break
		}
	}

	d.HandleClientMessage(c, []byte(`{"type":"unsubscribe","symbols":["AAPL"]}`))
	msg = drainOne(t, c).(models.MSubscriptionUpdated)
	if len(msg.Subscriptions) != 2 {
		t.Errorf("Expected 2 subscriptions after unsubscribe, got %v", msg.Subscriptions)
	}
}

func TestDispatch_SubscribeEmptySymbolRejected(t *testing.T) {
	d, c := testDispatcher(&mockQuotes{})

	d.HandleClientMessage(c, []byte(`{"type":"subscribe","symbols":[""]}`))

	msg, ok := drainOne(t, c).(models.MErrorMessage)
	if !ok || !strings.Contains(msg.Message, "symbol") {
		t.Fatalf("Empty symbol must be rejected, got %+v", msg)
	}

	// No nameless instrument room was created
	_, rooms := d.Hub.Stats()
	for room := range rooms {
		if room == models.InstrumentRoom("") {
			t.Errorf("Empty symbol must not create a room, got %v", rooms)
		}
	}
}

func TestDispatch_Ping(t *testing.T) {
	d, c := testDispatcher(&mockQuotes{})

	d.HandleClientMessage(c, []byte(`{"type":"ping"}`))

	if _, ok := drainOne(t, c).(models.MPong); !ok {
		t.Errorf("Expected a pong reply")
	}
}

func TestDispatch_MarketSummary(t *testing.T) {
	quotes := &mockQuotes{
		summary:      models.MMarketSummary{InstrumentCount: 10, Advancers: 6},
		summaryFound: true,
	}
	d, c := testDispatcher(quotes)

	d.HandleClientMessage(c, []byte(`{"type":"get_market_summary"}`))

	msg, ok := drainOne(t, c).(models.MMarketSummaryMessage)
	if !ok {
		t.Fatalf("Expected MMarketSummaryMessage, got %T", msg)
	}
	if msg.Summary.InstrumentCount != 10 || msg.Summary.Advancers != 6 {
		t.Errorf("Summary not passed through: %+v", msg.Summary)
	}
}

func TestDispatch_MarketSummaryNotReady(t *testing.T) {
	d, c := testDispatcher(&mockQuotes{summaryFound: false})

	d.HandleClientMessage(c, []byte(`{"type":"get_market_summary"}`))

	if _, ok := drainOne(t, c).(models.MErrorMessage); !ok {
		t.Errorf("Expected an error when no summary is cached yet")
	}
}

func TestDispatch_StockHistory(t *testing.T) {
	quotes := &mockQuotes{
		history: []models.MInstrumentSnapshot{{Symbol: "AAPL", Price: 101}},
	}
	d, c := testDispatcher(quotes)

	d.HandleClientMessage(c, []byte(`{"type":"get_stock_history","symbol":"AAPL","period":"1h"}`))

	msg, ok := drainOne(t, c).(models.MPriceHistory)
	if !ok {
		t.Fatalf("Expected MPriceHistory, got %T", msg)
	}
	if msg.Symbol != "AAPL" || len(msg.History) != 1 {
		t.Errorf("Unexpected history reply: %+v", msg)
	}
	if quotes.lastSymbol != "AAPL" {
		t.Errorf("History queried for %s", quotes.lastSymbol)
	}
}

func TestDispatch_StockHistoryValidation(t *testing.T) {
	d, c := testDispatcher(&mockQuotes{})

	d.HandleClientMessage(c, []byte(`{"type":"get_stock_history"}`))
	if msg := drainOne(t, c).(models.MErrorMessage); !strings.Contains(msg.Message, "symbol") {
		t.Errorf("Missing symbol must be rejected, got %+v", msg)
	}

	d.HandleClientMessage(c, []byte(`{"type":"get_stock_history","symbol":"AAPL","period":"3y"}`))
	if _, ok := drainOne(t, c).(models.MErrorMessage); !ok {
		t.Errorf("Invalid period must be rejected")
	}
}

func TestDispatch_DataPullShortCircuitsWhenBreakerOpen(t *testing.T) {
	quotes := &mockQuotes{summaryErr: errors.New("redis down")}
	h := testHub()
	d := NewDispatcher(h, quotes, dispatchExecutor(1), logger.NewNop("test"))
	c := testClient(h)
	h.Register(c)
	drainOne(t, c)

	// First pull fails and trips the shared-cache breaker
	d.HandleClientMessage(c, []byte(`{"type":"get_market_summary"}`))
	if _, ok := drainOne(t, c).(models.MErrorMessage); !ok {
		t.Fatalf("Expected an error reply on the failing pull")
	}
	if quotes.summaryCalls != 1 {
		t.Fatalf("Expected 1 backend call, got %d", quotes.summaryCalls)
	}

	// Second pull is rejected by the open breaker without touching the cache
	d.HandleClientMessage(c, []byte(`{"type":"get_market_summary"}`))
	if _, ok := drainOne(t, c).(models.MErrorMessage); !ok {
		t.Errorf("Expected an error reply while the breaker is open")
	}
	if quotes.summaryCalls != 1 {
		t.Errorf("Open breaker must short-circuit the pull, backend called %d times", quotes.summaryCalls)
	}
}

func TestDispatch_HistoryBackendFailure(t *testing.T) {
	d, c := testDispatcher(&mockQuotes{historyErr: errors.New("redis down")})

	d.HandleClientMessage(c, []byte(`{"type":"get_stock_history","symbol":"AAPL"}`))

	if _, ok := drainOne(t, c).(models.MErrorMessage); !ok {
		t.Errorf("Backend failure must surface as an error reply")
	}
}
