package server

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"market-pulse/src/logger"
	"market-pulse/src/models"
	"market-pulse/src/resilience"
	"market-pulse/src/utils"
)

// -----------------------------------------------------------------------------
// Client Message Handling
// -----------------------------------------------------------------------------

const dispatchTimeout = 5 * time.Second

// QuoteReader serves the on-demand data pulls without exposing the whole
// snapshot store to the dispatch layer
type QuoteReader interface {
	MarketSummary(ctx context.Context) (models.MMarketSummary, bool, error)
	History(ctx context.Context, symbol string, from, to time.Time) ([]models.MInstrumentSnapshot, error)
}

// Dispatcher routes inbound client frames to subscription changes and data
// pulls. A malformed or unknown frame gets an error reply, never a disconnect.
// Data pulls run under the shared-cache circuit breaker so a dead cache fails
// fast instead of stacking timed-out reads.
type Dispatcher struct {
	Hub    *Hub
	Quotes QuoteReader
	Exec   *resilience.Executor
	Logger *logger.Logger
}

var _ MessageHandler = (*Dispatcher)(nil)

// -----------------------------------------------------------------------------

func NewDispatcher(hub *Hub, quotes QuoteReader, exec *resilience.Executor, log *logger.Logger) *Dispatcher {
	return &Dispatcher{Hub: hub, Quotes: quotes, Exec: exec, Logger: log}
}

// -----------------------------------------------------------------------------

func (d *Dispatcher) HandleClientMessage(client *Client, raw []byte) {
	var msg models.MClientMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		d.Logger.Warning("Malformed frame from %s: %v", client.ID, err)
		client.Deliver(models.MErrorMessage{Type: "error", Message: "invalid message format"})
		return
	}

	switch msg.Type {
	case models.MsgSubscribe:
		d.handleSubscribe(client, msg.Symbols)
	case models.MsgUnsubscribe:
		d.handleUnsubscribe(client, msg.Symbols)
	case models.MsgPing:
		client.Deliver(models.MPong{Type: "pong", Timestamp: time.Now().Unix()})
	case models.MsgGetMarketSummary:
		d.handleMarketSummary(client)
	case models.MsgGetStockHistory:
		d.handleStockHistory(client, msg.Symbol, msg.Period)
	default:
		client.Deliver(models.MErrorMessage{
			Type:    "error",
			Message: fmt.Sprintf("unknown message type %q", msg.Type),
		})
	}
}

// -----------------------------------------------------------------------------
// Subscriptions
// -----------------------------------------------------------------------------

func (d *Dispatcher) handleSubscribe(client *Client, symbols []string) {
	for _, symbol := range symbols {
		if symbol == "" {
			client.Deliver(models.MErrorMessage{Type: "error", Message: "symbol must not be empty"})
			return
		}
		if err := d.Hub.JoinRoom(client, models.InstrumentRoom(symbol)); err != nil {
			client.Deliver(models.MErrorMessage{Type: "error", Message: err.Error()})
			return
		}
	}
	d.confirmSubscriptions(client)
}

// -----------------------------------------------------------------------------

func (d *Dispatcher) handleUnsubscribe(client *Client, symbols []string) {
	for _, symbol := range symbols {
		d.Hub.LeaveRoom(client, models.InstrumentRoom(symbol))
	}
	d.confirmSubscriptions(client)
}

// -----------------------------------------------------------------------------

func (d *Dispatcher) confirmSubscriptions(client *Client) {
	client.Deliver(models.MSubscriptionUpdated{
		Type:          "subscription_updated",
		Subscriptions: d.Hub.Subscriptions(client),
		Timestamp:     time.Now().Unix(),
	})
}

// -----------------------------------------------------------------------------
// Data Pulls
// -----------------------------------------------------------------------------

func (d *Dispatcher) handleMarketSummary(client *Client) {
	ctx, cancel := context.WithTimeout(context.Background(), dispatchTimeout)
	defer cancel()

	var (
		summary models.MMarketSummary
		found   bool
	)
	err := d.Exec.Protect(ctx, resilience.ServiceSnapshotStore, "pull market summary", func(ctx context.Context) error {
		var pullErr error
		summary, found, pullErr = d.Quotes.MarketSummary(ctx)
		return pullErr
	})
	if err != nil {
		d.Logger.Error("Market summary pull failed for %s: %v", client.ID, err)
		client.Deliver(models.MErrorMessage{Type: "error", Message: "market summary unavailable"})
		return
	}
	if !found {
		client.Deliver(models.MErrorMessage{Type: "error", Message: "market summary not generated yet"})
		return
	}

	client.Deliver(models.MMarketSummaryMessage{
		Type:      "market_summary",
		Summary:   summary,
		Timestamp: time.Now().Unix(),
	})
}

// -----------------------------------------------------------------------------

func (d *Dispatcher) handleStockHistory(client *Client, symbol, periodStr string) {
	if symbol == "" {
		client.Deliver(models.MErrorMessage{Type: "error", Message: "symbol is required"})
		return
	}

	period := utils.DefaultPeriod
	if periodStr != "" {
		parsed, err := utils.ParsePeriod(periodStr)
		if err != nil {
			client.Deliver(models.MErrorMessage{Type: "error", Message: err.Error()})
			return
		}
		period = parsed
	}

	ctx, cancel := context.WithTimeout(context.Background(), dispatchTimeout)
	defer cancel()

	from, to := utils.PeriodRange(period)

	var history []models.MInstrumentSnapshot
	err := d.Exec.Protect(ctx, resilience.ServiceSnapshotStore, "pull history "+symbol, func(ctx context.Context) error {
		var pullErr error
		history, pullErr = d.Quotes.History(ctx, symbol, from, to)
		return pullErr
	})
	if err != nil {
		d.Logger.Error("History pull %s failed for %s: %v", symbol, client.ID, err)
		client.Deliver(models.MErrorMessage{Type: "error", Message: "history unavailable"})
		return
	}

	client.Deliver(models.MPriceHistory{
		Type:      "price_history",
		Symbol:    symbol,
		Period:    periodStr,
		History:   history,
		Timestamp: time.Now().Unix(),
	})
}
