package models

// -----------------------------------------------------------------------------
// Client -> Server Protocol
// -----------------------------------------------------------------------------

// Message types recognized on the websocket. Anything else gets an error reply
// naming the unknown type.
const (
	MsgSubscribe        = "subscribe"
	MsgUnsubscribe      = "unsubscribe"
	MsgPing             = "ping"
	MsgGetMarketSummary = "get_market_summary"
	MsgGetStockHistory  = "get_stock_history"
)

type MClientMessage struct {
	Type    string   `json:"type"`
	Symbols []string `json:"symbols,omitempty"`
	Symbol  string   `json:"symbol,omitempty"`
	Period  string   `json:"period,omitempty"`
}

// -----------------------------------------------------------------------------
// Server -> Client Protocol
// -----------------------------------------------------------------------------

type MConnectionEstablished struct {
	Type         string `json:"type"` // "connection_established"
	ConnectionID string `json:"connectionId"`
	Timestamp    int64  `json:"timestamp"`
}

type MSubscriptionUpdated struct {
	Type          string   `json:"type"` // "subscription_updated"
	Subscriptions []string `json:"subscriptions"`
	Timestamp     int64    `json:"timestamp"`
}

type MPong struct {
	Type      string `json:"type"` // "pong"
	Timestamp int64  `json:"timestamp"`
}

type MStockUpdate struct {
	Type      string              `json:"type"` // "stock_update"
	Symbol    string              `json:"symbol"`
	Data      MInstrumentSnapshot `json:"data"`
	Timestamp int64               `json:"timestamp"`
}

type MMarketSummaryMessage struct {
	Type      string         `json:"type"` // "market_summary"
	Summary   MMarketSummary `json:"summary"`
	Timestamp int64          `json:"timestamp"`
}

type MPriceHistory struct {
	Type      string                `json:"type"` // "price_history"
	Symbol    string                `json:"symbol"`
	Period    string                `json:"period"`
	History   []MInstrumentSnapshot `json:"history"`
	Timestamp int64                 `json:"timestamp"`
}

type MErrorMessage struct {
	Type    string `json:"type"` // "error"
	Message string `json:"message"`
}
