package yahoo

import (
	"context"
	"encoding/json"
	"fmt"
	"sync/atomic"
	"time"

	"market-pulse/src/interfaces"
	"market-pulse/src/logger"
	"market-pulse/src/models"
	"market-pulse/src/resilience"
)

const quoteEndpoint = "https://query1.finance.yahoo.com/v7/finance/quote"

// -----------------------------------------------------------------------------
// Yahoo Finance Gateway
// -----------------------------------------------------------------------------

type YahooFinanceSource struct {
	SourceConfig models.MSourceConfig
	Network      interfaces.INetworkManager
	Logger       *logger.Logger
	symbols      atomic.Value // Stores []string safely
}

var _ interfaces.ISourceGateway = (*YahooFinanceSource)(nil)

// -----------------------------------------------------------------------------

func NewYahooFinanceSource(sourceCfg models.MSourceConfig, netMgr interfaces.INetworkManager, log *logger.Logger) *YahooFinanceSource {
	s := &YahooFinanceSource{
		SourceConfig: sourceCfg,
		Network:      netMgr,
		Logger:       log,
	}
	s.symbols.Store(sourceCfg.Symbols)
	return s
}

// -----------------------------------------------------------------------------

func (s *YahooFinanceSource) Name() string {
	return s.SourceConfig.Name
}

// -----------------------------------------------------------------------------

func (s *YahooFinanceSource) Symbols() []string {
	return s.symbols.Load().([]string)
}

// -----------------------------------------------------------------------------

func (s *YahooFinanceSource) UpdateSymbols(symbols []string) error {
	// Atomic swap
	s.symbols.Store(symbols)
	s.Logger.Info("Updated symbol list. New count: %d", len(symbols))
	return nil
}

// -----------------------------------------------------------------------------

// Fetch retrieves one quote and normalizes it. Network failures keep their
// transient/permanent classification; an unknown symbol is permanent.
func (s *YahooFinanceSource) Fetch(ctx context.Context, symbol string) (models.MInstrumentSnapshot, error) {
	params := map[string]string{
		"symbols": symbol,
		"fields":  "regularMarketPrice,regularMarketChange,regularMarketChangePercent,regularMarketVolume,regularMarketOpen,regularMarketDayHigh,regularMarketDayLow,regularMarketPreviousClose,marketCap,regularMarketTime",
	}

	respBytes, err := s.Network.Get(ctx, quoteEndpoint, params)
	if err != nil {
		return models.MInstrumentSnapshot{}, fmt.Errorf("fetch %s: %w", symbol, err)
	}

	return s.parseQuoteResponse(symbol, respBytes)
}

// -----------------------------------------------------------------------------

type YahooQuoteResponse struct {
	QuoteResponse struct {
		Result []struct {
			Symbol                     string  `json:"symbol"`
			RegularMarketPrice         float64 `json:"regularMarketPrice"`
			RegularMarketChange        float64 `json:"regularMarketChange"`
			RegularMarketChangePercent float64 `json:"regularMarketChangePercent"`
			RegularMarketVolume        float64 `json:"regularMarketVolume"`
			RegularMarketOpen          float64 `json:"regularMarketOpen"`
			RegularMarketDayHigh       float64 `json:"regularMarketDayHigh"`
			RegularMarketDayLow        float64 `json:"regularMarketDayLow"`
			RegularMarketPreviousClose float64 `json:"regularMarketPreviousClose"`
			MarketCap                  float64 `json:"marketCap"`
			RegularMarketTime          int64   `json:"regularMarketTime"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"quoteResponse"`
}

// -----------------------------------------------------------------------------

func (s *YahooFinanceSource) parseQuoteResponse(symbol string, data []byte) (models.MInstrumentSnapshot, error) {
	var resp YahooQuoteResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return models.MInstrumentSnapshot{}, resilience.Transient("parse quote",
			fmt.Errorf("json unmarshal failed for %s: %w", symbol, err))
	}

	if resp.QuoteResponse.Error != nil {
		return models.MInstrumentSnapshot{}, resilience.Permanent("parse quote",
			fmt.Errorf("yahoo api error for %s: %s - %s", symbol,
				resp.QuoteResponse.Error.Code, resp.QuoteResponse.Error.Description))
	}

	if len(resp.QuoteResponse.Result) == 0 {
		return models.MInstrumentSnapshot{}, resilience.Permanent("parse quote",
			fmt.Errorf("no result in response for %s", symbol))
	}

	q := resp.QuoteResponse.Result[0]
	if q.RegularMarketPrice <= 0 {
		return models.MInstrumentSnapshot{}, resilience.Transient("parse quote",
			fmt.Errorf("invalid price %f for %s", q.RegularMarketPrice, symbol))
	}

	ts := q.RegularMarketTime
	if ts == 0 {
		ts = time.Now().Unix()
	}

	return models.MInstrumentSnapshot{
		Symbol:        symbol,
		Price:         q.RegularMarketPrice,
		Change:        q.RegularMarketChange,
		PercentChange: q.RegularMarketChangePercent,
		Volume:        q.RegularMarketVolume,
		DayOpen:       q.RegularMarketOpen,
		DayHigh:       q.RegularMarketDayHigh,
		DayLow:        q.RegularMarketDayLow,
		PreviousClose: q.RegularMarketPreviousClose,
		MarketCap:     q.MarketCap,
		Source:        s.Name(),
		Timestamp:     ts,
	}, nil
}
