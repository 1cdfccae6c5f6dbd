package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Ticker is a snapshot of one symbol's current price and 24h statistics
// as reported by a single exchange. Tickers are produced fresh on every
// fetch and never cached.
type Ticker struct {
	Symbol        string          `json:"symbol"`
	Price         decimal.Decimal `json:"price"`
	ChangePercent decimal.Decimal `json:"change_24h"`
	Volume        decimal.Decimal `json:"volume_24h"`
	High          decimal.Decimal `json:"high_24h"`
	Low           decimal.Decimal `json:"low_24h"`
	Exchange      string          `json:"exchange"`
	FetchedAt     time.Time       `json:"fetched_at"`
}

// Quote is one exchange's answer for one symbol inside a price book.
// Ticker is nil when the exchange could not be queried, in which case
// Reason explains why.
type Quote struct {
	Exchange string
	Ticker   *Ticker
	Reason   string
}

// Available reports whether the quote carries usable ticker data.
func (q Quote) Available() bool {
	return q.Ticker != nil
}

// Usable reports whether the quote can participate in price comparison.
func (q Quote) Usable() bool {
	return q.Ticker != nil && q.Ticker.Price.IsPositive()
}

// SymbolQuotes holds all exchange quotes collected for one symbol,
// ordered by exchange priority.
type SymbolQuotes struct {
	Symbol string
	Quotes []Quote
}

// Usable returns the quotes that carry a positive price, preserving
// priority order.
func (s SymbolQuotes) Usable() []Quote {
	var out []Quote
	for _, q := range s.Quotes {
		if q.Usable() {
			out = append(out, q)
		}
	}
	return out
}

// PriceBook is the merged result of one aggregation request: one entry
// per requested symbol, in request order. It is owned by the request
// that built it and discarded with the response.
type PriceBook struct {
	Symbols   []SymbolQuotes
	FetchedAt time.Time
}

// Kline is a single OHLCV candle.
type Kline struct {
	OpenTime  time.Time       `json:"open_time"`
	Open      decimal.Decimal `json:"open"`
	High      decimal.Decimal `json:"high"`
	Low       decimal.Decimal `json:"low"`
	Close     decimal.Decimal `json:"close"`
	Volume    decimal.Decimal `json:"volume"`
	CloseTime time.Time       `json:"close_time"`
}

// QuoteSnapshot is a persisted per-exchange price observation.
type QuoteSnapshot struct {
	ID         int64           `json:"id"`
	Symbol     string          `json:"symbol"`
	Exchange   string          `json:"exchange"`
	Price      decimal.Decimal `json:"price"`
	RecordedAt time.Time       `json:"recorded_at"`
}

// NewQuoteSnapshot creates a snapshot from a live ticker.
func NewQuoteSnapshot(t *Ticker) *QuoteSnapshot {
	return &QuoteSnapshot{
		Symbol:     t.Symbol,
		Exchange:   t.Exchange,
		Price:      t.Price,
		RecordedAt: time.Now().UTC(),
	}
}
