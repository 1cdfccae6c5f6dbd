package stream

import (
	"time"

	"github.com/chumbacash/pebble-crypto-backend/internal/domain"
)

// Frame types pushed over the WebSocket surface.
const (
	FrameConnection   = "connection"
	FramePriceUpdate  = "price_update"
	FrameSubscription = "subscription"
	FrameError        = "error"
)

// PriceUpdateFrame carries one ticker update. Prices are rendered as
// strings to preserve exchange precision.
type PriceUpdateFrame struct {
	Type      string `json:"type"`
	Symbol    string `json:"symbol"`
	Price     string `json:"price"`
	Change24h string `json:"price_change_24h"`
	Volume24h string `json:"volume_24h"`
	High24h   string `json:"high_24h"`
	Low24h    string `json:"low_24h"`
	Exchange  string `json:"exchange"`
	Timestamp string `json:"timestamp"`
}

// NewPriceUpdateFrame builds a price update frame from a ticker.
func NewPriceUpdateFrame(t *domain.Ticker) PriceUpdateFrame {
	return PriceUpdateFrame{
		Type:      FramePriceUpdate,
		Symbol:    t.Symbol,
		Price:     t.Price.String(),
		Change24h: t.ChangePercent.String(),
		Volume24h: t.Volume.String(),
		High24h:   t.High.String(),
		Low24h:    t.Low.String(),
		Exchange:  t.Exchange,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
}

// ErrorFrame reports a stream-level problem to one connection.
type ErrorFrame struct {
	Type      string `json:"type"`
	Symbol    string `json:"symbol,omitempty"`
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
}

// NewErrorFrame builds an error frame.
func NewErrorFrame(symbol, message string) ErrorFrame {
	return ErrorFrame{
		Type:      FrameError,
		Symbol:    symbol,
		Message:   message,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
}

// ConnectionFrame greets a freshly accepted connection.
type ConnectionFrame struct {
	Type      string `json:"type"`
	Symbol    string `json:"symbol,omitempty"`
	Status    string `json:"status"`
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
}

// NewConnectionFrame builds the connection greeting.
func NewConnectionFrame(symbol, message string) ConnectionFrame {
	return ConnectionFrame{
		Type:      FrameConnection,
		Symbol:    symbol,
		Status:    "connected",
		Message:   message,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
}

// SubscriptionFrame acknowledges a subscribe/unsubscribe control frame
// with the connection's current subscription set.
type SubscriptionFrame struct {
	Type      string   `json:"type"`
	Action    string   `json:"action"`
	Symbols   []string `json:"symbols"`
	Timestamp string   `json:"timestamp"`
}

// NewSubscriptionFrame builds a subscription acknowledgement.
func NewSubscriptionFrame(action string, symbols []string) SubscriptionFrame {
	return SubscriptionFrame{
		Type:      FrameSubscription,
		Action:    action,
		Symbols:   symbols,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
}
