package ports

import "github.com/chumbacash/pebble-crypto-backend/internal/domain"

// StreamSink is the write side of one client connection. Implementations
// must be safe for concurrent use; a send error marks the connection as
// dead and causes it to be pruned from subscriber sets.
type StreamSink interface {
	SendJSON(v any) error
}

// StreamManager maintains per-symbol subscriber sets and one polling
// loop per active symbol.
type StreamManager interface {
	// Subscribe registers sink for symbols under connID and returns the
	// connection's full subscription set after the change
	Subscribe(connID string, sink StreamSink, symbols []string) []string

	// Unsubscribe removes symbols from connID's subscription set and
	// returns the remaining set
	Unsubscribe(connID string, symbols []string) []string

	// Disconnect removes connID from every symbol it was subscribed to
	Disconnect(connID string)

	// Stats reports active symbols and connections
	Stats() domain.StreamStats
}
