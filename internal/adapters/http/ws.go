package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/chumbacash/pebble-crypto-backend/internal/domain"
	"github.com/chumbacash/pebble-crypto-backend/internal/stream"
)

const wsWriteTimeout = 5 * time.Second

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

var connSeq atomic.Uint64

func nextConnID(r *http.Request) string {
	return fmt.Sprintf("%s#%d", r.RemoteAddr, connSeq.Add(1))
}

// wsSink wraps a websocket connection behind the stream sink interface.
// gorilla connections allow only one concurrent writer, so every send
// is serialized through the mutex.
type wsSink struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (s *wsSink) SendJSON(v any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout)); err != nil {
		return err
	}
	return s.conn.WriteJSON(v)
}

// LiveStream streams one symbol's best price at the fast cadence.
// The read loop only detects disconnects; inbound frames are ignored.
func (h *Handler) LiveStream(w http.ResponseWriter, r *http.Request) {
	symbol := domain.NormalizeSymbol(r.PathValue("symbol"))
	if err := domain.ValidateSymbolName(symbol); err != nil {
		handleDomainError(w, err)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	connID := nextConnID(r)
	sink := &wsSink{conn: conn}

	if err := sink.SendJSON(stream.NewConnectionFrame(symbol, "live price stream connected")); err != nil {
		return
	}

	h.live.Subscribe(connID, sink, []string{symbol})
	defer h.live.Disconnect(connID)

	h.logger.Info("live stream connected", "conn_id", connID, "symbol", symbol)

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}

	h.logger.Info("live stream disconnected", "conn_id", connID, "symbol", symbol)
}

// controlFrame is an inbound subscribe/unsubscribe request on the
// multi-symbol stream.
type controlFrame struct {
	Action  string   `json:"action"`
	Symbols []string `json:"symbols"`
}

// MultiStream streams any number of symbols at the slower cadence,
// driven by subscribe/unsubscribe control frames from the client.
func (h *Handler) MultiStream(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	connID := nextConnID(r)
	sink := &wsSink{conn: conn}

	if err := sink.SendJSON(stream.NewConnectionFrame("", "multi-symbol stream connected, send {\"action\":\"subscribe\",\"symbols\":[...]}")); err != nil {
		return
	}

	h.multi.Subscribe(connID, sink, nil)
	defer h.multi.Disconnect(connID)

	h.logger.Info("multi stream connected", "conn_id", connID)

	for {
		_, payload, err := conn.ReadMessage()
		if err != nil {
			break
		}

		var ctrl controlFrame
		if err := json.Unmarshal(payload, &ctrl); err != nil {
			_ = sink.SendJSON(stream.NewErrorFrame("", "invalid control frame"))
			continue
		}

		symbols := make([]string, 0, len(ctrl.Symbols))
		for _, s := range ctrl.Symbols {
			normalized := domain.NormalizeSymbol(s)
			if domain.ValidateSymbolName(normalized) != nil {
				_ = sink.SendJSON(stream.NewErrorFrame(s, "invalid symbol"))
				continue
			}
			symbols = append(symbols, normalized)
		}

		switch ctrl.Action {
		case "subscribe":
			current := h.multi.Subscribe(connID, sink, symbols)
			_ = sink.SendJSON(stream.NewSubscriptionFrame("subscribe", current))
		case "unsubscribe":
			current := h.multi.Unsubscribe(connID, symbols)
			_ = sink.SendJSON(stream.NewSubscriptionFrame("unsubscribe", current))
		default:
			_ = sink.SendJSON(stream.NewErrorFrame("", "unknown action: "+ctrl.Action))
		}
	}

	h.logger.Info("multi stream disconnected", "conn_id", connID)
}
