package domain

import "time"

// HealthStatus is the registry's view of one exchange.
type HealthStatus string

const (
	StatusHealthy   HealthStatus = "healthy"
	StatusUnhealthy HealthStatus = "unhealthy"
)

// Capabilities describes which markets an exchange adapter can serve.
type Capabilities struct {
	Spot    bool `json:"spot"`
	Futures bool `json:"futures"`
}

// ExchangeHealth is a point-in-time health report for one exchange
// adapter, updated opportunistically from real traffic.
type ExchangeHealth struct {
	Name                string        `json:"name"`
	Priority            int           `json:"priority"`
	Status              HealthStatus  `json:"status"`
	ConsecutiveFailures int           `json:"consecutive_failures"`
	LastChecked         time.Time     `json:"last_checked"`
	LastLatency         time.Duration `json:"-"`
	LastError           string        `json:"last_error,omitempty"`
}

// StreamStats describes the live streaming state for observability.
type StreamStats struct {
	TotalSymbols     int            `json:"total_symbols"`
	TotalConnections int            `json:"total_connections"`
	BySymbol         map[string]int `json:"connections_by_symbol"`
}

// Merge combines stats from several stream managers into one report.
func (s StreamStats) Merge(other StreamStats) StreamStats {
	out := StreamStats{
		TotalConnections: s.TotalConnections + other.TotalConnections,
		BySymbol:         make(map[string]int, len(s.BySymbol)+len(other.BySymbol)),
	}
	for sym, n := range s.BySymbol {
		out.BySymbol[sym] += n
	}
	for sym, n := range other.BySymbol {
		out.BySymbol[sym] += n
	}
	out.TotalSymbols = len(out.BySymbol)
	return out
}
