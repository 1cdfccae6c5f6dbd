package exchange

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/chumbacash/pebble-crypto-backend/internal/domain"
	"github.com/chumbacash/pebble-crypto-backend/internal/ports"
)

const gateioBaseURL = "https://api.gateio.ws"

// Gateio adapter. Gate.io uses underscored pairs (BTC_USDT) and already
// reports the 24h change as a percentage.
type Gateio struct {
	rest     *restClient
	priority int
}

func NewGateio(priority int, opts ...Option) *Gateio {
	return &Gateio{
		rest:     newRESTClient("gateio", gateioBaseURL, opts...),
		priority: priority,
	}
}

func (g *Gateio) Name() string  { return "gateio" }
func (g *Gateio) Priority() int { return g.priority }

func (g *Gateio) Capabilities() domain.Capabilities {
	return domain.Capabilities{Spot: true, Futures: false}
}

type gateioTicker struct {
	CurrencyPair     string `json:"currency_pair"`
	Last             string `json:"last"`
	ChangePercentage string `json:"change_percentage"`
	BaseVolume       string `json:"base_volume"`
	High24h          string `json:"high_24h"`
	Low24h           string `json:"low_24h"`
}

func (g *Gateio) FetchTicker(ctx context.Context, symbol string) (*domain.Ticker, error) {
	pair, err := underscoredSymbol(symbol)
	if err != nil {
		return nil, err
	}

	q := url.Values{}
	q.Set("currency_pair", pair)

	var raw []gateioTicker
	if err := g.rest.getJSON(ctx, "/api/v4/spot/tickers", q, &raw); err != nil {
		return nil, err
	}
	if len(raw) == 0 {
		return nil, domain.ErrSymbolNotListed
	}

	t := raw[0]
	price, err := parseDecimal(t.Last)
	if err != nil {
		return nil, fmt.Errorf("%w: bad price %q", domain.ErrInvalidResponse, t.Last)
	}
	change, err := parseDecimal(t.ChangePercentage)
	if err != nil {
		return nil, fmt.Errorf("%w: bad change %q", domain.ErrInvalidResponse, t.ChangePercentage)
	}
	volume, _ := parseDecimal(t.BaseVolume)
	high, _ := parseDecimal(t.High24h)
	low, _ := parseDecimal(t.Low24h)

	return &domain.Ticker{
		Symbol:        symbol,
		Price:         price,
		ChangePercent: change,
		Volume:        volume,
		High:          high,
		Low:           low,
		Exchange:      g.Name(),
		FetchedAt:     time.Now().UTC(),
	}, nil
}

type gateioPair struct {
	ID          string `json:"id"`
	TradeStatus string `json:"trade_status"`
}

func (g *Gateio) FetchSymbols(ctx context.Context) ([]string, error) {
	var raw []gateioPair
	if err := g.rest.getJSON(ctx, "/api/v4/spot/currency_pairs", nil, &raw); err != nil {
		return nil, err
	}

	symbols := make([]string, 0, len(raw))
	for _, p := range raw {
		if p.TradeStatus == "tradable" {
			symbols = append(symbols, domain.NormalizeSymbol(p.ID))
		}
	}
	return symbols, nil
}

var _ ports.ExchangeAdapter = (*Gateio)(nil)
