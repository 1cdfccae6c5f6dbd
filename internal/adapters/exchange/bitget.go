package exchange

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/chumbacash/pebble-crypto-backend/internal/domain"
	"github.com/chumbacash/pebble-crypto-backend/internal/ports"
)

const bitgetBaseURL = "https://api.bitget.com"

// Bitget adapter. Bitget v2 wraps payloads in a code/data envelope and
// reports the 24h change as a fraction.
type Bitget struct {
	rest     *restClient
	priority int
}

func NewBitget(priority int, opts ...Option) *Bitget {
	return &Bitget{
		rest:     newRESTClient("bitget", bitgetBaseURL, opts...),
		priority: priority,
	}
}

func (b *Bitget) Name() string  { return "bitget" }
func (b *Bitget) Priority() int { return b.priority }

func (b *Bitget) Capabilities() domain.Capabilities {
	return domain.Capabilities{Spot: true, Futures: true}
}

type bitgetTickers struct {
	Code string `json:"code"`
	Data []struct {
		Symbol     string `json:"symbol"`
		LastPr     string `json:"lastPr"`
		Change24h  string `json:"change24h"`
		BaseVolume string `json:"baseVolume"`
		High24h    string `json:"high24h"`
		Low24h     string `json:"low24h"`
	} `json:"data"`
}

func (b *Bitget) FetchTicker(ctx context.Context, symbol string) (*domain.Ticker, error) {
	q := url.Values{}
	q.Set("symbol", symbol)

	var raw bitgetTickers
	if err := b.rest.getJSON(ctx, "/api/v2/spot/market/tickers", q, &raw); err != nil {
		return nil, err
	}
	if raw.Code != "00000" || len(raw.Data) == 0 {
		return nil, domain.ErrSymbolNotListed
	}

	t := raw.Data[0]
	price, err := parseDecimal(t.LastPr)
	if err != nil {
		return nil, fmt.Errorf("%w: bad price %q", domain.ErrInvalidResponse, t.LastPr)
	}
	change, err := fractionToPercent(t.Change24h)
	if err != nil {
		return nil, fmt.Errorf("%w: bad change %q", domain.ErrInvalidResponse, t.Change24h)
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
		Exchange:      b.Name(),
		FetchedAt:     time.Now().UTC(),
	}, nil
}

type bitgetSymbols struct {
	Code string `json:"code"`
	Data []struct {
		Symbol string `json:"symbol"`
		Status string `json:"status"`
	} `json:"data"`
}

func (b *Bitget) FetchSymbols(ctx context.Context) ([]string, error) {
	var raw bitgetSymbols
	if err := b.rest.getJSON(ctx, "/api/v2/spot/public/symbols", nil, &raw); err != nil {
		return nil, err
	}
	if raw.Code != "00000" {
		return nil, domain.ErrInvalidResponse
	}

	symbols := make([]string, 0, len(raw.Data))
	for _, s := range raw.Data {
		if s.Status == "online" {
			symbols = append(symbols, s.Symbol)
		}
	}
	return symbols, nil
}

var _ ports.ExchangeAdapter = (*Bitget)(nil)
