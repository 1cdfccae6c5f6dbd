package exchange

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/chumbacash/pebble-crypto-backend/internal/domain"
	"github.com/chumbacash/pebble-crypto-backend/internal/ports"
)

const bybitBaseURL = "https://api.bybit.com"

// Bybit adapter. Bybit v5 wraps every payload in a result envelope and
// reports the 24h change as a fraction.
type Bybit struct {
	rest     *restClient
	priority int
}

func NewBybit(priority int, opts ...Option) *Bybit {
	return &Bybit{
		rest:     newRESTClient("bybit", bybitBaseURL, opts...),
		priority: priority,
	}
}

func (b *Bybit) Name() string  { return "bybit" }
func (b *Bybit) Priority() int { return b.priority }

func (b *Bybit) Capabilities() domain.Capabilities {
	return domain.Capabilities{Spot: true, Futures: true}
}

type bybitTickers struct {
	RetCode int `json:"retCode"`
	Result  struct {
		List []struct {
			Symbol       string `json:"symbol"`
			LastPrice    string `json:"lastPrice"`
			Price24hPcnt string `json:"price24hPcnt"`
			Volume24h    string `json:"volume24h"`
			HighPrice24h string `json:"highPrice24h"`
			LowPrice24h  string `json:"lowPrice24h"`
		} `json:"list"`
	} `json:"result"`
}

func (b *Bybit) FetchTicker(ctx context.Context, symbol string) (*domain.Ticker, error) {
	q := url.Values{}
	q.Set("category", "spot")
	q.Set("symbol", symbol)

	var raw bybitTickers
	if err := b.rest.getJSON(ctx, "/v5/market/tickers", q, &raw); err != nil {
		return nil, err
	}
	if raw.RetCode != 0 || len(raw.Result.List) == 0 {
		return nil, domain.ErrSymbolNotListed
	}

	t := raw.Result.List[0]
	price, err := parseDecimal(t.LastPrice)
	if err != nil {
		return nil, fmt.Errorf("%w: bad price %q", domain.ErrInvalidResponse, t.LastPrice)
	}
	change, err := fractionToPercent(t.Price24hPcnt)
	if err != nil {
		return nil, fmt.Errorf("%w: bad change %q", domain.ErrInvalidResponse, t.Price24hPcnt)
	}
	volume, _ := parseDecimal(t.Volume24h)
	high, _ := parseDecimal(t.HighPrice24h)
	low, _ := parseDecimal(t.LowPrice24h)

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

func (b *Bybit) FetchSymbols(ctx context.Context) ([]string, error) {
	q := url.Values{}
	q.Set("category", "spot")

	var raw bybitTickers
	if err := b.rest.getJSON(ctx, "/v5/market/tickers", q, &raw); err != nil {
		return nil, err
	}
	if raw.RetCode != 0 {
		return nil, domain.ErrInvalidResponse
	}

	symbols := make([]string, 0, len(raw.Result.List))
	for _, t := range raw.Result.List {
		symbols = append(symbols, t.Symbol)
	}
	return symbols, nil
}

var _ ports.ExchangeAdapter = (*Bybit)(nil)
