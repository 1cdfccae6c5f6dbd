package exchange

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/chumbacash/pebble-crypto-backend/internal/domain"
	"github.com/chumbacash/pebble-crypto-backend/internal/ports"
)

const kucoinBaseURL = "https://api.kucoin.com"

// Kucoin adapter. Kucoin uses dashed symbols (BTC-USDT) and reports the
// 24h change as a fraction.
type Kucoin struct {
	rest     *restClient
	priority int
}

func NewKucoin(priority int, opts ...Option) *Kucoin {
	return &Kucoin{
		rest:     newRESTClient("kucoin", kucoinBaseURL, opts...),
		priority: priority,
	}
}

func (k *Kucoin) Name() string  { return "kucoin" }
func (k *Kucoin) Priority() int { return k.priority }

func (k *Kucoin) Capabilities() domain.Capabilities {
	return domain.Capabilities{Spot: true, Futures: true}
}

type kucoinStats struct {
	Data struct {
		Last       string `json:"last"`
		ChangeRate string `json:"changeRate"`
		Vol        string `json:"vol"`
		High       string `json:"high"`
		Low        string `json:"low"`
	} `json:"data"`
}

func (k *Kucoin) FetchTicker(ctx context.Context, symbol string) (*domain.Ticker, error) {
	pair, err := dashedSymbol(symbol)
	if err != nil {
		return nil, err
	}

	q := url.Values{}
	q.Set("symbol", pair)

	var raw kucoinStats
	if err := k.rest.getJSON(ctx, "/api/v1/market/stats", q, &raw); err != nil {
		return nil, err
	}
	if raw.Data.Last == "" {
		return nil, domain.ErrSymbolNotListed
	}

	price, err := parseDecimal(raw.Data.Last)
	if err != nil {
		return nil, fmt.Errorf("%w: bad price %q", domain.ErrInvalidResponse, raw.Data.Last)
	}
	change, err := fractionToPercent(raw.Data.ChangeRate)
	if err != nil {
		return nil, fmt.Errorf("%w: bad change %q", domain.ErrInvalidResponse, raw.Data.ChangeRate)
	}
	volume, _ := parseDecimal(raw.Data.Vol)
	high, _ := parseDecimal(raw.Data.High)
	low, _ := parseDecimal(raw.Data.Low)

	return &domain.Ticker{
		Symbol:        symbol,
		Price:         price,
		ChangePercent: change,
		Volume:        volume,
		High:          high,
		Low:           low,
		Exchange:      k.Name(),
		FetchedAt:     time.Now().UTC(),
	}, nil
}

type kucoinSymbols struct {
	Data []struct {
		Symbol        string `json:"symbol"`
		EnableTrading bool   `json:"enableTrading"`
	} `json:"data"`
}

func (k *Kucoin) FetchSymbols(ctx context.Context) ([]string, error) {
	var raw kucoinSymbols
	if err := k.rest.getJSON(ctx, "/api/v2/symbols", nil, &raw); err != nil {
		return nil, err
	}

	symbols := make([]string, 0, len(raw.Data))
	for _, s := range raw.Data {
		if s.EnableTrading {
			symbols = append(symbols, domain.NormalizeSymbol(s.Symbol))
		}
	}
	return symbols, nil
}

var _ ports.ExchangeAdapter = (*Kucoin)(nil)
