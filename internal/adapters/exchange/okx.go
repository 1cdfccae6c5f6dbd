package exchange

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/shopspring/decimal"

	"github.com/chumbacash/pebble-crypto-backend/internal/domain"
	"github.com/chumbacash/pebble-crypto-backend/internal/ports"
)

const okxBaseURL = "https://www.okx.com"

// Okx adapter. OKX uses dashed instrument ids (BTC-USDT) and reports no
// 24h change figure, so it is derived from the 24h open.
type Okx struct {
	rest     *restClient
	priority int
}

func NewOkx(priority int, opts ...Option) *Okx {
	return &Okx{
		rest:     newRESTClient("okx", okxBaseURL, opts...),
		priority: priority,
	}
}

func (o *Okx) Name() string  { return "okx" }
func (o *Okx) Priority() int { return o.priority }

func (o *Okx) Capabilities() domain.Capabilities {
	return domain.Capabilities{Spot: true, Futures: true}
}

type okxTicker struct {
	Code string `json:"code"`
	Data []struct {
		InstID  string `json:"instId"`
		Last    string `json:"last"`
		Open24h string `json:"open24h"`
		Vol24h  string `json:"vol24h"`
		High24h string `json:"high24h"`
		Low24h  string `json:"low24h"`
	} `json:"data"`
}

func (o *Okx) FetchTicker(ctx context.Context, symbol string) (*domain.Ticker, error) {
	instID, err := dashedSymbol(symbol)
	if err != nil {
		return nil, err
	}

	q := url.Values{}
	q.Set("instId", instID)

	var raw okxTicker
	if err := o.rest.getJSON(ctx, "/api/v5/market/ticker", q, &raw); err != nil {
		return nil, err
	}
	if raw.Code != "0" || len(raw.Data) == 0 {
		return nil, domain.ErrSymbolNotListed
	}

	t := raw.Data[0]
	price, err := parseDecimal(t.Last)
	if err != nil {
		return nil, fmt.Errorf("%w: bad price %q", domain.ErrInvalidResponse, t.Last)
	}
	open, err := parseDecimal(t.Open24h)
	if err != nil {
		return nil, fmt.Errorf("%w: bad open %q", domain.ErrInvalidResponse, t.Open24h)
	}

	change := decimal.Zero
	if open.IsPositive() {
		change = price.Sub(open).Div(open).Mul(decimal.NewFromInt(100))
	}

	volume, _ := parseDecimal(t.Vol24h)
	high, _ := parseDecimal(t.High24h)
	low, _ := parseDecimal(t.Low24h)

	return &domain.Ticker{
		Symbol:        symbol,
		Price:         price,
		ChangePercent: change,
		Volume:        volume,
		High:          high,
		Low:           low,
		Exchange:      o.Name(),
		FetchedAt:     time.Now().UTC(),
	}, nil
}

type okxInstruments struct {
	Code string `json:"code"`
	Data []struct {
		InstID string `json:"instId"`
		State  string `json:"state"`
	} `json:"data"`
}

func (o *Okx) FetchSymbols(ctx context.Context) ([]string, error) {
	q := url.Values{}
	q.Set("instType", "SPOT")

	var raw okxInstruments
	if err := o.rest.getJSON(ctx, "/api/v5/public/instruments", q, &raw); err != nil {
		return nil, err
	}
	if raw.Code != "0" {
		return nil, domain.ErrInvalidResponse
	}

	symbols := make([]string, 0, len(raw.Data))
	for _, inst := range raw.Data {
		if inst.State == "live" {
			symbols = append(symbols, domain.NormalizeSymbol(inst.InstID))
		}
	}
	return symbols, nil
}

var _ ports.ExchangeAdapter = (*Okx)(nil)
