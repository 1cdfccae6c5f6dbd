package exchange

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/chumbacash/pebble-crypto-backend/internal/domain"
	"github.com/chumbacash/pebble-crypto-backend/internal/ports"
)

const binanceBaseURL = "https://api.binance.com"

// AllowedKlineIntervals is the closed set of intervals accepted by the
// klines endpoint.
var AllowedKlineIntervals = map[string]bool{
	"1m": true, "5m": true, "15m": true, "30m": true,
	"1h": true, "2h": true, "4h": true, "6h": true, "8h": true, "12h": true,
	"1d": true, "3d": true, "1w": true, "1M": true,
}

// Binance is the primary exchange adapter. It is the only adapter that
// also serves OHLCV candles.
type Binance struct {
	rest     *restClient
	priority int
}

// NewBinance creates a binance adapter with the given priority rank.
func NewBinance(priority int, opts ...Option) *Binance {
	return &Binance{
		rest:     newRESTClient("binance", binanceBaseURL, opts...),
		priority: priority,
	}
}

func (b *Binance) Name() string  { return "binance" }
func (b *Binance) Priority() int { return b.priority }

func (b *Binance) Capabilities() domain.Capabilities {
	return domain.Capabilities{Spot: true, Futures: true}
}

type binanceTicker struct {
	Symbol             string `json:"symbol"`
	LastPrice          string `json:"lastPrice"`
	PriceChangePercent string `json:"priceChangePercent"`
	Volume             string `json:"volume"`
	HighPrice          string `json:"highPrice"`
	LowPrice           string `json:"lowPrice"`
}

// FetchTicker fetches the 24h ticker for a canonical symbol.
func (b *Binance) FetchTicker(ctx context.Context, symbol string) (*domain.Ticker, error) {
	q := url.Values{}
	q.Set("symbol", symbol)

	var raw binanceTicker
	if err := b.rest.getJSON(ctx, "/api/v3/ticker/24hr", q, &raw); err != nil {
		return nil, err
	}

	price, err := parseDecimal(raw.LastPrice)
	if err != nil {
		return nil, fmt.Errorf("%w: bad price %q", domain.ErrInvalidResponse, raw.LastPrice)
	}
	change, err := parseDecimal(raw.PriceChangePercent)
	if err != nil {
		return nil, fmt.Errorf("%w: bad change %q", domain.ErrInvalidResponse, raw.PriceChangePercent)
	}
	volume, _ := parseDecimal(raw.Volume)
	high, _ := parseDecimal(raw.HighPrice)
	low, _ := parseDecimal(raw.LowPrice)

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

type binanceExchangeInfo struct {
	Symbols []struct {
		Symbol string `json:"symbol"`
		Status string `json:"status"`
	} `json:"symbols"`
}

// FetchSymbols fetches all actively trading spot symbols.
func (b *Binance) FetchSymbols(ctx context.Context) ([]string, error) {
	var raw binanceExchangeInfo
	if err := b.rest.getJSON(ctx, "/api/v3/exchangeInfo", nil, &raw); err != nil {
		return nil, err
	}

	symbols := make([]string, 0, len(raw.Symbols))
	for _, s := range raw.Symbols {
		if s.Status == "TRADING" {
			symbols = append(symbols, s.Symbol)
		}
	}
	return symbols, nil
}

// FetchKlines fetches up to limit OHLCV candles.
// Binance encodes each candle as a positional JSON array.
func (b *Binance) FetchKlines(ctx context.Context, symbol, interval string, limit int) ([]domain.Kline, error) {
	if !AllowedKlineIntervals[interval] {
		return nil, domain.ErrInvalidInterval
	}

	q := url.Values{}
	q.Set("symbol", symbol)
	q.Set("interval", interval)
	q.Set("limit", strconv.Itoa(limit))

	var raw [][]any
	if err := b.rest.getJSON(ctx, "/api/v3/klines", q, &raw); err != nil {
		return nil, err
	}

	klines := make([]domain.Kline, 0, len(raw))
	for _, row := range raw {
		if len(row) < 7 {
			return nil, fmt.Errorf("%w: short kline row", domain.ErrInvalidResponse)
		}
		k, err := parseKlineRow(row)
		if err != nil {
			return nil, err
		}
		klines = append(klines, k)
	}
	return klines, nil
}

func parseKlineRow(row []any) (domain.Kline, error) {
	openTime, ok := row[0].(float64)
	if !ok {
		return domain.Kline{}, fmt.Errorf("%w: bad kline open time", domain.ErrInvalidResponse)
	}
	closeTime, ok := row[6].(float64)
	if !ok {
		return domain.Kline{}, fmt.Errorf("%w: bad kline close time", domain.ErrInvalidResponse)
	}

	fields := make([]decimal.Decimal, 5)
	for i := 1; i <= 5; i++ {
		s, ok := row[i].(string)
		if !ok {
			return domain.Kline{}, fmt.Errorf("%w: bad kline field", domain.ErrInvalidResponse)
		}
		d, err := parseDecimal(s)
		if err != nil {
			return domain.Kline{}, fmt.Errorf("%w: bad kline value %q", domain.ErrInvalidResponse, s)
		}
		fields[i-1] = d
	}

	return domain.Kline{
		OpenTime:  time.UnixMilli(int64(openTime)).UTC(),
		Open:      fields[0],
		High:      fields[1],
		Low:       fields[2],
		Close:     fields[3],
		Volume:    fields[4],
		CloseTime: time.UnixMilli(int64(closeTime)).UTC(),
	}, nil
}

var (
	_ ports.ExchangeAdapter = (*Binance)(nil)
	_ ports.KlineFetcher    = (*Binance)(nil)
)
