package exchange

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/shopspring/decimal"

	"github.com/chumbacash/pebble-crypto-backend/internal/domain"
)

// restClient is the shared HTTP transport for all exchange adapters. It
// normalizes status codes and transport failures into the domain error
// taxonomy so adapters only deal with response shapes.
type restClient struct {
	httpClient *http.Client
	baseURL    string
	logger     *slog.Logger
}

// Option configures an exchange adapter's transport.
type Option func(*restClient)

// WithBaseURL overrides the exchange API base URL.
func WithBaseURL(u string) Option {
	return func(c *restClient) {
		if u != "" {
			c.baseURL = u
		}
	}
}

// WithTimeout sets the HTTP client timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *restClient) {
		c.httpClient.Timeout = timeout
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *restClient) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *restClient) {
		c.logger = logger
	}
}

func newRESTClient(name, defaultBaseURL string, opts ...Option) *restClient {
	c := &restClient{
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		baseURL: defaultBaseURL,
		logger:  slog.Default(),
	}

	for _, opt := range opts {
		opt(c)
	}

	c.logger = c.logger.With("component", name+"_client")
	return c
}

// getJSON performs a GET request and decodes the JSON body into v.
func (c *restClient) getJSON(ctx context.Context, path string, query url.Values, v any) error {
	u, err := url.Parse(c.baseURL + path)
	if err != nil {
		return fmt.Errorf("invalid request url: %w", err)
	}
	if query != nil {
		u.RawQuery = query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return domain.ErrExchangeTimeout
		}
		c.logger.Debug("request failed", "path", path, "error", err)
		return fmt.Errorf("%w: %v", domain.ErrExchangeUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		c.logger.Warn("rate limited by exchange", "path", path)
		return domain.ErrRateLimited

	case resp.StatusCode >= 500:
		c.logger.Warn("exchange server error", "path", path, "status", resp.StatusCode)
		return domain.ErrExchangeUnavailable

	case resp.StatusCode == http.StatusBadRequest, resp.StatusCode == http.StatusNotFound:
		// Exchanges answer 400/404 for unknown instruments
		return domain.ErrSymbolNotListed

	case resp.StatusCode != http.StatusOK:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		c.logger.Error("unexpected response",
			"path", path,
			"status", resp.StatusCode,
			"body", string(body),
		)
		return domain.ErrInvalidResponse
	}

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrInvalidResponse, err)
	}

	return nil
}

// parseDecimal converts an exchange-reported numeric string, treating
// the empty string as zero.
func parseDecimal(s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(s)
}

// fractionToPercent converts a fractional 24h change ("0.0153") into a
// percentage. Several exchanges report fractions where binance reports
// percent.
func fractionToPercent(s string) (decimal.Decimal, error) {
	d, err := parseDecimal(s)
	if err != nil {
		return decimal.Zero, err
	}
	return d.Mul(decimal.NewFromInt(100)), nil
}

// dashedSymbol renders a canonical symbol as BASE-QUOTE (kucoin, okx).
func dashedSymbol(symbol string) (string, error) {
	base, quote, ok := domain.SplitSymbol(symbol)
	if !ok {
		return "", domain.ErrSymbolNotListed
	}
	return base + "-" + quote, nil
}

// underscoredSymbol renders a canonical symbol as BASE_QUOTE (gateio).
func underscoredSymbol(symbol string) (string, error) {
	base, quote, ok := domain.SplitSymbol(symbol)
	if !ok {
		return "", domain.ErrSymbolNotListed
	}
	return base + "_" + quote, nil
}
