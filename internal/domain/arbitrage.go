package domain

import "github.com/shopspring/decimal"

// ArbitrageOpportunity is a derived, read-only cross-exchange price gap
// for one symbol: buy at the cheapest exchange, sell at the dearest.
type ArbitrageOpportunity struct {
	Symbol        string          `json:"symbol"`
	BuyExchange   string          `json:"buy_exchange"`
	SellExchange  string          `json:"sell_exchange"`
	BuyPrice      decimal.Decimal `json:"buy_price"`
	SellPrice     decimal.Decimal `json:"sell_price"`
	SpreadPercent decimal.Decimal `json:"spread_percent"`
	ProfitPerUnit decimal.Decimal `json:"potential_profit_per_unit"`
}

// SpreadPercent computes the percentage gap between two prices relative
// to the lower one. min must be positive.
func SpreadPercent(min, max decimal.Decimal) decimal.Decimal {
	return max.Sub(min).Div(min).Mul(decimal.NewFromInt(100))
}
