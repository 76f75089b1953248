package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// ROI is the optional return-on-investment block of a market listing
type ROI struct {
	Currency   string          `json:"currency"`
	Percentage decimal.Decimal `json:"percentage"`
	Times      decimal.Decimal `json:"times"`
}

// Coin is a point-in-time market snapshot for a single coin identifier.
// It is owned by the market-data collaborator; the watchlist only filters it.
type Coin struct {
	ID     string `json:"id"`     // Opaque identifier (e.g., "bitcoin")
	Symbol string `json:"symbol"` // Ticker symbol (e.g., "btc")
	Name   string `json:"name"`
	Image  string `json:"image"`

	CurrentPrice          decimal.Decimal `json:"current_price"`
	MarketCap             decimal.Decimal `json:"market_cap"`
	MarketCapRank         int             `json:"market_cap_rank"`
	FullyDilutedValuation decimal.Decimal `json:"fully_diluted_valuation"`
	TotalVolume           decimal.Decimal `json:"total_volume"`
	High24h               decimal.Decimal `json:"high_24h"`
	Low24h                decimal.Decimal `json:"low_24h"`

	PriceChange24h               decimal.Decimal `json:"price_change_24h"`
	PriceChangePercentage24h     decimal.Decimal `json:"price_change_percentage_24h"`
	MarketCapChange24h           decimal.Decimal `json:"market_cap_change_24h"`
	MarketCapChangePercentage24h decimal.Decimal `json:"market_cap_change_percentage_24h"`

	CirculatingSupply decimal.Decimal `json:"circulating_supply"`
	TotalSupply       decimal.Decimal `json:"total_supply"`
	MaxSupply         decimal.Decimal `json:"max_supply"`

	ATH                 decimal.Decimal `json:"ath"`
	ATHChangePercentage decimal.Decimal `json:"ath_change_percentage"`
	ATHDate             string          `json:"ath_date"`
	ATL                 decimal.Decimal `json:"atl"`
	ATLChangePercentage decimal.Decimal `json:"atl_change_percentage"`
	ATLDate             string          `json:"atl_date"`
	ROI                 *ROI            `json:"roi"`
	LastUpdated         time.Time       `json:"last_updated"`
}

// CoinLinks holds external links of a coin
type CoinLinks struct {
	Homepage []string `json:"homepage"`
}

// CoinDetail is a Coin enriched with the detail-only fields
type CoinDetail struct {
	Coin
	Links CoinLinks `json:"links"`
}

// ChangeDirection returns "positive", "negative", or "neutral" for the 24h change
func (c *Coin) ChangeDirection() string {
	if c.PriceChangePercentage24h.IsPositive() {
		return "positive"
	}
	if c.PriceChangePercentage24h.IsNegative() {
		return "negative"
	}
	return "neutral"
}

// ChartPoint is a single (timestamp, value) sample of a market chart
type ChartPoint struct {
	Time  time.Time       `json:"time"`
	Value decimal.Decimal `json:"value"`
}

// MarketChart holds the price, market cap and volume series for a coin
type MarketChart struct {
	Prices       []ChartPoint `json:"prices"`
	MarketCaps   []ChartPoint `json:"market_caps"`
	TotalVolumes []ChartPoint `json:"total_volumes"`
}

// PriceRange returns the lowest and highest price of the series.
// ok is false when the series is empty.
func (m *MarketChart) PriceRange() (low, high decimal.Decimal, ok bool) {
	if len(m.Prices) == 0 {
		return decimal.Zero, decimal.Zero, false
	}
	low, high = m.Prices[0].Value, m.Prices[0].Value
	for _, p := range m.Prices[1:] {
		if p.Value.LessThan(low) {
			low = p.Value
		}
		if p.Value.GreaterThan(high) {
			high = p.Value
		}
	}
	return low, high, true
}
