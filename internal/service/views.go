package service

import (
	"crypto_dash/internal/domain"
	"crypto_dash/pkg/format"

	"github.com/shopspring/decimal"
)

// Labels are preformatted display strings for a coin row
type Labels struct {
	Price       string `json:"price"`
	MarketCap   string `json:"market_cap"`
	Volume      string `json:"volume"`
	Change24h   string `json:"change_24h"`
	High24h     string `json:"high_24h"`
	Low24h      string `json:"low_24h"`
	Direction   string `json:"direction"`
	LastUpdated string `json:"last_updated"`
}

// CoinView is a market row annotated for the dashboard
type CoinView struct {
	domain.Coin
	Watched bool   `json:"watched"`
	Labels  Labels `json:"labels"`
}

// ChartPointView is one chart sample, time in unix milliseconds
type ChartPointView struct {
	Time  int64           `json:"t"`
	Value decimal.Decimal `json:"v"`
	Label string          `json:"label"`
}

// ChartView is the price series of one range button
type ChartView struct {
	CoinID string           `json:"coin_id"`
	Days   int              `json:"days"`
	Points []ChartPointView `json:"points"`
	Low    decimal.Decimal  `json:"low"`
	High   decimal.Decimal  `json:"high"`
}

// CoinDetailView is the coin page payload
type CoinDetailView struct {
	CoinView
	Links domain.CoinLinks `json:"links"`
	Chart *ChartView       `json:"chart"`
}

func newLabels(c *domain.Coin) Labels {
	return Labels{
		Price:       format.Currency(c.CurrentPrice),
		MarketCap:   format.Compact(c.MarketCap),
		Volume:      format.Compact(c.TotalVolume),
		Change24h:   format.Percentage(c.PriceChangePercentage24h),
		High24h:     format.Currency(c.High24h),
		Low24h:      format.Currency(c.Low24h),
		Direction:   c.ChangeDirection(),
		LastUpdated: format.Ago(c.LastUpdated),
	}
}

func newChartView(id string, days int, chart *domain.MarketChart) *ChartView {
	view := &ChartView{
		CoinID: id,
		Days:   days,
		Points: make([]ChartPointView, 0, len(chart.Prices)),
	}
	for _, p := range chart.Prices {
		ms := p.Time.UnixMilli()
		view.Points = append(view.Points, ChartPointView{
			Time:  ms,
			Value: p.Value,
			Label: format.Date(ms),
		})
	}
	if low, high, ok := chart.PriceRange(); ok {
		view.Low, view.High = low, high
	}
	return view
}
