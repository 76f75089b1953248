package coingecko

import (
	"math"
	"strconv"
	"strings"
	"time"

	"crypto_dash/internal/domain"

	"github.com/shopspring/decimal"
)

// number decodes any JSON value into a float64.
// null, missing, non-numeric and NaN/Inf values all become 0.
type number float64

func (n *number) UnmarshalJSON(b []byte) error {
	s := strings.Trim(strings.TrimSpace(string(b)), `"`)
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		*n = 0
		return nil
	}
	*n = number(f)
	return nil
}

func (n number) dec() decimal.Decimal {
	return decimal.NewFromFloat(float64(n))
}

// amounts is a per-currency value map (e.g. {"usd": 1.0, "eur": 0.9})
type amounts map[string]number

func (a amounts) in(currency string) decimal.Decimal {
	return a[currency].dec()
}

// marketCoin is one element of /coins/markets
type marketCoin struct {
	ID     string `json:"id"`
	Symbol string `json:"symbol"`
	Name   string `json:"name"`
	Image  string `json:"image"`

	CurrentPrice          number `json:"current_price"`
	MarketCap             number `json:"market_cap"`
	MarketCapRank         number `json:"market_cap_rank"`
	FullyDilutedValuation number `json:"fully_diluted_valuation"`
	TotalVolume           number `json:"total_volume"`
	High24h               number `json:"high_24h"`
	Low24h                number `json:"low_24h"`

	PriceChange24h               number `json:"price_change_24h"`
	PriceChangePercentage24h     number `json:"price_change_percentage_24h"`
	MarketCapChange24h           number `json:"market_cap_change_24h"`
	MarketCapChangePercentage24h number `json:"market_cap_change_percentage_24h"`

	CirculatingSupply number `json:"circulating_supply"`
	TotalSupply       number `json:"total_supply"`
	MaxSupply         number `json:"max_supply"`

	ATH                 number `json:"ath"`
	ATHChangePercentage number `json:"ath_change_percentage"`
	ATHDate             string `json:"ath_date"`
	ATL                 number `json:"atl"`
	ATLChangePercentage number `json:"atl_change_percentage"`
	ATLDate             string `json:"atl_date"`

	ROI *struct {
		Currency   string `json:"currency"`
		Percentage number `json:"percentage"`
		Times      number `json:"times"`
	} `json:"roi"`

	LastUpdated string `json:"last_updated"`
}

func (m *marketCoin) toDomain() domain.Coin {
	c := domain.Coin{
		ID:     m.ID,
		Symbol: m.Symbol,
		Name:   m.Name,
		Image:  m.Image,

		CurrentPrice:          m.CurrentPrice.dec(),
		MarketCap:             m.MarketCap.dec(),
		MarketCapRank:         int(m.MarketCapRank),
		FullyDilutedValuation: m.FullyDilutedValuation.dec(),
		TotalVolume:           m.TotalVolume.dec(),
		High24h:               m.High24h.dec(),
		Low24h:                m.Low24h.dec(),

		PriceChange24h:               m.PriceChange24h.dec(),
		PriceChangePercentage24h:     m.PriceChangePercentage24h.dec(),
		MarketCapChange24h:           m.MarketCapChange24h.dec(),
		MarketCapChangePercentage24h: m.MarketCapChangePercentage24h.dec(),

		CirculatingSupply: m.CirculatingSupply.dec(),
		TotalSupply:       m.TotalSupply.dec(),
		MaxSupply:         m.MaxSupply.dec(),

		ATH:                 m.ATH.dec(),
		ATHChangePercentage: m.ATHChangePercentage.dec(),
		ATHDate:             m.ATHDate,
		ATL:                 m.ATL.dec(),
		ATLChangePercentage: m.ATLChangePercentage.dec(),
		ATLDate:             m.ATLDate,

		LastUpdated: parseTime(m.LastUpdated),
	}
	if m.ROI != nil {
		c.ROI = &domain.ROI{
			Currency:   m.ROI.Currency,
			Percentage: m.ROI.Percentage.dec(),
			Times:      m.ROI.Times.dec(),
		}
	}
	return c
}

// coinDetailResponse is the subset of /coins/{id} the dashboard uses
type coinDetailResponse struct {
	ID     string `json:"id"`
	Symbol string `json:"symbol"`
	Name   string `json:"name"`
	Image  struct {
		Large string `json:"large"`
	} `json:"image"`
	MarketCapRank number `json:"market_cap_rank"`

	MarketData struct {
		CurrentPrice          amounts `json:"current_price"`
		MarketCap             amounts `json:"market_cap"`
		FullyDilutedValuation amounts `json:"fully_diluted_valuation"`
		TotalVolume           amounts `json:"total_volume"`
		High24h               amounts `json:"high_24h"`
		Low24h                amounts `json:"low_24h"`

		PriceChange24h               number `json:"price_change_24h"`
		PriceChangePercentage24h     number `json:"price_change_percentage_24h"`
		MarketCapChange24h           number `json:"market_cap_change_24h"`
		MarketCapChangePercentage24h number `json:"market_cap_change_percentage_24h"`

		CirculatingSupply number `json:"circulating_supply"`
		TotalSupply       number `json:"total_supply"`
		MaxSupply         number `json:"max_supply"`

		ATH                 amounts           `json:"ath"`
		ATHChangePercentage amounts           `json:"ath_change_percentage"`
		ATHDate             map[string]string `json:"ath_date"`
		ATL                 amounts           `json:"atl"`
		ATLChangePercentage amounts           `json:"atl_change_percentage"`
		ATLDate             map[string]string `json:"atl_date"`
	} `json:"market_data"`

	Links struct {
		Homepage []string `json:"homepage"`
	} `json:"links"`

	LastUpdated string `json:"last_updated"`
}

func (r *coinDetailResponse) toDomain(currency string) *domain.CoinDetail {
	md := &r.MarketData

	lastUpdated := parseTime(r.LastUpdated)
	if lastUpdated.IsZero() {
		lastUpdated = time.Now().UTC()
	}

	homepage := make([]string, 0, len(r.Links.Homepage))
	for _, link := range r.Links.Homepage {
		if link != "" {
			homepage = append(homepage, link)
		}
	}

	return &domain.CoinDetail{
		Coin: domain.Coin{
			ID:     r.ID,
			Symbol: r.Symbol,
			Name:   r.Name,
			Image:  r.Image.Large,

			CurrentPrice:          md.CurrentPrice.in(currency),
			MarketCap:             md.MarketCap.in(currency),
			MarketCapRank:         int(r.MarketCapRank),
			FullyDilutedValuation: md.FullyDilutedValuation.in(currency),
			TotalVolume:           md.TotalVolume.in(currency),
			High24h:               md.High24h.in(currency),
			Low24h:                md.Low24h.in(currency),

			PriceChange24h:               md.PriceChange24h.dec(),
			PriceChangePercentage24h:     md.PriceChangePercentage24h.dec(),
			MarketCapChange24h:           md.MarketCapChange24h.dec(),
			MarketCapChangePercentage24h: md.MarketCapChangePercentage24h.dec(),

			CirculatingSupply: md.CirculatingSupply.dec(),
			TotalSupply:       md.TotalSupply.dec(),
			MaxSupply:         md.MaxSupply.dec(),

			ATH:                 md.ATH.in(currency),
			ATHChangePercentage: md.ATHChangePercentage.in(currency),
			ATHDate:             md.ATHDate[currency],
			ATL:                 md.ATL.in(currency),
			ATLChangePercentage: md.ATLChangePercentage.in(currency),
			ATLDate:             md.ATLDate[currency],

			LastUpdated: lastUpdated,
		},
		Links: domain.CoinLinks{Homepage: homepage},
	}
}

// marketChartResponse is /coins/{id}/market_chart: [[unix_ms, value], ...]
type marketChartResponse struct {
	Prices       [][]number `json:"prices"`
	MarketCaps   [][]number `json:"market_caps"`
	TotalVolumes [][]number `json:"total_volumes"`
}

func (r *marketChartResponse) toDomain() *domain.MarketChart {
	return &domain.MarketChart{
		Prices:       toPoints(r.Prices),
		MarketCaps:   toPoints(r.MarketCaps),
		TotalVolumes: toPoints(r.TotalVolumes),
	}
}

func toPoints(raw [][]number) []domain.ChartPoint {
	points := make([]domain.ChartPoint, 0, len(raw))
	for _, p := range raw {
		if len(p) < 2 {
			continue
		}
		points = append(points, domain.ChartPoint{
			Time:  time.UnixMilli(int64(p[0])).UTC(),
			Value: p[1].dec(),
		})
	}
	return points
}

// searchResponse is the subset of /search we need
type searchResponse struct {
	Coins []struct {
		ID string `json:"id"`
	} `json:"coins"`
}

func parseTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}
	}
	return t.UTC()
}
