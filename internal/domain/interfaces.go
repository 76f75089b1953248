package domain

import (
	"context"
)

// MarketAPI is the external market-data collaborator (CoinGecko or a fake in tests)
type MarketAPI interface {
	// Markets returns one page of coins ranked by market cap
	Markets(ctx context.Context, page, perPage int) ([]Coin, error)
	CoinDetail(ctx context.Context, id string) (*CoinDetail, error)
	MarketChart(ctx context.Context, id string, days int) (*MarketChart, error)
	// Search resolves a free-text query into up to 10 coin snapshots
	Search(ctx context.Context, query string) ([]Coin, error)
}

// SnapshotProvider supplies the latest reconciled watchlist snapshots
type SnapshotProvider interface {
	Watchlist(ctx context.Context) ([]Coin, error)
}
