package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"crypto_dash/internal/domain"
	"crypto_dash/internal/watchlist"

	"golang.org/x/sync/errgroup"
)

const (
	DefaultPage      = 1
	DefaultPerPage   = 50
	MaxPerPage       = 250
	DefaultChartDays = 7
)

// ChartRanges are the selectable chart ranges in days
var ChartRanges = []int{1, 7, 30, 90}

// ErrInvalidRange is returned for a chart range outside ChartRanges
var ErrInvalidRange = errors.New("unsupported chart range")

// MarketService joins market data with the watchlist
type MarketService struct {
	api       domain.MarketAPI
	store     watchlist.Store
	poolSize  int
	chartDays int
	logger    *slog.Logger

	mu        sync.RWMutex
	latest    []domain.Coin
	updatedAt time.Time
}

var _ domain.SnapshotProvider = (*MarketService)(nil)

// Option configures a MarketService
type Option func(*MarketService)

// WithPoolSize sets how many top coins are fetched to reconcile the watchlist
func WithPoolSize(n int) Option {
	return func(s *MarketService) {
		if n > 0 && n <= MaxPerPage {
			s.poolSize = n
		}
	}
}

// WithDefaultChartDays sets the chart range used by Coin
func WithDefaultChartDays(days int) Option {
	return func(s *MarketService) {
		if validRange(days) {
			s.chartDays = days
		}
	}
}

// NewMarketService creates a new MarketService instance
func NewMarketService(api domain.MarketAPI, store watchlist.Store, opts ...Option) *MarketService {
	s := &MarketService{
		api:       api,
		store:     store,
		poolSize:  MaxPerPage,
		chartDays: DefaultChartDays,
		logger:    slog.Default().With("module", "market_service"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Markets returns one annotated page of the market listing
func (s *MarketService) Markets(ctx context.Context, page, perPage int) ([]CoinView, error) {
	if page < 1 {
		page = DefaultPage
	}
	if perPage < 1 {
		perPage = DefaultPerPage
	}
	if perPage > MaxPerPage {
		perPage = MaxPerPage
	}

	coins, err := s.api.Markets(ctx, page, perPage)
	if err != nil {
		return nil, fmt.Errorf("markets page %d: %w", page, err)
	}
	return s.Views(coins), nil
}

// Coin returns the detail page of a coin with its default chart.
// Detail and chart are fetched together; either failing fails the call.
func (s *MarketService) Coin(ctx context.Context, id string) (*CoinDetailView, error) {
	if id == "" {
		return nil, domain.ErrInvalidCoinID
	}

	var (
		detail *domain.CoinDetail
		chart  *domain.MarketChart
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		detail, err = s.api.CoinDetail(gctx, id)
		return err
	})
	g.Go(func() error {
		var err error
		chart, err = s.api.MarketChart(gctx, id, s.chartDays)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("coin %s: %w", id, err)
	}

	return &CoinDetailView{
		CoinView: s.view(detail.Coin, s.store.Contains(id)),
		Links:    detail.Links,
		Chart:    newChartView(id, s.chartDays, chart),
	}, nil
}

// Chart returns the price series of a coin for one of ChartRanges
func (s *MarketService) Chart(ctx context.Context, id string, days int) (*ChartView, error) {
	if id == "" {
		return nil, domain.ErrInvalidCoinID
	}
	if days == 0 {
		days = s.chartDays
	}
	if !validRange(days) {
		return nil, fmt.Errorf("%w: %d days", ErrInvalidRange, days)
	}

	chart, err := s.api.MarketChart(ctx, id, days)
	if err != nil {
		return nil, fmt.Errorf("chart %s: %w", id, err)
	}
	return newChartView(id, days, chart), nil
}

// Search returns up to ten annotated matches; a blank query matches nothing
func (s *MarketService) Search(ctx context.Context, query string) ([]CoinView, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []CoinView{}, nil
	}

	coins, err := s.api.Search(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("search %q: %w", query, err)
	}
	return s.Views(coins), nil
}

// Watchlist returns snapshots of the watched coins in market-cap order.
// An empty watchlist returns immediately without calling the market API.
func (s *MarketService) Watchlist(ctx context.Context) ([]domain.Coin, error) {
	ids := s.store.List()
	if len(ids) == 0 {
		s.remember([]domain.Coin{})
		return []domain.Coin{}, nil
	}

	coins, err := s.api.Markets(ctx, 1, s.poolSize)
	if err != nil {
		return nil, fmt.Errorf("watchlist snapshots: %w", err)
	}

	watched := watchlist.Reconcile(coins, ids)
	if missing := watchlist.Missing(coins, ids); len(missing) > 0 {
		s.logger.Debug("watched coins outside snapshot pool", "ids", missing, "pool", s.poolSize)
	}
	s.remember(watched)
	return watched, nil
}

// WatchlistViews is Watchlist annotated for the dashboard
func (s *MarketService) WatchlistViews(ctx context.Context) ([]CoinView, error) {
	coins, err := s.Watchlist(ctx)
	if err != nil {
		return nil, err
	}
	return s.Views(coins), nil
}

// WatchlistIDs returns the stored identifiers in insertion order
func (s *MarketService) WatchlistIDs() []string {
	return s.store.List()
}

// Latest returns the last reconciled watchlist and when it was taken
func (s *MarketService) Latest() ([]domain.Coin, time.Time) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Coin, len(s.latest))
	copy(out, s.latest)
	return out, s.updatedAt
}

// Watch adds id to the watchlist and returns the persisted membership
func (s *MarketService) Watch(id string) (bool, watchlist.Outcome) {
	out := s.store.Add(id)
	if out.Err == nil {
		return true, out
	}
	return s.store.Contains(id), out
}

// Unwatch removes id from the watchlist and returns the persisted membership
func (s *MarketService) Unwatch(id string) (bool, watchlist.Outcome) {
	out := s.store.Remove(id)
	if out.Err == nil {
		return false, out
	}
	return s.store.Contains(id), out
}

// Toggle flips membership of id and returns the new state
func (s *MarketService) Toggle(id string) (bool, watchlist.Outcome) {
	return s.store.Toggle(id)
}

// Views annotates coins with watch state and display labels
func (s *MarketService) Views(coins []domain.Coin) []CoinView {
	views := make([]CoinView, 0, len(coins))
	if len(coins) == 0 {
		return views
	}

	ids := s.store.List()
	watched := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		watched[id] = struct{}{}
	}

	for _, c := range coins {
		_, ok := watched[c.ID]
		views = append(views, s.view(c, ok))
	}
	return views
}

func (s *MarketService) view(c domain.Coin, watched bool) CoinView {
	return CoinView{Coin: c, Watched: watched, Labels: newLabels(&c)}
}

func (s *MarketService) remember(coins []domain.Coin) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.latest = coins
	s.updatedAt = time.Now()
}

func validRange(days int) bool {
	for _, d := range ChartRanges {
		if d == days {
			return true
		}
	}
	return false
}
