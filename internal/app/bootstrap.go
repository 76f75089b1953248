package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"path/filepath"
	"time"

	"crypto_dash/internal/api"
	"crypto_dash/internal/domain"
	"crypto_dash/internal/infra"
	"crypto_dash/internal/infra/coingecko"
	"crypto_dash/internal/infra/redisstore"
	"crypto_dash/internal/infra/storage"
	"crypto_dash/internal/service"
	"crypto_dash/internal/stream"
	"crypto_dash/internal/watchlist"

	"golang.org/x/sync/errgroup"
)

// DefaultConfigPath is read when no -config flag is given
const DefaultConfigPath = "configs/config.yaml"

// Bootstrap orchestrates the application startup sequence
type Bootstrap struct {
	Config     *infra.Config
	Storage    *storage.Storage
	Medium     watchlist.Medium
	Watchlist  *watchlist.Watchlist
	Client     *coingecko.Client
	Service    *service.MarketService
	Hub        *stream.Hub
	Poller     *infra.Poller
	Downloader *infra.IconDownloader

	// DBPath overrides the workspace database location
	DBPath string
	// IconsDir overrides the workspace icon cache location
	IconsDir string

	closers []func() error
}

// NewBootstrap creates a new Bootstrap instance
func NewBootstrap() *Bootstrap {
	return &Bootstrap{}
}

// LoadConfig reads the config file, falling back to defaults when it is missing,
// and installs the configured logger as the default.
func (b *Bootstrap) LoadConfig(path string) error {
	if path == "" {
		path = DefaultConfigPath
	}
	cfg, err := infra.LoadConfigOrDefault(path)
	if err != nil {
		return err
	}
	b.Config = cfg

	slog.SetDefault(infra.NewLogger(cfg))
	return nil
}

// InitializeStore opens the database and the configured watchlist medium
func (b *Bootstrap) InitializeStore() error {
	if b.Config == nil {
		b.Config = infra.DefaultConfig()
	}

	dbPath := b.DBPath
	if dbPath == "" {
		dbPath = infra.DBPath()
	}
	if err := infra.EnsureDir(filepath.Dir(dbPath)); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}
	store, err := storage.NewStorage(dbPath)
	if err != nil {
		return err
	}
	b.Storage = store
	b.closers = append(b.closers, store.Close)
	slog.Info("✅ Database initialized", slog.String("path", dbPath))

	medium, err := b.newMedium()
	if err != nil {
		return err
	}
	b.Medium = medium

	b.Watchlist = watchlist.New(medium,
		watchlist.WithKey(b.Config.Watchlist.Key),
		watchlist.WithObserver(infra.GlobalMetrics),
	)
	slog.Info("✅ Watchlist ready",
		slog.String("backend", b.Config.Watchlist.Backend),
		slog.String("key", b.Watchlist.Key()),
	)
	return nil
}

func (b *Bootstrap) newMedium() (watchlist.Medium, error) {
	cfg := b.Config
	switch cfg.Watchlist.Backend {
	case infra.BackendMemory:
		return watchlist.NewMemoryMedium(), nil

	case infra.BackendSQLite:
		return b.Storage, nil

	case infra.BackendRedis:
		m, err := redisstore.New(redisstore.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			Prefix:   infra.AppName + ":",
		})
		if err != nil {
			return nil, err
		}
		b.closers = append(b.closers, m.Close)
		return m, nil

	case infra.BackendFile, "":
		dir := cfg.Watchlist.Dir
		if dir == "" {
			dir = infra.WatchlistDir()
		}
		return watchlist.NewFileMedium(dir)
	}
	return nil, &domain.ConfigError{Field: "watchlist.backend", Err: fmt.Errorf("unknown backend %q", cfg.Watchlist.Backend)}
}

// Initialize performs the full server initialization
func (b *Bootstrap) Initialize() error {
	slog.Info("🚀 Bootstrapping Crypto Dash...")

	if err := b.InitializeStore(); err != nil {
		return err
	}
	cfg := b.Config

	infra.InitPrometheus()

	b.Client = coingecko.NewClient(cfg.API.CoinGecko)
	b.Service = service.NewMarketService(b.Client, b.Watchlist,
		service.WithPoolSize(cfg.API.CoinGecko.WatchlistPoolSize),
		service.WithDefaultChartDays(cfg.UI.ChartDays),
	)

	b.Hub = stream.NewHub(
		stream.WithAllowedOrigins(cfg.HTTP.AllowedOrigins),
		stream.WithClientCounter(infra.GlobalMetrics),
		stream.WithSnapshot(func() any {
			coins, _ := b.Service.Latest()
			return b.Service.Views(coins)
		}),
	)

	b.Poller = infra.NewPollerWithConfig(b.Service, func(coins []domain.Coin) {
		b.Hub.PublishWatchlist(b.Service.Views(coins))
	}, time.Duration(cfg.UI.RefreshIntervalMS)*time.Millisecond)

	iconsDir := b.IconsDir
	if iconsDir == "" {
		iconsDir = infra.IconsDir()
	}
	downloader, err := infra.NewIconDownloader(iconsDir, cfg.UI.IconSize)
	if err != nil {
		return err
	}
	b.Downloader = downloader
	slog.Info("✅ Icon downloader ready")

	return nil
}

// Router returns the HTTP handler of the dashboard API
func (b *Bootstrap) Router() http.Handler {
	return api.NewRouter(api.Dependencies{
		Service:        b.Service,
		Stream:         http.HandlerFunc(b.Hub.ServeWS),
		Metrics:        infra.MetricsHandler(),
		Stats:          func() any { return infra.GlobalMetrics.Snapshot() },
		Assets:         b.Storage.GetAllCoins,
		AllowedOrigins: b.Config.HTTP.AllowedOrigins,
	})
}

// Start runs the websocket hub and the watchlist poller
func (b *Bootstrap) Start(ctx context.Context) error {
	go b.Hub.Run(ctx)
	if err := b.Poller.Start(ctx); err != nil {
		return err
	}
	b.closers = append(b.closers, func() error {
		b.Poller.Stop()
		return nil
	})
	return nil
}

// SyncAssets caches icons of the watched coins, records them in the database
// and drops records of coins that are no longer watched
func (b *Bootstrap) SyncAssets(ctx context.Context) {
	coins, _ := b.Service.Latest()
	if len(coins) > 0 {
		slog.Info("🔄 Starting asset synchronization...", slog.Int("coins", len(coins)))

		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(5) // Limit concurrent downloads

		for _, c := range coins {
			c := c
			g.Go(func() error {
				b.syncCoin(gctx, c)
				return nil
			})
		}
		g.Wait()
	}

	b.pruneAssets()
	slog.Info("✨ Asset synchronization completed")
}

// pruneAssets deletes cached metadata of unwatched coins.
// An empty watchlist is skipped since unreadable storage also reads as empty.
func (b *Bootstrap) pruneAssets() {
	ids := b.Service.WatchlistIDs()
	if len(ids) == 0 {
		return
	}
	watched := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		watched[id] = struct{}{}
	}

	cached, err := b.Storage.GetAllCoins()
	if err != nil {
		slog.Warn("Failed to list cached coins", slog.Any("error", err))
		return
	}
	for _, info := range cached {
		if _, ok := watched[info.ID]; ok {
			continue
		}
		if err := b.Storage.DeleteCoin(info.ID); err != nil {
			slog.Warn("Failed to delete cached coin", slog.String("id", info.ID), slog.Any("error", err))
			continue
		}
		slog.Info("🧹 Dropped cached coin", slog.String("id", info.ID))
	}
}

func (b *Bootstrap) syncCoin(ctx context.Context, c domain.Coin) {
	if ctx.Err() != nil {
		return
	}

	info := &domain.CoinInfo{
		ID:       c.ID,
		Symbol:   c.Symbol,
		Name:     c.Name,
		ImageURL: c.Image,
	}
	if existing, _ := b.Storage.GetCoin(c.ID); existing != nil {
		info.IconPath = existing.IconPath
		info.LastSyncedAt = existing.LastSyncedAt
		info.CreatedAt = existing.CreatedAt
	}

	if c.Image != "" {
		path, err := b.Downloader.DownloadIcon(ctx, c.ID, c.Image)
		if err != nil {
			slog.Warn("Failed to download icon", slog.String("id", c.ID), slog.Any("error", err))
		} else {
			info.IconPath = path
			info.LastSyncedAt = time.Now()
		}
	}

	if err := b.Storage.UpsertCoin(info); err != nil {
		slog.Error("Failed to upsert coin", slog.String("id", c.ID), slog.Any("error", err))
	}
}

// Close releases resources in reverse order of acquisition
func (b *Bootstrap) Close() error {
	var errs []error
	for i := len(b.closers) - 1; i >= 0; i-- {
		if err := b.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	b.closers = nil
	return errors.Join(errs...)
}
