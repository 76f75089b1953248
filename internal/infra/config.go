package infra

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"crypto_dash/internal/domain"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	// DefaultUserAgent identifies the dashboard to upstream APIs
	DefaultUserAgent = "crypto-dash/1.0 (+https://www.coingecko.com/en/api)"

	// DefaultCoinGeckoURL is the public CoinGecko v3 endpoint
	DefaultCoinGeckoURL = "https://api.coingecko.com/api/v3"
)

// Watchlist backends
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
	BackendMemory = "memory"
)

// Config holds all application settings.
// Values loaded by LoadConfig are overridden by environment variables afterwards.
type Config struct {
	App struct {
		Name    string `yaml:"name"`
		Version string `yaml:"version"`
	} `yaml:"app"`

	API struct {
		CoinGecko CoinGeckoConfig `yaml:"coingecko"`
	} `yaml:"api"`

	Watchlist struct {
		Backend string `yaml:"backend"` // file | sqlite | redis | memory
		Key     string `yaml:"key"`
		Dir     string `yaml:"dir"` // file backend directory (default: workspace/watchlist)
	} `yaml:"watchlist"`

	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	} `yaml:"redis"`

	HTTP struct {
		Addr           string   `yaml:"addr"`
		AllowedOrigins []string `yaml:"allowed_origins"`
	} `yaml:"http"`

	UI struct {
		PageSize          int `yaml:"page_size"`
		RefreshIntervalMS int `yaml:"refresh_interval_ms"`
		ChartDays         int `yaml:"chart_days"`
		IconSize          int `yaml:"icon_size"`
	} `yaml:"ui"`

	Logging struct {
		Level string `yaml:"level"`
		Dir   string `yaml:"dir"`
	} `yaml:"logging"`
}

// CoinGeckoConfig configures the market data client
type CoinGeckoConfig struct {
	RestURL           string `yaml:"rest_url"`
	APIKey            string `yaml:"api_key"`
	VsCurrency        string `yaml:"vs_currency"`
	TimeoutSec        int    `yaml:"timeout_sec"`
	RequestsPerMin    int    `yaml:"requests_per_min"`
	MaxRetries        int    `yaml:"max_retries"` // total attempts per request
	WatchlistPoolSize int    `yaml:"watchlist_pool_size"`
}

// DefaultConfig returns the configuration used when no file is present
func DefaultConfig() *Config {
	var cfg Config
	cfg.applyDefaults()
	return &cfg
}

// LoadConfig reads and parses the config file.
// A missing file is reported as domain.ErrConfigNotFound.
func LoadConfig(path string) (*Config, error) {
	// Optional .env for local development
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", domain.ErrConfigNotFound, path)
		}
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, &domain.ConfigError{Field: "yaml", Err: err}
	}

	cfg.applyDefaults()
	overrideWithEnv(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// LoadConfigOrDefault falls back to DefaultConfig when the file does not exist
func LoadConfigOrDefault(path string) (*Config, error) {
	cfg, err := LoadConfig(path)
	if errors.Is(err, domain.ErrConfigNotFound) {
		_ = godotenv.Load()
		cfg = DefaultConfig()
		overrideWithEnv(cfg)
		return cfg, cfg.Validate()
	}
	return cfg, err
}

func (c *Config) applyDefaults() {
	if c.App.Name == "" {
		c.App.Name = "Crypto Dash"
	}
	cg := &c.API.CoinGecko
	if cg.RestURL == "" {
		cg.RestURL = DefaultCoinGeckoURL
	}
	if cg.VsCurrency == "" {
		cg.VsCurrency = "usd"
	}
	if cg.TimeoutSec <= 0 {
		cg.TimeoutSec = 10
	}
	if cg.RequestsPerMin <= 0 {
		cg.RequestsPerMin = 30 // Public tier budget
	}
	if cg.MaxRetries <= 0 {
		cg.MaxRetries = 3
	}
	if cg.WatchlistPoolSize <= 0 {
		cg.WatchlistPoolSize = 250
	}
	if c.Watchlist.Backend == "" {
		c.Watchlist.Backend = BackendFile
	}
	if c.HTTP.Addr == "" {
		c.HTTP.Addr = "localhost:8080"
	}
	if c.UI.PageSize <= 0 {
		c.UI.PageSize = 50
	}
	if c.UI.RefreshIntervalMS <= 0 {
		c.UI.RefreshIntervalMS = 60_000
	}
	if c.UI.ChartDays <= 0 {
		c.UI.ChartDays = 7
	}
	if c.UI.IconSize <= 0 {
		c.UI.IconSize = 24
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
}

// Validate checks configuration validity
func (c *Config) Validate() error {
	cg := c.API.CoinGecko
	if !strings.HasPrefix(cg.RestURL, "http://") && !strings.HasPrefix(cg.RestURL, "https://") {
		return &domain.ConfigError{Field: "api.coingecko.rest_url", Err: fmt.Errorf("invalid URL: %q", cg.RestURL)}
	}
	if cg.WatchlistPoolSize > 250 {
		return &domain.ConfigError{Field: "api.coingecko.watchlist_pool_size", Err: errors.New("must be at most 250")}
	}

	switch c.Watchlist.Backend {
	case BackendFile, BackendSQLite, BackendMemory:
	case BackendRedis:
		if c.Redis.Addr == "" {
			return &domain.ConfigError{Field: "redis.addr", Err: errors.New("required for redis backend")}
		}
	default:
		return &domain.ConfigError{Field: "watchlist.backend", Err: fmt.Errorf("unknown backend %q", c.Watchlist.Backend)}
	}

	if c.UI.PageSize > 250 {
		return &domain.ConfigError{Field: "ui.page_size", Err: errors.New("must be at most 250")}
	}

	return nil
}

// overrideWithEnv overrides config values with environment variables when set
func overrideWithEnv(cfg *Config) {
	if key := os.Getenv("CRYPTO_COINGECKO_KEY"); key != "" {
		cfg.API.CoinGecko.APIKey = key
	}
	if backend := os.Getenv("CRYPTO_WATCHLIST_BACKEND"); backend != "" {
		cfg.Watchlist.Backend = backend
	}
	if addr := os.Getenv("CRYPTO_REDIS_ADDR"); addr != "" {
		cfg.Redis.Addr = addr
	}
	if pass := os.Getenv("CRYPTO_REDIS_PASSWORD"); pass != "" {
		cfg.Redis.Password = pass
	}
	if addr := os.Getenv("CRYPTO_HTTP_ADDR"); addr != "" {
		cfg.HTTP.Addr = addr
	}
	if level := os.Getenv("CRYPTO_LOG_LEVEL"); level != "" {
		cfg.Logging.Level = level
	}
}
