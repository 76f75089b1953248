package coingecko

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"crypto_dash/internal/domain"
	"crypto_dash/internal/infra"

	"golang.org/x/time/rate"
)

const (
	// APIKeyHeader carries the optional demo API key.
	APIKeyHeader = "x-cg-demo-api-key"

	// MaxPerPage is the largest page CoinGecko serves.
	MaxPerPage = 250

	// searchLimit caps how many search hits are re-fetched as market rows.
	searchLimit = 10

	defaultRequestsPerMin = 30
	defaultMaxRetries     = 3
)

// Recorder receives one call per HTTP attempt.
type Recorder interface {
	RecordAPICall(endpoint string, latency time.Duration, err error)
}

// Client is the CoinGecko v3 REST client. It implements domain.MarketAPI.
type Client struct {
	baseURL    string
	apiKey     string
	userAgent  string
	vsCurrency string
	httpClient *http.Client
	limiter    *rate.Limiter
	recorder   Recorder
	logger     *slog.Logger

	maxAttempts int
	retryBase   time.Duration
}

var _ domain.MarketAPI = (*Client)(nil)

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithRecorder sets the per-call metrics sink.
func WithRecorder(r Recorder) Option {
	return func(c *Client) { c.recorder = r }
}

// WithLimiter replaces the request limiter.
func WithLimiter(l *rate.Limiter) Option {
	return func(c *Client) { c.limiter = l }
}

// NewClient creates a client from the coingecko config section.
func NewClient(cfg infra.CoinGeckoConfig, opts ...Option) *Client {
	baseURL := strings.TrimRight(cfg.RestURL, "/")
	if baseURL == "" {
		baseURL = infra.DefaultCoinGeckoURL
	}

	vs := strings.ToLower(cfg.VsCurrency)
	if vs == "" {
		vs = "usd"
	}

	timeout := time.Duration(cfg.TimeoutSec) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	perMin := cfg.RequestsPerMin
	if perMin <= 0 {
		perMin = defaultRequestsPerMin
	}

	attempts := cfg.MaxRetries
	if attempts <= 0 {
		attempts = defaultMaxRetries
	}

	c := &Client{
		baseURL:    baseURL,
		apiKey:     cfg.APIKey,
		userAgent:  infra.DefaultUserAgent,
		vsCurrency: vs,
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:    10,
				IdleConnTimeout: 30 * time.Second,
			},
		},
		limiter:     rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMin)), 5),
		recorder:    infra.GlobalMetrics,
		logger:      slog.Default().With("module", "coingecko"),
		maxAttempts: attempts,
		retryBase:   500 * time.Millisecond,
	}

	for _, opt := range opts {
		opt(c)
	}
	return c
}

// VsCurrency returns the quote currency used for every request.
func (c *Client) VsCurrency() string {
	return c.vsCurrency
}

// Markets returns one page of coins ordered by market cap.
func (c *Client) Markets(ctx context.Context, page, perPage int) ([]domain.Coin, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 1
	}
	if perPage > MaxPerPage {
		perPage = MaxPerPage
	}

	q := url.Values{}
	q.Set("vs_currency", c.vsCurrency)
	q.Set("order", "market_cap_desc")
	q.Set("per_page", strconv.Itoa(perPage))
	q.Set("page", strconv.Itoa(page))
	q.Set("sparkline", "false")

	return c.markets(ctx, q)
}

func (c *Client) marketsByIDs(ctx context.Context, ids []string) ([]domain.Coin, error) {
	q := url.Values{}
	q.Set("vs_currency", c.vsCurrency)
	q.Set("ids", strings.Join(ids, ","))
	q.Set("order", "market_cap_desc")
	q.Set("per_page", strconv.Itoa(len(ids)))
	q.Set("page", "1")
	q.Set("sparkline", "false")

	return c.markets(ctx, q)
}

func (c *Client) markets(ctx context.Context, q url.Values) ([]domain.Coin, error) {
	var raw []marketCoin
	if err := c.getJSON(ctx, "markets", "/coins/markets", q, &raw); err != nil {
		return nil, err
	}

	coins := make([]domain.Coin, 0, len(raw))
	for i := range raw {
		coins = append(coins, raw[i].toDomain())
	}
	return coins, nil
}

// CoinDetail fetches the full record of a single coin.
func (c *Client) CoinDetail(ctx context.Context, id string) (*domain.CoinDetail, error) {
	if id == "" {
		return nil, domain.ErrInvalidCoinID
	}

	q := url.Values{}
	q.Set("localization", "false")
	q.Set("tickers", "false")
	q.Set("market_data", "true")
	q.Set("community_data", "false")
	q.Set("developer_data", "false")
	q.Set("sparkline", "false")

	var raw coinDetailResponse
	if err := c.getJSON(ctx, "coin", "/coins/"+url.PathEscape(id), q, &raw); err != nil {
		return nil, err
	}
	if raw.ID == "" {
		raw.ID = id
	}
	return raw.toDomain(c.vsCurrency), nil
}

// MarketChart fetches price, market cap and volume series for the last days.
func (c *Client) MarketChart(ctx context.Context, id string, days int) (*domain.MarketChart, error) {
	if id == "" {
		return nil, domain.ErrInvalidCoinID
	}
	if days < 1 {
		days = 1
	}

	q := url.Values{}
	q.Set("vs_currency", c.vsCurrency)
	q.Set("days", strconv.Itoa(days))

	var raw marketChartResponse
	if err := c.getJSON(ctx, "market_chart", "/coins/"+url.PathEscape(id)+"/market_chart", q, &raw); err != nil {
		return nil, err
	}
	return raw.toDomain(), nil
}

// Search resolves a free-text query to market rows.
// Only the first ten hits are returned, in market-cap order.
func (c *Client) Search(ctx context.Context, query string) ([]domain.Coin, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []domain.Coin{}, nil
	}

	q := url.Values{}
	q.Set("query", query)

	var raw searchResponse
	if err := c.getJSON(ctx, "search", "/search", q, &raw); err != nil {
		return nil, err
	}

	ids := make([]string, 0, searchLimit)
	for _, hit := range raw.Coins {
		if hit.ID == "" {
			continue
		}
		ids = append(ids, hit.ID)
		if len(ids) == searchLimit {
			break
		}
	}
	if len(ids) == 0 {
		return []domain.Coin{}, nil
	}
	return c.marketsByIDs(ctx, ids)
}

// getJSON performs a throttled GET with retries and decodes the body into dest.
func (c *Client) getJSON(ctx context.Context, endpoint, path string, q url.Values, dest any) error {
	op := "coingecko." + endpoint

	var lastErr error
	for attempt := 0; attempt < c.maxAttempts; attempt++ {
		if attempt > 0 {
			wait := infra.ScaledBackoff(c.retryBase, attempt-1)
			c.logger.Warn("retrying request", "endpoint", endpoint, "attempt", attempt+1, "wait", wait, "error", lastErr)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(wait):
			}
		}

		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}

		start := time.Now()
		err := c.do(ctx, op, path, q, dest)
		if c.recorder != nil {
			c.recorder.RecordAPICall(endpoint, time.Since(start), err)
		}
		if err == nil {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if !domain.IsRetriable(err) {
			return err
		}
		lastErr = err
	}
	return lastErr
}

func (c *Client) do(ctx context.Context, op, path string, q url.Values, dest any) error {
	reqURL := c.baseURL + path
	if len(q) > 0 {
		reqURL += "?" + q.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return domain.NewFatalNetworkError(op, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	if c.apiKey != "" {
		req.Header.Set(APIKeyHeader, c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.NewNetworkError(op, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode == http.StatusNotFound:
		io.Copy(io.Discard, resp.Body)
		return fmt.Errorf("%s: %w", op, domain.ErrCoinNotFound)
	case resp.StatusCode == http.StatusTooManyRequests:
		io.Copy(io.Discard, resp.Body)
		return domain.NewNetworkError(op, domain.ErrRateLimited)
	case resp.StatusCode >= 500:
		return domain.NewNetworkError(op, statusError(resp))
	default:
		return domain.NewFatalNetworkError(op, statusError(resp))
	}

	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return domain.NewFatalNetworkError(op, fmt.Errorf("decode response: %w", err))
	}
	return nil
}

func statusError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	msg := strings.TrimSpace(string(body))
	if msg == "" {
		return fmt.Errorf("status %d", resp.StatusCode)
	}
	return fmt.Errorf("status %d: %s", resp.StatusCode, msg)
}
