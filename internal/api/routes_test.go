package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"crypto_dash/internal/domain"
	"crypto_dash/internal/service"
	"crypto_dash/internal/watchlist"

	"github.com/shopspring/decimal"
)

type stubAPI struct {
	coins []domain.Coin
	err   error
}

func (s *stubAPI) Markets(_ context.Context, page, perPage int) ([]domain.Coin, error) {
	if s.err != nil {
		return nil, s.err
	}
	if perPage < len(s.coins) {
		return s.coins[:perPage], nil
	}
	return s.coins, nil
}

func (s *stubAPI) CoinDetail(_ context.Context, id string) (*domain.CoinDetail, error) {
	if s.err != nil {
		return nil, s.err
	}
	for _, c := range s.coins {
		if c.ID == id {
			return &domain.CoinDetail{Coin: c}, nil
		}
	}
	return nil, domain.ErrCoinNotFound
}

func (s *stubAPI) MarketChart(_ context.Context, id string, days int) (*domain.MarketChart, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &domain.MarketChart{}, nil
}

func (s *stubAPI) Search(_ context.Context, query string) ([]domain.Coin, error) {
	return s.coins[:1], s.err
}

type fixture struct {
	router http.Handler
	api    *stubAPI
	medium *watchlist.MemoryMedium
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	api := &stubAPI{coins: []domain.Coin{
		{ID: "bitcoin", Name: "Bitcoin", CurrentPrice: decimal.NewFromInt(60000)},
		{ID: "ethereum", Name: "Ethereum", CurrentPrice: decimal.NewFromInt(3000)},
	}}
	medium := watchlist.NewMemoryMedium()
	svc := service.NewMarketService(api, watchlist.New(medium))

	return &fixture{
		router: NewRouter(Dependencies{
			Service: svc,
			Metrics: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.Write([]byte("# metrics")) }),
		}),
		api:    api,
		medium: medium,
	}
}

func (f *fixture) do(t *testing.T, method, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %s: %v", rec.Body.String(), err)
	}
	return v
}

func TestHealth(t *testing.T) {
	f := newFixture(t)
	rec := f.do(t, http.MethodGet, "/health")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestGetCoins(t *testing.T) {
	f := newFixture(t)
	f.do(t, http.MethodPut, "/api/v1/watchlist/ethereum")

	rec := f.do(t, http.MethodGet, "/api/v1/coins?page=1&per_page=10")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body)
	}
	resp := decode[ListResponse](t, rec)
	if len(resp.Data) != 2 {
		t.Fatalf("expected 2 coins, got %d", len(resp.Data))
	}
	if resp.Data[0].Watched || !resp.Data[1].Watched {
		t.Errorf("unexpected watched flags: %v %v", resp.Data[0].Watched, resp.Data[1].Watched)
	}
	if resp.Data[0].Labels.Price != "$60,000.00" {
		t.Errorf("unexpected price label %q", resp.Data[0].Labels.Price)
	}
}

func TestGetCoins_BadParams(t *testing.T) {
	f := newFixture(t)
	for _, q := range []string{"page=abc", "page=0", "per_page=-1"} {
		rec := f.do(t, http.MethodGet, "/api/v1/coins?"+q)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("%s: expected 400, got %d", q, rec.Code)
		}
		if resp := decode[ErrorResponse](t, rec); resp.Code != CodeBadRequest {
			t.Errorf("%s: expected code %q, got %q", q, CodeBadRequest, resp.Code)
		}
	}
}

func TestErrorMapping(t *testing.T) {
	tests := []struct {
		name string
		err  error
		path string
		want int
		code string
	}{
		{"upstream", domain.NewNetworkError("coingecko.markets", errors.New("502")), "/api/v1/coins", http.StatusBadGateway, CodeUpstream},
		{"rate limited", domain.NewNetworkError("coingecko.markets", domain.ErrRateLimited), "/api/v1/coins", http.StatusBadGateway, CodeRateLimited},
		{"not found", nil, "/api/v1/coins/nope", http.StatusNotFound, CodeNotFound},
		{"bad range", nil, "/api/v1/coins/bitcoin/chart?days=14", http.StatusBadRequest, CodeBadRequest},
		{"unknown", errors.New("boom"), "/api/v1/coins", http.StatusInternalServerError, CodeInternal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.api.err = tt.err

			rec := f.do(t, http.MethodGet, tt.path)
			if rec.Code != tt.want {
				t.Fatalf("expected %d, got %d: %s", tt.want, rec.Code, rec.Body)
			}
			if resp := decode[ErrorResponse](t, rec); resp.Code != tt.code {
				t.Errorf("expected code %q, got %q", tt.code, resp.Code)
			}
		})
	}
}

func TestGetCoinAndChart(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodGet, "/api/v1/coins/bitcoin")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body)
	}
	view := decode[service.CoinDetailView](t, rec)
	if view.ID != "bitcoin" || view.Chart == nil || view.Chart.Days != service.DefaultChartDays {
		t.Errorf("unexpected detail %+v", view)
	}

	rec = f.do(t, http.MethodGet, "/api/v1/coins/bitcoin/chart?days=30")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if chart := decode[service.ChartView](t, rec); chart.Days != 30 {
		t.Errorf("expected 30 days, got %d", chart.Days)
	}
}

func TestSearch(t *testing.T) {
	f := newFixture(t)

	resp := decode[ListResponse](t, f.do(t, http.MethodGet, "/api/v1/search?q=%20%20"))
	if len(resp.Data) != 0 {
		t.Errorf("blank query should return nothing, got %d", len(resp.Data))
	}

	resp = decode[ListResponse](t, f.do(t, http.MethodGet, "/api/v1/search?q=bit"))
	if len(resp.Data) != 1 {
		t.Errorf("expected 1 result, got %d", len(resp.Data))
	}
}

func TestWatchlistLifecycle(t *testing.T) {
	f := newFixture(t)

	resp := decode[WatchResponse](t, f.do(t, http.MethodPut, "/api/v1/watchlist/bitcoin"))
	if !resp.Watched || !resp.Changed {
		t.Errorf("unexpected add response %+v", resp)
	}

	// Idempotent
	resp = decode[WatchResponse](t, f.do(t, http.MethodPut, "/api/v1/watchlist/bitcoin"))
	if !resp.Watched || resp.Changed {
		t.Errorf("unexpected repeat add response %+v", resp)
	}

	f.do(t, http.MethodPost, "/api/v1/watchlist/ethereum/toggle")

	ids := decode[map[string][]string](t, f.do(t, http.MethodGet, "/api/v1/watchlist/ids"))
	if got := ids["ids"]; len(got) != 2 || got[0] != "bitcoin" || got[1] != "ethereum" {
		t.Errorf("unexpected ids %v", got)
	}

	list := decode[ListResponse](t, f.do(t, http.MethodGet, "/api/v1/watchlist"))
	if len(list.Data) != 2 {
		t.Errorf("expected 2 watched coins, got %d", len(list.Data))
	}

	resp = decode[WatchResponse](t, f.do(t, http.MethodDelete, "/api/v1/watchlist/bitcoin"))
	if resp.Watched || !resp.Changed {
		t.Errorf("unexpected remove response %+v", resp)
	}

	raw, _ := f.medium.Raw(watchlist.DefaultKey)
	if raw != `["ethereum"]` {
		t.Errorf("unexpected stored value %s", raw)
	}
}

func TestWatch_StorageFailureWarns(t *testing.T) {
	f := newFixture(t)
	f.medium.FailSaves(errors.New("quota exceeded"))

	rec := f.do(t, http.MethodPut, "/api/v1/watchlist/bitcoin")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	resp := decode[WatchResponse](t, rec)
	if resp.Warning == "" {
		t.Error("expected warning on storage failure")
	}
	if resp.Watched {
		t.Error("unsaved coin must be reported as unwatched")
	}
}

func TestAssets(t *testing.T) {
	f := newFixture(t)
	if rec := f.do(t, http.MethodGet, "/api/v1/assets"); rec.Code != http.StatusNotFound {
		t.Errorf("expected 404 without an asset source, got %d", rec.Code)
	}

	svc := service.NewMarketService(f.api, watchlist.New(f.medium))
	router := NewRouter(Dependencies{
		Service: svc,
		Assets: func() ([]domain.CoinInfo, error) {
			return []domain.CoinInfo{{ID: "bitcoin", IconPath: "/icons/bitcoin.png"}}, nil
		},
	})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/assets", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	body := decode[struct {
		Data []domain.CoinInfo `json:"data"`
	}](t, rec)
	if len(body.Data) != 1 || body.Data[0].IconPath != "/icons/bitcoin.png" {
		t.Errorf("unexpected assets %+v", body.Data)
	}

	router = NewRouter(Dependencies{
		Service: svc,
		Assets:  func() ([]domain.CoinInfo, error) { return nil, errors.New("database is locked") },
	})
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/assets", nil))
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d", rec.Code)
	}
}

func TestCORSPreflight(t *testing.T) {
	f := newFixture(t)
	req := httptest.NewRequest(http.MethodOptions, "/api/v1/watchlist/bitcoin", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Errorf("expected 204, got %d", rec.Code)
	}
	if rec.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Errorf("expected wildcard origin, got %q", rec.Header().Get("Access-Control-Allow-Origin"))
	}
}

func TestRecovery(t *testing.T) {
	h := Recovery(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d", rec.Code)
	}
	if resp := decode[ErrorResponse](t, rec); resp.Code != CodeInternal {
		t.Errorf("unexpected code %q", resp.Code)
	}
}

func TestMetricsRoute(t *testing.T) {
	f := newFixture(t)
	rec := f.do(t, http.MethodGet, "/metrics")
	if rec.Code != http.StatusOK || rec.Body.String() != "# metrics" {
		t.Errorf("unexpected metrics reply %d %q", rec.Code, rec.Body)
	}
}
