package api

import (
	"net/http"

	"crypto_dash/internal/domain"
	"crypto_dash/internal/service"

	"github.com/gorilla/mux"
)

// Dependencies holds the collaborators of the HTTP layer
type Dependencies struct {
	Service        *service.MarketService
	Stream         http.Handler                      // websocket endpoint, optional
	Metrics        http.Handler                      // Prometheus handler, optional
	Stats          func() any                        // in-process counters, optional
	Assets         func() ([]domain.CoinInfo, error) // cached coin metadata, optional
	AllowedOrigins []string
}

// NewRouter wires all routes.
//
// /api/v1/
//
//	├── GET    /coins?page&per_page
//	├── GET    /coins/{id}
//	├── GET    /coins/{id}/chart?days
//	├── GET    /search?q
//	├── GET    /watchlist
//	├── GET    /watchlist/ids
//	├── PUT    /watchlist/{id}
//	├── DELETE /watchlist/{id}
//	├── POST   /watchlist/{id}/toggle
//	├── GET    /assets
//	└── GET    /stats
//
// /ws/watchlist, /metrics, /health
func NewRouter(deps Dependencies) *mux.Router {
	router := mux.NewRouter()

	router.Use(Recovery)
	router.Use(Logging)
	router.Use(CORS(deps.AllowedOrigins))

	market := NewMarketHandler(deps.Service)
	watch := NewWatchlistHandler(deps.Service)

	api := router.PathPrefix("/api/v1").Subrouter()

	api.HandleFunc("/coins", market.GetCoins).Methods(http.MethodGet, http.MethodOptions)
	api.HandleFunc("/coins/{id}", market.GetCoin).Methods(http.MethodGet, http.MethodOptions)
	api.HandleFunc("/coins/{id}/chart", market.GetChart).Methods(http.MethodGet, http.MethodOptions)
	api.HandleFunc("/search", market.Search).Methods(http.MethodGet, http.MethodOptions)

	api.HandleFunc("/watchlist", watch.GetWatchlist).Methods(http.MethodGet, http.MethodOptions)
	api.HandleFunc("/watchlist/ids", watch.GetIDs).Methods(http.MethodGet, http.MethodOptions)
	api.HandleFunc("/watchlist/{id}", watch.Watch).Methods(http.MethodPut, http.MethodOptions)
	api.HandleFunc("/watchlist/{id}", watch.Unwatch).Methods(http.MethodDelete)
	api.HandleFunc("/watchlist/{id}/toggle", watch.Toggle).Methods(http.MethodPost, http.MethodOptions)

	if deps.Assets != nil {
		api.HandleFunc("/assets", func(w http.ResponseWriter, r *http.Request) {
			assets, err := deps.Assets()
			if err != nil {
				writeError(w, err)
				return
			}
			if assets == nil {
				assets = []domain.CoinInfo{}
			}
			writeJSON(w, http.StatusOK, map[string]any{"data": assets})
		}).Methods(http.MethodGet)
	}

	if deps.Stats != nil {
		api.HandleFunc("/stats", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, deps.Stats())
		}).Methods(http.MethodGet)
	}

	if deps.Stream != nil {
		router.Handle("/ws/watchlist", deps.Stream).Methods(http.MethodGet)
	}
	if deps.Metrics != nil {
		router.Handle("/metrics", deps.Metrics).Methods(http.MethodGet)
	}

	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}).Methods(http.MethodGet)

	return router
}
