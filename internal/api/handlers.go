package api

import (
	"net/http"
	"strconv"

	"crypto_dash/internal/service"
	"crypto_dash/internal/watchlist"

	"github.com/gorilla/mux"
)

// MarketHandler serves market listings, coin pages and search
type MarketHandler struct {
	svc *service.MarketService
}

// NewMarketHandler creates a new MarketHandler
func NewMarketHandler(svc *service.MarketService) *MarketHandler {
	return &MarketHandler{svc: svc}
}

// GetCoins handles GET /coins?page=&per_page=
func (h *MarketHandler) GetCoins(w http.ResponseWriter, r *http.Request) {
	page, ok := intParam(w, r, "page", service.DefaultPage)
	if !ok {
		return
	}
	perPage, ok := intParam(w, r, "per_page", service.DefaultPerPage)
	if !ok {
		return
	}
	if perPage > service.MaxPerPage {
		perPage = service.MaxPerPage
	}

	coins, err := h.svc.Markets(r.Context(), page, perPage)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ListResponse{Data: coins, Page: page, PerPage: perPage})
}

// GetCoin handles GET /coins/{id}
func (h *MarketHandler) GetCoin(w http.ResponseWriter, r *http.Request) {
	view, err := h.svc.Coin(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// GetChart handles GET /coins/{id}/chart?days=
func (h *MarketHandler) GetChart(w http.ResponseWriter, r *http.Request) {
	days, ok := intParam(w, r, "days", 0)
	if !ok {
		return
	}

	chart, err := h.svc.Chart(r.Context(), mux.Vars(r)["id"], days)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, chart)
}

// Search handles GET /search?q=
func (h *MarketHandler) Search(w http.ResponseWriter, r *http.Request) {
	coins, err := h.svc.Search(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ListResponse{Data: coins})
}

// WatchlistHandler serves the persisted watchlist
type WatchlistHandler struct {
	svc *service.MarketService
}

// NewWatchlistHandler creates a new WatchlistHandler
func NewWatchlistHandler(svc *service.MarketService) *WatchlistHandler {
	return &WatchlistHandler{svc: svc}
}

// GetWatchlist handles GET /watchlist
func (h *WatchlistHandler) GetWatchlist(w http.ResponseWriter, r *http.Request) {
	coins, err := h.svc.WatchlistViews(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ListResponse{Data: coins})
}

// GetIDs handles GET /watchlist/ids
func (h *WatchlistHandler) GetIDs(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string][]string{"ids": h.svc.WatchlistIDs()})
}

// Watch handles PUT /watchlist/{id}
func (h *WatchlistHandler) Watch(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	watched, out := h.svc.Watch(id)
	h.reply(w, id, watched, out)
}

// Unwatch handles DELETE /watchlist/{id}
func (h *WatchlistHandler) Unwatch(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	watched, out := h.svc.Unwatch(id)
	h.reply(w, id, watched, out)
}

// Toggle handles POST /watchlist/{id}/toggle
func (h *WatchlistHandler) Toggle(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	watched, out := h.svc.Toggle(id)
	h.reply(w, id, watched, out)
}

// reply keeps the UI working on storage failures: 200 with a warning
func (h *WatchlistHandler) reply(w http.ResponseWriter, id string, watched bool, out watchlist.Outcome) {
	if out.Err != nil {
		if status, _ := classify(out.Err); status == http.StatusBadRequest {
			writeError(w, out.Err)
			return
		}
	}

	resp := WatchResponse{ID: id, Watched: watched, Changed: out.Changed}
	if out.Err != nil {
		resp.Warning = out.Err.Error()
	}
	writeJSON(w, http.StatusOK, resp)
}

// intParam parses a positive integer query parameter, writing 400 on bad input
func intParam(w http.ResponseWriter, r *http.Request, name string, def int) (int, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		badRequest(w, "invalid "+name+": "+raw)
		return 0, false
	}
	return n, true
}
