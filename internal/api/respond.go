package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"crypto_dash/internal/domain"
	"crypto_dash/internal/service"
)

// Error codes
const (
	CodeBadRequest  = "bad_request"
	CodeNotFound    = "not_found"
	CodeRateLimited = "rate_limited"
	CodeUpstream    = "upstream_error"
	CodeInternal    = "internal"
)

// ErrorResponse is the body of every non-2xx reply
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// ListResponse wraps paged coin listings
type ListResponse struct {
	Data    []service.CoinView `json:"data"`
	Page    int                `json:"page,omitempty"`
	PerPage int                `json:"per_page,omitempty"`
}

// WatchResponse is the reply of watchlist mutations.
// Warning is set when the change could not be persisted.
type WatchResponse struct {
	ID      string `json:"id"`
	Watched bool   `json:"watched"`
	Changed bool   `json:"changed"`
	Warning string `json:"warning,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Warn("Error encoding response", slog.Any("error", err))
	}
}

// writeError maps domain errors to HTTP status codes
func writeError(w http.ResponseWriter, err error) {
	status, code := classify(err)
	if status >= http.StatusInternalServerError {
		slog.Warn("Request failed", slog.Int("status", status), slog.Any("error", err))
	}
	writeJSON(w, status, ErrorResponse{Error: err.Error(), Code: code})
}

func classify(err error) (int, string) {
	var netErr *domain.NetworkError
	switch {
	case errors.Is(err, domain.ErrInvalidCoinID), errors.Is(err, service.ErrInvalidRange):
		return http.StatusBadRequest, CodeBadRequest
	case errors.Is(err, domain.ErrCoinNotFound):
		return http.StatusNotFound, CodeNotFound
	case errors.Is(err, domain.ErrRateLimited):
		return http.StatusBadGateway, CodeRateLimited
	case errors.As(err, &netErr), errors.Is(err, context.DeadlineExceeded):
		return http.StatusBadGateway, CodeUpstream
	}
	return http.StatusInternalServerError, CodeInternal
}

func badRequest(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: msg, Code: CodeBadRequest})
}
