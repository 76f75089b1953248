package infra

import (
	"errors"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetrics_RecordAPICall(t *testing.T) {
	m := &Metrics{}

	m.RecordAPICall("markets", 1000*time.Nanosecond, nil)
	m.RecordAPICall("markets", 2000*time.Nanosecond, nil)
	m.RecordAPICall("search", 3000*time.Nanosecond, errors.New("boom"))

	snap := m.Snapshot()

	if snap.APIRequests != 3 {
		t.Errorf("Expected 3 requests, got %d", snap.APIRequests)
	}
	if snap.APIErrors != 1 {
		t.Errorf("Expected 1 error, got %d", snap.APIErrors)
	}

	// Average latency: (1000 + 2000 + 3000) / 3 = 2000
	if snap.AvgLatencyNs != 2000 {
		t.Errorf("Expected avg latency 2000, got %d", snap.AvgLatencyNs)
	}
}

func TestMetrics_ObserveWatchlist(t *testing.T) {
	m := &Metrics{}
	before := testutil.ToFloat64(WatchlistOps.WithLabelValues("add", "changed"))

	m.ObserveWatchlist("add", true, nil)
	m.ObserveWatchlist("add", false, nil)
	m.ObserveWatchlist("remove", true, errors.New("quota"))

	snap := m.Snapshot()
	if snap.WatchlistMutations != 2 {
		t.Errorf("Expected 2 mutations, got %d", snap.WatchlistMutations)
	}
	if snap.StorageErrors != 1 {
		t.Errorf("Expected 1 storage error, got %d", snap.StorageErrors)
	}

	after := testutil.ToFloat64(WatchlistOps.WithLabelValues("add", "changed"))
	if after-before != 1 {
		t.Errorf("Expected prometheus add/changed to grow by 1, got %v", after-before)
	}
}

func TestMetrics_StreamClients(t *testing.T) {
	m := &Metrics{}

	m.IncrementStreamClients()
	m.IncrementStreamClients()
	m.IncrementStreamClients()

	snap := m.Snapshot()
	if snap.StreamClients != 3 {
		t.Errorf("Expected 3 clients, got %d", snap.StreamClients)
	}

	m.DecrementStreamClients()
	snap = m.Snapshot()
	if snap.StreamClients != 2 {
		t.Errorf("Expected 2 clients, got %d", snap.StreamClients)
	}
	if got := testutil.ToFloat64(StreamClients); got != 2 {
		t.Errorf("Expected gauge 2, got %v", got)
	}
}

func TestMetrics_Reset(t *testing.T) {
	m := &Metrics{}

	m.RecordAPICall("markets", time.Millisecond, errors.New("x"))
	m.ObserveWatchlist("add", true, nil)
	m.IncrementStreamClients()

	m.Reset()
	snap := m.Snapshot()

	if snap.APIRequests != 0 {
		t.Error("Expected 0 requests after reset")
	}
	if snap.APIErrors != 0 {
		t.Error("Expected 0 errors after reset")
	}
	if snap.StreamClients != 0 {
		t.Error("Expected 0 clients after reset")
	}
}

func TestMetricsHandler(t *testing.T) {
	(&Metrics{}).RecordAPICall("coin_detail", time.Millisecond, nil)

	rec := httptest.NewRecorder()
	MetricsHandler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	if rec.Code != 200 {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "crypto_dash_api_calls_total") {
		t.Error("Expected api calls counter in scrape output")
	}
}
