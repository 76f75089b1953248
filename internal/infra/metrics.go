package infra

import (
	"sync/atomic"
	"time"
)

// Metrics provides lightweight in-process counters.
// Uses atomic operations for thread-safety; every record is mirrored to the
// Prometheus collectors in prometheus.go.
type Metrics struct {
	// Counters
	apiRequests        atomic.Uint64
	apiErrors          atomic.Uint64
	watchlistMutations atomic.Uint64
	storageErrors      atomic.Uint64

	// Latency tracking
	latencySumNs atomic.Int64
	latencyCount atomic.Uint64

	// Gauges
	streamClients atomic.Int32
}

// GlobalMetrics is the singleton metrics instance.
var GlobalMetrics = &Metrics{}

// RecordAPICall records an upstream API call with its latency.
func (m *Metrics) RecordAPICall(endpoint string, latency time.Duration, err error) {
	m.apiRequests.Add(1)
	m.latencySumNs.Add(latency.Nanoseconds())
	m.latencyCount.Add(1)
	if err != nil {
		m.apiErrors.Add(1)
	}
	observeAPICall(endpoint, latency, err)
}

// ObserveWatchlist implements watchlist.Observer.
func (m *Metrics) ObserveWatchlist(op string, changed bool, err error) {
	if changed {
		m.watchlistMutations.Add(1)
	}
	if err != nil {
		m.storageErrors.Add(1)
	}
	observeWatchlistOp(op, changed, err)
}

// IncrementStreamClients increments connected websocket clients by 1.
func (m *Metrics) IncrementStreamClients() {
	setStreamClients(m.streamClients.Add(1))
}

// DecrementStreamClients decrements connected websocket clients by 1.
func (m *Metrics) DecrementStreamClients() {
	setStreamClients(m.streamClients.Add(-1))
}

// MetricsSnapshot is a point-in-time view of all metrics.
type MetricsSnapshot struct {
	APIRequests        uint64    `json:"api_requests"`
	APIErrors          uint64    `json:"api_errors"`
	AvgLatencyNs       int64     `json:"avg_latency_ns"`
	WatchlistMutations uint64    `json:"watchlist_mutations"`
	StorageErrors      uint64    `json:"storage_errors"`
	StreamClients      int32     `json:"stream_clients"`
	Timestamp          time.Time `json:"timestamp"`
}

// Snapshot returns current metrics as a snapshot.
func (m *Metrics) Snapshot() MetricsSnapshot {
	var avgLatency int64
	count := m.latencyCount.Load()
	if count > 0 {
		avgLatency = m.latencySumNs.Load() / int64(count)
	}

	return MetricsSnapshot{
		APIRequests:        m.apiRequests.Load(),
		APIErrors:          m.apiErrors.Load(),
		AvgLatencyNs:       avgLatency,
		WatchlistMutations: m.watchlistMutations.Load(),
		StorageErrors:      m.storageErrors.Load(),
		StreamClients:      m.streamClients.Load(),
		Timestamp:          time.Now(),
	}
}

// Reset clears all metrics (for testing).
func (m *Metrics) Reset() {
	m.apiRequests.Store(0)
	m.apiErrors.Store(0)
	m.watchlistMutations.Store(0)
	m.storageErrors.Store(0)
	m.latencySumNs.Store(0)
	m.latencyCount.Store(0)
	m.streamClients.Store(0)
}
