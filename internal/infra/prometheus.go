package infra

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	APICalls = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crypto_dash_api_calls_total",
			Help: "Total number of upstream market API calls",
		},
		[]string{"endpoint", "status"}, // status: success|error
	)

	APILatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "crypto_dash_api_latency_seconds",
			Help:    "Upstream market API latency in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
		},
		[]string{"endpoint"},
	)

	WatchlistOps = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crypto_dash_watchlist_ops_total",
			Help: "Watchlist operations by result",
		},
		[]string{"op", "result"}, // result: changed|noop|error
	)

	StreamClients = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "crypto_dash_stream_clients",
			Help: "Connected websocket clients",
		},
	)
)

var registerOnce sync.Once

// InitPrometheus registers all collectors with the default registry.
// Safe to call more than once.
func InitPrometheus() {
	registerOnce.Do(func() {
		prometheus.MustRegister(APICalls)
		prometheus.MustRegister(APILatency)
		prometheus.MustRegister(WatchlistOps)
		prometheus.MustRegister(StreamClients)
	})
}

// MetricsHandler returns the Prometheus scrape handler
func MetricsHandler() http.Handler {
	InitPrometheus()
	return promhttp.Handler()
}

func observeAPICall(endpoint string, latency time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	APICalls.WithLabelValues(endpoint, status).Inc()
	APILatency.WithLabelValues(endpoint).Observe(latency.Seconds())
}

func observeWatchlistOp(op string, changed bool, err error) {
	result := "noop"
	switch {
	case err != nil:
		result = "error"
	case changed:
		result = "changed"
	}
	WatchlistOps.WithLabelValues(op, result).Inc()
}

func setStreamClients(n int32) {
	StreamClients.Set(float64(n))
}
