package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Registry holds the ledger-specific Prometheus collectors.
	Registry = prometheus.NewRegistry()

	openConnections = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "ledger",
			Subsystem: "tcp",
			Name:      "open_connections",
			Help:      "Current number of open client connections.",
		},
	)

	requests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ledger",
			Subsystem: "protocol",
			Name:      "requests_total",
			Help:      "Total number of protocol requests handled.",
		},
		[]string{"action", "status"},
	)

	transactions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ledger",
			Subsystem: "engine",
			Name:      "transactions_total",
			Help:      "Total number of finalized transactions.",
		},
		[]string{"status"},
	)

	verifyDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "ledger",
			Subsystem: "engine",
			Name:      "signature_verify_duration_seconds",
			Help:      "Duration of RSA-PSS signature verification.",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 2, 12), // 0.1ms to ~400ms
		},
	)

	transferDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "ledger",
			Subsystem: "engine",
			Name:      "transfer_duration_seconds",
			Help:      "Duration of the atomic transfer critical section.",
			Buckets:   prometheus.ExponentialBuckets(0.000001, 4, 10),
		},
	)
)

func init() {
	Registry.MustRegister(
		openConnections,
		requests,
		transactions,
		verifyDuration,
		transferDuration,
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		prometheus.NewGoCollector(),
	)
}

// Handler returns an HTTP handler exposing the registered Prometheus metrics.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// ConnectionOpened increments the open connection gauge.
func ConnectionOpened() { openConnections.Inc() }

// ConnectionClosed decrements the open connection gauge.
func ConnectionClosed() { openConnections.Dec() }

// RequestHandled counts one handled protocol request.
func RequestHandled(action, status string) {
	requests.WithLabelValues(action, status).Inc()
}

// TransactionFinalized counts one finalized transaction by outcome.
func TransactionFinalized(status string) {
	transactions.WithLabelValues(status).Inc()
}

// ObserveVerification records the duration of one signature verification.
func ObserveVerification(d time.Duration) {
	verifyDuration.Observe(d.Seconds())
}

// ObserveTransfer records the duration of one atomic transfer.
func ObserveTransfer(d time.Duration) {
	transferDuration.Observe(d.Seconds())
}
