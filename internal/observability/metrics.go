package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the Prometheus collectors for ingest and HTTP traffic,
// registered on an isolated registry.
type Metrics struct {
	registry *prometheus.Registry

	rowsIngested prometheus.Counter
	rowsDropped  *prometheus.CounterVec
	loadDuration prometheus.Gauge

	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec
}

func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	return &Metrics{
		registry: registry,
		rowsIngested: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "swiggy",
			Name:      "rows_ingested_total",
			Help:      "Order rows that survived parsing and cleaning.",
		}),
		rowsDropped: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "swiggy",
			Name:      "rows_dropped_total",
			Help:      "Order rows rejected during ingest, by reason.",
		}, []string{"reason"}),
		loadDuration: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "swiggy",
			Name:      "load_duration_seconds",
			Help:      "Wall time of the last dataset load.",
		}),
		httpRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "swiggy",
			Name:      "http_requests_total",
			Help:      "HTTP requests served, by method, path and status.",
		}, []string{"method", "path", "status"}),
		httpDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "swiggy",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   []float64{.001, .005, .01, .05, .1, .5, 1, 5},
		}, []string{"method", "path"}),
	}
}

// Handler exposes the registry for scraping.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveLoad records the outcome of a dataset load.
func (m *Metrics) ObserveLoad(ingested int64, dropped map[string]int64, duration time.Duration) {
	m.rowsIngested.Add(float64(ingested))
	for reason, n := range dropped {
		m.rowsDropped.WithLabelValues(reason).Add(float64(n))
	}
	m.loadDuration.Set(duration.Seconds())
}

// ObserveRequest records one served HTTP request.
func (m *Metrics) ObserveRequest(method, path string, status int, duration time.Duration) {
	m.httpRequests.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}
