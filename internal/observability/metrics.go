package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total HTTP requests.",
		},
		[]string{"method", "route", "status_code"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	datasetRecords = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "dataset_records",
			Help: "Order-line records held in memory.",
		},
	)

	datasetLoadDuration = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "dataset_load_duration_seconds",
			Help: "Wall time of the last dataset load.",
		},
	)

	aggregationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "aggregation_duration_seconds",
			Help:    "Time spent computing one aggregation.",
			Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 2.5},
		},
		[]string{"aggregation"},
	)

	aggregationErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "aggregation_errors_total",
			Help: "Aggregations that returned an error.",
		},
		[]string{"aggregation", "code"},
	)
)

func ObserveHTTPRequest(method, route string, status int, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	httpRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

func ObserveDatasetLoad(records int, duration time.Duration) {
	datasetRecords.Set(float64(records))
	datasetLoadDuration.Set(duration.Seconds())
}

func ObserveAggregation(name string, duration time.Duration) {
	aggregationDuration.WithLabelValues(name).Observe(duration.Seconds())
}

func CountAggregationError(name, code string) {
	aggregationErrors.WithLabelValues(name, code).Inc()
}

func MetricsHandler() http.Handler {
	return promhttp.Handler()
}
