// Package metrics holds the Prometheus collectors shared by the service,
// both transports and the stats worker.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Route labels. Unknown paths share one label to bound cardinality.
const (
	RouteCalculate = "calculate"
	RouteHistory   = "history"
	RouteNotFound  = "not_found"
)

// Division outcome labels.
const (
	DivisionDefined = "defined"
	DivisionByZero  = "by_zero"
)

var (
	CalculationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "abacus_calculations_total",
		Help: "Calculations computed and persisted, by division outcome",
	}, []string{"division"})

	InputsCoercedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "abacus_inputs_coerced_total",
		Help: "Operands that were absent or malformed and coerced to zero",
	}, []string{"param"})

	StorageErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "abacus_storage_errors_total",
		Help: "Failed store operations",
	}, []string{"operation"})

	RequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "abacus_http_requests_total",
		Help: "HTTP requests served, by transport, route and status",
	}, []string{"transport", "route", "status"})

	RequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "abacus_http_request_duration_seconds",
		Help:    "Time from request parsed to response written",
		Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5},
	}, []string{"transport", "route"})

	RecordsStored = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "abacus_records_stored",
		Help: "Number of calculation records in the store at last sample",
	})
)

// ObserveRequest records one served request.
func ObserveRequest(transport, route string, status int, elapsed time.Duration) {
	RequestsTotal.WithLabelValues(transport, route, strconv.Itoa(status)).Inc()
	RequestDuration.WithLabelValues(transport, route).Observe(elapsed.Seconds())
}

// RouteFor maps a request path to its route label.
func RouteFor(path string) string {
	switch path {
	case "/calculate":
		return RouteCalculate
	case "/history":
		return RouteHistory
	default:
		return RouteNotFound
	}
}

// Handler exposes the default registry in the Prometheus text format.
func Handler() http.Handler {
	return promhttp.Handler()
}
