// Package metrics exposes Prometheus counters for HTTP traffic and case
// lifecycle events.
package metrics

import (
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mdt/mdt/internal/platform/middleware"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "path"},
	)

	patientsRegistered = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "mdt_patients_registered_total",
			Help: "Total number of patients registered",
		},
	)

	casesCreated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mdt_cases_created_total",
			Help: "Total number of MDT cases created",
		},
		[]string{"missing_date"},
	)

	consensusFinalized = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "mdt_consensus_finalized_total",
			Help: "Total number of consensus saves that finalized a case",
		},
	)

	documentsRendered = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mdt_documents_rendered_total",
			Help: "Total number of case documents rendered",
		},
		[]string{"format"},
	)

	storeUnavailable = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "mdt_store_unavailable_total",
			Help: "Total number of requests failed because the store was unavailable",
		},
	)
)

// Handler serves the Prometheus exposition format.
func Handler() echo.HandlerFunc {
	return echo.WrapHandler(promhttp.Handler())
}

// Middleware records request counts and latency labelled by route pattern.
func Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			err := next(c)

			status := c.Response().Status
			if err != nil {
				status = middleware.StatusOf(err)
			}

			path := routePath(c)
			httpRequestsTotal.WithLabelValues(c.Request().Method, path, strconv.Itoa(status)).Inc()
			httpRequestDuration.WithLabelValues(c.Request().Method, path).Observe(time.Since(start).Seconds())

			return err
		}
	}
}

// routePath returns the registered route ("/api/v1/cases/:id") so ids do not
// explode label cardinality. Unmatched requests share one label.
func routePath(c echo.Context) string {
	if p := c.Path(); p != "" {
		return p
	}
	return "unmatched"
}

func RecordPatientRegistered() {
	patientsRegistered.Inc()
}

func RecordCaseCreated(missingDate bool) {
	casesCreated.WithLabelValues(strconv.FormatBool(missingDate)).Inc()
}

func RecordConsensusFinalized() {
	consensusFinalized.Inc()
}

func RecordDocumentRendered(format string) {
	documentsRendered.WithLabelValues(format).Inc()
}

func RecordStoreUnavailable() {
	storeUnavailable.Inc()
}
