// Package telemetry provides application-level observability for the
// documentation hosting service.
//
// # Prometheus Metrics Endpoint
//
// All metrics are registered against the default Prometheus registry and are
// automatically available on the side-channel HTTP server started by main.go:
//
//	GET http(s)://<host>:<DOCSHOST_TELEMETRY_METRICS_PROMETHEUS_PORT>/metrics
//
// Default port: 9090.  The endpoint returns data in the Prometheus text exposition
// format and is intended to be scraped by a Prometheus server every 15–60 seconds.
// It is NOT served by the Gin router.
//
// # Metric Groups
//
//   - HTTP request counters and latency histograms (labelled by route template, not raw URL)
//   - Organization page render latency histogram
//   - Documentation file serve counters
//   - Notification janitor counters
//   - Database connection pool gauge (polled every 30 s)
//
// # Label Cardinality
//
// HTTP metrics use c.FullPath() (route template such as /orgs/:slug) rather than
// the raw request URL to prevent unbounded label cardinality from user-supplied
// path segments such as organization or project slugs.
package telemetry

import (
	"database/sql"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP metrics — labelled by method, route template, and status code.
//
// HTTPRequestsTotal is a CounterVec with labels {method, path, status}.
// The path label holds the Gin route template (e.g. /orgs/:slug), NOT the raw
// URL, to prevent unbounded cardinality.
//
// HTTPRequestDuration is a HistogramVec with labels {method, path} and
// exponential-ish buckets from 5 ms to 30 s.  Use histogram_quantile to compute
// latency percentiles.
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests processed, by method, route template, and status code.",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Histogram of HTTP request latencies, by method and route template.",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"method", "path"},
	)
)

// Page and documentation serving metrics.
//
// PageRenderDuration is a HistogramVec with label {page} observed around each
// server-rendered HTML page (e.g. "organization_detail").  The label is a fixed
// page identifier, never user input.
//
// DocsServedTotal is a CounterVec with labels {project, version} incremented
// whenever a built documentation file is served from storage.
//
// Example PromQL queries:
//   - p99 render latency:  histogram_quantile(0.99, sum by (page, le) (rate(page_render_duration_seconds_bucket[5m])))
//   - Most-read projects:  topk(10, sum by (project) (rate(docs_served_total[1h])))
var (
	PageRenderDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "page_render_duration_seconds",
			Help:    "Duration of server-side HTML page rendering, by page identifier.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"page"},
	)

	DocsServedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "docs_served_total",
			Help: "Total number of built documentation files served, by project and version.",
		},
		[]string{"project", "version"},
	)
)

// Notification janitor metrics — recorded by the background cleanup job.
//
// NotificationsCancelledTotal counts notifications cancelled because they aged
// past the retention window.  NotificationJanitorErrorsTotal counts failed
// cleanup passes; an alert on rate(notification_janitor_errors_total[1h]) > 0
// catches database trouble early.
var (
	NotificationsCancelledTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "notifications_cancelled_total",
			Help: "Total number of notifications cancelled by the retention janitor.",
		},
	)

	NotificationJanitorErrorsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "notification_janitor_errors_total",
			Help: "Total number of failed notification janitor passes.",
		},
	)
)

// DBOpenConnections is a Gauge that tracks the number of open connections currently
// held by the sql.DB connection pool.  It is sampled every 30 seconds by
// StartDBStatsCollector rather than per-request to avoid the overhead of sql.DB.Stats().
var DBOpenConnections = promauto.NewGauge(
	prometheus.GaugeOpts{
		Name: "db_open_connections",
		Help: "Current number of open database connections in the pool.",
	},
)

// StartDBStatsCollector launches a background goroutine that samples sql.DB connection
// pool statistics every 30 seconds and updates the DBOpenConnections gauge.
// The goroutine exits cleanly when the database becomes unreachable (db.Ping fails),
// which happens automatically when the application shuts down and defers db.Close().
//
// Call this once, immediately after db.Connect() succeeds in main.go:
//
//	telemetry.StartDBStatsCollector(database)
func StartDBStatsCollector(db *sql.DB) {
	go func() {
		ticker := time.NewTicker(30 * time.Second)
		defer ticker.Stop()
		for range ticker.C {
			if err := db.Ping(); err != nil {
				slog.Warn("db stats collector: database unreachable, stopping collector", "error", err)
				return
			}
			DBOpenConnections.Set(float64(db.Stats().OpenConnections))
		}
	}()
}
