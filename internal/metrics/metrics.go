// Package metrics holds the Prometheus collectors exported at /metrics.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ohshop_admin_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ohshop_admin_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	// Toggles
	TogglesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ohshop_admin_toggles_total",
			Help: "Flag toggle attempts by entity, field and outcome",
		},
		[]string{"entity", "field", "outcome"},
	)

	// Migrations
	MigrationRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ohshop_admin_migration_runs_total",
			Help: "Finished backfill runs by migration and status",
		},
		[]string{"migration", "status"},
	)

	MigrationDocumentsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ohshop_admin_migration_documents_total",
			Help: "Documents processed by backfill runs, by result",
		},
		[]string{"migration", "result"}, // "updated", "skipped", "failed"
	)

	MigrationsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "ohshop_admin_migrations_active",
			Help: "Backfill runs currently in progress",
		},
	)

	// Discovery
	DiscoveryRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ohshop_admin_discovery_runs_total",
			Help: "Collection discovery runs by source",
		},
		[]string{"source"}, // "cache", "database"
	)

	DiscoveryDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "ohshop_admin_discovery_duration_seconds",
			Help:    "Duration of collection discovery against the database",
			Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		},
	)

	DiscoveryErrorsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ohshop_admin_discovery_errors_total",
			Help: "Collections that failed to be inspected",
		},
	)

	EventListeners = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "ohshop_admin_discovery_listeners",
			Help: "Connected discovery event listeners",
		},
	)
)

// RecordAPIRequest records one served HTTP request.
func RecordAPIRequest(method, route string, status int, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	APIRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// RecordToggle records a toggle attempt.
func RecordToggle(entity, field string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	TogglesTotal.WithLabelValues(entity, field, outcome).Inc()
}

// RecordMigration records a finished backfill run.
func RecordMigration(migration, status string, updated, skipped, failed int64) {
	MigrationRunsTotal.WithLabelValues(migration, status).Inc()
	MigrationDocumentsTotal.WithLabelValues(migration, "updated").Add(float64(updated))
	MigrationDocumentsTotal.WithLabelValues(migration, "skipped").Add(float64(skipped))
	MigrationDocumentsTotal.WithLabelValues(migration, "failed").Add(float64(failed))
}
