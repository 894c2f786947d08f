package prometheus

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Counter metrics
var (
	// HTTP request counter by endpoint and status
	HTTPRequestCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fuelone_http_requests_total",
			Help: "Total number of HTTP requests by endpoint and status",
		},
		[]string{"endpoint", "method", "status"},
	)

	// Authentication error counter
	AuthErrorCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fuelone_auth_errors_total",
			Help: "Total number of authentication errors",
		},
		[]string{"type"}, // "missing_token", "invalid_token", "forbidden", "login_failure"
	)

	// Tenant resolution outcomes
	TenantResolveCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fuelone_tenant_resolutions_total",
			Help: "Total number of tenant resolutions by result",
		},
		[]string{"result"}, // "cached", "opened", "not_found", "inactive", "error"
	)

	// Feature overlay fallbacks
	FeatureFallbackCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fuelone_feature_fallbacks_total",
			Help: "Total number of feature overlay computations served from hardcoded defaults",
		},
		[]string{"reason"}, // "empty_catalog", "error"
	)

	// Tenant migration outcomes
	MigrationCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fuelone_tenant_migrations_total",
			Help: "Total number of tenant migration runs by result",
		},
		[]string{"result"}, // "applied", "up_to_date", "failed"
	)

	// Rows removed by the retention job
	RetentionRowsCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fuelone_retention_rows_total",
			Help: "Total number of rows removed by retention policies",
		},
		[]string{"entity", "action"},
	)

	// Documents written by the legacy importer
	LegacyImportCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fuelone_legacy_import_rows_total",
			Help: "Total number of legacy documents processed by the cutover importer",
		},
		[]string{"collection", "outcome"}, // outcome: "inserted", "skipped"
	)

	// Developer-mode actions
	DeveloperActionCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fuelone_developer_actions_total",
			Help: "Total number of developer-mode actions",
		},
		[]string{"action"},
	)
)

// Histogram metrics
var (
	// Request duration
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "fuelone_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"endpoint", "method", "status"},
	)

	// Database operation duration
	DBOperationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "fuelone_db_operation_duration_seconds",
			Help:    "Duration of database operations in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)
)

// Gauge metrics
var (
	// Open tenant pools
	TenantPoolsGauge = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "fuelone_tenant_pools_open",
			Help: "Number of tenant connection pools currently cached",
		},
	)

	// System info
	InfoGauge = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "fuelone_info",
			Help: "Information about the FuelOne API",
		},
		[]string{"version"},
	)
)

func init() {
	prometheus.MustRegister(HTTPRequestCounter)
	prometheus.MustRegister(AuthErrorCounter)
	prometheus.MustRegister(TenantResolveCounter)
	prometheus.MustRegister(FeatureFallbackCounter)
	prometheus.MustRegister(MigrationCounter)
	prometheus.MustRegister(RetentionRowsCounter)
	prometheus.MustRegister(LegacyImportCounter)
	prometheus.MustRegister(DeveloperActionCounter)

	prometheus.MustRegister(RequestDuration)
	prometheus.MustRegister(DBOperationDuration)

	prometheus.MustRegister(TenantPoolsGauge)
	prometheus.MustRegister(InfoGauge)

	InfoGauge.With(prometheus.Labels{"version": "1.0.0"}).Set(1)
}

// GetPrometheusHandler returns an HTTP handler for the Prometheus metrics
func GetPrometheusHandler() http.Handler {
	return promhttp.Handler()
}

// TrackDBOperation measures database operation durations:
//
//	defer prometheus.TrackDBOperation("query")()
func TrackDBOperation(operation string) func() {
	startTime := time.Now()
	return func() {
		DBOperationDuration.With(prometheus.Labels{
			"operation": operation,
		}).Observe(time.Since(startTime).Seconds())
	}
}

// MetricsMiddleware creates a middleware function that captures metrics for each request
func MetricsMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			err := next(c)
			if err != nil {
				c.Error(err)
			}

			status := strconv.Itoa(c.Response().Status)
			labels := prometheus.Labels{
				"endpoint": c.Path(),
				"method":   c.Request().Method,
				"status":   status,
			}
			RequestDuration.With(labels).Observe(time.Since(start).Seconds())
			HTTPRequestCounter.With(labels).Inc()

			return nil
		}
	}
}

// RecordAuthError records an authentication error by type
func RecordAuthError(errorType string) {
	AuthErrorCounter.With(prometheus.Labels{"type": errorType}).Inc()
}

// RecordTenantResolution records the outcome of a tenant lookup
func RecordTenantResolution(result string) {
	TenantResolveCounter.With(prometheus.Labels{"result": result}).Inc()
}

// RecordFeatureFallback records a feature overlay served from defaults
func RecordFeatureFallback(reason string) {
	FeatureFallbackCounter.With(prometheus.Labels{"reason": reason}).Inc()
}

// RecordMigration records a tenant migration run
func RecordMigration(result string) {
	MigrationCounter.With(prometheus.Labels{"result": result}).Inc()
}

// RecordRetentionRows records rows removed by a retention policy
func RecordRetentionRows(entity, action string, count int) {
	RetentionRowsCounter.With(prometheus.Labels{"entity": entity, "action": action}).Add(float64(count))
}

// RecordLegacyImport records documents processed by the legacy importer
func RecordLegacyImport(collection, outcome string, count int) {
	LegacyImportCounter.With(prometheus.Labels{"collection": collection, "outcome": outcome}).Add(float64(count))
}

// RecordDeveloperAction records a developer-mode action
func RecordDeveloperAction(action string) {
	DeveloperActionCounter.With(prometheus.Labels{"action": action}).Inc()
}

// SetTenantPools updates the open tenant pools gauge
func SetTenantPools(count int) {
	TenantPoolsGauge.Set(float64(count))
}
