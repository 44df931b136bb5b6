package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP metrics
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// Security gate metrics
	CSRFFailuresTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "security_csrf_failures_total",
			Help: "Total number of rejected state-changing requests with a missing or invalid CSRF token",
		},
	)

	AccessDeniedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "security_access_denied_total",
			Help: "Total number of requests rejected by the access controller",
		},
		[]string{"reason"}, // session_expired, unauthorized, account_disabled
	)

	ThrottleBlocksTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "security_login_throttle_blocks_total",
			Help: "Total number of login requests rejected by the brute-force throttle",
		},
	)

	AnomaliesDetectedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "security_anomalies_detected_total",
			Help: "Total number of times a user tripped the activity anomaly threshold",
		},
	)

	AuditWriteFailuresTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "security_audit_write_failures_total",
			Help: "Total number of activity events that could not be persisted",
		},
	)

	UploadsRejectedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "security_uploads_rejected_total",
			Help: "Total number of uploaded files rejected by the validator",
		},
		[]string{"reason"}, // transport, size, extension, content_type
	)

	// Database metrics
	DBConnectionsOpen = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "db_connections_open",
			Help: "Number of open database connections",
		},
	)

	DBConnectionsInUse = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "db_connections_in_use",
			Help: "Number of database connections currently in use",
		},
	)

	DBConnectionsIdle = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "db_connections_idle",
			Help: "Number of idle database connections",
		},
	)
)
