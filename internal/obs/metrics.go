package obs

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// HTTP metrics shared by every route.
var (
	httpInFlight = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "http_in_flight_requests",
		Help: "In-flight HTTP requests.",
	})

	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latencies in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)

// Security metrics.
var (
	accessDeniedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "security_access_denied_total",
			Help: "Authorization denials by reason.",
		},
		[]string{"reason"},
	)

	anomalyEventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "security_anomaly_events_total",
			Help: "Suspicious-activity events by rule.",
		},
		[]string{"rule"},
	)

	auditWritesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "audit_writes_total",
			Help: "Audit log writes by outcome.",
		},
		[]string{"outcome"},
	)
)

// Init registers all metrics with the default registry. Call once at startup.
func Init() {
	prometheus.MustRegister(
		httpInFlight, httpRequestsTotal, httpRequestDuration,
		accessDeniedTotal, anomalyEventsTotal, auditWritesTotal,
	)
}

// Handler serves the Prometheus scrape endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Instrument records RPS, latency and in-flight count per route. Uses the
// route template rather than the raw path so path parameters don't explode
// label cardinality.
func Instrument() gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		method := c.Request.Method

		httpInFlight.Inc()
		start := time.Now()

		c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Writer.Status())

		httpRequestDuration.WithLabelValues(method, path, status).Observe(duration)
		httpRequestsTotal.WithLabelValues(method, path, status).Inc()
		httpInFlight.Dec()
	}
}

// AccessDenied counts an authorization denial.
func AccessDenied(reason string) {
	accessDeniedTotal.WithLabelValues(reason).Inc()
}

// AnomalyEvent counts a suspicious-activity detection.
func AnomalyEvent(rule string) {
	anomalyEventsTotal.WithLabelValues(rule).Inc()
}

// AuditWrite counts an audit persistence attempt.
func AuditWrite(outcome string) {
	auditWritesTotal.WithLabelValues(outcome).Inc()
}
