package monitoring

import (
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	RequestCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: []float64{0.1, 0.5, 1, 2, 5},
		},
		[]string{"method", "endpoint"},
	)

	// AwardsIssued counts badge and certificate writes by kind and outcome
	// (created, duplicate, failed).
	AwardsIssued = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "awards_issued_total",
			Help: "Badge and certificate issuance attempts by outcome",
		},
		[]string{"kind", "outcome"},
	)

	AwardScanDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "award_scan_duration_seconds",
			Help:    "Duration of completion scans",
			Buckets: []float64{0.05, 0.1, 0.5, 1, 5, 30},
		},
	)

	DecodeAnomalies = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "store_decode_anomalies_total",
			Help: "Stored values replaced by defaults while decoding",
		},
		[]string{"entity", "field"},
	)

	RealtimeEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "realtime_events_total",
			Help: "Change notifications received per table",
		},
		[]string{"table", "event"},
	)
)

var initOnce sync.Once

func Init() {
	initOnce.Do(func() {
		prometheus.MustRegister(
			RequestCounter,
			RequestDuration,
			AwardsIssued,
			AwardScanDuration,
			DecodeAnomalies,
			RealtimeEvents,
		)
	})
}

func MetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		duration := time.Since(start).Seconds()
		status := c.Writer.Status()

		RequestCounter.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			strconv.Itoa(status),
		).Inc()

		RequestDuration.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
		).Observe(duration)
	}
}

func PrometheusHandler() gin.HandlerFunc {
	h := promhttp.Handler()
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}
