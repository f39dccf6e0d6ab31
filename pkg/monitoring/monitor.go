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
			Buckets: []float64{0.05, 0.1, 0.5, 1, 2, 5},
		},
		[]string{"method", "endpoint"},
	)

	// GeometryWrites counts question geometry upserts by result (ok, error).
	GeometryWrites = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pracas_geometry_writes_total",
			Help: "Question geometry upserts by result",
		},
		[]string{"result"},
	)

	AssessmentsFinalized = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "pracas_assessments_finalized_total",
			Help: "Assessments saved with an end date",
		},
	)

	ReportBuildSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "pracas_report_build_seconds",
			Help:    "Time spent loading and aggregating an assessment report",
			Buckets: prometheus.DefBuckets,
		},
	)
)

var registerOnce sync.Once

func Init() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			RequestCounter,
			RequestDuration,
			GeometryWrites,
			AssessmentsFinalized,
			ReportBuildSeconds,
		)
	})
}

func MetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		// unmatched routes share one label
		endpoint := c.FullPath()
		if endpoint == "" {
			endpoint = "unmatched"
		}

		RequestCounter.WithLabelValues(
			c.Request.Method,
			endpoint,
			strconv.Itoa(c.Writer.Status()),
		).Inc()

		RequestDuration.WithLabelValues(
			c.Request.Method,
			endpoint,
		).Observe(time.Since(start).Seconds())
	}
}

func PrometheusHandler() gin.HandlerFunc {
	h := promhttp.Handler()
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}
