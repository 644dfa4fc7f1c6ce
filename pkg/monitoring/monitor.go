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
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2},
		},
		[]string{"method", "endpoint"},
	)

	TrainingEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "progression_events_total",
			Help: "Training events recorded, by event type",
		},
		[]string{"type"},
	)

	Promotions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "progression_promotions_total",
			Help: "Instructor-approved promotions, by target level",
		},
		[]string{"level"},
	)

	StatsCacheLookups = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "batch_stats_cache_total",
			Help: "Batch statistics cache lookups, by result",
		},
		[]string{"result"},
	)
)

var registerOnce sync.Once

func Init() {
	registerOnce.Do(func() {
		prometheus.MustRegister(RequestCounter)
		prometheus.MustRegister(RequestDuration)
		prometheus.MustRegister(TrainingEvents)
		prometheus.MustRegister(Promotions)
		prometheus.MustRegister(StatsCacheLookups)
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
