package observability

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "edulearn_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	httpDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "edulearn_http_request_duration_seconds",
			Help:    "Time spent serving HTTP requests",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	// AdaptiveAnswers counts submitted adaptive answers by correctness
	AdaptiveAnswers = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "edulearn_adaptive_answers_total",
			Help: "Total number of adaptive assessment answers",
		},
		[]string{"correct"},
	)

	// LLMCalls counts provider calls by model and outcome
	LLMCalls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "edulearn_llm_calls_total",
			Help: "Total number of LLM provider calls",
		},
		[]string{"model", "status"},
	)

	BadgeAwards = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "edulearn_badge_awards_total",
			Help: "Total number of badges awarded",
		},
	)
)

// MetricsMiddleware records request counts and latency per matched route
func MetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		httpRequests.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
		httpDuration.WithLabelValues(c.Request.Method, route).Observe(time.Since(start).Seconds())
	}
}

// MetricsHandler exposes the default registry
func MetricsHandler() gin.HandlerFunc {
	return gin.WrapH(promhttp.Handler())
}
