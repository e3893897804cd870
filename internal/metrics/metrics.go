package metrics

import (
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	initOnce sync.Once

	httpRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ramensite",
		Name:      "http_requests_total",
		Help:      "HTTP requests by method, route and status.",
	}, []string{"method", "route", "status"})

	httpDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "ramensite",
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency by method and route.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route"})

	imageUploads = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ramensite",
		Name:      "image_uploads_total",
		Help:      "Image uploads by outcome.",
	}, []string{"outcome"})

	imageDeletes = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ramensite",
		Name:      "image_deletes_total",
		Help:      "Image deletes by outcome.",
	}, []string{"outcome"})
)

// InitMetrics registers collectors with the default registry. Safe to call more than once.
func InitMetrics() {
	initOnce.Do(func() {
		prometheus.MustRegister(httpRequests, httpDuration, imageUploads, imageDeletes)
	})
}

// Register attaches the Prometheus metrics endpoint to the router.
func Register(router *gin.Engine, path string) {
	router.GET(path, gin.WrapH(promhttp.Handler()))
}

// Middleware records request counts and latency per matched route.
func Middleware() gin.HandlerFunc {
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

// ObserveUpload counts an image upload attempt.
func ObserveUpload(outcome string) {
	imageUploads.WithLabelValues(outcome).Inc()
}

// ObserveDelete counts an image delete attempt.
func ObserveDelete(outcome string) {
	imageDeletes.WithLabelValues(outcome).Inc()
}
