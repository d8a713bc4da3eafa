package metrics

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"
)

var (
	// HTTP metrics
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "manchitra",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Total HTTP requests processed",
	}, []string{"method", "path", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "manchitra",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency in seconds",
		Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
	}, []string{"method", "path"})

	httpResponseSize = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "manchitra",
		Subsystem: "http",
		Name:      "response_size_bytes",
		Help:      "HTTP response size in bytes",
		Buckets:   prometheus.ExponentialBuckets(100, 10, 6),
	}, []string{"method", "path"})

	// Style provider metrics
	StyleFetches = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "manchitra",
		Subsystem: "style",
		Name:      "fetches_total",
		Help:      "Total style fetches against the provider",
	}, []string{"outcome"})

	StyleFetchDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "manchitra",
		Subsystem: "style",
		Name:      "fetch_duration_seconds",
		Help:      "Duration of style fetches against the provider",
		Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
	})

	StyleUpdatesDetected = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "manchitra",
		Subsystem: "style",
		Name:      "updates_detected_total",
		Help:      "Total style revisions detected by the watcher",
	})

	// Live tracking metrics
	PositionUpdates = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "manchitra",
		Subsystem: "live",
		Name:      "position_updates_total",
		Help:      "Total position updates processed by outcome",
	}, []string{"outcome"})

	ActiveWebSockets = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "manchitra",
		Subsystem: "ws",
		Name:      "active_connections",
		Help:      "Current number of active WebSocket connections",
	})

	CacheHits = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "manchitra",
		Subsystem: "cache",
		Name:      "hits_total",
		Help:      "Total cache hits by backend",
	}, []string{"backend"})

	CacheMisses = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "manchitra",
		Subsystem: "cache",
		Name:      "misses_total",
		Help:      "Total cache misses by backend",
	}, []string{"backend"})
)

// Middleware records request metrics.
func Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		err := c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Response().StatusCode())
		path := c.Route().Path
		if path == "" {
			path = c.Path()
		}
		method := c.Method()

		httpRequestsTotal.WithLabelValues(method, path, status).Inc()
		httpRequestDuration.WithLabelValues(method, path).Observe(duration)
		httpResponseSize.WithLabelValues(method, path).Observe(float64(len(c.Response().Body())))

		return err
	}
}

// Handler returns a Fiber handler serving Prometheus /metrics endpoint.
func Handler() fiber.Handler {
	handler := promhttp.Handler()
	return func(c *fiber.Ctx) error {
		fasthttpadaptor.NewFastHTTPHandler(handler)(c.Context())
		return nil
	}
}
