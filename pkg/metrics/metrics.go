// Package metrics exposes Prometheus counters for the importer and HTTP API.
package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "chatsaid"

// Collector owns its registry so tests can create as many as they like.
// All record methods are safe on a nil *Collector.
type Collector struct {
	registry *prometheus.Registry

	postsInserted   *prometheus.CounterVec
	postsSkipped    *prometheus.CounterVec
	fetchFailures   *prometheus.CounterVec
	importDuration  *prometheus.HistogramVec
	draftEnrichment *prometheus.CounterVec

	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
}

func New() *Collector {
	c := &Collector{registry: prometheus.NewRegistry()}

	c.postsInserted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "import_posts_inserted_total",
			Help:      "Social posts inserted by the importer",
		},
		[]string{"platform"},
	)
	c.postsSkipped = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "import_posts_skipped_total",
			Help:      "Fetched items skipped as duplicates or failed inserts",
		},
		[]string{"platform"},
	)
	c.fetchFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "import_fetch_failures_total",
			Help:      "Account fetches that failed and marked the account errored",
		},
		[]string{"platform"},
	)
	c.importDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "import_account_duration_seconds",
			Help:      "Time spent importing a single account",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"platform"},
	)
	c.draftEnrichment = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "draft_enrichment_total",
			Help:      "Best-effort draft enrichment attempts by kind and outcome",
		},
		[]string{"kind", "outcome"},
	)
	c.httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)
	c.httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	c.registry.MustRegister(
		c.postsInserted,
		c.postsSkipped,
		c.fetchFailures,
		c.importDuration,
		c.draftEnrichment,
		c.httpRequestsTotal,
		c.httpRequestDuration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return c
}

// Registry exposes the underlying registry (used by tests).
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// RecordImport adds one account's import outcome.
func (c *Collector) RecordImport(platform string, inserted, skipped int, took time.Duration) {
	if c == nil {
		return
	}
	c.postsInserted.WithLabelValues(platform).Add(float64(inserted))
	c.postsSkipped.WithLabelValues(platform).Add(float64(skipped))
	c.importDuration.WithLabelValues(platform).Observe(took.Seconds())
}

func (c *Collector) RecordFetchFailure(platform string) {
	if c == nil {
		return
	}
	c.fetchFailures.WithLabelValues(platform).Inc()
}

// RecordEnrichment counts a summarize or image attempt; outcome is "ok" or "error".
func (c *Collector) RecordEnrichment(kind string, err error) {
	if c == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	c.draftEnrichment.WithLabelValues(kind, outcome).Inc()
}

// Middleware returns middleware that collects HTTP metrics
func (c *Collector) Middleware() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		start := time.Now()
		ctx.Next()

		endpoint := ctx.FullPath()
		if endpoint == "" {
			endpoint = "unknown"
		}
		method := ctx.Request.Method
		c.httpRequestsTotal.WithLabelValues(method, endpoint, strconv.Itoa(ctx.Writer.Status())).Inc()
		c.httpRequestDuration.WithLabelValues(method, endpoint).Observe(time.Since(start).Seconds())
	}
}

// Handler returns the Prometheus metrics HTTP handler
func (c *Collector) Handler() gin.HandlerFunc {
	handler := promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
	return func(ctx *gin.Context) {
		handler.ServeHTTP(ctx.Writer, ctx.Request)
	}
}
