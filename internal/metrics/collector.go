// Package metrics exposes prometheus collectors for the engine and its HTTP surface.
package metrics

import (
	"errors"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

// Collector groups every metric the service records. A nil *Collector is a
// valid no-op, so components can take one unconditionally.
type Collector struct {
	// Engine metrics
	builds           *prometheus.CounterVec
	buildDuration    *prometheus.HistogramVec
	catalogBooks     prometheus.Gauge
	sentimentVariant *prometheus.GaugeVec

	// Query metrics
	queries       *prometheus.CounterVec
	queryDuration *prometheus.HistogramVec

	// HTTP metrics
	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	activeConnections   prometheus.Gauge

	// Cache and messaging metrics
	cacheOperations *prometheus.CounterVec
	eventsPublished *prometheus.CounterVec
}

// New creates the collectors and registers them with reg. Collectors that are
// already registered are reused.
func New(reg prometheus.Registerer) (*Collector, error) {
	c := &Collector{
		builds: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bookrec_model_builds_total",
			Help: "Model builds by mode (snapshot, full, basic) and outcome",
		}, []string{"mode", "outcome"}),

		buildDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "bookrec_model_build_duration_seconds",
			Help:    "Model build duration in seconds",
			Buckets: []float64{0.05, 0.1, 0.5, 1, 2, 5, 10, 30, 60},
		}, []string{"mode"}),

		catalogBooks: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "bookrec_catalog_books",
			Help: "Books in the serving snapshot",
		}),

		sentimentVariant: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "bookrec_sentiment_variant",
			Help: "Active sentiment scorer (1 = active)",
		}, []string{"variant"}),

		queries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bookrec_queries_total",
			Help: "Engine queries by operation and outcome",
		}, []string{"operation", "outcome"}),

		queryDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "bookrec_query_duration_seconds",
			Help:    "Engine query duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1.0},
		}, []string{"operation"}),

		httpRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"method", "endpoint", "status"}),

		httpRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1.0, 2.0, 5.0},
		}, []string{"method", "endpoint"}),

		activeConnections: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "http_active_connections",
			Help: "Number of active HTTP connections",
		}),

		cacheOperations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "cache_operations_total",
			Help: "Total number of cache operations",
		}, []string{"operation", "result"}),

		eventsPublished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bookrec_events_published_total",
			Help: "Model events published by outcome",
		}, []string{"event", "outcome"}),
	}

	var err error
	c.builds = register(reg, c.builds, &err)
	c.buildDuration = register(reg, c.buildDuration, &err)
	c.catalogBooks = register(reg, c.catalogBooks, &err)
	c.sentimentVariant = register(reg, c.sentimentVariant, &err)
	c.queries = register(reg, c.queries, &err)
	c.queryDuration = register(reg, c.queryDuration, &err)
	c.httpRequestsTotal = register(reg, c.httpRequestsTotal, &err)
	c.httpRequestDuration = register(reg, c.httpRequestDuration, &err)
	c.activeConnections = register(reg, c.activeConnections, &err)
	c.cacheOperations = register(reg, c.cacheOperations, &err)
	c.eventsPublished = register(reg, c.eventsPublished, &err)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// register returns the existing collector when one is already registered
// under the same descriptor, and records the first other failure in errp.
func register[T prometheus.Collector](reg prometheus.Registerer, col T, errp *error) T {
	if err := reg.Register(col); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(T); ok {
				return existing
			}
		}
		if *errp == nil {
			*errp = fmt.Errorf("failed to register metric: %w", err)
		}
	}
	return col
}

// RecordBuild records one build attempt.
func (c *Collector) RecordBuild(mode string, duration time.Duration, err error) {
	if c == nil {
		return
	}
	c.builds.WithLabelValues(mode, outcome(err)).Inc()
	if err == nil {
		c.buildDuration.WithLabelValues(mode).Observe(duration.Seconds())
	}
}

// SetCatalogSize records the serving snapshot's book count.
func (c *Collector) SetCatalogSize(n int) {
	if c == nil {
		return
	}
	c.catalogBooks.Set(float64(n))
}

// SetSentimentVariant marks variant active and every other known variant inactive.
func (c *Collector) SetSentimentVariant(variant string, known ...string) {
	if c == nil {
		return
	}
	for _, k := range known {
		c.sentimentVariant.WithLabelValues(k).Set(0)
	}
	c.sentimentVariant.WithLabelValues(variant).Set(1)
}

// RecordQuery records one engine query.
func (c *Collector) RecordQuery(operation string, duration time.Duration, err error) {
	if c == nil {
		return
	}
	c.queries.WithLabelValues(operation, outcome(err)).Inc()
	c.queryDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// RecordCacheOperation records a response cache lookup or write.
func (c *Collector) RecordCacheOperation(operation, result string) {
	if c == nil {
		return
	}
	c.cacheOperations.WithLabelValues(operation, result).Inc()
}

// RecordEvent records a published model event.
func (c *Collector) RecordEvent(event string, err error) {
	if c == nil {
		return
	}
	c.eventsPublished.WithLabelValues(event, outcome(err)).Inc()
}

// HTTPMiddleware records request counts and latency per route.
func (c *Collector) HTTPMiddleware() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		if c == nil {
			ctx.Next()
			return
		}

		start := time.Now()
		c.activeConnections.Inc()
		defer c.activeConnections.Dec()

		ctx.Next()

		duration := time.Since(start)
		status := fmt.Sprintf("%d", ctx.Writer.Status())
		c.httpRequestsTotal.WithLabelValues(ctx.Request.Method, ctx.FullPath(), status).Inc()
		c.httpRequestDuration.WithLabelValues(ctx.Request.Method, ctx.FullPath()).Observe(duration.Seconds())
	}
}

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}
