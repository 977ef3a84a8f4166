// Package metrics exposes Prometheus collectors for the analytics engine and HTTP layer.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds every collector. A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	httpRequestsTotal *prometheus.CounterVec
	httpDuration      *prometheus.HistogramVec
	cacheHits         prometheus.Counter
	cacheMisses       prometheus.Counter
	baselinesTotal    *prometheus.CounterVec
	batchFailures     prometheus.Counter
	featuresPublished *prometheus.CounterVec
}

// New registers all collectors on reg. A nil reg gets a fresh registry.
func New(reg *prometheus.Registry) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	m := &Metrics{
		registry: reg,
		httpRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total count of HTTP requests processed by route and status.",
		}, []string{"route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Histogram of HTTP request durations by route.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route"}),
		cacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "analytics_cache_hits_total",
			Help: "Total analytics cache hits observed.",
		}),
		cacheMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "analytics_cache_misses_total",
			Help: "Total analytics cache misses observed.",
		}),
		baselinesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "analytics_baselines_computed_total",
			Help: "Baselines computed from the sample store by entity type, window and specificity.",
		}, []string{"entity_type", "window", "specificity"}),
		batchFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "analytics_batch_entity_failures_total",
			Help: "Entities omitted from a batch occupancy result because their computation failed.",
		}),
		featuresPublished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "analytics_features_published_total",
			Help: "Occupancy feature messages handed to the broker by outcome.",
		}, []string{"outcome"}),
	}

	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.httpRequestsTotal,
		m.httpDuration,
		m.cacheHits,
		m.cacheMisses,
		m.baselinesTotal,
		m.batchFailures,
		m.featuresPublished,
	)
	return m
}

// Registry returns the registry backing the /metrics endpoint
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Middleware records request count and latency keyed by the matched route pattern
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		if m == nil {
			return
		}
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.httpRequestsTotal.WithLabelValues(route, strconv.Itoa(c.Writer.Status())).Inc()
		m.httpDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	}
}

func (m *Metrics) CacheHit() {
	if m == nil {
		return
	}
	m.cacheHits.Inc()
}

func (m *Metrics) CacheMiss() {
	if m == nil {
		return
	}
	m.cacheMisses.Inc()
}

// BaselineComputed counts a baseline produced by the fallback search
func (m *Metrics) BaselineComputed(entityType, window, specificity string) {
	if m == nil {
		return
	}
	m.baselinesTotal.WithLabelValues(entityType, window, specificity).Inc()
}

func (m *Metrics) BatchFailure() {
	if m == nil {
		return
	}
	m.batchFailures.Inc()
}

// FeaturesPublished counts published (ok=true) or failed feature messages
func (m *Metrics) FeaturesPublished(n int, ok bool) {
	if m == nil {
		return
	}
	outcome := "success"
	if !ok {
		outcome = "error"
	}
	m.featuresPublished.WithLabelValues(outcome).Add(float64(n))
}
