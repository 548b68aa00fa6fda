// Package prom implements the observability hooks with Prometheus metrics.
//
// The tile server creates one Registry, installs it as the global hooks, and
// serves it on /metrics.
package prom

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/matzehuels/semtiles/pkg/observability"
)

const namespace = "semtiles"

// Registry holds all metrics for the application.
type Registry struct {
	// Layout metrics
	LayoutsTotal   *prometheus.CounterVec
	LayoutDuration *prometheus.HistogramVec
	LayoutNodes    prometheus.Histogram

	// Render metrics
	RendersTotal    *prometheus.CounterVec
	RenderSizeBytes *prometheus.HistogramVec

	// Position sync metrics
	SyncsTotal        *prometheus.CounterVec
	SyncDuration      *prometheus.HistogramVec
	PositionsReported prometheus.Counter

	// Cache metrics
	CacheEventsTotal *prometheus.CounterVec
	CacheWriteBytes  *prometheus.CounterVec

	// Domain store client metrics
	StoreRequestsTotal   *prometheus.CounterVec
	StoreRequestDuration *prometheus.HistogramVec
	StoreErrorsTotal     *prometheus.CounterVec

	// Tile server metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	registry *prometheus.Registry
}

// NewRegistry creates a registry with all metrics initialized.
func NewRegistry() *Registry {
	r := &Registry{registry: prometheus.NewRegistry()}
	f := promauto.With(r.registry)

	r.LayoutsTotal = f.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "layouts_total",
		Help:      "Layouts computed, by strategy and status",
	}, []string{"strategy", "status"})
	r.LayoutDuration = f.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "layout_duration_seconds",
		Help:      "Layout latency in seconds",
		Buckets:   []float64{.0005, .001, .005, .01, .05, .1, .5, 1},
	}, []string{"strategy"})
	r.LayoutNodes = f.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "layout_nodes",
		Help:      "Number of domains per layout",
		Buckets:   []float64{1, 2, 5, 10, 20, 50, 100, 200, 500},
	})

	r.RendersTotal = f.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "renders_total",
		Help:      "Artifacts rendered, by format and status",
	}, []string{"format", "status"})
	r.RenderSizeBytes = f.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "render_size_bytes",
		Help:      "Rendered artifact size in bytes",
		Buckets:   []float64{1000, 10000, 100000, 1000000, 10000000},
	}, []string{"format"})

	r.SyncsTotal = f.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "position_syncs_total",
		Help:      "Position sync attempts, by backend and status",
	}, []string{"backend", "status"})
	r.SyncDuration = f.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "position_sync_duration_seconds",
		Help:      "Position sync latency in seconds",
		Buckets:   prometheus.DefBuckets,
	}, []string{"backend"})
	r.PositionsReported = f.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "positions_reported_total",
		Help:      "Positions successfully persisted",
	})

	r.CacheEventsTotal = f.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "cache_events_total",
		Help:      "Cache lookups and writes, by key type and event",
	}, []string{"key_type", "event"})
	r.CacheWriteBytes = f.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "cache_write_bytes_total",
		Help:      "Bytes written to the cache",
	}, []string{"key_type"})

	r.StoreRequestsTotal = f.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "store_requests_total",
		Help:      "Domain store requests, by method and status code",
	}, []string{"method", "path", "status"})
	r.StoreRequestDuration = f.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "store_request_duration_seconds",
		Help:      "Domain store request latency in seconds",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "path"})
	r.StoreErrorsTotal = f.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "store_errors_total",
		Help:      "Domain store transport failures",
	}, []string{"method", "path"})

	r.HTTPRequestsTotal = f.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_requests_total",
		Help:      "Tile server requests",
	}, []string{"method", "route", "status"})
	r.HTTPRequestDuration = f.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "Tile server latency in seconds",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route"})

	return r
}

// Install registers r as the global layout, sync, cache and HTTP hooks.
func (r *Registry) Install() {
	observability.SetLayoutHooks(layoutHooks{r})
	observability.SetSyncHooks(syncHooks{r})
	observability.SetCacheHooks(cacheHooks{r})
	observability.SetHTTPHooks(httpHooks{r})
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

// Gatherer exposes the underlying registry.
func (r *Registry) Gatherer() prometheus.Gatherer { return r.registry }

// RecordHTTPRequest records a tile server request.
func (r *Registry) RecordHTTPRequest(method, route string, status int, duration time.Duration) {
	r.HTTPRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	r.HTTPRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}

type layoutHooks struct{ r *Registry }

func (h layoutHooks) OnLayoutStart(_ context.Context, nodeCount int) {
	h.r.LayoutNodes.Observe(float64(nodeCount))
}

func (h layoutHooks) OnLayoutComplete(_ context.Context, strategy string, _ int, d time.Duration, err error) {
	h.r.LayoutsTotal.WithLabelValues(strategy, status(err)).Inc()
	h.r.LayoutDuration.WithLabelValues(strategy).Observe(d.Seconds())
}

func (h layoutHooks) OnRenderComplete(_ context.Context, format string, size int, _ time.Duration, err error) {
	h.r.RendersTotal.WithLabelValues(format, status(err)).Inc()
	if err == nil {
		h.r.RenderSizeBytes.WithLabelValues(format).Observe(float64(size))
	}
}

type syncHooks struct{ r *Registry }

func (h syncHooks) OnSyncComplete(_ context.Context, backend string, count int, d time.Duration, err error) {
	h.r.SyncsTotal.WithLabelValues(backend, status(err)).Inc()
	h.r.SyncDuration.WithLabelValues(backend).Observe(d.Seconds())
	if err == nil {
		h.r.PositionsReported.Add(float64(count))
	}
}

type cacheHooks struct{ r *Registry }

func (h cacheHooks) OnCacheHit(_ context.Context, keyType string) {
	h.r.CacheEventsTotal.WithLabelValues(keyType, "hit").Inc()
}

func (h cacheHooks) OnCacheMiss(_ context.Context, keyType string) {
	h.r.CacheEventsTotal.WithLabelValues(keyType, "miss").Inc()
}

func (h cacheHooks) OnCacheSet(_ context.Context, keyType string, size int) {
	h.r.CacheEventsTotal.WithLabelValues(keyType, "set").Inc()
	h.r.CacheWriteBytes.WithLabelValues(keyType).Add(float64(size))
}

type httpHooks struct{ r *Registry }

func (h httpHooks) OnRequest(context.Context, string, string) {}

func (h httpHooks) OnResponse(_ context.Context, method, path string, code int, d time.Duration) {
	h.r.StoreRequestsTotal.WithLabelValues(method, path, strconv.Itoa(code)).Inc()
	h.r.StoreRequestDuration.WithLabelValues(method, path).Observe(d.Seconds())
}

func (h httpHooks) OnError(_ context.Context, method, path string, _ error) {
	h.r.StoreErrorsTotal.WithLabelValues(method, path).Inc()
}
