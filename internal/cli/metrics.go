package cli

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/topoviz/topoviz/pkg/observability"
)

// =============================================================================
// Prometheus Hook Implementations
// =============================================================================

// serverMetrics implements the observability hook interfaces on top of a
// Prometheus registry. The serve command registers it once at startup.
type serverMetrics struct {
	stageDuration *prometheus.HistogramVec
	stageErrors   *prometheus.CounterVec

	dragStarts    prometheus.Counter
	dragMoves     prometheus.Counter
	dragRerouted  prometheus.Counter
	dragDuration  prometheus.Histogram

	cacheHits   *prometheus.CounterVec
	cacheMisses *prometheus.CounterVec
	cacheBytes  *prometheus.CounterVec
}

// newServerMetrics creates the metric set on the given registry.
func newServerMetrics(reg prometheus.Registerer) *serverMetrics {
	factory := promauto.With(reg)
	return &serverMetrics{
		stageDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: appName,
			Name:      "pipeline_stage_duration_seconds",
			Help:      "Duration of pipeline stages.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"stage"}),
		stageErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: appName,
			Name:      "pipeline_stage_errors_total",
			Help:      "Pipeline stage failures.",
		}, []string{"stage"}),
		dragStarts: factory.NewCounter(prometheus.CounterOpts{
			Namespace: appName,
			Name:      "drag_starts_total",
			Help:      "Drag sessions started.",
		}),
		dragMoves: factory.NewCounter(prometheus.CounterOpts{
			Namespace: appName,
			Name:      "drag_moves_total",
			Help:      "Incremental drag moves.",
		}),
		dragRerouted: factory.NewCounter(prometheus.CounterOpts{
			Namespace: appName,
			Name:      "drag_rerouted_edges_total",
			Help:      "Edges re-routed during drag moves.",
		}),
		dragDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: appName,
			Name:      "drag_duration_seconds",
			Help:      "Duration of completed drags.",
			Buckets:   prometheus.DefBuckets,
		}),
		cacheHits: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: appName,
			Name:      "cache_hits_total",
			Help:      "Cache hits by key type.",
		}, []string{"key_type"}),
		cacheMisses: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: appName,
			Name:      "cache_misses_total",
			Help:      "Cache misses by key type.",
		}, []string{"key_type"}),
		cacheBytes: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: appName,
			Name:      "cache_written_bytes_total",
			Help:      "Bytes written to the cache by key type.",
		}, []string{"key_type"}),
	}
}

// register installs the metrics as the global observability hooks.
func (m *serverMetrics) register() {
	observability.SetPipelineHooks(m)
	observability.SetDragHooks(m)
	observability.SetCacheHooks(m)
}

// Pipeline hooks

func (m *serverMetrics) OnBuildStart(context.Context, int) {}

func (m *serverMetrics) OnBuildComplete(_ context.Context, _ int, d time.Duration, err error) {
	m.observeStage("build", d, err)
}

func (m *serverMetrics) OnLayoutStart(context.Context, string, int) {}

func (m *serverMetrics) OnLayoutComplete(_ context.Context, _ string, d time.Duration, err error) {
	m.observeStage("layout", d, err)
}

func (m *serverMetrics) OnRouteStart(context.Context, int) {}

func (m *serverMetrics) OnRouteComplete(_ context.Context, _, _ int, d time.Duration, err error) {
	m.observeStage("route", d, err)
}

func (m *serverMetrics) observeStage(stage string, d time.Duration, err error) {
	m.stageDuration.WithLabelValues(stage).Observe(d.Seconds())
	if err != nil {
		m.stageErrors.WithLabelValues(stage).Inc()
	}
}

// Drag hooks

func (m *serverMetrics) OnDragStart(context.Context, string, int) {
	m.dragStarts.Inc()
}

func (m *serverMetrics) OnDragMove(_ context.Context, _ string, rerouted int) {
	m.dragMoves.Inc()
	m.dragRerouted.Add(float64(rerouted))
}

func (m *serverMetrics) OnDragEnd(_ context.Context, _ string, d time.Duration) {
	m.dragDuration.Observe(d.Seconds())
}

// Cache hooks

func (m *serverMetrics) OnCacheHit(_ context.Context, keyType string) {
	m.cacheHits.WithLabelValues(keyType).Inc()
}

func (m *serverMetrics) OnCacheMiss(_ context.Context, keyType string) {
	m.cacheMisses.WithLabelValues(keyType).Inc()
}

func (m *serverMetrics) OnCacheSet(_ context.Context, keyType string, size int) {
	m.cacheBytes.WithLabelValues(keyType).Add(float64(size))
}

var (
	_ observability.PipelineHooks = (*serverMetrics)(nil)
	_ observability.DragHooks     = (*serverMetrics)(nil)
	_ observability.CacheHooks    = (*serverMetrics)(nil)
)
