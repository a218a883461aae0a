// Package metrics provides Prometheus metrics for the pixelbliss pipeline.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Manager owns all Prometheus collectors for the pipeline.
type Manager struct {
	namespace string
	registry  *prometheus.Registry

	// Generation
	candidatesGenerated prometheus.Counter
	slotFailures        prometheus.Counter
	variantsFailed      prometheus.Counter

	// Gating and scoring
	gateRejections prometheus.Counter
	fallbackScores prometheus.Counter

	// Selection
	duplicatesSkipped prometheus.Counter
	runsByOutcome     *prometheus.CounterVec

	// Stage performance
	stageDuration *prometheus.HistogramVec

	// Output
	compressedBytes prometheus.Histogram
	postsTotal      prometheus.Counter
}

// Option applies a configuration option to the Manager.
type Option func(*Manager)

// WithNamespace overrides the metric namespace.
func WithNamespace(ns string) Option {
	return func(m *Manager) {
		if ns != "" {
			m.namespace = ns
		}
	}
}

// WithRegistry sets a custom Prometheus registry.
func WithRegistry(r *prometheus.Registry) Option {
	return func(m *Manager) {
		if r != nil {
			m.registry = r
		}
	}
}

// NewManager creates a metrics manager and registers all collectors.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace: "pixelbliss",
		registry:  prometheus.NewRegistry(),
	}
	for _, opt := range opts {
		opt(m)
	}

	factory := promauto.With(m.registry)

	m.candidatesGenerated = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: "fanout",
		Name: "candidates_generated_total",
		Help: "Candidates produced across all variants and slots.",
	})
	m.slotFailures = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: "fanout",
		Name: "slot_failures_total",
		Help: "Generation slots that produced no image (primary and fallback).",
	})
	m.variantsFailed = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: "fanout",
		Name: "variants_failed_total",
		Help: "Prompt variants whose every slot failed.",
	})
	m.gateRejections = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: "quality",
		Name: "gate_rejections_total",
		Help: "Candidates rejected by sanity or local-quality floors.",
	})
	m.fallbackScores = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: "scoring",
		Name: "fallback_scores_total",
		Help: "Aesthetic scores substituted with the neutral fallback.",
	})
	m.duplicatesSkipped = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: "dedupe",
		Name: "duplicates_skipped_total",
		Help: "Ranked candidates skipped as near-duplicates of history.",
	})
	m.runsByOutcome = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: "pipeline",
		Name: "runs_total",
		Help: "Pipeline runs by terminal outcome.",
	}, []string{"outcome"})
	m.stageDuration = factory.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: "pipeline",
		Name:    "stage_duration_seconds",
		Help:    "Wall time per pipeline stage.",
		Buckets: prometheus.ExponentialBuckets(0.01, 2, 14),
	}, []string{"stage"})
	m.compressedBytes = factory.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: "compress",
		Name:    "output_bytes",
		Help:    "Serialized size of compressed upload images.",
		Buckets: prometheus.ExponentialBuckets(64*1024, 2, 8),
	})
	m.postsTotal = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: "social",
		Name: "posts_total",
		Help: "Successful posts.",
	})

	return m
}

// Handler returns an HTTP handler exposing the manager's registry.
func (m *Manager) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Global manager instance.
var globalManager = NewManager() //nolint:gochecknoglobals // singleton metrics manager

// Handler exposes the global registry.
func Handler() http.Handler { return globalManager.Handler() }

// Package-level recording helpers, mirroring the manager's collectors.

func RecordCandidatesGenerated(n int) { globalManager.candidatesGenerated.Add(float64(n)) }
func RecordSlotFailure()              { globalManager.slotFailures.Inc() }
func RecordVariantFailed()            { globalManager.variantsFailed.Inc() }
func RecordGateRejection()            { globalManager.gateRejections.Inc() }
func RecordFallbackScore()            { globalManager.fallbackScores.Inc() }
func RecordDuplicateSkipped()         { globalManager.duplicatesSkipped.Inc() }
func RecordPost()                     { globalManager.postsTotal.Inc() }

func RecordRunOutcome(outcome string) {
	globalManager.runsByOutcome.WithLabelValues(outcome).Inc()
}

func RecordStageDuration(stage string, seconds float64) {
	globalManager.stageDuration.WithLabelValues(stage).Observe(seconds)
}

func RecordCompressedBytes(n int) {
	globalManager.compressedBytes.Observe(float64(n))
}
