// Package metrics holds the Prometheus collectors of the NLU engine.
// A nil *Metrics is valid and records nothing, so library packages can be
// used without a registry.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// Pipeline metrics
	ClassificationsTotal   *prometheus.CounterVec
	ModelFailuresTotal     *prometheus.CounterVec
	TaggerOutputsTotal     *prometheus.CounterVec
	MergeOverridesTotal    *prometheus.CounterVec
	CourseResolutionsTotal *prometheus.CounterVec
	AmbiguityEventsTotal   *prometheus.CounterVec
	ProcessDuration        *prometheus.HistogramVec

	// Snapshot metrics
	LexiconSwapsTotal      prometheus.Counter
	SingleflightDedupTotal *prometheus.CounterVec

	// Serving metrics
	SessionsActive     prometheus.Gauge
	HTTPRequestsTotal  *prometheus.CounterVec
	RateLimiterDropped *prometheus.CounterVec
}

// New creates a new Metrics instance with all metrics registered
func New(registry *prometheus.Registry) *Metrics {
	factory := promauto.With(registry)
	return &Metrics{
		ClassificationsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "nlu_classifications_total",
				Help: "Utterances classified, by intent and classification source",
			},
			[]string{"intent", "source"}, // source: model, keyword_no_model, keyword_no_label, keyword_error, single_word, empty
		),
		ModelFailuresTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "nlu_model_failures_total",
				Help: "Model service failures that triggered a deterministic fallback",
			},
			[]string{"service", "kind"}, // kind: timeout, rate_limit, quota, auth, malformed, network, unavailable, unknown
		),
		TaggerOutputsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "nlu_tagger_outputs_total",
				Help: "Sequence tagger outcomes per intent",
			},
			[]string{"intent", "status"}, // status: ok, empty, malformed, error, disabled
		),
		MergeOverridesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "nlu_merge_overrides_total",
				Help: "Slots where the deterministic fallback replaced a tagger value",
			},
			[]string{"slot"},
		),
		CourseResolutionsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "nlu_course_resolutions_total",
				Help: "Course resolutions by the tier that produced the answer",
			},
			[]string{"tier"}, // tier: substring, alias_exact, alias_fuzzy, exact, fuzzy, word, code_roster, code_verbatim, none
		),
		AmbiguityEventsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "nlu_ambiguity_events_total",
				Help: "Ambiguity events by delivery status",
			},
			[]string{"status"}, // status: sent, dropped
		),
		ProcessDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "nlu_process_duration_seconds",
				Help:    "End-to-end utterance processing time",
				Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10},
			},
			[]string{"intent"},
		),
		LexiconSwapsTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "nlu_lexicon_swaps_total",
				Help: "Lexicon/roster snapshots installed",
			},
		),
		SingleflightDedupTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "nlu_singleflight_dedup_total",
				Help: "Calls that shared the result of an in-flight call",
			},
			[]string{"operation"},
		),
		SessionsActive: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "nlu_sessions_active",
				Help: "Per-user engines currently cached",
			},
		),
		HTTPRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "nlu_http_requests_total",
				Help: "HTTP requests by route and status class",
			},
			[]string{"route", "status"},
		),
		RateLimiterDropped: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "nlu_rate_limit_dropped_total",
				Help: "Requests rejected by a rate limiter",
			},
			[]string{"limiter"},
		),
	}
}

// RecordClassification records how an utterance was classified.
func (m *Metrics) RecordClassification(intent, source string) {
	if m == nil {
		return
	}
	m.ClassificationsTotal.WithLabelValues(intent, source).Inc()
}

// RecordModelFailure records a model failure that was absorbed by a fallback.
func (m *Metrics) RecordModelFailure(service, kind string) {
	if m == nil {
		return
	}
	m.ModelFailuresTotal.WithLabelValues(service, kind).Inc()
}

// RecordTaggerOutput records the outcome of a tagger call.
func (m *Metrics) RecordTaggerOutput(intent, status string) {
	if m == nil {
		return
	}
	m.TaggerOutputsTotal.WithLabelValues(intent, status).Inc()
}

// RecordMergeOverride records a fallback value winning over the tagger.
func (m *Metrics) RecordMergeOverride(slot string) {
	if m == nil {
		return
	}
	m.MergeOverridesTotal.WithLabelValues(slot).Inc()
}

// RecordCourseResolution records the tier that resolved a course reference.
func (m *Metrics) RecordCourseResolution(tier string) {
	if m == nil {
		return
	}
	m.CourseResolutionsTotal.WithLabelValues(tier).Inc()
}

// RecordAmbiguityEvent records an ambiguity event delivery attempt.
func (m *Metrics) RecordAmbiguityEvent(status string) {
	if m == nil {
		return
	}
	m.AmbiguityEventsTotal.WithLabelValues(status).Inc()
}

// RecordProcess records end-to-end processing time.
func (m *Metrics) RecordProcess(intent string, seconds float64) {
	if m == nil {
		return
	}
	m.ProcessDuration.WithLabelValues(intent).Observe(seconds)
}

// RecordLexiconSwap records a snapshot replacement.
func (m *Metrics) RecordLexiconSwap() {
	if m == nil {
		return
	}
	m.LexiconSwapsTotal.Inc()
}

// RecordSingleflightDedup records a deduplicated call.
func (m *Metrics) RecordSingleflightDedup(operation string) {
	if m == nil {
		return
	}
	m.SingleflightDedupTotal.WithLabelValues(operation).Inc()
}

// SetSessionsActive updates the cached session gauge.
func (m *Metrics) SetSessionsActive(n int) {
	if m == nil {
		return
	}
	m.SessionsActive.Set(float64(n))
}

// RecordHTTPRequest records a served request.
func (m *Metrics) RecordHTTPRequest(route, status string) {
	if m == nil {
		return
	}
	m.HTTPRequestsTotal.WithLabelValues(route, status).Inc()
}

// RecordRateLimiterDrop records a request dropped by rate limiter
func (m *Metrics) RecordRateLimiterDrop(limiter string) {
	if m == nil {
		return
	}
	m.RateLimiterDropped.WithLabelValues(limiter).Inc()
}
