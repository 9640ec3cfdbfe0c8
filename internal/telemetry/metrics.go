package telemetry

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the summary relay. A nil *Metrics
// records nothing.
type Metrics struct {
	RequestTotal       *prometheus.CounterVec
	RequestDurationMs  *prometheus.HistogramVec
	StageDurationMs    *prometheus.HistogramVec
	QuotaDecisionTotal *prometheus.CounterVec
	RelayFrameTotal    *prometheus.CounterVec
	ScreeningFlagTotal *prometheus.CounterVec
	CacheLookupTotal   *prometheus.CounterVec
}

// NewMetrics creates all metrics and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		RequestTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "thoth_request_total",
			Help: "Summary requests by language and outcome.",
		}, []string{"language", "outcome"}),

		RequestDurationMs: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "thoth_request_duration_ms",
			Help:    "Time from admission to the end of the stream in milliseconds.",
			Buckets: []float64{100, 500, 1000, 2500, 5000, 10000, 30000, 60000, 120000},
		}, []string{"outcome"}),

		StageDurationMs: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "thoth_stage_duration_ms",
			Help:    "Transcript provider stage duration in milliseconds.",
			Buckets: []float64{50, 100, 250, 500, 1000, 2500, 5000, 10000, 20000},
		}, []string{"stage"}),

		QuotaDecisionTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "thoth_quota_decision_total",
			Help: "Quota admission decisions.",
		}, []string{"decision"}),

		RelayFrameTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "thoth_relay_frame_total",
			Help: "Upstream completion stream frames by kind.",
		}, []string{"provider", "kind"}),

		ScreeningFlagTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "thoth_screening_flag_total",
			Help: "Transcripts flagged by the injection screen.",
		}, []string{"rule"}),

		CacheLookupTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "thoth_transcript_cache_total",
			Help: "Transcript cache lookups.",
		}, []string{"result"}),
	}
}

// RequestLabels holds the label values for recording a finished request.
type RequestLabels struct {
	Language   string
	Outcome    string
	DurationMs float64
}

func (m *Metrics) RecordRequest(labels RequestLabels) {
	if m == nil {
		return
	}
	m.RequestTotal.WithLabelValues(labels.Language, labels.Outcome).Inc()
	m.RequestDurationMs.WithLabelValues(labels.Outcome).Observe(labels.DurationMs)
}

func (m *Metrics) RecordStage(stage string, d time.Duration) {
	if m == nil {
		return
	}
	m.StageDurationMs.WithLabelValues(stage).Observe(float64(d.Milliseconds()))
}

func (m *Metrics) RecordQuotaDecision(decision string) {
	if m == nil {
		return
	}
	m.QuotaDecisionTotal.WithLabelValues(decision).Inc()
}

func (m *Metrics) RecordRelayFrame(provider, kind string) {
	if m == nil {
		return
	}
	m.RelayFrameTotal.WithLabelValues(provider, kind).Inc()
}

func (m *Metrics) RecordScreeningFlag(rule string) {
	if m == nil {
		return
	}
	m.ScreeningFlagTotal.WithLabelValues(rule).Inc()
}

func (m *Metrics) RecordCacheLookup(hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.CacheLookupTotal.WithLabelValues(result).Inc()
}
