package pipeline

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"take-my-dictation/internal/app/model"
)

// Metrics records pipeline outcomes. A nil *Metrics records nothing.
type Metrics struct {
	outcomes *prometheus.CounterVec
	attempts prometheus.Histogram
	retries  *prometheus.CounterVec
	scores   prometheus.Histogram
	rejected prometheus.Counter
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		outcomes: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "dictation",
			Subsystem: "pipeline",
			Name:      "results_total",
			Help:      "Pipeline results by outcome.",
		}, []string{"outcome"}),
		attempts: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "dictation",
			Subsystem: "pipeline",
			Name:      "attempts",
			Help:      "Parameter-sweep attempts per request.",
			Buckets:   prometheus.LinearBuckets(1, 1, 5),
		}),
		retries: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "dictation",
			Subsystem: "pipeline",
			Name:      "transport_retries_total",
			Help:      "Recognizer calls retried after a transport failure, by error kind.",
		}, []string{"kind"}),
		scores: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "dictation",
			Subsystem: "pipeline",
			Name:      "confidence_score",
			Help:      "Confidence score of every evaluated attempt.",
			Buckets:   prometheus.LinearBuckets(0.1, 0.1, 10),
		}),
		rejected: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "dictation",
			Subsystem: "pipeline",
			Name:      "invalid_audio_total",
			Help:      "Requests rejected as invalid audio.",
		}),
	}
}

func (m *Metrics) observeResult(r model.TranscriptionResult) {
	if m == nil {
		return
	}
	m.outcomes.WithLabelValues(r.Outcome().String()).Inc()
	m.attempts.Observe(float64(r.Summary().AttemptsMade))
}

func (m *Metrics) observeScore(score float64) {
	if m == nil {
		return
	}
	m.scores.Observe(score)
}

func (m *Metrics) observeRetry(kind string) {
	if m == nil {
		return
	}
	m.retries.WithLabelValues(kind).Inc()
}

func (m *Metrics) observeError(outcome string) {
	if m == nil {
		return
	}
	if outcome == "invalid_audio" {
		m.rejected.Inc()
	}
	m.outcomes.WithLabelValues(outcome).Inc()
}
