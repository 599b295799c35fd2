package provider

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"take-my-dictation/internal/app/errors"
)

// Metrics records per-provider recognizer calls.
type Metrics struct {
	requests *prometheus.CounterVec
	latency  *prometheus.HistogramVec
}

// NewMetrics registers the recognizer collectors on reg. A nil reg creates
// unregistered collectors, which is what tests and one-shot CLI runs want.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		requests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "dictation",
			Subsystem: "recognizer",
			Name:      "requests_total",
			Help:      "Recognizer calls by provider and result (success or error kind).",
		}, []string{"provider", "result"}),
		latency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "dictation",
			Subsystem: "recognizer",
			Name:      "request_duration_seconds",
			Help:      "Recognizer call latency.",
			Buckets:   prometheus.ExponentialBuckets(0.25, 2, 10),
		}, []string{"provider"}),
	}
}

// RecordSuccess records a successful recognizer call
func (m *Metrics) RecordSuccess(provider string, latency time.Duration) {
	m.requests.WithLabelValues(provider, "success").Inc()
	m.latency.WithLabelValues(provider).Observe(latency.Seconds())
}

// RecordFailure records a failed recognizer call by error kind
func (m *Metrics) RecordFailure(provider string, kind ErrorKind, latency time.Duration) {
	m.requests.WithLabelValues(provider, string(kind)).Inc()
	m.latency.WithLabelValues(provider).Observe(latency.Seconds())
}

// InstrumentedRecognizer wraps a recognizer with call metrics.
type InstrumentedRecognizer struct {
	next    Recognizer
	metrics *Metrics
	name    string
}

func Instrument(next Recognizer, metrics *Metrics) *InstrumentedRecognizer {
	return &InstrumentedRecognizer{next: next, metrics: metrics, name: next.GetProviderInfo().Name}
}

func (r *InstrumentedRecognizer) Recognize(ctx context.Context, request *RecognitionRequest) (*RecognitionResponse, error) {
	start := time.Now()
	resp, err := r.next.Recognize(ctx, request)
	elapsed := time.Since(start)
	if err != nil {
		r.metrics.RecordFailure(r.name, KindOf(err), elapsed)
		return nil, err
	}
	r.metrics.RecordSuccess(r.name, elapsed)
	return resp, nil
}

func (r *InstrumentedRecognizer) GetProviderInfo() ProviderInfo {
	return r.next.GetProviderInfo()
}

// KindOf extracts the error kind, treating context deadlines as timeouts.
func KindOf(err error) ErrorKind {
	var te *TranscriptionError
	switch {
	case errors.As(err, &te):
		return te.Kind
	case errors.Is(err, context.DeadlineExceeded):
		return KindTimeout
	case errors.Is(err, context.Canceled):
		return "canceled"
	default:
		return KindUnknown
	}
}
