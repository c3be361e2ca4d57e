package sms

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics records per-provider send attempts. A nil *Metrics is a no-op.
type Metrics struct {
	attempts  *prometheus.CounterVec
	duration  *prometheus.HistogramVec
	exhausted prometheus.Counter
}

// NewMetrics registers the pool metrics with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		attempts: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "smspool",
				Name:      "provider_attempts_total",
				Help:      "Send attempts per provider and outcome.",
			},
			[]string{"provider_name", "outcome"}, // outcome: sent, failed, error
		),
		duration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "smspool",
				Name:      "provider_attempt_duration_seconds",
				Help:      "Duration of a single provider send attempt.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"provider_name"},
		),
		exhausted: f.NewCounter(prometheus.CounterOpts{
			Namespace: "smspool",
			Name:      "messages_exhausted_total",
			Help:      "Messages that failed on every registered provider.",
		}),
	}
}

func (m *Metrics) observeAttempt(provider, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.attempts.WithLabelValues(provider, outcome).Inc()
	m.duration.WithLabelValues(provider).Observe(d.Seconds())
}

func (m *Metrics) observeExhausted() {
	if m == nil {
		return
	}
	m.exhausted.Inc()
}
