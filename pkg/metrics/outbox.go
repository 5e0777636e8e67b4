package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Outbox publish outcomes per row.
const (
	PublishPublished    = "published"
	PublishFailed       = "failed"
	PublishHeld         = "held"
	PublishDeadLettered = "dead_lettered"
)

// OutboxMetrics follows rows through the outbox publisher.
type OutboxMetrics struct {
	rows         *prometheus.CounterVec
	deadLettered *prometheus.CounterVec
	lag          *prometheus.HistogramVec
}

func NewOutboxMetrics(reg prometheus.Registerer) *OutboxMetrics {
	if reg == nil {
		return &OutboxMetrics{}
	}
	rows := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "backoffice_outbox_rows_total",
		Help: "Outbox rows handled by the publisher, by outcome.",
	}, []string{"event_type", "outcome"})
	deadLettered := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "backoffice_outbox_dead_lettered_total",
		Help: "Outbox rows moved to the dead-letter table.",
	}, []string{"event_type", "reason"})
	lag := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "backoffice_outbox_publish_lag_seconds",
		Help:    "Time from outbox insert to a successful publish.",
		Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 15, 60, 300},
	}, []string{"event_type"})
	reg.MustRegister(rows, deadLettered, lag)
	return &OutboxMetrics{rows: rows, deadLettered: deadLettered, lag: lag}
}

func (m *OutboxMetrics) IncRow(eventType, outcome string) {
	if m == nil || m.rows == nil {
		return
	}
	m.rows.WithLabelValues(normalizeLabel(eventType), normalizeLabel(outcome)).Inc()
}

func (m *OutboxMetrics) IncDeadLettered(eventType, reason string) {
	if m == nil || m.deadLettered == nil {
		return
	}
	m.deadLettered.WithLabelValues(normalizeLabel(eventType), normalizeLabel(reason)).Inc()
}

// ObservePublishLag ignores negative lags from clock skew between writers.
func (m *OutboxMetrics) ObservePublishLag(eventType string, lag time.Duration) {
	if m == nil || m.lag == nil || lag < 0 {
		return
	}
	m.lag.WithLabelValues(normalizeLabel(eventType)).Observe(lag.Seconds())
}
