package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Turn outcomes.
const (
	OutcomeAnswered = "answered"
	OutcomeFailed   = "failed"
	OutcomeRejected = "rejected"
)

type Metrics struct {
	Registry *prometheus.Registry

	TurnsTotal        *prometheus.CounterVec
	TurnDuration      prometheus.Histogram
	RetrievalOutcomes *prometheus.CounterVec
	MalformedOutputs  prometheus.Counter
	BookingIntents    *prometheus.CounterVec
	ActiveSessions    prometheus.Gauge
}

// New registers every collector on a fresh registry, so tests can build as many as they like.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		Registry: reg,
		TurnsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "assistant_turns_total",
				Help: "Total number of conversation turns by outcome",
			},
			[]string{"outcome"},
		),
		TurnDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "assistant_turn_duration_seconds",
				Help:    "Duration of a full reformulate-retrieve-synthesize turn",
				Buckets: []float64{0.25, 0.5, 1, 2, 4, 8, 16, 32},
			},
		),
		RetrievalOutcomes: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "assistant_retrieval_total",
				Help: "Retrieval gate decisions",
			},
			[]string{"result"},
		),
		MalformedOutputs: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "assistant_malformed_model_outputs_total",
				Help: "Synthesis replies that could not be parsed and were passed through as raw text",
			},
		),
		BookingIntents: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "assistant_booking_intents_total",
				Help: "Turns classified as booking requests, by municipality",
			},
			[]string{"municipality"},
		),
		ActiveSessions: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "assistant_active_sessions",
				Help: "Number of open WebSocket sessions",
			},
		),
	}
}

func (m *Metrics) ObserveTurn(outcome string, started time.Time) {
	m.TurnsTotal.WithLabelValues(outcome).Inc()
	m.TurnDuration.Observe(time.Since(started).Seconds())
}

func (m *Metrics) ObserveRetrieval(found bool) {
	if found {
		m.RetrievalOutcomes.WithLabelValues("found").Inc()
		return
	}
	m.RetrievalOutcomes.WithLabelValues("not_found").Inc()
}
