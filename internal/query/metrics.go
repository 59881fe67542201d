package query

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the query pipeline collectors. A nil *Metrics records nothing.
type Metrics struct {
	Runs        *prometheus.CounterVec
	Attempts    *prometheus.CounterVec
	RunDuration *prometheus.HistogramVec
	ModelCalls  *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them when reg is non-nil.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Runs: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "codegraph",
				Subsystem: "query",
				Name:      "runs_total",
				Help:      "Total number of answered questions by intent and result kind",
			},
			[]string{"intent", "outcome"},
		),
		Attempts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "codegraph",
				Subsystem: "query",
				Name:      "attempts_total",
				Help:      "Total number of generated query executions by status",
			},
			[]string{"status"},
		),
		RunDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "codegraph",
				Subsystem: "query",
				Name:      "run_duration_seconds",
				Help:      "End-to-end question answering duration in seconds",
				Buckets:   []float64{0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
			},
			[]string{"intent"},
		),
		ModelCalls: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "codegraph",
				Subsystem: "model",
				Name:      "calls_total",
				Help:      "Total number of language model calls by purpose and status",
			},
			[]string{"purpose", "status"},
		),
	}
	if reg != nil {
		reg.MustRegister(m.Runs, m.Attempts, m.RunDuration, m.ModelCalls)
	}
	return m
}

func (m *Metrics) observeRun(run QueryRun) {
	if m == nil {
		return
	}
	intent := run.Intent.String()
	m.Runs.WithLabelValues(intent, string(run.Result.Kind)).Inc()
	m.RunDuration.WithLabelValues(intent).Observe(run.Duration.Seconds())
}

func (m *Metrics) observeAttempt(status AttemptStatus) {
	if m == nil {
		return
	}
	m.Attempts.WithLabelValues(string(status)).Inc()
}

func (m *Metrics) observeModelCall(purpose string, err error) {
	if m == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.ModelCalls.WithLabelValues(purpose, status).Inc()
}

// instrumentedModel counts calls made through a ModelClient.
type instrumentedModel struct {
	next    ModelClient
	purpose string
	metrics *Metrics
}

func instrument(model ModelClient, purpose string, metrics *Metrics) ModelClient {
	if metrics == nil {
		return model
	}
	return &instrumentedModel{next: model, purpose: purpose, metrics: metrics}
}

func (m *instrumentedModel) Complete(ctx context.Context, prompt string) (string, error) {
	completion, err := m.next.Complete(ctx, prompt)
	m.metrics.observeModelCall(m.purpose, err)
	return completion, err
}
