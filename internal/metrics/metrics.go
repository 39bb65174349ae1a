package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "crmbot"

// Metrics groups all Prometheus instruments used by the service. A nil
// *Metrics is valid and records nothing.
type Metrics struct {
	registry prometheus.Gatherer

	Messages      *prometheus.CounterVec
	LoopSteps     prometheus.Histogram
	LoopOutcomes  *prometheus.CounterVec
	ToolCalls     *prometheus.CounterVec
	Confirmations *prometheus.CounterVec
	LLMErrors     *prometheus.CounterVec
	LLMLatency    prometheus.Histogram
	Sessions      prometheus.Gauge
	Pending       prometheus.Gauge
}

// New registers the instruments on reg. Pass nil to use a fresh registry.
func New(reg *prometheus.Registry) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	}
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		Messages: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_total",
			Help:      "Inbound messages by transport.",
		}, []string{"transport"}),
		LoopSteps: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "loop_steps",
			Help:      "LLM calls made per orchestration turn.",
			Buckets:   []float64{1, 2, 3, 4, 5, 6, 8, 10},
		}),
		LoopOutcomes: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "loop_outcomes_total",
			Help:      "Orchestration turns by outcome.",
		}, []string{"outcome"}),
		ToolCalls: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tool_calls_total",
			Help:      "Tool executions by tool and result.",
		}, []string{"tool", "result"}),
		Confirmations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "confirmations_total",
			Help:      "Replies to pending actions by verdict.",
		}, []string{"verdict"}),
		LLMErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "llm_errors_total",
			Help:      "Failed LLM calls by provider.",
		}, []string{"provider"}),
		LLMLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "llm_latency_ms",
			Help:      "LLM call latency in milliseconds.",
			Buckets:   []float64{250, 500, 1000, 2000, 4000, 8000, 16000, 32000},
		}),
		Sessions: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "sessions",
			Help:      "Live conversation sessions.",
		}),
		Pending: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pending_actions",
			Help:      "Actions waiting for confirmation.",
		}),
	}
}

func (m *Metrics) Message(transport string) {
	if m == nil {
		return
	}
	m.Messages.WithLabelValues(transport).Inc()
}

func (m *Metrics) Turn(outcome string, steps int) {
	if m == nil {
		return
	}
	m.LoopOutcomes.WithLabelValues(outcome).Inc()
	m.LoopSteps.Observe(float64(steps))
}

func (m *Metrics) Tool(name string, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.ToolCalls.WithLabelValues(name, result).Inc()
}

func (m *Metrics) Confirmation(verdict string) {
	if m == nil {
		return
	}
	m.Confirmations.WithLabelValues(verdict).Inc()
}

func (m *Metrics) LLMCall(provider string, d time.Duration, err error) {
	if m == nil {
		return
	}
	m.LLMLatency.Observe(float64(d.Milliseconds()))
	if err != nil {
		m.LLMErrors.WithLabelValues(provider).Inc()
	}
}

func (m *Metrics) SetState(sessions, pending int) {
	if m == nil {
		return
	}
	m.Sessions.Set(float64(sessions))
	m.Pending.Set(float64(pending))
}

func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
