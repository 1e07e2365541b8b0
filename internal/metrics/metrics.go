// Package metrics exposes Prometheus counters for extraction, evaluation
// and MCP tool calls. A Collector is a nodegraph.Observer, so wiring it
// into an evaluator is enough to count evaluations and actions.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"pulsegraph/pkg/nodegraph"
)

// Namespace prefixes every metric name.
const Namespace = "pulsegraph"

// Collector holds the pulsegraph metrics and their registry.
type Collector struct {
	registry *prometheus.Registry

	Evaluations     *prometheus.CounterVec // by result: ok, error
	Actions         *prometheus.CounterVec // by action_type
	Extractions     prometheus.Counter
	ExtractDuration prometheus.Histogram
	ExtractSamples  prometheus.Counter
	ToolCalls       *prometheus.CounterVec // by tool, status
}

// NewCollector creates a Collector with its own registry, so several can
// coexist in one process.
func NewCollector() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		Evaluations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "evaluations_total",
			Help:      "Graph evaluations by result.",
		}, []string{"result"}),
		Actions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "actions_emitted_total",
			Help:      "Actions emitted by output nodes, by action type.",
		}, []string{"action_type"}),
		Extractions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "extractions_total",
			Help:      "Feature extractions run.",
		}),
		ExtractDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "extract_duration_seconds",
			Help:      "Feature extraction wall time in seconds.",
			Buckets:   prometheus.DefBuckets,
		}),
		ExtractSamples: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "extract_samples_total",
			Help:      "Audio samples analysed.",
		}),
		ToolCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "mcp_tool_calls_total",
			Help:      "MCP tool calls by tool and status.",
		}, []string{"tool", "status"}),
	}
	c.registry.MustRegister(
		c.Evaluations,
		c.Actions,
		c.Extractions,
		c.ExtractDuration,
		c.ExtractSamples,
		c.ToolCalls,
	)
	return c
}

// Registry returns the registry the metrics live in.
func (c *Collector) Registry() *prometheus.Registry { return c.registry }

// Handler serves the metrics in the Prometheus text format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// OnEvent implements nodegraph.Observer.
func (c *Collector) OnEvent(e nodegraph.EvalEvent) {
	switch e.Type {
	case nodegraph.EventEvalComplete:
		c.Evaluations.WithLabelValues("ok").Inc()
	case nodegraph.EventEvalError:
		c.Evaluations.WithLabelValues("error").Inc()
	case nodegraph.EventActionEmitted:
		if e.Action != nil {
			c.Actions.WithLabelValues(e.Action.ActionType).Inc()
		}
	}
}

// ObserveExtract records one extraction over samples taking d.
func (c *Collector) ObserveExtract(samples int, d time.Duration) {
	c.Extractions.Inc()
	c.ExtractSamples.Add(float64(samples))
	c.ExtractDuration.Observe(d.Seconds())
}

// ObserveTool records one MCP tool call.
func (c *Collector) ObserveTool(tool string, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	c.ToolCalls.WithLabelValues(tool, status).Inc()
}
