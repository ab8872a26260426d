package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/awmpietro/golang-execution-graph/internal/workflow"
)

// Collector records render requests and replay outcomes. It implements
// workflow.UpdateObserver.
type Collector struct {
	renderRequests  *prometheus.CounterVec
	renderDuration  prometheus.Histogram
	replayEvents    *prometheus.CounterVec
	replayUnmatched prometheus.Counter
	replayMalformed prometheus.Counter
}

func NewCollector(reg prometheus.Registerer) *Collector {
	factory := promauto.With(reg)
	return &Collector{
		renderRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "workflow_render_requests_total",
				Help: "Total number of render requests by outcome",
			},
			[]string{"outcome"},
		),
		renderDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "workflow_render_duration_seconds",
				Help:    "Compile and replay duration in seconds",
				Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5},
			},
		),
		replayEvents: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "workflow_replay_events_total",
				Help: "Status writes attempted during replay by event type",
			},
			[]string{"type"},
		),
		replayUnmatched: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "workflow_replay_unmatched_total",
				Help: "Status writes that found no node in the graph",
			},
		),
		replayMalformed: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "workflow_replay_malformed_total",
				Help: "State outputs that were not valid JSON",
			},
		),
	}
}

func (c *Collector) ObserveUpdate(u workflow.Update) {
	c.replayEvents.WithLabelValues(u.EventType).Inc()
	if !u.Matched {
		c.replayUnmatched.Inc()
	}
}

func (c *Collector) ObserveRender(outcome string, report workflow.Report, duration time.Duration) {
	c.renderRequests.WithLabelValues(outcome).Inc()
	c.renderDuration.Observe(duration.Seconds())
	if report.Malformed > 0 {
		c.replayMalformed.Add(float64(report.Malformed))
	}
}
