// Package metrics exposes wizard activity as Prometheus metrics.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"plancraft/internal/wizard"
)

const namespace = "plancraft"

// Collector implements wizard.Observer.
type Collector struct {
	events         *prometheus.CounterVec
	submits        *prometheus.CounterVec
	submitDuration *prometheus.HistogramVec
}

var _ wizard.Observer = (*Collector)(nil)

// New registers the wizard metrics on reg. A nil reg uses the default
// registerer. Registering twice on the same registry panics.
func New(reg prometheus.Registerer) *Collector {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Collector{
		events: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "wizard",
			Name:      "events_total",
			Help:      "Wizard events dispatched, by wizard kind, event and outcome.",
		}, []string{"wizard", "event", "outcome"}),
		submits: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "wizard",
			Name:      "submits_total",
			Help:      "Submit calls that reached the execution service, by outcome.",
		}, []string{"wizard", "outcome"}),
		submitDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "wizard",
			Name:      "submit_duration_seconds",
			Help:      "Time spent waiting on the execution service during submit.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"wizard"}),
	}
}

// ObserveEvent counts one dispatched event.
func (c *Collector) ObserveEvent(wizardKind, event, outcome string) {
	c.events.WithLabelValues(wizardKind, event, outcome).Inc()
}

// ObserveSubmit counts a resolved submit and records its latency.
func (c *Collector) ObserveSubmit(wizardKind, outcome string, took time.Duration) {
	c.submits.WithLabelValues(wizardKind, outcome).Inc()
	c.submitDuration.WithLabelValues(wizardKind).Observe(took.Seconds())
}
