package resource

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics is an Observer exporting handle lifecycle metrics.
type Metrics struct {
	// live tracks handles currently owned by callers, by resource type
	live *prometheus.GaugeVec
	// events counts lifecycle events by resource type and event
	events *prometheus.CounterVec
}

// NewMetrics registers the handle metrics with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		live: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "crabhttp_handles_live",
				Help: "Number of live handles by resource type",
			},
			[]string{"type"},
		),
		events: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "crabhttp_handle_events_total",
				Help: "Total handle lifecycle events by resource type and event",
			},
			[]string{"type", "event"},
		),
	}
}

// OnResourceEvent implements Observer.
func (m *Metrics) OnResourceEvent(e Event) {
	typ := e.TypeID.String()
	m.events.WithLabelValues(typ, e.Type.String()).Inc()

	switch e.Type {
	case EventCreated:
		m.live.WithLabelValues(typ).Inc()
	case EventDropped, EventTaken:
		m.live.WithLabelValues(typ).Dec()
	}
}
