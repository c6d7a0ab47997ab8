package core

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics collects the machine's operational counters.
type Metrics struct {
	EventsTotal    *prometheus.CounterVec
	ScrobblesTotal *prometheus.CounterVec
	ErrorsTotal    *prometheus.CounterVec
}

// NewMetrics creates and registers the machine's metrics on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		EventsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "scrobblerbot_events_total",
			Help: "Total number of inbound chat events by kind.",
		}, []string{"kind"}),
		ScrobblesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "scrobblerbot_scrobbles_total",
			Help: "Total number of submission attempts by outcome.",
		}, []string{"outcome"}),
		ErrorsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "scrobblerbot_errors_total",
			Help: "Total number of internal errors by component.",
		}, []string{"component"}),
	}
}
