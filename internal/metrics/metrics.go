// Package metrics exposes Prometheus counters for the member auth flows.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcome labels.
const (
	OutcomeSuccess  = "success"
	OutcomeRejected = "rejected"
	OutcomeError    = "error"
)

// Event labels.
const (
	EventJoin        = "join"
	EventLogin       = "login"
	EventLogout      = "logout"
	EventRefresh     = "refresh"
	EventApplyMentor = "apply_mentor"
)

// Auth counts auth flow outcomes on its own registry.  A nil *Auth
// ignores observations.
type Auth struct {
	registry *prometheus.Registry
	events   *prometheus.CounterVec
}

// NewAuth registers the auth counters plus the Go and process collectors.
func NewAuth() *Auth {
	reg := prometheus.NewRegistry()
	events := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "goodjob",
		Name:      "auth_events_total",
		Help:      "Member auth flow requests by event and outcome.",
	}, []string{"event", "outcome"})
	reg.MustRegister(
		events,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return &Auth{registry: reg, events: events}
}

// Observe increments the counter for event/outcome.
func (a *Auth) Observe(event, outcome string) {
	if a == nil {
		return
	}
	a.events.WithLabelValues(event, outcome).Inc()
}

// Counter returns the counter behind event/outcome.  A nil *Auth returns a
// detached counter that nothing exposes.
func (a *Auth) Counter(event, outcome string) prometheus.Counter {
	if a == nil {
		return prometheus.NewCounter(prometheus.CounterOpts{Name: "auth_events_detached"})
	}
	return a.events.WithLabelValues(event, outcome)
}

// Handler serves the registry in the Prometheus text format.
func (a *Auth) Handler() http.Handler {
	return promhttp.HandlerFor(a.registry, promhttp.HandlerOpts{})
}
