// Package metrics holds the service's Prometheus collectors.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Booking outcomes.
const (
	OutcomeCreated  = "created"
	OutcomeConflict = "conflict"
	OutcomePastDate = "past_date"
	OutcomeInvalid  = "invalid"
)

// Metrics methods are safe on a nil receiver so callers can run without a registry.
type Metrics struct {
	registry      *prometheus.Registry
	bookings      *prometheus.CounterVec
	bestEffort    *prometheus.CounterVec
	notifications *prometheus.CounterVec
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		bookings: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "salon_bookings_total",
			Help: "Booking create attempts by outcome.",
		}, []string{"outcome"}),
		bestEffort: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "salon_best_effort_failures_total",
			Help: "Failed best-effort steps by step name.",
		}, []string{"step"}),
		notifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "salon_notifications_total",
			Help: "Notification attempts by kind and result.",
		}, []string{"kind", "result"}),
	}
	reg.MustRegister(
		m.bookings,
		m.bestEffort,
		m.notifications,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

func (m *Metrics) Booking(outcome string) {
	if m == nil {
		return
	}
	m.bookings.WithLabelValues(outcome).Inc()
}

func (m *Metrics) BestEffortFailure(step string) {
	if m == nil {
		return
	}
	m.bestEffort.WithLabelValues(step).Inc()
}

func (m *Metrics) Notification(kind string, err error) {
	if m == nil {
		return
	}
	result := "sent"
	if err != nil {
		result = "failed"
	}
	m.notifications.WithLabelValues(kind, result).Inc()
}

func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
