package metricsvc

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/festportal/backend/core/registration"
)

const namespace = "festportal"

// Prometheus counts registrations, confirmation emails and check-ins.
type Prometheus struct {
	registry      *prometheus.Registry
	registrations *prometheus.CounterVec
	notifications *prometheus.CounterVec
	checkIns      *prometheus.CounterVec
}

var _ registration.Recorder = (*Prometheus)(nil)

func NewPrometheus() *Prometheus {
	p := &Prometheus{
		registry: prometheus.NewRegistry(),
		registrations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "registrations_total",
			Help:      "Registration attempts by event and outcome.",
		}, []string{"event", "outcome"}),
		notifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_total",
			Help:      "Confirmation emails by event and whether they were sent.",
		}, []string{"event", "sent"}),
		checkIns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "checkins_total",
			Help:      "Check-in attempts by outcome.",
		}, []string{"outcome"}),
	}
	p.registry.MustRegister(
		p.registrations,
		p.notifications,
		p.checkIns,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return p
}

func (p *Prometheus) Registration(eventID, outcome string) {
	p.registrations.WithLabelValues(eventID, outcome).Inc()
}

func (p *Prometheus) Notification(eventID string, sent bool) {
	p.notifications.WithLabelValues(eventID, strconv.FormatBool(sent)).Inc()
}

func (p *Prometheus) CheckIn(outcome string) {
	p.checkIns.WithLabelValues(outcome).Inc()
}

// Handler exposes the collected metrics in the Prometheus text format.
func (p *Prometheus) Handler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{})
}

// Gatherer is used by tests to inspect counters.
func (p *Prometheus) Gatherer() prometheus.Gatherer {
	return p.registry
}
