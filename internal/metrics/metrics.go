// Package metrics exposes the middleware's operational counters as
// Prometheus collectors, served on an optional HTTP endpoint.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics bundles the collectors for one middleware instance. Each
// instance owns its registry, so multiple nodes can live in one process
// (tests, loopback demos) without collisions.
type Metrics struct {
	registry *prometheus.Registry

	GrantsIssued       prometheus.Counter
	Denials            *prometheus.CounterVec
	PeerCalls          *prometheus.CounterVec
	ActiveReservations prometheus.Gauge
	ConsentRequests    prometheus.Counter
}

// New builds a metrics set registered on a fresh registry.
func New(node string) *Metrics {
	reg := prometheus.NewRegistry()
	labels := prometheus.Labels{"node": node}

	m := &Metrics{
		registry: reg,
		GrantsIssued: prometheus.NewCounter(prometheus.CounterOpts{
			Name:        "trace2e_grants_issued_total",
			Help:        "I/O grants issued by the compliance engine.",
			ConstLabels: labels,
		}),
		Denials: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "trace2e_denials_total",
			Help:        "I/O requests denied, by reason.",
			ConstLabels: labels,
		}, []string{"reason"}),
		PeerCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "trace2e_peer_calls_total",
			Help:        "Outbound M2M calls, by method and outcome.",
			ConstLabels: labels,
		}, []string{"method", "outcome"}),
		ActiveReservations: prometheus.NewGauge(prometheus.GaugeOpts{
			Name:        "trace2e_active_reservations",
			Help:        "Flow reservations currently held.",
			ConstLabels: labels,
		}),
		ConsentRequests: prometheus.NewCounter(prometheus.CounterOpts{
			Name:        "trace2e_consent_requests_total",
			Help:        "Consent notifications emitted to resource owners.",
			ConstLabels: labels,
		}),
	}
	reg.MustRegister(m.GrantsIssued, m.Denials, m.PeerCalls, m.ActiveReservations, m.ConsentRequests)
	return m
}

// Handler serves the registry in Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// PeerCall records one outbound M2M call.
func (m *Metrics) PeerCall(method string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.PeerCalls.WithLabelValues(method, outcome).Inc()
}
