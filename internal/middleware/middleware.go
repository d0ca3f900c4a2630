// Package middleware wires the traceability kernel together and exposes
// the three dispatch surfaces: P2M for processes, M2M for peers, O2M for
// operators. One Middleware value is one node.
package middleware

import (
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/trace2e-io/trace2e/internal/audit"
	"github.com/trace2e-io/trace2e/internal/compliance"
	"github.com/trace2e-io/trace2e/internal/consent"
	"github.com/trace2e-io/trace2e/internal/metrics"
	"github.com/trace2e-io/trace2e/internal/naming"
	"github.com/trace2e-io/trace2e/internal/provenance"
	"github.com/trace2e-io/trace2e/internal/registry"
	"github.com/trace2e-io/trace2e/internal/sequencer"
	"github.com/trace2e-io/trace2e/internal/transport"
)

// Surface-level request errors. These reach the wire as gRPC errors, not
// as denial sentinels.
var (
	ErrMalformedRequest = errors.New("middleware: malformed request")
	ErrUnknownHandle    = errors.New("middleware: handle not enrolled")
)

// reserveRemoteTTL bounds how long a ReserveRemote hold survives when the
// writer never follows up with a provenance sync (the write was denied or
// the writer died).
const reserveRemoteTTL = 10 * time.Second

// Config carries the knobs a node needs. Zero values get defaults.
type Config struct {
	Node           string
	Peers          transport.Dialer
	ConsentTimeout time.Duration
	PeerTimeout    time.Duration
	Logger         *slog.Logger
	Audit          *audit.Log
	Metrics        *metrics.Metrics
}

// Middleware is one node's traceability kernel.
type Middleware struct {
	node        string
	registry    *registry.Registry
	seq         *sequencer.Sequencer
	prov        *provenance.Store
	labels      *compliance.Store
	consent     *consent.Broker
	peers          transport.Dialer
	peerTimeout    time.Duration
	consentTimeout time.Duration
	log         *slog.Logger
	audit       *audit.Log
	metrics     *metrics.Metrics

	mu sync.Mutex
	// remoteHolds tracks reservations taken on behalf of remote writers
	// (ReserveRemote), released by the follow-up sync or by TTL.
	remoteHolds map[naming.Resource]uint64
	// watched marks consent notification channels already being drained.
	watched map[naming.Resource]bool
}

// New assembles a node.
func New(cfg Config) *Middleware {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.ConsentTimeout == 0 {
		cfg.ConsentTimeout = consent.DefaultTimeout
	}
	if cfg.PeerTimeout == 0 {
		cfg.PeerTimeout = 5 * time.Second
	}
	if cfg.Peers == nil {
		cfg.Peers = transport.NewLoopback()
	}
	if cfg.Metrics == nil {
		cfg.Metrics = metrics.New(cfg.Node)
	}
	return &Middleware{
		node:        cfg.Node,
		registry:    registry.New(),
		seq:         sequencer.New(),
		prov:        provenance.New(cfg.Node),
		labels:      compliance.NewStore(),
		consent:     consent.New(cfg.ConsentTimeout),
		peers:          cfg.Peers,
		peerTimeout:    cfg.PeerTimeout,
		consentTimeout: cfg.ConsentTimeout,
		log:         cfg.Logger.With("component", "middleware", "node", cfg.Node),
		audit:       cfg.Audit,
		metrics:     cfg.Metrics,
		remoteHolds: make(map[naming.Resource]uint64),
		watched:     make(map[naming.Resource]bool),
	}
}

// Node returns this node's id.
func (m *Middleware) Node() string { return m.node }

// Registry exposes the handle table, for tests and pre-enrollment.
func (m *Middleware) Registry() *registry.Registry { return m.registry }

// Metrics exposes the node's collectors for serving.
func (m *Middleware) Metrics() *metrics.Metrics { return m.metrics }

// localized wraps a resource with this node as owner.
func (m *Middleware) localized(r naming.Resource) naming.LocalizedResource {
	return naming.LocalizedResource{Node: m.node, Resource: r}
}

func (m *Middleware) recordDecision(surface, op string, source, target naming.Resource, grantID uint64, err error) {
	decision := "grant"
	reason := ""
	if err != nil {
		decision = "deny"
		reason = compliance.Reason(err)
	}
	if m.audit != nil {
		if aerr := m.audit.Record(audit.Entry{
			Node:      m.node,
			Surface:   surface,
			Operation: op,
			Source:    source.String(),
			Target:    target.String(),
			Decision:  decision,
			Reason:    reason,
			GrantID:   grantID,
		}); aerr != nil {
			m.log.Warn("audit record failed", "error", aerr)
		}
	}
	if err != nil {
		m.metrics.Denials.WithLabelValues(reason).Inc()
	} else {
		m.metrics.GrantsIssued.Inc()
	}
}

// watchConsent drains a resource's consent notifications into the log so
// the channel never wedges and operators can see pending requests.
func (m *Middleware) watchConsent(r naming.Resource) {
	m.mu.Lock()
	if m.watched[r] {
		m.mu.Unlock()
		return
	}
	m.watched[r] = true
	m.mu.Unlock()

	ch := m.consent.TakeOwnership(r)
	go func() {
		for n := range ch {
			m.metrics.ConsentRequests.Inc()
			m.log.Info("consent requested",
				"source", n.Source.String(),
				"destination_node", n.Destination.Node,
				"destination", n.Destination.Resource.String())
		}
	}()
}
