package middleware

import (
	"context"
	"fmt"

	"github.com/trace2e-io/trace2e/internal/compliance"
	"github.com/trace2e-io/trace2e/internal/consent"
	"github.com/trace2e-io/trace2e/internal/naming"
	"github.com/trace2e-io/trace2e/internal/provenance"
)

// SetConfidentiality flips local_confidentiality on a resource. Reports
// whether the label changed (false once the resource is deleted).
func (m *Middleware) SetConfidentiality(r naming.Resource, enabled bool) bool {
	ok := m.labels.SetConfidential(r, enabled)
	m.log.Info("set confidentiality", "resource", r.String(), "enabled", enabled, "updated", ok)
	return ok
}

// SetIntegrity flips local_integrity on a resource.
func (m *Middleware) SetIntegrity(r naming.Resource, enabled bool) bool {
	ok := m.labels.SetIntegrity(r, enabled)
	m.log.Info("set integrity", "resource", r.String(), "enabled", enabled, "updated", ok)
	return ok
}

// EnforceConsent arms the consent gate on a resource and opens its
// notification channel, so future flows with the resource in their closure
// suspend until a decision.
func (m *Middleware) EnforceConsent(r naming.Resource) bool {
	ok := m.labels.SetConsentRequired(r, true)
	if ok {
		m.watchConsent(r)
	}
	m.log.Info("consent enforced", "resource", r.String(), "updated", ok)
	return ok
}

// SetConsentDecision records an operator decision for flows from source to
// the given destination scope and wakes any suspended checks. Returns the
// monotonic decision id.
func (m *Middleware) SetConsentDecision(source naming.Resource, destNode string, destResource naming.Resource, granted bool) uint64 {
	id := m.consent.Decide(source, consent.Destination{Node: destNode, Resource: destResource}, granted)
	m.log.Info("consent decision", "source", source.String(),
		"destination_node", destNode, "destination", destResource.String(),
		"granted", granted, "decision_id", id)
	return id
}

// SetDeleted marks a local resource deleted: new flows whose closure
// contains it deny immediately, and every node this node pushed its data to
// directly (the propagation map) is notified; nodes that received it only
// through another peer get no broadcast. The state reaches confirmed only when all broadcasts ack;
// unreachable peers leave it pending and the error reports the partial
// failure.
func (m *Middleware) SetDeleted(ctx context.Context, r naming.Resource) error {
	if !m.labels.SetDeleted(r) {
		m.log.Info("set deleted: already deleted", "resource", r.String())
		return nil
	}

	targets := m.prov.PropagationTargets(r)
	var firstErr error
	acked := 0
	for _, node := range targets {
		peer, err := m.peers.Peer(node)
		if err == nil {
			pctx, cancel := context.WithTimeout(ctx, m.peerTimeout)
			err = peer.BroadcastDeletion(pctx, m.localized(r))
			cancel()
		}
		m.metrics.PeerCall("BroadcastDeletion", err)
		if err != nil {
			if firstErr == nil {
				firstErr = fmt.Errorf("broadcast deletion to %s: %w", node, err)
			}
			m.log.Warn("deletion broadcast failed", "resource", r.String(), "node", node, "error", err)
			continue
		}
		acked++
	}

	if firstErr != nil {
		return firstErr
	}
	m.labels.ConfirmDeleted(r)
	m.log.Info("deletion confirmed", "resource", r.String(), "peers_notified", acked)
	return nil
}

// GetReferences returns the full lineage of a resource.
func (m *Middleware) GetReferences(r naming.Resource) provenance.Prov {
	return m.prov.Closure(r)
}

// GetPolicies returns the labels of the given resources.
func (m *Middleware) GetPolicies(resources []naming.Resource) map[naming.Resource]compliance.Label {
	return m.labels.GetAll(resources)
}
