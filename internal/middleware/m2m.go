package middleware

import (
	"context"
	"time"

	"github.com/trace2e-io/trace2e/internal/compliance"
	"github.com/trace2e-io/trace2e/internal/consent"
	"github.com/trace2e-io/trace2e/internal/naming"
	"github.com/trace2e-io/trace2e/internal/provenance"
	"github.com/trace2e-io/trace2e/internal/transport"
)

// The M2M handlers make Middleware implement transport.Peer, so a node can
// be addressed identically over the loopback router and over gRPC.

// ReserveRemote reserves this node's end of a stream on behalf of a remote
// writer and returns its label plus a labeled provenance snapshot. The
// hold is released by the follow-up SyncProvenance, or by TTL when the
// write never happens.
func (m *Middleware) ReserveRemote(ctx context.Context, stream naming.Resource) (transport.PeerLabels, error) {
	grantID, err := m.seq.Reserve(ctx, stream, stream)
	if err != nil {
		return transport.PeerLabels{}, err
	}
	m.mu.Lock()
	m.remoteHolds[stream] = grantID
	m.mu.Unlock()
	time.AfterFunc(reserveRemoteTTL, func() { m.releaseRemoteHold(stream, grantID) })

	out := transport.PeerLabels{
		Endpoint: m.localized(stream),
		Label:    m.labels.Get(stream),
	}
	for node, set := range m.prov.Get(stream) {
		for r := range set {
			al := transport.AncestorLabel{ID: naming.LocalizedResource{Node: node, Resource: r}}
			if node == m.node {
				al.Label = m.labels.Get(r)
			}
			out.Provenance = append(out.Provenance, al)
		}
	}
	m.log.Debug("remote end reserved", "stream", stream.String(), "grant_id", grantID)
	return out, nil
}

// SyncProvenance merges a writer's lineage into this node's copy of the
// stream and drops the matching remote hold.
func (m *Middleware) SyncProvenance(ctx context.Context, stream naming.Resource, prov provenance.Prov) error {
	updated := m.prov.Merge(stream, prov)
	m.mu.Lock()
	grantID, held := m.remoteHolds[stream]
	delete(m.remoteHolds, stream)
	m.mu.Unlock()
	if held {
		if _, err := m.seq.Release(grantID); err != nil {
			m.log.Warn("remote hold release failed", "grant_id", grantID, "error", err)
		}
	}
	m.log.Debug("provenance synced", "stream", stream.String(), "updated", updated)
	return nil
}

// EvaluateCompliance answers a peer's policy question for the ancestors
// this node owns. The ancestor set arrives pre-closed, so no further
// fan-out happens here beyond consent waits.
func (m *Middleware) EvaluateCompliance(ctx context.Context, ancestors []naming.LocalizedResource, destination naming.LocalizedResource) error {
	local := make([]naming.Resource, 0, len(ancestors))
	for _, a := range ancestors {
		if a.Node == m.node {
			local = append(local, a.Resource)
		}
	}

	destLabel := compliance.Label{}
	if destination.Node == m.node {
		destLabel = m.labels.Get(destination.Resource)
	}
	destRemote := destination.Node != m.node

	needConsent, err := m.labels.Evaluate(local, destLabel, m.node, destination.Node, destRemote)
	if err != nil {
		return err
	}

	var g gather
	for _, a := range needConsent {
		g.Go(func() error {
			return m.requestLocalConsent(ctx, a, destination.Node, destination.Resource)
		})
	}
	return g.Wait()
}

// BroadcastDeletion records a deletion announced by a peer. For resources
// this node owns (an operator reached us through a peer), the local state
// machine runs; everything else lands in the shadow set consulted during
// closure evaluation.
func (m *Middleware) BroadcastDeletion(ctx context.Context, resource naming.LocalizedResource) error {
	if resource.Node == m.node {
		m.labels.SetDeleted(resource.Resource)
	} else {
		m.labels.MarkRemoteDeleted(resource)
	}
	m.log.Info("deletion recorded", "resource", resource.String())
	return nil
}

// NotifyConsent routes a consent request to this node's broker, which owns
// the source resource.
func (m *Middleware) NotifyConsent(ctx context.Context, source, destination naming.LocalizedResource) (bool, error) {
	if source.Node != m.node {
		// Misrouted; nobody here can answer, deny conservatively.
		m.log.Warn("consent notice for foreign resource", "resource", source.String())
		return false, nil
	}
	return m.consent.Request(ctx, source.Resource, consent.Destination{
		Node:     destination.Node,
		Resource: destination.Resource,
	})
}

func (m *Middleware) releaseRemoteHold(stream naming.Resource, grantID uint64) {
	m.mu.Lock()
	held, ok := m.remoteHolds[stream]
	if !ok || held != grantID {
		m.mu.Unlock()
		return
	}
	delete(m.remoteHolds, stream)
	m.mu.Unlock()
	if _, err := m.seq.Release(grantID); err == nil {
		m.log.Warn("remote hold expired", "stream", stream.String(), "grant_id", grantID)
	}
}
