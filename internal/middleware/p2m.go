package middleware

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/trace2e-io/trace2e/internal/compliance"
	"github.com/trace2e-io/trace2e/internal/consent"
	"github.com/trace2e-io/trace2e/internal/naming"
	"github.com/trace2e-io/trace2e/internal/provenance"
	"github.com/trace2e-io/trace2e/internal/transport"
)

// LocalEnroll binds a process file descriptor to a file resource.
func (m *Middleware) LocalEnroll(pid, fd int32, path string) error {
	if path == "" {
		return fmt.Errorf("%w: empty path", ErrMalformedRequest)
	}
	if err := m.registry.EnrollLocal(pid, fd, path); err != nil {
		return err
	}
	m.log.Debug("local enroll", "pid", pid, "fd", fd, "path", path)
	return nil
}

// RemoteEnroll binds a process file descriptor to a stream resource.
func (m *Middleware) RemoteEnroll(pid, fd int32, localSocket, peerSocket string) error {
	if !naming.ValidSocket(localSocket) || !naming.ValidSocket(peerSocket) {
		return fmt.Errorf("%w: invalid socket pair %q, %q", ErrMalformedRequest, localSocket, peerSocket)
	}
	if err := m.registry.EnrollRemote(pid, fd, localSocket, peerSocket); err != nil {
		return err
	}
	m.log.Debug("remote enroll", "pid", pid, "fd", fd, "local", localSocket, "peer", peerSocket)
	return nil
}

// IoRequest runs the admission procedure for one I/O operation: reserve
// the flow, evaluate policy over the source's lineage (locally and on
// peers), and either return the grant id or release and report the denial.
func (m *Middleware) IoRequest(ctx context.Context, pid, fd int32, output bool) (uint64, error) {
	binding, ok := m.registry.Resolve(pid, fd)
	if !ok {
		return 0, fmt.Errorf("%w: pid %d fd %d", ErrUnknownHandle, pid, fd)
	}

	var source, dest naming.Resource
	if output {
		source, dest = binding.Process, binding.Target
	} else {
		source, dest = binding.Target, binding.Process
	}

	grantID, err := m.seq.Reserve(ctx, source, dest)
	if err != nil {
		return 0, err
	}
	m.metrics.ActiveReservations.Set(float64(m.seq.Active()))

	if err := m.evaluate(ctx, source, dest); err != nil {
		if _, rerr := m.seq.Release(grantID); rerr != nil {
			m.log.Warn("release after denial failed", "grant_id", grantID, "error", rerr)
		}
		m.metrics.ActiveReservations.Set(float64(m.seq.Active()))
		m.recordDecision("p2m", "io_request", source, dest, 0, err)
		return 0, err
	}

	m.recordDecision("p2m", "io_request", source, dest, grantID, nil)
	return grantID, nil
}

// IoReport finishes a granted flow: on success the destination's lineage
// absorbs the source's, stream destinations are synced to their peer, and
// the reservation is released either way. Unknown grants are ignored with
// a warning.
func (m *Middleware) IoReport(ctx context.Context, pid, fd int32, grantID uint64, success bool) error {
	flow, ok := m.seq.Lookup(grantID)
	if !ok {
		m.log.Warn("io_report for unknown grant", "pid", pid, "fd", fd, "grant_id", grantID)
		return nil
	}

	if success {
		srcProv := m.prov.Get(flow.Source)
		m.prov.UpdateOnInput(flow.Destination, flow.Source)

		if flow.Destination.IsStream() {
			peerHost := flow.Destination.PeerHost()
			if peerHost != "" && peerHost != m.node {
				m.prov.RecordPropagation(srcProv, peerHost)
				m.syncStreamProvenance(ctx, flow.Destination, peerHost)
			}
		}
	}

	if _, err := m.seq.Release(grantID); err != nil {
		m.log.Warn("stale io_report release", "grant_id", grantID, "error", err)
	}
	m.metrics.ActiveReservations.Set(float64(m.seq.Active()))
	m.log.Debug("io_report", "grant_id", grantID, "success", success)
	return nil
}

// Retire drops a handle binding and forces release of any reservation
// still held through it.
func (m *Middleware) Retire(pid, fd int32) {
	b, ok := m.registry.Retire(pid, fd)
	if !ok {
		return
	}
	id, held := m.seq.Holder(b.Target)
	if !held {
		return
	}
	if f, ok := m.seq.Lookup(id); !ok || (f.Source != b.Process && f.Destination != b.Process) {
		return
	}
	if _, err := m.seq.Release(id); err == nil {
		m.log.Warn("reservation released by handle retirement", "pid", pid, "fd", fd, "grant_id", id)
		m.metrics.ActiveReservations.Set(float64(m.seq.Active()))
	}
}

// syncStreamProvenance pushes the local stream end's lineage to the peer's
// copy so both endpoints agree after a cross-node write.
func (m *Middleware) syncStreamProvenance(ctx context.Context, stream naming.Resource, peerHost string) {
	flip, _ := stream.Flip()
	full := m.prov.Get(stream)
	peer, err := m.peers.Peer(peerHost)
	if err != nil {
		m.log.Warn("provenance sync: no peer", "node", peerHost, "error", err)
		return
	}
	pctx, cancel := context.WithTimeout(ctx, m.peerTimeout)
	defer cancel()
	err = peer.SyncProvenance(pctx, flip, full)
	m.metrics.PeerCall("SyncProvenance", err)
	if err != nil {
		m.log.Warn("provenance sync failed", "node", peerHost, "error", err)
	}
}

// evaluate applies the compliance decision procedure for source → dest.
// The flow must already be reserved; no registry or provenance lock is
// held while peers are consulted.
func (m *Middleware) evaluate(ctx context.Context, source, dest naming.Resource) error {
	srcProv := m.prov.Closure(source)

	// Shadow deletions: a remote ancestor whose owner broadcast a deletion
	// denies without a peer round-trip.
	for node, set := range srcProv {
		if node == m.node {
			continue
		}
		for r := range set {
			if m.labels.RemoteDeleted(naming.LocalizedResource{Node: node, Resource: r}) {
				return compliance.ErrDeleted
			}
		}
	}

	// The destination is always the local resource being written; a stream
	// destination whose peer lives off-node additionally counts as remote
	// and pulls the peer end's labels into the decision (write path).
	destRemote := false
	destLabel := m.labels.Get(dest)
	destID := m.localized(dest)
	var peerProv []transport.AncestorLabel

	if peerHost := dest.PeerHost(); dest.IsStream() && peerHost != "" && peerHost != m.node {
		destRemote = true
		flip, _ := dest.Flip()
		pl, err := m.reserveRemoteEnd(ctx, peerHost, flip)
		if err != nil {
			return err
		}
		destLabel = combineLabels(destLabel, pl.Label)
		peerProv = pl.Provenance
	}

	for _, al := range peerProv {
		if al.Label.IsDeleted() {
			return compliance.ErrDeleted
		}
	}

	// Integrity is a destination-side rule, so foreign ancestors are
	// rejected here rather than on their owning nodes.
	if destLabel.Integrity {
		for node, set := range srcProv {
			if node != m.node && len(set) > 0 {
				return compliance.ErrIntegrity
			}
		}
	}

	needConsent, err := m.labels.Evaluate(setResources(srcProv[m.node]), destLabel, m.node, destID.Node, destRemote)
	if err != nil {
		return err
	}

	var g gather
	for _, a := range needConsent {
		g.Go(func() error { return m.requestLocalConsent(ctx, a, destID.Node, destID.Resource) })
	}
	for _, al := range peerProv {
		if al.Label.ConsentRequired && al.ID.Node != m.node {
			g.Go(func() error { return m.requestRemoteConsent(ctx, al.ID, destID) })
		}
	}
	for node, set := range srcProv {
		if node == m.node || len(set) == 0 {
			continue
		}
		ancestors := localizeSet(node, set)
		g.Go(func() error { return m.evaluateOnPeer(ctx, node, ancestors, destID) })
	}
	return g.Wait()
}

func (m *Middleware) reserveRemoteEnd(ctx context.Context, peerHost string, flip naming.Resource) (transport.PeerLabels, error) {
	peer, err := m.peers.Peer(peerHost)
	if err != nil {
		return transport.PeerLabels{}, fmt.Errorf("%w: %v", compliance.ErrPeerUnavailable, err)
	}
	pctx, cancel := context.WithTimeout(ctx, m.peerTimeout)
	defer cancel()
	pl, err := peer.ReserveRemote(pctx, flip)
	m.metrics.PeerCall("ReserveRemote", err)
	if err != nil {
		return transport.PeerLabels{}, fmt.Errorf("%w: %v", compliance.ErrPeerUnavailable, err)
	}
	return pl, nil
}

func (m *Middleware) requestLocalConsent(ctx context.Context, ancestor naming.Resource, destNode string, destResource naming.Resource) error {
	granted, err := m.consent.Request(ctx, ancestor, consent.Destination{Node: destNode, Resource: destResource})
	switch {
	case errors.Is(err, consent.ErrTimeout):
		return compliance.ErrConsentTimeout
	case err != nil:
		return err
	case !granted:
		return compliance.ErrConsentDenied
	}
	return nil
}

func (m *Middleware) requestRemoteConsent(ctx context.Context, source, dest naming.LocalizedResource) error {
	peer, err := m.peers.Peer(source.Node)
	if err != nil {
		return fmt.Errorf("%w: %v", compliance.ErrPeerUnavailable, err)
	}
	nctx, cancel := context.WithTimeout(ctx, m.consentDeadline())
	defer cancel()
	granted, err := peer.NotifyConsent(nctx, source, dest)
	m.metrics.PeerCall("NotifyConsent", err)
	switch {
	case errors.Is(err, consent.ErrTimeout):
		return compliance.ErrConsentTimeout
	case err != nil:
		return fmt.Errorf("%w: %v", compliance.ErrPeerUnavailable, err)
	case !granted:
		return compliance.ErrConsentDenied
	}
	return nil
}

func (m *Middleware) evaluateOnPeer(ctx context.Context, node string, ancestors []naming.LocalizedResource, dest naming.LocalizedResource) error {
	peer, err := m.peers.Peer(node)
	if err != nil {
		return fmt.Errorf("%w: %v", compliance.ErrPeerUnavailable, err)
	}
	// The peer may itself suspend on a consent decision, so this call gets
	// the consent budget on top of the transport budget.
	ectx, cancel := context.WithTimeout(ctx, m.consentDeadline())
	defer cancel()
	err = peer.EvaluateCompliance(ectx, ancestors, dest)
	m.metrics.PeerCall("EvaluateCompliance", err)
	if err == nil {
		return nil
	}
	if compliance.IsDenial(err) {
		return err
	}
	return fmt.Errorf("%w: %v", compliance.ErrPeerUnavailable, err)
}

func (m *Middleware) consentDeadline() time.Duration {
	return m.consentTimeout + m.peerTimeout
}

func combineLabels(a, b compliance.Label) compliance.Label {
	out := compliance.Label{
		Confidential:    a.Confidential || b.Confidential,
		Integrity:       a.Integrity || b.Integrity,
		ConsentRequired: a.ConsentRequired || b.ConsentRequired,
	}
	if b.Deleted > out.Deleted {
		out.Deleted = b.Deleted
	}
	if a.Deleted > out.Deleted {
		out.Deleted = a.Deleted
	}
	return out
}

func setResources(s provenance.Set) []naming.Resource {
	out := make([]naming.Resource, 0, len(s))
	for r := range s {
		out = append(out, r)
	}
	return out
}

func localizeSet(node string, s provenance.Set) []naming.LocalizedResource {
	out := make([]naming.LocalizedResource, 0, len(s))
	for r := range s {
		out = append(out, naming.LocalizedResource{Node: node, Resource: r})
	}
	return out
}

// gather runs tasks concurrently and keeps the first error.
type gather struct {
	wg  sync.WaitGroup
	mu  sync.Mutex
	err error
}

func (g *gather) Go(fn func() error) {
	g.wg.Add(1)
	go func() {
		defer g.wg.Done()
		if err := fn(); err != nil {
			g.mu.Lock()
			if g.err == nil {
				g.err = err
			}
			g.mu.Unlock()
		}
	}()
}

func (g *gather) Wait() error {
	g.wg.Wait()
	return g.err
}
