// Package transport defines how one middleware reaches its peers. The
// compliance evaluator talks to a Peer; production uses the gRPC client in
// internal/client, tests and single-process simulations use the loopback
// router below.
package transport

import (
	"context"
	"fmt"
	"sync"

	"github.com/trace2e-io/trace2e/internal/compliance"
	"github.com/trace2e-io/trace2e/internal/naming"
	"github.com/trace2e-io/trace2e/internal/provenance"
)

// AncestorLabel pairs an identified resource with its policy label, as
// returned by a peer for the provenance snapshot of a reserved endpoint.
type AncestorLabel struct {
	ID    naming.LocalizedResource
	Label compliance.Label
}

// PeerLabels is the answer to ReserveRemote: the reserved endpoint's own
// label plus labels for its known lineage.
type PeerLabels struct {
	Endpoint   naming.LocalizedResource
	Label      compliance.Label
	Provenance []AncestorLabel
}

// Peer is the M2M surface of one remote middleware, expressed in kernel
// types. EvaluateCompliance returns nil to allow; denials come back as
// compliance errors (ErrPeerDenied and friends).
type Peer interface {
	ReserveRemote(ctx context.Context, stream naming.Resource) (PeerLabels, error)
	SyncProvenance(ctx context.Context, stream naming.Resource, prov provenance.Prov) error
	EvaluateCompliance(ctx context.Context, ancestors []naming.LocalizedResource, destination naming.LocalizedResource) error
	BroadcastDeletion(ctx context.Context, resource naming.LocalizedResource) error
	NotifyConsent(ctx context.Context, source, destination naming.LocalizedResource) (bool, error)
}

// Dialer resolves a node id to its Peer.
type Dialer interface {
	Peer(node string) (Peer, error)
}

// Loopback routes peer calls to middleware instances living in the same
// process. It backs the multi-node test scenarios and demo deployments
// that run several nodes in one binary.
type Loopback struct {
	mu    sync.RWMutex
	nodes map[string]Peer
}

// NewLoopback returns an empty router.
func NewLoopback() *Loopback {
	return &Loopback{nodes: make(map[string]Peer)}
}

// Register attaches a node's M2M surface to the router.
func (l *Loopback) Register(node string, peer Peer) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.nodes[node] = peer
}

// Peer implements Dialer.
func (l *Loopback) Peer(node string) (Peer, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	p, ok := l.nodes[node]
	if !ok {
		return nil, fmt.Errorf("%w: unknown node %q", compliance.ErrPeerUnavailable, node)
	}
	return p, nil
}
