package transport

import (
	"context"
	"errors"
	"testing"

	"github.com/trace2e-io/trace2e/internal/compliance"
	"github.com/trace2e-io/trace2e/internal/naming"
	"github.com/trace2e-io/trace2e/internal/provenance"
)

type stubPeer struct {
	evaluated int
}

func (s *stubPeer) ReserveRemote(ctx context.Context, stream naming.Resource) (PeerLabels, error) {
	return PeerLabels{}, nil
}

func (s *stubPeer) SyncProvenance(ctx context.Context, stream naming.Resource, prov provenance.Prov) error {
	return nil
}

func (s *stubPeer) EvaluateCompliance(ctx context.Context, ancestors []naming.LocalizedResource, destination naming.LocalizedResource) error {
	s.evaluated++
	return nil
}

func (s *stubPeer) BroadcastDeletion(ctx context.Context, resource naming.LocalizedResource) error {
	return nil
}

func (s *stubPeer) NotifyConsent(ctx context.Context, source, destination naming.LocalizedResource) (bool, error) {
	return false, nil
}

func TestLoopbackRouting(t *testing.T) {
	lb := NewLoopback()
	stub := &stubPeer{}
	lb.Register("10.0.0.2", stub)

	p, err := lb.Peer("10.0.0.2")
	if err != nil {
		t.Fatalf("Peer: %v", err)
	}
	if err := p.EvaluateCompliance(context.Background(), nil, naming.LocalizedResource{}); err != nil {
		t.Fatalf("EvaluateCompliance: %v", err)
	}
	if stub.evaluated != 1 {
		t.Errorf("call not routed")
	}
}

func TestLoopbackUnknownNode(t *testing.T) {
	lb := NewLoopback()
	_, err := lb.Peer("10.9.9.9")
	if !errors.Is(err, compliance.ErrPeerUnavailable) {
		t.Errorf("unknown node: got %v, want ErrPeerUnavailable", err)
	}
}
