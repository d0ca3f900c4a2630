// Package client holds the gRPC clients for all three surfaces: the peer
// dialer used by the kernel for M2M, the operator client behind the CLI,
// and the process client consumed by wrapped I/O libraries.
package client

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"sync"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/trace2e-io/trace2e/api/trace2ev1"
	"github.com/trace2e-io/trace2e/internal/compliance"
	"github.com/trace2e-io/trace2e/internal/naming"
	"github.com/trace2e-io/trace2e/internal/provenance"
	"github.com/trace2e-io/trace2e/internal/transport"
	"github.com/trace2e-io/trace2e/internal/wireconv"
)

// PeerDialer resolves node ids to gRPC peers, caching one connection per
// node. A node id is the host peers listen on; every node shares the M2M
// port.
type PeerDialer struct {
	port int

	mu    sync.Mutex
	conns map[string]*grpc.ClientConn
}

// NewPeerDialer returns a dialer for peers listening on the given port.
func NewPeerDialer(port int) *PeerDialer {
	return &PeerDialer{port: port, conns: make(map[string]*grpc.ClientConn)}
}

// Peer implements transport.Dialer.
func (d *PeerDialer) Peer(node string) (transport.Peer, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	conn, ok := d.conns[node]
	if !ok {
		var err error
		addr := net.JoinHostPort(node, strconv.Itoa(d.port))
		conn, err = grpc.NewClient(addr,
			grpc.WithTransportCredentials(insecure.NewCredentials()),
			trace2ev1.CallOption())
		if err != nil {
			return nil, fmt.Errorf("client: dial peer %s: %w", addr, err)
		}
		d.conns[node] = conn
	}
	return &grpcPeer{client: trace2ev1.NewM2mServiceClient(conn)}, nil
}

// Close drops every cached connection.
func (d *PeerDialer) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	for node, conn := range d.conns {
		conn.Close()
		delete(d.conns, node)
	}
}

// grpcPeer adapts an M2M client connection to transport.Peer. RPC
// failures surface as ErrPeerUnavailable so the evaluator denies
// conservatively.
type grpcPeer struct {
	client trace2ev1.M2mServiceClient
}

func (p *grpcPeer) ReserveRemote(ctx context.Context, stream naming.Resource) (transport.PeerLabels, error) {
	resp, err := p.client.ReserveRemote(ctx, &trace2ev1.ReserveRequest{
		Stream: &trace2ev1.Stream{LocalSocket: stream.LocalSocket, PeerSocket: stream.PeerSocket},
	})
	if err != nil {
		return transport.PeerLabels{}, fmt.Errorf("%w: %v", compliance.ErrPeerUnavailable, err)
	}
	return wireconv.PeerLabelsFromWire(resp)
}

func (p *grpcPeer) SyncProvenance(ctx context.Context, stream naming.Resource, prov provenance.Prov) error {
	_, err := p.client.SyncProvenance(ctx, &trace2ev1.StreamProv{
		LocalSocket: stream.LocalSocket,
		PeerSocket:  stream.PeerSocket,
		Provenance:  wireconv.ProvToWire(prov),
	})
	if err != nil {
		return fmt.Errorf("%w: %v", compliance.ErrPeerUnavailable, err)
	}
	return nil
}

func (p *grpcPeer) EvaluateCompliance(ctx context.Context, ancestors []naming.LocalizedResource, destination naming.LocalizedResource) error {
	req := &trace2ev1.EvalRequest{Destination: wireconv.IDToWire(destination)}
	for _, a := range ancestors {
		req.Ancestors = append(req.Ancestors, wireconv.IDToWire(a))
	}
	resp, err := p.client.EvaluateCompliance(ctx, req)
	if err != nil {
		return fmt.Errorf("%w: %v", compliance.ErrPeerUnavailable, err)
	}
	if !resp.Allow {
		return fmt.Errorf("%w: %s", compliance.ErrPeerDenied, resp.Reason)
	}
	return nil
}

func (p *grpcPeer) BroadcastDeletion(ctx context.Context, resource naming.LocalizedResource) error {
	_, err := p.client.BroadcastDeletion(ctx, &trace2ev1.DeletionNotice{Resource: wireconv.IDToWire(resource)})
	if err != nil {
		return fmt.Errorf("%w: %v", compliance.ErrPeerUnavailable, err)
	}
	return nil
}

func (p *grpcPeer) NotifyConsent(ctx context.Context, source, destination naming.LocalizedResource) (bool, error) {
	resp, err := p.client.NotifyConsent(ctx, &trace2ev1.ConsentNotice{
		Source:      wireconv.IDToWire(source),
		Destination: wireconv.IDToWire(destination),
	})
	if err != nil {
		return false, fmt.Errorf("%w: %v", compliance.ErrPeerUnavailable, err)
	}
	return resp.Decision == trace2ev1.ConsentGranted, nil
}
