package client

import (
	"context"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/trace2e-io/trace2e/api/trace2ev1"
)

// Process drives the P2M surface on behalf of one traced process. The
// wrapped I/O libraries call it around every read and write.
type Process struct {
	conn   *grpc.ClientConn
	client trace2ev1.P2mServiceClient
	pid    int32
}

// NewProcess connects a traced process to its node's middleware.
func NewProcess(addr string, pid int32) (*Process, error) {
	conn, err := grpc.NewClient(addr,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		trace2ev1.CallOption())
	if err != nil {
		return nil, fmt.Errorf("client: connect process to %s: %w", addr, err)
	}
	return &Process{conn: conn, client: trace2ev1.NewP2mServiceClient(conn), pid: pid}, nil
}

// Close closes the connection.
func (p *Process) Close() error { return p.conn.Close() }

// EnrollFile registers a file descriptor opened on a file.
func (p *Process) EnrollFile(ctx context.Context, fd int32, path string) error {
	_, err := p.client.LocalEnroll(ctx, &trace2ev1.LocalCt{
		ProcessId: p.pid, FileDescriptor: fd, Path: path,
	})
	return err
}

// EnrollStream registers a file descriptor opened on a TCP stream.
func (p *Process) EnrollStream(ctx context.Context, fd int32, localSocket, peerSocket string) error {
	_, err := p.client.RemoteEnroll(ctx, &trace2ev1.RemoteCt{
		ProcessId: p.pid, FileDescriptor: fd,
		LocalSocket: localSocket, PeerSocket: peerSocket,
	})
	return err
}

// Request asks permission for one I/O operation. denied=true means the
// flow was refused by policy; the process should fail the wrapped call
// with a permission error.
func (p *Process) Request(ctx context.Context, fd int32, output bool) (grantID uint64, denied bool, err error) {
	flow := trace2ev1.FlowInput
	if output {
		flow = trace2ev1.FlowOutput
	}
	resp, err := p.client.IoRequest(ctx, &trace2ev1.IoInfo{
		ProcessId: p.pid, FileDescriptor: fd, Flow: flow,
	})
	if err != nil {
		return 0, true, err
	}
	if resp.Id == trace2ev1.DenialSentinel {
		return 0, true, nil
	}
	return resp.Id, false, nil
}

// Report delivers the outcome of a granted operation.
func (p *Process) Report(ctx context.Context, fd int32, grantID uint64, success bool) error {
	_, err := p.client.IoReport(ctx, &trace2ev1.IoResult{
		ProcessId: p.pid, FileDescriptor: fd,
		GrantId: grantID, Result: success,
	})
	return err
}

// Retire drops the binding for a closed file descriptor.
func (p *Process) Retire(ctx context.Context, fd int32) error {
	_, err := p.client.Retire(ctx, &trace2ev1.HandleRef{ProcessId: p.pid, FileDescriptor: fd})
	return err
}
