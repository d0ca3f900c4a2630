package server

import (
	"context"
	"errors"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/trace2e-io/trace2e/api/trace2ev1"
	"github.com/trace2e-io/trace2e/internal/compliance"
	"github.com/trace2e-io/trace2e/internal/consent"
	"github.com/trace2e-io/trace2e/internal/middleware"
	"github.com/trace2e-io/trace2e/internal/naming"
	"github.com/trace2e-io/trace2e/internal/registry"
	"github.com/trace2e-io/trace2e/internal/wireconv"
)

// p2mHandler adapts the process surface to the wire.
type p2mHandler struct {
	mw *middleware.Middleware
}

// enrollErr maps enrollment failures to gRPC status codes.
func enrollErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, middleware.ErrMalformedRequest):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, registry.ErrConflict):
		return status.Error(codes.AlreadyExists, err.Error())
	default:
		return status.Error(codes.Internal, err.Error())
	}
}

func (h *p2mHandler) LocalEnroll(ctx context.Context, req *trace2ev1.LocalCt) (*trace2ev1.Ack, error) {
	if err := enrollErr(h.mw.LocalEnroll(req.ProcessId, req.FileDescriptor, req.Path)); err != nil {
		return nil, err
	}
	return &trace2ev1.Ack{}, nil
}

func (h *p2mHandler) RemoteEnroll(ctx context.Context, req *trace2ev1.RemoteCt) (*trace2ev1.Ack, error) {
	if err := enrollErr(h.mw.RemoteEnroll(req.ProcessId, req.FileDescriptor, req.LocalSocket, req.PeerSocket)); err != nil {
		return nil, err
	}
	return &trace2ev1.Ack{}, nil
}

// IoRequest surfaces denials as the sentinel grant id; gRPC errors are
// reserved for malformed requests and unknown handles.
func (h *p2mHandler) IoRequest(ctx context.Context, req *trace2ev1.IoInfo) (*trace2ev1.Grant, error) {
	var output bool
	switch req.Flow {
	case trace2ev1.FlowInput:
		output = false
	case trace2ev1.FlowOutput:
		output = true
	default:
		return nil, status.Error(codes.InvalidArgument, "flow must be INPUT or OUTPUT")
	}

	grantID, err := h.mw.IoRequest(ctx, req.ProcessId, req.FileDescriptor, output)
	switch {
	case err == nil:
		return &trace2ev1.Grant{Id: grantID}, nil
	case errors.Is(err, middleware.ErrUnknownHandle):
		return nil, status.Error(codes.NotFound, err.Error())
	default:
		// Policy denial, peer failure, or cancellation: all deny.
		return &trace2ev1.Grant{Id: trace2ev1.DenialSentinel}, nil
	}
}

func (h *p2mHandler) IoReport(ctx context.Context, req *trace2ev1.IoResult) (*trace2ev1.Ack, error) {
	if err := h.mw.IoReport(ctx, req.ProcessId, req.FileDescriptor, req.GrantId, req.Result); err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	return &trace2ev1.Ack{}, nil
}

func (h *p2mHandler) Retire(ctx context.Context, req *trace2ev1.HandleRef) (*trace2ev1.Ack, error) {
	h.mw.Retire(req.ProcessId, req.FileDescriptor)
	return &trace2ev1.Ack{}, nil
}

// m2mHandler adapts the peer surface to the wire.
type m2mHandler struct {
	mw *middleware.Middleware
}

func (h *m2mHandler) ReserveRemote(ctx context.Context, req *trace2ev1.ReserveRequest) (*trace2ev1.Labels, error) {
	if req.Stream == nil {
		return nil, status.Error(codes.InvalidArgument, "missing stream")
	}
	stream := naming.NewStream(req.Stream.LocalSocket, req.Stream.PeerSocket)
	pl, err := h.mw.ReserveRemote(ctx, stream)
	if err != nil {
		return nil, status.Error(codes.Unavailable, err.Error())
	}
	return wireconv.PeerLabelsToWire(pl), nil
}

func (h *m2mHandler) SyncProvenance(ctx context.Context, req *trace2ev1.StreamProv) (*trace2ev1.Ack, error) {
	prov, err := wireconv.ProvFromWire(req.Provenance)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	stream := naming.NewStream(req.LocalSocket, req.PeerSocket)
	if err := h.mw.SyncProvenance(ctx, stream, prov); err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	return &trace2ev1.Ack{}, nil
}

func (h *m2mHandler) EvaluateCompliance(ctx context.Context, req *trace2ev1.EvalRequest) (*trace2ev1.Verdict, error) {
	dest, err := wireconv.IDFromWire(req.Destination)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	ancestors := make([]naming.LocalizedResource, 0, len(req.Ancestors))
	for _, id := range req.Ancestors {
		lr, err := wireconv.IDFromWire(id)
		if err != nil {
			return nil, status.Error(codes.InvalidArgument, err.Error())
		}
		ancestors = append(ancestors, lr)
	}

	err = h.mw.EvaluateCompliance(ctx, ancestors, dest)
	switch {
	case err == nil:
		return &trace2ev1.Verdict{Allow: true}, nil
	case compliance.IsDenial(err):
		return &trace2ev1.Verdict{Allow: false, Reason: compliance.Reason(err)}, nil
	default:
		return nil, status.Error(codes.Internal, err.Error())
	}
}

func (h *m2mHandler) BroadcastDeletion(ctx context.Context, req *trace2ev1.DeletionNotice) (*trace2ev1.Ack, error) {
	id, err := wireconv.IDFromWire(req.Resource)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	if err := h.mw.BroadcastDeletion(ctx, id); err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	return &trace2ev1.Ack{}, nil
}

func (h *m2mHandler) NotifyConsent(ctx context.Context, req *trace2ev1.ConsentNotice) (*trace2ev1.ConsentVerdict, error) {
	source, err := wireconv.IDFromWire(req.Source)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	dest, err := wireconv.IDFromWire(req.Destination)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	granted, err := h.mw.NotifyConsent(ctx, source, dest)
	switch {
	case errors.Is(err, consent.ErrTimeout) || errors.Is(err, context.DeadlineExceeded):
		return &trace2ev1.ConsentVerdict{Decision: trace2ev1.ConsentUnset}, nil
	case err != nil:
		return nil, status.Error(codes.Internal, err.Error())
	case granted:
		return &trace2ev1.ConsentVerdict{Decision: trace2ev1.ConsentGranted}, nil
	default:
		return &trace2ev1.ConsentVerdict{Decision: trace2ev1.ConsentDenied}, nil
	}
}

// o2mHandler adapts the operator surface to the wire.
type o2mHandler struct {
	mw *middleware.Middleware
}

func (h *o2mHandler) SetConfidentiality(ctx context.Context, req *trace2ev1.PolicyFlagRequest) (*trace2ev1.Ack, error) {
	r, err := wireconv.ResourceFromWire(req.Resource)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	if !h.mw.SetConfidentiality(r, req.Enabled) {
		return nil, status.Error(codes.FailedPrecondition, "resource is deleted")
	}
	return &trace2ev1.Ack{}, nil
}

func (h *o2mHandler) SetIntegrity(ctx context.Context, req *trace2ev1.PolicyFlagRequest) (*trace2ev1.Ack, error) {
	r, err := wireconv.ResourceFromWire(req.Resource)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	if !h.mw.SetIntegrity(r, req.Enabled) {
		return nil, status.Error(codes.FailedPrecondition, "resource is deleted")
	}
	return &trace2ev1.Ack{}, nil
}

func (h *o2mHandler) SetDeleted(ctx context.Context, req *trace2ev1.DeleteRequest) (*trace2ev1.Ack, error) {
	r, err := wireconv.ResourceFromWire(req.Resource)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	if err := h.mw.SetDeleted(ctx, r); err != nil {
		return nil, status.Error(codes.Unavailable, err.Error())
	}
	return &trace2ev1.Ack{}, nil
}

func (h *o2mHandler) EnforceConsent(ctx context.Context, req *trace2ev1.ConsentEnforceRequest) (*trace2ev1.Ack, error) {
	r, err := wireconv.ResourceFromWire(req.Resource)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	if !h.mw.EnforceConsent(r) {
		return nil, status.Error(codes.FailedPrecondition, "resource is deleted")
	}
	return &trace2ev1.Ack{}, nil
}

func (h *o2mHandler) SetConsentDecision(ctx context.Context, req *trace2ev1.ConsentDecisionRequest) (*trace2ev1.Ack, error) {
	source, err := wireconv.ResourceFromWire(req.Source)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	var dest naming.Resource
	if req.Destination != nil {
		dest, err = wireconv.ResourceFromWire(req.Destination)
		if err != nil {
			return nil, status.Error(codes.InvalidArgument, err.Error())
		}
	}
	if req.DestinationNode == "" && dest.IsZero() {
		return nil, status.Error(codes.InvalidArgument, "destination node or resource required")
	}
	h.mw.SetConsentDecision(source, req.DestinationNode, dest, req.Decision)
	return &trace2ev1.Ack{}, nil
}

func (h *o2mHandler) GetReferences(ctx context.Context, req *trace2ev1.ReferencesRequest) (*trace2ev1.References, error) {
	r, err := wireconv.ResourceFromWire(req.Resource)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	return &trace2ev1.References{References: wireconv.ProvToWire(h.mw.GetReferences(r))}, nil
}

func (h *o2mHandler) GetPolicies(ctx context.Context, req *trace2ev1.PoliciesRequest) (*trace2ev1.PolicyList, error) {
	resources := make([]naming.Resource, 0, len(req.Resources))
	for _, wr := range req.Resources {
		r, err := wireconv.ResourceFromWire(wr)
		if err != nil {
			return nil, status.Error(codes.InvalidArgument, err.Error())
		}
		resources = append(resources, r)
	}
	out := &trace2ev1.PolicyList{}
	node := h.mw.Node()
	for r, label := range h.mw.GetPolicies(resources) {
		out.Policies = append(out.Policies, wireconv.LabelToWire(naming.LocalizedResource{Node: node, Resource: r}, label))
	}
	return out, nil
}
