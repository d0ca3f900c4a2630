package trace2ev1

import (
	"context"

	"google.golang.org/grpc"
)

// Hand-maintained gRPC bindings for trace2e.v1.M2mService.

const (
	M2mReserveRemoteMethod      = "/trace2e.v1.M2mService/ReserveRemote"
	M2mSyncProvenanceMethod     = "/trace2e.v1.M2mService/SyncProvenance"
	M2mEvaluateComplianceMethod = "/trace2e.v1.M2mService/EvaluateCompliance"
	M2mBroadcastDeletionMethod  = "/trace2e.v1.M2mService/BroadcastDeletion"
	M2mNotifyConsentMethod      = "/trace2e.v1.M2mService/NotifyConsent"
)

// M2mServiceClient is the client API for the peer surface.
type M2mServiceClient interface {
	ReserveRemote(ctx context.Context, in *ReserveRequest, opts ...grpc.CallOption) (*Labels, error)
	SyncProvenance(ctx context.Context, in *StreamProv, opts ...grpc.CallOption) (*Ack, error)
	EvaluateCompliance(ctx context.Context, in *EvalRequest, opts ...grpc.CallOption) (*Verdict, error)
	BroadcastDeletion(ctx context.Context, in *DeletionNotice, opts ...grpc.CallOption) (*Ack, error)
	NotifyConsent(ctx context.Context, in *ConsentNotice, opts ...grpc.CallOption) (*ConsentVerdict, error)
}

type m2mServiceClient struct {
	cc grpc.ClientConnInterface
}

// NewM2mServiceClient wraps a connection.
func NewM2mServiceClient(cc grpc.ClientConnInterface) M2mServiceClient {
	return &m2mServiceClient{cc}
}

func (c *m2mServiceClient) ReserveRemote(ctx context.Context, in *ReserveRequest, opts ...grpc.CallOption) (*Labels, error) {
	out := new(Labels)
	if err := invoke(ctx, c.cc, M2mReserveRemoteMethod, in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *m2mServiceClient) SyncProvenance(ctx context.Context, in *StreamProv, opts ...grpc.CallOption) (*Ack, error) {
	out := new(Ack)
	if err := invoke(ctx, c.cc, M2mSyncProvenanceMethod, in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *m2mServiceClient) EvaluateCompliance(ctx context.Context, in *EvalRequest, opts ...grpc.CallOption) (*Verdict, error) {
	out := new(Verdict)
	if err := invoke(ctx, c.cc, M2mEvaluateComplianceMethod, in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *m2mServiceClient) BroadcastDeletion(ctx context.Context, in *DeletionNotice, opts ...grpc.CallOption) (*Ack, error) {
	out := new(Ack)
	if err := invoke(ctx, c.cc, M2mBroadcastDeletionMethod, in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *m2mServiceClient) NotifyConsent(ctx context.Context, in *ConsentNotice, opts ...grpc.CallOption) (*ConsentVerdict, error) {
	out := new(ConsentVerdict)
	if err := invoke(ctx, c.cc, M2mNotifyConsentMethod, in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

// M2mServiceServer is the server API for the peer surface.
type M2mServiceServer interface {
	ReserveRemote(context.Context, *ReserveRequest) (*Labels, error)
	SyncProvenance(context.Context, *StreamProv) (*Ack, error)
	EvaluateCompliance(context.Context, *EvalRequest) (*Verdict, error)
	BroadcastDeletion(context.Context, *DeletionNotice) (*Ack, error)
	NotifyConsent(context.Context, *ConsentNotice) (*ConsentVerdict, error)
}

// RegisterM2mServiceServer registers the service implementation.
func RegisterM2mServiceServer(s grpc.ServiceRegistrar, srv M2mServiceServer) {
	s.RegisterService(&M2mService_ServiceDesc, srv)
}

func _M2mService_ReserveRemote_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	return unaryHandler(M2mReserveRemoteMethod, srv, ctx, dec, interceptor, func(ctx context.Context, srv any, in *ReserveRequest) (any, error) {
		return srv.(M2mServiceServer).ReserveRemote(ctx, in)
	})
}

func _M2mService_SyncProvenance_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	return unaryHandler(M2mSyncProvenanceMethod, srv, ctx, dec, interceptor, func(ctx context.Context, srv any, in *StreamProv) (any, error) {
		return srv.(M2mServiceServer).SyncProvenance(ctx, in)
	})
}

func _M2mService_EvaluateCompliance_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	return unaryHandler(M2mEvaluateComplianceMethod, srv, ctx, dec, interceptor, func(ctx context.Context, srv any, in *EvalRequest) (any, error) {
		return srv.(M2mServiceServer).EvaluateCompliance(ctx, in)
	})
}

func _M2mService_BroadcastDeletion_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	return unaryHandler(M2mBroadcastDeletionMethod, srv, ctx, dec, interceptor, func(ctx context.Context, srv any, in *DeletionNotice) (any, error) {
		return srv.(M2mServiceServer).BroadcastDeletion(ctx, in)
	})
}

func _M2mService_NotifyConsent_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	return unaryHandler(M2mNotifyConsentMethod, srv, ctx, dec, interceptor, func(ctx context.Context, srv any, in *ConsentNotice) (any, error) {
		return srv.(M2mServiceServer).NotifyConsent(ctx, in)
	})
}

// M2mService_ServiceDesc is the grpc.ServiceDesc for M2mService.
var M2mService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: "trace2e.v1.M2mService",
	HandlerType: (*M2mServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "ReserveRemote", Handler: _M2mService_ReserveRemote_Handler},
		{MethodName: "SyncProvenance", Handler: _M2mService_SyncProvenance_Handler},
		{MethodName: "EvaluateCompliance", Handler: _M2mService_EvaluateCompliance_Handler},
		{MethodName: "BroadcastDeletion", Handler: _M2mService_BroadcastDeletion_Handler},
		{MethodName: "NotifyConsent", Handler: _M2mService_NotifyConsent_Handler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "api/proto/trace2e/v1/trace2e.proto",
}
