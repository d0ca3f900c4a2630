package trace2ev1

import (
	"context"

	"google.golang.org/grpc"
)

// Hand-maintained gRPC bindings for trace2e.v1.P2mService. The shapes mirror
// protoc-gen-go-grpc output so handlers and interceptors compose as usual.

const (
	P2mLocalEnrollMethod  = "/trace2e.v1.P2mService/LocalEnroll"
	P2mRemoteEnrollMethod = "/trace2e.v1.P2mService/RemoteEnroll"
	P2mIoRequestMethod    = "/trace2e.v1.P2mService/IoRequest"
	P2mIoReportMethod     = "/trace2e.v1.P2mService/IoReport"
	P2mRetireMethod       = "/trace2e.v1.P2mService/Retire"
)

// P2mServiceClient is the client API for the process surface.
type P2mServiceClient interface {
	LocalEnroll(ctx context.Context, in *LocalCt, opts ...grpc.CallOption) (*Ack, error)
	RemoteEnroll(ctx context.Context, in *RemoteCt, opts ...grpc.CallOption) (*Ack, error)
	IoRequest(ctx context.Context, in *IoInfo, opts ...grpc.CallOption) (*Grant, error)
	IoReport(ctx context.Context, in *IoResult, opts ...grpc.CallOption) (*Ack, error)
	Retire(ctx context.Context, in *HandleRef, opts ...grpc.CallOption) (*Ack, error)
}

type p2mServiceClient struct {
	cc grpc.ClientConnInterface
}

// NewP2mServiceClient wraps a connection. The trace2e codec is forced on
// every call, so no dial-time option is required.
func NewP2mServiceClient(cc grpc.ClientConnInterface) P2mServiceClient {
	return &p2mServiceClient{cc}
}

func invoke[Req wireMessage, Resp wireMessage](ctx context.Context, cc grpc.ClientConnInterface, method string, in Req, out Resp, opts []grpc.CallOption) error {
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(Name)}, opts...)
	return cc.Invoke(ctx, method, in, out, opts...)
}

func (c *p2mServiceClient) LocalEnroll(ctx context.Context, in *LocalCt, opts ...grpc.CallOption) (*Ack, error) {
	out := new(Ack)
	if err := invoke(ctx, c.cc, P2mLocalEnrollMethod, in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *p2mServiceClient) RemoteEnroll(ctx context.Context, in *RemoteCt, opts ...grpc.CallOption) (*Ack, error) {
	out := new(Ack)
	if err := invoke(ctx, c.cc, P2mRemoteEnrollMethod, in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *p2mServiceClient) IoRequest(ctx context.Context, in *IoInfo, opts ...grpc.CallOption) (*Grant, error) {
	out := new(Grant)
	if err := invoke(ctx, c.cc, P2mIoRequestMethod, in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *p2mServiceClient) IoReport(ctx context.Context, in *IoResult, opts ...grpc.CallOption) (*Ack, error) {
	out := new(Ack)
	if err := invoke(ctx, c.cc, P2mIoReportMethod, in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *p2mServiceClient) Retire(ctx context.Context, in *HandleRef, opts ...grpc.CallOption) (*Ack, error) {
	out := new(Ack)
	if err := invoke(ctx, c.cc, P2mRetireMethod, in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

// P2mServiceServer is the server API for the process surface.
type P2mServiceServer interface {
	LocalEnroll(context.Context, *LocalCt) (*Ack, error)
	RemoteEnroll(context.Context, *RemoteCt) (*Ack, error)
	IoRequest(context.Context, *IoInfo) (*Grant, error)
	IoReport(context.Context, *IoResult) (*Ack, error)
	Retire(context.Context, *HandleRef) (*Ack, error)
}

// RegisterP2mServiceServer registers the service implementation.
func RegisterP2mServiceServer(s grpc.ServiceRegistrar, srv P2mServiceServer) {
	s.RegisterService(&P2mService_ServiceDesc, srv)
}

func unaryHandler[Req any](method string, srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor, call func(context.Context, any, *Req) (any, error)) (any, error) {
	in := new(Req)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return call(ctx, srv, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: method}
	return interceptor(ctx, in, info, func(ctx context.Context, req any) (any, error) {
		return call(ctx, srv, req.(*Req))
	})
}

func _P2mService_LocalEnroll_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	return unaryHandler(P2mLocalEnrollMethod, srv, ctx, dec, interceptor, func(ctx context.Context, srv any, in *LocalCt) (any, error) {
		return srv.(P2mServiceServer).LocalEnroll(ctx, in)
	})
}

func _P2mService_RemoteEnroll_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	return unaryHandler(P2mRemoteEnrollMethod, srv, ctx, dec, interceptor, func(ctx context.Context, srv any, in *RemoteCt) (any, error) {
		return srv.(P2mServiceServer).RemoteEnroll(ctx, in)
	})
}

func _P2mService_IoRequest_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	return unaryHandler(P2mIoRequestMethod, srv, ctx, dec, interceptor, func(ctx context.Context, srv any, in *IoInfo) (any, error) {
		return srv.(P2mServiceServer).IoRequest(ctx, in)
	})
}

func _P2mService_IoReport_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	return unaryHandler(P2mIoReportMethod, srv, ctx, dec, interceptor, func(ctx context.Context, srv any, in *IoResult) (any, error) {
		return srv.(P2mServiceServer).IoReport(ctx, in)
	})
}

func _P2mService_Retire_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	return unaryHandler(P2mRetireMethod, srv, ctx, dec, interceptor, func(ctx context.Context, srv any, in *HandleRef) (any, error) {
		return srv.(P2mServiceServer).Retire(ctx, in)
	})
}

// P2mService_ServiceDesc is the grpc.ServiceDesc for P2mService.
var P2mService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: "trace2e.v1.P2mService",
	HandlerType: (*P2mServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "LocalEnroll", Handler: _P2mService_LocalEnroll_Handler},
		{MethodName: "RemoteEnroll", Handler: _P2mService_RemoteEnroll_Handler},
		{MethodName: "IoRequest", Handler: _P2mService_IoRequest_Handler},
		{MethodName: "IoReport", Handler: _P2mService_IoReport_Handler},
		{MethodName: "Retire", Handler: _P2mService_Retire_Handler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "api/proto/trace2e/v1/trace2e.proto",
}
