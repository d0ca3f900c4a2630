package trace2ev1

import (
	"context"

	"google.golang.org/grpc"
)

// Hand-maintained gRPC bindings for trace2e.v1.O2mService.

const (
	O2mSetConfidentialityMethod = "/trace2e.v1.O2mService/SetConfidentiality"
	O2mSetIntegrityMethod       = "/trace2e.v1.O2mService/SetIntegrity"
	O2mSetDeletedMethod         = "/trace2e.v1.O2mService/SetDeleted"
	O2mEnforceConsentMethod     = "/trace2e.v1.O2mService/EnforceConsent"
	O2mSetConsentDecisionMethod = "/trace2e.v1.O2mService/SetConsentDecision"
	O2mGetReferencesMethod      = "/trace2e.v1.O2mService/GetReferences"
	O2mGetPoliciesMethod        = "/trace2e.v1.O2mService/GetPolicies"
)

// O2mServiceClient is the client API for the operator surface.
type O2mServiceClient interface {
	SetConfidentiality(ctx context.Context, in *PolicyFlagRequest, opts ...grpc.CallOption) (*Ack, error)
	SetIntegrity(ctx context.Context, in *PolicyFlagRequest, opts ...grpc.CallOption) (*Ack, error)
	SetDeleted(ctx context.Context, in *DeleteRequest, opts ...grpc.CallOption) (*Ack, error)
	EnforceConsent(ctx context.Context, in *ConsentEnforceRequest, opts ...grpc.CallOption) (*Ack, error)
	SetConsentDecision(ctx context.Context, in *ConsentDecisionRequest, opts ...grpc.CallOption) (*Ack, error)
	GetReferences(ctx context.Context, in *ReferencesRequest, opts ...grpc.CallOption) (*References, error)
	GetPolicies(ctx context.Context, in *PoliciesRequest, opts ...grpc.CallOption) (*PolicyList, error)
}

type o2mServiceClient struct {
	cc grpc.ClientConnInterface
}

// NewO2mServiceClient wraps a connection.
func NewO2mServiceClient(cc grpc.ClientConnInterface) O2mServiceClient {
	return &o2mServiceClient{cc}
}

func (c *o2mServiceClient) SetConfidentiality(ctx context.Context, in *PolicyFlagRequest, opts ...grpc.CallOption) (*Ack, error) {
	out := new(Ack)
	if err := invoke(ctx, c.cc, O2mSetConfidentialityMethod, in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *o2mServiceClient) SetIntegrity(ctx context.Context, in *PolicyFlagRequest, opts ...grpc.CallOption) (*Ack, error) {
	out := new(Ack)
	if err := invoke(ctx, c.cc, O2mSetIntegrityMethod, in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *o2mServiceClient) SetDeleted(ctx context.Context, in *DeleteRequest, opts ...grpc.CallOption) (*Ack, error) {
	out := new(Ack)
	if err := invoke(ctx, c.cc, O2mSetDeletedMethod, in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *o2mServiceClient) EnforceConsent(ctx context.Context, in *ConsentEnforceRequest, opts ...grpc.CallOption) (*Ack, error) {
	out := new(Ack)
	if err := invoke(ctx, c.cc, O2mEnforceConsentMethod, in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *o2mServiceClient) SetConsentDecision(ctx context.Context, in *ConsentDecisionRequest, opts ...grpc.CallOption) (*Ack, error) {
	out := new(Ack)
	if err := invoke(ctx, c.cc, O2mSetConsentDecisionMethod, in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *o2mServiceClient) GetReferences(ctx context.Context, in *ReferencesRequest, opts ...grpc.CallOption) (*References, error) {
	out := new(References)
	if err := invoke(ctx, c.cc, O2mGetReferencesMethod, in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *o2mServiceClient) GetPolicies(ctx context.Context, in *PoliciesRequest, opts ...grpc.CallOption) (*PolicyList, error) {
	out := new(PolicyList)
	if err := invoke(ctx, c.cc, O2mGetPoliciesMethod, in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

// O2mServiceServer is the server API for the operator surface.
type O2mServiceServer interface {
	SetConfidentiality(context.Context, *PolicyFlagRequest) (*Ack, error)
	SetIntegrity(context.Context, *PolicyFlagRequest) (*Ack, error)
	SetDeleted(context.Context, *DeleteRequest) (*Ack, error)
	EnforceConsent(context.Context, *ConsentEnforceRequest) (*Ack, error)
	SetConsentDecision(context.Context, *ConsentDecisionRequest) (*Ack, error)
	GetReferences(context.Context, *ReferencesRequest) (*References, error)
	GetPolicies(context.Context, *PoliciesRequest) (*PolicyList, error)
}

// RegisterO2mServiceServer registers the service implementation.
func RegisterO2mServiceServer(s grpc.ServiceRegistrar, srv O2mServiceServer) {
	s.RegisterService(&O2mService_ServiceDesc, srv)
}

func _O2mService_SetConfidentiality_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	return unaryHandler(O2mSetConfidentialityMethod, srv, ctx, dec, interceptor, func(ctx context.Context, srv any, in *PolicyFlagRequest) (any, error) {
		return srv.(O2mServiceServer).SetConfidentiality(ctx, in)
	})
}

func _O2mService_SetIntegrity_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	return unaryHandler(O2mSetIntegrityMethod, srv, ctx, dec, interceptor, func(ctx context.Context, srv any, in *PolicyFlagRequest) (any, error) {
		return srv.(O2mServiceServer).SetIntegrity(ctx, in)
	})
}

func _O2mService_SetDeleted_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	return unaryHandler(O2mSetDeletedMethod, srv, ctx, dec, interceptor, func(ctx context.Context, srv any, in *DeleteRequest) (any, error) {
		return srv.(O2mServiceServer).SetDeleted(ctx, in)
	})
}

func _O2mService_EnforceConsent_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	return unaryHandler(O2mEnforceConsentMethod, srv, ctx, dec, interceptor, func(ctx context.Context, srv any, in *ConsentEnforceRequest) (any, error) {
		return srv.(O2mServiceServer).EnforceConsent(ctx, in)
	})
}

func _O2mService_SetConsentDecision_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	return unaryHandler(O2mSetConsentDecisionMethod, srv, ctx, dec, interceptor, func(ctx context.Context, srv any, in *ConsentDecisionRequest) (any, error) {
		return srv.(O2mServiceServer).SetConsentDecision(ctx, in)
	})
}

func _O2mService_GetReferences_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	return unaryHandler(O2mGetReferencesMethod, srv, ctx, dec, interceptor, func(ctx context.Context, srv any, in *ReferencesRequest) (any, error) {
		return srv.(O2mServiceServer).GetReferences(ctx, in)
	})
}

func _O2mService_GetPolicies_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	return unaryHandler(O2mGetPoliciesMethod, srv, ctx, dec, interceptor, func(ctx context.Context, srv any, in *PoliciesRequest) (any, error) {
		return srv.(O2mServiceServer).GetPolicies(ctx, in)
	})
}

// O2mService_ServiceDesc is the grpc.ServiceDesc for O2mService.
var O2mService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: "trace2e.v1.O2mService",
	HandlerType: (*O2mServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "SetConfidentiality", Handler: _O2mService_SetConfidentiality_Handler},
		{MethodName: "SetIntegrity", Handler: _O2mService_SetIntegrity_Handler},
		{MethodName: "SetDeleted", Handler: _O2mService_SetDeleted_Handler},
		{MethodName: "EnforceConsent", Handler: _O2mService_EnforceConsent_Handler},
		{MethodName: "SetConsentDecision", Handler: _O2mService_SetConsentDecision_Handler},
		{MethodName: "GetReferences", Handler: _O2mService_GetReferences_Handler},
		{MethodName: "GetPolicies", Handler: _O2mService_GetPolicies_Handler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "api/proto/trace2e/v1/trace2e.proto",
}
