package trace2ev1

import (
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/grpc/encoding"
)

// Name is the codec name (and gRPC content-subtype) for the trace2e wire
// format. The service clients of this package set it on every call, so
// CallOption() is only needed for calls made through the connection
// directly; servers pick the codec up from the registry by subtype.
const Name = "trace2e"

func init() {
	encoding.RegisterCodec(codec{})
}

// CallOption returns the dial option that makes a client connection speak
// the trace2e codec for every call.
func CallOption() grpc.DialOption {
	return grpc.WithDefaultCallOptions(grpc.CallContentSubtype(Name))
}

// codec serializes the hand-maintained wire messages of this package.
type codec struct{}

func (codec) Name() string { return Name }

func (codec) Marshal(v any) ([]byte, error) {
	m, ok := v.(wireMessage)
	if !ok {
		return nil, fmt.Errorf("trace2ev1: cannot marshal %T", v)
	}
	return m.appendWire(nil), nil
}

func (codec) Unmarshal(data []byte, v any) error {
	m, ok := v.(wireMessage)
	if !ok {
		return fmt.Errorf("trace2ev1: cannot unmarshal into %T", v)
	}
	return m.unmarshalWire(data)
}
