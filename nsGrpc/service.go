// Package nsGrpc exposes certificate creation and verification over gRPC.
//
// Requests are JSON envelopes carried in a BytesValue, holding a Network System
// with string states and optionally a certificate. Responses are Structs with the
// verdict, the certificate kind and the certificate itself.
package nsGrpc

import (
	"context"
	"encoding/json"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

const (
	serviceName  = "nsserial.Verifier"
	verifyMethod = "/" + serviceName + "/Verify"
	checkMethod  = "/" + serviceName + "/Check"
)

// Field names of the response Struct
const (
	VerdictField     = "verdict"
	KindField        = "kind"
	CertificateField = "certificate"
)

type envelope struct {
	System      json.RawMessage `json:"system"`
	Certificate json.RawMessage `json:"certificate,omitempty"`
}

// VerifierServer is the server side of the Verifier service
type VerifierServer interface {
	// Verify re-verifies the certificate of the envelope against its system
	Verify(context.Context, *wrapperspb.BytesValue) (*structpb.Struct, error)
	// Check creates a certificate for the system of the envelope and verifies it
	Check(context.Context, *wrapperspb.BytesValue) (*structpb.Struct, error)
}

// unaryHandler adapts call to the handler signature of grpc.MethodDesc
func unaryHandler(method string, call func(VerifierServer, context.Context, *wrapperspb.BytesValue) (*structpb.Struct, error)) func(any, context.Context, func(any) error, grpc.UnaryServerInterceptor) (any, error) {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(wrapperspb.BytesValue)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(VerifierServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: method}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(VerifierServer), ctx, req.(*wrapperspb.BytesValue))
		}
		return interceptor(ctx, in, info, handler)
	}
}

var verifierServiceDesc = grpc.ServiceDesc{
	ServiceName: serviceName,
	HandlerType: (*VerifierServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "Verify",
			Handler:    unaryHandler(verifyMethod, VerifierServer.Verify),
		},
		{
			MethodName: "Check",
			Handler:    unaryHandler(checkMethod, VerifierServer.Check),
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "nsserial/verifier",
}

// RegisterVerifierServer registers srv on s
func RegisterVerifierServer(s grpc.ServiceRegistrar, srv VerifierServer) {
	s.RegisterService(&verifierServiceDesc, srv)
}
