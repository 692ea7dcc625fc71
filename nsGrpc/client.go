package nsGrpc

import (
	"context"
	"encoding/json"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"nsserial/certificate"
)

type Client struct {
	cc grpc.ClientConnInterface
}

func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

func (c *Client) call(ctx context.Context, method string, n *stringNS, d *stringDecision, opts ...grpc.CallOption) (certificate.Verdict, stringDecision, error) {
	var env envelope
	var err error
	if env.System, err = n.ToJSON(); err != nil {
		return certificate.Unknown, stringDecision{}, err
	}
	if d != nil {
		if env.Certificate, err = certificate.Marshal(*d); err != nil {
			return certificate.Unknown, stringDecision{}, err
		}
	}
	data, err := json.Marshal(env)
	if err != nil {
		return certificate.Unknown, stringDecision{}, err
	}

	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, method, wrapperspb.Bytes(data), out, opts...); err != nil {
		return certificate.Unknown, stringDecision{}, err
	}
	fields := out.GetFields()
	v, err := certificate.ParseVerdict(fields[VerdictField].GetStringValue())
	if err != nil {
		return certificate.Unknown, stringDecision{}, err
	}
	got, err := certificate.Unmarshal[string, string, string, string]([]byte(fields[CertificateField].GetStringValue()))
	if err != nil {
		return certificate.Unknown, stringDecision{}, fmt.Errorf("nsGrpc: certificate in response: %w", err)
	}
	return v, got, nil
}

// Verify asks the server to re-verify d against n
func (c *Client) Verify(ctx context.Context, n *stringNS, d stringDecision, opts ...grpc.CallOption) (certificate.Verdict, error) {
	v, _, err := c.call(ctx, verifyMethod, n, &d, opts...)
	return v, err
}

// Check asks the server to decide whether n is serializable. Returns the verdict and the certificate it is based on.
func (c *Client) Check(ctx context.Context, n *stringNS, opts ...grpc.CallOption) (certificate.Verdict, stringDecision, error) {
	return c.call(ctx, checkMethod, n, nil, opts...)
}
