package nsGrpc

import (
	"context"
	"encoding/json"
	"net"
	"path/filepath"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"nsserial/certificate"
	"nsserial/ns"
)

type stringNS = ns.NS[string, string, string, string]

type stringDecision = certificate.Decision[string, string, string, string]

// Server answers Verifier requests with a certificate checker
type Server struct {
	srv     *grpc.Server
	checker *certificate.Checker[string, string, string, string]
	// Parent of the work directory of every Check call. Empty uses the system temporary directory.
	workdir string
	logger  *zap.Logger
}

func NewServer(checker *certificate.Checker[string, string, string, string], workdir string, logger *zap.Logger, srvOpts ...grpc.ServerOption) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		srv:     grpc.NewServer(srvOpts...),
		checker: checker,
		workdir: workdir,
		logger:  logger,
	}
	RegisterVerifierServer(s.srv, s)
	return s
}

func (s *Server) Serve(lis net.Listener) error {
	s.logger.Info("Serving verifier", zap.String("addr", lis.Addr().String()))
	return s.srv.Serve(lis)
}

func (s *Server) Stop() {
	s.srv.Stop()
}

func (s *Server) decode(in *wrapperspb.BytesValue) (*stringNS, envelope, error) {
	var env envelope
	if err := json.Unmarshal(in.GetValue(), &env); err != nil {
		return nil, env, status.Errorf(codes.InvalidArgument, "malformed envelope: %v", err)
	}
	if len(env.System) == 0 {
		return nil, env, status.Error(codes.InvalidArgument, "envelope without a system")
	}
	n, err := ns.FromJSON[string, string, string, string](env.System)
	if err != nil {
		return nil, env, status.Errorf(codes.InvalidArgument, "malformed system: %v", err)
	}
	return n, env, nil
}

func response(v certificate.Verdict, d stringDecision) (*structpb.Struct, error) {
	data, err := certificate.Marshal(d)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encoding certificate: %v", err)
	}
	return structpb.NewStruct(map[string]any{
		VerdictField:     v.String(),
		KindField:        d.Kind.String(),
		CertificateField: string(data),
	})
}

func (s *Server) Verify(ctx context.Context, in *wrapperspb.BytesValue) (*structpb.Struct, error) {
	n, env, err := s.decode(in)
	if err != nil {
		return nil, err
	}
	if len(env.Certificate) == 0 {
		return nil, status.Error(codes.InvalidArgument, "envelope without a certificate")
	}
	d, err := certificate.Unmarshal[string, string, string, string](env.Certificate)
	if err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "malformed certificate: %v", err)
	}
	v := s.checker.Verify(ctx, n, d)
	s.logger.Debug("Verified certificate", zap.Stringer("kind", d.Kind), zap.Stringer("verdict", v))
	return response(v, d)
}

func (s *Server) Check(ctx context.Context, in *wrapperspb.BytesValue) (*structpb.Struct, error) {
	n, _, err := s.decode(in)
	if err != nil {
		return nil, err
	}
	workdir := ""
	if s.workdir != "" {
		workdir = filepath.Join(s.workdir, uuid.NewString())
	}
	v, d := s.checker.IsSerializable(ctx, n, workdir)
	return response(v, d)
}
