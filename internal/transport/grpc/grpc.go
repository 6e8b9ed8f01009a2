// Package grpc implements the gRPC transport of the generation service.
//
// Messages are the JSON wire types of package api carried with a JSON codec,
// so the gRPC and HTTP transports share one contract and no generated code is
// needed. The same package provides the matching client.
package grpc

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/google/uuid"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/encoding"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/nadzzz/qrforge/internal/api"
	"github.com/nadzzz/qrforge/internal/transport"
)

const (
	serviceName = "qrforge.v1.Generator"
	codecName   = "json"

	// requestIDKey is the metadata key carrying the request ID.
	requestIDKey = "x-request-id"
)

func init() {
	encoding.RegisterCodec(jsonCodec{})
}

// jsonCodec marshals messages as JSON. It is selected per call with the
// "json" content subtype.
type jsonCodec struct{}

func (jsonCodec) Marshal(v any) ([]byte, error)      { return json.Marshal(v) }
func (jsonCodec) Unmarshal(data []byte, v any) error { return json.Unmarshal(data, v) }
func (jsonCodec) Name() string                       { return codecName }

type healthRequest struct{}

// generatorServer is the service contract registered with grpc.Server.
type generatorServer interface {
	GenerateQR(ctx context.Context, req *api.GenerateRequest) (*api.GenerateResponse, error)
	GenerateSVG(ctx context.Context, req *api.GenerateRequest) (*api.SVGResponse, error)
	GenerateAudio(ctx context.Context, req *api.AudioRequest) (*api.AudioResponse, error)
	Health(ctx context.Context, req *healthRequest) (*api.HealthResponse, error)
}

var generatorServiceDesc = grpc.ServiceDesc{
	ServiceName: serviceName,
	HandlerType: (*generatorServer)(nil),
	Methods: []grpc.MethodDesc{
		unary("GenerateQR", generatorServer.GenerateQR),
		unary("GenerateSVG", generatorServer.GenerateSVG),
		unary("GenerateAudio", generatorServer.GenerateAudio),
		unary("Health", generatorServer.Health),
	},
	Metadata: "qrforge/generator",
}

func fullMethod(method string) string {
	return "/" + serviceName + "/" + method
}

// unary builds the method descriptor dispatching to call.
func unary[Req, Resp any](method string, call func(generatorServer, context.Context, *Req) (*Resp, error)) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: method,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(Req)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(generatorServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod(method)}
			handler := func(ctx context.Context, req any) (any, error) {
				return call(srv.(generatorServer), ctx, req.(*Req))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

// server adapts transport.Service to generatorServer.
type server struct {
	svc transport.Service
}

func (s *server) GenerateQR(ctx context.Context, req *api.GenerateRequest) (*api.GenerateResponse, error) {
	resp, err := s.svc.GenerateQR(ctx, *req)
	if err != nil {
		return nil, toStatus(ctx, err)
	}
	return resp, nil
}

func (s *server) GenerateSVG(ctx context.Context, req *api.GenerateRequest) (*api.SVGResponse, error) {
	svg, err := s.svc.GenerateSVG(ctx, *req)
	if err != nil {
		return nil, toStatus(ctx, err)
	}
	return &api.SVGResponse{SVG: string(svg)}, nil
}

func (s *server) GenerateAudio(ctx context.Context, req *api.AudioRequest) (*api.AudioResponse, error) {
	resp, err := s.svc.GenerateAudio(ctx, *req)
	if err != nil {
		return nil, toStatus(ctx, err)
	}
	return resp, nil
}

func (s *server) Health(ctx context.Context, _ *healthRequest) (*api.HealthResponse, error) {
	resp := s.svc.Health(ctx)
	return &resp, nil
}

func toStatus(ctx context.Context, err error) error {
	badRequest, msg := transport.ClientMessage(err)
	if badRequest {
		return status.Error(codes.InvalidArgument, msg)
	}
	transport.Logger(ctx).Error("grpc request failed", "error", err)
	return status.Error(codes.Internal, msg)
}

// requestIDInterceptor tags each call with an ID, reusing the caller's when present.
func requestIDInterceptor(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	id := ""
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		if vals := md.Get(requestIDKey); len(vals) > 0 {
			id = vals[0]
		}
	}
	if id == "" {
		id = uuid.NewString()
	}
	_ = grpc.SetHeader(ctx, metadata.Pairs(requestIDKey, id))

	ctx = transport.WithRequestID(ctx, id)
	start := time.Now()
	resp, err := handler(ctx, req)
	transport.Logger(ctx).Debug("grpc request", "method", info.FullMethod, "duration", time.Since(start), "code", status.Code(err))
	return resp, err
}

// Transport implements transport.Transport over gRPC.
type Transport struct {
	port int

	mu     sync.Mutex
	server *grpc.Server
	closed bool
}

// New creates a new gRPC transport on the given port.
func New(port int) *Transport {
	return &Transport{port: port}
}

// Name returns the transport identifier.
func (t *Transport) Name() string { return "grpc" }

// Listen starts the gRPC server and serves requests from svc.
func (t *Transport) Listen(ctx context.Context, svc transport.Service) error {
	lis, err := net.Listen("tcp", fmt.Sprintf(":%d", t.port))
	if err != nil {
		return fmt.Errorf("grpc listen: %w", err)
	}
	slog.Info("grpc transport listening", "port", t.port)
	return t.Serve(ctx, lis, svc)
}

// Serve serves svc on lis until ctx is cancelled.
func (t *Transport) Serve(ctx context.Context, lis net.Listener, svc transport.Service) error {
	srv := grpc.NewServer(grpc.UnaryInterceptor(requestIDInterceptor))
	srv.RegisterService(&generatorServiceDesc, &server{svc: svc})

	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return lis.Close()
	}
	t.server = srv
	t.mu.Unlock()

	go func() {
		<-ctx.Done()
		slog.Info("grpc transport shutting down")
		srv.GracefulStop()
	}()

	return srv.Serve(lis)
}

// Close gracefully stops the gRPC server. A transport closed before Serve
// never starts serving.
func (t *Transport) Close() error {
	t.mu.Lock()
	t.closed = true
	srv := t.server
	t.mu.Unlock()

	if srv != nil {
		srv.GracefulStop()
	}
	return nil
}
