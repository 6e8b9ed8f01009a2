// Package transport defines the interface for the generation service's
// network transports.
//
// Each transport (HTTP, gRPC) decodes requests, hands them to the Service and
// encodes the answers. Transports never render symbols themselves.
package transport

import (
	"context"
	"errors"
	"log/slog"

	"github.com/nadzzz/qrforge/internal/api"
	"github.com/nadzzz/qrforge/internal/service"
)

// Service is the generation backend every transport serves.
type Service interface {
	GenerateQR(ctx context.Context, req api.GenerateRequest) (*api.GenerateResponse, error)
	GenerateSVG(ctx context.Context, req api.GenerateRequest) ([]byte, error)
	GenerateAudio(ctx context.Context, req api.AudioRequest) (*api.AudioResponse, error)
	Health(ctx context.Context) api.HealthResponse
}

// Transport is the interface that every transport adapter must implement.
type Transport interface {
	// Name returns the transport identifier (e.g., "grpc", "http").
	Name() string

	// Listen starts accepting requests and serves them from svc.
	// It blocks until the context is cancelled.
	Listen(ctx context.Context, svc Service) error

	// Close gracefully shuts down the transport, draining in-flight work.
	Close() error
}

type requestIDKey struct{}

// WithRequestID returns a context carrying id.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestID returns the request ID carried by ctx, if any.
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

// Logger returns the default logger annotated with the request ID of ctx.
func Logger(ctx context.Context) *slog.Logger {
	if id := RequestID(ctx); id != "" {
		return slog.With("request_id", id)
	}
	return slog.Default()
}

// ClientMessage splits err into whether it was caused by the client and the
// message to report back.
func ClientMessage(err error) (badRequest bool, msg string) {
	var reqErr *service.RequestError
	if errors.As(err, &reqErr) {
		return true, reqErr.Message
	}
	return false, err.Error()
}
