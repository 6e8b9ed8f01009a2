package grpc

import (
	"context"
	"fmt"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/nadzzz/qrforge/internal/api"
)

// Client calls the generation service over gRPC.
type Client struct {
	conn    *grpc.ClientConn
	timeout time.Duration
}

// NewClient creates a client for target. The connection is established lazily.
func NewClient(target string, timeout time.Duration, opts ...grpc.DialOption) (*Client, error) {
	opts = append([]grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithDefaultCallOptions(grpc.CallContentSubtype(codecName)),
	}, opts...)
	conn, err := grpc.NewClient(target, opts...)
	if err != nil {
		return nil, fmt.Errorf("grpc client %s: %w", target, err)
	}
	return &Client{conn: conn, timeout: timeout}, nil
}

// GenerateQR calls Generator/GenerateQR.
func (c *Client) GenerateQR(ctx context.Context, req api.GenerateRequest) (*api.GenerateResponse, error) {
	var resp api.GenerateResponse
	if err := c.invoke(ctx, "GenerateQR", &req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// GenerateSVG calls Generator/GenerateSVG and returns the document.
func (c *Client) GenerateSVG(ctx context.Context, req api.GenerateRequest) ([]byte, error) {
	var resp api.SVGResponse
	if err := c.invoke(ctx, "GenerateSVG", &req, &resp); err != nil {
		return nil, err
	}
	return []byte(resp.SVG), nil
}

// Health calls Generator/Health.
func (c *Client) Health(ctx context.Context) (*api.HealthResponse, error) {
	var resp api.HealthResponse
	if err := c.invoke(ctx, "Health", &healthRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) invoke(ctx context.Context, method string, req, resp any) error {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}
	if err := c.conn.Invoke(ctx, fullMethod(method), req, resp); err != nil {
		return fmt.Errorf("grpc %s: %w", method, err)
	}
	return nil
}

// Close closes the underlying connection.
func (c *Client) Close() error {
	return c.conn.Close()
}
