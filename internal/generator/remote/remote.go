// Package remote talks to the generation service over HTTP and adapts any
// service client into a generation strategy.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/nadzzz/qrforge/internal/api"
	"github.com/nadzzz/qrforge/internal/qr"
)

// ErrUnsuccessful is returned when the service answers 2xx with success=false.
var ErrUnsuccessful = errors.New("service reported failure")

// StatusError is a non-2xx answer from the service.
type StatusError struct {
	Path       string
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s: status %d", e.Path, e.StatusCode)
	}
	return fmt.Sprintf("%s: status %d: %s", e.Path, e.StatusCode, e.Message)
}

// Backend is a client of the generation service, whatever its transport.
type Backend interface {
	GenerateQR(ctx context.Context, req api.GenerateRequest) (*api.GenerateResponse, error)
	GenerateSVG(ctx context.Context, req api.GenerateRequest) ([]byte, error)
	Health(ctx context.Context) (*api.HealthResponse, error)
}

// Client is the HTTP+JSON client of the generation service.
type Client struct {
	baseURL string
	client  *http.Client
}

// NewClient creates a client for the service at baseURL.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

// GenerateQR calls POST /generate-qr.
func (c *Client) GenerateQR(ctx context.Context, req api.GenerateRequest) (*api.GenerateResponse, error) {
	body, err := c.post(ctx, api.PathGenerateQR, req)
	if err != nil {
		return nil, err
	}
	var resp api.GenerateResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("%s: decoding response: %w", api.PathGenerateQR, err)
	}
	return &resp, nil
}

// GenerateSVG calls POST /generate-svg and returns the raw document.
func (c *Client) GenerateSVG(ctx context.Context, req api.GenerateRequest) ([]byte, error) {
	return c.post(ctx, api.PathGenerateSVG, req)
}

// Health calls GET /health.
func (c *Client) Health(ctx context.Context) (*api.HealthResponse, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+api.PathHealth, nil)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", api.PathHealth, err)
	}
	body, err := c.do(httpReq, api.PathHealth)
	if err != nil {
		return nil, err
	}
	var resp api.HealthResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("%s: decoding response: %w", api.PathHealth, err)
	}
	return &resp, nil
}

func (c *Client) post(ctx context.Context, path string, payload any) ([]byte, error) {
	bodyBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("%s: marshalling request: %w", path, err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	return c.do(httpReq, path)
}

func (c *Client) do(httpReq *http.Request, path string) ([]byte, error) {
	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 10<<20))
	if err != nil {
		return nil, fmt.Errorf("%s: reading response: %w", path, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		statusErr := &StatusError{Path: path, StatusCode: resp.StatusCode}
		var errResp api.ErrorResponse
		if json.Unmarshal(body, &errResp) == nil && errResp.Error != "" {
			statusErr.Message = errResp.Error
		} else {
			statusErr.Message = strings.TrimSpace(string(body[:min(len(body), 256)]))
		}
		return nil, statusErr
	}
	return body, nil
}

// Request converts a normalized request into its wire form.
func Request(req qr.Request) api.GenerateRequest {
	return api.GenerateRequest{
		Text:            req.Text,
		Size:            req.Size,
		QRColor:         req.Foreground.String(),
		BGColor:         req.Background.String(),
		ErrorCorrection: string(req.Level),
	}
}

// svgRequest is Request with colors in the bare rrggbb form the vector
// endpoint expects.
func svgRequest(req qr.Request) api.GenerateRequest {
	wire := Request(req)
	wire.QRColor = req.Foreground.Hex()
	wire.BGColor = req.Background.Hex()
	return wire
}

// Strategy generates symbols through a Backend.
type Strategy struct {
	name    string
	backend Backend
	now     func() time.Time
}

// NewStrategy wraps backend as a generation strategy called name.
func NewStrategy(name string, backend Backend) *Strategy {
	return &Strategy{name: name, backend: backend, now: time.Now}
}

func (s *Strategy) Name() string { return s.name }

func (s *Strategy) Source() qr.Source { return qr.SourceRemote }

// Attempt asks the service for a symbol. Non-2xx answers, transport failures
// and success=false all come back as errors.
func (s *Strategy) Attempt(ctx context.Context, req qr.Request) (*qr.Result, error) {
	resp, err := s.backend.GenerateQR(ctx, Request(req))
	if err != nil {
		return nil, err
	}
	if !resp.Success {
		if resp.Error != "" {
			return nil, fmt.Errorf("%w: %s", ErrUnsuccessful, resp.Error)
		}
		return nil, ErrUnsuccessful
	}
	if _, _, err := qr.DecodeDataURI(resp.QRCode); err != nil {
		return nil, fmt.Errorf("%s: %w", api.PathGenerateQR, err)
	}
	if resp.Info != nil {
		slog.Debug("remote generation", "strategy", s.name, "type", resp.Info.Type, "size", resp.Info.Size)
	}
	return &qr.Result{
		Image:     resp.QRCode,
		Source:    qr.SourceRemote,
		Strategy:  s.name,
		CreatedAt: s.now(),
	}, nil
}

// SVG fetches a vector document for req from the service.
func (s *Strategy) SVG(ctx context.Context, req qr.Request) ([]byte, error) {
	return s.backend.GenerateSVG(ctx, svgRequest(req))
}

// Probe reports whether the service answers its health check.
func (s *Strategy) Probe(ctx context.Context) error {
	resp, err := s.backend.Health(ctx)
	if err != nil {
		return err
	}
	if resp.Status != "healthy" {
		return fmt.Errorf("service status %q", resp.Status)
	}
	return nil
}
