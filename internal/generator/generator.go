// Package generator holds the generation strategies tried, in order, by the
// orchestrator: remote service first, local encoder second.
package generator

import (
	"bytes"
	"context"
	"fmt"
	"image/png"
	"log/slog"
	"time"

	"github.com/nadzzz/qrforge/internal/encoder"
	"github.com/nadzzz/qrforge/internal/qr"
)

// Strategy is one way of producing a symbol image.
type Strategy interface {
	// Name identifies the strategy in logs and results (e.g. "http", "grpc", "local").
	Name() string

	// Source reports where results of this strategy come from.
	Source() qr.Source

	// Attempt generates an image for a normalized request.
	Attempt(ctx context.Context, req qr.Request) (*qr.Result, error)
}

// Local renders symbols in-process through the encoding library.
type Local struct {
	renderer encoder.Renderer
	timeout  time.Duration
	now      func() time.Time
}

// NewLocal creates the local strategy. A nil renderer makes every attempt fail
// with qr.ErrLocalUnavailable.
func NewLocal(r encoder.Renderer, timeout time.Duration) *Local {
	return &Local{renderer: r, timeout: timeout, now: time.Now}
}

func (l *Local) Name() string { return "local" }

func (l *Local) Source() qr.Source { return qr.SourceLocal }

// Attempt renders the symbol and waits for completion. The encoded image is
// preferred; the raw surface is encoded as PNG only when no image came back.
func (l *Local) Attempt(ctx context.Context, req qr.Request) (*qr.Result, error) {
	rendering, err := encoder.Await(ctx, l.renderer, encoder.OptionsFor(req, req.Size), l.timeout)
	if err != nil {
		return nil, err
	}

	data := rendering.PNG
	if len(data) == 0 && rendering.Surface != nil {
		slog.Debug("encoder returned no image, encoding surface")
		var buf bytes.Buffer
		if err := png.Encode(&buf, rendering.Surface); err != nil {
			return nil, fmt.Errorf("%w: encoding surface: %v", qr.ErrNoRenderOutput, err)
		}
		data = buf.Bytes()
	}
	if len(data) == 0 {
		return nil, qr.ErrNoRenderOutput
	}

	return &qr.Result{
		Image:     qr.EncodeDataURI("image/png", data),
		Source:    qr.SourceLocal,
		Strategy:  l.Name(),
		CreatedAt: l.now(),
	}, nil
}
