// Package encoder adapts the QR symbol encoding library used for local
// rendering and for the service's own image generation.
//
// Rendering is treated as asynchronous: callers start it with Await, which
// signals completion on a channel and bounds the wait, so a slow or stuck
// renderer never blocks a generation request indefinitely.
package encoder

import (
	"context"
	"errors"
	"fmt"
	"image"
	"time"

	"github.com/nadzzz/qrforge/internal/qr"
)

// ErrRenderTimeout is returned when a rendering does not complete within the wait bound.
var ErrRenderTimeout = errors.New("render did not complete in time")

// Options describes one rendering.
type Options struct {
	Text       string
	Size       int
	Foreground qr.Color
	Background qr.Color
	Level      qr.Level
}

// OptionsFor converts a normalized request into rendering options at size.
func OptionsFor(req qr.Request, size int) Options {
	return Options{
		Text:       req.Text,
		Size:       size,
		Foreground: req.Foreground,
		Background: req.Background,
		Level:      req.Level,
	}
}

// Rendering is the output of a renderer. Either field may be empty: PNG is the
// ready-to-use encoded image, Surface the raw raster it was drawn on.
type Rendering struct {
	PNG     []byte
	Surface image.Image
}

// Renderer draws a QR symbol.
type Renderer interface {
	Render(ctx context.Context, opts Options) (*Rendering, error)
}

// Await runs r.Render and waits for its completion signal for at most timeout.
// A zero timeout waits until ctx is done.
func Await(ctx context.Context, r Renderer, opts Options, timeout time.Duration) (*Rendering, error) {
	if r == nil {
		return nil, qr.ErrLocalUnavailable
	}
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	type outcome struct {
		rendering *Rendering
		err       error
	}
	done := make(chan outcome, 1)
	go func() {
		rendering, err := r.Render(ctx, opts)
		done <- outcome{rendering, err}
	}()

	select {
	case out := <-done:
		return out.rendering, out.err
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w after %s", ErrRenderTimeout, timeout)
		}
		return nil, ctx.Err()
	}
}
