// Package vector converts a small raster rendering of a symbol into an
// equivalent SVG document made of one rectangle per dark sample.
package vector

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"log/slog"
	"strconv"
	"time"

	"github.com/nadzzz/qrforge/internal/encoder"
	"github.com/nadzzz/qrforge/internal/qr"
)

const (
	// SamplingResolution is the edge length of the grid the symbol is sampled on.
	SamplingResolution = 100

	// darkThreshold is compared per channel; a sample is dark when R, G and B
	// are all below it. Luminance and anti-aliasing are deliberately ignored.
	darkThreshold = 128
)

// ErrNoSurface is returned when the renderer produced no readable raster.
var ErrNoSurface = errors.New("rendering surface unavailable")

// Rect is a filled rectangle in document coordinates.
type Rect struct {
	X, Y, Width, Height float64
	Fill                qr.Color
}

// Document is a vector rendering of a symbol. Background is drawn first so
// that Cells paint on top of it.
type Document struct {
	Size       int
	Background qr.Color
	Cells      []Rect
}

// Converter samples the local renderer and traces the result.
type Converter struct {
	renderer encoder.Renderer
	timeout  time.Duration
}

// NewConverter creates a converter over r. timeout bounds each rendering.
func NewConverter(r encoder.Renderer, timeout time.Duration) *Converter {
	return &Converter{renderer: r, timeout: timeout}
}

// ToVector renders req at SamplingResolution and traces it to a document of
// req.Size pixels.
func (c *Converter) ToVector(ctx context.Context, req qr.Request) (*Document, error) {
	req, err := req.Normalize()
	if err != nil {
		return nil, err
	}

	rendering, err := encoder.Await(ctx, c.renderer, encoder.OptionsFor(req, SamplingResolution), c.timeout)
	if err != nil {
		return nil, fmt.Errorf("sampling symbol: %w", err)
	}
	if rendering == nil || rendering.Surface == nil {
		return nil, ErrNoSurface
	}

	doc := Trace(rendering.Surface, SamplingResolution, req.Size, req.Foreground, req.Background)
	slog.Debug("traced symbol", "cells", len(doc.Cells), "size", req.Size)
	return doc, nil
}

// Trace samples surface on a resolution×resolution grid and emits one cell of
// targetSize/resolution per dark sample. Surfaces whose bounds differ from the
// grid are sampled nearest-neighbour.
func Trace(surface image.Image, resolution, targetSize int, fg, bg qr.Color) *Document {
	doc := &Document{Size: targetSize, Background: bg}
	if resolution <= 0 {
		return doc
	}

	bounds := surface.Bounds()
	cell := float64(targetSize) / float64(resolution)
	for y := 0; y < resolution; y++ {
		sy := bounds.Min.Y + y*bounds.Dy()/resolution
		for x := 0; x < resolution; x++ {
			sx := bounds.Min.X + x*bounds.Dx()/resolution
			if !isDark(surface, sx, sy) {
				continue
			}
			doc.Cells = append(doc.Cells, Rect{
				X:      float64(x) * cell,
				Y:      float64(y) * cell,
				Width:  cell,
				Height: cell,
				Fill:   fg,
			})
		}
	}
	return doc
}

func isDark(img image.Image, x, y int) bool {
	r, g, b, _ := img.At(x, y).RGBA()
	return r>>8 < darkThreshold && g>>8 < darkThreshold && b>>8 < darkThreshold
}

// WriteTo writes the document as a standalone SVG file.
func (d *Document) WriteTo(w io.Writer) (int64, error) {
	var buf bytes.Buffer
	size := strconv.Itoa(d.Size)
	buf.WriteString(`<?xml version="1.0" encoding="UTF-8"?>` + "\n")
	fmt.Fprintf(&buf, `<svg width="%s" height="%s" viewBox="0 0 %s %s" xmlns="http://www.w3.org/2000/svg">`, size, size, size, size)
	fmt.Fprintf(&buf, "\n    <rect width=\"100%%\" height=\"100%%\" fill=\"%s\"/>", d.Background)
	for _, c := range d.Cells {
		fmt.Fprintf(&buf, `<rect x="%s" y="%s" width="%s" height="%s" fill="%s"/>`,
			num(c.X), num(c.Y), num(c.Width), num(c.Height), c.Fill)
	}
	buf.WriteString("</svg>")
	return buf.WriteTo(w)
}

// Bytes returns the SVG encoding of the document.
func (d *Document) Bytes() []byte {
	var buf bytes.Buffer
	_, _ = d.WriteTo(&buf)
	return buf.Bytes()
}

func num(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
