package encoder

import (
	"context"
	"fmt"
	"log/slog"

	qrcode "github.com/skip2/go-qrcode"

	"github.com/nadzzz/qrforge/internal/qr"
)

// QRCode renders symbols with github.com/skip2/go-qrcode.
type QRCode struct{}

// NewQRCode returns the default local renderer.
func NewQRCode() *QRCode { return &QRCode{} }

// Render encodes opts.Text and draws it at opts.Size pixels. The surface is
// always returned; PNG is omitted if encoding the surface fails.
func (QRCode) Render(ctx context.Context, opts Options) (*Rendering, error) {
	q, err := newSymbol(opts.Text, opts.Level, opts.Foreground, opts.Background)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	rendering := &Rendering{Surface: q.Image(opts.Size)}
	if png, err := q.PNG(opts.Size); err != nil {
		slog.Debug("png encoding failed, surface only", "error", err)
	} else {
		rendering.PNG = png
	}
	return rendering, nil
}

// Bitmap returns the module matrix for text, including the quiet zone.
func (QRCode) Bitmap(text string, level qr.Level) ([][]bool, error) {
	q, err := newSymbol(text, level, qr.Black, qr.White)
	if err != nil {
		return nil, err
	}
	return q.Bitmap(), nil
}

func newSymbol(text string, level qr.Level, fg, bg qr.Color) (*qrcode.QRCode, error) {
	q, err := qrcode.New(text, recoveryLevel(level))
	if err != nil {
		return nil, fmt.Errorf("encoding symbol: %w", err)
	}
	q.ForegroundColor = fg.RGBA()
	q.BackgroundColor = bg.RGBA()
	return q, nil
}

// recoveryLevel maps L/M/Q/H onto the library's four tiers (7/15/25/30%).
func recoveryLevel(l qr.Level) qrcode.RecoveryLevel {
	switch l {
	case qr.LevelLow:
		return qrcode.Low
	case qr.LevelQuartile:
		return qrcode.High
	case qr.LevelHigh:
		return qrcode.Highest
	default:
		return qrcode.Medium
	}
}
