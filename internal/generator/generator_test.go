package generator

import (
	"context"
	"image"
	"image/color"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nadzzz/qrforge/internal/encoder"
	"github.com/nadzzz/qrforge/internal/qr"
)

type stubRenderer struct {
	rendering *encoder.Rendering
	err       error
}

func (s stubRenderer) Render(context.Context, encoder.Options) (*encoder.Rendering, error) {
	return s.rendering, s.err
}

func request() qr.Request {
	return qr.Request{Text: "hello", Size: 64, Foreground: qr.Black, Background: qr.White, Level: qr.LevelMedium}
}

func TestLocal_WithEncoder(t *testing.T) {
	res, err := NewLocal(encoder.NewQRCode(), time.Second).Attempt(context.Background(), request())
	require.NoError(t, err)

	assert.Equal(t, qr.SourceLocal, res.Source)
	assert.Equal(t, "local", res.Strategy)
	mime, data, err := qr.DecodeDataURI(res.Image)
	require.NoError(t, err)
	assert.Equal(t, "image/png", mime)
	assert.NotEmpty(t, data)
}

func TestLocal_PrefersEncodedImage(t *testing.T) {
	r := stubRenderer{rendering: &encoder.Rendering{PNG: []byte("png"), Surface: image.NewGray(image.Rect(0, 0, 1, 1))}}
	res, err := NewLocal(r, time.Second).Attempt(context.Background(), request())
	require.NoError(t, err)
	assert.Equal(t, qr.EncodeDataURI("image/png", []byte("png")), res.Image)
}

func TestLocal_FallsBackToSurface(t *testing.T) {
	surface := image.NewGray(image.Rect(0, 0, 2, 2))
	surface.Set(0, 0, color.White)
	r := stubRenderer{rendering: &encoder.Rendering{Surface: surface}}

	res, err := NewLocal(r, time.Second).Attempt(context.Background(), request())
	require.NoError(t, err)
	_, data, err := qr.DecodeDataURI(res.Image)
	require.NoError(t, err)
	assert.Equal(t, "\x89PNG", string(data[:4]))
}

func TestLocal_NoOutput(t *testing.T) {
	_, err := NewLocal(stubRenderer{rendering: &encoder.Rendering{}}, time.Second).Attempt(context.Background(), request())
	assert.ErrorIs(t, err, qr.ErrNoRenderOutput)
}

func TestLocal_Unavailable(t *testing.T) {
	_, err := NewLocal(nil, time.Second).Attempt(context.Background(), request())
	assert.ErrorIs(t, err, qr.ErrLocalUnavailable)
}
