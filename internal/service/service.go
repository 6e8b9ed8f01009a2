// Package service implements the generation service: the server side of the
// remote generation contract. Transports decode requests, call Service, and
// encode its responses; they never render symbols themselves.
package service

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/nadzzz/qrforge/internal/api"
	"github.com/nadzzz/qrforge/internal/classify"
	"github.com/nadzzz/qrforge/internal/encoder"
	"github.com/nadzzz/qrforge/internal/qr"
	"github.com/nadzzz/qrforge/internal/tts"
)

// Name is reported by the health endpoint.
const Name = "QR Code Generator API"

// MaxAudioChars bounds the text accepted by GenerateAudio.
const MaxAudioChars = 1000

// ErrBadRequest marks errors caused by invalid client input.
var ErrBadRequest = errors.New("bad request")

// RequestError is invalid client input. Its message is safe to return to clients.
type RequestError struct {
	Message string
}

func (e *RequestError) Error() string { return e.Message }

// Is makes every RequestError match ErrBadRequest.
func (e *RequestError) Is(target error) bool { return target == ErrBadRequest }

// Encoder renders symbols and exposes their module matrix.
type Encoder interface {
	encoder.Renderer
	Bitmap(text string, level qr.Level) ([][]bool, error)
}

// Service is the generation backend shared by all transports.
type Service struct {
	encoder     Encoder
	synthesizer tts.Synthesizer // nil if TTS is disabled
	now         func() time.Time
}

// New creates a Service. synthesizer may be nil.
func New(enc Encoder, synthesizer tts.Synthesizer) *Service {
	return &Service{encoder: enc, synthesizer: synthesizer, now: time.Now}
}

func badRequest(msg string) error {
	return &RequestError{Message: msg}
}

// parse validates a wire request and converts it to a normalized qr.Request.
func parse(in api.GenerateRequest) (qr.Request, error) {
	req := qr.Request{
		Text:  in.Text,
		Size:  in.Size,
		Level: qr.ParseLevel(in.ErrorCorrection),
	}
	var err error
	if req.Foreground, err = colorOr(in.QRColor, qr.Black); err != nil {
		return req, badRequest(err.Error())
	}
	if req.Background, err = colorOr(in.BGColor, qr.White); err != nil {
		return req, badRequest(err.Error())
	}
	if in.Size < 0 {
		return req, badRequest("size must be positive")
	}
	req, err = req.Normalize()
	if errors.Is(err, qr.ErrEmptyText) {
		return req, badRequest("No text provided")
	}
	return req, err
}

func colorOr(s string, fallback qr.Color) (qr.Color, error) {
	if strings.TrimSpace(s) == "" {
		return fallback, nil
	}
	return qr.ParseColor(s)
}

// GenerateQR renders a PNG symbol and returns it as a data URI with its info.
func (s *Service) GenerateQR(ctx context.Context, in api.GenerateRequest) (*api.GenerateResponse, error) {
	req, err := parse(in)
	if err != nil {
		return nil, err
	}

	rendering, err := s.encoder.Render(ctx, encoder.OptionsFor(req, req.Size))
	if err != nil {
		return nil, fmt.Errorf("rendering symbol: %w", err)
	}
	if len(rendering.PNG) == 0 {
		return nil, fmt.Errorf("rendering symbol: %w", qr.ErrNoRenderOutput)
	}

	meta := classify.Describe(req, s.now())
	slog.Debug("generated qr", "type", meta.Category, "size", req.Size, "bytes", len(rendering.PNG))
	return &api.GenerateResponse{
		Success: true,
		QRCode:  qr.EncodeDataURI("image/png", rendering.PNG),
		Info: &api.Info{
			Type:            meta.Category,
			Size:            meta.Size,
			Created:         meta.CreatedAt.Format(time.RFC3339Nano),
			DataLength:      meta.Length,
			ErrorCorrection: string(req.Level),
		},
	}, nil
}

// GenerateSVG returns a module-path SVG sized req.Size pixels.
func (s *Service) GenerateSVG(_ context.Context, in api.GenerateRequest) ([]byte, error) {
	req, err := parse(in)
	if err != nil {
		return nil, err
	}
	bitmap, err := s.encoder.Bitmap(req.Text, req.Level)
	if err != nil {
		return nil, fmt.Errorf("encoding symbol: %w", err)
	}
	return pathSVG(bitmap, req.Size, req.Foreground, req.Background), nil
}

// GenerateAudio synthesizes text when a synthesizer is configured, and
// otherwise acknowledges the request without audio.
func (s *Service) GenerateAudio(ctx context.Context, in api.AudioRequest) (*api.AudioResponse, error) {
	text := strings.TrimSpace(in.Text)
	if text == "" {
		return nil, badRequest("No text provided")
	}
	length := len([]rune(text))
	if length > MaxAudioChars {
		return nil, badRequest("Text too long for audio generation")
	}

	resp := &api.AudioResponse{Success: true, TextLength: length}
	if s.synthesizer == nil {
		resp.Message = "audio synthesis is not configured on this server"
		return resp, nil
	}

	lang := in.Language
	if lang == "" {
		lang = "en"
	}
	result, err := s.synthesizer.Synthesize(ctx, text, tts.SynthesizeOpts{Language: lang, Rate: 1})
	if err != nil {
		return nil, fmt.Errorf("synthesizing audio: %w", err)
	}
	resp.Audio = base64.StdEncoding.EncodeToString(result.Audio)
	resp.ContentType = result.ContentType
	return resp, nil
}

// Health reports liveness.
func (s *Service) Health(context.Context) api.HealthResponse {
	return api.HealthResponse{
		Status:    "healthy",
		Timestamp: s.now().Format(time.RFC3339Nano),
		Service:   Name,
	}
}
