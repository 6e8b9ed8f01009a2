// Package client assembles the qrforge client from configuration: the
// generation session with its strategy chain, the export dispatcher and the
// speech player.
package client

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/nadzzz/qrforge/internal/config"
	"github.com/nadzzz/qrforge/internal/encoder"
	"github.com/nadzzz/qrforge/internal/export"
	"github.com/nadzzz/qrforge/internal/generator"
	"github.com/nadzzz/qrforge/internal/generator/remote"
	"github.com/nadzzz/qrforge/internal/orchestrator"
	"github.com/nadzzz/qrforge/internal/qr"
	"github.com/nadzzz/qrforge/internal/speech"
	grpctransport "github.com/nadzzz/qrforge/internal/transport/grpc"
	"github.com/nadzzz/qrforge/internal/tts"
	"github.com/nadzzz/qrforge/internal/tts/piper"
	"github.com/nadzzz/qrforge/internal/vector"
)

// Client is one user session against the generation service.
type Client struct {
	Session *orchestrator.Session
	Exports *export.Dispatcher
	Speech  *speech.Player
	Sink    *export.DirSink

	rate    float64
	closers []io.Closer
}

// New builds a client. The remote strategy uses the configured transport; the
// local encoder is always the fallback.
func New(cfg *config.Config) (*Client, error) {
	renderer := encoder.NewQRCode()

	backend, closer, err := newBackend(cfg.Client)
	if err != nil {
		return nil, err
	}
	c := &Client{rate: cfg.Speech.Rate}
	if closer != nil {
		c.closers = append(c.closers, closer)
	}

	remoteStrategy := remote.NewStrategy(cfg.Client.Transport, backend)
	c.Session = orchestrator.NewSession(
		remoteStrategy,
		generator.NewLocal(renderer, cfg.Generation.RenderTimeout),
	)
	c.Exports = export.NewDispatcher(c.Session, remoteStrategy, vector.NewConverter(renderer, cfg.Generation.RenderTimeout))
	c.Sink = export.NewDirSink(cfg.Export.Dir)

	synth := NewSynthesizer(cfg.Speech)
	if synth != nil {
		c.closers = append(c.closers, synth)
	}
	out, err := newOutput(cfg.Speech)
	if err != nil {
		return nil, err
	}
	c.Speech = speech.NewPlayer(synth, out, speech.Options{
		Language:        cfg.Speech.Language,
		MaxPreviewChars: cfg.Speech.MaxPreviewChars,
		VoiceWait:       cfg.Speech.VoiceWait,
	})
	return c, nil
}

func newBackend(cfg config.ClientConfig) (remote.Backend, io.Closer, error) {
	switch cfg.Transport {
	case "grpc":
		c, err := grpctransport.NewClient(cfg.GRPCTarget, cfg.Timeout)
		if err != nil {
			return nil, nil, err
		}
		slog.Debug("using grpc backend", "target", cfg.GRPCTarget)
		return c, c, nil
	default:
		slog.Debug("using http backend", "url", cfg.BackendURL)
		return remote.NewClient(cfg.BackendURL, cfg.Timeout), nil, nil
	}
}

// NewSynthesizer returns the configured speech backend, or nil when speech is
// disabled.
func NewSynthesizer(cfg config.SpeechConfig) tts.Synthesizer {
	if !cfg.Enabled {
		return nil
	}
	switch strings.ToLower(cfg.Backend) {
	case "piper":
		slog.Info("using piper synthesizer", "endpoint", cfg.Piper.Endpoint)
		return piper.New(cfg.Piper)
	default:
		slog.Info("speech synthesis disabled", "backend", cfg.Backend)
		return nil
	}
}

func newOutput(cfg config.SpeechConfig) (speech.Output, error) {
	if cfg.PlayerCommand == "" {
		return speech.NewFileOutput(cfg.OutputDir), nil
	}
	out, err := speech.NewCommandOutput(cfg.PlayerCommand)
	if err != nil {
		return nil, fmt.Errorf("speech.player_command: %w", err)
	}
	return out, nil
}


// Generate produces a symbol for req through the session.
func (c *Client) Generate(ctx context.Context, req qr.Request) (*qr.Result, *qr.Metadata, error) {
	res, err := c.Session.Generate(ctx, req)
	if err != nil {
		return nil, nil, err
	}
	return res, c.Session.Metadata(), nil
}

// Preview speaks text at the configured rate.
func (c *Client) Preview(ctx context.Context, text string) error {
	return c.Speech.Preview(ctx, text, c.rate)
}

// ExportCurrentSVG vectorizes the request behind the session's current
// result.
func (c *Client) ExportCurrentSVG(ctx context.Context) (*export.Artifact, error) {
	req, ok := c.Session.Request()
	if !ok {
		return nil, export.ErrNothingToExport
	}
	return c.Exports.ExportSVG(ctx, req)
}

// Save exports a and writes it to the export directory.
func (c *Client) Save(a *export.Artifact) (string, error) {
	return c.Sink.Save(a)
}

// Reset clears the session and silences any preview.
func (c *Client) Reset() {
	c.Session.Reset()
	c.Speech.Stop()
}

// Close releases backend connections.
func (c *Client) Close() error {
	var firstErr error
	for _, cl := range c.closers {
		if err := cl.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
