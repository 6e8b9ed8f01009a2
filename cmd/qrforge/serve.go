package main

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/nadzzz/qrforge/internal/client"
	"github.com/nadzzz/qrforge/internal/config"
	"github.com/nadzzz/qrforge/internal/encoder"
	"github.com/nadzzz/qrforge/internal/health"
	"github.com/nadzzz/qrforge/internal/service"
	"github.com/nadzzz/qrforge/internal/transport"
	grpctransport "github.com/nadzzz/qrforge/internal/transport/grpc"
	httptransport "github.com/nadzzz/qrforge/internal/transport/http"
)

func runServe(ctx context.Context, cfg *config.Config, _ []string) error {
	slog.Info("qrforge service starting", "version", version)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	synth := client.NewSynthesizer(cfg.Speech)
	if synth != nil {
		defer synth.Close()
	}
	svc := service.New(encoder.NewQRCode(), synth)

	transports := []transport.Transport{httptransport.New(cfg.Server.HTTPPort, cfg.Server.Swagger)}
	if cfg.Server.GRPCEnabled {
		transports = append(transports, grpctransport.New(cfg.Server.GRPCPort))
	}

	healthServer := health.New(cfg.Server.HealthPort)
	if synth != nil {
		healthServer.AddCheck("speech", func(ctx context.Context) error {
			_, err := synth.Voices(ctx)
			return err
		})
	}
	go func() {
		if err := healthServer.ListenAndServe(ctx); err != nil {
			slog.Error("health server failed", "error", err)
		}
	}()

	err := serveTransports(ctx, transports, svc, func() {
		healthServer.SetReady(true)
		slog.Info("qrforge service ready",
			"transports", len(transports),
			"http_port", cfg.Server.HTTPPort,
			"health_port", cfg.Server.HealthPort)
	})
	healthServer.SetReady(false)
	slog.Info("qrforge service stopped")
	return err
}

// serveTransports runs every transport until ctx is done or one of them
// fails, then stops the rest and waits for them to return. ready is called
// once all transports have been started.
func serveTransports(ctx context.Context, transports []transport.Transport, svc transport.Service, ready func()) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	errs := make(chan error, len(transports))
	var wg sync.WaitGroup
	for _, t := range transports {
		wg.Add(1)
		go func(t transport.Transport) {
			defer wg.Done()
			slog.Info("starting transport", "name", t.Name())
			if err := t.Listen(ctx, svc); err != nil {
				slog.Error("transport failed", "name", t.Name(), "error", err)
				errs <- fmt.Errorf("%s: %w", t.Name(), err)
			}
		}(t)
	}
	if ready != nil {
		ready()
	}

	var runErr error
	select {
	case <-ctx.Done():
		slog.Info("shutdown signal received, draining...")
	case runErr = <-errs:
	}
	cancel()

	for _, t := range transports {
		if err := t.Close(); err != nil {
			slog.Error("transport close error", "name", t.Name(), "error", err)
		}
	}

	wg.Wait()
	return runErr
}
