// Qrforge generates QR codes. It runs either as the generation service or as
// a client that prefers the service and falls back to local rendering.
//
// Usage:
//
//	qrforge [--config file] serve
//	qrforge [--config file] generate [flags] <text>
//	qrforge [--config file] export [--format png|svg] <text>
//	qrforge [--config file] speak [--rate r] <text>
//	qrforge [--config file] health
//	qrforge version
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/nadzzz/qrforge/internal/config"
)

// version is set at build time via ldflags.
var version = "dev"

type command func(ctx context.Context, cfg *config.Config, args []string) error

var commands = map[string]command{
	"serve":    runServe,
	"generate": runGenerate,
	"export":   runExport,
	"speak":    runSpeak,
	"health":   runHealth,
}

func main() {
	configFile := flag.String("config", "", "path to config file (e.g. configs/qrforge.yaml)")
	flag.Usage = usage
	flag.Parse()

	name := flag.Arg(0)
	if name == "version" {
		fmt.Printf("qrforge %s\n", version)
		return
	}
	cmd, ok := commands[name]
	if !ok {
		usage()
		os.Exit(2)
	}

	cfg, err := config.Load(*configFile)
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}
	config.SetupLogging(cfg.Logging)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := cmd(ctx, cfg, flag.Args()[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "qrforge %s: %v\n", name, err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintf(os.Stderr, `usage: qrforge [--config file] <command> [args]

commands:
  serve      run the generation service (HTTP, gRPC, health)
  generate   generate a QR code, optionally exporting and speaking it
  export     write a PNG or SVG QR code to the export directory
  speak      play an audio preview of text
  health     check whether the generation service is reachable
  version    print the version
`)
}
