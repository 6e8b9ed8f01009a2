package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"strings"

	"github.com/nadzzz/qrforge/internal/client"
	"github.com/nadzzz/qrforge/internal/config"
	"github.com/nadzzz/qrforge/internal/export"
	"github.com/nadzzz/qrforge/internal/qr"
)

// requestFlags registers the generation overrides shared by generate and export.
type requestFlags struct {
	defaults   config.GenerationConfig
	size       *int
	foreground *string
	background *string
	level      *string
}

func addRequestFlags(fs *flag.FlagSet, g config.GenerationConfig) requestFlags {
	return requestFlags{
		defaults:   g,
		size:       fs.Int("size", g.Size, "edge length in pixels"),
		foreground: fs.String("fg", g.Foreground, "foreground color (#rrggbb)"),
		background: fs.String("bg", g.Background, "background color (#rrggbb)"),
		level:      fs.String("level", g.ErrorCorrection, "error correction level (L, M, Q, H)"),
	}
}

func (f requestFlags) request(text string) (qr.Request, error) {
	if _, err := qr.ParseColor(*f.foreground); err != nil {
		return qr.Request{}, fmt.Errorf("--fg: %w", err)
	}
	if _, err := qr.ParseColor(*f.background); err != nil {
		return qr.Request{}, fmt.Errorf("--bg: %w", err)
	}
	if *f.size <= 0 {
		return qr.Request{}, fmt.Errorf("--size must be positive, got %d", *f.size)
	}
	g := f.defaults
	g.Size = *f.size
	g.Foreground, g.Background = *f.foreground, *f.background
	g.ErrorCorrection = *f.level
	return g.DefaultRequest(text), nil
}

func openClient(ctx context.Context, cfg *config.Config) (*client.Client, error) {
	c, err := client.New(cfg)
	if err != nil {
		return nil, err
	}
	c.Session.ProbeBackend(ctx)
	return c, nil
}

func runGenerate(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("generate", flag.ContinueOnError)
	rf := addRequestFlags(fs, cfg.Generation)
	savePNG := fs.Bool("png", false, "write the PNG to the export directory")
	saveSVG := fs.Bool("svg", false, "write an SVG to the export directory")
	speak := fs.Bool("speak", false, "play an audio preview of the text")
	if err := fs.Parse(args); err != nil {
		return err
	}
	req, err := rf.request(strings.Join(fs.Args(), " "))
	if err != nil {
		return err
	}

	c, err := openClient(ctx, cfg)
	if err != nil {
		return err
	}
	defer c.Close()

	res, meta, err := c.Generate(ctx, req)
	if err != nil {
		return err
	}
	fmt.Printf("source:  %s (%s)\n", res.Source, res.Strategy)
	fmt.Printf("type:    %s\n", meta.Category)
	fmt.Printf("size:    %s\n", meta.Size)
	fmt.Printf("length:  %d\n", meta.Length)
	fmt.Printf("created: %s\n", meta.CreatedAt.Format("2006-01-02 15:04:05"))

	var errs []error
	if *savePNG {
		errs = append(errs, exportPNG(ctx, c))
	}
	if *saveSVG {
		a, err := c.ExportCurrentSVG(ctx)
		errs = append(errs, save(c, a, err))
	}
	if *speak {
		errs = append(errs, c.Preview(ctx, req.Text))
	}
	return errors.Join(errs...)
}

func runExport(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("export", flag.ContinueOnError)
	rf := addRequestFlags(fs, cfg.Generation)
	format := fs.String("format", "png", "artifact format: png or svg")
	if err := fs.Parse(args); err != nil {
		return err
	}
	req, err := rf.request(strings.Join(fs.Args(), " "))
	if err != nil {
		return err
	}

	c, err := openClient(ctx, cfg)
	if err != nil {
		return err
	}
	defer c.Close()

	switch *format {
	case "png":
		if _, err := c.Session.Generate(ctx, req); err != nil {
			return err
		}
		return exportPNG(ctx, c)
	case "svg":
		return exportSVG(ctx, c, req)
	default:
		return fmt.Errorf("unknown format %q", *format)
	}
}

func exportPNG(ctx context.Context, c *client.Client) error {
	a, err := c.Exports.ExportPNG(ctx)
	return save(c, a, err)
}

func exportSVG(ctx context.Context, c *client.Client, req qr.Request) error {
	a, err := c.Exports.ExportSVG(ctx, req)
	return save(c, a, err)
}

// save writes an exported artifact and prints its path.
func save(c *client.Client, a *export.Artifact, err error) error {
	if err != nil {
		return err
	}
	path, err := c.Save(a)
	if err != nil {
		return err
	}
	fmt.Println(path)
	return nil
}

func runSpeak(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("speak", flag.ContinueOnError)
	rate := fs.Float64("rate", cfg.Speech.Rate, "playback rate")
	if err := fs.Parse(args); err != nil {
		return err
	}
	cfg.Speech.Rate = *rate

	c, err := client.New(cfg)
	if err != nil {
		return err
	}
	defer c.Close()
	return c.Preview(ctx, strings.Join(fs.Args(), " "))
}

func runHealth(ctx context.Context, cfg *config.Config, _ []string) error {
	c, err := client.New(cfg)
	if err != nil {
		return err
	}
	defer c.Close()

	if !c.Session.ProbeBackend(ctx) {
		return errors.New("generation service unavailable, local generation will be used")
	}
	fmt.Println("generation service available")
	return nil
}
