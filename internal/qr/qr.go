// Package qr defines the core data types flowing through the qrforge pipeline:
// generation requests, generation results and the metadata derived from them.
package qr

import (
	"errors"
	"fmt"
	"image/color"
	"strconv"
	"strings"
	"time"
)

// DefaultSize is the square edge length, in pixels, used when a request omits one.
const DefaultSize = 300

var (
	// ErrEmptyText is returned when the input text is empty after trimming.
	ErrEmptyText = errors.New("no text provided")

	// ErrLocalUnavailable is returned when the local encoding library cannot be used at all.
	ErrLocalUnavailable = errors.New("local QR encoder unavailable")

	// ErrNoRenderOutput is returned when local rendering produced neither an
	// encoded image nor a readable surface.
	ErrNoRenderOutput = errors.New("could not generate QR code")
)

// Level is the error-correction tier of a symbol.
type Level string

const (
	LevelLow      Level = "L"
	LevelMedium   Level = "M"
	LevelQuartile Level = "Q"
	LevelHigh     Level = "H"
)

// ParseLevel maps a level letter to a Level. Unknown values fall back to Medium,
// matching how the service treats unrecognised input.
func ParseLevel(s string) Level {
	switch Level(strings.ToUpper(strings.TrimSpace(s))) {
	case LevelLow:
		return LevelLow
	case LevelQuartile:
		return LevelQuartile
	case LevelHigh:
		return LevelHigh
	default:
		return LevelMedium
	}
}

// Valid reports whether l is one of the four known tiers.
func (l Level) Valid() bool {
	switch l {
	case LevelLow, LevelMedium, LevelQuartile, LevelHigh:
		return true
	}
	return false
}

// Color is an opaque RGB color as exchanged with the service ("#rrggbb").
type Color struct {
	R, G, B uint8
}

var (
	Black = Color{0, 0, 0}
	White = Color{0xff, 0xff, 0xff}
)

// ParseColor accepts "#rrggbb", "rrggbb", "#rgb" or "rgb".
func ParseColor(s string) (Color, error) {
	hex := strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(hex) == 3 {
		hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
	}
	if len(hex) != 6 {
		return Color{}, fmt.Errorf("invalid color %q", s)
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return Color{}, fmt.Errorf("invalid color %q: %w", s, err)
	}
	return Color{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v)}, nil
}

// String returns the color as "#rrggbb".
func (c Color) String() string {
	return "#" + c.Hex()
}

// Hex returns the color as "rrggbb" without the leading '#'.
func (c Color) Hex() string {
	return fmt.Sprintf("%02x%02x%02x", c.R, c.G, c.B)
}

// RGBA converts c to an opaque color.RGBA.
func (c Color) RGBA() color.RGBA {
	return color.RGBA{R: c.R, G: c.G, B: c.B, A: 0xff}
}

// Request describes one symbol to generate.
type Request struct {
	Text       string
	Size       int
	Foreground Color
	Background Color
	Level      Level
}

// Normalize trims the text, fills defaults and rejects empty input.
// Identical foreground and background colors, including the zero value
// for both, fall back to black on white.
func (r Request) Normalize() (Request, error) {
	r.Text = strings.TrimSpace(r.Text)
	if r.Text == "" {
		return r, ErrEmptyText
	}
	if r.Size <= 0 {
		r.Size = DefaultSize
	}
	if !r.Level.Valid() {
		r.Level = LevelMedium
	}
	if r.Foreground == r.Background {
		r.Foreground, r.Background = Black, White
	}
	return r, nil
}

// Source tags which path produced a Result.
type Source string

const (
	SourceRemote Source = "remote"
	SourceLocal  Source = "local"
)

// Result is a generated symbol image.
type Result struct {
	// Image is the encoded image as a data URI ("data:image/png;base64,...").
	Image string

	// Source is the path that produced the image.
	Source Source

	// Strategy names the concrete strategy (e.g. "http", "grpc", "local").
	Strategy string

	// CreatedAt is when the result was produced.
	CreatedAt time.Time
}

// Metadata is the info panel shown alongside the current Result.
type Metadata struct {
	Category  string
	Size      string
	CreatedAt time.Time
	Length    int
}
