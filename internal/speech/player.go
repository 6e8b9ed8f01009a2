// Package speech plays best-effort audio previews of symbol text.
//
// Playback failures never reach the caller: they are logged and the preview
// degrades to silence. Only one utterance is ever audible; starting a new one
// halts the previous first.
package speech

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/nadzzz/qrforge/internal/tts"
)

var (
	// ErrEmptyPreview is returned by Preview for empty text.
	ErrEmptyPreview = errors.New("please enter some text to preview audio")

	// ErrPreviewTooLong is returned by Preview for text above the configured limit.
	ErrPreviewTooLong = errors.New("text too long for audio preview")
)

// State is the playback state of a Player.
type State int

const (
	Idle State = iota
	Speaking
	Completed
	Errored
)

func (s State) String() string {
	switch s {
	case Speaking:
		return "speaking"
	case Completed:
		return "completed"
	case Errored:
		return "errored"
	default:
		return "idle"
	}
}

// Output plays encoded audio and returns once playback has ended. It must stop
// promptly when ctx is cancelled.
type Output interface {
	Play(ctx context.Context, audio []byte, contentType string) error
}

// Options configures a Player.
type Options struct {
	Language        string        // utterance language, e.g. "en-US"
	MaxPreviewChars int           // 0 disables the limit
	VoiceWait       time.Duration // how long to wait for the voice list
}

// Player speaks one utterance at a time.
type Player struct {
	synth   tts.Synthesizer // nil when no synthesis capability exists
	out     Output
	catalog *Catalog
	opts    Options

	mu     sync.Mutex
	gen    uint64
	cancel context.CancelFunc
	done   chan struct{}
	state  State
}

// NewPlayer creates a Player. A nil synth or out makes every Speak a no-op.
func NewPlayer(synth tts.Synthesizer, out Output, opts Options) *Player {
	p := &Player{synth: synth, out: out, opts: opts}
	if synth != nil {
		p.catalog = NewCatalog(synth)
	}
	return p
}

// State returns the current playback state.
func (p *Player) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Preview validates text as audio preview input and speaks it.
func (p *Player) Preview(ctx context.Context, text string, rate float64) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return ErrEmptyPreview
	}
	if n := len([]rune(text)); p.opts.MaxPreviewChars > 0 && n > p.opts.MaxPreviewChars {
		return fmt.Errorf("%w: %d characters, limit is %d", ErrPreviewTooLong, n, p.opts.MaxPreviewChars)
	}
	p.Speak(ctx, text, rate)
	return nil
}

// Speak plays text and returns when playback completes, fails, or is
// superseded by a later Speak or Stop.
func (p *Player) Speak(ctx context.Context, text string, rate float64) {
	if p.synth == nil || p.out == nil {
		slog.Debug("speech synthesis not supported, skipping preview")
		return
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	p.mu.Lock()
	p.gen++
	gen := p.gen
	if p.cancel != nil {
		p.cancel()
	}
	p.cancel = cancel
	prev := p.done
	done := make(chan struct{})
	p.done = done
	p.mu.Unlock()
	defer close(done)

	// Each utterance waits for its predecessor to halt, so two never overlap.
	if prev != nil {
		<-prev
	}
	if ctx.Err() != nil {
		return
	}

	p.setState(gen, Speaking)
	err := p.play(ctx, text, rate)
	switch {
	case err == nil:
		p.setState(gen, Completed)
	case ctx.Err() != nil:
		slog.Debug("speech cancelled")
	default:
		slog.Warn("speech synthesis error", "error", err)
		p.setState(gen, Errored)
	}
}

// Stop halts any current playback and waits for it to end.
func (p *Player) Stop() {
	p.mu.Lock()
	p.gen++
	if p.cancel != nil {
		p.cancel()
		p.cancel = nil
	}
	done := p.done
	p.state = Idle
	p.mu.Unlock()

	if done != nil {
		<-done
	}
}

func (p *Player) setState(gen uint64, s State) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.gen == gen {
		p.state = s
	}
}

func (p *Player) play(ctx context.Context, text string, rate float64) error {
	opts := tts.SynthesizeOpts{Language: p.opts.Language, Rate: rate}
	if voice, ok := p.selectVoice(ctx); ok {
		opts.Voice = voice.Name
	}

	res, err := p.synth.Synthesize(ctx, text, opts)
	if err != nil {
		return fmt.Errorf("synthesizing: %w", err)
	}
	if err := p.out.Play(ctx, res.Audio, res.ContentType); err != nil {
		return fmt.Errorf("playing: %w", err)
	}
	return nil
}

// selectVoice waits up to VoiceWait for the voice list, then applies SelectVoice.
func (p *Player) selectVoice(ctx context.Context) (tts.Voice, bool) {
	p.catalog.Load(ctx)

	timer := time.NewTimer(p.opts.VoiceWait)
	defer timer.Stop()
	select {
	case <-p.catalog.Ready():
	case <-timer.C:
		slog.Debug("voice list not ready, using backend default")
	case <-ctx.Done():
	}
	return SelectVoice(p.catalog.Voices())
}
