package speech

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"github.com/nadzzz/qrforge/internal/tts"
)

// voiceRules is the preference order used by SelectVoice; the first rule with
// a matching candidate wins.
var voiceRules = []func(tts.Voice) bool{
	func(v tts.Voice) bool { return strings.Contains(v.Name, "Natural") },
	func(v tts.Voice) bool { return strings.Contains(v.Name, "Google") },
	func(v tts.Voice) bool { return isEnglish(v) && strings.Contains(v.Name, "Female") },
	func(v tts.Voice) bool { return isEnglish(v) && strings.Contains(v.Name, "Male") },
	isEnglish,
}

func isEnglish(v tts.Voice) bool {
	return strings.HasPrefix(v.Language, "en")
}

// SelectVoice picks the preferred voice from candidates. It reports false when
// nothing matches, in which case the backend default applies.
func SelectVoice(candidates []tts.Voice) (tts.Voice, bool) {
	for _, rule := range voiceRules {
		for _, v := range candidates {
			if rule(v) {
				return v, true
			}
		}
	}
	return tts.Voice{}, false
}

// Catalog loads the synthesizer's voice list once, in the background, and
// signals readiness on a channel. Voices may therefore be empty at first.
type Catalog struct {
	synth tts.Synthesizer

	once   sync.Once
	ready  chan struct{}
	mu     sync.RWMutex
	voices []tts.Voice
}

// NewCatalog creates a catalog over synth. Loading starts on first use.
func NewCatalog(synth tts.Synthesizer) *Catalog {
	return &Catalog{synth: synth, ready: make(chan struct{})}
}

// Load starts fetching the voice list if it has not been started yet.
func (c *Catalog) Load(ctx context.Context) {
	c.once.Do(func() {
		go func() {
			defer close(c.ready)
			voices, err := c.synth.Voices(context.WithoutCancel(ctx))
			if err != nil {
				slog.Warn("voice list unavailable, using backend default", "error", err)
				return
			}
			c.mu.Lock()
			c.voices = voices
			c.mu.Unlock()
			slog.Debug("voice list loaded", "voices", len(voices))
		}()
	})
}

// Ready is closed once loading has finished, successfully or not.
func (c *Catalog) Ready() <-chan struct{} {
	return c.ready
}

// Voices returns a copy of the voices known so far.
func (c *Catalog) Voices() []tts.Voice {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]tts.Voice(nil), c.voices...)
}
