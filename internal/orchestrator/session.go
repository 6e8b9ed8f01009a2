// Package orchestrator owns the generation session: the current result, its
// metadata and the display state, driven by an ordered list of strategies.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/nadzzz/qrforge/internal/classify"
	"github.com/nadzzz/qrforge/internal/generator"
	"github.com/nadzzz/qrforge/internal/qr"
)

var (
	// ErrSuperseded is returned to a Generate call whose result was discarded
	// because a newer Generate or a Reset started before it finished.
	ErrSuperseded = errors.New("generation superseded by a newer request")

	// ErrNoStrategies is returned when the session has nothing to try.
	ErrNoStrategies = errors.New("no generation strategies configured")
)

// Display is what the session currently shows in place of the symbol.
type Display int

const (
	Placeholder Display = iota
	Loading
	Image
)

func (d Display) String() string {
	switch d {
	case Loading:
		return "loading"
	case Image:
		return "image"
	default:
		return "placeholder"
	}
}

// Prober is implemented by strategies that can check their backend.
type Prober interface {
	Probe(ctx context.Context) error
}

// Session is the state of one client: at most one current result, its
// metadata, and the backend availability seen at startup.
type Session struct {
	strategies []generator.Strategy
	now        func() time.Time

	mu       sync.Mutex
	gen      uint64
	cancel   context.CancelFunc
	current  *qr.Result
	metadata *qr.Metadata
	request  qr.Request
	display  Display
	busy     bool
	backend  bool
}

// NewSession creates a session trying strategies in order.
func NewSession(strategies ...generator.Strategy) *Session {
	return &Session{strategies: strategies, now: time.Now}
}

// Generate produces a symbol for req. Strategies are tried in order; the first
// success becomes the current result and its metadata is stored after it.
//
// Empty text is rejected before any strategy runs. When every strategy fails,
// the display returns to the placeholder and the joined errors are returned.
// A Generate that is overtaken by a newer one returns ErrSuperseded and leaves
// the session untouched.
func (s *Session) Generate(ctx context.Context, req qr.Request) (*qr.Result, error) {
	req, err := req.Normalize()
	if err != nil {
		return nil, err
	}
	if len(s.strategies) == 0 {
		return nil, ErrNoStrategies
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	s.mu.Lock()
	s.gen++
	gen := s.gen
	if s.cancel != nil {
		s.cancel()
	}
	s.cancel = cancel
	s.display = Loading
	s.busy = true
	s.mu.Unlock()

	result, errs := s.attempt(ctx, req)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gen != gen {
		return nil, ErrSuperseded
	}
	s.cancel = nil
	s.busy = false

	if result == nil {
		s.current = nil
		s.metadata = nil
		s.display = Placeholder
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
		}
		return nil, fmt.Errorf("generation failed: %w", errors.Join(errs...))
	}

	meta := classify.Describe(req, result.CreatedAt)
	s.current = result
	s.metadata = &meta
	s.request = req
	s.display = Image
	slog.Info("qr generated", "source", result.Source, "strategy", result.Strategy, "type", meta.Category, "size", meta.Size)

	out := *result
	return &out, nil
}

func (s *Session) attempt(ctx context.Context, req qr.Request) (*qr.Result, []error) {
	var errs []error
	for _, strategy := range s.strategies {
		if ctx.Err() != nil {
			break
		}
		result, err := strategy.Attempt(ctx, req)
		if err == nil {
			if result.CreatedAt.IsZero() {
				result.CreatedAt = s.now()
			}
			return result, nil
		}
		if ctx.Err() != nil {
			break
		}
		if strategy.Source() == qr.SourceRemote {
			slog.Warn("remote generation failed, falling back", "strategy", strategy.Name(), "error", err)
		} else {
			slog.Error("local generation failed", "strategy", strategy.Name(), "error", err)
		}
		errs = append(errs, fmt.Errorf("%s: %w", strategy.Name(), err))
	}
	return nil, errs
}

// Current returns a copy of the current result, or nil.
func (s *Session) Current() *qr.Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return nil
	}
	out := *s.current
	return &out
}

// Metadata returns a copy of the metadata describing the current result, or nil.
func (s *Session) Metadata() *qr.Metadata {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.metadata == nil {
		return nil
	}
	out := *s.metadata
	return &out
}

// Request returns the normalized request behind the current result.
func (s *Session) Request() (qr.Request, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.request, s.current != nil
}

func (s *Session) Display() Display {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.display
}

// Busy reports whether a Generate is in flight.
func (s *Session) Busy() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.busy
}

// Reset discards the current result and metadata, cancels any in-flight
// generation and restores the placeholder.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gen++
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.current = nil
	s.metadata = nil
	s.request = qr.Request{}
	s.display = Placeholder
	s.busy = false
}

// ProbeBackend checks the first strategy that can probe its backend and
// records the outcome. It returns false when no strategy can probe.
func (s *Session) ProbeBackend(ctx context.Context) bool {
	available := false
	for _, strategy := range s.strategies {
		p, ok := strategy.(Prober)
		if !ok {
			continue
		}
		if err := p.Probe(ctx); err != nil {
			slog.Warn("backend not available, will use local generation", "strategy", strategy.Name(), "error", err)
		} else {
			slog.Info("backend available", "strategy", strategy.Name())
			available = true
		}
		break
	}

	s.mu.Lock()
	s.backend = available
	s.mu.Unlock()
	return available
}

// BackendAvailable returns the outcome of the last ProbeBackend.
func (s *Session) BackendAvailable() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.backend
}
