// Package export turns the current result, or a fresh vector rendering, into
// named download artifacts.
package export

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/nadzzz/qrforge/internal/qr"
	"github.com/nadzzz/qrforge/internal/vector"
)

// ErrNothingToExport is returned by ExportPNG when no result is current.
var ErrNothingToExport = errors.New("nothing to export, generate a QR code first")

// Artifact is a named file ready to be saved.
type Artifact struct {
	Name        string
	ContentType string
	Data        []byte
}

// CurrentResult exposes the session's current result.
type CurrentResult interface {
	Current() *qr.Result
}

// SVGSource fetches a vector document from the generation service.
type SVGSource interface {
	SVG(ctx context.Context, req qr.Request) ([]byte, error)
}

// Vectorizer traces a local rendering into a vector document.
type Vectorizer interface {
	ToVector(ctx context.Context, req qr.Request) (*vector.Document, error)
}

// Dispatcher builds PNG and SVG artifacts. Artifact names carry a millisecond
// timestamp that is strictly increasing per dispatcher.
type Dispatcher struct {
	session    CurrentResult
	remote     SVGSource // nil when no service is configured
	vectorizer Vectorizer
	now        func() time.Time

	mu   sync.Mutex
	last int64
}

// NewDispatcher creates a dispatcher. remote may be nil.
func NewDispatcher(session CurrentResult, remote SVGSource, vectorizer Vectorizer) *Dispatcher {
	return &Dispatcher{session: session, remote: remote, vectorizer: vectorizer, now: time.Now}
}

// ExportPNG packages the current result.
func (d *Dispatcher) ExportPNG(_ context.Context) (*Artifact, error) {
	current := d.session.Current()
	if current == nil {
		return nil, ErrNothingToExport
	}
	mimeType, data, err := qr.DecodeDataURI(current.Image)
	if err != nil {
		return nil, fmt.Errorf("decoding current image: %w", err)
	}
	return &Artifact{Name: d.name("png"), ContentType: mimeType, Data: data}, nil
}

// ExportSVG produces a vector document for req, from the service when it
// answers and from the local converter otherwise.
func (d *Dispatcher) ExportSVG(ctx context.Context, req qr.Request) (*Artifact, error) {
	req, err := req.Normalize()
	if err != nil {
		return nil, err
	}

	var errs []error
	if d.remote != nil {
		data, err := d.remote.SVG(ctx, req)
		if err == nil && len(data) > 0 {
			return &Artifact{Name: d.name("svg"), ContentType: "image/svg+xml", Data: data}, nil
		}
		if err == nil {
			err = errors.New("empty document")
		}
		slog.Warn("remote svg failed, converting locally", "error", err)
		errs = append(errs, fmt.Errorf("remote: %w", err))
	}

	if d.vectorizer == nil {
		return nil, fmt.Errorf("svg export failed: %w", errors.Join(append(errs, qr.ErrLocalUnavailable)...))
	}
	doc, err := d.vectorizer.ToVector(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("svg export failed: %w", errors.Join(append(errs, fmt.Errorf("local: %w", err))...))
	}
	return &Artifact{Name: d.name("svg"), ContentType: "image/svg+xml", Data: doc.Bytes()}, nil
}

func (d *Dispatcher) name(ext string) string {
	d.mu.Lock()
	defer d.mu.Unlock()
	stamp := d.now().UnixMilli()
	if stamp <= d.last {
		stamp = d.last + 1
	}
	d.last = stamp
	return fmt.Sprintf("qr-code-%d.%s", stamp, ext)
}

// DirSink saves artifacts into a directory.
type DirSink struct {
	dir string
}

// NewDirSink creates a sink writing into dir.
func NewDirSink(dir string) *DirSink {
	return &DirSink{dir: dir}
}

// Save writes a and returns its path. Existing files are never overwritten.
func (s *DirSink) Save(a *Artifact) (string, error) {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", fmt.Errorf("creating export dir: %w", err)
	}
	path := filepath.Join(s.dir, a.Name)
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", fmt.Errorf("creating %s: %w", a.Name, err)
	}
	if _, err := f.Write(a.Data); err != nil {
		_ = f.Close()
		return "", fmt.Errorf("writing %s: %w", a.Name, err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("closing %s: %w", a.Name, err)
	}
	slog.Info("exported", "path", path, "bytes", len(a.Data))
	return path, nil
}
