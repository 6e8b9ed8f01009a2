package orchestrator

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nadzzz/qrforge/internal/classify"
	"github.com/nadzzz/qrforge/internal/qr"
)

type fakeStrategy struct {
	name   string
	source qr.Source
	err    error
	probe  error
	block  chan struct{}
	calls  atomic.Int32
}

func (f *fakeStrategy) Name() string      { return f.name }
func (f *fakeStrategy) Source() qr.Source { return f.source }

func (f *fakeStrategy) Attempt(ctx context.Context, req qr.Request) (*qr.Result, error) {
	// Only the first call blocks, until released or cancelled.
	if f.calls.Add(1) == 1 && f.block != nil {
		select {
		case <-f.block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if f.err != nil {
		return nil, f.err
	}
	return &qr.Result{
		Image:    qr.EncodeDataURI("image/png", []byte(req.Text)),
		Source:   f.source,
		Strategy: f.name,
	}, nil
}

type probingStrategy struct{ *fakeStrategy }

func (p probingStrategy) Probe(context.Context) error { return p.probe }

func remote(err error) *fakeStrategy {
	return &fakeStrategy{name: "http", source: qr.SourceRemote, err: err}
}

func local(err error) *fakeStrategy {
	return &fakeStrategy{name: "local", source: qr.SourceLocal, err: err}
}

func request(text string) qr.Request {
	return qr.Request{Text: text, Size: 300}
}

func TestGenerate_RemoteSuccess(t *testing.T) {
	r, l := remote(nil), local(nil)
	s := NewSession(r, l)

	res, err := s.Generate(context.Background(), request("hello"))
	require.NoError(t, err)
	assert.Equal(t, qr.SourceRemote, res.Source)
	assert.Zero(t, l.calls.Load())
	assert.Equal(t, Image, s.Display())
	assert.False(t, s.Busy())
}

func TestGenerate_FallsBackToLocal(t *testing.T) {
	for _, remoteErr := range []error{
		errors.New("status 500"),
		errors.New("connection refused"),
		errors.New("service reported failure"),
	} {
		t.Run(remoteErr.Error(), func(t *testing.T) {
			s := NewSession(remote(remoteErr), local(nil))
			res, err := s.Generate(context.Background(), request("hello"))
			require.NoError(t, err)
			assert.Equal(t, qr.SourceLocal, res.Source)
			assert.Equal(t, qr.SourceLocal, s.Current().Source)
		})
	}
}

func TestGenerate_EmptyInputMakesNoCalls(t *testing.T) {
	r, l := remote(nil), local(nil)
	s := NewSession(r, l)

	_, err := s.Generate(context.Background(), request("   \n"))
	assert.ErrorIs(t, err, qr.ErrEmptyText)
	assert.Zero(t, r.calls.Load())
	assert.Zero(t, l.calls.Load())
	assert.Equal(t, Placeholder, s.Display())
}

func TestGenerate_AllFail(t *testing.T) {
	s := NewSession(remote(errors.New("down")), local(qr.ErrLocalUnavailable))

	_, err := s.Generate(context.Background(), request("first"))
	require.Error(t, err)
	assert.ErrorIs(t, err, qr.ErrLocalUnavailable)
	assert.Contains(t, err.Error(), "down")
	assert.Nil(t, s.Current())
	assert.Nil(t, s.Metadata())
	assert.Equal(t, Placeholder, s.Display())
	assert.False(t, s.Busy())
}

func TestGenerate_TrimsAndDescribes(t *testing.T) {
	s := NewSession(local(nil))
	fixed := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return fixed }

	_, err := s.Generate(context.Background(), request("  https://example.com  "))
	require.NoError(t, err)

	meta := s.Metadata()
	require.NotNil(t, meta)
	assert.Equal(t, string(classify.URL), meta.Category)
	assert.Equal(t, "300x300", meta.Size)
	assert.Equal(t, len("https://example.com"), meta.Length)
	assert.Equal(t, fixed, meta.CreatedAt)

	req, ok := s.Request()
	assert.True(t, ok)
	assert.Equal(t, "https://example.com", req.Text)
}

func TestGenerate_Supersession(t *testing.T) {
	slow := &fakeStrategy{name: "http", source: qr.SourceRemote, block: make(chan struct{})}
	s := NewSession(slow)

	firstErr := make(chan error, 1)
	go func() {
		_, err := s.Generate(context.Background(), request("first"))
		firstErr <- err
	}()
	require.Eventually(t, func() bool { return slow.calls.Load() == 1 }, time.Second, time.Millisecond)
	assert.True(t, s.Busy())
	assert.Equal(t, Loading, s.Display())

	res, err := s.Generate(context.Background(), request("second"))
	require.NoError(t, err)

	assert.ErrorIs(t, <-firstErr, ErrSuperseded)
	assert.Equal(t, res.Image, s.Current().Image)
	assert.Equal(t, len("second"), s.Metadata().Length)
	assert.Equal(t, int32(2), slow.calls.Load())
}

func TestReset(t *testing.T) {
	s := NewSession(local(nil))
	_, err := s.Generate(context.Background(), request("hello"))
	require.NoError(t, err)
	require.NotNil(t, s.Current())

	s.Reset()
	assert.Nil(t, s.Current())
	assert.Nil(t, s.Metadata())
	assert.Equal(t, Placeholder, s.Display())
	_, ok := s.Request()
	assert.False(t, ok)
}

func TestReset_DiscardsInFlight(t *testing.T) {
	slow := &fakeStrategy{name: "local", source: qr.SourceLocal, block: make(chan struct{})}
	s := NewSession(slow)

	errCh := make(chan error, 1)
	go func() {
		_, err := s.Generate(context.Background(), request("hello"))
		errCh <- err
	}()
	require.Eventually(t, func() bool { return slow.calls.Load() == 1 }, time.Second, time.Millisecond)

	s.Reset()
	assert.ErrorIs(t, <-errCh, ErrSuperseded)
	assert.Nil(t, s.Current())
	assert.False(t, s.Busy())
}

func TestProbeBackend(t *testing.T) {
	up := probingStrategy{remote(nil)}
	s := NewSession(up, local(nil))
	assert.True(t, s.ProbeBackend(context.Background()))
	assert.True(t, s.BackendAvailable())

	down := probingStrategy{remote(nil)}
	down.probe = errors.New("refused")
	s = NewSession(down, local(nil))
	assert.False(t, s.ProbeBackend(context.Background()))
	assert.False(t, s.BackendAvailable())

	assert.False(t, NewSession(local(nil)).ProbeBackend(context.Background()))
}

func TestGenerate_NoStrategies(t *testing.T) {
	_, err := NewSession().Generate(context.Background(), request("x"))
	assert.ErrorIs(t, err, ErrNoStrategies)
}
