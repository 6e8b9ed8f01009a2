package main

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nadzzz/qrforge/internal/encoder"
	"github.com/nadzzz/qrforge/internal/service"
	"github.com/nadzzz/qrforge/internal/transport"
)

// failingTransport fails as soon as it starts listening.
type failingTransport struct{ err error }

func (f failingTransport) Name() string { return "failing" }
func (f failingTransport) Listen(context.Context, transport.Service) error {
	return f.err
}
func (f failingTransport) Close() error { return nil }

// lateTransport starts serving after a delay and only stops when its context
// is cancelled; Close before then has nothing to shut down.
type lateTransport struct {
	delay  time.Duration
	closed atomic.Int32
}

func (l *lateTransport) Name() string { return "late" }
func (l *lateTransport) Listen(ctx context.Context, _ transport.Service) error {
	time.Sleep(l.delay)
	<-ctx.Done()
	return nil
}
func (l *lateTransport) Close() error {
	l.closed.Add(1)
	return nil
}

func TestServeTransports_FailureStopsOthers(t *testing.T) {
	boom := errors.New("address in use")
	late := &lateTransport{delay: 50 * time.Millisecond}
	svc := service.New(encoder.NewQRCode(), nil)

	var ready atomic.Bool
	done := make(chan error, 1)
	go func() {
		done <- serveTransports(context.Background(),
			[]transport.Transport{failingTransport{err: boom}, late}, svc,
			func() { ready.Store(true) })
	}()

	select {
	case err := <-done:
		require.ErrorIs(t, err, boom)
		assert.Contains(t, err.Error(), "failing")
	case <-time.After(2 * time.Second):
		t.Fatal("serveTransports did not return after a transport failed")
	}
	assert.True(t, ready.Load())
	assert.Equal(t, int32(1), late.closed.Load())
}

func TestServeTransports_ContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	late := &lateTransport{}

	done := make(chan error, 1)
	go func() {
		done <- serveTransports(ctx, []transport.Transport{late}, service.New(encoder.NewQRCode(), nil), nil)
	}()
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("serveTransports did not return after cancellation")
	}
}
