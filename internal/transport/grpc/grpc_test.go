package grpc

import (
	"context"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"

	"github.com/nadzzz/qrforge/internal/api"
	"github.com/nadzzz/qrforge/internal/encoder"
	"github.com/nadzzz/qrforge/internal/generator/remote"
	"github.com/nadzzz/qrforge/internal/qr"
	"github.com/nadzzz/qrforge/internal/service"
)

func startServer(t *testing.T) *Client {
	t.Helper()
	lis := bufconn.Listen(1 << 20)
	ctx, cancel := context.WithCancel(context.Background())

	tr := New(0)
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = tr.Serve(ctx, lis, service.New(encoder.NewQRCode(), nil))
	}()

	client, err := NewClient("passthrough:///bufnet", 5*time.Second,
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}))
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = client.Close()
		cancel()
		<-done
	})
	return client
}

func TestGenerateQR(t *testing.T) {
	client := startServer(t)

	resp, err := client.GenerateQR(context.Background(), api.GenerateRequest{Text: "mailto:a@b.com", Size: 150})
	require.NoError(t, err)
	assert.True(t, resp.Success)
	assert.True(t, strings.HasPrefix(resp.QRCode, "data:image/png;base64,"))
	require.NotNil(t, resp.Info)
	assert.Equal(t, "Email", resp.Info.Type)
	assert.Equal(t, "150x150", resp.Info.Size)
}

func TestGenerateQR_InvalidArgument(t *testing.T) {
	client := startServer(t)

	_, err := client.GenerateQR(context.Background(), api.GenerateRequest{Text: " "})
	require.Error(t, err)
	st, ok := status.FromError(err)
	require.True(t, ok)
	assert.Equal(t, codes.InvalidArgument, st.Code())
	assert.Equal(t, "No text provided", st.Message())
}

func TestGenerateSVGAndHealth(t *testing.T) {
	client := startServer(t)

	svg, err := client.GenerateSVG(context.Background(), api.GenerateRequest{Text: "hello", Size: 90})
	require.NoError(t, err)
	assert.Contains(t, string(svg), `width="90"`)

	health, err := client.Health(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "healthy", health.Status)
	assert.Equal(t, service.Name, health.Service)
}

func TestGenerateAudio_NoSynthesizer(t *testing.T) {
	client := startServer(t)

	var resp api.AudioResponse
	err := client.invoke(context.Background(), "GenerateAudio", &api.AudioRequest{Text: "hello"}, &resp)
	require.NoError(t, err)
	assert.True(t, resp.Success)
	assert.Equal(t, 5, resp.TextLength)
	assert.Empty(t, resp.Audio)
}

func TestRequestIDHeader(t *testing.T) {
	client := startServer(t)

	var header metadata.MD
	ctx := metadata.AppendToOutgoingContext(context.Background(), requestIDKey, "req-42")
	err := client.conn.Invoke(ctx, fullMethod("Health"), &healthRequest{}, &api.HealthResponse{}, grpc.Header(&header))
	require.NoError(t, err)
	assert.Equal(t, []string{"req-42"}, header.Get(requestIDKey))
}

func TestServe_AfterClose(t *testing.T) {
	tr := New(0)
	require.NoError(t, tr.Close())

	done := make(chan error, 1)
	go func() { done <- tr.Serve(context.Background(), bufconn.Listen(1<<10), service.New(encoder.NewQRCode(), nil)) }()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Serve did not return after Close")
	}
}

func TestRemoteStrategyOverGRPC(t *testing.T) {
	s := remote.NewStrategy("grpc", startServer(t))

	res, err := s.Attempt(context.Background(), qr.Request{Text: "hello", Size: 100, Foreground: qr.Black, Background: qr.White, Level: qr.LevelLow})
	require.NoError(t, err)
	assert.Equal(t, qr.SourceRemote, res.Source)
	assert.Equal(t, "grpc", res.Strategy)
	assert.NoError(t, s.Probe(context.Background()))
}
