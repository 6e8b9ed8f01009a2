package http

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nadzzz/qrforge/internal/api"
	"github.com/nadzzz/qrforge/internal/encoder"
	"github.com/nadzzz/qrforge/internal/generator/remote"
	"github.com/nadzzz/qrforge/internal/qr"
	"github.com/nadzzz/qrforge/internal/service"
	"github.com/nadzzz/qrforge/internal/tts"
)

type fakeSynth struct{}

func (fakeSynth) Synthesize(_ context.Context, text string, _ tts.SynthesizeOpts) (*tts.SynthesizeResult, error) {
	return &tts.SynthesizeResult{Audio: []byte("RIFF" + text), ContentType: "audio/wav"}, nil
}
func (fakeSynth) Voices(context.Context) ([]tts.Voice, error) { return nil, nil }
func (fakeSynth) Close() error                                { return nil }

func newServer(t *testing.T, synth tts.Synthesizer) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(New(0, true).Handler(service.New(encoder.NewQRCode(), synth)))
	t.Cleanup(srv.Close)
	return srv
}

func post(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	b, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(url, "application/json", bytes.NewReader(b))
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func TestGenerateQR(t *testing.T) {
	srv := newServer(t, nil)
	resp := post(t, srv.URL+api.PathGenerateQR, api.GenerateRequest{Text: "https://example.com", Size: 200, ErrorCorrection: "H"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
	assert.NotEmpty(t, resp.Header.Get(RequestIDHeader))

	var out api.GenerateResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.True(t, out.Success)
	assert.True(t, strings.HasPrefix(out.QRCode, "data:image/png;base64,"))
	require.NotNil(t, out.Info)
	assert.Equal(t, "URL", out.Info.Type)
	assert.Equal(t, "200x200", out.Info.Size)
	assert.Equal(t, len("https://example.com"), out.Info.DataLength)
	assert.Equal(t, "H", out.Info.ErrorCorrection)
}

func TestGenerateQR_BadRequests(t *testing.T) {
	srv := newServer(t, nil)

	resp := post(t, srv.URL+api.PathGenerateQR, api.GenerateRequest{Text: "  "})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	var out api.ErrorResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.Equal(t, "No text provided", out.Error)

	resp, err := http.Post(srv.URL+api.PathGenerateQR, "application/json", strings.NewReader("{"))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestGenerateSVG(t *testing.T) {
	srv := newServer(t, nil)
	resp := post(t, srv.URL+api.PathGenerateSVG, api.GenerateRequest{Text: "hello", Size: 120, QRColor: "ff0000", BGColor: "00ff00"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "image/svg+xml", resp.Header.Get("Content-Type"))

	var buf bytes.Buffer
	_, err := buf.ReadFrom(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), `width="120"`)
	assert.Contains(t, buf.String(), "#ff0000")
	assert.Contains(t, buf.String(), "#00ff00")
}

func TestGenerateAudio(t *testing.T) {
	srv := newServer(t, fakeSynth{})

	resp := post(t, srv.URL+api.PathGenerateAudio, api.AudioRequest{Text: "hi"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var out api.AudioResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.True(t, out.Success)
	assert.Equal(t, 2, out.TextLength)
	audio, err := base64.StdEncoding.DecodeString(out.Audio)
	require.NoError(t, err)
	assert.Equal(t, "RIFFhi", string(audio))

	resp = post(t, srv.URL+api.PathGenerateAudio, api.AudioRequest{Text: strings.Repeat("a", service.MaxAudioChars+1)})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestGenerateAudio_NoSynthesizer(t *testing.T) {
	srv := newServer(t, nil)
	resp := post(t, srv.URL+api.PathGenerateAudio, api.AudioRequest{Text: "hi"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var out api.AudioResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.True(t, out.Success)
	assert.Empty(t, out.Audio)
	assert.NotEmpty(t, out.Message)
}

func TestHealthAndPreflight(t *testing.T) {
	srv := newServer(t, nil)

	resp, err := http.Get(srv.URL + api.PathHealth)
	require.NoError(t, err)
	defer resp.Body.Close()
	var out api.HealthResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.Equal(t, "healthy", out.Status)
	assert.Equal(t, service.Name, out.Service)

	req, err := http.NewRequest(http.MethodOptions, srv.URL+api.PathGenerateQR, nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "https://elsewhere.example")
	req.Header.Set(RequestIDHeader, "req-1")
	pre, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer pre.Body.Close()
	assert.Equal(t, http.StatusNoContent, pre.StatusCode)
	assert.Contains(t, pre.Header.Get("Access-Control-Allow-Methods"), "POST")
	assert.Equal(t, "req-1", pre.Header.Get(RequestIDHeader))
}

func TestRemoteStrategyAgainstServer(t *testing.T) {
	srv := newServer(t, nil)
	s := remote.NewStrategy("http", remote.NewClient(srv.URL, 5*time.Second))

	res, err := s.Attempt(context.Background(), qr.Request{Text: "hello", Size: 100, Foreground: qr.Black, Background: qr.White, Level: qr.LevelMedium})
	require.NoError(t, err)
	assert.Equal(t, qr.SourceRemote, res.Source)

	svg, err := s.SVG(context.Background(), qr.Request{Text: "hello", Size: 100, Foreground: qr.Black, Background: qr.White, Level: qr.LevelMedium})
	require.NoError(t, err)
	assert.Contains(t, string(svg), "<svg")
	assert.NoError(t, s.Probe(context.Background()))

	_, err = s.Attempt(context.Background(), qr.Request{Text: "", Size: 100})
	var statusErr *remote.StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusBadRequest, statusErr.StatusCode)
}

func TestSwaggerDoc(t *testing.T) {
	srv := newServer(t, nil)
	resp, err := http.Get(srv.URL + "/swagger/doc.json")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var doc map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&doc))
	paths, ok := doc["paths"].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, paths, api.PathGenerateQR)
	assert.Contains(t, paths, api.PathHealth)
}

func TestListen_AfterClose(t *testing.T) {
	tr := New(0, false)
	require.NoError(t, tr.Close())

	done := make(chan error, 1)
	go func() { done <- tr.Listen(context.Background(), service.New(encoder.NewQRCode(), nil)) }()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Listen did not return after Close")
	}
}
