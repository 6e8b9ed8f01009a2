package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nadzzz/qrforge/internal/qr"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "qrforge.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, "{}\n"))
	require.NoError(t, err)

	assert.Equal(t, 5000, cfg.Server.HTTPPort)
	assert.Equal(t, 50051, cfg.Server.GRPCPort)
	assert.Equal(t, "http", cfg.Client.Transport)
	assert.Equal(t, "http://127.0.0.1:5000", cfg.Client.BackendURL)
	assert.Equal(t, 10*time.Second, cfg.Client.Timeout)
	assert.Equal(t, 300, cfg.Generation.Size)
	assert.Equal(t, "M", cfg.Generation.ErrorCorrection)
	assert.Equal(t, 500, cfg.Speech.MaxPreviewChars)
	assert.Equal(t, "en-US", cfg.Speech.Language)
}

func TestLoad_FileAndEnv(t *testing.T) {
	path := writeConfig(t, `
server:
  http_port: 6000
client:
  transport: grpc
  backend_url: http://qr.internal:5000/
  timeout: 3s
generation:
  size: 512
  foreground: "#112233"
  error_correction: H
speech:
  piper:
    voices:
      en: en_GB-alan-medium
`)
	t.Setenv("QRFORGE_SERVER_GRPC_PORT", "6001")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 6000, cfg.Server.HTTPPort)
	assert.Equal(t, 6001, cfg.Server.GRPCPort)
	assert.Equal(t, "grpc", cfg.Client.Transport)
	assert.Equal(t, "http://qr.internal:5000", cfg.Client.BackendURL)
	assert.Equal(t, 3*time.Second, cfg.Client.Timeout)
	assert.Equal(t, 512, cfg.Generation.Size)
	assert.Equal(t, "en_GB-alan-medium", cfg.Speech.Piper.Voices["en"])
}

func TestLoad_EnvReference(t *testing.T) {
	t.Setenv("QR_BACKEND", "http://from-env:9000")
	cfg, err := Load(writeConfig(t, "client:\n  backend_url: ${QR_BACKEND}\n"))
	require.NoError(t, err)
	assert.Equal(t, "http://from-env:9000", cfg.Client.BackendURL)
}

func TestLoad_Invalid(t *testing.T) {
	_, err := Load(writeConfig(t, `
client:
  transport: carrier-pigeon
generation:
  size: -1
  foreground: "#zz0000"
  error_correction: X
`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "client.transport")
	assert.Contains(t, err.Error(), "generation.size")
	assert.Contains(t, err.Error(), "generation.foreground")
	assert.Contains(t, err.Error(), "generation.error_correction")
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestGenerationConfig_DefaultRequest(t *testing.T) {
	g := GenerationConfig{Size: 200, Foreground: "#ff0000", Background: "#00ff00", ErrorCorrection: "q"}
	req := g.DefaultRequest("hi")

	assert.Equal(t, qr.Request{
		Text:       "hi",
		Size:       200,
		Foreground: qr.Color{R: 0xff},
		Background: qr.Color{G: 0xff},
		Level:      qr.LevelQuartile,
	}, req)
}
