// Package config handles loading and validating the qrforge configuration.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/nadzzz/qrforge/internal/qr"
)

// Config is the root configuration shared by the service and the client.
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Client     ClientConfig     `mapstructure:"client"`
	Generation GenerationConfig `mapstructure:"generation"`
	Speech     SpeechConfig     `mapstructure:"speech"`
	Export     ExportConfig     `mapstructure:"export"`
	Logging    LoggingConfig    `mapstructure:"logging"`
}

// ServerConfig holds the generation service listeners.
type ServerConfig struct {
	HTTPPort    int  `mapstructure:"http_port"`
	GRPCPort    int  `mapstructure:"grpc_port"`
	GRPCEnabled bool `mapstructure:"grpc_enabled"`
	HealthPort  int  `mapstructure:"health_port"`
	Swagger     bool `mapstructure:"swagger"`
}

// ClientConfig describes how the client reaches the remote generation service.
type ClientConfig struct {
	Transport  string        `mapstructure:"transport"` // "http" or "grpc"
	BackendURL string        `mapstructure:"backend_url"`
	GRPCTarget string        `mapstructure:"grpc_target"`
	Timeout    time.Duration `mapstructure:"timeout"`
}

// GenerationConfig holds request defaults and local rendering limits.
type GenerationConfig struct {
	Size            int           `mapstructure:"size"`
	Foreground      string        `mapstructure:"foreground"`
	Background      string        `mapstructure:"background"`
	ErrorCorrection string        `mapstructure:"error_correction"`
	RenderTimeout   time.Duration `mapstructure:"render_timeout"`
}

// SpeechConfig selects and configures the audio preview.
type SpeechConfig struct {
	Enabled         bool          `mapstructure:"enabled"`
	Backend         string        `mapstructure:"backend"` // "piper" or "none"
	Language        string        `mapstructure:"language"`
	Rate            float64       `mapstructure:"rate"`
	MaxPreviewChars int           `mapstructure:"max_preview_chars"`
	VoiceWait       time.Duration `mapstructure:"voice_wait"`
	PlayerCommand   string        `mapstructure:"player_command"` // e.g. "aplay -q -"; empty writes WAV files
	OutputDir       string        `mapstructure:"output_dir"`
	Piper           PiperConfig   `mapstructure:"piper"`
}

// PiperConfig holds Piper TTS settings (Wyoming protocol).
//
// Endpoint is a single Wyoming TCP endpoint. Voices maps ISO-639-1 codes to
// Piper voice model names and overrides the built-in defaults.
type PiperConfig struct {
	Endpoint string            `mapstructure:"endpoint"`
	Voices   map[string]string `mapstructure:"voices"`
}

// ExportConfig controls where downloaded artifacts are written.
type ExportConfig struct {
	Dir string `mapstructure:"dir"`
}

// LoggingConfig holds structured logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Format string `mapstructure:"format"` // json, text
}

// Load reads the configuration from file, environment variables, and defaults.
// If configFile is non-empty it is used directly; otherwise the standard
// search order applies: ./qrforge.yaml, ./configs/qrforge.yaml, /etc/qrforge/qrforge.yaml.
func Load(configFile string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("qrforge")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.AddConfigPath("/etc/qrforge")
	}

	// Environment variables: QRFORGE_SERVER_HTTP_PORT, QRFORGE_CLIENT_BACKEND_URL, etc.
	v.SetEnvPrefix("QRFORGE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
		slog.Info("no config file found, using defaults and environment variables")
	} else {
		slog.Info("loaded config file", "path", v.ConfigFileUsed())
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}

	cfg.Client.BackendURL = strings.TrimRight(resolveEnvRef(cfg.Client.BackendURL), "/")
	cfg.Speech.Piper.Endpoint = resolveEnvRef(cfg.Speech.Piper.Endpoint)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.http_port", 5000)
	v.SetDefault("server.grpc_port", 50051)
	v.SetDefault("server.grpc_enabled", true)
	v.SetDefault("server.health_port", 8081)
	v.SetDefault("server.swagger", true)
	v.SetDefault("client.transport", "http")
	v.SetDefault("client.backend_url", "http://127.0.0.1:5000")
	v.SetDefault("client.grpc_target", "127.0.0.1:50051")
	v.SetDefault("client.timeout", 10*time.Second)
	v.SetDefault("generation.size", qr.DefaultSize)
	v.SetDefault("generation.foreground", "#000000")
	v.SetDefault("generation.background", "#ffffff")
	v.SetDefault("generation.error_correction", "M")
	v.SetDefault("generation.render_timeout", 2*time.Second)
	v.SetDefault("speech.enabled", false)
	v.SetDefault("speech.backend", "piper")
	v.SetDefault("speech.language", "en-US")
	v.SetDefault("speech.rate", 1.0)
	v.SetDefault("speech.max_preview_chars", 500)
	v.SetDefault("speech.voice_wait", 2*time.Second)
	v.SetDefault("speech.player_command", "")
	v.SetDefault("speech.output_dir", os.TempDir())
	v.SetDefault("speech.piper.endpoint", "localhost:10200")
	v.SetDefault("export.dir", ".")
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
}

// Validate rejects configurations the service or client cannot run with.
func (c *Config) Validate() error {
	var errs []error
	for name, port := range map[string]int{
		"server.http_port":   c.Server.HTTPPort,
		"server.grpc_port":   c.Server.GRPCPort,
		"server.health_port": c.Server.HealthPort,
	} {
		if port < 0 || port > 65535 {
			errs = append(errs, fmt.Errorf("%s out of range: %d", name, port))
		}
	}
	switch c.Client.Transport {
	case "http", "grpc":
	default:
		errs = append(errs, fmt.Errorf("client.transport must be http or grpc, got %q", c.Client.Transport))
	}
	if c.Generation.Size <= 0 {
		errs = append(errs, fmt.Errorf("generation.size must be positive, got %d", c.Generation.Size))
	}
	if _, err := qr.ParseColor(c.Generation.Foreground); err != nil {
		errs = append(errs, fmt.Errorf("generation.foreground: %w", err))
	}
	if _, err := qr.ParseColor(c.Generation.Background); err != nil {
		errs = append(errs, fmt.Errorf("generation.background: %w", err))
	}
	if !qr.Level(strings.ToUpper(c.Generation.ErrorCorrection)).Valid() {
		errs = append(errs, fmt.Errorf("generation.error_correction must be one of L, M, Q, H, got %q", c.Generation.ErrorCorrection))
	}
	if c.Speech.Rate <= 0 || c.Speech.Rate > 10 {
		errs = append(errs, fmt.Errorf("speech.rate must be in (0, 10], got %v", c.Speech.Rate))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// DefaultRequest builds a generation request for text from the configured defaults.
// Colors are validated by Validate, so parse errors fall back to black on white.
func (g GenerationConfig) DefaultRequest(text string) qr.Request {
	fg, err := qr.ParseColor(g.Foreground)
	if err != nil {
		fg = qr.Black
	}
	bg, err := qr.ParseColor(g.Background)
	if err != nil {
		bg = qr.White
	}
	return qr.Request{
		Text:       text,
		Size:       g.Size,
		Foreground: fg,
		Background: bg,
		Level:      qr.ParseLevel(g.ErrorCorrection),
	}
}

// resolveEnvRef replaces "${VAR_NAME}" patterns with the corresponding env var value.
func resolveEnvRef(val string) string {
	if strings.HasPrefix(val, "${") && strings.HasSuffix(val, "}") {
		envKey := val[2 : len(val)-1]
		if envVal := os.Getenv(envKey); envVal != "" {
			return envVal
		}
	}
	return val
}

// SetupLogging configures the global slog logger based on config.
func SetupLogging(cfg LoggingConfig) {
	var level slog.Level
	switch strings.ToLower(cfg.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if strings.ToLower(cfg.Format) == "text" {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	slog.SetDefault(slog.New(handler))
}
