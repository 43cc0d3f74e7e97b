// Package config loads the YAML configuration of a stackmux server
// process and turns it into dispatcher, logger and middleware settings.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/vitalvas/stackmux/mux"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/term"
	"gopkg.in/yaml.v3"
)

// ErrInvalidConfig is returned by Validate, wrapped with the offending
// field.
var ErrInvalidConfig = errors.New("config: invalid configuration")

// Request id formats.
const (
	IDFormatUUIDv4 = "uuidv4"
	IDFormatUUIDv7 = "uuidv7"
)

// Config is the root of the configuration file.
type Config struct {
	Listen      string            `yaml:"listen"`
	Server      ServerConfig      `yaml:"server"`
	Log         LogConfig         `yaml:"log"`
	Dispatch    DispatchConfig    `yaml:"dispatch"`
	Static      StaticConfig      `yaml:"static"`
	CORS        CORSConfig        `yaml:"cors"`
	Compression CompressionConfig `yaml:"compression"`

	// MaxBodyBytes limits request bodies. Zero disables the limit.
	MaxBodyBytes int64 `yaml:"max_body_bytes"`
}

// ServerConfig holds http.Server timeouts.
type ServerConfig struct {
	ReadHeaderTimeout time.Duration `yaml:"read_header_timeout"`
	ReadTimeout       time.Duration `yaml:"read_timeout"`
	WriteTimeout      time.Duration `yaml:"write_timeout"`
	IdleTimeout       time.Duration `yaml:"idle_timeout"`
	ShutdownTimeout   time.Duration `yaml:"shutdown_timeout"`
}

// LogConfig configures the process logger.
type LogConfig struct {
	// Level is a zap level name: debug, info, warn, error.
	Level string `yaml:"level"`

	// Encoding is "json", "console", or "auto" for console output when
	// stderr is a terminal and JSON otherwise.
	Encoding string `yaml:"encoding"`

	// Development enables stack traces on warnings and panics on DPanic.
	Development bool `yaml:"development"`
}

// DispatchConfig maps onto mux.Config.
type DispatchConfig struct {
	DisableAutoHead bool   `yaml:"disable_auto_head"`
	RequestIDHeader string `yaml:"request_id_header"`
	TrustRequestID  bool   `yaml:"trust_request_id"`
	IDFormat        string `yaml:"id_format"`
}

// StaticConfig describes the directory served by the static files
// middleware. An empty Root disables it.
type StaticConfig struct {
	Root        string `yaml:"root"`
	Prefix      string `yaml:"prefix"`
	Index       string `yaml:"index"`
	SPAFallback bool   `yaml:"spa_fallback"`
}

// CORSConfig enables CORS when AllowedOrigins is not empty.
type CORSConfig struct {
	AllowedOrigins   []string `yaml:"allowed_origins"`
	AllowCredentials bool     `yaml:"allow_credentials"`
	MaxAge           int      `yaml:"max_age"`
}

// CompressionConfig configures response compression.
type CompressionConfig struct {
	Enabled   bool `yaml:"enabled"`
	Level     int  `yaml:"level"`
	MinLength int  `yaml:"min_length"`
}

// Default returns the configuration used for omitted fields.
func Default() Config {
	return Config{
		Listen: ":8080",
		Server: ServerConfig{
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       30 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       2 * time.Minute,
			ShutdownTimeout:   10 * time.Second,
		},
		Log: LogConfig{
			Level:    "info",
			Encoding: "json",
		},
		Dispatch: DispatchConfig{
			RequestIDHeader: "X-Request-ID",
			IDFormat:        IDFormatUUIDv4,
		},
		Static: StaticConfig{
			Prefix: "/static/",
			Index:  "index.html",
		},
	}
}

// Load reads and parses the file at path.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}

	return Parse(data)
}

// Parse decodes data over Default and validates the result. Unknown keys
// are rejected.
func Parse(data []byte) (Config, error) {
	cfg := Default()

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("config: decode: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// Validate reports the first invalid field.
func (c Config) Validate() error {
	if c.Listen == "" {
		return fmt.Errorf("%w: listen is empty", ErrInvalidConfig)
	}

	timeouts := map[string]time.Duration{
		"read_header_timeout": c.Server.ReadHeaderTimeout,
		"read_timeout":        c.Server.ReadTimeout,
		"write_timeout":       c.Server.WriteTimeout,
		"idle_timeout":        c.Server.IdleTimeout,
		"shutdown_timeout":    c.Server.ShutdownTimeout,
	}
	for name, d := range timeouts {
		if d < 0 {
			return fmt.Errorf("%w: server.%s is negative", ErrInvalidConfig, name)
		}
	}

	if _, err := zapcore.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("%w: log.level: %w", ErrInvalidConfig, err)
	}

	switch c.Log.Encoding {
	case "json", "console", "auto":
	default:
		return fmt.Errorf("%w: log.encoding %q", ErrInvalidConfig, c.Log.Encoding)
	}

	switch c.Dispatch.IDFormat {
	case IDFormatUUIDv4, IDFormatUUIDv7:
	default:
		return fmt.Errorf("%w: dispatch.id_format %q", ErrInvalidConfig, c.Dispatch.IDFormat)
	}

	if c.Dispatch.RequestIDHeader == "" {
		return fmt.Errorf("%w: dispatch.request_id_header is empty", ErrInvalidConfig)
	}

	if c.Static.Root != "" && !strings.HasPrefix(c.Static.Prefix, "/") {
		return fmt.Errorf("%w: static.prefix must start with /", ErrInvalidConfig)
	}

	if c.MaxBodyBytes < 0 {
		return fmt.Errorf("%w: max_body_bytes is negative", ErrInvalidConfig)
	}

	return nil
}

// Build returns a logger for the configuration.
func (l LogConfig) Build() (*zap.Logger, error) {
	level, err := zap.ParseAtomicLevel(l.Level)
	if err != nil {
		return nil, fmt.Errorf("%w: log.level: %w", ErrInvalidConfig, err)
	}

	zc := zap.NewProductionConfig()
	if l.Development {
		zc = zap.NewDevelopmentConfig()
	}

	zc.Level = level
	zc.Encoding = l.encoding(term.IsTerminal(int(os.Stderr.Fd())))

	return zc.Build()
}

func (l LogConfig) encoding(tty bool) string {
	if l.Encoding != "auto" {
		return l.Encoding
	}

	if tty {
		return "console"
	}

	return "json"
}

// Dispatcher returns the mux.Config for the dispatch settings.
func (c Config) Dispatcher(logger *zap.Logger) mux.Config {
	generate := mux.GenerateUUIDv4
	if c.Dispatch.IDFormat == IDFormatUUIDv7 {
		generate = mux.GenerateUUIDv7
	}

	return mux.Config{
		DisableAutoHead: c.Dispatch.DisableAutoHead,
		Logger:          logger,
		RequestIDHeader: c.Dispatch.RequestIDHeader,
		TrustRequestID:  c.Dispatch.TrustRequestID,
		GenerateID:      generate,
	}
}

// HTTPServer returns an http.Server listening on Listen with the
// configured timeouts.
func (c Config) HTTPServer(h http.Handler, logger *zap.Logger) *http.Server {
	srv := &http.Server{
		Addr:              c.Listen,
		Handler:           h,
		ReadHeaderTimeout: c.Server.ReadHeaderTimeout,
		ReadTimeout:       c.Server.ReadTimeout,
		WriteTimeout:      c.Server.WriteTimeout,
		IdleTimeout:       c.Server.IdleTimeout,
	}

	if logger != nil {
		srv.ErrorLog = zap.NewStdLog(logger.Named("http"))
	}

	return srv
}
