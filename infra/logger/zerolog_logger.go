// Package logger provides the zerolog-backed implementation of
// core/logger.Logger used by the CLI and the adapters.
package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	corelogger "github.com/kilianp07/drflex/core/logger"
)

// Logger mirrors the core logger interface.
type Logger = corelogger.Logger

// NopLogger implements Logger with no-op methods.
type NopLogger = corelogger.Nop

// Config holds logging settings.
type Config struct {
	Level  string `json:"level"`
	Format string `json:"format"`
}

// SetDefaults fills empty settings.
func (c *Config) SetDefaults() {
	if c.Level == "" {
		c.Level = "info"
	}
	if c.Format == "" {
		c.Format = "json"
	}
}

// Validate checks level and format names.
func (c Config) Validate() error {
	if _, err := zerolog.ParseLevel(c.Level); err != nil {
		return fmt.Errorf("logging.level: %w", err)
	}
	switch c.Format {
	case "json", "console":
		return nil
	}
	return fmt.Errorf("logging.format: unknown format %q", c.Format)
}

var (
	mu      sync.RWMutex
	output  io.Writer = os.Stderr
	console           = strings.ToLower(os.Getenv("APP_ENV")) == "dev"
)

// Configure applies cfg process-wide. Loggers created afterwards pick up the
// format; the level is global.
func Configure(cfg Config) error {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return err
	}
	lvl, _ := zerolog.ParseLevel(cfg.Level)
	zerolog.SetGlobalLevel(lvl)
	mu.Lock()
	console = cfg.Format == "console" || strings.ToLower(os.Getenv("APP_ENV")) == "dev"
	mu.Unlock()
	return nil
}

// SetOutput redirects loggers created afterwards to w. Results go to
// stdout, so logs default to stderr.
func SetOutput(w io.Writer) {
	mu.Lock()
	output = w
	mu.Unlock()
}

// ZerologLogger implements Logger using rs/zerolog.
type ZerologLogger struct {
	log zerolog.Logger
}

// New returns a Logger for the given component.
func New(component string) Logger {
	return NewZerologLogger(component)
}

// NewZerologLogger creates a ZerologLogger tagged with the component field.
// APP_ENV=dev or format "console" selects the human readable writer.
func NewZerologLogger(component string) *ZerologLogger {
	mu.RLock()
	w, pretty := output, console
	mu.RUnlock()
	if pretty {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}
	z := zerolog.New(w).With().Timestamp().Str("component", component).Logger()
	return &ZerologLogger{log: z}
}

func (l *ZerologLogger) Debugf(format string, args ...any) {
	l.log.Debug().Msgf(format, args...)
}

func (l *ZerologLogger) Debugw(msg string, fields map[string]any) {
	ev := l.log.Debug()
	for k, v := range fields {
		ev = ev.Interface(k, v)
	}
	ev.Msg(msg)
}

func (l *ZerologLogger) Infof(format string, args ...any) {
	l.log.Info().Msgf(format, args...)
}

func (l *ZerologLogger) Warnf(format string, args ...any) {
	l.log.Warn().Msgf(format, args...)
}

func (l *ZerologLogger) Errorf(format string, args ...any) {
	l.log.Error().Msgf(format, args...)
}
