// Package logger builds the process-wide slog.Logger.
package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/lmittmann/tint"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/ekisa-team/herbarium/internal/env"
)

const (
	defaultLogFile    = "logs/herbarium.log"
	defaultMaxSizeMB  = 10
	defaultMaxBackups = 3
	defaultMaxAgeDays = 28
)

// Options configures a logger.
type Options struct {
	Writer    io.Writer
	Level     *slog.LevelVar
	LogFile   string
	LogToFile bool
}

// Option mutates Options.
type Option func(*Options)

// WithLogToFile enables tee-ing log records into a rotating file.
func WithLogToFile(enabled bool) Option {
	return func(o *Options) {
		o.LogToFile = enabled
	}
}

// WithLogFile sets the rotating log file path.
func WithLogFile(path string) Option {
	return func(o *Options) {
		if path != "" {
			o.LogFile = path
		}
	}
}

// WithLevel shares a level variable with the caller so it can be changed at runtime.
func WithLevel(level *slog.LevelVar) Option {
	return func(o *Options) {
		o.Level = level
	}
}

// WithWriter replaces the console writer (stderr by default).
func WithWriter(w io.Writer) Option {
	return func(o *Options) {
		o.Writer = w
	}
}

// New creates a logger for the given environment.
// Development uses tint's colored console output, production emits JSON.
func New(environment env.Environment, opts ...Option) *slog.Logger {
	o := Options{
		Writer:  os.Stderr,
		LogFile: defaultLogFile,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.Level == nil {
		o.Level = new(slog.LevelVar)
	}

	w := o.Writer
	if o.LogToFile {
		w = io.MultiWriter(w, newRotatingFile(o.LogFile))
	}

	if environment.IsProduction() {
		return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
			Level:     o.Level,
			AddSource: true,
		}))
	}

	return slog.New(tint.NewHandler(w, &tint.Options{
		Level:      o.Level,
		TimeFormat: time.TimeOnly,
		NoColor:    o.LogToFile,
	}))
}

// ParseLevel converts a textual level ("debug", "info", "warn", "error") into a slog.Level.
func ParseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return slog.LevelInfo, fmt.Errorf("invalid log level %q: %w", s, err)
	}

	return level, nil
}

func newRotatingFile(path string) *lumberjack.Logger {
	_ = os.MkdirAll(filepath.Dir(path), 0o755)

	return &lumberjack.Logger{
		Filename:   path,
		MaxSize:    defaultMaxSizeMB,
		MaxBackups: defaultMaxBackups,
		MaxAge:     defaultMaxAgeDays,
		Compress:   true,
	}
}
