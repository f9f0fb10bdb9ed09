package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"

	lj "gopkg.in/natefinch/lumberjack.v2"
)

// Default rotation parameters (lumberjack semantics)
const (
	DefaultMaxSizeMB  = 10 // MB
	DefaultMaxBackups = 3  // number of backup files
	DefaultMaxAgeDays = 7  // days
)

// Config describes the application log destination. Console output goes
// to stderr; when Path is set the same records are also written to a
// rotating file.
type Config struct {
	Path       string `toml:"path" mapstructure:"path"`                 // log file path; empty disables file output
	Level      string `toml:"level" mapstructure:"level"`               // debug, info, warn, error (default info)
	Color      bool   `toml:"color" mapstructure:"color"`               // ANSI level colors on the console handler
	MaxSizeMB  int    `toml:"max_size_mb" mapstructure:"max_size_mb"`   // megabytes before rotation (default 10)
	MaxBackups int    `toml:"max_backups" mapstructure:"max_backups"`   // number of backups to keep (default 3)
	MaxAgeDays int    `toml:"max_age_days" mapstructure:"max_age_days"` // days to keep (default 7)
	Compress   bool   `toml:"compress" mapstructure:"compress"`         // gzip rotated files
}

// SlogLevel parses the configured level, defaulting to info.
func (c Config) SlogLevel() slog.Level {
	switch strings.ToLower(strings.TrimSpace(c.Level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// New builds the application logger. The returned closer flushes the
// rotating file writer and must be closed on shutdown; it is non-nil
// even when no file output is configured.
func New(c Config) (*slog.Logger, io.Closer, error) {
	opts := &slog.HandlerOptions{Level: c.SlogLevel()}

	if c.Path == "" {
		var h slog.Handler
		if c.Color {
			h = NewColorTextHandler(os.Stderr, opts, true)
		} else {
			h = slog.NewTextHandler(os.Stderr, opts)
		}
		return slog.New(h), nopCloser{}, nil
	}

	rotating := &lj.Logger{
		Filename:   c.Path,
		MaxSize:    valOr(c.MaxSizeMB, DefaultMaxSizeMB),
		MaxBackups: valOr(c.MaxBackups, DefaultMaxBackups),
		MaxAge:     valOr(c.MaxAgeDays, DefaultMaxAgeDays),
		Compress:   c.Compress,
	}
	// File output forces the plain handler so rotated logs stay free of
	// ANSI escapes.
	h := slog.NewTextHandler(io.MultiWriter(os.Stderr, rotating), opts)
	return slog.New(h), rotating, nil
}

func valOr(v int, def int) int {
	if v <= 0 {
		return def
	}
	return v
}
