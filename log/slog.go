// Package log configures the process-wide slog logger from the configuration
// file and the command line flags.
package log

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/lmittmann/tint"
	"github.com/spf13/pflag"

	"sql-explain/config"
)

var (
	// logFormat is the --log-format flag value.
	logFormat string

	// logLevel is the --log-level flag value.
	logLevel string
)

// RegisterFlags adds --log-level and --log-format to fs.
func RegisterFlags(fs *pflag.FlagSet) {
	fs.StringVar(&logLevel, "log-level", "", "log level: debug, info, warn or error (overrides log.level)")
	fs.StringVar(&logFormat, "log-format", "", "log format: text, json or logfmt (overrides log.format)")
}

// Init installs the default logger. Flags that were set on fs take
// precedence over conf.
func Init(fs *pflag.FlagSet, conf config.LogConf) error {
	level, format := conf.Level, conf.Format
	if fs != nil {
		if f := fs.Lookup("log-level"); f != nil && f.Changed {
			level = logLevel
		}
		if f := fs.Lookup("log-format"); f != nil && f.Changed {
			format = logFormat
		}
	}
	logger, err := New(os.Stderr, format, level)
	if err != nil {
		return err
	}
	slog.SetDefault(logger)
	return nil
}

// New builds a logger writing to w.
func New(w io.Writer, format, level string) (*slog.Logger, error) {
	l, err := slogLevel(level)
	if err != nil {
		return nil, err
	}
	handler, err := slogHandler(w, format, l)
	if err != nil {
		return nil, err
	}
	return slog.New(handler), nil
}

// slogLevel maps the log-level value to a slog.Level.
func slogLevel(level string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return 0, errors.Newf("invalid log-level %q: expected debug, info, warn, or error", level)
}

func slogHandler(w io.Writer, format string, level slog.Level) (slog.Handler, error) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", "text":
		return tint.NewHandler(w, &tint.Options{
			Level:      level,
			TimeFormat: time.TimeOnly,
			NoColor:    os.Getenv("NO_COLOR") != "" || w != os.Stderr,
		}), nil
	case "json":
		return slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level}), nil
	case "logfmt":
		return slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}), nil
	}
	return nil, errors.Newf("invalid log-format %q: expected text, json or logfmt", format)
}

// SetLogger replaces the default logger. The returned function restores the
// previous one. Used for testing.
func SetLogger(logger *slog.Logger) func() {
	previous := slog.Default()
	slog.SetDefault(logger)
	return func() {
		slog.SetDefault(previous)
	}
}
