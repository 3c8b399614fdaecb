// Package logging builds the logr.Logger used throughout tierlog, backed
// by zap.
package logging

import (
	"fmt"
	"strings"

	"github.com/go-logr/logr"
	"github.com/go-logr/zapr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Output formats.
const (
	FormatJSON    = "json"
	FormatConsole = "console"
)

// Options configures New.
type Options struct {
	Level  string // debug, info, warn or error
	Format string // json or console
}

// ParseLevel parses a zap level name. An empty name is info.
func ParseLevel(s string) (zapcore.Level, error) {
	if s == "" {
		return zapcore.InfoLevel, nil
	}
	var lvl zapcore.Level
	if err := lvl.UnmarshalText([]byte(strings.ToLower(s))); err != nil {
		return lvl, fmt.Errorf("unknown log level %q", s)
	}
	return lvl, nil
}

// ParseFormat validates an output format. An empty format is json.
func ParseFormat(s string) (string, error) {
	switch f := strings.ToLower(s); f {
	case "", FormatJSON:
		return FormatJSON, nil
	case FormatConsole:
		return FormatConsole, nil
	default:
		return "", fmt.Errorf("unknown log format %q (supported: json, console)", s)
	}
}

// New returns a logger writing to stderr and a function that flushes it.
func New(opts Options) (logr.Logger, func(), error) {
	lvl, err := ParseLevel(opts.Level)
	if err != nil {
		return logr.Discard(), func() {}, err
	}
	format, err := ParseFormat(opts.Format)
	if err != nil {
		return logr.Discard(), func() {}, err
	}

	var cfg zap.Config
	if format == FormatConsole {
		cfg = zap.NewDevelopmentConfig()
	} else {
		cfg = zap.NewProductionConfig()
	}
	cfg.Level = zap.NewAtomicLevelAt(lvl)

	zapLog, err := cfg.Build()
	if err != nil {
		return logr.Discard(), func() {}, fmt.Errorf("building zap logger: %w", err)
	}
	return zapr.NewLogger(zapLog), func() { _ = zapLog.Sync() }, nil
}
