// Package logging builds the zap loggers used by the CLI and server.
package logging

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Output formats.
const (
	FormatJSON    = "json"
	FormatConsole = "console"
)

// Defaults applied when level or format is empty.
const (
	DefaultLevel  = "info"
	DefaultFormat = FormatConsole
)

var (
	ErrInvalidLevel  = errors.New("invalid log level")
	ErrInvalidFormat = errors.New("invalid log format")
)

// ParseLevel accepts debug, info, warn, error (case-insensitive).
// An empty string selects DefaultLevel.
func ParseLevel(s string) (zapcore.Level, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		s = DefaultLevel
	}
	switch s {
	case "debug", "info", "warn", "error":
	default:
		return zapcore.InfoLevel, fmt.Errorf("%w: %q (want debug, info, warn or error)", ErrInvalidLevel, s)
	}
	lvl, err := zapcore.ParseLevel(s)
	if err != nil {
		return zapcore.InfoLevel, fmt.Errorf("%w: %v", ErrInvalidLevel, err)
	}
	return lvl, nil
}

// ParseFormat accepts json or console. An empty string selects DefaultFormat.
func ParseFormat(s string) (string, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	switch s {
	case "":
		return DefaultFormat, nil
	case FormatJSON, FormatConsole:
		return s, nil
	default:
		return "", fmt.Errorf("%w: %q (want json or console)", ErrInvalidFormat, s)
	}
}

// New builds a logger writing to stderr: production JSON encoding for
// "json", the development console encoder otherwise.
func New(level, format string) (*zap.Logger, error) {
	lvl, err := ParseLevel(level)
	if err != nil {
		return nil, err
	}
	f, err := ParseFormat(format)
	if err != nil {
		return nil, err
	}

	var cfg zap.Config
	if f == FormatJSON {
		cfg = zap.NewProductionConfig()
	} else {
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	}
	cfg.Level = zap.NewAtomicLevelAt(lvl)

	logger, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("building logger: %w", err)
	}
	return logger, nil
}

// NewWriter is New with an explicit destination.
func NewWriter(w io.Writer, level, format string) (*zap.Logger, error) {
	lvl, err := ParseLevel(level)
	if err != nil {
		return nil, err
	}
	f, err := ParseFormat(format)
	if err != nil {
		return nil, err
	}

	var enc zapcore.Encoder
	if f == FormatJSON {
		enc = zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig())
	} else {
		ec := zap.NewDevelopmentEncoderConfig()
		ec.EncodeLevel = zapcore.CapitalLevelEncoder
		enc = zapcore.NewConsoleEncoder(ec)
	}
	return zap.New(zapcore.NewCore(enc, zapcore.AddSync(w), lvl)), nil
}
