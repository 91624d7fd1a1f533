// Package logger builds the zap loggers used across retos.
package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/term"
)

// Config holds logger configuration
type Config struct {
	Level  string `yaml:"level" json:"level"`   // debug, info, warn, error
	Format string `yaml:"format" json:"format"` // json, console, or "" for auto
	Output string `yaml:"output" json:"output"` // file path, "stderr", or "" to discard
}

// New creates a logger writing to cfg.Output.
// An empty Output yields a no-op logger.
func New(cfg Config) (*zap.Logger, error) {
	out := strings.TrimSpace(cfg.Output)
	if out == "" || out == "none" {
		return zap.NewNop(), nil
	}

	var ws zapcore.WriteSyncer
	isTerm := false
	switch out {
	case "stderr":
		ws = zapcore.Lock(os.Stderr)
		isTerm = term.IsTerminal(int(os.Stderr.Fd()))
	case "stdout":
		ws = zapcore.Lock(os.Stdout)
		isTerm = term.IsTerminal(int(os.Stdout.Fd()))
	default:
		f, err := os.OpenFile(out, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, fmt.Errorf("open log file: %w", err)
		}
		ws = zapcore.AddSync(f)
	}
	return build(cfg, ws, isTerm)
}

// NewWriter creates a logger writing to w. Used by tests and by callers
// that already own an output stream.
func NewWriter(cfg Config, w io.Writer) (*zap.Logger, error) {
	return build(cfg, zapcore.AddSync(w), false)
}

func build(cfg Config, ws zapcore.WriteSyncer, isTerm bool) (*zap.Logger, error) {
	level := zapcore.InfoLevel
	if cfg.Level != "" {
		if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
			return nil, fmt.Errorf("invalid log level: %w", err)
		}
	}

	encoderConfig := zapcore.EncoderConfig{
		TimeKey:        "time",
		LevelKey:       "level",
		NameKey:        "logger",
		CallerKey:      "caller",
		MessageKey:     "msg",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.LowercaseLevelEncoder,
		EncodeTime:     rfc3339TimeEncoder,
		EncodeDuration: zapcore.StringDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}

	// Human-readable on a terminal, JSON everywhere else.
	format := cfg.Format
	if format == "" {
		format = "json"
		if isTerm {
			format = "console"
		}
	}

	var encoder zapcore.Encoder
	switch format {
	case "json":
		encoder = zapcore.NewJSONEncoder(encoderConfig)
	case "console":
		if isTerm {
			encoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		} else {
			encoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
		}
		encoder = zapcore.NewConsoleEncoder(encoderConfig)
	default:
		return nil, fmt.Errorf("invalid log format %q (want json or console)", format)
	}

	core := zapcore.NewCore(encoder, ws, level)
	return zap.New(core, zap.AddCaller()), nil
}

func rfc3339TimeEncoder(t time.Time, enc zapcore.PrimitiveArrayEncoder) {
	enc.AppendString(t.Format(time.RFC3339))
}
