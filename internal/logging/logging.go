// Package logging builds the zap logger used throughout this repo.
// Adapted from common/go/logging (teacher): same console-encoder,
// TTY-aware color, atomic-level recipe, restructured with its own
// Config shape instead of being reused verbatim.
package logging

import (
	"fmt"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/term"
)

// Config is the logging configuration carried by cmd/reconfigctl's own
// YAML config.
type Config struct {
	Level zapcore.Level `yaml:"level"`
	// JSON switches to a machine-parseable encoder, for running under a
	// log collector; the default console encoder is meant for
	// interactive use (apply, watch).
	JSON bool `yaml:"json"`
}

func DefaultConfig() Config {
	return Config{Level: zapcore.InfoLevel}
}

// New builds a SugaredLogger plus the AtomicLevel backing it, so
// callers can change verbosity at runtime (mirrors the teacher's
// WithAtomicLogLevel option threaded through yncp.Director/Gateway).
func New(cfg Config) (*zap.SugaredLogger, zap.AtomicLevel, error) {
	encoderConfig := zap.NewDevelopmentEncoderConfig()

	encoding := "console"
	if cfg.JSON {
		encoding = "json"
	} else if term.IsTerminal(int(os.Stderr.Fd())) {
		encoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		encoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	}

	level := zap.NewAtomicLevelAt(cfg.Level)
	zapCfg := zap.Config{
		Level:            level,
		Development:      false,
		Encoding:         encoding,
		EncoderConfig:    encoderConfig,
		OutputPaths:      []string{"stderr"},
		ErrorOutputPaths: []string{"stderr"},
	}

	logger, err := zapCfg.Build()
	if err != nil {
		return nil, zap.AtomicLevel{}, fmt.Errorf("failed to build logger: %w", err)
	}

	return logger.Sugar(), level, nil
}

// Nop returns a logger that discards everything.
func Nop() *zap.SugaredLogger {
	return zap.NewNop().Sugar()
}
