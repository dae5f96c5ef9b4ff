// Package logging provides the two logging surfaces a running session
// needs: an operational zap logger for process diagnostics, and a
// structured per-session YAML event logger for the agent's own
// transcript of what happened (spec.md §2 "Structured logger", §6
// "Structured log format").
package logging

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewOperational builds the stderr diagnostic logger used for process
// startup, shell lifecycle, and retry/backoff decisions. verbosity 0
// maps to warn level (the CLI's default, no -v), 1 to info (-v), 2 or
// higher to debug (-vv).
func NewOperational(verbosity int) *zap.Logger {
	level := zapcore.WarnLevel
	switch {
	case verbosity >= 2:
		level = zapcore.DebugLevel
	case verbosity == 1:
		level = zapcore.InfoLevel
	}

	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.TimeKey = "timestamp"
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder

	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(encoderConfig),
		zapcore.AddSync(os.Stderr),
		level,
	)
	return zap.New(core)
}
