// Package utils provides shared helpers for the hansardclean binaries.
package utils

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LoggerName is the root name attached to every log entry.
const LoggerName = "hansardclean"

// NewLogger returns a zap logger writing to stderr, so cleaned text written
// to stdout stays clean. When debug is true it uses the development config
// (human-readable, debug level); otherwise the production config (JSON, info
// level) with ISO8601 timestamps.
func NewLogger(debug bool) (*zap.Logger, error) {
	var cfg zap.Config
	if debug {
		cfg = zap.NewDevelopmentConfig()
	} else {
		cfg = zap.NewProductionConfig()
		cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	}
	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}
	logger, err := cfg.Build()
	if err != nil {
		return nil, err
	}
	return logger.Named(LoggerName), nil
}
