// Package logging builds the CLI's zap logger and hands it to the library
// packages.
package logging

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/wippyai/encbridge/bridge"
	"github.com/wippyai/encbridge/errors"
	"github.com/wippyai/encbridge/opusenc"
	"github.com/wippyai/encbridge/registry"
	"github.com/wippyai/encbridge/wasmhost"
)

// New returns a logger writing to stderr at level, in "console" or "json"
// format.
func New(level, format string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, errors.Wrap(errors.PhaseConfig, errors.KindInvalidInput, err, "log level")
	}

	var cfg zap.Config
	switch format {
	case "json":
		cfg = zap.NewProductionConfig()
	case "console", "":
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		cfg.Development = false
	default:
		return nil, errors.InvalidInput(errors.PhaseConfig, "unknown log format "+format)
	}
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}
	cfg.DisableStacktrace = true

	l, err := cfg.Build()
	if err != nil {
		return nil, errors.Wrap(errors.PhaseConfig, errors.KindInvalidInput, err, "build logger")
	}
	return l, nil
}

// Install sets l as the logger of every library package.
func Install(l *zap.Logger) {
	bridge.SetLogger(l.Named("bridge"))
	registry.SetLogger(l.Named("registry"))
	wasmhost.SetLogger(l.Named("wasmhost"))
	opusenc.SetLogger(l.Named("opusenc"))
}
