package bridge

import (
	"sync/atomic"

	"go.uber.org/zap"
)

var logger atomic.Pointer[zap.Logger]

// Logger returns the logger for unknown-handle callbacks.
// It is a no-op logger until SetLogger is called.
func Logger() *zap.Logger {
	if l := logger.Load(); l != nil {
		return l
	}
	return zap.NewNop()
}

// SetLogger replaces the package logger. It may be called while sessions
// are running; nil restores the no-op logger.
func SetLogger(l *zap.Logger) {
	logger.Store(l)
}
