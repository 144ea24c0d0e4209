package bridge

import (
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/wippyai/encbridge"
	"github.com/wippyai/encbridge/errors"
	"github.com/wippyai/encbridge/registry"
)

// Resolver finds the sink for a handle. *registry.Registry implements it.
// Lookup must be safe for concurrent use across distinct handles.
type Resolver interface {
	Lookup(h encbridge.Handle) (encbridge.Sink, bool)
}

// Bridge forwards encoder callbacks to the sinks a Resolver knows about.
// It holds no mutable state and is safe for concurrent use.
type Bridge struct {
	resolver Resolver
	logger   *zap.Logger
}

// Option configures a Bridge.
type Option func(*Bridge)

// WithLogger overrides the package logger for this bridge.
func WithLogger(l *zap.Logger) Option {
	return func(b *Bridge) {
		b.logger = l
	}
}

// New creates a bridge over r.
func New(r Resolver, opts ...Option) *Bridge {
	b := &Bridge{resolver: r}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Write hands p to the session's sink and returns its status unmodified.
// p is passed through as is: no copy, no splitting.
func (b *Bridge) Write(h encbridge.Handle, p []byte) encbridge.Status {
	s, ok := b.resolver.Lookup(h)
	if !ok {
		b.log().Warn("write for unknown handle",
			zap.Error(errors.UnknownHandle(errors.PhaseDispatch, h)),
			zap.Int("len", len(p)))
		return encbridge.StatusUnknownHandle
	}
	return s.Write(p)
}

// Known reports whether h names a live session. Entry points that validate
// the buffer call it first, so a dead handle is reported as unknown whatever
// the buffer looks like.
func (b *Bridge) Known(h encbridge.Handle) bool {
	_, ok := b.resolver.Lookup(h)
	return ok
}

// Close finalizes the session's sink and returns its status unmodified.
// Whatever the status, the handle must not be used again.
func (b *Bridge) Close(h encbridge.Handle) encbridge.Status {
	s, ok := b.resolver.Lookup(h)
	if !ok {
		b.log().Warn("close for unknown handle",
			zap.Error(errors.UnknownHandle(errors.PhaseDispatch, h)))
		return encbridge.StatusUnknownHandle
	}
	return s.Close()
}

func (b *Bridge) log() *zap.Logger {
	if b.logger != nil {
		return b.logger
	}
	return Logger()
}

var defaultBridge atomic.Pointer[Bridge]

// Default returns the process-wide bridge used by entry points that cannot
// carry a receiver, such as exported cgo functions. Unless replaced with
// SetDefault it resolves handles in registry.Default().
func Default() *Bridge {
	if b := defaultBridge.Load(); b != nil {
		return b
	}
	defaultBridge.CompareAndSwap(nil, New(registry.Default()))
	return defaultBridge.Load()
}

// SetDefault replaces the process-wide bridge. Call it before any encoder
// session starts.
func SetDefault(b *Bridge) {
	defaultBridge.Store(b)
}
