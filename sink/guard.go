package sink

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/wippyai/encbridge"
)

type guarded struct {
	inner  encbridge.Sink
	logger *zap.Logger
	fault  encbridge.Status
}

// Guard wraps s so that a panic inside Write or Close is reported as fault
// instead of unwinding into the encoder's stack frame. A panic cannot
// cross a cgo callback, so sinks that may panic should be guarded.
func Guard(s encbridge.Sink, fault encbridge.Status, logger *zap.Logger) encbridge.Sink {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &guarded{inner: s, fault: fault, logger: logger}
}

func (g *guarded) Write(p []byte) (st encbridge.Status) {
	defer g.catch("write", &st)
	return g.inner.Write(p)
}

func (g *guarded) Close() (st encbridge.Status) {
	defer g.catch("close", &st)
	return g.inner.Close()
}

func (g *guarded) catch(op string, st *encbridge.Status) {
	if r := recover(); r != nil {
		g.logger.Error("sink panicked",
			zap.String("op", op),
			zap.String("panic", fmt.Sprint(r)),
			zap.Int32("status", int32(g.fault)))
		*st = g.fault
	}
}

// Drop forwards to the wrapped sink when it implements Drop.
func (g *guarded) Drop() {
	if d, ok := g.inner.(interface{ Drop() }); ok {
		d.Drop()
	}
}
