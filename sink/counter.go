package sink

import (
	"sync/atomic"

	"github.com/wippyai/encbridge"
)

// Stats is a snapshot of a CountingSink.
type Stats struct {
	Writes      int64
	Bytes       int64
	Failures    int64
	CloseStatus encbridge.Status
	Closed      bool
}

// CountingSink records traffic through a sink without touching it.
// Counters may be read from any goroutine while the session runs.
type CountingSink struct {
	inner       encbridge.Sink
	writes      atomic.Int64
	bytes       atomic.Int64
	failures    atomic.Int64
	closeStatus atomic.Int32
	closed      atomic.Bool
}

// Counter wraps s. A write is counted as a failure when its status is non-zero.
func Counter(s encbridge.Sink) *CountingSink {
	return &CountingSink{inner: s}
}

func (c *CountingSink) Write(p []byte) encbridge.Status {
	st := c.inner.Write(p)
	c.writes.Add(1)
	c.bytes.Add(int64(len(p)))
	if st != 0 {
		c.failures.Add(1)
	}
	return st
}

func (c *CountingSink) Close() encbridge.Status {
	st := c.inner.Close()
	c.closeStatus.Store(int32(st))
	c.closed.Store(true)
	return st
}

// Stats returns the current counters.
func (c *CountingSink) Stats() Stats {
	return Stats{
		Writes:      c.writes.Load(),
		Bytes:       c.bytes.Load(),
		Failures:    c.failures.Load(),
		CloseStatus: encbridge.Status(c.closeStatus.Load()),
		Closed:      c.closed.Load(),
	}
}

// Unwrap returns the wrapped sink.
func (c *CountingSink) Unwrap() encbridge.Sink {
	return c.inner
}
