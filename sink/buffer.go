package sink

import (
	"bytes"
	"sync"

	"github.com/wippyai/encbridge"
)

// Buffer collects a session in memory. Each write is copied, since the
// view handed to Write is only valid for the duration of the call.
// The zero value is ready to use.
type Buffer struct {
	buf    bytes.Buffer
	mu     sync.Mutex
	closed bool
}

func (b *Buffer) Write(p []byte) encbridge.Status {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.buf.Write(p)
	return 0
}

func (b *Buffer) Close() encbridge.Status {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	return 0
}

// Bytes returns a copy of everything written so far.
func (b *Buffer) Bytes() []byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	return bytes.Clone(b.buf.Bytes())
}

// Closed reports whether the session has been closed.
func (b *Buffer) Closed() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.closed
}
