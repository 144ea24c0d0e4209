package sink

import (
	"io"
	"sync"

	"github.com/wippyai/encbridge"
	"github.com/wippyai/encbridge/errors"
)

// Codes used by WriterSink. The defaults follow libopusenc's callback
// convention: 0 for success, non-zero to make the encoder stop.
const (
	DefaultOK     encbridge.Status = 0
	DefaultFailed encbridge.Status = 1
)

// WriterSink streams a session into an io.Writer.
// Go errors cannot cross the callback boundary, so each failure becomes the
// failed status and the first error is kept for Err.
type WriterSink struct {
	w          io.Writer
	err        error
	ok         encbridge.Status
	failed     encbridge.Status
	closeInner bool
	mu         sync.Mutex
}

// WriterOption configures a WriterSink.
type WriterOption func(*WriterSink)

// WithStatus overrides the success and failure codes.
func WithStatus(ok, failed encbridge.Status) WriterOption {
	return func(s *WriterSink) {
		s.ok = ok
		s.failed = failed
	}
}

// WithoutClose leaves the writer open when the session closes.
func WithoutClose() WriterOption {
	return func(s *WriterSink) {
		s.closeInner = false
	}
}

// Writer returns a sink writing to w. If w is an io.Closer it is closed
// with the session unless WithoutClose is given.
func Writer(w io.Writer, opts ...WriterOption) *WriterSink {
	s := &WriterSink{
		w:          w,
		ok:         DefaultOK,
		failed:     DefaultFailed,
		closeInner: true,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Write passes p to the underlying writer. io.Writer implementations must
// not retain p, which matches the borrowed-view contract of the callback.
func (s *WriterSink) Write(p []byte) encbridge.Status {
	n, err := s.w.Write(p)
	if err == nil && n < len(p) {
		err = io.ErrShortWrite
	}
	if err != nil {
		s.record(errors.Wrap(errors.PhaseDispatch, errors.KindStatus, err, "write output"))
		return s.failed
	}
	return s.ok
}

// Close closes the underlying writer if it is an io.Closer.
func (s *WriterSink) Close() encbridge.Status {
	if !s.closeInner {
		return s.ok
	}
	c, ok := s.w.(io.Closer)
	if !ok {
		return s.ok
	}
	if err := c.Close(); err != nil {
		s.record(errors.Wrap(errors.PhaseDispatch, errors.KindStatus, err, "close output"))
		return s.failed
	}
	return s.ok
}

// Err returns the first write or close error, if any.
func (s *WriterSink) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

func (s *WriterSink) record(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err == nil {
		s.err = err
	}
}
