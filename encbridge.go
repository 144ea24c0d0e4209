package encbridge

import (
	"math"
	"strconv"
)

// Handle is an opaque reference to an output session.
// Handle 0 is reserved and always invalid.
type Handle uint32

// Status is the integer returned across the callback boundary.
// Its meaning belongs to the wrapped encoder; this module never interprets it.
type Status int32

// Statuses synthesized by this module. Both sit at the bottom of the int32
// range, where no encoder convention places its codes.
const (
	// StatusUnknownHandle is returned when a callback names a handle that is
	// not registered (never registered, or used after its close returned).
	StatusUnknownHandle Status = math.MinInt32

	// StatusBadBuffer is returned when the caller's buffer cannot be viewed,
	// e.g. a negative length or a range outside guest memory.
	StatusBadBuffer Status = math.MinInt32 + 1
)

// Synthesized reports whether s was produced by the bridge rather than by a sink.
func (s Status) Synthesized() bool {
	return s == StatusUnknownHandle || s == StatusBadBuffer
}

func (s Status) String() string {
	switch s {
	case StatusUnknownHandle:
		return "unknown-handle"
	case StatusBadBuffer:
		return "bad-buffer"
	}
	return strconv.FormatInt(int64(s), 10)
}

// Sink consumes one session's encoded output.
//
// Write receives a view over memory owned by the native caller. The view is
// only valid until Write returns; implementations must copy what they keep.
// Neither method may panic: faults must be turned into a status code.
type Sink interface {
	Write(p []byte) Status
	Close() Status
}

// SinkFuncs adapts a pair of functions to Sink. A nil function returns 0.
type SinkFuncs struct {
	WriteFunc func(p []byte) Status
	CloseFunc func() Status
}

func (f SinkFuncs) Write(p []byte) Status {
	if f.WriteFunc == nil {
		return 0
	}
	return f.WriteFunc(p)
}

func (f SinkFuncs) Close() Status {
	if f.CloseFunc == nil {
		return 0
	}
	return f.CloseFunc()
}
