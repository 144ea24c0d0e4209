// Package sink provides encbridge.Sink implementations for the host side of
// a session: an io.Writer adapter, a panic guard, a counting wrapper and an
// in-memory buffer.
//
// Sinks own the translation between Go failures and status codes. The
// bridge passes whatever they return straight back to the encoder.
package sink
