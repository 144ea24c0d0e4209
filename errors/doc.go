// Package errors provides structured error types for encbridge.
//
// Errors are categorized by Phase (where the error occurred) and Kind (error category).
// The Error type carries the session handle when one is involved, a detail message
// and a cause chain.
//
// Use the Builder for structured error construction:
//
//	err := errors.New(errors.PhaseDispatch, errors.KindUnknownHandle).
//		Handle(h).
//		Detail("write of %d bytes", n).
//		Build()
//
// Or use convenience constructors for common patterns:
//
//	err := errors.UnknownHandle(errors.PhaseDispatch, h)
//	err := errors.StatusFailed(errors.PhaseEncode, h, status)
//
// Status codes are never translated into errors inside the bridge. The
// StatusFailed constructor exists for Go callers that want an error value and
// keeps the original status in Value.
//
// All errors implement the standard error interface and support errors.Is/As.
package errors
