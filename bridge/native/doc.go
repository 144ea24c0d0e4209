// Package native exposes the bridge as C function pointers for encoders
// that take plain write/close callbacks (libopusenc's OpusEncCallbacks and
// similar).
//
// The encoder receives three things: WriteCallback, CloseCallback and, as
// its opaque user_data, UserData(h) for the session's registry handle. The
// handle is carried as an integer, so no Go pointer is ever stored in C
// memory.
//
// On every callback the C shim converts user_data back to a handle and calls
// bridge.Default(). The write buffer is wrapped with unsafe.Slice, not copied;
// it aliases encoder memory and is only valid until the sink returns.
//
// Requires cgo.
package native
