// Package bridge forwards encoder write and close callbacks to Go sinks.
//
// Each call performs exactly one lookup and one dispatch:
//
//	Encoder -> entry point -> Bridge.Write(h, p) -> Resolver.Lookup(h) -> Sink.Write(p)
//
// The status returned by the sink is returned to the encoder unchanged.
// The bridge never retries, buffers, copies or reorders. The only values it
// produces itself are encbridge.StatusUnknownHandle, for a handle the
// resolver does not know, and (from the entry points) encbridge.StatusBadBuffer.
//
// Entry points live in subpackages: native provides C function pointers
// through cgo, and the wasmhost package exposes the same pair of calls to
// WebAssembly guests.
//
// # Thread Safety
//
// Bridge has no mutable state. Calls for distinct handles may run
// concurrently; calls for one handle are expected to arrive sequentially.
package bridge
