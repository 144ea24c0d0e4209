// Package encbridge connects streaming encoders that report output through
// plain write/close callbacks to sinks implemented in Go.
//
// An encoder written against a C-style callback ABI cannot call a Go closure
// directly. It holds two function pointers and an opaque handle per output
// session instead. encbridge supplies those entry points and resolves the
// handle to the sink that owns the session.
//
// # Architecture Overview
//
//	encbridge/           Handle, Status and the Sink interface
//	├── registry/        Handle table mapping handles to sinks
//	├── bridge/          Write/Close forwarding (the trampoline layer)
//	│   └── native/      cgo entry points for C function pointers
//	├── wasmhost/        wazero host module for wasm guest encoders
//	├── sink/            io.Writer, panic guard, counting and buffer sinks
//	├── opusenc/         libopusenc encoder (build tag opusenc)
//	├── config/          viper-backed configuration
//	├── errors/          Structured error types
//	└── cmd/encbridge/   Command line front end
//
// # Quick Start
//
//	reg := registry.New()
//	br := bridge.New(reg)
//
//	h, err := reg.Register(sink.Writer(file))
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	// Called by the encoder, through native.WriteCallback or the wasm host module:
//	status := br.Write(h, chunk)
//	status = br.Close(h) // h is invalid from here on
//
// # Status Codes
//
// A Status returned by a sink travels back to the encoder unchanged. The bridge
// only ever produces two values of its own, StatusUnknownHandle and
// StatusBadBuffer, both outside any encoder's code range.
//
// # Buffer Lifetime
//
// The slice passed to Sink.Write aliases encoder memory and is valid only for
// the duration of the call. Sinks that keep data must copy it.
//
// # Thread Safety
//
// The bridge holds no mutable state. Registry lookups are safe for concurrent
// use across sessions; calls for one handle are expected to be sequential.
package encbridge
