// Package wasmhost runs WebAssembly guest encoders on wazero and connects
// their output callbacks to the bridge.
//
// A guest plays the role of the native encoder. It imports two functions
// from the "encbridge" module and exports an entry taking a session handle:
//
//	(import "encbridge" "write" (func (param i32 i32 i32) (result i32))) ;; handle, ptr, len
//	(import "encbridge" "close" (func (param i32) (result i32)))         ;; handle
//	(func (export "encode") (param i32) (result i32))                    ;; handle
//
// The write buffer is a view into guest memory, handed to the sink without
// a copy. A range outside memory or a negative length yields
// encbridge.StatusBadBuffer; every other status is the sink's own.
//
// # Usage
//
//	r, err := wasmhost.NewRunner(ctx, wasmBytes, wasmhost.WithStdio(pcm, nil, os.Stderr))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer r.Close(ctx)
//
//	res, err := r.Run(ctx, sink.Writer(out))
//	// res.Status is whatever the guest's encode returned
//
// Guests may also import wasi_snapshot_preview1, for example to read PCM
// from stdin. Imports from any other module are rejected at NewRunner with
// an *errors.MissingImportsError.
//
// # Thread Safety
//
// Runner is safe for concurrent use. Each Run gets its own guest instance.
package wasmhost
