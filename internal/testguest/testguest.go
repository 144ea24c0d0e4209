// Package testguest holds hand-assembled wasm modules that play the encoder
// in tests of the wasm entry points.
package testguest

// Encoder returns a module equivalent to:
//
//	(module
//	  (import "encbridge" "write" (func $write (param i32 i32 i32) (result i32)))
//	  (import "encbridge" "close" (func $close (param i32) (result i32)))
//	  (memory (export "memory") 1)
//	  (data (i32.const 0) "OggS")
//	  (func (export "emit") (param i32 i32 i32) (result i32)
//	    (call $write (local.get 0) (local.get 1) (local.get 2)))
//	  (func (export "finish") (param i32) (result i32)
//	    (call $close (local.get 0)))
//	  ;; writes "OggS" and closes; stops at the first non-zero write status
//	  (func (export "encode") (param i32) (result i32) (local i32)
//	    (local.tee 1 (call $write (local.get 0) (i32.const 0) (i32.const 4)))
//	    (if (result i32)
//	      (then (local.get 1))
//	      (else (call $close (local.get 0))))))
func Encoder() []byte {
	return []byte{
		0x00, 0x61, 0x73, 0x6d, // magic
		0x01, 0x00, 0x00, 0x00, // version

		// type section: (i32 i32 i32) -> i32, (i32) -> i32
		0x01, 0x0d, 0x02,
		0x60, 0x03, 0x7f, 0x7f, 0x7f, 0x01, 0x7f,
		0x60, 0x01, 0x7f, 0x01, 0x7f,

		// import section
		0x02, 0x25, 0x02,
		0x09, 'e', 'n', 'c', 'b', 'r', 'i', 'd', 'g', 'e', 0x05, 'w', 'r', 'i', 't', 'e', 0x00, 0x00,
		0x09, 'e', 'n', 'c', 'b', 'r', 'i', 'd', 'g', 'e', 0x05, 'c', 'l', 'o', 's', 'e', 0x00, 0x01,

		// function section: emit, finish, encode
		0x03, 0x04, 0x03, 0x00, 0x01, 0x01,

		// memory section: one page, no maximum
		0x05, 0x03, 0x01, 0x00, 0x01,

		// export section
		0x07, 0x23, 0x04,
		0x06, 'm', 'e', 'm', 'o', 'r', 'y', 0x02, 0x00,
		0x04, 'e', 'm', 'i', 't', 0x00, 0x02,
		0x06, 'f', 'i', 'n', 'i', 's', 'h', 0x00, 0x03,
		0x06, 'e', 'n', 'c', 'o', 'd', 'e', 0x00, 0x04,

		// code section
		0x0a, 0x2c, 0x03,
		// emit
		0x0a, 0x00,
		0x20, 0x00, 0x20, 0x01, 0x20, 0x02, 0x10, 0x00,
		0x0b,
		// finish
		0x06, 0x00,
		0x20, 0x00, 0x10, 0x01,
		0x0b,
		// encode
		0x18, 0x01, 0x01, 0x7f,
		0x20, 0x00, 0x41, 0x00, 0x41, 0x04, 0x10, 0x00,
		0x22, 0x01,
		0x04, 0x7f,
		0x20, 0x01,
		0x05,
		0x20, 0x00, 0x10, 0x01,
		0x0b,
		0x0b,

		// data section: "OggS" at offset 0
		0x0b, 0x0a, 0x01,
		0x00, 0x41, 0x00, 0x0b,
		0x04, 'O', 'g', 'g', 'S',
	}
}

// UnknownImport returns a module importing encbridge.flush, which the host
// does not provide.
func UnknownImport() []byte {
	return []byte{
		0x00, 0x61, 0x73, 0x6d,
		0x01, 0x00, 0x00, 0x00,
		0x01, 0x06, 0x01, 0x60, 0x01, 0x7f, 0x01, 0x7f,
		0x02, 0x13, 0x01,
		0x09, 'e', 'n', 'c', 'b', 'r', 'i', 'd', 'g', 'e', 0x05, 'f', 'l', 'u', 's', 'h', 0x00, 0x00,
	}
}

// DataOffset and DataLen locate the "OggS" bytes in Encoder's memory.
const (
	DataOffset = 0
	DataLen    = 4
)
