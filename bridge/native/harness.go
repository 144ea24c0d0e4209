//go:build cgo

package native

/*
#include <stdint.h>
#include "callbacks.h"
*/
import "C"

import (
	"unsafe"

	"github.com/wippyai/encbridge"
)

// Test support only, not API. The helpers below call the entry points
// through C function pointers, the way an encoder does; they live here
// because _test.go files cannot use cgo.

func callWrite(userData uintptr, p []byte, length int) encbridge.Status {
	var ptr *C.uchar
	if len(p) > 0 {
		ptr = (*C.uchar)(unsafe.Pointer(&p[0]))
	}
	return encbridge.Status(C.encbridge_call_write(
		C.encbridge_write_func(C.encbridge_write),
		C.encbridge_handle_ptr(C.uintptr_t(userData)),
		ptr,
		C.int(length),
	))
}

func callClose(userData uintptr) encbridge.Status {
	return encbridge.Status(C.encbridge_call_close(
		C.encbridge_close_func(C.encbridge_close),
		C.encbridge_handle_ptr(C.uintptr_t(userData)),
	))
}
