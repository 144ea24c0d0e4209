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

// WriteCallback returns the C write entry point,
// int (*)(void *user_data, const unsigned char *ptr, int len).
// Convert it to the encoder's function pointer type on the C side.
func WriteCallback() unsafe.Pointer {
	return unsafe.Pointer(C.encbridge_write)
}

// CloseCallback returns the C close entry point, int (*)(void *user_data).
func CloseCallback() unsafe.Pointer {
	return unsafe.Pointer(C.encbridge_close)
}

// UserData encodes h as the opaque user_data pointer the encoder passes back.
// The value is an integer, not an address, so it is safe to keep in C memory.
func UserData(h encbridge.Handle) unsafe.Pointer {
	return C.encbridge_handle_ptr(C.uintptr_t(h))
}
