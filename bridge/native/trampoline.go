//go:build cgo

package native

/*
#include <stdint.h>
#include "callbacks.h"
*/
import "C"

import (
	"math"
	"unsafe"

	"github.com/wippyai/encbridge"
	"github.com/wippyai/encbridge/bridge"
)

//export encbridgeGoWrite
func encbridgeGoWrite(handle C.uintptr_t, data *C.uchar, length C.int) C.int {
	h, ok := toHandle(handle)
	if !ok {
		return C.int(encbridge.StatusUnknownHandle)
	}
	b := bridge.Default()
	if !b.Known(h) {
		return C.int(b.Write(h, nil))
	}
	if length < 0 || (data == nil && length > 0) {
		return C.int(encbridge.StatusBadBuffer)
	}

	var view []byte
	if length > 0 {
		view = unsafe.Slice((*byte)(unsafe.Pointer(data)), int(length))
	}
	return C.int(b.Write(h, view))
}

//export encbridgeGoClose
func encbridgeGoClose(handle C.uintptr_t) C.int {
	h, ok := toHandle(handle)
	if !ok {
		return C.int(encbridge.StatusUnknownHandle)
	}
	return C.int(bridge.Default().Close(h))
}

// toHandle rejects user_data values that cannot have come from a registry.
func toHandle(v C.uintptr_t) (encbridge.Handle, bool) {
	if v == 0 || uint64(v) > math.MaxUint32 {
		return 0, false
	}
	return encbridge.Handle(v), true
}
