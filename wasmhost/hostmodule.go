package wasmhost

import (
	"context"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"go.uber.org/zap"

	"github.com/wippyai/encbridge"
	"github.com/wippyai/encbridge/bridge"
	"github.com/wippyai/encbridge/errors"
)

// DefaultModuleName is the import module guests use for the callbacks.
const DefaultModuleName = "encbridge"

// Exported host function names.
const (
	FuncWrite = "write"
	FuncClose = "close"
)

var (
	i32    = api.ValueTypeI32
	writeP = []api.ValueType{i32, i32, i32}
	closeP = []api.ValueType{i32}
	status = []api.ValueType{i32}
)

// InstantiateHostModule defines the callback module in rt:
//
//	write(handle i32, ptr i32, len i32) -> i32
//	close(handle i32) -> i32
//
// Both forward to b and return its status unmodified. Guest instances that
// import the module may run concurrently; each call reads the calling
// instance's memory.
func InstantiateHostModule(ctx context.Context, rt wazero.Runtime, b *bridge.Bridge, name string) (api.Module, error) {
	if name == "" {
		name = DefaultModuleName
	}

	return rt.NewHostModuleBuilder(name).
		NewFunctionBuilder().
		WithGoModuleFunction(writeFunc(b), writeP, status).
		WithParameterNames("handle", "ptr", "len").
		Export(FuncWrite).
		NewFunctionBuilder().
		WithGoModuleFunction(closeFunc(b), closeP, status).
		WithParameterNames("handle").
		Export(FuncClose).
		Instantiate(ctx)
}

func writeFunc(b *bridge.Bridge) api.GoModuleFunc {
	return func(_ context.Context, mod api.Module, stack []uint64) {
		h := encbridge.Handle(api.DecodeU32(stack[0]))
		ptr := api.DecodeU32(stack[1])
		length := api.DecodeI32(stack[2])

		if !b.Known(h) {
			stack[0] = api.EncodeI32(int32(b.Write(h, nil)))
			return
		}

		view, ok := guestView(mod, ptr, length)
		if !ok {
			Logger().Warn("guest write outside memory",
				zap.Error(errors.BadBuffer(errors.PhaseGuest, h, ptr, int64(length))))
			stack[0] = api.EncodeI32(int32(encbridge.StatusBadBuffer))
			return
		}

		stack[0] = api.EncodeI32(int32(b.Write(h, view)))
	}
}

func closeFunc(b *bridge.Bridge) api.GoModuleFunc {
	return func(_ context.Context, _ api.Module, stack []uint64) {
		h := encbridge.Handle(api.DecodeU32(stack[0]))
		stack[0] = api.EncodeI32(int32(b.Close(h)))
	}
}

// guestView returns a slice aliasing the guest's linear memory. It stays
// valid until the guest runs again (memory may grow and move afterwards).
func guestView(mod api.Module, ptr uint32, length int32) ([]byte, bool) {
	if length < 0 {
		return nil, false
	}
	mem := mod.Memory()
	if mem == nil {
		return nil, length == 0
	}
	return mem.Read(ptr, uint32(length))
}
