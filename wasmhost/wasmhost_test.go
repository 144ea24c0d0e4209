package wasmhost

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/wippyai/encbridge"
	"github.com/wippyai/encbridge/errors"
	"github.com/wippyai/encbridge/internal/testguest"
	"github.com/wippyai/encbridge/registry"
	"github.com/wippyai/encbridge/sink"
)

type recordingSink struct {
	writes      [][]byte
	writeStatus encbridge.Status
	closeStatus encbridge.Status
	closes      int
}

func (r *recordingSink) Write(p []byte) encbridge.Status {
	r.writes = append(r.writes, p)
	return r.writeStatus
}

func (r *recordingSink) Close() encbridge.Status {
	r.closes++
	return r.closeStatus
}

type panickingSink struct{}

func (panickingSink) Write([]byte) encbridge.Status { panic("sink exploded") }
func (panickingSink) Close() encbridge.Status       { return 0 }

func newRunner(t *testing.T, opts ...Option) *Runner {
	t.Helper()
	ctx := context.Background()
	r, err := NewRunner(ctx, testguest.Encoder(), opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = r.Close(ctx) })
	return r
}

// instance gives direct access to the guest's exports, bypassing Run.
func instance(t *testing.T, r *Runner) api.Module {
	t.Helper()
	ctx := context.Background()
	mod, err := r.rt.InstantiateModule(ctx, r.compiled, wazero.NewModuleConfig().WithName(""))
	require.NoError(t, err)
	t.Cleanup(func() { _ = mod.Close(ctx) })
	return mod
}

func call(t *testing.T, mod api.Module, fn string, args ...uint64) encbridge.Status {
	t.Helper()
	res, err := mod.ExportedFunction(fn).Call(context.Background(), args...)
	require.NoError(t, err)
	return encbridge.Status(api.DecodeI32(res[0]))
}

func TestRun_EncodesIntoSink(t *testing.T) {
	r := newRunner(t)
	var buf sink.Buffer

	res, err := r.Run(context.Background(), &buf, registry.WithLabel("ogg"))
	require.NoError(t, err)

	assert.Equal(t, encbridge.Status(0), res.Status)
	assert.True(t, res.Closed)
	assert.Equal(t, "ogg", res.Session.Label)
	assert.NotEmpty(t, res.Session.ID)
	assert.Equal(t, []byte("OggS"), buf.Bytes())
	assert.True(t, buf.Closed())
	assert.Zero(t, r.Registry().Len())
}

func TestRun_WriteFailureStopsGuest(t *testing.T) {
	r := newRunner(t)
	s := &recordingSink{writeStatus: -1}

	res, err := r.Run(context.Background(), s)
	require.NoError(t, err)

	assert.Equal(t, encbridge.Status(-1), res.Status)
	assert.False(t, res.Closed)
	assert.Zero(t, s.closes)
	assert.Zero(t, r.Registry().Len(), "runner releases handles the guest left open")
}

func TestRun_CloseStatusPassesThrough(t *testing.T) {
	r := newRunner(t)
	s := &recordingSink{closeStatus: 17}

	res, err := r.Run(context.Background(), s)
	require.NoError(t, err)

	assert.Equal(t, encbridge.Status(17), res.Status)
	assert.True(t, res.Closed)
	assert.Equal(t, 1, s.closes)
}

func TestRun_SinkPanicIsTrap(t *testing.T) {
	r := newRunner(t)

	res, err := r.Run(context.Background(), panickingSink{})
	require.Error(t, err)

	assert.ErrorIs(t, err, errors.New(errors.PhaseGuest, errors.KindTrap).Build())
	assert.False(t, res.Closed)
	assert.Zero(t, r.Registry().Len())
}

func TestRun_GuardedPanicReturnsFault(t *testing.T) {
	r := newRunner(t)

	res, err := r.Run(context.Background(), sink.Guard(panickingSink{}, -99, zap.NewNop()))
	require.NoError(t, err)
	assert.Equal(t, encbridge.Status(-99), res.Status)
}

func TestRun_NilSink(t *testing.T) {
	r := newRunner(t)

	_, err := r.Run(context.Background(), nil)
	assert.ErrorIs(t, err, errors.New(errors.PhaseRegister, errors.KindInvalidInput).Build())
}

func TestRun_AfterClose(t *testing.T) {
	ctx := context.Background()
	r, err := NewRunner(ctx, testguest.Encoder())
	require.NoError(t, err)
	require.NoError(t, r.Close(ctx))
	require.NoError(t, r.Close(ctx), "second close is a no-op")

	_, err = r.Run(ctx, &sink.Buffer{})
	assert.ErrorIs(t, err, errors.New(errors.PhaseGuest, errors.KindClosed).Build())
}

func TestRun_Concurrent(t *testing.T) {
	r := newRunner(t)

	const sessions = 16
	bufs := make([]sink.Buffer, sessions)
	var wg sync.WaitGroup
	for i := range bufs {
		wg.Add(1)
		go func(b *sink.Buffer) {
			defer wg.Done()
			res, err := r.Run(context.Background(), b)
			assert.NoError(t, err)
			assert.True(t, res.Closed)
		}(&bufs[i])
	}
	wg.Wait()

	for i := range bufs {
		assert.Equal(t, []byte("OggS"), bufs[i].Bytes())
	}
	assert.Zero(t, r.Registry().Len())
}

func TestRun_SharedRegistry(t *testing.T) {
	reg := registry.New()
	r := newRunner(t, WithRegistry(reg))

	var events []registry.EventType
	unsubscribe := reg.Subscribe(registry.ObserverFunc(func(e registry.Event) {
		events = append(events, e.Type)
	}))
	defer unsubscribe()

	_, err := r.Run(context.Background(), &sink.Buffer{})
	require.NoError(t, err)

	assert.Same(t, reg, r.Registry())
	assert.Equal(t, []registry.EventType{registry.EventRegistered, registry.EventClosed}, events)
}

func TestHostWrite_ViewAliasesGuestMemory(t *testing.T) {
	r := newRunner(t)
	mod := instance(t, r)

	var seen []byte
	h, err := r.Registry().Register(encbridge.SinkFuncs{
		WriteFunc: func(p []byte) encbridge.Status {
			seen = p
			return 0
		},
	})
	require.NoError(t, err)

	st := call(t, mod, "emit", api.EncodeU32(uint32(h)), testguest.DataOffset, testguest.DataLen)
	require.Equal(t, encbridge.Status(0), st)

	mem, ok := mod.Memory().Read(testguest.DataOffset, testguest.DataLen)
	require.True(t, ok)
	require.Len(t, seen, testguest.DataLen)
	assert.Same(t, &mem[0], &seen[0])
}

func TestHostWrite_ZeroLength(t *testing.T) {
	r := newRunner(t)
	mod := instance(t, r)
	s := &recordingSink{}
	h, err := r.Registry().Register(s)
	require.NoError(t, err)

	st := call(t, mod, "emit", api.EncodeU32(uint32(h)), 0, 0)

	assert.Equal(t, encbridge.Status(0), st)
	require.Len(t, s.writes, 1)
	assert.Empty(t, s.writes[0])
}

func TestHostWrite_BadBuffer(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	SetLogger(zap.New(core))
	t.Cleanup(func() { SetLogger(zap.NewNop()) })

	r := newRunner(t)
	mod := instance(t, r)
	s := &recordingSink{}
	h, err := r.Registry().Register(s)
	require.NoError(t, err)

	tests := []struct {
		name   string
		ptr    uint32
		length int32
	}{
		{"past end of memory", 65534, 4},
		{"negative length", 0, -1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := call(t, mod, "emit", api.EncodeU32(uint32(h)), api.EncodeU32(tt.ptr), api.EncodeI32(tt.length))
			assert.Equal(t, encbridge.StatusBadBuffer, st)
		})
	}

	assert.Empty(t, s.writes, "sink never sees an invalid view")
	assert.Equal(t, 2, logs.FilterMessage("guest write outside memory").Len())
}

func TestHostCallbacks_UnknownHandle(t *testing.T) {
	r := newRunner(t)
	mod := instance(t, r)

	assert.Equal(t, encbridge.StatusUnknownHandle, call(t, mod, "emit", 99, 0, 4))
	assert.Equal(t, encbridge.StatusUnknownHandle, call(t, mod, "finish", 99))
}

func TestHostClose_InvalidatesHandle(t *testing.T) {
	r := newRunner(t)
	mod := instance(t, r)
	s := &recordingSink{closeStatus: 5}
	h, err := r.Registry().Register(s)
	require.NoError(t, err)
	arg := api.EncodeU32(uint32(h))

	assert.Equal(t, encbridge.Status(5), call(t, mod, "finish", arg))
	assert.Equal(t, encbridge.StatusUnknownHandle, call(t, mod, "finish", arg))
	assert.Equal(t, encbridge.StatusUnknownHandle, call(t, mod, "emit", arg, 0, 4))
	assert.Equal(t, 1, s.closes)
}

func TestNewRunner_MissingImport(t *testing.T) {
	_, err := NewRunner(context.Background(), testguest.UnknownImport())
	require.Error(t, err)

	var missing *errors.MissingImportsError
	require.ErrorAs(t, err, &missing)
	require.Len(t, missing.Imports, 1)
	assert.Equal(t, "encbridge", missing.Imports[0].Module)
	assert.Equal(t, "flush", missing.Imports[0].Function)
}

func TestNewRunner_CustomModuleNameRejectsDefault(t *testing.T) {
	_, err := NewRunner(context.Background(), testguest.Encoder(), WithModuleName("opus"))

	var missing *errors.MissingImportsError
	require.ErrorAs(t, err, &missing)
	assert.Len(t, missing.Imports, 2)
}

func TestNewRunner_WASIModuleName(t *testing.T) {
	_, err := NewRunner(context.Background(), testguest.Encoder(), WithModuleName(wasiModuleName))
	assert.ErrorIs(t, err, errors.New(errors.PhaseGuest, errors.KindInvalidInput).Build())
}

func TestNewRunner_EntryChecks(t *testing.T) {
	tests := []struct {
		name  string
		entry string
		kind  errors.Kind
	}{
		{"missing export", "transcode", errors.KindNotFound},
		{"wrong signature", "emit", errors.KindInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewRunner(context.Background(), testguest.Encoder(), WithEntry(tt.entry))
			assert.ErrorIs(t, err, errors.New(errors.PhaseGuest, tt.kind).Build())
		})
	}
}

func TestNewRunner_AlternateEntry(t *testing.T) {
	r := newRunner(t, WithEntry("finish"))
	s := &recordingSink{closeStatus: 3}

	res, err := r.Run(context.Background(), s)
	require.NoError(t, err)

	assert.Equal(t, encbridge.Status(3), res.Status)
	assert.True(t, res.Closed)
	assert.Empty(t, s.writes)
}

func TestNewRunner_InvalidWasm(t *testing.T) {
	_, err := NewRunner(context.Background(), []byte("not wasm"))
	assert.ErrorIs(t, err, errors.New(errors.PhaseGuest, errors.KindInvalidInput).Build())
}

func TestNewRunner_MemoryLimit(t *testing.T) {
	r := newRunner(t, WithMemoryLimitPages(1))
	var buf sink.Buffer

	_, err := r.Run(context.Background(), &buf)
	require.NoError(t, err)
	assert.Equal(t, []byte("OggS"), buf.Bytes())
}

func TestNewRunner_MemoryLimitTooLarge(t *testing.T) {
	var r *Runner
	var err error
	require.NotPanics(t, func() {
		r, err = NewRunner(context.Background(), testguest.Encoder(), WithMemoryLimitPages(MaxMemoryLimitPages+1))
	})

	assert.Nil(t, r)
	assert.ErrorIs(t, err, errors.New(errors.PhaseGuest, errors.KindInvalidInput).Build())
	assert.Contains(t, err.Error(), "65537")
}

func TestHostWrite_UnknownHandleBeforeBadBuffer(t *testing.T) {
	r := newRunner(t)
	mod := instance(t, r)

	assert.Equal(t, encbridge.StatusUnknownHandle, call(t, mod, "emit", 99, 65534, 4))
	assert.Equal(t, encbridge.StatusUnknownHandle, call(t, mod, "emit", 99, 0, api.EncodeI32(-1)))
}
