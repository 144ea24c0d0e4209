package wasmhost

import (
	"context"
	"io"
	"sync/atomic"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"github.com/tetratelabs/wazero/imports/wasi_snapshot_preview1"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/wippyai/encbridge"
	"github.com/wippyai/encbridge/bridge"
	"github.com/wippyai/encbridge/errors"
	"github.com/wippyai/encbridge/registry"
)

// DefaultEntry is the guest export called with the session handle.
const DefaultEntry = "encode"

const wasiModuleName = "wasi_snapshot_preview1"

// MaxMemoryLimitPages is the largest memory cap wasm32 allows (4GiB).
const MaxMemoryLimitPages = 65536

// Config holds runner configuration.
type Config struct {
	Registry   *registry.Registry
	Stdin      io.Reader
	Stdout     io.Writer
	Stderr     io.Writer
	ModuleName string
	Entry      string

	// MemoryLimitPages caps guest memory in 64KiB pages. 0 keeps wazero's default.
	MemoryLimitPages uint32
}

// Option configures a Runner.
type Option func(*Config)

// WithRegistry shares a registry with other entry points.
// By default each runner has its own.
func WithRegistry(r *registry.Registry) Option {
	return func(c *Config) { c.Registry = r }
}

// WithModuleName sets the import module name of the callbacks.
func WithModuleName(name string) Option {
	return func(c *Config) { c.ModuleName = name }
}

// WithEntry sets the guest export called for each session.
func WithEntry(name string) Option {
	return func(c *Config) { c.Entry = name }
}

// WithMemoryLimitPages caps guest memory.
func WithMemoryLimitPages(pages uint32) Option {
	return func(c *Config) { c.MemoryLimitPages = pages }
}

// WithStdio wires WASI stdin, stdout and stderr. Nil values are left unset.
func WithStdio(stdin io.Reader, stdout, stderr io.Writer) Option {
	return func(c *Config) {
		c.Stdin = stdin
		c.Stdout = stdout
		c.Stderr = stderr
	}
}

// Result describes one finished guest session.
type Result struct {
	Session registry.SessionInfo
	// Status is the entry function's return value, unmodified.
	Status encbridge.Status
	// Closed reports whether the guest issued the close callback.
	Closed bool
}

// Runner executes a compiled guest encoder, one fresh instance per session.
// Safe for concurrent use.
type Runner struct {
	rt       wazero.Runtime
	compiled wazero.CompiledModule
	cfg      Config
	closed   atomic.Bool
}

// NewRunner compiles wasm and prepares the host modules it may import:
// the callback module and wasi_snapshot_preview1.
func NewRunner(ctx context.Context, wasm []byte, opts ...Option) (*Runner, error) {
	cfg := Config{
		ModuleName: DefaultModuleName,
		Entry:      DefaultEntry,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.Registry == nil {
		cfg.Registry = registry.New()
	}
	if cfg.ModuleName == wasiModuleName {
		return nil, errors.InvalidInput(errors.PhaseGuest, "module name collides with WASI")
	}
	if cfg.MemoryLimitPages > MaxMemoryLimitPages {
		return nil, errors.New(errors.PhaseGuest, errors.KindInvalidInput).
			Value(cfg.MemoryLimitPages).
			Detail("memory limit %d pages exceeds %d", cfg.MemoryLimitPages, MaxMemoryLimitPages).
			Build()
	}

	rtCfg := wazero.NewRuntimeConfig().WithCloseOnContextDone(true)
	if cfg.MemoryLimitPages > 0 {
		rtCfg = rtCfg.WithMemoryLimitPages(cfg.MemoryLimitPages)
	}
	rt := wazero.NewRuntimeWithConfig(ctx, rtCfg)

	r, err := prepare(ctx, rt, wasm, cfg)
	if err != nil {
		return nil, multierr.Append(err, rt.Close(ctx))
	}
	return r, nil
}

func prepare(ctx context.Context, rt wazero.Runtime, wasm []byte, cfg Config) (*Runner, error) {
	br := bridge.New(cfg.Registry)
	if _, err := InstantiateHostModule(ctx, rt, br, cfg.ModuleName); err != nil {
		return nil, errors.Instantiation(err)
	}
	if _, err := wasi_snapshot_preview1.Instantiate(ctx, rt); err != nil {
		return nil, errors.Instantiation(err)
	}

	compiled, err := rt.CompileModule(ctx, wasm)
	if err != nil {
		return nil, errors.Wrap(errors.PhaseGuest, errors.KindInvalidInput, err, "compile guest")
	}

	if err := checkImports(compiled, cfg.ModuleName); err != nil {
		return nil, err
	}
	if err := checkEntry(compiled, cfg.Entry); err != nil {
		return nil, err
	}

	Logger().Debug("guest compiled",
		zap.String("entry", cfg.Entry),
		zap.String("module", cfg.ModuleName),
		zap.Int("imports", len(compiled.ImportedFunctions())))

	return &Runner{rt: rt, compiled: compiled, cfg: cfg}, nil
}

// checkImports reports every guest import the runtime will not satisfy.
func checkImports(compiled wazero.CompiledModule, moduleName string) error {
	var missing []string
	for _, def := range compiled.ImportedFunctions() {
		mod, name, _ := def.Import()
		switch {
		case mod == wasiModuleName:
		case mod == moduleName && (name == FuncWrite || name == FuncClose):
		default:
			missing = append(missing, mod+"#"+name)
		}
	}
	if len(missing) > 0 {
		return errors.NewMissingImportsError(missing)
	}
	return nil
}

func checkEntry(compiled wazero.CompiledModule, entry string) error {
	def, ok := compiled.ExportedFunctions()[entry]
	if !ok {
		return errors.NotFound(errors.PhaseGuest, "entry function", entry)
	}
	params, results := def.ParamTypes(), def.ResultTypes()
	if len(params) != 1 || params[0] != api.ValueTypeI32 || len(results) != 1 || results[0] != api.ValueTypeI32 {
		return errors.New(errors.PhaseGuest, errors.KindInvalidInput).
			Detail("entry %q must have type (i32) -> i32", entry).
			Build()
	}
	return nil
}

// Registry returns the registry sessions are registered in.
func (r *Runner) Registry() *registry.Registry {
	return r.cfg.Registry
}

// Run registers s, calls the guest entry with its handle and returns the
// entry's status. If the guest returns without closing, the handle is
// released here and s is not closed. Cancelling ctx aborts the guest with a
// trap error.
func (r *Runner) Run(ctx context.Context, s encbridge.Sink, opts ...registry.SessionOption) (Result, error) {
	if r.closed.Load() {
		return Result{}, errors.Closed(errors.PhaseGuest, "runner")
	}

	reg := r.cfg.Registry
	h, err := reg.Register(s, opts...)
	if err != nil {
		return Result{}, err
	}
	info, _ := reg.Info(h)

	mod, err := r.rt.InstantiateModule(ctx, r.compiled, r.moduleConfig())
	if err != nil {
		reg.Unregister(h)
		return Result{Session: info}, errors.Instantiation(err)
	}
	defer mod.Close(ctx)

	results, callErr := mod.ExportedFunction(r.cfg.Entry).Call(ctx, api.EncodeU32(uint32(h)))

	res := Result{Session: info, Closed: true}
	if _, ok := reg.Unregister(h); ok {
		res.Closed = false
		Logger().Debug("guest returned without closing",
			zap.Uint32("handle", uint32(h)),
			zap.String("session", info.ID))
	}

	if callErr != nil {
		return res, errors.Trap(h, r.cfg.Entry, callErr)
	}

	res.Status = encbridge.Status(api.DecodeI32(results[0]))
	return res, nil
}

func (r *Runner) moduleConfig() wazero.ModuleConfig {
	// Anonymous instances so sessions can run side by side. Commands are not
	// started on instantiation; reactors get their _initialize.
	cfg := wazero.NewModuleConfig().
		WithName("").
		WithStartFunctions("_initialize")
	if r.cfg.Stdin != nil {
		cfg = cfg.WithStdin(r.cfg.Stdin)
	}
	if r.cfg.Stdout != nil {
		cfg = cfg.WithStdout(r.cfg.Stdout)
	}
	if r.cfg.Stderr != nil {
		cfg = cfg.WithStderr(r.cfg.Stderr)
	}
	return cfg
}

// Close releases the compiled guest and the runtime.
func (r *Runner) Close(ctx context.Context) error {
	if !r.closed.CompareAndSwap(false, true) {
		return nil
	}
	return multierr.Combine(
		r.compiled.Close(ctx),
		r.rt.Close(ctx),
	)
}
