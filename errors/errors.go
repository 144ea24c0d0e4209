package errors

import (
	"fmt"
	"sort"
	"strings"

	"github.com/wippyai/encbridge"
)

// Phase indicates where the error occurred
type Phase string

const (
	PhaseRegister Phase = "register" // session registration
	PhaseDispatch Phase = "dispatch" // write/close forwarding
	PhaseGuest    Phase = "guest"    // wasm guest loading and calls
	PhaseEncode   Phase = "encode"   // native encoder calls
	PhaseConfig   Phase = "config"   // configuration loading
)

// Kind categorizes the error
type Kind string

const (
	KindUnknownHandle  Kind = "unknown_handle"
	KindBadBuffer      Kind = "bad_buffer"
	KindClosed         Kind = "closed"
	KindExhausted      Kind = "exhausted"
	KindInvalidInput   Kind = "invalid_input"
	KindNotFound       Kind = "not_found"
	KindMissingImport  Kind = "missing_import"
	KindInstantiation  Kind = "instantiation"
	KindTrap           Kind = "trap"
	KindEncoder        Kind = "encoder"
	KindStatus         Kind = "status"
	KindNotInitialized Kind = "not_initialized"
)

// Error is the structured error type used throughout the module
type Error struct {
	Value  any
	Cause  error
	Phase  Phase
	Kind   Kind
	Detail string
	Handle encbridge.Handle
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteByte('[')
	b.WriteString(string(e.Phase))
	b.WriteString("] ")
	b.WriteString(string(e.Kind))

	if e.Handle != 0 {
		fmt.Fprintf(&b, " handle=%d", e.Handle)
	}

	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}

	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}

	return b.String()
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Phase == t.Phase && e.Kind == t.Kind
	}
	return false
}

// Builder provides structured error construction
type Builder struct {
	err Error
}

// New creates a new error builder
func New(phase Phase, kind Kind) *Builder {
	return &Builder{
		err: Error{
			Phase: phase,
			Kind:  kind,
		},
	}
}

// Handle sets the session handle
func (b *Builder) Handle(h encbridge.Handle) *Builder {
	b.err.Handle = h
	return b
}

// Value sets the offending value
func (b *Builder) Value(v any) *Builder {
	b.err.Value = v
	return b
}

// Cause sets the underlying error
func (b *Builder) Cause(err error) *Builder {
	b.err.Cause = err
	return b
}

// Detail sets the human-readable detail message
func (b *Builder) Detail(msg string, args ...any) *Builder {
	if len(args) > 0 {
		b.err.Detail = fmt.Sprintf(msg, args...)
	} else {
		b.err.Detail = msg
	}
	return b
}

// Build returns the constructed error
func (b *Builder) Build() *Error {
	return &b.err
}

// Convenience constructors for common error patterns

// UnknownHandle reports a callback for a handle with no live session
func UnknownHandle(phase Phase, h encbridge.Handle) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindUnknownHandle,
		Handle: h,
		Detail: "no session registered for handle",
	}
}

// BadBuffer reports a buffer that cannot be viewed
func BadBuffer(phase Phase, h encbridge.Handle, ptr uint32, length int64) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindBadBuffer,
		Handle: h,
		Detail: fmt.Sprintf("cannot view %d bytes at offset %d", length, ptr),
		Value:  length,
	}
}

// Closed reports use of a closed registry or runner
func Closed(phase Phase, what string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindClosed,
		Detail: what + " closed",
	}
}

// Exhausted reports that no more handles can be issued
func Exhausted(limit int) *Error {
	return &Error{
		Phase:  PhaseRegister,
		Kind:   KindExhausted,
		Detail: fmt.Sprintf("all %d session slots in use", limit),
		Value:  limit,
	}
}

// InvalidInput creates an invalid input error
func InvalidInput(phase Phase, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidInput,
		Detail: detail,
	}
}

// NotFound creates a not-found error
func NotFound(phase Phase, what, name string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindNotFound,
		Detail: fmt.Sprintf("%s %q not found", what, name),
	}
}

// NotInitialized creates a not-initialized error
func NotInitialized(phase Phase, component string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindNotInitialized,
		Detail: fmt.Sprintf("%s not initialized", component),
	}
}

// Instantiation creates a guest instantiation error
func Instantiation(cause error) *Error {
	return &Error{
		Phase:  PhaseGuest,
		Kind:   KindInstantiation,
		Detail: "instantiate guest",
		Cause:  cause,
	}
}

// Trap reports a guest call that aborted
func Trap(h encbridge.Handle, entry string, cause error) *Error {
	return &Error{
		Phase:  PhaseGuest,
		Kind:   KindTrap,
		Handle: h,
		Detail: fmt.Sprintf("call %s", entry),
		Cause:  cause,
	}
}

// Encoder reports a failing native encoder call
func Encoder(op string, code int, message string) *Error {
	return &Error{
		Phase:  PhaseEncode,
		Kind:   KindEncoder,
		Detail: fmt.Sprintf("%s: %s", op, message),
		Value:  code,
	}
}

// StatusFailed reports a non-zero status surfaced to a Go caller.
// The status is carried verbatim in Value.
func StatusFailed(phase Phase, h encbridge.Handle, st encbridge.Status) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindStatus,
		Handle: h,
		Detail: "status " + st.String(),
		Value:  st,
	}
}

// Wrap wraps an existing error with additional context
func Wrap(phase Phase, kind Kind, cause error, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   kind,
		Detail: detail,
		Cause:  cause,
	}
}

// MissingImport represents a single guest import the host cannot satisfy
type MissingImport struct {
	Module   string // e.g., "encbridge"
	Function string // e.g., "flush"
}

// MissingImportsError is returned when a guest imports functions the host does not provide
type MissingImportsError struct {
	Imports []MissingImport
}

// NewMissingImportsError creates an error from a list of "module#function" strings
func NewMissingImportsError(imports []string) *MissingImportsError {
	result := &MissingImportsError{
		Imports: make([]MissingImport, 0, len(imports)),
	}
	for _, imp := range imports {
		mod, fn := parseImportKey(imp)
		result.Imports = append(result.Imports, MissingImport{
			Module:   mod,
			Function: fn,
		})
	}
	return result
}

func parseImportKey(key string) (module, function string) {
	mod, fn, found := strings.Cut(key, "#")
	if found {
		return mod, fn
	}
	return key, ""
}

func (e *MissingImportsError) Error() string {
	if len(e.Imports) == 0 {
		return "[guest] missing_import: no imports specified"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "guest imports %d unknown function(s):\n", len(e.Imports))

	byModule := make(map[string][]string)
	for _, imp := range e.Imports {
		byModule[imp.Module] = append(byModule[imp.Module], imp.Function)
	}
	modules := make([]string, 0, len(byModule))
	for mod := range byModule {
		modules = append(modules, mod)
	}
	sort.Strings(modules)

	for _, mod := range modules {
		b.WriteString("\n  ")
		b.WriteString(mod)
		b.WriteString(":\n")
		for _, fn := range byModule[mod] {
			b.WriteString("    - ")
			b.WriteString(fn)
			b.WriteByte('\n')
		}
	}

	return strings.TrimSuffix(b.String(), "\n")
}

// Is reports whether target matches this error type
func (e *MissingImportsError) Is(target error) bool {
	_, ok := target.(*MissingImportsError)
	return ok
}
