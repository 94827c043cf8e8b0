package errors

import (
	"fmt"
	"strings"
)

// Phase indicates where in the binding lifecycle the error occurred
type Phase string

const (
	PhaseConstruct Phase = "construct" // module/binding construction
	PhaseLink      Phase = "link"      // import resolution and type checking
	PhaseCall      Phase = "call"      // native function execution
	PhaseClose     Phase = "close"     // instance teardown
)

// Kind categorizes the error
type Kind string

const (
	KindSignatureMismatch Kind = "signature_mismatch"
	KindUnresolvedImport  Kind = "unresolved_import"
	KindTrap              Kind = "trap"
	KindInvalidArgument   Kind = "invalid_argument"
	KindModuleClosed      Kind = "module_closed"
	KindDuplicateExport   Kind = "duplicate_export"
	KindInvalidSignature  Kind = "invalid_signature"
	KindNotFound          Kind = "not_found"
	KindRegistration      Kind = "registration"
	KindUnsupported       Kind = "unsupported"
	KindOutOfBounds       Kind = "out_of_bounds"
	KindExpired           Kind = "expired"
	KindInvalidInput      Kind = "invalid_input"
)

// Error is the structured error type used throughout the library
type Error struct {
	Cause  error
	Phase  Phase
	Kind   Kind
	Module string
	Func   string
	Want   string
	Got    string
	Detail string
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteByte('[')
	b.WriteString(string(e.Phase))
	b.WriteString("] ")
	b.WriteString(string(e.Kind))

	if e.Module != "" || e.Func != "" {
		b.WriteString(" at ")
		b.WriteString(e.Module)
		if e.Func != "" {
			b.WriteByte('.')
			b.WriteString(e.Func)
		}
	}

	if e.Want != "" || e.Got != "" {
		b.WriteString(": want ")
		b.WriteString(e.Want)
		b.WriteString(", got ")
		b.WriteString(e.Got)
	}

	if e.Detail != "" {
		if e.Want != "" || e.Got != "" {
			b.WriteString(" - ")
		} else {
			b.WriteString(": ")
		}
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

// Export sets the module and function the error refers to
func (b *Builder) Export(module, fn string) *Builder {
	b.err.Module = module
	b.err.Func = fn
	return b
}

// Want sets the expected signature
func (b *Builder) Want(sig string) *Builder {
	b.err.Want = sig
	return b
}

// Got sets the actual signature
func (b *Builder) Got(sig string) *Builder {
	b.err.Got = sig
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

// SignatureMismatch creates a link-time type mismatch error. This is the
// LinkError class: raised before execution ever starts.
func SignatureMismatch(module, fn, want, got string) *Error {
	return &Error{
		Phase:  PhaseLink,
		Kind:   KindSignatureMismatch,
		Module: module,
		Func:   fn,
		Want:   want,
		Got:    got,
	}
}

// Unresolved creates an unresolved-import error for a single import
func Unresolved(module, fn string) *Error {
	return &Error{
		Phase:  PhaseLink,
		Kind:   KindUnresolvedImport,
		Module: module,
		Func:   fn,
		Detail: "no such export",
	}
}

// Trap creates an execution trap: a native function's runtime failure,
// surfaced to the guest as non-continuable for that call
func Trap(module, fn string, cause error) *Error {
	return &Error{
		Phase:  PhaseCall,
		Kind:   KindTrap,
		Module: module,
		Func:   fn,
		Cause:  cause,
	}
}

// InvalidArgument creates a trap for arguments that fail runtime validation
func InvalidArgument(module, fn, detail string) *Error {
	return &Error{
		Phase:  PhaseCall,
		Kind:   KindInvalidArgument,
		Module: module,
		Func:   fn,
		Detail: detail,
	}
}

// ModuleClosed reports use of a destroyed module instance
func ModuleClosed(phase Phase, module string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindModuleClosed,
		Module: module,
		Detail: "module instance is closed",
	}
}

// DuplicateExport creates a construction-time duplicate name error
func DuplicateExport(module, fn string) *Error {
	return &Error{
		Phase:  PhaseConstruct,
		Kind:   KindDuplicateExport,
		Module: module,
		Func:   fn,
		Detail: "export name already registered",
	}
}

// InvalidSignature reports a declared-signature/native-callable mismatch.
// This is an authoring defect, caught when the module is built.
func InvalidSignature(module, fn, detail string) *Error {
	return &Error{
		Phase:  PhaseConstruct,
		Kind:   KindInvalidSignature,
		Module: module,
		Func:   fn,
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

// Registration creates a registry error
func Registration(module, detail string) *Error {
	return &Error{
		Phase:  PhaseConstruct,
		Kind:   KindRegistration,
		Module: module,
		Detail: detail,
	}
}

// Unsupported creates an unsupported feature error
func Unsupported(phase Phase, what string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindUnsupported,
		Detail: what,
	}
}

// OutOfBounds creates a guest-memory bounds error
func OutOfBounds(offset uint32, length uint32, size uint32) *Error {
	return &Error{
		Phase:  PhaseCall,
		Kind:   KindOutOfBounds,
		Detail: fmt.Sprintf("range [%d, %d) exceeds memory size %d", offset, uint64(offset)+uint64(length), size),
	}
}

// Expired reports use of a per-call capability after the call returned
func Expired(module, fn string) *Error {
	return &Error{
		Phase:  PhaseCall,
		Kind:   KindExpired,
		Module: module,
		Func:   fn,
		Detail: "call scope is no longer valid",
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

// Wrap wraps an existing error with additional context
func Wrap(phase Phase, kind Kind, cause error, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   kind,
		Detail: detail,
		Cause:  cause,
	}
}

// IsLinkError reports whether err belongs to the link-time error class
// (unresolved import or signature mismatch)
func IsLinkError(err error) bool {
	if e, ok := err.(*Error); ok {
		return e.Phase == PhaseLink
	}
	_, ok := err.(*UnresolvedImportsError)
	return ok
}

// IsTrap reports whether err is an execution trap
func IsTrap(err error) bool {
	e, ok := err.(*Error)
	return ok && e.Phase == PhaseCall
}

// UnresolvedImport identifies a single import the link attempt could not satisfy
type UnresolvedImport struct {
	Module string
	Name   string
}

// UnresolvedImportsError aggregates every import left unresolved by one link
// attempt. The link fails as a whole; nothing executes.
type UnresolvedImportsError struct {
	Imports []UnresolvedImport
}

// NewUnresolvedImportsError creates an error from (module, name) pairs
func NewUnresolvedImportsError(imports []UnresolvedImport) *UnresolvedImportsError {
	return &UnresolvedImportsError{Imports: imports}
}

func (e *UnresolvedImportsError) Error() string {
	if len(e.Imports) == 0 {
		return "[link] unresolved_import: no imports specified"
	}

	var b strings.Builder
	b.WriteString(fmt.Sprintf("unresolved %d import(s):\n", len(e.Imports)))

	// Group by module for cleaner output
	byModule := make(map[string][]string)
	var order []string
	for _, imp := range e.Imports {
		if _, exists := byModule[imp.Module]; !exists {
			order = append(order, imp.Module)
		}
		byModule[imp.Module] = append(byModule[imp.Module], imp.Name)
	}

	for _, mod := range order {
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
func (e *UnresolvedImportsError) Is(target error) bool {
	_, ok := target.(*UnresolvedImportsError)
	return ok
}
