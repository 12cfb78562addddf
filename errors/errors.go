package errors

import (
	"fmt"
	"strings"
)

// Phase indicates where in processing the error occurred
type Phase string

const (
	PhaseBoundary  Phase = "boundary"  // handle and argument checks
	PhaseBuilder   Phase = "builder"   // client or request configuration
	PhaseRequest   Phase = "request"   // request dispatch
	PhaseResponse  Phase = "response"  // response metadata
	PhaseBody      Phase = "body"      // body materialization
	PhaseHeader    Phase = "header"    // header map operations
	PhaseTransport Phase = "transport" // connection level
	PhaseWasm      Phase = "wasm"      // guest memory access
)

// Error is the structured error type used throughout the module
type Error struct {
	Cause  error
	Phase  Phase
	Op     string
	Detail string
	Kind   Kind
	Code   int32
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteByte('[')
	b.WriteString(string(e.Phase))
	b.WriteString("] ")
	b.WriteString(e.Kind.String())

	if e.Op != "" {
		b.WriteString(" at ")
		b.WriteString(e.Op)
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

// Op sets the boundary operation name
func (b *Builder) Op(op string) *Builder {
	b.err.Op = op
	return b
}

// Code sets the numeric sub-code
func (b *Builder) Code(code int32) *Builder {
	b.err.Code = code
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

// NullHandle creates an error for a null handle or pointer argument
func NullHandle(op, what string) *Error {
	return &Error{
		Phase:  PhaseBoundary,
		Kind:   KindHandleNull,
		Op:     op,
		Detail: fmt.Sprintf("%s is null", what),
	}
}

// InvalidHandle creates an error for a stale or mistyped handle
func InvalidHandle(op, what string, handle uint64) *Error {
	return &Error{
		Phase:  PhaseBoundary,
		Kind:   KindHandleInvalid,
		Op:     op,
		Detail: fmt.Sprintf("%s handle %#x is not live", what, handle),
	}
}

// Busy creates an error for a handle that cannot be consumed while borrowed
func Busy(op, what string) *Error {
	return &Error{
		Phase:  PhaseBoundary,
		Kind:   KindResourceBusy,
		Op:     op,
		Detail: fmt.Sprintf("%s is borrowed by another call", what),
	}
}

// CharConversion creates an invalid UTF-8 error
func CharConversion(op, arg string, data []byte) *Error {
	preview := data
	if len(preview) > 32 {
		preview = preview[:32]
	}
	return &Error{
		Phase:  PhaseBoundary,
		Kind:   KindCharConversion,
		Op:     op,
		Detail: fmt.Sprintf("%s: invalid UTF-8 sequence: %x", arg, preview),
	}
}

// InvalidArgument creates an error for a well-encoded but illegal value
func InvalidArgument(op, arg string, cause error) *Error {
	return &Error{
		Phase:  PhaseBoundary,
		Kind:   KindInvalidInput,
		Op:     op,
		Detail: fmt.Sprintf("invalid %s", arg),
		Cause:  cause,
	}
}

// Unsupported creates an unsupported operation error
func Unsupported(phase Phase, what string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindUnsupported,
		Detail: what,
	}
}

// Builderf creates a builder misconfiguration error
func Builderf(format string, args ...any) *Error {
	return &Error{
		Phase:  PhaseBuilder,
		Kind:   KindHTTPBuilder,
		Detail: fmt.Sprintf(format, args...),
	}
}

// BodyConsumed creates the error reported by a second body materialization
func BodyConsumed(op string) *Error {
	return &Error{
		Phase:  PhaseBody,
		Kind:   KindBodyConsumed,
		Op:     op,
		Detail: "response body already consumed",
	}
}

// Status creates an HTTP status error carrying the status as sub-code
func Status(url string, status int) *Error {
	return &Error{
		Phase:  PhaseResponse,
		Kind:   KindHTTPStatus,
		Code:   int32(status),
		Detail: fmt.Sprintf("HTTP status %d for url (%s)", status, url),
	}
}

// Panic creates an internal fault error from a recovered panic value
func Panic(op string, r any) *Error {
	var detail string
	switch v := r.(type) {
	case string:
		detail = v
	case error:
		detail = v.Error()
	default:
		detail = fmt.Sprintf("%v", v)
	}
	return &Error{
		Phase:  PhaseBoundary,
		Kind:   KindPanic,
		Op:     op,
		Detail: detail,
	}
}

// WithOp returns a copy of err with Op set when err is an *Error without one.
// Other errors are wrapped so that the operation still shows up in messages.
func WithOp(err error, op string) error {
	if err == nil {
		return nil
	}
	if e, ok := err.(*Error); ok {
		if e.Op != "" {
			return e
		}
		cp := *e
		cp.Op = op
		return &cp
	}
	return &Error{
		Phase: PhaseBoundary,
		Kind:  Classify(err),
		Op:    op,
		Code:  CodeOf(err),
		Cause: err,
	}
}
