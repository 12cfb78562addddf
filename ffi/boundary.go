package ffi

import (
	stderrors "errors"
	"time"
	"unicode/utf8"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/wippyai/crabhttp/buffer"
	"github.com/wippyai/crabhttp/errors"
	"github.com/wippyai/crabhttp/lasterror"
	"github.com/wippyai/crabhttp/resource"
)

// Handle is an opaque reference handed to callers. 0 is null.
type Handle = resource.Handle

// Pair is a key/value text argument. A nil field is a null pointer.
type Pair struct {
	Key   *string
	Value *string
}

// Str returns a text argument holding s.
func Str(s string) *string { return &s }

// Boundary implements every call of the handle based API. Values live in a
// resource table; failures are recorded in a last-error channel and signalled
// by a null or sentinel return.
type Boundary struct {
	table  *resource.Table
	errs   lasterror.Channel
	alloc  buffer.Allocator
	tracer trace.TracerProvider
}

// Option configures a Boundary.
type Option func(*Boundary)

// WithChannel sets the channel failures are recorded in. The default is a
// single Slot.
func WithChannel(c lasterror.Channel) Option {
	return func(b *Boundary) { b.errs = c }
}

// WithAllocator sets the allocator for owned buffers.
func WithAllocator(a buffer.Allocator) Option {
	return func(b *Boundary) { b.alloc = a }
}

// WithTable sets the handle table, e.g. one with metrics subscribed.
func WithTable(t *resource.Table) Option {
	return func(b *Boundary) { b.table = t }
}

// WithTracerProvider makes every client builder created by the boundary
// record a span per round trip.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(b *Boundary) { b.tracer = tp }
}

// New creates a Boundary.
func New(opts ...Option) *Boundary {
	b := &Boundary{}
	for _, opt := range opts {
		opt(b)
	}
	if b.table == nil {
		b.table = resource.NewTable()
	}
	if b.errs == nil {
		b.errs = lasterror.NewSlot()
	}
	if b.alloc == nil {
		b.alloc = buffer.GoAllocator{}
	}
	return b
}

// Table returns the handle table.
func (b *Boundary) Table() *resource.Table { return b.table }

// Close destroys every live handle.
func (b *Boundary) Close() error { return b.table.Close() }

func (b *Boundary) fail(op string, err error) {
	b.errs.Set(errors.WithOp(err, op))
}

// guard converts a panic into a recorded Panic error. onPanic, if set,
// stores the call's sentinel result.
func (b *Boundary) guard(op string, onPanic func()) {
	r := recover()
	if r == nil {
		return
	}
	Logger().Error("panic in boundary call",
		zap.String("op", op),
		zap.Any("panic", r),
		zap.Stack("stack"))
	b.errs.Set(errors.Panic(op, r))
	if onPanic != nil {
		onPanic()
	}
}

func handleError(op string, typeID resource.TypeID, h Handle, err error) error {
	if stderrors.Is(err, resource.ErrBusy) {
		return errors.Busy(op, typeID.String())
	}
	return errors.InvalidHandle(op, typeID.String(), uint64(h))
}

// lookup resolves a handle argument, recording null and invalid handles.
func lookup[T any](b *Boundary, op string, typeID resource.TypeID, h Handle) (T, bool) {
	var zero T
	if h == 0 {
		b.fail(op, errors.NullHandle(op, typeID.String()))
		return zero, false
	}
	v, err := resource.Lookup[T](b.table, h, typeID)
	if err != nil {
		b.fail(op, handleError(op, typeID, h, err))
		return zero, false
	}
	return v, true
}

// handleArg resolves a handle passed as an argument of another call. The
// error is returned, not recorded.
func handleArg[T any](b *Boundary, op string, typeID resource.TypeID, h Handle) (T, error) {
	var zero T
	if h == 0 {
		return zero, errors.NullHandle(op, typeID.String())
	}
	v, err := resource.Lookup[T](b.table, h, typeID)
	if err != nil {
		return zero, handleError(op, typeID, h, err)
	}
	return v, nil
}

// borrow pins a handle for the rest of the call. done must be called when
// ok is true.
func borrow[T any](b *Boundary, op string, typeID resource.TypeID, h Handle) (v T, done func(), ok bool) {
	if h == 0 {
		b.fail(op, errors.NullHandle(op, typeID.String()))
		return v, nil, false
	}
	v, err := resource.BorrowAs[T](b.table, h, typeID)
	if err != nil {
		b.fail(op, handleError(op, typeID, h, err))
		return v, nil, false
	}
	return v, func() { b.table.ReturnBorrow(h) }, true
}

// mutate runs one consuming configuration call. The handle is checked
// before fn converts any argument; when fn fails h stays valid and owned by
// the caller. On success h is invalidated and the new handle returned.
func mutate[T any](b *Boundary, op string, typeID resource.TypeID, h Handle, fn func(T) (T, error)) Handle {
	v, ok := lookup[T](b, op, typeID, h)
	if !ok {
		return 0
	}
	next, err := fn(v)
	if err != nil {
		b.fail(op, err)
		return 0
	}
	nh, err := b.table.Replace(h, typeID, next)
	if err != nil {
		b.fail(op, handleError(op, typeID, h, err))
		return 0
	}
	return nh
}

// destroy releases h. Null handles are ignored, as are handles that are
// already gone; both are legitimate at teardown.
func (b *Boundary) destroy(op string, typeID resource.TypeID, h Handle) {
	defer b.guard(op, nil)
	if h == 0 {
		return
	}
	if err := b.table.Drop(h, typeID); err != nil {
		Logger().Debug("destroy ignored",
			zap.String("op", op),
			zap.Uint64("handle", uint64(h)),
			zap.Error(err))
	}
}

// consume drops a handle argument whose value moved into another object.
func (b *Boundary) consume(typeID resource.TypeID, h Handle) {
	if err := b.table.Drop(h, typeID); err != nil {
		Logger().Debug("consumed argument already gone",
			zap.Uint64("handle", uint64(h)),
			zap.Error(err))
	}
}

// insertBuffer wraps data in an owned buffer handle. An allocation failure
// is recorded against op and yields 0.
func (b *Boundary) insertBuffer(op string, data []byte) Handle {
	buf, err := buffer.New(b.alloc, data)
	if err != nil {
		b.fail(op, err)
		return 0
	}
	return b.table.Insert(resource.TypeBuffer, buf)
}

func (b *Boundary) insertText(op, s string) Handle {
	buf, err := buffer.NewText(b.alloc, s)
	if err != nil {
		b.fail(op, err)
		return 0
	}
	return b.table.Insert(resource.TypeBuffer, buf)
}

// text converts a text argument. Null is reported as a null handle and
// invalid UTF-8 as a conversion failure.
func text(op, arg string, s *string) (string, error) {
	if s == nil {
		return "", errors.NullHandle(op, arg)
	}
	if !utf8.ValidString(*s) {
		return "", errors.CharConversion(op, arg, []byte(*s))
	}
	return *s, nil
}

// optText is text for arguments where null means "absent".
func optText(op, arg string, s *string) (*string, error) {
	if s == nil {
		return nil, nil
	}
	v, err := text(op, arg, s)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// millis converts an optional millisecond count. Null disables the timeout.
func millis(ms *uint64) time.Duration {
	if ms == nil {
		return 0
	}
	return time.Duration(*ms) * time.Millisecond
}

func textList(op, arg string, list []*string) ([]string, error) {
	out := make([]string, 0, len(list))
	for _, s := range list {
		v, err := text(op, arg, s)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func errNull(op string, typeID resource.TypeID) error {
	return errors.NullHandle(op, typeID.String())
}
