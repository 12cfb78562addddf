package ffi

import (
	"unsafe"

	"go.uber.org/zap"

	"github.com/wippyai/crabhttp/buffer"
	"github.com/wippyai/crabhttp/errors"
	"github.com/wippyai/crabhttp/lasterror"
	"github.com/wippyai/crabhttp/resource"
)

const tError = resource.TypeError

// errorValue is a taken last error. The message lives in an owned buffer so
// its pointer stays valid until the error is destroyed.
type errorValue struct {
	kind errors.Kind
	code int32
	msg  *buffer.Buffer
}

func (e *errorValue) Drop() { e.msg.Drop() }

// Error accessors never record errors, so reading an error cannot replace
// the next one.

func (b *Boundary) errorOf(h Handle) (*errorValue, bool) {
	if h == 0 {
		return nil, false
	}
	e, err := resource.Lookup[*errorValue](b.table, h, tError)
	if err != nil {
		return nil, false
	}
	return e, true
}

// TakeLastError removes the pending error and returns it as a handle, or 0
// when no call failed since the last take.
func (b *Boundary) TakeLastError() (ret Handle) {
	defer func() {
		if r := recover(); r != nil {
			ret = 0
		}
	}()
	rec := b.errs.Take()
	if rec == nil {
		return 0
	}
	return b.table.Insert(tError, b.newErrorValue(rec))
}

func (b *Boundary) newErrorValue(rec *lasterror.Record) *errorValue {
	msg, err := buffer.NewText(b.alloc, rec.Message)
	if err != nil {
		Logger().Warn("error message dropped", zap.Error(err), zap.String("message", rec.Message))
	}
	return &errorValue{
		kind: rec.Kind,
		code: rec.Code,
		msg:  msg,
	}
}

// ErrorKind returns the failure kind. A null handle reports
// HttpHandleNull and a stale one HandleInvalid.
func (b *Boundary) ErrorKind(h Handle) errors.Kind {
	if h == 0 {
		return errors.KindHandleNull
	}
	e, ok := b.errorOf(h)
	if !ok {
		return errors.KindHandleInvalid
	}
	return e.kind
}

// ErrorCode returns the sub-code: an HTTP status or an OS errno.
func (b *Boundary) ErrorCode(h Handle) int32 {
	e, ok := b.errorOf(h)
	if !ok {
		return 0
	}
	return e.code
}

// ErrorMessageLen returns the byte length of the message.
func (b *Boundary) ErrorMessageLen(h Handle) uint64 {
	e, ok := b.errorOf(h)
	if !ok {
		return 0
	}
	return uint64(e.msg.Len())
}

// ErrorMessage returns the address of the UTF-8 message, valid until the
// error is destroyed or cleared.
func (b *Boundary) ErrorMessage(h Handle) unsafe.Pointer {
	e, ok := b.errorOf(h)
	if !ok {
		return nil
	}
	return e.msg.Pointer()
}

// ErrorMessageText returns a copy of the message.
func (b *Boundary) ErrorMessageText(h Handle) string {
	e, ok := b.errorOf(h)
	if !ok {
		return ""
	}
	return e.msg.String()
}

// ErrorClear resets the error to NoError with an empty message.
func (b *Boundary) ErrorClear(h Handle) {
	e, ok := b.errorOf(h)
	if !ok {
		return
	}
	e.msg.Drop()
	e.kind = errors.KindNoError
	e.code = 0
	e.msg = nil
}

// ErrorDestroy releases an error.
func (b *Boundary) ErrorDestroy(h Handle) {
	b.destroy("error_destroy", tError, h)
}
