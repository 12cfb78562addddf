package errors

import (
	"context"
	stderrors "errors"
	"io"
	"net"
	"os"
)

// Category is the failure class an HTTP engine reports about its own errors.
type Category uint8

const (
	CategoryNone Category = iota
	CategoryTimeout
	CategoryStatus
	CategoryBuilder
	CategoryRequest
	CategoryRedirect
	CategoryBody
	CategoryDecode
	CategoryUpgrade
)

var categoryNames = [...]string{
	CategoryNone:     "none",
	CategoryTimeout:  "timeout",
	CategoryStatus:   "status",
	CategoryBuilder:  "builder",
	CategoryRequest:  "request",
	CategoryRedirect: "redirect",
	CategoryBody:     "body",
	CategoryDecode:   "decode",
	CategoryUpgrade:  "upgrade",
}

func (c Category) String() string {
	if int(c) < len(categoryNames) {
		return categoryNames[c]
	}
	return "unknown"
}

// Categorized is implemented by engine errors that know their own category.
type Categorized interface {
	Category() Category
}

// categoryKinds is the first-tier table, checked in this order.
var categoryKinds = [...]struct {
	cat  Category
	kind Kind
}{
	{CategoryTimeout, KindHTTPTimeout},
	{CategoryStatus, KindHTTPStatus},
	{CategoryBuilder, KindHTTPBuilder},
	{CategoryRequest, KindHTTPRequest},
	{CategoryRedirect, KindHTTPRedirect},
	{CategoryBody, KindHTTPBody},
	{CategoryDecode, KindHTTPDecode},
	{CategoryUpgrade, KindHTTPUpgrade},
}

// Classify maps err to a Kind. The result depends only on the categories and
// cause chain of err:
//
//  1. an *Error anywhere in the chain supplies its own Kind;
//  2. otherwise the engine-reported category decides (timeout first);
//  3. otherwise the chain is searched for an I/O level error;
//  4. otherwise KindOther.
func Classify(err error) Kind {
	if err == nil {
		return KindNoError
	}

	var e *Error
	if stderrors.As(err, &e) {
		return e.Kind
	}

	if cat := categoryOf(err); cat != CategoryNone {
		for _, ck := range categoryKinds {
			if ck.cat == cat {
				return ck.kind
			}
		}
	}

	if kind, ok := ioKind(err); ok {
		return kind
	}
	return KindOther
}

// CodeOf returns the numeric sub-code carried by err, or 0.
func CodeOf(err error) int32 {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Code
	}
	var c interface{ StatusCode() int }
	if stderrors.As(err, &c) {
		return int32(c.StatusCode())
	}
	return 0
}

func categoryOf(err error) Category {
	if isTimeout(err) {
		return CategoryTimeout
	}
	var c Categorized
	if stderrors.As(err, &c) {
		return c.Category()
	}
	return CategoryNone
}

func isTimeout(err error) bool {
	if stderrors.Is(err, context.DeadlineExceeded) || stderrors.Is(err, os.ErrDeadlineExceeded) {
		return true
	}
	var ne net.Error
	return stderrors.As(err, &ne) && ne.Timeout()
}

// ioKind is the second-tier table for errors below the HTTP layer.
func ioKind(err error) (Kind, bool) {
	if kind, ok := errnoKind(err); ok {
		return kind, true
	}

	var dnsErr *net.DNSError
	if stderrors.As(err, &dnsErr) {
		return KindHostUnreachable, true
	}

	switch {
	case stderrors.Is(err, io.ErrUnexpectedEOF), stderrors.Is(err, io.EOF):
		return KindUnexpectedEOF, true
	case stderrors.Is(err, io.ErrShortWrite):
		return KindWriteZero, true
	case stderrors.Is(err, os.ErrNotExist):
		return KindNotFound, true
	case stderrors.Is(err, os.ErrPermission):
		return KindPermissionDenied, true
	case stderrors.Is(err, os.ErrExist):
		return KindAlreadyExists, true
	case stderrors.Is(err, net.ErrClosed):
		return KindNotConnected, true
	case stderrors.Is(err, stderrors.ErrUnsupported):
		return KindUnsupported, true
	}
	return KindOther, false
}
