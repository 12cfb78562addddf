package client

import (
	"compress/flate"
	"compress/gzip"
	stderrors "errors"
	"fmt"
	"net"
	"syscall"

	"github.com/wippyai/crabhttp/errors"
)

// Error is a failure reported by the HTTP engine.
type Error struct {
	Err    error
	Op     string
	URL    string
	Status int
	Cat    errors.Category
}

func (e *Error) Error() string {
	msg := "crabhttp: " + e.Op
	if e.URL != "" {
		msg += " " + e.URL
	}
	if e.Cat == errors.CategoryStatus {
		return fmt.Sprintf("%s: HTTP status %d", msg, e.Status)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Category implements errors.Categorized.
func (e *Error) Category() errors.Category { return e.Cat }

// StatusCode returns the HTTP status of a status error, otherwise 0.
func (e *Error) StatusCode() int { return e.Status }

func builderError(op, url string, err error) *Error {
	return &Error{Op: op, URL: url, Cat: errors.CategoryBuilder, Err: err}
}

// sendError wraps a failure of the round trip. Connection level failures are
// left uncategorized so that their I/O cause decides the Kind.
func sendError(url string, err error) *Error {
	var (
		opErr  *net.OpError
		dnsErr *net.DNSError
		errno  syscall.Errno
		own    *Error
	)
	switch {
	case stderrors.As(err, &own):
		return &Error{Op: "send", URL: url, Cat: own.Cat, Status: own.Status, Err: err}
	case stderrors.As(err, &opErr), stderrors.As(err, &dnsErr), stderrors.As(err, &errno):
		return &Error{Op: "send", URL: url, Cat: errors.CategoryNone, Err: err}
	}
	return &Error{Op: "send", URL: url, Cat: errors.CategoryRequest, Err: err}
}

// bodyError wraps a failure while reading a response body.
func bodyError(op, url string, err error) *Error {
	cat := errors.CategoryBody
	var corrupt flate.CorruptInputError
	if stderrors.Is(err, gzip.ErrHeader) || stderrors.Is(err, gzip.ErrChecksum) || stderrors.As(err, &corrupt) {
		cat = errors.CategoryDecode
	}
	return &Error{Op: op, URL: url, Cat: cat, Err: err}
}

var errURLNotHTTPS = stderrors.New("url scheme is not https")

func errBadScheme(scheme string) error {
	return fmt.Errorf("unsupported url scheme %q", scheme)
}

var errBodyUsed = stderrors.New("request body already sent")
