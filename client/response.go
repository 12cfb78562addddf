package client

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"sync"

	"github.com/wippyai/crabhttp/errors"
)

type bodyState uint8

const (
	bodyUnread bodyState = iota
	bodyStreaming
	bodyConsumed
)

// Response is a received response whose body has not necessarily been read.
// Metadata accessors can be called at any time. The body is materialized by
// exactly one of Text, TextWithCharset, Bytes, CopyTo or a sequence of Read.
type Response struct {
	resp   *http.Response
	cancel context.CancelFunc
	remote net.Addr

	mu     sync.Mutex
	state  bodyState
	closed bool
}

func (r *Response) init(resp *http.Response, cancel context.CancelFunc) {
	r.resp = resp
	r.cancel = cancel
}

// Status returns the status code.
func (r *Response) Status() int { return r.resp.StatusCode }

// Header returns the response headers.
func (r *Response) Header() *HeaderMap { return HeaderMapFrom(r.resp.Header) }

// Version returns the protocol version, e.g. "HTTP/1.1".
func (r *Response) Version() string {
	return fmt.Sprintf("HTTP/%d.%d", r.resp.ProtoMajor, r.resp.ProtoMinor)
}

// URL returns the final URL after redirects.
func (r *Response) URL() *url.URL {
	if r.resp.Request == nil || r.resp.Request.URL == nil {
		return nil
	}
	u := *r.resp.Request.URL
	return &u
}

// RemoteAddr returns the peer address of the connection, empty when unknown.
func (r *Response) RemoteAddr() string {
	if r.remote == nil {
		return ""
	}
	return r.remote.String()
}

// ContentLength returns the declared body length, -1 when unknown.
func (r *Response) ContentLength() int64 { return r.resp.ContentLength }

// ErrorForStatus returns a status error for 4xx and 5xx responses.
func (r *Response) ErrorForStatus() error {
	code := r.resp.StatusCode
	if code < 400 || code > 599 {
		return nil
	}
	return &Error{
		Op:     "error_for_status",
		URL:    r.urlString(),
		Status: code,
		Cat:    errors.CategoryStatus,
	}
}

func (r *Response) urlString() string {
	if u := r.URL(); u != nil {
		return u.String()
	}
	return ""
}

func (r *Response) claim(op string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state != bodyUnread {
		return errors.BodyConsumed(op)
	}
	r.state = bodyConsumed
	return nil
}

// Bytes reads the whole body.
func (r *Response) Bytes() ([]byte, error) {
	if err := r.claim("bytes"); err != nil {
		return nil, err
	}
	defer r.Close()
	data, err := io.ReadAll(r.resp.Body)
	if err != nil {
		return nil, bodyError("bytes", r.urlString(), err)
	}
	return data, nil
}

// Text reads the body as text, decoding it from the charset named by the
// response, UTF-8 by default.
func (r *Response) Text() (string, error) {
	return r.decode("text", "utf-8")
}

// TextWithCharset is Text with a different fallback charset.
func (r *Response) TextWithCharset(def string) (string, error) {
	return r.decode("text_with_charset", def)
}

func (r *Response) decode(op, def string) (string, error) {
	if err := r.claim(op); err != nil {
		return "", err
	}
	defer r.Close()
	data, err := io.ReadAll(r.resp.Body)
	if err != nil {
		return "", bodyError(op, r.urlString(), err)
	}
	s, err := decodeText(data, r.resp.Header.Get("Content-Type"), def)
	if err != nil {
		return "", &Error{Op: op, URL: r.urlString(), Cat: errors.CategoryDecode, Err: err}
	}
	return s, nil
}

// CopyTo writes the whole body to w.
func (r *Response) CopyTo(w io.Writer) (int64, error) {
	if err := r.claim("copy_to"); err != nil {
		return 0, err
	}
	defer r.Close()
	n, err := io.Copy(w, r.resp.Body)
	if err != nil {
		return n, bodyError("copy_to", r.urlString(), err)
	}
	return n, nil
}

// Read streams the body. It returns io.EOF at the end, after which the
// connection is released.
func (r *Response) Read(p []byte) (int, error) {
	r.mu.Lock()
	switch r.state {
	case bodyConsumed:
		r.mu.Unlock()
		return 0, errors.BodyConsumed("read")
	case bodyUnread:
		r.state = bodyStreaming
	}
	closed := r.closed
	r.mu.Unlock()
	if closed {
		return 0, io.EOF
	}

	n, err := r.resp.Body.Read(p)
	if err == io.EOF {
		r.Close()
		return n, io.EOF
	}
	if err != nil {
		return n, bodyError("read", r.urlString(), err)
	}
	return n, nil
}

// Close releases the body and the connection. It is safe to call more than
// once.
func (r *Response) Close() error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.closed = true
	r.mu.Unlock()

	err := r.resp.Body.Close()
	if r.cancel != nil {
		r.cancel()
	}
	return err
}

// Drop releases the response; see Close.
func (r *Response) Drop() {
	_ = r.Close()
}
