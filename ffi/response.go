package ffi

import (
	"bytes"
	stderrors "errors"
	"io"

	"github.com/wippyai/crabhttp/client"
	"github.com/wippyai/crabhttp/resource"
)

const tResponse = resource.TypeResponse

// ResponseDestroy releases a response and its connection.
func (b *Boundary) ResponseDestroy(h Handle) {
	b.destroy("response_destroy", tResponse, h)
}

// withResponse borrows h for fn. ok is false when h could not be borrowed.
func (b *Boundary) withResponse(op string, h Handle, fn func(*client.Response)) bool {
	r, done, ok := borrow[*client.Response](b, op, tResponse, h)
	if !ok {
		return false
	}
	defer done()
	fn(r)
	return true
}

// ResponseStatus returns the status code, -1 on failure.
func (b *Boundary) ResponseStatus(h Handle) (ret int32) {
	const op = "response_status"
	defer b.guard(op, func() { ret = -1 })

	ret = -1
	b.withResponse(op, h, func(r *client.Response) {
		ret = int32(r.Status())
	})
	return ret
}

// ResponseHeaders returns a new header map holding the response headers.
func (b *Boundary) ResponseHeaders(h Handle) (ret Handle) {
	const op = "response_headers"
	defer b.guard(op, func() { ret = 0 })

	b.withResponse(op, h, func(r *client.Response) {
		ret = b.table.Insert(tHeaderMap, r.Header())
	})
	return ret
}

// ResponseVersion returns the protocol version, e.g. "HTTP/1.1".
func (b *Boundary) ResponseVersion(h Handle) (ret Handle) {
	const op = "response_version"
	defer b.guard(op, func() { ret = 0 })

	b.withResponse(op, h, func(r *client.Response) {
		ret = b.insertText(op, r.Version())
	})
	return ret
}

// ResponseURL returns the final URL after redirects.
func (b *Boundary) ResponseURL(h Handle) (ret Handle) {
	const op = "response_url"
	defer b.guard(op, func() { ret = 0 })

	b.withResponse(op, h, func(r *client.Response) {
		if u := r.URL(); u != nil {
			ret = b.insertText(op, u.String())
		}
	})
	return ret
}

// ResponseRemoteAddr returns the peer address, or 0 when unknown.
func (b *Boundary) ResponseRemoteAddr(h Handle) (ret Handle) {
	const op = "response_remote_addr"
	defer b.guard(op, func() { ret = 0 })

	b.withResponse(op, h, func(r *client.Response) {
		if addr := r.RemoteAddr(); addr != "" {
			ret = b.insertText(op, addr)
		}
	})
	return ret
}

// ResponseContentLength returns the declared body length, -1 when unknown
// or on failure.
func (b *Boundary) ResponseContentLength(h Handle) (ret int64) {
	const op = "response_content_length"
	defer b.guard(op, func() { ret = -1 })

	ret = -1
	b.withResponse(op, h, func(r *client.Response) {
		ret = r.ContentLength()
	})
	return ret
}

// ResponseErrorForStatus records an HttpStatus error for 4xx and 5xx
// responses. It returns true when the status is not an error.
func (b *Boundary) ResponseErrorForStatus(h Handle) (ret bool) {
	const op = "response_error_for_status"
	defer b.guard(op, func() { ret = false })

	b.withResponse(op, h, func(r *client.Response) {
		if err := r.ErrorForStatus(); err != nil {
			b.fail(op, err)
			return
		}
		ret = true
	})
	return ret
}

// ResponseText reads the body as text.
func (b *Boundary) ResponseText(h Handle) (ret Handle) {
	const op = "response_text"
	defer b.guard(op, func() { ret = 0 })

	b.withResponse(op, h, func(r *client.Response) {
		s, err := r.Text()
		if err != nil {
			b.fail(op, err)
			return
		}
		ret = b.insertText(op, s)
	})
	return ret
}

// ResponseTextWithCharset reads the body as text, decoding with charset
// when the response names none.
func (b *Boundary) ResponseTextWithCharset(h Handle, charset *string) (ret Handle) {
	const op = "response_text_with_charset"
	defer b.guard(op, func() { ret = 0 })

	b.withResponse(op, h, func(r *client.Response) {
		def, err := text(op, "default_encoding", charset)
		if err != nil {
			b.fail(op, err)
			return
		}
		s, err := r.TextWithCharset(def)
		if err != nil {
			b.fail(op, err)
			return
		}
		ret = b.insertText(op, s)
	})
	return ret
}

// ResponseBytes reads the body as bytes.
func (b *Boundary) ResponseBytes(h Handle) (ret Handle) {
	const op = "response_bytes"
	defer b.guard(op, func() { ret = 0 })

	b.withResponse(op, h, func(r *client.Response) {
		data, err := r.Bytes()
		if err != nil {
			b.fail(op, err)
			return
		}
		ret = b.insertBuffer(op, data)
	})
	return ret
}

// ResponseCopyTo drains the body into a buffer.
func (b *Boundary) ResponseCopyTo(h Handle) (ret Handle) {
	const op = "response_copy_to"
	defer b.guard(op, func() { ret = 0 })

	b.withResponse(op, h, func(r *client.Response) {
		var buf bytes.Buffer
		if _, err := r.CopyTo(&buf); err != nil {
			b.fail(op, err)
			return
		}
		ret = b.insertBuffer(op, buf.Bytes())
	})
	return ret
}

// ResponseRead reads the next chunk of the body into dst. It returns the
// number of bytes read, 0 at the end of the body and -1 on failure.
func (b *Boundary) ResponseRead(h Handle, dst []byte) (ret int64) {
	const op = "response_read"
	defer b.guard(op, func() { ret = -1 })

	ret = -1
	b.withResponse(op, h, func(r *client.Response) {
		if len(dst) == 0 {
			ret = 0
			return
		}
		for {
			n, err := r.Read(dst)
			if n > 0 {
				ret = int64(n)
				return
			}
			if stderrors.Is(err, io.EOF) {
				ret = 0
				return
			}
			if err != nil {
				b.fail(op, err)
				return
			}
		}
	})
	return ret
}
