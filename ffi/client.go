package ffi

import (
	"net/http"

	"github.com/wippyai/crabhttp/client"
	"github.com/wippyai/crabhttp/resource"
)

const tClient = resource.TypeClient

// ClientDestroy releases a client and its idle connections.
func (b *Boundary) ClientDestroy(h Handle) {
	b.destroy("client_destroy", tClient, h)
}

// ClientGet starts a GET request builder.
func (b *Boundary) ClientGet(h Handle, url *string) Handle {
	return b.start("client_get", h, Str(http.MethodGet), url)
}

// ClientPost starts a POST request builder.
func (b *Boundary) ClientPost(h Handle, url *string) Handle {
	return b.start("client_post", h, Str(http.MethodPost), url)
}

// ClientPut starts a PUT request builder.
func (b *Boundary) ClientPut(h Handle, url *string) Handle {
	return b.start("client_put", h, Str(http.MethodPut), url)
}

// ClientPatch starts a PATCH request builder.
func (b *Boundary) ClientPatch(h Handle, url *string) Handle {
	return b.start("client_patch", h, Str(http.MethodPatch), url)
}

// ClientDelete starts a DELETE request builder.
func (b *Boundary) ClientDelete(h Handle, url *string) Handle {
	return b.start("client_delete", h, Str(http.MethodDelete), url)
}

// ClientHead starts a HEAD request builder.
func (b *Boundary) ClientHead(h Handle, url *string) Handle {
	return b.start("client_head", h, Str(http.MethodHead), url)
}

// ClientRequest starts a request builder with an arbitrary method.
func (b *Boundary) ClientRequest(h Handle, method, url *string) Handle {
	return b.start("client_request", h, method, url)
}

// start borrows the client; the client handle stays valid.
func (b *Boundary) start(op string, h Handle, method, url *string) (ret Handle) {
	defer b.guard(op, func() { ret = 0 })

	c, done, ok := borrow[*client.Client](b, op, tClient, h)
	if !ok {
		return 0
	}
	defer done()

	m, err := text(op, "method", method)
	if err != nil {
		b.fail(op, err)
		return 0
	}
	u, err := text(op, "url", url)
	if err != nil {
		b.fail(op, err)
		return 0
	}
	rb, err := c.Request(m, u)
	if err != nil {
		b.fail(op, err)
		return 0
	}
	return b.table.Insert(tRequestBuilder, rb)
}

// ClientExecute sends a built request. The request handle is consumed once
// both handles are valid, whether or not the send succeeds.
func (b *Boundary) ClientExecute(h, request Handle) (ret Handle) {
	const op = "client_execute"
	defer b.guard(op, func() { ret = 0 })

	c, done, ok := borrow[*client.Client](b, op, tClient, h)
	if !ok {
		return 0
	}
	defer done()

	if _, err := handleArg[*client.Request](b, op, tRequest, request); err != nil {
		b.fail(op, err)
		return 0
	}
	req, err := resource.TakeAs[*client.Request](b.table, request, tRequest)
	if err != nil {
		b.fail(op, handleError(op, tRequest, request, err))
		return 0
	}

	resp, err := c.Execute(req)
	if err != nil {
		req.Drop()
		b.fail(op, err)
		return 0
	}
	return b.table.Insert(tResponse, resp)
}
