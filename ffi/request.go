package ffi

import (
	"github.com/wippyai/crabhttp/client"
	"github.com/wippyai/crabhttp/resource"
)

const tRequest = resource.TypeRequest

// RequestDestroy releases a request that will not be executed.
func (b *Boundary) RequestDestroy(h Handle) {
	b.destroy("request_destroy", tRequest, h)
}

// RequestMethod returns the method as a text buffer.
func (b *Boundary) RequestMethod(h Handle) (ret Handle) {
	const op = "request_method"
	defer b.guard(op, func() { ret = 0 })

	r, done, ok := borrow[*client.Request](b, op, tRequest, h)
	if !ok {
		return 0
	}
	defer done()
	return b.insertText(op, r.Method())
}

// RequestURL returns the URL, query included, as a text buffer.
func (b *Boundary) RequestURL(h Handle) (ret Handle) {
	const op = "request_url"
	defer b.guard(op, func() { ret = 0 })

	r, done, ok := borrow[*client.Request](b, op, tRequest, h)
	if !ok {
		return 0
	}
	defer done()
	return b.insertText(op, r.URL().String())
}

// RequestTryClone copies a request whose body can be replayed.
func (b *Boundary) RequestTryClone(h Handle) (ret Handle) {
	const op = "request_try_clone"
	defer b.guard(op, func() { ret = 0 })

	r, done, ok := borrow[*client.Request](b, op, tRequest, h)
	if !ok {
		return 0
	}
	defer done()

	c, err := r.TryClone()
	if err != nil {
		b.fail(op, err)
		return 0
	}
	return b.table.Insert(tRequest, c)
}
