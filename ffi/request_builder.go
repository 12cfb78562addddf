package ffi

import (
	"github.com/wippyai/crabhttp/client"
	"github.com/wippyai/crabhttp/resource"
)

const tRequestBuilder = resource.TypeRequestBuilder

type requestFn = func(*client.RequestBuilder) (*client.RequestBuilder, error)

func (b *Boundary) configureRequest(op string, h Handle, fn requestFn) (ret Handle) {
	defer b.guard(op, func() { ret = 0 })
	return mutate(b, op, tRequestBuilder, h, fn)
}

// RequestBuilderDestroy releases a builder that will not be sent.
func (b *Boundary) RequestBuilderDestroy(h Handle) {
	b.destroy("request_builder_destroy", tRequestBuilder, h)
}

// RequestBuilderHeader appends a header value.
func (b *Boundary) RequestBuilderHeader(h Handle, key, value *string) Handle {
	const op = "request_builder_header"
	return b.configureRequest(op, h, func(rb *client.RequestBuilder) (*client.RequestBuilder, error) {
		k, err := text(op, "key", key)
		if err != nil {
			return nil, err
		}
		v, err := text(op, "value", value)
		if err != nil {
			return nil, err
		}
		return rb.Header(k, v)
	})
}

// RequestBuilderHeaders merges a header map into the request. The header
// map handle is consumed on success.
func (b *Boundary) RequestBuilderHeaders(h, headers Handle) Handle {
	const op = "request_builder_headers"
	nh := b.configureRequest(op, h, func(rb *client.RequestBuilder) (*client.RequestBuilder, error) {
		m, err := handleArg[*client.HeaderMap](b, op, resource.TypeHeaderMap, headers)
		if err != nil {
			return nil, err
		}
		return rb.Headers(m)
	})
	if nh != 0 {
		b.consume(resource.TypeHeaderMap, headers)
	}
	return nh
}

// RequestBuilderBasicAuth sets basic authentication. A null password is
// sent as empty.
func (b *Boundary) RequestBuilderBasicAuth(h Handle, user, password *string) Handle {
	const op = "request_builder_basic_auth"
	return b.configureRequest(op, h, func(rb *client.RequestBuilder) (*client.RequestBuilder, error) {
		u, err := text(op, "username", user)
		if err != nil {
			return nil, err
		}
		p, err := optText(op, "password", password)
		if err != nil {
			return nil, err
		}
		return rb.BasicAuth(u, p)
	})
}

// RequestBuilderBearerAuth sets bearer token authentication.
func (b *Boundary) RequestBuilderBearerAuth(h Handle, token *string) Handle {
	const op = "request_builder_bearer_auth"
	return b.configureRequest(op, h, func(rb *client.RequestBuilder) (*client.RequestBuilder, error) {
		t, err := text(op, "token", token)
		if err != nil {
			return nil, err
		}
		return rb.BearerAuth(t)
	})
}

// RequestBuilderBodyBytes sets a binary body. The bytes are copied.
func (b *Boundary) RequestBuilderBodyBytes(h Handle, data []byte) Handle {
	return b.configureRequest("request_builder_body_bytes", h, func(rb *client.RequestBuilder) (*client.RequestBuilder, error) {
		return rb.BodyBytes(data)
	})
}

// RequestBuilderBodyString sets a text body.
func (b *Boundary) RequestBuilderBodyString(h Handle, body *string) Handle {
	const op = "request_builder_body_string"
	return b.configureRequest(op, h, func(rb *client.RequestBuilder) (*client.RequestBuilder, error) {
		s, err := text(op, "body", body)
		if err != nil {
			return nil, err
		}
		return rb.BodyString(s)
	})
}

// RequestBuilderBodyFile streams a file as the body.
func (b *Boundary) RequestBuilderBodyFile(h Handle, path *string) Handle {
	const op = "request_builder_body_file"
	return b.configureRequest(op, h, func(rb *client.RequestBuilder) (*client.RequestBuilder, error) {
		p, err := text(op, "file_path", path)
		if err != nil {
			return nil, err
		}
		return rb.BodyFile(p)
	})
}

// RequestBuilderBodyFileWithName sends a file as a one part multipart form.
func (b *Boundary) RequestBuilderBodyFileWithName(h Handle, name, path *string) Handle {
	const op = "request_builder_body_file_with_name"
	return b.configureRequest(op, h, func(rb *client.RequestBuilder) (*client.RequestBuilder, error) {
		n, err := text(op, "file_name", name)
		if err != nil {
			return nil, err
		}
		p, err := text(op, "file_path", path)
		if err != nil {
			return nil, err
		}
		return rb.BodyFileWithName(n, p)
	})
}

// RequestBuilderTimeout sets the per request timeout in milliseconds.
func (b *Boundary) RequestBuilderTimeout(h Handle, ms uint64) Handle {
	return b.configureRequest("request_builder_timeout", h, func(rb *client.RequestBuilder) (*client.RequestBuilder, error) {
		return rb.Timeout(millis(&ms))
	})
}

// RequestBuilderQuery appends query parameters in order.
func (b *Boundary) RequestBuilderQuery(h Handle, pairs []Pair) Handle {
	const op = "request_builder_query"
	return b.configureRequest(op, h, func(rb *client.RequestBuilder) (*client.RequestBuilder, error) {
		ps, err := pairList(op, pairs)
		if err != nil {
			return nil, err
		}
		return rb.Query(ps)
	})
}

// RequestBuilderVersion selects the HTTP version.
func (b *Boundary) RequestBuilderVersion(h Handle, version *string) Handle {
	const op = "request_builder_version"
	return b.configureRequest(op, h, func(rb *client.RequestBuilder) (*client.RequestBuilder, error) {
		v, err := text(op, "version", version)
		if err != nil {
			return nil, err
		}
		return rb.Version(v)
	})
}

// RequestBuilderForm sets a url-encoded form body.
func (b *Boundary) RequestBuilderForm(h Handle, pairs []Pair) Handle {
	const op = "request_builder_form"
	return b.configureRequest(op, h, func(rb *client.RequestBuilder) (*client.RequestBuilder, error) {
		ps, err := pairList(op, pairs)
		if err != nil {
			return nil, err
		}
		return rb.Form(ps)
	})
}

// RequestBuilderJSON sets a JSON object body.
func (b *Boundary) RequestBuilderJSON(h Handle, pairs []Pair) Handle {
	const op = "request_builder_json"
	return b.configureRequest(op, h, func(rb *client.RequestBuilder) (*client.RequestBuilder, error) {
		ps, err := pairList(op, pairs)
		if err != nil {
			return nil, err
		}
		return rb.JSON(ps)
	})
}

// RequestBuilderBuild consumes the builder and returns a request.
func (b *Boundary) RequestBuilderBuild(h Handle) (ret Handle) {
	const op = "request_builder_build"
	defer b.guard(op, func() { ret = 0 })

	rb, ok := b.takeRequestBuilder(op, h)
	if !ok {
		return 0
	}
	req, err := rb.Build()
	if err != nil {
		rb.Drop()
		b.fail(op, err)
		return 0
	}
	return b.table.Insert(tRequest, req)
}

// RequestBuilderSend consumes the builder, sends the request and returns
// the response.
func (b *Boundary) RequestBuilderSend(h Handle) (ret Handle) {
	const op = "request_builder_send"
	defer b.guard(op, func() { ret = 0 })

	rb, ok := b.takeRequestBuilder(op, h)
	if !ok {
		return 0
	}
	resp, err := rb.Send()
	if err != nil {
		rb.Drop()
		b.fail(op, err)
		return 0
	}
	return b.table.Insert(tResponse, resp)
}

// RequestBuilderTryClone copies the builder, leaving the original valid.
func (b *Boundary) RequestBuilderTryClone(h Handle) (ret Handle) {
	const op = "request_builder_try_clone"
	defer b.guard(op, func() { ret = 0 })

	rb, done, ok := borrow[*client.RequestBuilder](b, op, tRequestBuilder, h)
	if !ok {
		return 0
	}
	defer done()

	c, err := rb.TryClone()
	if err != nil {
		b.fail(op, err)
		return 0
	}
	return b.table.Insert(tRequestBuilder, c)
}

func (b *Boundary) takeRequestBuilder(op string, h Handle) (*client.RequestBuilder, bool) {
	if h == 0 {
		b.fail(op, errNull(op, tRequestBuilder))
		return nil, false
	}
	rb, err := resource.TakeAs[*client.RequestBuilder](b.table, h, tRequestBuilder)
	if err != nil {
		b.fail(op, handleError(op, tRequestBuilder, h, err))
		return nil, false
	}
	return rb, true
}

func pairList(op string, pairs []Pair) ([]client.Pair, error) {
	out := make([]client.Pair, 0, len(pairs))
	for _, p := range pairs {
		k, err := text(op, "key", p.Key)
		if err != nil {
			return nil, err
		}
		v, err := text(op, "value", p.Value)
		if err != nil {
			return nil, err
		}
		out = append(out, client.Pair{Key: k, Value: v})
	}
	return out, nil
}
