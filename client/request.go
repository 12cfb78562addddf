package client

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/wippyai/crabhttp/errors"
)

// Request is a finished request. It can be executed once; TryClone yields an
// independent copy when the body can be replayed.
type Request struct {
	method  string
	url     *url.URL
	header  *HeaderMap
	body    body
	timeout time.Duration
	version string
}

// Method returns the request method.
func (r *Request) Method() string { return r.method }

// URL returns the request URL.
func (r *Request) URL() *url.URL {
	u := *r.url
	return &u
}

// Header returns a copy of the request headers.
func (r *Request) Header() *HeaderMap { return r.header.Clone() }

// Timeout returns the per request timeout, 0 if none.
func (r *Request) Timeout() time.Duration { return r.timeout }

// Version returns the requested HTTP version, empty for the default.
func (r *Request) Version() string { return r.version }

// TryClone copies the request. Streamed bodies cannot be copied.
func (r *Request) TryClone() (*Request, error) {
	c := *r
	c.url = r.URL()
	c.header = r.header.Clone()
	if r.body != nil {
		b, ok := r.body.clone()
		if !ok {
			return nil, errors.New(errors.PhaseRequest, errors.KindHTTPBuilder).
				Op("try_clone").
				Detail("request body is a stream and cannot be cloned").
				Build()
		}
		c.body = b
	}
	return &c, nil
}

// Drop releases the request body without sending it.
func (r *Request) Drop() {
	if r.body != nil {
		r.body.close()
	}
}

// httpRequest converts the request for net/http. Default headers fill in
// names the request does not set itself.
func (r *Request) httpRequest(ctx context.Context, defaults *HeaderMap) (*http.Request, error) {
	var (
		rc     io.ReadCloser = http.NoBody
		length int64
	)
	if r.body != nil {
		var err error
		rc, length, err = r.body.open()
		if err != nil {
			return nil, builderError("send", r.url.String(), err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, r.method, r.url.String(), rc)
	if err != nil {
		rc.Close()
		return nil, builderError("send", r.url.String(), err)
	}
	req.ContentLength = length
	if rc == http.NoBody {
		req.ContentLength = 0
	}

	h := make(http.Header)
	if defaults != nil {
		for _, k := range defaults.keys {
			if r.header.ContainsKey(k) {
				continue
			}
			for _, v := range defaults.vals[k] {
				h.Add(k, v)
			}
		}
	}
	for _, k := range r.header.keys {
		for _, v := range r.header.vals[k] {
			h.Add(k, v)
		}
	}
	req.Header = h

	if host := h.Get("Host"); host != "" {
		req.Host = host
	}
	if r.version == "1.0" {
		req.Close = true
	}
	return req, nil
}
