package client

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptrace"
	"net/url"
	"strings"

	"github.com/wippyai/crabhttp/errors"
	"golang.org/x/net/http/httpguts"
)

// Client sends requests over a shared connection pool. It is safe for
// concurrent use.
type Client struct {
	hc        *http.Client
	headers   *HeaderMap
	httpsOnly bool
	http1Only bool
	h2Prior   bool
}

// NewClient builds a client with the default configuration.
func NewClient() (*Client, error) {
	return NewClientBuilder().Build()
}

// Get starts a GET request.
func (c *Client) Get(rawURL string) (*RequestBuilder, error) {
	return c.Request(http.MethodGet, rawURL)
}

// Post starts a POST request.
func (c *Client) Post(rawURL string) (*RequestBuilder, error) {
	return c.Request(http.MethodPost, rawURL)
}

// Put starts a PUT request.
func (c *Client) Put(rawURL string) (*RequestBuilder, error) {
	return c.Request(http.MethodPut, rawURL)
}

// Patch starts a PATCH request.
func (c *Client) Patch(rawURL string) (*RequestBuilder, error) {
	return c.Request(http.MethodPatch, rawURL)
}

// Delete starts a DELETE request.
func (c *Client) Delete(rawURL string) (*RequestBuilder, error) {
	return c.Request(http.MethodDelete, rawURL)
}

// Head starts a HEAD request.
func (c *Client) Head(rawURL string) (*RequestBuilder, error) {
	return c.Request(http.MethodHead, rawURL)
}

// Request starts a request with an arbitrary method. The method must be a
// valid token and the URL absolute with a scheme and host.
func (c *Client) Request(method, rawURL string) (*RequestBuilder, error) {
	if method == "" || !isToken(method) {
		return nil, errors.New(errors.PhaseRequest, errors.KindInvalidInput).
			Detail("invalid method %q", method).
			Build()
	}
	u, err := ParseURL(rawURL)
	if err != nil {
		return nil, err
	}
	return &RequestBuilder{
		client: c,
		req: &Request{
			method: method,
			url:    u,
			header: NewHeaderMap(),
		},
	}, nil
}

// ParseURL parses an absolute URL with a scheme and a host.
func ParseURL(rawURL string) (*url.URL, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, errors.New(errors.PhaseRequest, errors.KindInvalidInput).
			Detail("invalid url %q", rawURL).
			Cause(err).
			Build()
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, errors.New(errors.PhaseRequest, errors.KindInvalidInput).
			Detail("url %q is not absolute", rawURL).
			Build()
	}
	u.Scheme = strings.ToLower(u.Scheme)
	return u, nil
}

func isToken(s string) bool {
	for i := 0; i < len(s); i++ {
		if !httpguts.IsTokenRune(rune(s[i])) {
			return false
		}
	}
	return true
}

// Execute sends req and returns the response once its headers arrived. The
// body is read lazily through the returned Response.
func (c *Client) Execute(req *Request) (*Response, error) {
	return c.ExecuteContext(context.Background(), req)
}

// ExecuteContext is Execute with a caller supplied context.
func (c *Client) ExecuteContext(ctx context.Context, req *Request) (*Response, error) {
	target := req.url.String()
	if c.httpsOnly && req.url.Scheme != "https" {
		return nil, builderError("send", target, errURLNotHTTPS)
	}
	if req.url.Scheme != "http" && req.url.Scheme != "https" {
		return nil, builderError("send", target, errBadScheme(req.url.Scheme))
	}

	if err := c.checkVersion(req.version); err != nil {
		return nil, err
	}

	var cancel context.CancelFunc
	if req.timeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, req.timeout)
	}

	resp := &Response{}
	trace := &httptrace.ClientTrace{
		GotConn: func(info httptrace.GotConnInfo) {
			if info.Conn != nil {
				resp.remote = info.Conn.RemoteAddr()
			}
		},
	}
	ctx = httptrace.WithClientTrace(ctx, trace)

	hreq, err := req.httpRequest(ctx, c.headers)
	if err != nil {
		if cancel != nil {
			cancel()
		}
		return nil, err
	}

	hresp, err := c.hc.Do(hreq)
	if err != nil {
		if cancel != nil {
			cancel()
		}
		return nil, sendError(target, err)
	}

	if req.version == "2" && hresp.ProtoMajor != 2 {
		hresp.Body.Close()
		if cancel != nil {
			cancel()
		}
		return nil, errors.Unsupported(errors.PhaseRequest,
			fmt.Sprintf("HTTP/2 with %s, server answered %s", req.url.Host, hresp.Proto))
	}

	resp.init(hresp, cancel)
	return resp, nil
}

// checkVersion rejects request versions the client's transport can never
// speak. HTTP/2 on a client that may fall back to HTTP/1.1 is checked
// against the negotiated protocol once the response arrives.
func (c *Client) checkVersion(v string) error {
	switch {
	case v == "2" && c.http1Only:
		return errors.Unsupported(errors.PhaseRequest, "HTTP/2 on an HTTP/1 only client")
	case (v == "1.0" || v == "1.1") && c.h2Prior:
		return errors.Unsupported(errors.PhaseRequest, "HTTP/"+v+" on an HTTP/2 prior knowledge client")
	}
	return nil
}

// Drop closes idle connections of the client.
func (c *Client) Drop() {
	c.hc.CloseIdleConnections()
}
