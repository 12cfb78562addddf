package client

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"net/url"
	"strings"
	"time"

	"github.com/wippyai/crabhttp/errors"
)

// Pair is one key/value entry of a query, form or JSON body.
type Pair struct {
	Key   string
	Value string
}

// RequestBuilder configures a request. Like ClientBuilder it is immutable;
// each method returns a modified copy.
type RequestBuilder struct {
	client *Client
	req    *Request
}

func (b *RequestBuilder) with(fn func(*Request) error) (*RequestBuilder, error) {
	r := *b.req
	u := *b.req.url
	r.url = &u
	r.header = b.req.header.Clone()
	if err := fn(&r); err != nil {
		return nil, err
	}
	return &RequestBuilder{client: b.client, req: &r}, nil
}

// Header appends a header value.
func (b *RequestBuilder) Header(name, value string) (*RequestBuilder, error) {
	return b.with(func(r *Request) error {
		return r.header.Append(name, value)
	})
}

// Headers merges h into the request headers, replacing values of names h
// contains.
func (b *RequestBuilder) Headers(h *HeaderMap) (*RequestBuilder, error) {
	return b.with(func(r *Request) error {
		r.header.Replace(h)
		return nil
	})
}

// BasicAuth sets HTTP basic authentication. A nil password sends the user
// name followed by an empty password.
func (b *RequestBuilder) BasicAuth(user string, password *string) (*RequestBuilder, error) {
	cred := user + ":"
	if password != nil {
		cred += *password
	}
	return b.with(func(r *Request) error {
		return r.header.Insert("authorization", "Basic "+base64.StdEncoding.EncodeToString([]byte(cred)))
	})
}

// BearerAuth sets bearer token authentication.
func (b *RequestBuilder) BearerAuth(token string) (*RequestBuilder, error) {
	return b.with(func(r *Request) error {
		return r.header.Insert("authorization", "Bearer "+token)
	})
}

func (b *RequestBuilder) setBody(nb body, ctype string, onlyIfAbsent bool) (*RequestBuilder, error) {
	return b.with(func(r *Request) error {
		if ctype != "" && !(onlyIfAbsent && r.header.ContainsKey("content-type")) {
			if err := r.header.Insert("content-type", ctype); err != nil {
				return err
			}
		}
		if r.body != nil && r.body != nb {
			r.body.close()
		}
		r.body = nb
		return nil
	})
}

// BodyBytes sets the body.
func (b *RequestBuilder) BodyBytes(p []byte) (*RequestBuilder, error) {
	return b.setBody(&bytesBody{data: bytes.Clone(p)}, "", false)
}

// BodyString sets a text body.
func (b *RequestBuilder) BodyString(s string) (*RequestBuilder, error) {
	return b.setBody(&bytesBody{data: []byte(s)}, "", false)
}

// BodyFile streams the file at path as the body. The file is opened now.
func (b *RequestBuilder) BodyFile(path string) (*RequestBuilder, error) {
	fb, err := openFileBody(path)
	if err != nil {
		return nil, err
	}
	return b.setBody(fb, "", false)
}

// BodyFileWithName sends the file at path as a multipart/form-data body with
// one part named name.
func (b *RequestBuilder) BodyFileWithName(name, path string) (*RequestBuilder, error) {
	mb, err := newMultipartBody(name, path)
	if err != nil {
		return nil, err
	}
	return b.setBody(mb, mb.contentType(), false)
}

// Timeout sets a timeout for this request, covering the body read.
func (b *RequestBuilder) Timeout(d time.Duration) (*RequestBuilder, error) {
	return b.with(func(r *Request) error {
		r.timeout = d
		return nil
	})
}

// Query appends pairs to the URL query in order.
func (b *RequestBuilder) Query(pairs []Pair) (*RequestBuilder, error) {
	return b.with(func(r *Request) error {
		if len(pairs) == 0 {
			return nil
		}
		var sb strings.Builder
		sb.WriteString(r.url.RawQuery)
		for _, p := range pairs {
			if sb.Len() > 0 {
				sb.WriteByte('&')
			}
			sb.WriteString(url.QueryEscape(p.Key))
			sb.WriteByte('=')
			sb.WriteString(url.QueryEscape(p.Value))
		}
		r.url.RawQuery = sb.String()
		return nil
	})
}

// Version selects the HTTP version: "1.0", "1.1" or "2". A request for "2"
// fails with KindUnsupported unless HTTP/2 is actually negotiated.
func (b *RequestBuilder) Version(v string) (*RequestBuilder, error) {
	switch v {
	case "1.0", "1.1", "2":
	case "0.9", "3":
		return nil, errors.Unsupported(errors.PhaseRequest, "HTTP version "+v)
	default:
		return nil, errors.New(errors.PhaseRequest, errors.KindInvalidInput).
			Detail("unknown HTTP version %q", v).
			Build()
	}
	return b.with(func(r *Request) error {
		r.version = v
		return nil
	})
}

// Form sets an application/x-www-form-urlencoded body, keeping pair order.
func (b *RequestBuilder) Form(pairs []Pair) (*RequestBuilder, error) {
	var sb strings.Builder
	for i, p := range pairs {
		if i > 0 {
			sb.WriteByte('&')
		}
		sb.WriteString(url.QueryEscape(p.Key))
		sb.WriteByte('=')
		sb.WriteString(url.QueryEscape(p.Value))
	}
	return b.setBody(&bytesBody{data: []byte(sb.String())}, "application/x-www-form-urlencoded", false)
}

// JSON sets a JSON object body built from pairs in order. Content-Type is
// set unless the request already has one.
func (b *RequestBuilder) JSON(pairs []Pair) (*RequestBuilder, error) {
	data, err := encodePairs(pairs)
	if err != nil {
		return nil, err
	}
	return b.setBody(&bytesBody{data: data}, "application/json", true)
}

// encodePairs writes pairs as one JSON object. Repeated keys are kept.
func encodePairs(pairs []Pair) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, p := range pairs {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(p.Key)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(p.Value)
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Build finishes the request.
func (b *RequestBuilder) Build() (*Request, error) {
	r := *b.req
	return &r, nil
}

// Send builds and executes the request.
func (b *RequestBuilder) Send() (*Response, error) {
	return b.SendContext(context.Background())
}

// SendContext is Send with a caller supplied context.
func (b *RequestBuilder) SendContext(ctx context.Context) (*Response, error) {
	req, err := b.Build()
	if err != nil {
		return nil, err
	}
	return b.client.ExecuteContext(ctx, req)
}

// TryClone copies the builder. Streamed bodies cannot be copied.
func (b *RequestBuilder) TryClone() (*RequestBuilder, error) {
	r, err := b.req.TryClone()
	if err != nil {
		return nil, err
	}
	return &RequestBuilder{client: b.client, req: r}, nil
}

// Drop releases a builder that will not be sent.
func (b *RequestBuilder) Drop() {
	b.req.Drop()
}
