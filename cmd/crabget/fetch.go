package main

import (
	"fmt"
	"sort"
	"strings"

	"github.com/wippyai/crabhttp/errors"
	"github.com/wippyai/crabhttp/ffi"
)

type header struct {
	name  string
	value string
}

type result struct {
	status  int32
	version string
	url     string
	headers []header
	body    []byte
}

// callError is a failure read back from the boundary's error channel.
type callError struct {
	op   string
	kind errors.Kind
	code int32
	msg  string
}

func (e *callError) Error() string {
	if e.code != 0 {
		return fmt.Sprintf("%s: %s (%s, code %d)", e.op, e.msg, e.kind, e.code)
	}
	return fmt.Sprintf("%s: %s (%s)", e.op, e.msg, e.kind)
}

func lastError(b *ffi.Boundary, op string) error {
	e := b.TakeLastError()
	if e == 0 {
		return &callError{op: op, kind: errors.KindUncategorized, msg: "no error recorded"}
	}
	defer b.ErrorDestroy(e)
	return &callError{
		op:   op,
		kind: b.ErrorKind(e),
		code: b.ErrorCode(e),
		msg:  b.ErrorMessageText(e),
	}
}

// takeText reads a text buffer and frees it. A null handle reads as "".
func takeText(b *ffi.Boundary, h ffi.Handle) string {
	if h == 0 {
		return ""
	}
	defer b.BufferDestroy(h)
	return string(b.BufferBytes(h))
}

// fetch runs one request through the handle API, the same sequence of calls
// a C or WASM caller makes.
func fetch(b *ffi.Boundary, r request) (*result, error) {
	cb := b.NewClientBuilder()
	if cb == 0 {
		return nil, lastError(b, "new_client_builder")
	}
	configure := func(op string, next ffi.Handle) error {
		if next == 0 {
			b.ClientBuilderDestroy(cb)
			return lastError(b, op)
		}
		cb = next
		return nil
	}
	if r.TimeoutMS > 0 {
		ms := r.TimeoutMS
		if err := configure("timeout", b.ClientBuilderTimeout(cb, &ms)); err != nil {
			return nil, err
		}
	}
	if r.Insecure {
		if err := configure("insecure", b.ClientBuilderDangerAcceptInvalidCerts(cb, true)); err != nil {
			return nil, err
		}
	}
	if r.MaxRedirects != nil {
		if err := configure("redirect", b.ClientBuilderRedirect(cb, *r.MaxRedirects)); err != nil {
			return nil, err
		}
	}
	c := b.ClientBuilderBuild(cb)
	if c == 0 {
		b.ClientBuilderDestroy(cb)
		return nil, lastError(b, "build client")
	}
	defer b.ClientDestroy(c)

	method := r.Method
	if method == "" {
		method = "GET"
	}
	rb := b.ClientRequest(c, ffi.Str(method), ffi.Str(r.URL))
	if rb == 0 {
		return nil, lastError(b, "request")
	}
	step := func(op string, next ffi.Handle) error {
		if next == 0 {
			b.RequestBuilderDestroy(rb)
			return lastError(b, op)
		}
		rb = next
		return nil
	}

	names := make([]string, 0, len(r.Headers))
	for name := range r.Headers {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if err := step("header "+name, b.RequestBuilderHeader(rb, ffi.Str(name), ffi.Str(r.Headers[name]))); err != nil {
			return nil, err
		}
	}
	if len(r.Query) > 0 {
		pairs := make([]ffi.Pair, len(r.Query))
		for i, q := range r.Query {
			pairs[i] = ffi.Pair{Key: ffi.Str(q.Key), Value: ffi.Str(q.Value)}
		}
		if err := step("query", b.RequestBuilderQuery(rb, pairs)); err != nil {
			return nil, err
		}
	}
	if r.Body != "" {
		if err := step("body", b.RequestBuilderBodyString(rb, ffi.Str(r.Body))); err != nil {
			return nil, err
		}
	}

	resp := b.RequestBuilderSend(rb)
	if resp == 0 {
		return nil, lastError(b, "send")
	}
	defer b.ResponseDestroy(resp)

	res := &result{
		status:  b.ResponseStatus(resp),
		version: takeText(b, b.ResponseVersion(resp)),
		url:     takeText(b, b.ResponseURL(resp)),
	}
	if hm := b.ResponseHeaders(resp); hm != 0 {
		res.headers = readHeaders(b, hm)
		b.HeaderMapDestroy(hm)
	}

	body := b.ResponseBytes(resp)
	if body == 0 {
		return nil, lastError(b, "read body")
	}
	res.body = []byte(takeText(b, body))
	return res, nil
}

func readHeaders(b *ffi.Boundary, hm ffi.Handle) []header {
	keys := takeText(b, b.HeaderMapKeys(hm))
	if keys == "" {
		return nil
	}
	names := strings.Split(keys, ";")
	sort.Strings(names)

	var out []header
	for _, name := range names {
		n := b.HeaderMapValuesLen(hm, ffi.Str(name))
		for i := int32(0); i < n; i++ {
			out = append(out, header{
				name:  name,
				value: takeText(b, b.HeaderMapGetAt(hm, ffi.Str(name), uint32(i))),
			})
		}
	}
	return out
}
