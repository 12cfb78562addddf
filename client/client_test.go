package client

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/wippyai/crabhttp/errors"
)

func newTestClient(t *testing.T, b *ClientBuilder) *Client {
	t.Helper()
	if b == nil {
		b = NewClientBuilder()
	}
	c, err := b.NoProxy().Build()
	if err != nil {
		t.Fatalf("build client: %v", err)
	}
	return c
}

func send(t *testing.T, c *Client, method, url string) *Response {
	t.Helper()
	rb, err := c.Request(method, url)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	resp, err := rb.Send()
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	return resp
}

func TestClient_GetBytes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Reply", "yes")
		io.WriteString(w, "hello")
	}))
	defer srv.Close()

	c := newTestClient(t, nil)
	resp := send(t, c, http.MethodGet, srv.URL)

	if resp.Status() != http.StatusOK {
		t.Errorf("Status = %d", resp.Status())
	}
	if v, _ := resp.Header().Get("x-reply"); v != "yes" {
		t.Errorf("header x-reply = %q", v)
	}
	if resp.Version() != "HTTP/1.1" {
		t.Errorf("Version = %q", resp.Version())
	}
	if resp.ContentLength() != 5 {
		t.Errorf("ContentLength = %d", resp.ContentLength())
	}
	if resp.RemoteAddr() != srv.Listener.Addr().String() {
		t.Errorf("RemoteAddr = %q, want %q", resp.RemoteAddr(), srv.Listener.Addr())
	}

	body, err := resp.Bytes()
	if err != nil {
		t.Fatalf("Bytes: %v", err)
	}
	if string(body) != "hello" {
		t.Errorf("body = %q", body)
	}

	if _, err := resp.Text(); errors.Classify(err) != errors.KindBodyConsumed {
		t.Errorf("second materialization: %v", err)
	}
	if resp.Status() != http.StatusOK {
		t.Error("metadata not repeatable after body read")
	}
}

func TestClient_ReadThenBytes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, "abcdef")
	}))
	defer srv.Close()

	resp := send(t, newTestClient(t, nil), http.MethodGet, srv.URL)

	var got bytes.Buffer
	buf := make([]byte, 2)
	for {
		n, err := resp.Read(buf)
		got.Write(buf[:n])
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("Read: %v", err)
		}
	}
	if got.String() != "abcdef" {
		t.Errorf("streamed %q", got.String())
	}
	if _, err := resp.Bytes(); errors.Classify(err) != errors.KindBodyConsumed {
		t.Errorf("Bytes after Read: %v", err)
	}
}

func TestClient_InvalidRequest(t *testing.T) {
	c := newTestClient(t, nil)
	tests := []struct {
		name, method, url string
	}{
		{"relative url", http.MethodGet, "/path"},
		{"bad url", http.MethodGet, "http://[::1"},
		{"bad method", "GE T", "http://example.com"},
		{"empty method", "", "http://example.com"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := c.Request(tt.method, tt.url)
			if errors.Classify(err) != errors.KindInvalidInput {
				t.Errorf("Classify = %v, want invalid_input (err %v)", errors.Classify(err), err)
			}
		})
	}
}

func TestClient_DefaultHeaders(t *testing.T) {
	got := make(chan http.Header, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got <- r.Header.Clone()
	}))
	defer srv.Close()

	defaults := NewHeaderMap()
	_ = defaults.Insert("x-default", "d")
	_ = defaults.Insert("x-override", "default")

	b, err := NewClientBuilder().DefaultHeaders(defaults).UserAgent("crabget/1.0")
	if err != nil {
		t.Fatal(err)
	}
	c := newTestClient(t, b)

	rb, _ := c.Get(srv.URL)
	rb, err = rb.Header("X-Override", "request")
	if err != nil {
		t.Fatal(err)
	}
	resp, err := rb.Send()
	if err != nil {
		t.Fatal(err)
	}
	resp.Close()

	h := <-got
	if h.Get("X-Default") != "d" {
		t.Errorf("x-default = %q", h.Get("X-Default"))
	}
	if v := h.Values("X-Override"); len(v) != 1 || v[0] != "request" {
		t.Errorf("x-override = %v", v)
	}
	if h.Get("User-Agent") != "crabget/1.0" {
		t.Errorf("user-agent = %q", h.Get("User-Agent"))
	}
}

func TestClient_Auth(t *testing.T) {
	got := make(chan *http.Request, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got <- r
	}))
	defer srv.Close()
	c := newTestClient(t, nil)

	pass := "secret"
	rb, _ := c.Get(srv.URL)
	rb, _ = rb.BasicAuth("alice", &pass)
	resp, err := rb.Send()
	if err != nil {
		t.Fatal(err)
	}
	resp.Close()
	r := <-got
	if u, p, ok := r.BasicAuth(); !ok || u != "alice" || p != "secret" {
		t.Errorf("basic auth = %q %q %v", u, p, ok)
	}

	rb, _ = c.Get(srv.URL)
	rb, _ = rb.BasicAuth("bob", nil)
	resp, _ = rb.Send()
	resp.Close()
	r = <-got
	if u, p, ok := r.BasicAuth(); !ok || u != "bob" || p != "" {
		t.Errorf("basic auth without password = %q %q %v", u, p, ok)
	}

	rb, _ = c.Get(srv.URL)
	rb, _ = rb.BearerAuth("tok")
	resp, _ = rb.Send()
	resp.Close()
	r = <-got
	if r.Header.Get("Authorization") != "Bearer tok" {
		t.Errorf("bearer = %q", r.Header.Get("Authorization"))
	}
}

func TestClient_QueryFormJSON(t *testing.T) {
	type seen struct {
		query, ctype, body string
	}
	got := make(chan seen, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		got <- seen{r.URL.RawQuery, r.Header.Get("Content-Type"), string(b)}
	}))
	defer srv.Close()
	c := newTestClient(t, nil)

	rb, _ := c.Post(srv.URL + "?a=0")
	rb, _ = rb.Query([]Pair{{"b", "1"}, {"c", "x y"}})
	rb, _ = rb.Form([]Pair{{"z", "2"}, {"a", "&"}})
	resp, err := rb.Send()
	if err != nil {
		t.Fatal(err)
	}
	resp.Close()
	s := <-got
	if s.query != "a=0&b=1&c=x+y" {
		t.Errorf("query = %q", s.query)
	}
	if s.ctype != "application/x-www-form-urlencoded" {
		t.Errorf("form content-type = %q", s.ctype)
	}
	if s.body != "z=2&a=%26" {
		t.Errorf("form body = %q", s.body)
	}

	rb, _ = c.Post(srv.URL)
	rb, _ = rb.JSON([]Pair{{"name", "crab"}, {"quote", `"x"`}})
	resp, err = rb.Send()
	if err != nil {
		t.Fatal(err)
	}
	resp.Close()
	s = <-got
	if s.ctype != "application/json" {
		t.Errorf("json content-type = %q", s.ctype)
	}
	var obj map[string]string
	if err := json.Unmarshal([]byte(s.body), &obj); err != nil {
		t.Fatalf("json body %q: %v", s.body, err)
	}
	if obj["name"] != "crab" || obj["quote"] != `"x"` {
		t.Errorf("json = %v", obj)
	}
	if !strings.HasPrefix(s.body, `{"name"`) {
		t.Errorf("pair order lost: %s", s.body)
	}
}

func TestClient_BodyFileAndMultipart(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "payload.txt")
	if err := os.WriteFile(path, []byte("file contents"), 0o644); err != nil {
		t.Fatal(err)
	}

	type seen struct {
		ctype string
		body  []byte
	}
	got := make(chan seen, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		got <- seen{r.Header.Get("Content-Type"), b}
	}))
	defer srv.Close()
	c := newTestClient(t, nil)

	rb, _ := c.Put(srv.URL)
	rb, err := rb.BodyFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := rb.TryClone(); errors.Classify(err) != errors.KindHTTPBuilder {
		t.Errorf("TryClone with file body: %v", err)
	}
	resp, err := rb.Send()
	if err != nil {
		t.Fatal(err)
	}
	resp.Close()
	if s := <-got; string(s.body) != "file contents" {
		t.Errorf("file body = %q", s.body)
	}

	rb, _ = c.Post(srv.URL)
	rb, err = rb.BodyFileWithName("upload", path)
	if err != nil {
		t.Fatal(err)
	}
	resp, err = rb.Send()
	if err != nil {
		t.Fatal(err)
	}
	resp.Close()

	s := <-got
	mt, params, err := mime.ParseMediaType(s.ctype)
	if err != nil || mt != "multipart/form-data" {
		t.Fatalf("content-type = %q", s.ctype)
	}
	mr := multipart.NewReader(bytes.NewReader(s.body), params["boundary"])
	part, err := mr.NextPart()
	if err != nil {
		t.Fatalf("next part: %v", err)
	}
	if part.FormName() != "upload" || part.FileName() != "payload.txt" {
		t.Errorf("part = %q %q", part.FormName(), part.FileName())
	}
	data, _ := io.ReadAll(part)
	if string(data) != "file contents" {
		t.Errorf("part body = %q", data)
	}

	rb, _ = c.Post(srv.URL)
	if _, err := rb.BodyFile(filepath.Join(dir, "missing")); errors.Classify(err) != errors.KindNotFound {
		t.Errorf("missing file: %v", errors.Classify(err))
	}
}

func TestClient_TryClone(t *testing.T) {
	c := newTestClient(t, nil)
	rb, _ := c.Post("http://example.com/a")
	rb, _ = rb.BodyString("x")
	cl, err := rb.TryClone()
	if err != nil {
		t.Fatalf("TryClone: %v", err)
	}
	cl, _ = cl.Header("x-only-clone", "1")

	r1, _ := rb.Build()
	r2, _ := cl.Build()
	if r1.Header().ContainsKey("x-only-clone") {
		t.Error("clone shares headers with original")
	}
	if !r2.Header().ContainsKey("x-only-clone") {
		t.Error("clone lost its header")
	}
	if r2.Method() != http.MethodPost || r2.URL().String() != "http://example.com/a" {
		t.Errorf("clone = %s %s", r2.Method(), r2.URL())
	}
	if _, err := r1.TryClone(); err != nil {
		t.Errorf("Request.TryClone: %v", err)
	}
}

func TestClient_Version(t *testing.T) {
	c := newTestClient(t, nil)
	rb, _ := c.Get("http://example.com")

	for _, v := range []string{"1.0", "1.1", "2"} {
		if _, err := rb.Version(v); err != nil {
			t.Errorf("Version(%q): %v", v, err)
		}
	}
	for _, v := range []string{"0.9", "3"} {
		if _, err := rb.Version(v); errors.Classify(err) != errors.KindUnsupported {
			t.Errorf("Version(%q) = %v, want unsupported", v, err)
		}
	}
	if _, err := rb.Version("1.2"); errors.Classify(err) != errors.KindInvalidInput {
		t.Errorf("Version(1.2) = %v, want invalid_input", err)
	}
}

func TestClient_ErrorForStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		io.WriteString(w, `{"error":"nf"}`)
	}))
	defer srv.Close()

	resp := send(t, newTestClient(t, nil), http.MethodGet, srv.URL)
	if resp.Status() != http.StatusNotFound {
		t.Fatalf("Status = %d", resp.Status())
	}
	err := resp.ErrorForStatus()
	if errors.Classify(err) != errors.KindHTTPStatus {
		t.Errorf("Classify = %v", errors.Classify(err))
	}
	if errors.CodeOf(err) != http.StatusNotFound {
		t.Errorf("CodeOf = %d", errors.CodeOf(err))
	}
	body, err := resp.Bytes()
	if err != nil || string(body) != `{"error":"nf"}` {
		t.Errorf("body = %q, %v", body, err)
	}
}

func TestClient_Redirects(t *testing.T) {
	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var n int
		fmt.Sscanf(r.URL.Path, "/hop/%d", &n)
		if n < 5 {
			w.Header().Set("X-Referer", r.Header.Get("Referer"))
			http.Redirect(w, r, fmt.Sprintf("%s/hop/%d", srv.URL, n+1), http.StatusFound)
			return
		}
		w.Header().Set("X-Referer", r.Header.Get("Referer"))
		io.WriteString(w, "done")
	}))
	defer srv.Close()

	t.Run("follows", func(t *testing.T) {
		resp := send(t, newTestClient(t, nil), http.MethodGet, srv.URL+"/hop/0")
		defer resp.Close()
		if resp.Status() != http.StatusOK {
			t.Errorf("Status = %d", resp.Status())
		}
		if resp.URL().Path != "/hop/5" {
			t.Errorf("final url = %s", resp.URL())
		}
		if ref, _ := resp.Header().Get("x-referer"); !strings.HasSuffix(ref, "/hop/4") {
			t.Errorf("referer = %q", ref)
		}
	})

	t.Run("disabled", func(t *testing.T) {
		c := newTestClient(t, NewClientBuilder().Redirect(0))
		resp := send(t, c, http.MethodGet, srv.URL+"/hop/0")
		defer resp.Close()
		if resp.Status() != http.StatusFound {
			t.Errorf("Status = %d, want 302", resp.Status())
		}
	})

	t.Run("limit", func(t *testing.T) {
		c := newTestClient(t, NewClientBuilder().Redirect(2))
		rb, _ := c.Get(srv.URL + "/hop/0")
		_, err := rb.Send()
		if errors.Classify(err) != errors.KindHTTPRedirect {
			t.Errorf("Classify = %v (err %v)", errors.Classify(err), err)
		}
	})

	t.Run("no referer", func(t *testing.T) {
		c := newTestClient(t, NewClientBuilder().Referer(false))
		resp := send(t, c, http.MethodGet, srv.URL+"/hop/4")
		defer resp.Close()
		if ref, _ := resp.Header().Get("x-referer"); ref != "" {
			t.Errorf("referer = %q, want empty", ref)
		}
	})
}

func TestClient_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	t.Run("client", func(t *testing.T) {
		c := newTestClient(t, NewClientBuilder().Timeout(50*time.Millisecond))
		rb, _ := c.Get(srv.URL)
		_, err := rb.Send()
		if errors.Classify(err) != errors.KindHTTPTimeout {
			t.Errorf("Classify = %v (err %v)", errors.Classify(err), err)
		}
	})

	t.Run("request", func(t *testing.T) {
		c := newTestClient(t, nil)
		rb, _ := c.Get(srv.URL)
		rb, _ = rb.Timeout(50 * time.Millisecond)
		_, err := rb.Send()
		if errors.Classify(err) != errors.KindHTTPTimeout {
			t.Errorf("Classify = %v (err %v)", errors.Classify(err), err)
		}
	})
}

func closedAddr(t *testing.T) string {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	addr := l.Addr().String()
	l.Close()
	return addr
}

func TestClient_ConnectionRefused(t *testing.T) {
	c := newTestClient(t, nil)
	rb, _ := c.Get("http://" + closedAddr(t) + "/")
	_, err := rb.Send()
	if errors.Classify(err) != errors.KindConnectionRefused {
		t.Errorf("Classify = %v (err %v)", errors.Classify(err), err)
	}
}

func TestClient_HTTPSOnly(t *testing.T) {
	c := newTestClient(t, NewClientBuilder().HTTPSOnly(true))
	rb, _ := c.Get("http://example.com")
	_, err := rb.Send()
	if errors.Classify(err) != errors.KindHTTPBuilder {
		t.Errorf("Classify = %v (err %v)", errors.Classify(err), err)
	}
}

func TestClient_Resolve(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, r.Host)
	}))
	defer srv.Close()
	_, port, _ := net.SplitHostPort(srv.Listener.Addr().String())

	b, err := NewClientBuilder().Resolve("crab.test", "127.0.0.1:1")
	if err != nil {
		t.Fatal(err)
	}
	c := newTestClient(t, b)
	resp := send(t, c, http.MethodGet, "http://crab.test:"+port+"/")
	body, err := resp.Text()
	if err != nil {
		t.Fatal(err)
	}
	if body != "crab.test:"+port {
		t.Errorf("host = %q", body)
	}

	if _, err := NewClientBuilder().Resolve("crab.test", "not-an-addr"); errors.Classify(err) != errors.KindInvalidInput {
		t.Errorf("bad addr: %v", err)
	}
}

func TestClient_HTTP2PriorKnowledge(t *testing.T) {
	srv := httptest.NewUnstartedServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, r.Proto)
	}))
	srv.Config.Protocols = new(http.Protocols)
	srv.Config.Protocols.SetHTTP1(true)
	srv.Config.Protocols.SetUnencryptedHTTP2(true)
	srv.Start()
	defer srv.Close()

	c := newTestClient(t, NewClientBuilder().HTTP2PriorKnowledge())
	resp := send(t, c, http.MethodGet, srv.URL)
	if resp.Version() != "HTTP/2.0" {
		t.Errorf("Version = %q", resp.Version())
	}
	body, _ := resp.Text()
	if body != "HTTP/2.0" {
		t.Errorf("server saw %q", body)
	}
}

func TestClientBuilder_Validation(t *testing.T) {
	b := NewClientBuilder()

	if _, err := b.HTTP09Responses(); errors.Classify(err) != errors.KindUnsupported {
		t.Errorf("HTTP09Responses: %v", err)
	}
	if _, err := b.HTTP2MaxFrameSize(100); errors.Classify(err) != errors.KindInvalidInput {
		t.Errorf("frame size 100: %v", err)
	}
	if _, err := b.HTTP2MaxFrameSize(1 << 20); err != nil {
		t.Errorf("frame size 1MiB: %v", err)
	}
	if _, err := b.HTTP2InitialStreamWindowSize(1 << 31); errors.Classify(err) != errors.KindInvalidInput {
		t.Errorf("window 2^31: %v", err)
	}
	if _, err := b.LocalAddress("nope"); errors.Classify(err) != errors.KindInvalidInput {
		t.Errorf("local address: %v", err)
	}
	if _, err := b.MinTLSVersion("1.4"); errors.Classify(err) != errors.KindInvalidInput {
		t.Errorf("tls 1.4: %v", err)
	}
	if _, err := b.AddRootCertificate([]byte("garbage")); errors.Classify(err) != errors.KindHTTPBuilder {
		t.Errorf("root cert: %v", err)
	}
	if _, err := b.UserAgent("bad\nagent"); errors.Classify(err) != errors.KindInvalidInput {
		t.Errorf("user agent: %v", err)
	}

	lo, _ := b.MinTLSVersion("1.3")
	lo, _ = lo.MaxTLSVersion("1.2")
	if _, err := lo.Build(); errors.Classify(err) != errors.KindHTTPBuilder {
		t.Errorf("min above max: %v", err)
	}
}

func TestClientBuilder_Immutable(t *testing.T) {
	base := NewClientBuilder()
	derived := base.Timeout(time.Second).Redirect(1)
	if base.timeout != defaultTimeout || base.maxRedirects != defaultMaxRedirect {
		t.Error("configuration changed the receiver")
	}
	if derived.timeout != time.Second || derived.maxRedirects != 1 {
		t.Error("configuration not applied")
	}

	withUA, _ := base.UserAgent("x")
	if base.headers.ContainsKey("user-agent") {
		t.Error("UserAgent changed the receiver")
	}
	if !withUA.headers.ContainsKey("user-agent") {
		t.Error("UserAgent not applied")
	}
}

func TestClient_Tracing(t *testing.T) {
	got := make(chan string, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got <- r.Header.Get("Traceparent")
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	defer tp.Shutdown(t.Context())

	c := newTestClient(t, NewClientBuilder().Tracing(tp))
	resp := send(t, c, http.MethodGet, srv.URL+"/?token=abc")
	resp.Close()

	if tp := <-got; tp == "" {
		t.Error("traceparent not propagated")
	}
	spans := sr.Ended()
	if len(spans) != 1 {
		t.Fatalf("spans = %d, want 1", len(spans))
	}
	if spans[0].Name() != "HTTP GET" {
		t.Errorf("span name = %q", spans[0].Name())
	}
	for _, kv := range spans[0].Attributes() {
		if kv.Key == "url.full" && strings.Contains(kv.Value.AsString(), "abc") {
			t.Errorf("token leaked into span: %s", kv.Value.AsString())
		}
	}
}

func TestClient_RateLimit(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer srv.Close()

	if _, err := NewClientBuilder().RateLimit(1, 0); errors.Classify(err) != errors.KindInvalidInput {
		t.Errorf("zero burst: %v", err)
	}

	b, err := NewClientBuilder().RateLimit(20, 1)
	if err != nil {
		t.Fatal(err)
	}
	c := newTestClient(t, b)
	start := time.Now()
	for range 3 {
		send(t, c, http.MethodGet, srv.URL).Close()
	}
	if elapsed := time.Since(start); elapsed < 80*time.Millisecond {
		t.Errorf("3 requests at 20/s took %v", elapsed)
	}
}

func TestClient_VersionEnforced(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
	}))
	defer srv.Close()

	sendVersion := func(c *Client, v string) (*Response, error) {
		rb, err := c.Request(http.MethodGet, srv.URL)
		if err != nil {
			t.Fatal(err)
		}
		if rb, err = rb.Version(v); err != nil {
			t.Fatal(err)
		}
		return rb.Send()
	}

	// The server only speaks HTTP/1.1.
	if _, err := sendVersion(newTestClient(t, nil), "2"); errors.Classify(err) != errors.KindUnsupported {
		t.Errorf("HTTP/2 against HTTP/1 server: %v", err)
	}

	before := hits.Load()
	if _, err := sendVersion(newTestClient(t, NewClientBuilder().HTTP1Only()), "2"); errors.Classify(err) != errors.KindUnsupported {
		t.Errorf("HTTP/2 on HTTP/1 only client: %v", err)
	}
	if hits.Load() != before {
		t.Error("request reached the server")
	}

	if _, err := sendVersion(newTestClient(t, NewClientBuilder().HTTP2PriorKnowledge()), "1.1"); errors.Classify(err) != errors.KindUnsupported {
		t.Errorf("HTTP/1.1 on prior knowledge client: %v", err)
	}

	resp, err := sendVersion(newTestClient(t, nil), "1.1")
	if err != nil {
		t.Fatalf("HTTP/1.1: %v", err)
	}
	resp.Close()
}

func TestClient_VersionHTTP2(t *testing.T) {
	srv := httptest.NewUnstartedServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, r.Proto)
	}))
	srv.Config.Protocols = new(http.Protocols)
	srv.Config.Protocols.SetHTTP1(true)
	srv.Config.Protocols.SetUnencryptedHTTP2(true)
	srv.Start()
	defer srv.Close()

	c := newTestClient(t, NewClientBuilder().HTTP2PriorKnowledge())
	rb, err := c.Request(http.MethodGet, srv.URL)
	if err != nil {
		t.Fatal(err)
	}
	if rb, err = rb.Version("2"); err != nil {
		t.Fatal(err)
	}
	resp, err := rb.Send()
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if resp.Version() != "HTTP/2.0" {
		t.Errorf("Version = %q", resp.Version())
	}
}
