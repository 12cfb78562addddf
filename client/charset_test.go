package client

import (
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
)

func TestDecodeText(t *testing.T) {
	tests := []struct {
		name        string
		data        []byte
		contentType string
		def         string
		want        string
	}{
		{"plain utf-8", []byte("héllo"), "text/plain", "utf-8", "héllo"},
		{"latin1 from header", []byte{'c', 'a', 'f', 0xE9}, "text/plain; charset=ISO-8859-1", "utf-8", "café"},
		{"latin1 from default", []byte{'c', 'a', 'f', 0xE9}, "text/plain", "windows-1252", "café"},
		{"header beats default", []byte("ok"), "text/plain; charset=utf-8", "windows-1252", "ok"},
		{"utf-8 bom", []byte{0xEF, 0xBB, 0xBF, 'h', 'i'}, "text/plain; charset=ISO-8859-1", "utf-8", "hi"},
		{"utf-16le bom", []byte{0xFF, 0xFE, 'h', 0, 'i', 0}, "", "utf-8", "hi"},
		{"utf-16be bom", []byte{0xFE, 0xFF, 0, 'h', 0, 'i'}, "", "utf-8", "hi"},
		{"invalid utf-8 replaced", []byte{'a', 0xFF, 'b'}, "", "utf-8", "a�b"},
		{"unknown label", []byte("x"), "text/plain; charset=klingon", "utf-8", "x"},
		{"malformed content type", []byte("x"), "text/plain; charset", "utf-8", "x"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := decodeText(tt.data, tt.contentType, tt.def)
			if err != nil {
				t.Fatalf("decodeText: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestResponse_TextWithCharset(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		w.Write([]byte{'n', 'a', 0xEF, 'v', 'e'})
	}))
	defer srv.Close()

	resp := send(t, newTestClient(t, nil), http.MethodGet, srv.URL)
	got, err := resp.TextWithCharset("iso-8859-1")
	if err != nil {
		t.Fatal(err)
	}
	if got != "naïve" {
		t.Errorf("got %q", got)
	}
}

func TestResponse_CopyTo(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, strings.Repeat("x", 10000))
	}))
	defer srv.Close()

	resp := send(t, newTestClient(t, nil), http.MethodGet, srv.URL)
	var sb strings.Builder
	n, err := resp.CopyTo(&sb)
	if err != nil {
		t.Fatal(err)
	}
	if n != 10000 || sb.Len() != 10000 {
		t.Errorf("copied %d, builder %d", n, sb.Len())
	}
}

func TestSanitizeURL(t *testing.T) {
	u, _ := url.Parse("https://user:pw@example.com/p?api_key=1&page=2")
	got := sanitizeURL(u)
	if strings.Contains(got, "pw") || strings.Contains(got, "api_key=1") {
		t.Errorf("sanitizeURL leaked secrets: %s", got)
	}
	if !strings.Contains(got, "page=2") {
		t.Errorf("sanitizeURL dropped plain params: %s", got)
	}
	if sanitizeURL(nil) != "" {
		t.Error("nil url should sanitize to empty")
	}
}
