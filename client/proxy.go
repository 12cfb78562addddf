package client

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/wippyai/crabhttp/errors"
)

// ProxyScope selects which requests a Proxy intercepts.
type ProxyScope uint8

const (
	ProxyHTTP ProxyScope = iota
	ProxyHTTPS
	ProxyAll
)

// Proxy routes matching requests through an upstream proxy.
type Proxy struct {
	url   *url.URL
	scope ProxyScope
}

// NewProxy parses the proxy URL. A URL without a scheme is taken as http.
func NewProxy(scope ProxyScope, raw string) (*Proxy, error) {
	if !strings.Contains(raw, "://") {
		raw = "http://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return nil, errors.New(errors.PhaseBuilder, errors.KindHTTPBuilder).
			Detail("invalid proxy url %q", raw).
			Cause(err).
			Build()
	}
	switch u.Scheme {
	case "http", "https", "socks5":
	default:
		return nil, errors.New(errors.PhaseBuilder, errors.KindHTTPBuilder).
			Detail("unsupported proxy scheme %q", u.Scheme).
			Build()
	}
	return &Proxy{url: u, scope: scope}, nil
}

// URL returns the proxy address.
func (p *Proxy) URL() *url.URL {
	return p.url
}

// Scope returns the request schemes the proxy intercepts.
func (p *Proxy) Scope() ProxyScope {
	return p.scope
}

func (p *Proxy) intercepts(u *url.URL) bool {
	switch p.scope {
	case ProxyHTTP:
		return u.Scheme == "http"
	case ProxyHTTPS:
		return u.Scheme == "https"
	default:
		return true
	}
}

// proxyFunc returns the first proxy intercepting each request.
func proxyFunc(proxies []*Proxy) func(*http.Request) (*url.URL, error) {
	return func(req *http.Request) (*url.URL, error) {
		for _, p := range proxies {
			if p.intercepts(req.URL) {
				return p.url, nil
			}
		}
		return nil, nil
	}
}
