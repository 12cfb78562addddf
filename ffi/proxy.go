package ffi

import (
	"github.com/wippyai/crabhttp/client"
	"github.com/wippyai/crabhttp/resource"
)

func (b *Boundary) newProxy(op string, scope client.ProxyScope, url *string) (ret Handle) {
	defer b.guard(op, func() { ret = 0 })

	u, err := text(op, "proxy_url", url)
	if err != nil {
		b.fail(op, err)
		return 0
	}
	p, err := client.NewProxy(scope, u)
	if err != nil {
		b.fail(op, err)
		return 0
	}
	return b.table.Insert(resource.TypeProxy, p)
}

// ProxyHTTP creates a proxy for http requests.
func (b *Boundary) ProxyHTTP(url *string) Handle {
	return b.newProxy("proxy_http", client.ProxyHTTP, url)
}

// ProxyHTTPS creates a proxy for https requests.
func (b *Boundary) ProxyHTTPS(url *string) Handle {
	return b.newProxy("proxy_https", client.ProxyHTTPS, url)
}

// ProxyAll creates a proxy for every request.
func (b *Boundary) ProxyAll(url *string) Handle {
	return b.newProxy("proxy_all", client.ProxyAll, url)
}

// ProxyDestroy releases a proxy that was not handed to a builder.
func (b *Boundary) ProxyDestroy(h Handle) {
	b.destroy("proxy_destroy", resource.TypeProxy, h)
}
