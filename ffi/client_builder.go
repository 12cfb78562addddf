package ffi

import (
	"github.com/wippyai/crabhttp/client"
	"github.com/wippyai/crabhttp/resource"
)

const tClientBuilder = resource.TypeClientBuilder

type builderFn = func(*client.ClientBuilder) (*client.ClientBuilder, error)

func (b *Boundary) configure(op string, h Handle, fn builderFn) (ret Handle) {
	defer b.guard(op, func() { ret = 0 })
	return mutate(b, op, tClientBuilder, h, fn)
}

// set wraps an option that cannot fail.
func set(fn func(*client.ClientBuilder) *client.ClientBuilder) builderFn {
	return func(cb *client.ClientBuilder) (*client.ClientBuilder, error) {
		return fn(cb), nil
	}
}

// NewClientBuilder creates a client builder with the default configuration.
func (b *Boundary) NewClientBuilder() (ret Handle) {
	defer b.guard("new_client_builder", func() { ret = 0 })
	cb := client.NewClientBuilder()
	if b.tracer != nil {
		cb = cb.Tracing(b.tracer)
	}
	return b.table.Insert(tClientBuilder, cb)
}

// ClientBuilderDestroy releases a builder that will not be built.
func (b *Boundary) ClientBuilderDestroy(h Handle) {
	b.destroy("client_builder_destroy", tClientBuilder, h)
}

// ClientBuilderDefaultHeaders sets default headers. The header map handle is
// consumed on success.
func (b *Boundary) ClientBuilderDefaultHeaders(h, headers Handle) Handle {
	const op = "client_builder_default_headers"
	nh := b.configure(op, h, func(cb *client.ClientBuilder) (*client.ClientBuilder, error) {
		m, err := handleArg[*client.HeaderMap](b, op, resource.TypeHeaderMap, headers)
		if err != nil {
			return nil, err
		}
		return cb.DefaultHeaders(m), nil
	})
	if nh != 0 {
		b.consume(resource.TypeHeaderMap, headers)
	}
	return nh
}

// ClientBuilderUserAgent sets the User-Agent header.
func (b *Boundary) ClientBuilderUserAgent(h Handle, value *string) Handle {
	const op = "client_builder_user_agent"
	return b.configure(op, h, func(cb *client.ClientBuilder) (*client.ClientBuilder, error) {
		ua, err := text(op, "value", value)
		if err != nil {
			return nil, err
		}
		return cb.UserAgent(ua)
	})
}

// ClientBuilderRedirect sets the maximum number of redirects; 0 disables
// following.
func (b *Boundary) ClientBuilderRedirect(h Handle, maxHops uint64) Handle {
	return b.configure("client_builder_redirect", h, set(func(cb *client.ClientBuilder) *client.ClientBuilder {
		return cb.Redirect(clampInt(maxHops))
	}))
}

// ClientBuilderReferer enables or disables the Referer header on redirects.
func (b *Boundary) ClientBuilderReferer(h Handle, enable bool) Handle {
	return b.configure("client_builder_referer", h, set(func(cb *client.ClientBuilder) *client.ClientBuilder {
		return cb.Referer(enable)
	}))
}

// ClientBuilderProxy adds a proxy. The proxy handle is consumed on success.
func (b *Boundary) ClientBuilderProxy(h, proxy Handle) Handle {
	const op = "client_builder_proxy"
	nh := b.configure(op, h, func(cb *client.ClientBuilder) (*client.ClientBuilder, error) {
		p, err := handleArg[*client.Proxy](b, op, resource.TypeProxy, proxy)
		if err != nil {
			return nil, err
		}
		return cb.Proxy(p), nil
	})
	if nh != 0 {
		b.consume(resource.TypeProxy, proxy)
	}
	return nh
}

// ClientBuilderNoProxy disables all proxies.
func (b *Boundary) ClientBuilderNoProxy(h Handle) Handle {
	return b.configure("client_builder_no_proxy", h, set((*client.ClientBuilder).NoProxy))
}

// ClientBuilderTimeout sets the total request timeout. Null disables it.
func (b *Boundary) ClientBuilderTimeout(h Handle, ms *uint64) Handle {
	return b.configure("client_builder_timeout", h, set(func(cb *client.ClientBuilder) *client.ClientBuilder {
		return cb.Timeout(millis(ms))
	}))
}

// ClientBuilderConnectTimeout sets the connect timeout. Null disables it.
func (b *Boundary) ClientBuilderConnectTimeout(h Handle, ms *uint64) Handle {
	return b.configure("client_builder_connect_timeout", h, set(func(cb *client.ClientBuilder) *client.ClientBuilder {
		return cb.ConnectTimeout(millis(ms))
	}))
}

// ClientBuilderPoolIdleTimeout sets the idle connection timeout. Null keeps
// idle connections until the peer closes them.
func (b *Boundary) ClientBuilderPoolIdleTimeout(h Handle, ms *uint64) Handle {
	return b.configure("client_builder_pool_idle_timeout", h, set(func(cb *client.ClientBuilder) *client.ClientBuilder {
		return cb.PoolIdleTimeout(millis(ms))
	}))
}

// ClientBuilderPoolMaxIdlePerHost bounds idle connections per host.
func (b *Boundary) ClientBuilderPoolMaxIdlePerHost(h Handle, n uint64) Handle {
	return b.configure("client_builder_pool_max_idle_per_host", h, set(func(cb *client.ClientBuilder) *client.ClientBuilder {
		return cb.PoolMaxIdlePerHost(clampInt(n))
	}))
}

// ClientBuilderHTTP1TitleCaseHeaders sends title case header names.
func (b *Boundary) ClientBuilderHTTP1TitleCaseHeaders(h Handle) Handle {
	return b.configure("client_builder_http1_title_case_headers", h,
		set((*client.ClientBuilder).HTTP1TitleCaseHeaders))
}

// ClientBuilderHTTP1Only restricts the client to HTTP/1.
func (b *Boundary) ClientBuilderHTTP1Only(h Handle) Handle {
	return b.configure("client_builder_http1_only", h, set((*client.ClientBuilder).HTTP1Only))
}

// ClientBuilderHTTP09Responses always fails with Unsupported.
func (b *Boundary) ClientBuilderHTTP09Responses(h Handle) Handle {
	return b.configure("client_builder_http09_responses", h, (*client.ClientBuilder).HTTP09Responses)
}

// ClientBuilderHTTP2PriorKnowledge speaks HTTP/2 without negotiation.
func (b *Boundary) ClientBuilderHTTP2PriorKnowledge(h Handle) Handle {
	return b.configure("client_builder_http2_prior_knowledge", h,
		set((*client.ClientBuilder).HTTP2PriorKnowledge))
}

// ClientBuilderHTTP2InitialStreamWindowSize sets the stream receive window.
// Null keeps the default.
func (b *Boundary) ClientBuilderHTTP2InitialStreamWindowSize(h Handle, size *uint32) Handle {
	return b.configure("client_builder_http2_initial_stream_window_size", h,
		func(cb *client.ClientBuilder) (*client.ClientBuilder, error) {
			return cb.HTTP2InitialStreamWindowSize(optU32(size))
		})
}

// ClientBuilderHTTP2InitialConnectionWindowSize sets the connection receive
// window. Null keeps the default.
func (b *Boundary) ClientBuilderHTTP2InitialConnectionWindowSize(h Handle, size *uint32) Handle {
	return b.configure("client_builder_http2_initial_connection_window_size", h,
		func(cb *client.ClientBuilder) (*client.ClientBuilder, error) {
			return cb.HTTP2InitialConnectionWindowSize(optU32(size))
		})
}

// ClientBuilderHTTP2MaxFrameSize sets the largest accepted frame. Null keeps
// the default.
func (b *Boundary) ClientBuilderHTTP2MaxFrameSize(h Handle, size *uint32) Handle {
	return b.configure("client_builder_http2_max_frame_size", h,
		func(cb *client.ClientBuilder) (*client.ClientBuilder, error) {
			return cb.HTTP2MaxFrameSize(optU32(size))
		})
}

// ClientBuilderTCPNodelay sets TCP_NODELAY.
func (b *Boundary) ClientBuilderTCPNodelay(h Handle, enable bool) Handle {
	return b.configure("client_builder_tcp_nodelay", h, set(func(cb *client.ClientBuilder) *client.ClientBuilder {
		return cb.TCPNodelay(enable)
	}))
}

// ClientBuilderLocalAddress binds outgoing connections to an IP address.
func (b *Boundary) ClientBuilderLocalAddress(h Handle, addr *string) Handle {
	const op = "client_builder_local_address"
	return b.configure(op, h, func(cb *client.ClientBuilder) (*client.ClientBuilder, error) {
		ip, err := text(op, "local_address", addr)
		if err != nil {
			return nil, err
		}
		return cb.LocalAddress(ip)
	})
}

// ClientBuilderTCPKeepalive sets the keepalive interval. Null disables it.
func (b *Boundary) ClientBuilderTCPKeepalive(h Handle, ms *uint64) Handle {
	return b.configure("client_builder_tcp_keepalive", h, set(func(cb *client.ClientBuilder) *client.ClientBuilder {
		return cb.TCPKeepalive(millis(ms))
	}))
}

// ClientBuilderAddRootCertificate trusts the PEM or DER certificate at path.
func (b *Boundary) ClientBuilderAddRootCertificate(h Handle, path *string) Handle {
	const op = "client_builder_add_root_certificate"
	return b.configure(op, h, func(cb *client.ClientBuilder) (*client.ClientBuilder, error) {
		p, err := text(op, "cert_path", path)
		if err != nil {
			return nil, err
		}
		return cb.AddRootCertificateFile(p)
	})
}

// ClientBuilderTLSBuiltInRootCerts controls trust in the system roots.
func (b *Boundary) ClientBuilderTLSBuiltInRootCerts(h Handle, enable bool) Handle {
	return b.configure("client_builder_tls_built_in_root_certs", h, set(func(cb *client.ClientBuilder) *client.ClientBuilder {
		return cb.TLSBuiltInRootCerts(enable)
	}))
}

// ClientBuilderDangerAcceptInvalidCerts disables certificate verification.
func (b *Boundary) ClientBuilderDangerAcceptInvalidCerts(h Handle, enable bool) Handle {
	return b.configure("client_builder_danger_accept_invalid_certs", h, set(func(cb *client.ClientBuilder) *client.ClientBuilder {
		return cb.DangerAcceptInvalidCerts(enable)
	}))
}

// ClientBuilderMinTLSVersion sets the lowest TLS version, "1.0" to "1.3".
func (b *Boundary) ClientBuilderMinTLSVersion(h Handle, version *string) Handle {
	const op = "client_builder_min_tls_version"
	return b.configure(op, h, func(cb *client.ClientBuilder) (*client.ClientBuilder, error) {
		v, err := text(op, "version", version)
		if err != nil {
			return nil, err
		}
		return cb.MinTLSVersion(v)
	})
}

// ClientBuilderMaxTLSVersion sets the highest TLS version, "1.0" to "1.3".
func (b *Boundary) ClientBuilderMaxTLSVersion(h Handle, version *string) Handle {
	const op = "client_builder_max_tls_version"
	return b.configure(op, h, func(cb *client.ClientBuilder) (*client.ClientBuilder, error) {
		v, err := text(op, "version", version)
		if err != nil {
			return nil, err
		}
		return cb.MaxTLSVersion(v)
	})
}

// ClientBuilderHTTPSOnly rejects non-https URLs.
func (b *Boundary) ClientBuilderHTTPSOnly(h Handle, enable bool) Handle {
	return b.configure("client_builder_https_only", h, set(func(cb *client.ClientBuilder) *client.ClientBuilder {
		return cb.HTTPSOnly(enable)
	}))
}

// ClientBuilderResolve pins domain to the socket address addr.
func (b *Boundary) ClientBuilderResolve(h Handle, domain, addr *string) Handle {
	const op = "client_builder_resolve"
	return b.configure(op, h, func(cb *client.ClientBuilder) (*client.ClientBuilder, error) {
		d, err := text(op, "domain", domain)
		if err != nil {
			return nil, err
		}
		a, err := text(op, "addr", addr)
		if err != nil {
			return nil, err
		}
		return cb.Resolve(d, a)
	})
}

// ClientBuilderResolveToAddrs pins domain to several socket addresses.
func (b *Boundary) ClientBuilderResolveToAddrs(h Handle, domain *string, addrs []*string) Handle {
	const op = "client_builder_resolve_to_addrs"
	return b.configure(op, h, func(cb *client.ClientBuilder) (*client.ClientBuilder, error) {
		d, err := text(op, "domain", domain)
		if err != nil {
			return nil, err
		}
		list, err := textList(op, "addrs", addrs)
		if err != nil {
			return nil, err
		}
		return cb.ResolveToAddrs(d, list)
	})
}

// ClientBuilderRateLimit limits the client to perSecond requests with the
// given burst. A non-positive rate removes the limit.
func (b *Boundary) ClientBuilderRateLimit(h Handle, perSecond float64, burst uint32) Handle {
	return b.configure("client_builder_rate_limit", h, func(cb *client.ClientBuilder) (*client.ClientBuilder, error) {
		return cb.RateLimit(perSecond, int(burst))
	})
}

// ClientBuilderBuild consumes the builder and returns a client. When the
// configuration is rejected the builder stays valid.
func (b *Boundary) ClientBuilderBuild(h Handle) (ret Handle) {
	const op = "client_builder_build"
	defer b.guard(op, func() { ret = 0 })

	cb, ok := lookup[*client.ClientBuilder](b, op, tClientBuilder, h)
	if !ok {
		return 0
	}
	c, err := cb.Build()
	if err != nil {
		b.fail(op, err)
		return 0
	}
	if _, err := b.table.Take(h, tClientBuilder); err != nil {
		c.Drop()
		b.fail(op, handleError(op, tClientBuilder, h, err))
		return 0
	}
	return b.table.Insert(resource.TypeClient, c)
}

func optU32(p *uint32) uint32 {
	if p == nil {
		return 0
	}
	return *p
}

func clampInt(n uint64) int {
	const maxInt = int(^uint(0) >> 1)
	if n > uint64(maxInt) {
		return maxInt
	}
	return int(n)
}
