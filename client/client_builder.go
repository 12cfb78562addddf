package client

import (
	"crypto/tls"
	"crypto/x509"
	"encoding/pem"
	"fmt"
	"math"
	"net"
	"net/http"
	"net/url"
	"os"
	"slices"
	"strings"
	"time"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/wippyai/crabhttp/errors"
)

const (
	defaultTimeout     = 30 * time.Second
	defaultPoolIdle    = 90 * time.Second
	defaultMaxRedirect = 10

	minFrameSize = 1 << 14
	maxFrameSize = 1<<24 - 1
)

// ClientBuilder configures a Client. It is immutable: every method returns
// a modified copy.
type ClientBuilder struct {
	headers        *HeaderMap
	proxies        []*Proxy
	rootCerts      []*x509.Certificate
	overrides      map[string][]net.IP
	localAddr      net.IP
	tracer         trace.TracerProvider
	rateLimit      rate.Limit
	rateBurst      int
	timeout        time.Duration
	connectTimeout time.Duration
	poolIdle       time.Duration
	keepalive      time.Duration
	maxIdlePerHost int
	maxRedirects   int
	h2StreamWindow uint32
	h2ConnWindow   uint32
	h2MaxFrame     uint32
	minTLS         uint16
	maxTLS         uint16
	referer        bool
	noProxy        bool
	http1Only      bool
	h2Prior        bool
	titleCase      bool
	noDelay        bool
	builtinRoots   bool
	insecure       bool
	httpsOnly      bool
}

// NewClientBuilder returns a builder with the default configuration: a 30s
// total timeout, up to 10 redirects, Referer on redirects, system proxies,
// system roots and TCP_NODELAY.
func NewClientBuilder() *ClientBuilder {
	return &ClientBuilder{
		headers:        NewHeaderMap(),
		timeout:        defaultTimeout,
		poolIdle:       defaultPoolIdle,
		maxIdlePerHost: -1,
		maxRedirects:   defaultMaxRedirect,
		referer:        true,
		noDelay:        true,
		builtinRoots:   true,
	}
}

func (b *ClientBuilder) clone() *ClientBuilder {
	c := *b
	c.headers = b.headers.Clone()
	c.proxies = slices.Clone(b.proxies)
	c.rootCerts = slices.Clone(b.rootCerts)
	if b.overrides != nil {
		c.overrides = make(map[string][]net.IP, len(b.overrides))
		for k, v := range b.overrides {
			c.overrides[k] = v
		}
	}
	return &c
}

func (b *ClientBuilder) with(fn func(*ClientBuilder)) *ClientBuilder {
	c := b.clone()
	fn(c)
	return c
}

// DefaultHeaders sets headers sent with every request unless the request
// sets the same name.
func (b *ClientBuilder) DefaultHeaders(h *HeaderMap) *ClientBuilder {
	return b.with(func(c *ClientBuilder) { c.headers.Replace(h) })
}

// UserAgent sets the User-Agent default header.
func (b *ClientBuilder) UserAgent(ua string) (*ClientBuilder, error) {
	c := b.clone()
	if err := c.headers.Insert("user-agent", ua); err != nil {
		return nil, err
	}
	return c, nil
}

// Redirect sets the maximum number of redirects to follow. 0 disables
// following; the redirect response is returned as is.
func (b *ClientBuilder) Redirect(limit int) *ClientBuilder {
	return b.with(func(c *ClientBuilder) { c.maxRedirects = max(0, limit) })
}

// Referer enables or disables the Referer header on redirects.
func (b *ClientBuilder) Referer(enable bool) *ClientBuilder {
	return b.with(func(c *ClientBuilder) { c.referer = enable })
}

// Proxy adds a proxy. Proxies are consulted in the order they were added.
func (b *ClientBuilder) Proxy(p *Proxy) *ClientBuilder {
	return b.with(func(c *ClientBuilder) { c.proxies = append(c.proxies, p) })
}

// NoProxy disables every proxy, including the system ones.
func (b *ClientBuilder) NoProxy() *ClientBuilder {
	return b.with(func(c *ClientBuilder) { c.noProxy = true })
}

// Timeout sets the total timeout for a request, body included. 0 disables it.
func (b *ClientBuilder) Timeout(d time.Duration) *ClientBuilder {
	return b.with(func(c *ClientBuilder) { c.timeout = d })
}

// ConnectTimeout limits the connect phase. 0 disables it.
func (b *ClientBuilder) ConnectTimeout(d time.Duration) *ClientBuilder {
	return b.with(func(c *ClientBuilder) { c.connectTimeout = d })
}

// PoolIdleTimeout sets how long idle connections are kept. 0 keeps them
// until closed by the peer.
func (b *ClientBuilder) PoolIdleTimeout(d time.Duration) *ClientBuilder {
	return b.with(func(c *ClientBuilder) { c.poolIdle = d })
}

// PoolMaxIdlePerHost bounds the idle connections kept per host.
func (b *ClientBuilder) PoolMaxIdlePerHost(n int) *ClientBuilder {
	return b.with(func(c *ClientBuilder) { c.maxIdlePerHost = max(0, n) })
}

// HTTP1TitleCaseHeaders sends HTTP/1 header names in title case. net/http
// always writes canonical names, so this only records the choice.
func (b *ClientBuilder) HTTP1TitleCaseHeaders() *ClientBuilder {
	return b.with(func(c *ClientBuilder) { c.titleCase = true })
}

// HTTP1Only disables HTTP/2.
func (b *ClientBuilder) HTTP1Only() *ClientBuilder {
	return b.with(func(c *ClientBuilder) {
		c.http1Only = true
		c.h2Prior = false
	})
}

// HTTP09Responses would accept HTTP/0.9 responses, which net/http cannot
// parse.
func (b *ClientBuilder) HTTP09Responses() (*ClientBuilder, error) {
	return nil, errors.Unsupported(errors.PhaseBuilder, "HTTP/0.9 responses")
}

// HTTP2PriorKnowledge speaks HTTP/2 without negotiation, over cleartext for
// http URLs.
func (b *ClientBuilder) HTTP2PriorKnowledge() *ClientBuilder {
	return b.with(func(c *ClientBuilder) {
		c.h2Prior = true
		c.http1Only = false
	})
}

func windowSize(what string, n uint32) error {
	if n > math.MaxInt32 {
		return errors.New(errors.PhaseBuilder, errors.KindInvalidInput).
			Detail("%s %d exceeds 2^31-1", what, n).
			Build()
	}
	return nil
}

// HTTP2InitialStreamWindowSize sets the per stream receive window. 0 keeps
// the default.
func (b *ClientBuilder) HTTP2InitialStreamWindowSize(n uint32) (*ClientBuilder, error) {
	if err := windowSize("stream window size", n); err != nil {
		return nil, err
	}
	return b.with(func(c *ClientBuilder) { c.h2StreamWindow = n }), nil
}

// HTTP2InitialConnectionWindowSize sets the per connection receive window.
// 0 keeps the default.
func (b *ClientBuilder) HTTP2InitialConnectionWindowSize(n uint32) (*ClientBuilder, error) {
	if err := windowSize("connection window size", n); err != nil {
		return nil, err
	}
	return b.with(func(c *ClientBuilder) { c.h2ConnWindow = n }), nil
}

// HTTP2MaxFrameSize sets the largest frame the client accepts. 0 keeps the
// default.
func (b *ClientBuilder) HTTP2MaxFrameSize(n uint32) (*ClientBuilder, error) {
	if n != 0 && (n < minFrameSize || n > maxFrameSize) {
		return nil, errors.New(errors.PhaseBuilder, errors.KindInvalidInput).
			Detail("max frame size %d outside [%d, %d]", n, minFrameSize, maxFrameSize).
			Build()
	}
	return b.with(func(c *ClientBuilder) { c.h2MaxFrame = n }), nil
}

// TCPNodelay sets TCP_NODELAY on new connections.
func (b *ClientBuilder) TCPNodelay(enable bool) *ClientBuilder {
	return b.with(func(c *ClientBuilder) { c.noDelay = enable })
}

// LocalAddress binds outgoing connections to ip.
func (b *ClientBuilder) LocalAddress(ip string) (*ClientBuilder, error) {
	addr := net.ParseIP(ip)
	if addr == nil {
		return nil, errors.New(errors.PhaseBuilder, errors.KindInvalidInput).
			Detail("invalid local address %q", ip).
			Build()
	}
	return b.with(func(c *ClientBuilder) { c.localAddr = addr }), nil
}

// TCPKeepalive enables SO_KEEPALIVE with the given interval. 0 disables it.
func (b *ClientBuilder) TCPKeepalive(d time.Duration) *ClientBuilder {
	return b.with(func(c *ClientBuilder) { c.keepalive = d })
}

// AddRootCertificate trusts an extra root certificate given as PEM or DER.
func (b *ClientBuilder) AddRootCertificate(data []byte) (*ClientBuilder, error) {
	der := data
	if block, _ := pem.Decode(data); block != nil {
		der = block.Bytes
	}
	cert, err := x509.ParseCertificate(der)
	if err != nil {
		return nil, errors.New(errors.PhaseBuilder, errors.KindHTTPBuilder).
			Detail("parse root certificate").
			Cause(err).
			Build()
	}
	return b.with(func(c *ClientBuilder) { c.rootCerts = append(c.rootCerts, cert) }), nil
}

// AddRootCertificateFile reads a certificate file and trusts it.
func (b *ClientBuilder) AddRootCertificateFile(path string) (*ClientBuilder, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read root certificate: %w", err)
	}
	return b.AddRootCertificate(data)
}

// TLSBuiltInRootCerts controls whether the system roots are trusted.
func (b *ClientBuilder) TLSBuiltInRootCerts(enable bool) *ClientBuilder {
	return b.with(func(c *ClientBuilder) { c.builtinRoots = enable })
}

// DangerAcceptInvalidCerts disables certificate verification.
func (b *ClientBuilder) DangerAcceptInvalidCerts(enable bool) *ClientBuilder {
	return b.with(func(c *ClientBuilder) { c.insecure = enable })
}

// ParseTLSVersion maps "1.0" through "1.3" to the crypto/tls constants.
func ParseTLSVersion(v string) (uint16, error) {
	switch v {
	case "1.0":
		return tls.VersionTLS10, nil
	case "1.1":
		return tls.VersionTLS11, nil
	case "1.2":
		return tls.VersionTLS12, nil
	case "1.3":
		return tls.VersionTLS13, nil
	}
	return 0, errors.New(errors.PhaseBuilder, errors.KindInvalidInput).
		Detail("unknown TLS version %q", v).
		Build()
}

// MinTLSVersion sets the lowest accepted TLS version.
func (b *ClientBuilder) MinTLSVersion(v string) (*ClientBuilder, error) {
	ver, err := ParseTLSVersion(v)
	if err != nil {
		return nil, err
	}
	return b.with(func(c *ClientBuilder) { c.minTLS = ver }), nil
}

// MaxTLSVersion sets the highest accepted TLS version.
func (b *ClientBuilder) MaxTLSVersion(v string) (*ClientBuilder, error) {
	ver, err := ParseTLSVersion(v)
	if err != nil {
		return nil, err
	}
	return b.with(func(c *ClientBuilder) { c.maxTLS = ver }), nil
}

// HTTPSOnly rejects requests to non-https URLs.
func (b *ClientBuilder) HTTPSOnly(enable bool) *ClientBuilder {
	return b.with(func(c *ClientBuilder) { c.httpsOnly = enable })
}

// Resolve pins domain to addr. Only the IP of addr is used; connections go
// to the port of the request URL.
func (b *ClientBuilder) Resolve(domain, addr string) (*ClientBuilder, error) {
	return b.ResolveToAddrs(domain, []string{addr})
}

// ResolveToAddrs pins domain to a list of socket addresses tried in order.
func (b *ClientBuilder) ResolveToAddrs(domain string, addrs []string) (*ClientBuilder, error) {
	if domain == "" {
		return nil, errors.New(errors.PhaseBuilder, errors.KindInvalidInput).
			Detail("empty domain").
			Build()
	}
	ips := make([]net.IP, 0, len(addrs))
	for _, a := range addrs {
		ip, err := parseSocketIP(a)
		if err != nil {
			return nil, err
		}
		ips = append(ips, ip)
	}
	return b.with(func(c *ClientBuilder) {
		if c.overrides == nil {
			c.overrides = make(map[string][]net.IP)
		}
		c.overrides[strings.ToLower(domain)] = ips
	}), nil
}

func parseSocketIP(addr string) (net.IP, error) {
	host, _, err := net.SplitHostPort(addr)
	if err == nil {
		if ip := net.ParseIP(host); ip != nil {
			return ip, nil
		}
	}
	return nil, errors.New(errors.PhaseBuilder, errors.KindInvalidInput).
		Detail("invalid socket address %q", addr).
		Cause(err).
		Build()
}

// RateLimit allows perSecond requests per second with the given burst. A
// non-positive rate removes the limit.
func (b *ClientBuilder) RateLimit(perSecond float64, burst int) (*ClientBuilder, error) {
	if perSecond > 0 && burst < 1 {
		return nil, errors.New(errors.PhaseBuilder, errors.KindInvalidInput).
			Detail("burst must be at least 1, got %d", burst).
			Build()
	}
	return b.with(func(c *ClientBuilder) {
		c.rateLimit = rate.Limit(perSecond)
		c.rateBurst = burst
	}), nil
}

// Tracing records an OpenTelemetry span per round trip.
func (b *ClientBuilder) Tracing(tp trace.TracerProvider) *ClientBuilder {
	return b.with(func(c *ClientBuilder) { c.tracer = tp })
}

// Build creates the client.
func (b *ClientBuilder) Build() (*Client, error) {
	if b.minTLS != 0 && b.maxTLS != 0 && b.minTLS > b.maxTLS {
		return nil, builderError("build client", "", fmt.Errorf("min TLS version above max TLS version"))
	}

	tlsConf, err := b.tlsConfig()
	if err != nil {
		return nil, err
	}

	dial := dialConfig{
		localAddr:      b.localAddr,
		overrides:      b.overrides,
		connectTimeout: b.connectTimeout,
		keepalive:      b.keepalive,
		noDelay:        b.noDelay,
	}.dialer()

	rt := b.transport(dial, tlsConf)

	mws := []Middleware{Logging()}
	if b.tracer != nil {
		mws = append(mws, Tracing(b.tracer))
	}
	if b.rateLimit > 0 {
		mws = append(mws, RateLimit(rate.NewLimiter(b.rateLimit, b.rateBurst)))
	}

	hc := &http.Client{
		Transport:     Chain(rt, mws...),
		Timeout:       b.timeout,
		CheckRedirect: b.checkRedirect,
	}

	Logger().Debug("client built",
		zap.Duration("timeout", b.timeout),
		zap.Int("max_redirects", b.maxRedirects),
		zap.Bool("http2_prior_knowledge", b.h2Prior),
		zap.Bool("http1_only", b.http1Only))

	return &Client{
		hc:        hc,
		headers:   b.headers.Clone(),
		httpsOnly: b.httpsOnly,
		http1Only: b.http1Only,
		h2Prior:   b.h2Prior,
	}, nil
}

func (b *ClientBuilder) tlsConfig() (*tls.Config, error) {
	conf := &tls.Config{
		MinVersion:         b.minTLS,
		MaxVersion:         b.maxTLS,
		InsecureSkipVerify: b.insecure, //nolint:gosec // explicit opt-in
	}
	if len(b.rootCerts) == 0 && b.builtinRoots {
		return conf, nil
	}

	var pool *x509.CertPool
	if b.builtinRoots {
		sys, err := x509.SystemCertPool()
		if err != nil {
			return nil, builderError("build client", "", fmt.Errorf("load system roots: %w", err))
		}
		pool = sys
	} else {
		pool = x509.NewCertPool()
	}
	for _, c := range b.rootCerts {
		pool.AddCert(c)
	}
	conf.RootCAs = pool
	return conf, nil
}

func (b *ClientBuilder) proxy() func(*http.Request) (*url.URL, error) {
	switch {
	case b.noProxy:
		return nil
	case len(b.proxies) > 0:
		return proxyFunc(b.proxies)
	default:
		return http.ProxyFromEnvironment
	}
}

func (b *ClientBuilder) transport(dial dialFunc, tlsConf *tls.Config) *http.Transport {
	t := &http.Transport{
		Proxy:               b.proxy(),
		DialContext:         dial,
		TLSClientConfig:     tlsConf,
		IdleConnTimeout:     b.poolIdle,
		TLSHandshakeTimeout: 10 * time.Second,
		MaxIdleConns:        100,
		ForceAttemptHTTP2:   !b.http1Only,
	}
	if b.maxIdlePerHost >= 0 {
		t.MaxIdleConnsPerHost = b.maxIdlePerHost
		if b.maxIdlePerHost == 0 {
			t.DisableKeepAlives = true
		}
	} else {
		t.MaxIdleConnsPerHost = 100
	}

	protos := new(http.Protocols)
	switch {
	case b.h2Prior:
		// Without HTTP1, http URLs speak h2c and https URLs require h2.
		protos.SetHTTP2(true)
		protos.SetUnencryptedHTTP2(true)
	case b.http1Only:
		protos.SetHTTP1(true)
	default:
		protos.SetHTTP1(true)
		protos.SetHTTP2(true)
	}
	t.Protocols = protos

	if b.h2StreamWindow != 0 || b.h2ConnWindow != 0 || b.h2MaxFrame != 0 {
		t.HTTP2 = &http.HTTP2Config{
			MaxReceiveBufferPerStream:     int(b.h2StreamWindow),
			MaxReceiveBufferPerConnection: int(b.h2ConnWindow),
			MaxReadFrameSize:              int(b.h2MaxFrame),
		}
	}
	return t
}

func (b *ClientBuilder) checkRedirect(req *http.Request, via []*http.Request) error {
	if b.maxRedirects == 0 {
		return http.ErrUseLastResponse
	}
	if len(via) > b.maxRedirects {
		return &Error{
			Op:  "redirect",
			URL: req.URL.String(),
			Cat: errors.CategoryRedirect,
			Err: fmt.Errorf("too many redirects (%d)", b.maxRedirects),
		}
	}
	if !b.referer {
		req.Header.Del("Referer")
	}
	if b.httpsOnly && req.URL.Scheme != "https" {
		return &Error{
			Op:  "redirect",
			URL: req.URL.String(),
			Cat: errors.CategoryRedirect,
			Err: fmt.Errorf("redirect to non-https URL"),
		}
	}
	return nil
}
