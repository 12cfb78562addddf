package client

import (
	"context"
	stderrors "errors"
	"net"
	"strings"
	"time"
)

// dialConfig holds the TCP options of a client.
type dialConfig struct {
	localAddr      net.IP
	overrides      map[string][]net.IP
	connectTimeout time.Duration
	keepalive      time.Duration
	noDelay        bool
}

type dialFunc func(ctx context.Context, network, addr string) (net.Conn, error)

// dialer builds the DialContext used by every transport of a client.
func (c dialConfig) dialer() dialFunc {
	d := &net.Dialer{
		Timeout:   c.connectTimeout,
		KeepAlive: -1,
	}
	if c.keepalive > 0 {
		d.KeepAlive = c.keepalive
	}
	if c.localAddr != nil {
		d.LocalAddr = &net.TCPAddr{IP: c.localAddr}
	}

	dial := func(ctx context.Context, network, addr string) (net.Conn, error) {
		conn, err := d.DialContext(ctx, network, addr)
		if err != nil {
			return nil, err
		}
		if tcp, ok := conn.(*net.TCPConn); ok && !c.noDelay {
			_ = tcp.SetNoDelay(false)
		}
		return conn, nil
	}

	if len(c.overrides) == 0 {
		return dial
	}

	return func(ctx context.Context, network, addr string) (net.Conn, error) {
		host, port, err := net.SplitHostPort(addr)
		if err != nil {
			return dial(ctx, network, addr)
		}
		ips, ok := c.overrides[strings.ToLower(host)]
		if !ok {
			return dial(ctx, network, addr)
		}
		// Ports of overridden addresses are ignored; the request port wins.
		var errs []error
		for _, ip := range ips {
			conn, err := dial(ctx, network, net.JoinHostPort(ip.String(), port))
			if err == nil {
				return conn, nil
			}
			errs = append(errs, err)
		}
		return nil, stderrors.Join(errs...)
	}
}
