package dialer

import (
	"context"
	"errors"
	"net"
	"strconv"

	"github.com/frankli0324/go-minhttp/internal/errdef"
	"github.com/frankli0324/go-minhttp/internal/http"
)

var schemes = map[string]string{
	"http": "80", "https": "443",
}

var zeroDialer net.Dialer

func (d *CoreDialer) Dial(ctx context.Context, r *http.PreparedRequest) (Conn, error) {
	if d.ConnectTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.ConnectTimeout)
		defer cancel()
	}

	conn, err := d.tryDialProxy(ctx, r)
	if err != nil {
		return nil, err
	}
	if conn == nil {
		conn, err = d.dialTCP(ctx, d.ResolveConfig, r.U.Host, strconv.Itoa(int(r.U.Port)))
		if err != nil {
			return nil, err
		}
	}
	if !r.U.TLS() {
		return conn, nil
	}
	tc, err := d.tlsBackend().Handshake(ctx, conn, r.U.Host, d.tlsOptions(d.TLSConfig))
	if err != nil {
		conn.Close()
		return nil, err
	}
	return tc, nil
}

// dialTCP opens a TCP connection to host:port honoring the resolver
// settings in cfg, which may be nil.
func (d *CoreDialer) dialTCP(ctx context.Context, cfg *ResolveConfig, host, port string) (net.Conn, error) {
	network, dialctx, dst := "tcp", ctx, net.JoinHostPort(host, port)
	nd := zeroDialer
	nd.Control = d.SocketOptions.control()

	if cfg != nil {
		switch cfg.Network {
		case "ip4":
			network = "tcp4"
		case "ip6":
			network = "tcp6"
		}
		if static, ok := cfg.StaticHosts[host]; ok {
			dst = net.JoinHostPort(static, port)
		}
		if dns := cfg.CustomDNSServer; dns != "" {
			dialctx = dnsServerCtx{dialctx, dns}
			nd.Resolver = &customServerResolver
		}
	}

	conn, err := nd.DialContext(dialctx, network, dst)
	if err != nil {
		return nil, dialError(ctx, err, dst)
	}
	return conn, nil
}

// dialError classifies a failure to establish a connection.
func dialError(ctx context.Context, err error, addr string) error {
	switch {
	case errors.Is(ctx.Err(), context.DeadlineExceeded) || isTimeout(err):
		return errdef.Wrap(errdef.KindTimeout, err, "connect to %s", addr)
	case errors.Is(ctx.Err(), context.Canceled):
		return errdef.Wrap(errdef.KindIO, ctx.Err(), "connect to %s", addr)
	}
	return errdef.Wrap(errdef.KindConnect, err, "connect to %s", addr)
}
