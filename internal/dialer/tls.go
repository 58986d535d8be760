package dialer

import (
	"context"
	"crypto/tls"
	"errors"
	"net"

	"github.com/frankli0324/go-minhttp/internal/errdef"
)

// TLSBackend turns an established stream into an encrypted session to
// serverName, validating the peer against the configured roots. The
// default backend is chosen at build time; see tls_std.go.
type TLSBackend interface {
	Name() string
	Handshake(ctx context.Context, conn net.Conn, serverName string, opts TLSOptions) (Conn, error)
}

type TLSOptions struct {
	Config *tls.Config // may be nil
	Roots  *TrustStore // nil means the backend's own system roots
}

func (d *CoreDialer) tlsOptions(cfg *tls.Config) TLSOptions {
	return TLSOptions{Config: cfg, Roots: d.TrustStore}
}

// tlsError classifies a failed handshake.
func tlsError(ctx context.Context, err error, serverName string) error {
	switch {
	case errors.Is(ctx.Err(), context.DeadlineExceeded) || isTimeout(err):
		return errdef.Wrap(errdef.KindTimeout, err, "tls handshake with %s", serverName)
	case errors.Is(ctx.Err(), context.Canceled):
		return errdef.Wrap(errdef.KindIO, ctx.Err(), "tls handshake with %s", serverName)
	}
	return errdef.Wrap(errdef.KindTLS, err, "handshake with %s", serverName)
}
