//go:build !minhttp_notls

package dialer

import (
	"context"
	"crypto/tls"
	"net"
)

func newDefaultTLS() TLSBackend { return StdTLS{} }

// StdTLS performs handshakes with crypto/tls. Only http/1.1 is offered
// over ALPN.
type StdTLS struct{}

func (StdTLS) Name() string { return "crypto/tls" }

func (StdTLS) Handshake(ctx context.Context, conn net.Conn, serverName string, opts TLSOptions) (Conn, error) {
	config := opts.Config.Clone()
	if config == nil {
		config = &tls.Config{}
	}
	if config.ServerName == "" {
		config.ServerName = serverName
	}
	if opts.Roots != nil {
		config.RootCAs = opts.Roots.Pool()
	}
	config.NextProtos = []string{"http/1.1"}

	c := tls.Client(conn, config)
	if err := c.HandshakeContext(ctx); err != nil {
		return nil, tlsError(ctx, err, serverName)
	}
	return c, nil
}
