package dialer

import (
	"context"
	"crypto/tls"
	"time"

	"github.com/frankli0324/go-minhttp/internal/http"
)

// Dialers handle pretty much everything related to the actual connection,
// including setting a proxy for each request, setting resolvers, TLS, etc.
type Dialer interface {
	// Dial returns a ready stream for writing the request and reading the
	// response: connected, tunneled through a proxy if one applies, and
	// encrypted when the target scheme is https.
	Dial(ctx context.Context, r *http.PreparedRequest) (Conn, error)
	Unwrap() Dialer
}

type CoreDialer struct {
	ResolveConfig *ResolveConfig

	TLSConfig  *tls.Config // the base config, cloned for every handshake
	TrustStore *TrustStore // overrides TLSConfig.RootCAs when set
	TLS        TLSBackend  // nil selects the backend linked into the build

	ConnectTimeout time.Duration // bounds connect, proxy tunnel and handshake

	GetProxy      func(ctx context.Context, r *http.PreparedRequest) (string, error)
	ProxyConfig   *ProxyConfig
	SocketOptions SocketOptions
}

func (d *CoreDialer) Clone() *CoreDialer {
	return &CoreDialer{
		ResolveConfig:  d.ResolveConfig.Clone(),
		TLSConfig:      d.TLSConfig.Clone(),
		TrustStore:     d.TrustStore,
		TLS:            d.TLS,
		ConnectTimeout: d.ConnectTimeout,
		GetProxy:       d.GetProxy,
		ProxyConfig:    d.ProxyConfig.Clone(),
		SocketOptions:  d.SocketOptions,
	}
}

func (d *CoreDialer) Unwrap() Dialer {
	return nil
}

func (d *CoreDialer) tlsBackend() TLSBackend {
	if d.TLS != nil {
		return d.TLS
	}
	return newDefaultTLS()
}
