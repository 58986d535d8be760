package internal

import (
	"crypto/tls"
	"os"
	"strings"

	"github.com/rs/zerolog"

	"github.com/frankli0324/go-minhttp/internal/config"
	"github.com/frankli0324/go-minhttp/internal/dialer"
	"github.com/frankli0324/go-minhttp/internal/errdef"
)

// NewClient builds a client from cfg: trust roots, client certificate,
// resolver, proxy and logging. Logs go to stderr at cfg.LogLevel.
func NewClient(cfg config.Config) (*Client, error) {
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.LogLevel))
	if err != nil || cfg.LogLevel == "" {
		level = zerolog.WarnLevel
	}

	d := &dialer.CoreDialer{
		ConnectTimeout: cfg.ConnectTimeout.D(),
		SocketOptions: dialer.SocketOptions{
			SendBuffer:    cfg.Socket.SendBuffer,
			ReceiveBuffer: cfg.Socket.ReceiveBuffer,
		},
	}
	if cfg.DNS.Server != "" || cfg.DNS.Network != "" || len(cfg.DNS.Hosts) != 0 {
		d.ResolveConfig = &dialer.ResolveConfig{
			CustomDNSServer: cfg.DNS.Server,
			Network:         cfg.DNS.Network,
			StaticHosts:     cfg.DNS.Hosts,
		}
	}

	if d.TrustStore, err = dialer.LoadTrustStore(cfg.TLS.CAFiles, dialer.RootMode(cfg.TLS.RootMode)); err != nil {
		return nil, err
	}
	if cfg.TLS.InsecureSkipVerify || cfg.TLS.ClientCert != "" {
		d.TLSConfig = &tls.Config{InsecureSkipVerify: cfg.TLS.InsecureSkipVerify}
	}
	if cfg.TLS.ClientCert != "" {
		if cfg.TLS.ClientKey == "" {
			return nil, errdef.New(errdef.KindTLS, "client_cert requires client_key")
		}
		cert, err := tls.LoadX509KeyPair(cfg.TLS.ClientCert, cfg.TLS.ClientKey)
		if err != nil {
			return nil, errdef.Wrap(errdef.KindTLS, err, "load client certificate")
		}
		d.TLSConfig.Certificates = []tls.Certificate{cert}
	}

	switch cfg.Proxy {
	case "":
	case config.ProxyFromEnv:
		d.GetProxy = dialer.ProxyFromEnvironment
	default:
		d.GetProxy = dialer.StaticProxy(cfg.Proxy)
	}

	c := &Client{Options: Options{
		Timeout:          cfg.Timeout.D(),
		ConnectTimeout:   cfg.ConnectTimeout.D(),
		MaxRedirects:     cfg.MaxRedirects,
		DisableRedirects: cfg.DisableRedirects,
		IDNA:             cfg.IDNA,
		MaxHeaderBytes:   cfg.MaxHeaderBytes,
		Logger:           zerolog.New(os.Stderr).Level(level).With().Timestamp().Logger(),
	}}
	c.dialer = d
	return c, nil
}
