package dialer

import (
	"bufio"
	"context"
	"crypto/tls"
	"encoding/base64"
	"io"
	"math/rand"
	"net"
	"net/url"
	"strconv"
	"sync"
	"time"

	"golang.org/x/net/http/httpproxy"

	"github.com/frankli0324/go-minhttp/internal/errdef"
	"github.com/frankli0324/go-minhttp/internal/http"
	"github.com/frankli0324/go-minhttp/internal/transport"
)

type ProxyConfig struct {
	TLSConfig      *tls.Config // the [*tls.Config] to use with proxy, if nil, *[CoreDialer.TLSConfig] will be used
	ResolveLocally bool
	ResolveConfig  *ResolveConfig // overrides the resolver config for dialer for proxy
}

func (c *ProxyConfig) Clone() *ProxyConfig {
	if c == nil {
		return nil
	}
	return &ProxyConfig{
		TLSConfig:      c.TLSConfig.Clone(),
		ResolveLocally: c.ResolveLocally,
		ResolveConfig:  c.ResolveConfig.Clone(),
	}
}

var (
	h1Transport = transport.HTTP1{MaxHeaderBytes: 64 << 10}
)

var envProxyFunc = sync.OnceValue(func() func(*url.URL) (*url.URL, error) {
	return httpproxy.FromEnvironment().ProxyFunc()
})

// ProxyFromEnvironment picks a proxy from HTTP_PROXY, HTTPS_PROXY and
// NO_PROXY (or their lowercase forms), read once per process. It fits
// [CoreDialer.GetProxy].
func ProxyFromEnvironment(_ context.Context, r *http.PreparedRequest) (string, error) {
	u, err := envProxyFunc()(&url.URL{Scheme: r.U.Scheme, Host: r.U.Authority()})
	if err != nil || u == nil {
		return "", err
	}
	return u.String(), nil
}

// StaticProxy always routes through proxy.
func StaticProxy(proxy string) func(context.Context, *http.PreparedRequest) (string, error) {
	return func(context.Context, *http.PreparedRequest) (string, error) { return proxy, nil }
}

func (d *CoreDialer) tryDialProxy(ctx context.Context, r *http.PreparedRequest) (net.Conn, error) {
	if d.GetProxy != nil {
		proxy, perr := d.GetProxy(ctx, r)
		if perr != nil {
			return nil, errdef.Wrap(errdef.KindConnect, perr, "select proxy")
		}
		if proxy != "" {
			proxyU, perr := url.Parse(proxy)
			if perr != nil {
				return nil, errdef.Wrap(errdef.KindMalformedURL, perr, "proxy")
			}
			return d.DialContextOverProxy(ctx, r.U, proxyU)
		}
	}
	return nil, nil
}

// DialContextOverProxy opens a tunnel to remote through an http(s) proxy
// with CONNECT. This part of logic may be reused when wrapping
// *[CoreDialer] into a new custom [Dialer]
func (d *CoreDialer) DialContextOverProxy(ctx context.Context, remote *http.URL, proxy *url.URL) (net.Conn, error) {
	if proxy.Scheme != "http" && proxy.Scheme != "https" {
		return nil, errdef.New(errdef.KindMalformedURL, "unsupported proxy scheme %q", proxy.Scheme)
	}
	port := proxy.Port()
	if port == "" {
		port = schemes[proxy.Scheme]
	}
	pc := d.ProxyConfig
	if pc == nil {
		pc = &ProxyConfig{}
	}

	conn, err := d.dialTCP(ctx, pc.ResolveConfig.Merge(d.ResolveConfig), proxy.Hostname(), port)
	if err != nil {
		return nil, err
	}

	if proxy.Scheme == "https" {
		tlsCfg := pc.TLSConfig
		if tlsCfg == nil {
			tlsCfg = d.TLSConfig
		}
		c, err := d.tlsBackend().Handshake(ctx, conn, proxy.Hostname(), d.tlsOptions(tlsCfg))
		if err != nil {
			conn.Close()
			return nil, err
		}
		nc, ok := c.(net.Conn)
		if !ok {
			c.Close()
			return nil, errdef.New(errdef.KindTLS, "tls backend %s cannot tunnel", d.tlsBackend().Name())
		}
		conn = nc
	}

	addr := remote.Host
	if pc.ResolveLocally {
		dnsCfg := pc.ResolveConfig.Merge(d.ResolveConfig)
		if res, ok := dnsCfg.staticHost(addr); ok {
			addr = res
		} else {
			ips, err := d.lookup(ctx, dnsCfg, addr)
			if err != nil {
				conn.Close()
				return nil, err
			}
			addr = ips[rand.Intn(len(ips))].String()
		}
	}

	if err := connect(ctx, conn, net.JoinHostPort(addr, strconv.Itoa(int(remote.Port))), proxy.User); err != nil {
		conn.Close()
		return nil, err
	}
	return conn, nil
}

// connect runs the CONNECT exchange on conn and requires a 2xx answer.
func connect(ctx context.Context, conn net.Conn, authority string, user *url.Userinfo) error {
	header := http.Header{{Name: "Host", Value: authority}}
	if user != nil {
		pass, _ := user.Password()
		if auth := user.Username() + ":" + pass; auth != ":" {
			header.Add("Proxy-Authorization", "Basic "+base64.StdEncoding.EncodeToString([]byte(auth)))
		}
	}
	connReq := &http.PreparedRequest{
		Request:       &http.Request{Method: "CONNECT"},
		Method:        "CONNECT",
		U:             &http.URL{Scheme: "http", Target: authority},
		Header:        header,
		GetBody:       func() (io.ReadCloser, error) { return nil, nil },
		ContentLength: -1,
	}

	dl, _ := ctx.Deadline()
	dc := Deadline(conn, dl)
	if err := h1Transport.Write(dc, connReq); err != nil {
		return err
	}
	// nothing follows the proxy's answer until we speak, so the buffer
	// cannot swallow tunneled bytes
	head, err := h1Transport.ReadHead(bufio.NewReader(dc), connReq.Method)
	if err != nil {
		return err
	}
	if head.StatusCode/100 != 2 {
		return errdef.New(errdef.KindConnect, "proxy refused tunnel to %s: %s", authority, head.Status())
	}
	return conn.SetDeadline(time.Time{})
}
