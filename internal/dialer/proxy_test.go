package dialer

import (
	"bufio"
	"context"
	"encoding/base64"
	"io"
	"net"
	nethttp "net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"

	"github.com/frankli0324/go-minhttp/internal/errdef"
)

// connectProxy is a CONNECT-only proxy. It records the request head of
// every tunnel and answers with status.
type connectProxy struct {
	l      net.Listener
	status string

	mu    sync.Mutex
	heads []string
}

func newConnectProxy(t *testing.T, status string) *connectProxy {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	p := &connectProxy{l: l, status: status}
	go p.serve()
	t.Cleanup(func() { l.Close() })
	return p
}

func (p *connectProxy) serve() {
	for {
		c, err := p.l.Accept()
		if err != nil {
			return
		}
		go p.handle(c)
	}
}

func (p *connectProxy) handle(c net.Conn) {
	defer c.Close()
	br := bufio.NewReader(c)
	var head []string
	for {
		line, err := br.ReadString('\n')
		if err != nil {
			return
		}
		line = strings.TrimRight(line, "\r\n")
		if line == "" {
			break
		}
		head = append(head, line)
	}
	p.mu.Lock()
	p.heads = append(p.heads, strings.Join(head, "\n"))
	p.mu.Unlock()

	io.WriteString(c, "HTTP/1.1 "+p.status+"\r\n\r\n")
	if !strings.HasPrefix(p.status, "200") {
		return
	}
	target := strings.Fields(head[0])[1]
	up, err := net.Dial("tcp", target)
	if err != nil {
		return
	}
	defer up.Close()
	go io.Copy(up, br)
	io.Copy(c, up)
}

func (p *connectProxy) lastHead() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.heads) == 0 {
		return ""
	}
	return p.heads[len(p.heads)-1]
}

func TestDialOverProxy(t *testing.T) {
	srv := httptest.NewServer(nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {}))
	defer srv.Close()
	proxy := newConnectProxy(t, "200 Connection established")

	d := &CoreDialer{GetProxy: StaticProxy("http://user:p%40ss@" + proxy.l.Addr().String())}
	conn, err := d.Dial(context.Background(), prepared(t, srv.URL))
	if err != nil {
		t.Fatal(err)
	}
	if got := roundTrip(t, conn, "x"); got != "HTTP/1.1 200 OK" {
		t.Fatalf("status line %q", got)
	}

	authority := srv.Listener.Addr().String()
	head := proxy.lastHead()
	if !strings.HasPrefix(head, "CONNECT "+authority+" HTTP/1.1\nHost: "+authority) {
		t.Fatalf("tunnel request head:\n%s", head)
	}
	auth := "Proxy-Authorization: Basic " + base64.StdEncoding.EncodeToString([]byte("user:p@ss"))
	if !strings.Contains(head, auth) {
		t.Fatalf("missing %q in\n%s", auth, head)
	}
}

func TestDialOverProxyRefused(t *testing.T) {
	proxy := newConnectProxy(t, "407 Proxy Authentication Required")
	d := &CoreDialer{GetProxy: StaticProxy("http://" + proxy.l.Addr().String())}
	_, err := d.Dial(context.Background(), prepared(t, "http://example.com/"))
	if !errdef.Is(err, errdef.KindConnect) || !strings.Contains(err.Error(), "407") {
		t.Fatalf("err = %v, want connect error naming 407", err)
	}
}

func TestDialOverProxyBadScheme(t *testing.T) {
	d := &CoreDialer{GetProxy: StaticProxy("socks5://127.0.0.1:1080")}
	_, err := d.Dial(context.Background(), prepared(t, "http://example.com/"))
	if !errdef.Is(err, errdef.KindMalformedURL) {
		t.Fatalf("err = %v", err)
	}
}

func TestProxyFromEnvironment(t *testing.T) {
	for _, k := range []string{"NO_PROXY", "no_proxy", "HTTPS_PROXY", "https_proxy", "http_proxy", "REQUEST_METHOD"} {
		t.Setenv(k, "")
	}
	t.Setenv("HTTP_PROXY", "http://proxy.internal:3128")

	got, err := ProxyFromEnvironment(context.Background(), prepared(t, "http://example.com/"))
	if err != nil {
		t.Fatal(err)
	}
	u, err := url.Parse(got)
	if err != nil || u.Host != "proxy.internal:3128" {
		t.Fatalf("proxy = %q, %v", got, err)
	}
}
