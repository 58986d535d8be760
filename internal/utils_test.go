package internal_test

import (
	"bufio"
	"context"
	"io"
	"net"
	nethttp "net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/frankli0324/go-minhttp/internal"
	"github.com/frankli0324/go-minhttp/internal/dialer"
	"github.com/frankli0324/go-minhttp/internal/http"
)

type CombinedReadWriteCloser struct {
	io.Reader
	io.Writer
	io.Closer
}

func (CombinedReadWriteCloser) SetDeadline(time.Time) error { return nil }

type TestDialer struct {
	dialer.Conn
}

// Dial implements dialer.Dialer.
func (t *TestDialer) Dial(ctx context.Context, r *http.PreparedRequest) (dialer.Conn, error) {
	return t.Conn, nil
}

// Unwrap implements dialer.Dialer.
func (t *TestDialer) Unwrap() dialer.Dialer {
	return nil
}

func SendSingleRequest(t *testing.T, req *http.Request) io.Reader {
	return SendSingleRequestWith(t, internal.Options{}, req)
}

func SendSingleRequestWith(t *testing.T, opts internal.Options, req *http.Request) io.Reader {
	readResponse, writeResponse := io.Pipe()
	go io.Copy(writeResponse, strings.NewReader("HTTP/1.1 200 OK\r\nContent-Length: 0\r\nConnection: close\r\n\r\n"))

	readRequest, writeRequest := io.Pipe()
	c := &internal.Client{Options: opts}
	c.UseDialer(func(dialer.Dialer) dialer.Dialer {
		return &TestDialer{CombinedReadWriteCloser{
			Reader: readResponse,
			Writer: writeRequest,
			Closer: writeRequest,
		}}
	})
	go func() {
		if _, err := c.CtxDo(context.Background(), req); err != nil {
			t.Error(err)
		}
	}()
	return readRequest
}

// hop is one request as seen by a fake server.
type hop struct {
	host   string
	method string
	target string
	header nethttp.Header
	body   string
}

// PipeDialer connects every dial to a fresh in-memory server running
// handle. handle returns the raw response to write; an empty string keeps
// the connection open without answering until the client hangs up.
type PipeDialer struct {
	handle func(h hop) string

	mu   sync.Mutex
	hops []hop
}

func (d *PipeDialer) Dial(ctx context.Context, r *http.PreparedRequest) (dialer.Conn, error) {
	client, server := net.Pipe()
	go d.serve(r.U.Authority(), server)
	return client, nil
}

func (d *PipeDialer) Unwrap() dialer.Dialer { return nil }

func (d *PipeDialer) serve(host string, c net.Conn) {
	defer c.Close()
	req, err := nethttp.ReadRequest(bufio.NewReader(c))
	if err != nil {
		return
	}
	body, _ := io.ReadAll(req.Body)
	h := hop{host: host, method: req.Method, target: req.RequestURI, header: req.Header, body: string(body)}
	d.mu.Lock()
	d.hops = append(d.hops, h)
	d.mu.Unlock()

	resp := d.handle(h)
	if resp == "" {
		io.Copy(io.Discard, c)
		return
	}
	io.WriteString(c, resp)
}

func (d *PipeDialer) Hops() []hop {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]hop(nil), d.hops...)
}

func newPipeClient(handle func(h hop) string) (*internal.Client, *PipeDialer) {
	d := &PipeDialer{handle: handle}
	c := &internal.Client{}
	c.UseDialer(func(dialer.Dialer) dialer.Dialer { return d })
	return c, d
}
