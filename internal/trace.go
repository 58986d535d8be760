package internal

import (
	"context"
	"net"
	"net/http/httptrace"

	"github.com/frankli0324/go-minhttp/internal/dialer"
	"github.com/frankli0324/go-minhttp/internal/http"
)

// hopTrace fires the connection-level hooks of a [httptrace.ClientTrace]
// attached to the call's context. DNS and connect hooks are fired by
// [net.Dialer] itself, which reads the same context.
type hopTrace struct {
	t *httptrace.ClientTrace
}

func traceOf(ctx context.Context) hopTrace {
	return hopTrace{httptrace.ContextClientTrace(ctx)}
}

func (h hopTrace) getConn(pr *http.PreparedRequest) {
	if h.t != nil && h.t.GetConn != nil {
		h.t.GetConn(pr.U.HostPort())
	}
}

func (h hopTrace) gotConn(c dialer.Conn) {
	if h.t == nil || h.t.GotConn == nil {
		return
	}
	// every connection is fresh, there is no pool to reuse from
	nc, _ := c.(net.Conn)
	h.t.GotConn(httptrace.GotConnInfo{Conn: nc})
}

func (h hopTrace) wroteRequest(err error) {
	if h.t != nil && h.t.WroteRequest != nil {
		h.t.WroteRequest(httptrace.WroteRequestInfo{Err: err})
	}
}

func (h hopTrace) gotHead() {
	if h.t != nil && h.t.GotFirstResponseByte != nil {
		h.t.GotFirstResponseByte()
	}
}
