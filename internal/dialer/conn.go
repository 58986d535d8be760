package dialer

import (
	"context"
	"errors"
	"io"
	"net"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/frankli0324/go-minhttp/internal/errdef"
)

// Conn is the stream a request is written to and its response read
// from: a plain TCP connection or a TLS session over one. Both
// [net.Conn] and *[crypto/tls.Conn] satisfy it.
type Conn interface {
	io.ReadWriteCloser
	SetDeadline(t time.Time) error
}

var aLongTimeAgo = time.Unix(1, 0)

// DeadlineConn enforces one absolute deadline across every Read and Write
// made through it. Once the deadline has passed calls fail with a timeout
// without touching the socket. Errors coming out of it are always
// classified: timeouts, aborts and other I/O failures; io.EOF is passed
// through untouched so framing code can tell a clean close apart.
type DeadlineConn struct {
	conn Conn

	mu       sync.Mutex
	deadline time.Time
	armed    bool

	aborted atomic.Bool
	cause   error
}

// Deadline wraps c. A zero deadline means no limit.
func Deadline(c Conn, deadline time.Time) *DeadlineConn {
	return &DeadlineConn{conn: c, deadline: deadline}
}

func (c *DeadlineConn) Raw() Conn {
	return c.conn
}

// SetDeadline moves the deadline; it is applied on the next Read or Write.
func (c *DeadlineConn) SetDeadline(t time.Time) error {
	c.mu.Lock()
	c.deadline, c.armed = t, false
	c.mu.Unlock()
	return nil
}

// Abort interrupts any blocked Read or Write and fails all later ones
// with cause. It is safe to call from another goroutine.
func (c *DeadlineConn) Abort(cause error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.aborted.Swap(true) {
		return
	}
	c.cause = cause
	c.conn.SetDeadline(aLongTimeAgo)
}

func (c *DeadlineConn) arm(op string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.aborted.Load() {
		return c.abortErr(op)
	}
	if c.deadline.IsZero() {
		if !c.armed {
			// a conn that refuses to clear its deadline is closed, the
			// operation itself reports that
			c.armed = true
			c.conn.SetDeadline(time.Time{})
		}
		return nil
	}
	if !time.Now().Before(c.deadline) {
		return errdef.New(errdef.KindTimeout, "deadline reached before %s", op)
	}
	if c.armed {
		return nil
	}
	if err := c.conn.SetDeadline(c.deadline); err != nil {
		return c.classifyLocked(err, op)
	}
	c.armed = true
	return nil
}

func (c *DeadlineConn) Read(p []byte) (int, error) {
	if err := c.arm("read"); err != nil {
		return 0, err
	}
	n, err := c.conn.Read(p)
	return n, c.classify(err, "read")
}

// Write loops until p is written entirely or an error occurs.
func (c *DeadlineConn) Write(p []byte) (n int, err error) {
	if err := c.arm("write"); err != nil {
		return 0, err
	}
	for len(p) > 0 {
		m, err := c.conn.Write(p)
		n += m
		p = p[m:]
		if err != nil {
			return n, c.classify(err, "write")
		}
		if m == 0 {
			return n, errdef.Wrap(errdef.KindIO, io.ErrShortWrite, "write")
		}
	}
	return n, nil
}

func (c *DeadlineConn) Close() error {
	return c.conn.Close()
}

func (c *DeadlineConn) abortErr(op string) error {
	if errors.Is(c.cause, context.DeadlineExceeded) {
		return errdef.Wrap(errdef.KindTimeout, c.cause, "%s", op)
	}
	return errdef.Wrap(errdef.KindIO, c.cause, "%s aborted", op)
}

func (c *DeadlineConn) classify(err error, op string) error {
	if err == nil || err == io.EOF {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.classifyLocked(err, op)
}

// classifyLocked is classify for callers holding mu.
func (c *DeadlineConn) classifyLocked(err error, op string) error {
	switch {
	case err == nil || err == io.EOF:
		return err
	case c.aborted.Load():
		return c.abortErr(op)
	case isTimeout(err):
		return errdef.Wrap(errdef.KindTimeout, err, "%s", op)
	case err == io.ErrUnexpectedEOF:
		return errdef.Wrap(errdef.KindUnexpectedEOF, err, "%s", op)
	}
	return errdef.Wrap(errdef.KindIO, err, "%s", op)
}

func isTimeout(err error) bool {
	if errors.Is(err, os.ErrDeadlineExceeded) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}
