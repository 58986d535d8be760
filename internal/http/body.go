package http

import (
	"io"
	"sync"
	"sync/atomic"

	"github.com/frankli0324/go-minhttp/internal/errdef"
)

const chunkBufferSize = 16 << 10

var errBodyClosed = errdef.New(errdef.KindIO, "read on closed response body")

// BodyStream is a one-pass cursor over a response body. It owns the
// connection the body is read from: the connection is closed as soon as
// the body is exhausted, fails, or the stream is closed early. Closing
// early discards the connection instead of draining it.
type BodyStream struct {
	r       io.Reader
	conn    io.Closer
	trailer func() Header

	closeConn sync.Once
	onClose   []func()
	closed    atomic.Bool
	err       error // sticky, io.EOF once done

	buf []byte
}

// NewBodyStream binds a framed body reader to the connection it reads
// from. trailer may be nil when the framing carries no trailer section.
func NewBodyStream(r io.Reader, conn io.Closer, trailer func() Header) *BodyStream {
	return &BodyStream{r: r, conn: conn, trailer: trailer}
}

// OnClose registers f to run once when the connection is released.
func (b *BodyStream) OnClose(f func()) {
	b.onClose = append(b.onClose, f)
}

func (b *BodyStream) Read(p []byte) (int, error) {
	if b.closed.Load() {
		return 0, errBodyClosed
	}
	if b.err != nil {
		return 0, b.err
	}
	n, err := b.r.Read(p)
	if err != nil {
		b.err = err
		b.release()
	}
	return n, err
}

// Next returns the next piece of the body, or io.EOF once the body is
// exhausted. The slice is only valid until the following call.
func (b *BodyStream) Next() ([]byte, error) {
	if b.buf == nil {
		b.buf = make([]byte, chunkBufferSize)
	}
	for {
		n, err := b.Read(b.buf)
		if n > 0 {
			return b.buf[:n], nil
		}
		if err != nil {
			return nil, err
		}
	}
}

// ReadAll reads the remaining body. A clean end is not an error.
func (b *BodyStream) ReadAll() ([]byte, error) {
	return io.ReadAll(b)
}

// Trailer returns the trailer fields of a chunked body. It is empty until
// the body has been read to the end.
func (b *BodyStream) Trailer() Header {
	if b.trailer == nil || b.err != io.EOF {
		return nil
	}
	return b.trailer()
}

// Done reports whether the body has been read to the end.
func (b *BodyStream) Done() bool {
	return b.err == io.EOF
}

func (b *BodyStream) Close() error {
	if b.closed.Swap(true) {
		return nil
	}
	return b.release()
}

func (b *BodyStream) release() (err error) {
	b.closeConn.Do(func() {
		if b.conn != nil {
			err = b.conn.Close()
		}
		for _, f := range b.onClose {
			f()
		}
	})
	return
}
