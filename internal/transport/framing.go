package transport

import (
	"bufio"
	"io"
	"strconv"
	"strings"

	"github.com/frankli0324/go-minhttp/internal/errdef"
	"github.com/frankli0324/go-minhttp/internal/http"
	"github.com/frankli0324/go-minhttp/internal/transport/chunked"
)

// framing decides how the body of a response ends. Responses that never
// carry a body (HEAD, 1xx, 204, 304) are Absent whatever they declare, but
// a malformed Content-Length is rejected on them too.
func framing(head *http.ResponseHead, method http.Method) (http.Framing, error) {
	chunked := head.Header.IsChunked()
	length := int64(-1)
	if !chunked {
		var err error
		if length, err = contentLength(head.Header); err != nil {
			return http.Framing{}, err
		}
	}

	switch {
	case method == http.MethodHead || head.StatusCode < 200 ||
		head.StatusCode == 204 || head.StatusCode == 304:
		return http.Framing{Mode: http.FramingAbsent}, nil
	case chunked:
		return http.Framing{Mode: http.FramingChunked}, nil
	case length < 0:
		return http.Framing{Mode: http.FramingCloseDelimited}, nil
	}
	return http.Framing{Mode: http.FramingContentLength, Length: length}, nil
}

// contentLength returns the declared length, or -1 when there is none.
func contentLength(h http.Header) (int64, error) {
	contentLens := h.Values("Content-Length")
	if len(contentLens) == 0 {
		return -1, nil
	}
	// Hardening against HTTP response smuggling, taken from standard library
	// Per RFC 7230 Section 3.3.2
	first := strings.TrimSpace(contentLens[0])
	for _, ct := range contentLens[1:] {
		if first != strings.TrimSpace(ct) {
			return 0, errdef.New(errdef.KindInvalidContentLength,
				"message cannot contain multiple Content-Length headers; got %q", contentLens)
		}
	}
	n, err := strconv.ParseUint(first, 10, 63)
	if err != nil {
		return 0, errdef.New(errdef.KindInvalidContentLength, "bad Content-Length %q", first)
	}
	return int64(n), nil
}

func newBody(br *bufio.Reader, conn io.Closer, f http.Framing) *http.BodyStream {
	switch f.Mode {
	case http.FramingContentLength:
		return http.NewBodyStream(&lengthReader{r: br, n: f.Length, total: f.Length}, conn, nil)
	case http.FramingChunked:
		cr := chunked.NewChunkedReader(br)
		return http.NewBodyStream(cr, conn, cr.Trailer)
	case http.FramingCloseDelimited:
		return http.NewBodyStream(closeReader{br}, conn, nil)
	}
	return http.NewBodyStream(eofReader{}, conn, nil)
}

// lengthReader reads exactly n bytes; running out early is an error.
type lengthReader struct {
	r        io.Reader
	n, total int64
}

func (l *lengthReader) Read(p []byte) (int, error) {
	if l.n <= 0 {
		return 0, io.EOF
	}
	if int64(len(p)) > l.n {
		p = p[:l.n]
	}
	n, err := l.r.Read(p)
	l.n -= int64(n)
	switch {
	case err == io.EOF && l.n > 0:
		return n, errdef.Wrap(errdef.KindUnexpectedEOF, io.ErrUnexpectedEOF,
			"body ended after %d of %d bytes", l.total-l.n, l.total)
	case err != nil && err != io.EOF:
		return n, errdef.Wrap(errdef.KindIO, err, "read body")
	case l.n == 0:
		return n, io.EOF
	}
	return n, nil
}

// closeReader reads until the peer closes the connection.
type closeReader struct {
	r io.Reader
}

func (c closeReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	if err != nil && err != io.EOF {
		return n, errdef.Wrap(errdef.KindIO, err, "read body")
	}
	return n, err
}

type eofReader struct{}

func (eofReader) Read([]byte) (int, error) { return 0, io.EOF }
