package chunked

import (
	"bufio"
	"bytes"
	"io"
	"strings"

	"golang.org/x/net/http/httpguts"

	"github.com/frankli0324/go-minhttp/internal/errdef"
	"github.com/frankli0324/go-minhttp/internal/http"
)

const maxLineLength = 4096

// NewChunkedReader decodes a chunked body from r. Trailer fields that
// follow the terminal chunk are collected and available from Trailer
// once Read has returned io.EOF.
func NewChunkedReader(r io.Reader) *Reader {
	var br *bufio.Reader
	if v, ok := r.(*bufio.Reader); ok {
		br = v
	} else {
		br = bufio.NewReader(r)
	}
	return &Reader{br: br}
}

type Reader struct {
	br                             *bufio.Reader
	currentChunk                   io.Reader
	currentCount, currentChunkSize int64

	trailer http.Header
	done    bool
	err     error
}

// Trailer returns the trailer section of the body, nil if there was none.
func (c *Reader) Trailer() http.Header {
	return c.trailer
}

// readLine reads one CRLF or LF terminated line. An overlong line is
// reported with kind.
func (c *Reader) readLine(kind errdef.Kind) ([]byte, error) {
	line, err := c.br.ReadSlice('\n')
	if err == bufio.ErrBufferFull || len(line) > maxLineLength {
		return nil, errdef.New(kind, "chunked body line too long")
	}
	if err != nil {
		return nil, eofIsUnexpected(err, "chunked body")
	}
	line = bytes.TrimSuffix(line, []byte("\n"))
	line = bytes.TrimSuffix(line, []byte("\r"))
	return line, nil
}

func (c *Reader) readChunkHeader() (size uint64, err error) {
	line, err := c.readLine(errdef.KindInvalidChunkSize)
	if err != nil {
		return 0, err
	}
	// chunk extensions are ignored
	if i := bytes.IndexByte(line, ';'); i >= 0 {
		line = line[:i]
	}
	line = bytes.TrimRight(line, " \t")
	if len(line) == 0 {
		return 0, errdef.New(errdef.KindInvalidChunkSize, "empty chunk size line")
	}
	if len(line) > 16 {
		return 0, errdef.New(errdef.KindInvalidChunkSize, "http chunk length too large")
	}
	for _, b := range line {
		switch {
		case '0' <= b && b <= '9':
			b = b - '0'
		case 'a' <= b && b <= 'f':
			b = b - 'a' + 10
		case 'A' <= b && b <= 'F':
			b = b - 'A' + 10
		default:
			return 0, errdef.New(errdef.KindInvalidChunkSize, "invalid byte %q in chunk length", b)
		}
		size <<= 4
		size |= uint64(b)
	}
	if size>>63 != 0 {
		return 0, errdef.New(errdef.KindInvalidChunkSize, "http chunk length too large")
	}
	return
}

func (c *Reader) readTrailer() error {
	for {
		line, err := c.readLine(errdef.KindInvalidHeader)
		if err != nil {
			return err
		}
		if len(line) == 0 {
			return nil
		}
		name, value, ok := strings.Cut(string(line), ":")
		if !ok || !httpguts.ValidHeaderFieldName(name) {
			return errdef.New(errdef.KindInvalidHeader, "malformed trailer line %q", line)
		}
		c.trailer.Add(name, strings.Trim(value, " \t"))
	}
}

func (c *Reader) Read(p []byte) (n int, err error) {
	if c.err != nil {
		return 0, c.err
	}
	n, err = c.read(p)
	if err != nil {
		c.err = err
	}
	return
}

func (c *Reader) read(p []byte) (n int, err error) {
	if c.done {
		return 0, io.EOF
	}
	if c.currentChunk == nil {
		l, err := c.readChunkHeader()
		if err != nil {
			return n, err
		}
		if l == 0 {
			if err := c.readTrailer(); err != nil {
				return 0, err
			}
			c.done = true
			return 0, io.EOF
		}
		c.currentChunk = io.LimitReader(c.br, int64(l))
		c.currentChunkSize = int64(l)
	}
	n, err = c.currentChunk.Read(p)
	c.currentCount += int64(n)
	if err == io.EOF || (err == nil && c.currentCount == c.currentChunkSize) {
		if c.currentCount != c.currentChunkSize {
			return n, errdef.Wrap(errdef.KindUnexpectedEOF, io.ErrUnexpectedEOF,
				"chunk ended after %d of %d bytes", c.currentCount, c.currentChunkSize)
		}
		dr, err := c.br.ReadByte()
		if err == nil {
			var dn byte
			dn, err = c.br.ReadByte()
			if err == nil && (dr != '\r' || dn != '\n') {
				return n, errdef.New(errdef.KindInvalidChunkSize, "missing CRLF after chunk data")
			}
		}
		if err != nil {
			return n, eofIsUnexpected(err, "chunk terminator")
		}
		c.currentChunk = nil
		c.currentCount = 0
		return n, nil
	}
	if err != nil {
		return n, errdef.Wrap(errdef.KindIO, err, "")
	}
	return
}

func eofIsUnexpected(err error, what string) error {
	if err == io.EOF || err == io.ErrUnexpectedEOF {
		return errdef.Wrap(errdef.KindUnexpectedEOF, io.ErrUnexpectedEOF, "connection closed in %s", what)
	}
	return errdef.Wrap(errdef.KindIO, err, "")
}
