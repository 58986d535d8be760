package transport

import (
	"bufio"
	"io"
	"strconv"
	"strings"

	"golang.org/x/net/http/httpguts"

	"github.com/frankli0324/go-minhttp/internal/errdef"
	"github.com/frankli0324/go-minhttp/internal/http"
	"github.com/frankli0324/go-minhttp/internal/transport/chunked"
)

// DefaultMaxHeaderBytes bounds the status line plus header section of a
// response when [HTTP1.MaxHeaderBytes] is zero.
const DefaultMaxHeaderBytes = 1 << 20

type HTTP1 struct {
	MaxHeaderBytes int
}

func (t HTTP1) Write(w io.Writer, r *http.PreparedRequest) error {
	body, err := r.GetBody() // can write body
	if err != nil {
		return err
	}
	if body != nil {
		defer body.Close() // request body is ALWAYS closed
	}

	bw := bufio.NewWriterSize(w, 32<<10)
	t.writeHeader(bw, r)
	if body != nil {
		if err := t.writeBody(bw, body, r); err != nil {
			return err
		}
	}
	if err := bw.Flush(); err != nil {
		return errdef.Wrap(errdef.KindIO, err, "write request")
	}
	return nil
}

// writeHeader writes the request line and header part of an http 1.1
// request. header fields are written verbatim, in order, e.g.:
//
//	GET / HTTP/1.1\r\n
//	Host: www.google.com\r\n
//	X-Xx-Yy: cccccc\r\n
//	\r\n
//
// errors are sticky in bufio.Writer and surface on Flush.
func (t HTTP1) writeHeader(w *bufio.Writer, r *http.PreparedRequest) {
	w.WriteString(string(r.Method))
	w.WriteByte(' ')
	w.WriteString(r.U.Target)
	w.WriteString(" HTTP/1.1\r\n")
	for _, f := range r.Header {
		w.WriteString(f.Name)
		w.WriteString(": ")
		w.WriteString(f.Value)
		w.WriteString("\r\n")
	}
	w.WriteString("\r\n")
}

func (t HTTP1) writeBody(w *bufio.Writer, body io.Reader, r *http.PreparedRequest) error {
	switch {
	case r.Chunked:
		cw := chunked.NewChunkedWriter(w)
		if _, err := io.Copy(cw, body); err != nil {
			return errdef.Wrap(errdef.KindIO, err, "write request body")
		}
		if err := cw.Close(); err != nil {
			return errdef.Wrap(errdef.KindIO, err, "write request body")
		}
	case r.ContentLength >= 0:
		n, err := io.CopyN(w, body, r.ContentLength)
		if err == io.EOF {
			return errdef.New(errdef.KindInvalidRequest, "request body is %d bytes, content-length is %d", n, r.ContentLength)
		}
		if err != nil {
			return errdef.Wrap(errdef.KindIO, err, "write request body")
		}
	default:
		if _, err := io.Copy(w, body); err != nil {
			return errdef.Wrap(errdef.KindIO, err, "write request body")
		}
	}
	return nil
}

// Read parses a response to r from rc. The returned body owns rc; on error
// rc is left to the caller.
func (t HTTP1) Read(rc io.ReadCloser, r *http.PreparedRequest) (*http.StreamResponse, error) {
	br := bufio.NewReader(rc)
	head, err := t.ReadHead(br, r.Method)
	if err != nil {
		return nil, err
	}
	return &http.StreamResponse{
		ResponseHead: *head,
		URL:          r.U,
		Body:         newBody(br, rc, head.Framing),
	}, nil
}

// ReadHead reads a status line and header section, skipping interim 1xx
// responses other than 101, and decides the body framing.
func (t HTTP1) ReadHead(br *bufio.Reader, method http.Method) (*http.ResponseHead, error) {
	max := t.MaxHeaderBytes
	if max <= 0 {
		max = DefaultMaxHeaderBytes
	}
	for {
		p := headReader{br: br, max: max}
		head, err := p.read()
		if err != nil {
			return nil, err
		}
		if head.StatusCode < 200 && head.StatusCode != 101 {
			continue
		}
		if head.Framing, err = framing(head, method); err != nil {
			return nil, err
		}
		return head, nil
	}
}

type headReader struct {
	br  *bufio.Reader
	n   int
	max int
}

func (p *headReader) readLine(what string) (string, error) {
	var line []byte
	for {
		frag, err := p.br.ReadSlice('\n')
		p.n += len(frag)
		if p.n > p.max {
			return "", errdef.New(errdef.KindInvalidHeader, "response head exceeds %d bytes", p.max)
		}
		line = append(line, frag...)
		if err == nil {
			break
		}
		if err == bufio.ErrBufferFull {
			continue
		}
		if err == io.EOF {
			return "", errdef.Wrap(errdef.KindUnexpectedEOF, io.ErrUnexpectedEOF, "connection closed in %s", what)
		}
		return "", errdef.Wrap(errdef.KindIO, err, "read %s", what)
	}
	line = line[:len(line)-1]
	if n := len(line); n > 0 && line[n-1] == '\r' {
		line = line[:n-1]
	}
	return string(line), nil
}

func (p *headReader) read() (*http.ResponseHead, error) {
	line, err := p.readLine("status line")
	if err != nil {
		return nil, err
	}
	head, err := parseStatusLine(line)
	if err != nil {
		return nil, err
	}

	for {
		line, err := p.readLine("header section")
		if err != nil {
			return nil, err
		}
		if line == "" {
			break
		}
		if line[0] == ' ' || line[0] == '\t' {
			// obs-fold continues the previous field
			if len(head.Header) == 0 {
				return nil, errdef.New(errdef.KindInvalidHeader, "continuation line before first header field")
			}
			last := &head.Header[len(head.Header)-1]
			last.Value += " " + strings.Trim(line, " \t")
			continue
		}
		name, value, ok := strings.Cut(line, ":")
		if !ok {
			return nil, errdef.New(errdef.KindInvalidHeader, "missing colon in header line %q", line)
		}
		if !httpguts.ValidHeaderFieldName(name) {
			return nil, errdef.New(errdef.KindInvalidHeader, "invalid header field name %q", name)
		}
		head.Header.Add(name, strings.Trim(value, " \t"))
	}
	return head, nil
}

// parseStatusLine accepts "HTTP/1.x NNN reason"; the reason may be empty.
func parseStatusLine(line string) (*http.ResponseHead, error) {
	proto, rest, ok := strings.Cut(line, " ")
	if !ok || len(proto) != len("HTTP/1.1") || !strings.HasPrefix(proto, "HTTP/1.") || !isDigit(proto[7]) {
		return nil, errdef.New(errdef.KindInvalidStatusLine, "malformed HTTP response %q", line)
	}
	code, reason, _ := strings.Cut(rest, " ")
	if len(code) != 3 || !isDigit(code[0]) || !isDigit(code[1]) || !isDigit(code[2]) {
		return nil, errdef.New(errdef.KindInvalidStatusLine, "malformed HTTP status code %q", code)
	}
	statusCode, _ := strconv.Atoi(code)
	if statusCode < 100 || statusCode > 599 {
		return nil, errdef.New(errdef.KindInvalidStatusLine, "HTTP status code %d out of range", statusCode)
	}
	return &http.ResponseHead{Proto: proto, StatusCode: statusCode, Reason: reason}, nil
}

func isDigit(b byte) bool {
	return '0' <= b && b <= '9'
}
