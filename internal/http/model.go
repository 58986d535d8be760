package http

import (
	"encoding/json"
	"strconv"
	"time"

	"github.com/frankli0324/go-minhttp/internal/errdef"
)

type Request struct {
	Method Method
	URL    string
	Header Header
	// Body is one of string, []byte, *bytes.Buffer, *bytes.Reader,
	// *strings.Reader or io.Reader. Readers of unknown size are sent with
	// chunked transfer coding and cannot be replayed on a 307/308.
	Body interface{}

	Timeout      time.Duration // zero falls back to the client's
	MaxRedirects int           // zero falls back to the client's, negative forbids redirects
	// EncodeTarget percent-encodes characters of the path and query that
	// are not allowed on the request line. Off by default: targets are
	// sent exactly as given.
	EncodeTarget bool
}

// SetJSON marshals v as the request body and marks it as JSON.
func (r *Request) SetJSON(v interface{}) error {
	b, err := json.Marshal(v)
	if err != nil {
		return errdef.Wrap(errdef.KindInvalidRequest, err, "marshal json body")
	}
	r.Body = b
	r.Header.Set("Content-Type", "application/json")
	return nil
}

type FramingMode int

const (
	FramingAbsent FramingMode = iota
	FramingContentLength
	FramingChunked
	FramingCloseDelimited
)

// Framing tells where a response body ends. Length is only meaningful
// for FramingContentLength.
type Framing struct {
	Mode   FramingMode
	Length int64
}

func (f Framing) String() string {
	switch f.Mode {
	case FramingAbsent:
		return "absent"
	case FramingContentLength:
		return "content-length(" + strconv.FormatInt(f.Length, 10) + ")"
	case FramingChunked:
		return "chunked"
	case FramingCloseDelimited:
		return "close-delimited"
	}
	return "unknown"
}

type ResponseHead struct {
	Proto      string // e.g. "HTTP/1.1"
	StatusCode int
	Reason     string
	Header     Header
	Framing    Framing
}

// Status returns the status code and reason, e.g. "200 OK".
func (h *ResponseHead) Status() string {
	s := strconv.Itoa(h.StatusCode)
	if h.Reason != "" {
		s += " " + h.Reason
	}
	return s
}

// ContentLength returns the declared body length, or -1.
func (h *ResponseHead) ContentLength() int64 {
	switch h.Framing.Mode {
	case FramingContentLength:
		return h.Framing.Length
	case FramingAbsent:
		return 0
	}
	return -1
}

// Response is a complete response with its body read into memory. For
// chunked responses Header also holds any trailer fields, after the
// fields of the header section.
type Response struct {
	ResponseHead
	URL  *URL // the URL that produced this response, after redirects
	Body []byte
}

// JSON unmarshals the body into v.
func (r *Response) JSON(v interface{}) error {
	if err := json.Unmarshal(r.Body, v); err != nil {
		return errdef.Wrap(errdef.KindIO, err, "decode json body")
	}
	return nil
}

// StreamResponse is a response whose body has not been read yet. Body
// owns the connection: it must be read to the end or closed.
type StreamResponse struct {
	ResponseHead
	URL  *URL
	Body *BodyStream
}

// ReadAll materializes the body and closes the stream. Trailer fields of
// a chunked body are merged into the returned header set.
func (r *StreamResponse) ReadAll() (*Response, error) {
	defer r.Body.Close()
	b, err := r.Body.ReadAll()
	if err != nil {
		return nil, err
	}
	resp := &Response{ResponseHead: r.ResponseHead, URL: r.URL, Body: b}
	if tr := r.Body.Trailer(); len(tr) > 0 {
		resp.Header = append(resp.Header.Clone(), tr...)
	}
	return resp, nil
}
