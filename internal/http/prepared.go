package http

import (
	"bytes"
	"io"
	"strconv"
	"strings"
	"sync/atomic"

	"github.com/frankli0324/go-minhttp/internal/errdef"
)

// PreparedRequest is a validated request ready to be written. It is not
// modified after Prepare; a redirect produces a new one via [PreparedRequest.Follow].
type PreparedRequest struct {
	*Request

	Method Method
	U      *URL
	// Header is the exact header section to write, in order: Host when
	// synthesized, the caller's fields, then a synthesized Content-Length
	// or Transfer-Encoding.
	Header  Header
	GetBody func() (io.ReadCloser, error)

	ContentLength int64 // -1 when unknown or there is no body
	HasBody       bool
	Chunked       bool // the body goes out with chunked transfer coding

	user Header // caller fields carried over to redirects
	body bodySource
}

// PrepareConfig carries the client settings that affect preparation.
type PrepareConfig struct {
	Base *URL // resolves a relative Request.URL
	IDNA bool // convert non-ASCII hosts to punycode
}

func (r *Request) Prepare() (*PreparedRequest, error) {
	return r.PrepareWith(PrepareConfig{})
}

func (r *Request) PrepareWith(cfg PrepareConfig) (*PreparedRequest, error) {
	method := r.Method
	if method == "" {
		method = MethodGet
	}
	u, err := parseTarget(r.URL, cfg)
	if err != nil {
		return nil, err
	}
	if r.EncodeTarget {
		u.Target = EncodeTarget(u.Target)
	}
	src, err := newBodySource(r.Body)
	if err != nil {
		return nil, err
	}
	return build(r, method, u, r.Header.Clone(), src)
}

// Follow prepares the next hop of a redirect to location, resolved
// against the current URL. When keepBody is false the body and the
// fields describing it are dropped. Credentials and a caller supplied
// Host are dropped when the origin changes.
func (r *PreparedRequest) Follow(location string, method Method, keepBody bool, idna bool) (*PreparedRequest, error) {
	u, err := parseTarget(location, PrepareConfig{Base: r.U, IDNA: idna})
	if err != nil {
		return nil, err
	}
	header, src := r.user.Clone(), r.body
	if !keepBody {
		src = bodySource{}
		header.Del("Content-Length")
		header.Del("Content-Type")
		header.Del("Transfer-Encoding")
	}
	if !u.SameOrigin(r.U) {
		header.Del("Authorization")
		header.Del("Cookie")
		header.Del("Host")
	}
	return build(r.Request, method, u, header, src)
}

func parseTarget(target string, cfg PrepareConfig) (*URL, error) {
	u, err := ParseURL(target, cfg.Base)
	if err != nil {
		return nil, err
	}
	if cfg.IDNA {
		h, err := ToASCIIHost(u.Host)
		if err != nil {
			return nil, err
		}
		if h != u.Host {
			u = u.WithHost(h)
		}
	}
	return u, nil
}

func build(r *Request, method Method, u *URL, user Header, src bodySource) (*PreparedRequest, error) {
	if !method.Valid() {
		return nil, errdef.New(errdef.KindInvalidRequest, "invalid method %q", string(method))
	}
	pr := &PreparedRequest{
		Request: r, Method: method, U: u,
		GetBody:       src.get,
		ContentLength: src.length,
		HasBody:       src.present,
		user:          user,
		body:          src,
	}
	if pr.GetBody == nil {
		pr.GetBody = func() (io.ReadCloser, error) { return nil, nil }
		pr.ContentLength = -1
	}

	// user defined headers has higher priority
	if v := user.Values("Content-Length"); len(v) != 0 && src.present {
		cl, err := strconv.ParseInt(strings.TrimSpace(v[0]), 10, 64)
		switch {
		case err != nil || cl < 0:
			return nil, errdef.New(errdef.KindInvalidRequest, "invalid content-length request header %q", v[0])
		case src.length == -1:
			pr.ContentLength = cl
		case cl != src.length:
			return nil, errdef.New(errdef.KindInvalidRequest, "conflicting value between body size %d and content-length request header %q", src.length, v[0])
		}
	}

	header := make(Header, 0, len(user)+2)
	if !user.Has("Host") {
		header.Add("Host", u.Authority())
	}
	header = append(header, user...)
	switch {
	case user.IsChunked():
		pr.Chunked = src.present
	case user.Has("Content-Length") || user.Has("Transfer-Encoding") || !src.present:
	case src.length >= 0:
		header.Add("Content-Length", strconv.FormatInt(src.length, 10))
	default:
		header.Add("Transfer-Encoding", "chunked")
		pr.Chunked = true
	}
	pr.Header = header
	return pr, nil
}

type bodySource struct {
	get     func() (io.ReadCloser, error)
	length  int64
	present bool
}

// newBodySource is called once per [Request.Prepare]; replayable bodies
// hand out a fresh reader on every call of get.
func newBodySource(body interface{}) (bodySource, error) {
	if body == nil {
		return bodySource{length: -1}, nil
	}
	s := bodySource{present: true, length: -1}
	switch b := body.(type) {
	case string:
		s.length = int64(len(b))
		s.get = func() (io.ReadCloser, error) {
			return io.NopCloser(strings.NewReader(b)), nil
		}
	case []byte:
		s.length = int64(len(b))
		s.get = func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader(b)), nil
		}
	case *bytes.Buffer: // below is taken from http.NewRequest
		buf := b.Bytes()
		s.length = int64(len(buf))
		s.get = func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader(buf)), nil
		}
	case *bytes.Reader:
		s.length = int64(b.Len())
		snapshot := *b
		s.get = func() (io.ReadCloser, error) {
			r := snapshot
			return io.NopCloser(&r), nil
		}
	case *strings.Reader:
		s.length = int64(b.Len())
		snapshot := *b
		s.get = func() (io.ReadCloser, error) {
			r := snapshot
			return io.NopCloser(&r), nil
		}
	case io.Reader:
		if sizer, ok := b.(interface{ Size() int64 }); ok {
			s.length = sizer.Size()
		}
		cb, ok := b.(io.ReadCloser)
		if !ok {
			cb = io.NopCloser(b)
		}
		once := atomic.Bool{}
		s.get = func() (io.ReadCloser, error) {
			if once.CompareAndSwap(false, true) {
				return cb, nil
			}
			return nil, errdef.New(errdef.KindIO, "request body already consumed and cannot be replayed")
		}
	default:
		return s, errdef.New(errdef.KindInvalidRequest, "unsupported body type: %T", body)
	}
	return s, nil
}
