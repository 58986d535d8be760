package http

import (
	"net"
	"net/url"
	"strconv"
	"strings"

	"github.com/frankli0324/go-minhttp/internal/errdef"
)

var defaultPorts = map[string]uint16{
	"http": 80, "https": 443,
}

// URL is a resolved request target. Target is the path and query exactly
// as they go on the request line; it is never re-encoded here.
type URL struct {
	Scheme string
	Host   string // no port, no IPv6 brackets
	Port   uint16
	Target string
	User   *url.Userinfo

	raw *url.URL // kept for resolving relative references
}

// ParseURL parses target, resolving it against base when base is not nil
// and target is relative. Absolute targets replace the base entirely.
func ParseURL(target string, base *URL) (*URL, error) {
	ref, err := url.Parse(target)
	if err != nil {
		return nil, errdef.Wrap(errdef.KindMalformedURL, err, "")
	}

	u, verbatim := ref, ref.IsAbs()
	if !verbatim && base != nil {
		u = base.netURL().ResolveReference(ref)
	}

	scheme := strings.ToLower(u.Scheme)
	if scheme == "" {
		return nil, errdef.New(errdef.KindMalformedURL, "missing scheme in %q", target)
	}
	defPort, ok := defaultPorts[scheme]
	if !ok {
		return nil, errdef.New(errdef.KindMalformedURL, "unsupported scheme %q", u.Scheme)
	}
	host := u.Hostname()
	if host == "" {
		return nil, errdef.New(errdef.KindMalformedURL, "empty host in %q", target)
	}
	port := defPort
	if p := u.Port(); p != "" {
		n, err := strconv.ParseUint(p, 10, 16)
		if err != nil || n == 0 {
			return nil, errdef.New(errdef.KindMalformedURL, "invalid port %q", p)
		}
		port = uint16(n)
	}

	res := &URL{
		Scheme: scheme, Host: host, Port: port,
		User: u.User, raw: u,
	}
	if verbatim {
		res.Target = rawTarget(target)
	} else {
		res.Target = u.RequestURI()
	}
	return res, nil
}

// rawTarget cuts the path and query out of an absolute URL string without
// touching their encoding.
func rawTarget(s string) string {
	if i := strings.Index(s, "://"); i >= 0 {
		s = s[i+3:]
	}
	j := strings.IndexAny(s, "/?#")
	if j < 0 {
		return "/"
	}
	s = s[j:]
	if k := strings.IndexByte(s, '#'); k >= 0 {
		s = s[:k]
	}
	if s == "" || s[0] != '/' {
		s = "/" + s
	}
	return s
}

func (u *URL) netURL() *url.URL {
	if u.raw != nil {
		return u.raw
	}
	nu, err := url.Parse(u.String())
	if err != nil {
		return &url.URL{Scheme: u.Scheme, Host: u.Authority()}
	}
	return nu
}

// TLS reports whether the scheme requires an encrypted stream.
func (u *URL) TLS() bool {
	return u.Scheme == "https"
}

// HostPort is the address to dial.
func (u *URL) HostPort() string {
	return net.JoinHostPort(u.Host, strconv.Itoa(int(u.Port)))
}

// Authority is the value of the Host header: the default port is omitted.
func (u *URL) Authority() string {
	if u.Port == defaultPorts[u.Scheme] {
		if strings.IndexByte(u.Host, ':') >= 0 {
			return "[" + u.Host + "]"
		}
		return u.Host
	}
	return u.HostPort()
}

// SameOrigin reports whether both URLs address the same scheme, host and port.
func (u *URL) SameOrigin(o *URL) bool {
	return u.Scheme == o.Scheme && strings.EqualFold(u.Host, o.Host) && u.Port == o.Port
}

// WithHost returns a copy of u addressed to host, used after IDNA
// conversion. Target and user info are kept.
func (u *URL) WithHost(host string) *URL {
	c := *u
	c.Host = host
	if u.raw != nil {
		raw := *u.raw
		raw.Host = c.Authority()
		c.raw = &raw
	}
	return &c
}

func (u *URL) String() string {
	return u.Scheme + "://" + u.Authority() + u.Target
}
