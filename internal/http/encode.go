package http

import (
	"net/url"
	"strings"

	"golang.org/x/net/idna"

	"github.com/frankli0324/go-minhttp/internal/errdef"
)

// EncodeURIComponent percent-encodes everything outside the RFC 3986
// unreserved set.
func EncodeURIComponent(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}

// DecodeURIComponent reverses [EncodeURIComponent]. '+' is left alone.
func DecodeURIComponent(s string) (string, error) {
	return url.PathUnescape(s)
}

// EncodeTarget percent-encodes bytes in a request target that may not
// appear on the request line (non-ASCII, controls, space and a handful of
// delimiters). Existing escapes and reserved characters are kept, so
// calling it on an already encoded target is a no-op.
func EncodeTarget(target string) string {
	var b strings.Builder
	b.Grow(len(target))
	for i := 0; i < len(target); i++ {
		c := target[i]
		if c == '%' && i+2 < len(target) && ishex(target[i+1]) && ishex(target[i+2]) {
			b.WriteByte(c)
			continue
		}
		if c <= ' ' || c >= 0x7f || strings.IndexByte(`"%<>\^`+"`{|}", c) >= 0 {
			b.WriteByte('%')
			b.WriteByte(upperhex[c>>4])
			b.WriteByte(upperhex[c&15])
			continue
		}
		b.WriteByte(c)
	}
	return b.String()
}

const upperhex = "0123456789ABCDEF"

func ishex(c byte) bool {
	return '0' <= c && c <= '9' || 'a' <= c && c <= 'f' || 'A' <= c && c <= 'F'
}

// ToASCIIHost converts an internationalized host name to its punycode
// form. ASCII hosts and IP literals are returned as they are.
func ToASCIIHost(host string) (string, error) {
	ascii := true
	for i := 0; i < len(host); i++ {
		if host[i] >= 0x80 {
			ascii = false
			break
		}
	}
	if ascii {
		return host, nil
	}
	h, err := idna.Lookup.ToASCII(host)
	if err != nil {
		return "", errdef.Wrap(errdef.KindMalformedURL, err, "punycode conversion of %q", host)
	}
	return h, nil
}
