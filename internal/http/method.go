package http

import (
	"golang.org/x/net/http/httpguts"
)

// Method is a request method. Any token is accepted, the constants cover
// the methods defined by RFC 9110 plus PATCH.
type Method string

const (
	MethodGet     Method = "GET"
	MethodHead    Method = "HEAD"
	MethodPost    Method = "POST"
	MethodPut     Method = "PUT"
	MethodDelete  Method = "DELETE"
	MethodConnect Method = "CONNECT"
	MethodOptions Method = "OPTIONS"
	MethodTrace   Method = "TRACE"
	MethodPatch   Method = "PATCH"
)

// Valid reports whether m is a non-empty token. Method and header field
// names share the tchar grammar.
func (m Method) Valid() bool {
	return httpguts.ValidHeaderFieldName(string(m))
}

func (m Method) String() string {
	return string(m)
}
