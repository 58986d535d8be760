// Package http is a minimal blocking HTTP/1.1 client: one connection per
// request, no pooling, redirects followed within a budget.
package http

import (
	"github.com/frankli0324/go-minhttp/internal"
	"github.com/frankli0324/go-minhttp/internal/config"
	"github.com/frankli0324/go-minhttp/internal/errdef"
	"github.com/frankli0324/go-minhttp/internal/http"
)

type Client = internal.Client
type Options = internal.Options
type Config = config.Config

type Header = http.Header
type Field = http.Field
type Method = http.Method
type URL = http.URL
type Request = http.Request
type PreparedRequest = http.PreparedRequest
type Response = http.Response
type ResponseHead = http.ResponseHead
type StreamResponse = http.StreamResponse
type BodyStream = http.BodyStream
type Framing = http.Framing

type Handler = internal.Handler
type Middleware = internal.Middleware

type Error = errdef.Error
type ErrorKind = errdef.Kind

const (
	MethodGet     = http.MethodGet
	MethodHead    = http.MethodHead
	MethodPost    = http.MethodPost
	MethodPut     = http.MethodPut
	MethodDelete  = http.MethodDelete
	MethodConnect = http.MethodConnect
	MethodOptions = http.MethodOptions
	MethodTrace   = http.MethodTrace
	MethodPatch   = http.MethodPatch
)

// Errors returned by the client match these with errors.Is.
var (
	ErrMalformedURL         = errdef.Sentinel(errdef.KindMalformedURL)
	ErrInvalidRequest       = errdef.Sentinel(errdef.KindInvalidRequest)
	ErrConnect              = errdef.Sentinel(errdef.KindConnect)
	ErrTLS                  = errdef.Sentinel(errdef.KindTLS)
	ErrTimeout              = errdef.Sentinel(errdef.KindTimeout)
	ErrInvalidStatusLine    = errdef.Sentinel(errdef.KindInvalidStatusLine)
	ErrInvalidHeader        = errdef.Sentinel(errdef.KindInvalidHeader)
	ErrInvalidContentLength = errdef.Sentinel(errdef.KindInvalidContentLength)
	ErrInvalidChunkSize     = errdef.Sentinel(errdef.KindInvalidChunkSize)
	ErrUnexpectedEOF        = errdef.Sentinel(errdef.KindUnexpectedEOF)
	ErrTooManyRedirects     = errdef.Sentinel(errdef.KindTooManyRedirects)
	ErrIO                   = errdef.Sentinel(errdef.KindIO)
)

var (
	EncodeURIComponent = http.EncodeURIComponent
	DecodeURIComponent = http.DecodeURIComponent
	ToASCIIHost        = http.ToASCIIHost
	ParseURL           = http.ParseURL
)

// RequestID stamps every request with a random UUID in header.
func RequestID(header string) Middleware {
	return internal.RequestID(header)
}

func DefaultHeader(name, value string) Middleware {
	return internal.DefaultHeader(name, value)
}
