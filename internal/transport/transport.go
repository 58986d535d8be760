package transport

import (
	"io"

	"github.com/frankli0324/go-minhttp/internal/http"
)

type Transport interface {
	Write(w io.Writer, req *http.PreparedRequest) error
	Read(rc io.ReadCloser, req *http.PreparedRequest) (*http.StreamResponse, error)
}

var _ Transport = HTTP1{}
