package internal

import (
	"context"

	"github.com/google/uuid"

	"github.com/frankli0324/go-minhttp/internal/http"
)

// RequestID stamps every hop with a fresh random UUID in header, unless
// the caller already set one.
func RequestID(header string) Middleware {
	return func(next Handler) Handler {
		return func(ctx context.Context, req *http.PreparedRequest) (*http.StreamResponse, error) {
			if req.Header.Has(header) {
				return next(ctx, req)
			}
			stamped := *req
			stamped.Header = append(req.Header.Clone(), http.Field{Name: header, Value: uuid.NewString()})
			return next(ctx, &stamped)
		}
	}
}

// DefaultHeader adds name: value to requests that do not carry name.
func DefaultHeader(name, value string) Middleware {
	return func(next Handler) Handler {
		return func(ctx context.Context, req *http.PreparedRequest) (*http.StreamResponse, error) {
			if req.Header.Has(name) {
				return next(ctx, req)
			}
			r := *req
			r.Header = append(req.Header.Clone(), http.Field{Name: name, Value: value})
			return next(ctx, &r)
		}
	}
}
