package http

import (
	"context"
	"os"

	"github.com/frankli0324/go-minhttp/internal"
	"github.com/frankli0324/go-minhttp/internal/config"
)

// DefaultClient is used by the package level helpers.
var DefaultClient = &Client{}

// LoadConfig reads the TOML file at path, if any, and applies the
// MINHTTP_* environment variables over it.
func LoadConfig(path string) (Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return Config{}, err
	}
	return config.FromEnv(cfg, os.Getenv), nil
}

// NewClient builds a client from cfg.
func NewClient(cfg Config) (*Client, error) {
	return internal.NewClient(cfg)
}

func Get(ctx context.Context, url string) (*Response, error) {
	return DefaultClient.CtxDo(ctx, &Request{Method: MethodGet, URL: url})
}

func Head(ctx context.Context, url string) (*Response, error) {
	return DefaultClient.CtxDo(ctx, &Request{Method: MethodHead, URL: url})
}

// Post sends body, which may be any type accepted by [Request.Body].
func Post(ctx context.Context, url, contentType string, body interface{}) (*Response, error) {
	req := &Request{Method: MethodPost, URL: url, Body: body}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	return DefaultClient.CtxDo(ctx, req)
}
