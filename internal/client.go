package internal

import (
	"context"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/frankli0324/go-minhttp/internal/config"
	"github.com/frankli0324/go-minhttp/internal/dialer"
	"github.com/frankli0324/go-minhttp/internal/http"
	"github.com/frankli0324/go-minhttp/internal/transport"
)

// Handler performs one hop: a single request on a fresh connection.
// The returned body owns that connection.
type Handler = func(ctx context.Context, req *http.PreparedRequest) (*http.StreamResponse, error)
type Middleware func(next Handler) Handler

type Options struct {
	// Timeout bounds a whole call, redirects included. Zero falls back to
	// MINHTTP_TIMEOUT, then to no limit.
	Timeout        time.Duration
	ConnectTimeout time.Duration // only applied when no Dialer is set

	MaxRedirects     int // zero means config.DefaultMaxRedirects, negative forbids redirects
	DisableRedirects bool
	IDNA             bool // convert international host names to punycode

	MaxHeaderBytes int
	Logger         zerolog.Logger // the zero value logs nothing
}

type Client struct {
	Options

	middlewares []Middleware
	dialer      dialer.Dialer
}

// Use appends mw to the end of the chain. The last "Use"d mw executes first
func (c *Client) Use(mws ...Middleware) {
	c.middlewares = append(c.middlewares, mws...)
}

// UseDialer replaces the dialer with the one returned by f, which receives
// the current dialer so it can wrap it.
func (c *Client) UseDialer(f func(dialer.Dialer) dialer.Dialer) {
	c.dialer = f(c.getDialer())
}

var getenv = os.Getenv

func (c *Client) getDialer() dialer.Dialer {
	if c.dialer != nil {
		return c.dialer
	}
	return &dialer.CoreDialer{ConnectTimeout: c.ConnectTimeout}
}

func (c *Client) transport() transport.Transport {
	return transport.HTTP1{MaxHeaderBytes: c.MaxHeaderBytes}
}

func (c *Client) Do(req *http.Request) (*http.Response, error) {
	return c.CtxDo(context.Background(), req)
}

// CtxDo sends req, follows redirects and reads the whole final body.
func (c *Client) CtxDo(ctx context.Context, req *http.Request) (*http.Response, error) {
	resp, err := c.CtxStream(ctx, req)
	if err != nil {
		return nil, err
	}
	return resp.ReadAll()
}

func (c *Client) Stream(req *http.Request) (*http.StreamResponse, error) {
	return c.CtxStream(context.Background(), req)
}

// CtxStream sends req and follows redirects, returning once the head of
// the final response is parsed. The caller must read the body to the end
// or close it. Cancelling ctx aborts the call, body reads included.
func (c *Client) CtxStream(ctx context.Context, req *http.Request) (*http.StreamResponse, error) {
	pr, err := req.PrepareWith(http.PrepareConfig{IDNA: c.IDNA})
	if err != nil {
		return nil, err
	}
	deadline := c.deadline(ctx, req)

	next := c.roundTrip(deadline)
	for _, mw := range c.middlewares {
		next = mw(next)
	}
	return c.follow(ctx, pr, next)
}

// deadline is min(now + timeout, ctx deadline); zero when neither exists.
func (c *Client) deadline(ctx context.Context, req *http.Request) time.Time {
	timeout := req.Timeout
	if timeout <= 0 {
		timeout = c.Timeout
	}
	if timeout <= 0 {
		timeout = config.EnvTimeoutValue(getenv)
	}
	var d time.Time
	if timeout > 0 {
		d = time.Now().Add(timeout)
	}
	if cd, ok := ctx.Deadline(); ok && (d.IsZero() || cd.Before(d)) {
		d = cd
	}
	return d
}

func (c *Client) roundTrip(deadline time.Time) Handler {
	return func(ctx context.Context, pr *http.PreparedRequest) (*http.StreamResponse, error) {
		log := c.Logger.With().Str("method", string(pr.Method)).Str("url", pr.U.String()).Logger()

		dctx := ctx
		if !deadline.IsZero() {
			var cancel context.CancelFunc
			dctx, cancel = context.WithDeadline(ctx, deadline)
			defer cancel()
		}
		trace := traceOf(ctx)
		trace.getConn(pr)
		start := time.Now()
		conn, err := c.getDialer().Dial(dctx, pr)
		if err != nil {
			log.Debug().Err(err).Msg("dial failed")
			return nil, err
		}
		trace.gotConn(conn)
		log.Debug().Dur("elapsed", time.Since(start)).Msg("connected")

		dc := dialer.Deadline(conn, deadline)
		stop := context.AfterFunc(ctx, func() { dc.Abort(context.Cause(ctx)) })
		fail := func(err error) (*http.StreamResponse, error) {
			stop()
			dc.Close()
			log.Debug().Err(err).Msg("request failed")
			return nil, err
		}

		t := c.transport()
		err = t.Write(dc, pr)
		trace.wroteRequest(err)
		if err != nil {
			return fail(err)
		}
		log.Debug().Msg("request written")
		resp, err := t.Read(dc, pr)
		if err != nil {
			return fail(err)
		}
		trace.gotHead()
		resp.Body.OnClose(func() { stop() })
		log.Debug().Int("status", resp.StatusCode).Stringer("framing", resp.Framing).Msg("response head parsed")
		return resp, nil
	}
}
