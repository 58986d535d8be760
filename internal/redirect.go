package internal

import (
	"context"

	"github.com/frankli0324/go-minhttp/internal/config"
	"github.com/frankli0324/go-minhttp/internal/errdef"
	"github.com/frankli0324/go-minhttp/internal/http"
)

// redirectMethod decides the method of the next hop for a redirect
// status, and whether the body goes along. ok is false for statuses that
// are not followed.
func redirectMethod(code int, m http.Method) (next http.Method, keepBody, ok bool) {
	switch code {
	case 301, 302:
		if m == http.MethodPost {
			return http.MethodGet, false, true
		}
		return m, true, true
	case 303:
		if m == http.MethodHead {
			return m, false, true
		}
		return http.MethodGet, false, true
	case 307, 308:
		return m, true, true
	}
	return m, false, false
}

// maxRedirects resolves the budget of a call. A negative setting means
// no redirect may be followed.
func (c *Client) maxRedirects(req *http.Request) int {
	n := req.MaxRedirects
	if n == 0 {
		n = c.MaxRedirects
	}
	switch {
	case n < 0:
		return 0
	case n == 0:
		return config.DefaultMaxRedirects
	}
	return n
}

// follow runs hops until a response that is not followed. Bodies of
// intermediate responses are never drained: their connections are closed.
func (c *Client) follow(ctx context.Context, pr *http.PreparedRequest, hop Handler) (*http.StreamResponse, error) {
	budget := c.maxRedirects(pr.Request)
	for hops := 0; ; hops++ {
		resp, err := hop(ctx, pr)
		if err != nil {
			return nil, err
		}
		if c.DisableRedirects {
			return resp, nil
		}
		method, keepBody, ok := redirectMethod(resp.StatusCode, pr.Method)
		location := resp.Header.Get("Location")
		if !ok || location == "" {
			return resp, nil
		}
		resp.Body.Close()

		if hops >= budget {
			c.Logger.Warn().Int("redirects", hops).Str("url", pr.U.String()).Msg("redirect budget exhausted")
			return nil, errdef.New(errdef.KindTooManyRedirects, "stopped after %d redirects", hops)
		}
		next, err := pr.Follow(location, method, keepBody, c.IDNA)
		if err != nil {
			return nil, err
		}
		c.Logger.Debug().Int("status", resp.StatusCode).Str("from", pr.U.String()).
			Str("to", next.U.String()).Str("method", string(method)).Msg("following redirect")
		pr = next
	}
}
