//go:build minhttp_notls

package dialer

import (
	"context"
	"net"

	"github.com/frankli0324/go-minhttp/internal/errdef"
)

func newDefaultTLS() TLSBackend { return noTLS{} }

// noTLS is linked in builds tagged minhttp_notls; https targets fail
// unless a backend is supplied through [CoreDialer.TLS].
type noTLS struct{}

func (noTLS) Name() string { return "none" }

func (noTLS) Handshake(_ context.Context, _ net.Conn, serverName string, _ TLSOptions) (Conn, error) {
	return nil, errdef.New(errdef.KindTLS, "no tls backend in this build, cannot reach %s", serverName)
}
