package dialer

import (
	"github.com/frankli0324/go-minhttp/internal/dialer"
)

// Dialers are responsible for creating underlying streams that http requests could
// be written to and responses could be read from: a raw TCP connection, a
// TLS session over one, or either tunneled through a CONNECT proxy.
//
// A Dialer MUST NOT hold active connection states, which means a Dialer must
// be able to be swapped out from a [Client] without pain. It SHOULD hold the
// connection related configs like [ProxyConfig], [TrustStore] or
// *[crypto/tls.Config].
type Dialer = dialer.Dialer

// CoreDialer is the default implementation of the [Dialer] interface. It would
// be used by a zero value [Client].
type CoreDialer = dialer.CoreDialer

// Conn is what a [Dialer] hands back.
type Conn = dialer.Conn

type ProxyConfig = dialer.ProxyConfig

// we need a dedicated resolver for two scenarios:
//
//  1. Resolve remote address locally in proxied requests
//  2. to customize the DNS server used for resolving hostname
//
// the standard library didn't provide a intuitive way of
// setting DNS server addresses since it only follows the
// system configuration (e.g. /etc/resolv.conf), leaving us only
// one option of using [net.Resolver.Dial] hook with a Go Resolver.
type ResolveConfig = dialer.ResolveConfig

// TrustStore is an immutable set of root certificates shared by dialers.
type TrustStore = dialer.TrustStore
type RootMode = dialer.RootMode

type TLSBackend = dialer.TLSBackend
type TLSOptions = dialer.TLSOptions
type SocketOptions = dialer.SocketOptions

const (
	RootAppend  = dialer.RootAppend
	RootReplace = dialer.RootReplace
)

var (
	NewTrustStore        = dialer.NewTrustStore
	SystemTrustStore     = dialer.SystemTrustStore
	LoadTrustStore       = dialer.LoadTrustStore
	ProxyFromEnvironment = dialer.ProxyFromEnvironment
	StaticProxy          = dialer.StaticProxy
)
