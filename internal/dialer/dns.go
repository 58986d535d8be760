package dialer

import (
	"context"
	"net"
)

type ResolveConfig struct {
	CustomDNSServer string
	Network         string            // one of "ip4", "ip6", default is "ip"
	StaticHosts     map[string]string // resembles /etc/hosts
}

func (c *ResolveConfig) Clone() *ResolveConfig {
	if c == nil {
		return nil
	}
	return &ResolveConfig{
		CustomDNSServer: c.CustomDNSServer,
		Network:         c.Network,
		StaticHosts:     c.StaticHosts,
	}
}

// Merge fills the settings c leaves empty from base. StaticHosts of c
// take priority over those of base.
func (c *ResolveConfig) Merge(base *ResolveConfig) *ResolveConfig {
	if c == nil {
		return base.Clone()
	}
	res := c.Clone()
	if base == nil {
		return res
	}
	if res.CustomDNSServer == "" {
		res.CustomDNSServer = base.CustomDNSServer
	}
	if res.Network == "" {
		res.Network = base.Network
	}
	if len(base.StaticHosts) != 0 {
		hosts := make(map[string]string, len(base.StaticHosts)+len(res.StaticHosts))
		for k, v := range base.StaticHosts {
			hosts[k] = v
		}
		for k, v := range res.StaticHosts {
			hosts[k] = v
		}
		res.StaticHosts = hosts
	}
	return res
}

func (c *ResolveConfig) staticHost(host string) (string, bool) {
	if c == nil {
		return "", false
	}
	addr, ok := c.StaticHosts[host]
	return addr, ok
}

// this type should not be used outside this file.
// prevents non-custom DNS server contexts to iterate through all keys
type dnsServerCtx struct {
	context.Context
	server string
}

var dnsServerCtxKey = &dnsServerCtx{nil, "dns-server"} // non-nil pointer to any object, definitely unique

func (c dnsServerCtx) Value(key interface{}) interface{} {
	if key == dnsServerCtxKey {
		return c.server
	}
	return c.Context.Value(key)
}

var customServerResolver = net.Resolver{
	PreferGo: true,
	Dial: func(ctx context.Context, network, address string) (net.Conn, error) {
		if v, ok := ctx.Value(dnsServerCtxKey).(string); ok && v != "" {
			return zeroDialer.DialContext(ctx, network, v)
		}
		return zeroDialer.DialContext(ctx, network, address)
	},
}

func (d *CoreDialer) lookup(ctx context.Context, cfg *ResolveConfig, host string) (result []net.IP, err error) {
	if cfg == nil {
		return d.LookupIPServer(ctx, "ip", host, "")
	}
	network := cfg.Network
	if network == "" {
		network = "ip"
	}
	return d.LookupIPServer(ctx, network, host, cfg.CustomDNSServer)
}

// LookupIPServer performs DNS lookup for a host on a custom dns server,
// it calls [net.Resolver.LookupIP] with a Go Resolver behind the scenes.
// This part of logic may be reused when wrapping *[CoreDialer] into
// a new custom [Dialer]
func (d *CoreDialer) LookupIPServer(ctx context.Context, network, host, dns string) ([]net.IP, error) {
	ips, err := customServerResolver.LookupIP(dnsServerCtx{ctx, dns}, network, host)
	if err != nil {
		return nil, dialError(ctx, err, host)
	}
	return ips, nil
}
