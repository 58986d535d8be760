//go:build !unix

package dialer

import "syscall"

// socket buffer sizes are left to the platform defaults here.
func (o SocketOptions) control() func(network, address string, c syscall.RawConn) error {
	return nil
}
