//go:build unix

package dialer

import (
	"syscall"

	"golang.org/x/sys/unix"
)

// control sets the socket buffer sizes before connect.
func (o SocketOptions) control() func(network, address string, c syscall.RawConn) error {
	if o.SendBuffer <= 0 && o.ReceiveBuffer <= 0 {
		return nil
	}
	return func(_, _ string, c syscall.RawConn) error {
		var serr error
		err := c.Control(func(fd uintptr) {
			if o.SendBuffer > 0 {
				serr = unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_SNDBUF, o.SendBuffer)
			}
			if serr == nil && o.ReceiveBuffer > 0 {
				serr = unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_RCVBUF, o.ReceiveBuffer)
			}
		})
		if err != nil {
			return err
		}
		return serr
	}
}
