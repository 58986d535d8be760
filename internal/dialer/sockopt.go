package dialer

// SocketOptions tune the TCP socket before it connects. Zero values keep
// the operating system defaults.
type SocketOptions struct {
	SendBuffer    int
	ReceiveBuffer int
}
