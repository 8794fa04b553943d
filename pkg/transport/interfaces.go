package transport

import (
	"context"
	"net"
)

// ServerConnection is one accepted client as seen by the IOC side.
type ServerConnection interface {
	RemoteAddr() net.Addr

	// ConnID identifies the connection in protocol captures.
	ConnID() string

	Send(data []byte) error

	// Done is closed once the connection is gone.
	Done() <-chan struct{}

	Close() error
}

// ClientConnection is the dialing side of a channel connection.
type ClientConnection interface {
	Connect(ctx context.Context, address string) error
	State() ConnectionState
	Send(data []byte) error
	Close() error
}

// TransportServer accepts channel clients.
type TransportServer interface {
	Start(ctx context.Context) error
	Stop() error
	Addr() net.Addr

	// ConnectionCount reports the clients currently attached.
	ConnectionCount() int
}

// FrameReadWriter moves whole length-prefixed payloads.
type FrameReadWriter interface {
	ReadFrame() ([]byte, error)
	WriteFrame(payload []byte) error
}

var (
	_ ServerConnection = (*ServerConn)(nil)
	_ ClientConnection = (*Connection)(nil)
	_ TransportServer  = (*Server)(nil)
	_ FrameReadWriter  = (*Framer)(nil)
)
