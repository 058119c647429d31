package types

import (
	"context"
)

// Transport abstracts the byte-level delivery mechanism carrying JSON-RPC
// envelopes. Implementations exist for stdio and websocket; HTTP is
// request/response shaped and served directly by the server package.
type Transport interface {
	// Send transmits one message over the transport.
	Send(data []byte) error

	// Receive blocks until a message is received or an error occurs.
	Receive() ([]byte, error)

	// ReceiveWithContext is like Receive but honors context cancellation.
	ReceiveWithContext(ctx context.Context) ([]byte, error)

	// Close terminates the transport. After Close the transport must not
	// be used.
	Close() error
}

// TransportOptions carries optional configuration for transport constructors.
type TransportOptions struct {
	// BufferSize is the read buffer size in bytes; zero selects a default.
	BufferSize int

	// Logger receives transport-level events.
	Logger Logger
}
