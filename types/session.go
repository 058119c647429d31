package types

import (
	"github.com/lakeward/mcpserve/protocol"
)

// ClientSession represents an active connection from a single client on a
// connection-oriented transport (stdio, websocket). The engine uses it to
// deliver responses and server-initiated notifications.
type ClientSession interface {
	// SessionID returns a unique identifier for this session.
	SessionID() string

	// SendResponse sends a JSON-RPC response to the client.
	SendResponse(response protocol.JSONRPCResponse) error

	// SendNotification sends a JSON-RPC notification to the client.
	SendNotification(notification protocol.JSONRPCNotification) error

	// Close terminates the session and releases its resources.
	Close() error
}
