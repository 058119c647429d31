// Package ws provides a per-connection WebSocket transport built on
// gobwas/ws, wrapping an already-upgraded net.Conn.
package ws

import (
	"context"
	"fmt"
	"net"
	"sync"

	"github.com/gobwas/ws"
	"github.com/gobwas/ws/wsutil"

	"github.com/lakeward/mcpserve/logx"
	"github.com/lakeward/mcpserve/types"
)

// ConnTransport implements types.Transport over a single WebSocket
// connection. The connection must already be upgraded (ws.UpgradeHTTP for
// the server side).
type ConnTransport struct {
	conn       net.Conn
	state      ws.State
	writeMutex sync.Mutex
	closeMutex sync.Mutex
	closed     bool
	logger     types.Logger
}

// NewConnTransport wraps an upgraded connection. state is ws.StateServerSide
// when the local end accepted the upgrade.
func NewConnTransport(conn net.Conn, state ws.State, opts types.TransportOptions) *ConnTransport {
	logger := opts.Logger
	if logger == nil {
		logger = logx.NopLogger{}
	}
	return &ConnTransport{conn: conn, state: state, logger: logger}
}

// Send writes one text frame.
func (t *ConnTransport) Send(data []byte) error {
	t.closeMutex.Lock()
	if t.closed {
		t.closeMutex.Unlock()
		return fmt.Errorf("transport is closed")
	}
	t.closeMutex.Unlock()

	t.writeMutex.Lock()
	defer t.writeMutex.Unlock()
	if err := wsutil.WriteMessage(t.conn, t.state, ws.OpText, data); err != nil {
		return fmt.Errorf("failed to write websocket frame: %w", err)
	}
	return nil
}

// Receive blocks until the next data frame arrives.
func (t *ConnTransport) Receive() ([]byte, error) {
	data, _, err := wsutil.ReadData(t.conn, t.state)
	if err != nil {
		return nil, err
	}
	return data, nil
}

// ReceiveWithContext reads the next frame, honoring cancellation by closing
// the connection, which unblocks the pending read.
func (t *ConnTransport) ReceiveWithContext(ctx context.Context) ([]byte, error) {
	type result struct {
		data []byte
		err  error
	}
	resultChan := make(chan result, 1)
	go func() {
		data, err := t.Receive()
		resultChan <- result{data: data, err: err}
	}()

	select {
	case <-ctx.Done():
		_ = t.Close()
		return nil, ctx.Err()
	case res := <-resultChan:
		return res.data, res.err
	}
}

// Close sends a close frame on a best-effort basis and closes the
// underlying connection.
func (t *ConnTransport) Close() error {
	t.closeMutex.Lock()
	defer t.closeMutex.Unlock()
	if t.closed {
		return nil
	}
	t.closed = true

	t.writeMutex.Lock()
	_ = wsutil.WriteMessage(t.conn, t.state, ws.OpClose, nil)
	t.writeMutex.Unlock()
	return t.conn.Close()
}

var _ types.Transport = (*ConnTransport)(nil)
