package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/lakeward/mcpserve/protocol"
	"github.com/lakeward/mcpserve/transport/stdio"
	"github.com/lakeward/mcpserve/types"
)

// ServeStdio runs the server over standard input/output, one JSON-RPC
// message per line. It returns when stdin reaches EOF or the process
// receives SIGINT/SIGTERM.
func ServeStdio(s *Server) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	t := stdio.NewTransport()
	return serveTransport(ctx, s, t, TransportStdio, "stdio-"+uuid.NewString())
}

// serveTransport pumps messages from a line/frame transport through the
// engine until the transport closes. Shared by the stdio and websocket
// adapters.
func serveTransport(ctx context.Context, s *Server, t types.Transport, kind TransportKind, sessionID string) error {
	session := &transportSession{id: sessionID, transport: t}
	s.RegisterSession(session)
	defer s.UnregisterSession(sessionID)
	defer t.Close()

	meta := RequestMeta{
		Transport: kind,
		ClientKey: sessionID,
		SessionID: sessionID,
	}

	for {
		raw, err := t.ReceiveWithContext(ctx)
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, context.Canceled) {
				s.logger.Info("session %s closed", sessionID)
				return nil
			}
			return err
		}
		if len(raw) == 0 {
			continue
		}
		for _, resp := range s.HandleMessage(ctx, raw, meta) {
			if err := session.SendResponse(*resp); err != nil {
				s.logger.Error("session %s: failed to send response: %v", sessionID, err)
				return err
			}
		}
	}
}

// transportSession adapts a types.Transport into a ClientSession so the
// engine can push notifications down long-lived connections.
type transportSession struct {
	id        string
	transport types.Transport
}

func (ts *transportSession) SessionID() string { return ts.id }

func (ts *transportSession) SendResponse(response protocol.JSONRPCResponse) error {
	data, err := json.Marshal(response)
	if err != nil {
		return err
	}
	return ts.transport.Send(data)
}

func (ts *transportSession) SendNotification(notification protocol.JSONRPCNotification) error {
	data, err := json.Marshal(notification)
	if err != nil {
		return err
	}
	return ts.transport.Send(data)
}

func (ts *transportSession) Close() error { return ts.transport.Close() }
