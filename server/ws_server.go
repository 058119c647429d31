package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gobwas/ws"
	"github.com/google/uuid"

	wstransport "github.com/lakeward/mcpserve/transport/ws"
	"github.com/lakeward/mcpserve/types"
)

// WSHandler upgrades HTTP requests to websocket sessions served by the
// engine. Each connection gets its own session ID and message loop.
type WSHandler struct {
	server *Server
}

// WSHandler returns an http.Handler that upgrades connections to
// websocket sessions on this instance.
func (s *Server) WSHandler() *WSHandler {
	return &WSHandler{server: s}
}

// ListenAndServeWS serves websocket sessions at addr under path.
func (s *Server) ListenAndServeWS(addr, path string) error {
	mux := http.NewServeMux()
	mux.Handle(path, s.WSHandler())
	httpSrv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.logger.Info("websocket server listening on %s%s", addr, path)
	return httpSrv.ListenAndServe()
}

func (h *WSHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s := h.server

	conn, _, _, err := ws.UpgradeHTTP(r, w)
	if err != nil {
		s.logger.Warn("websocket upgrade failed: %v", err)
		return
	}

	sessionID := "ws-" + uuid.NewString()
	headers := flattenHeaders(r.Header)
	clientKey := clientKeyFromRequest(r)

	t := wstransport.NewConnTransport(conn, ws.StateServerSide, types.TransportOptions{Logger: s.logger})

	// The request context dies when ServeHTTP returns; the hijacked
	// connection outlives it.
	go func() {
		if err := serveWSConn(context.Background(), s, t, sessionID, clientKey, headers); err != nil {
			s.logger.Warn("websocket session %s ended: %v", sessionID, err)
		}
	}()
}

// serveWSConn is serveTransport with per-connection request metadata:
// websocket sessions keep the upgrade request's headers and client
// address for authentication and rate limiting.
func serveWSConn(ctx context.Context, s *Server, t types.Transport, sessionID, clientKey string, headers map[string]string) error {
	session := &transportSession{id: sessionID, transport: t}
	s.RegisterSession(session)
	defer s.UnregisterSession(sessionID)
	defer t.Close()

	meta := RequestMeta{
		Transport: TransportWebSocket,
		ClientKey: clientKey,
		Headers:   headers,
		SessionID: sessionID,
	}

	for {
		raw, err := t.ReceiveWithContext(ctx)
		if err != nil {
			// Closed connections end the loop quietly.
			return nil
		}
		if len(raw) == 0 {
			continue
		}
		for _, resp := range s.HandleMessage(ctx, raw, meta) {
			if err := session.SendResponse(*resp); err != nil {
				return err
			}
		}
	}
}
