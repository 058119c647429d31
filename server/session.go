package server

import (
	"sync"

	"github.com/lakeward/mcpserve/protocol"
	"github.com/lakeward/mcpserve/types"
)

// sessionSet tracks connected client sessions for server-initiated
// notifications. HTTP requests never register here; only long-lived
// transports (stdio, websocket) do.
type sessionSet struct {
	sessions sync.Map // session ID -> types.ClientSession
}

func newSessionSet() *sessionSet {
	return &sessionSet{}
}

func (ss *sessionSet) add(session types.ClientSession) {
	ss.sessions.Store(session.SessionID(), session)
}

func (ss *sessionSet) remove(sessionID string) {
	ss.sessions.Delete(sessionID)
}

func (ss *sessionSet) empty() bool {
	empty := true
	ss.sessions.Range(func(_, _ interface{}) bool {
		empty = false
		return false
	})
	return empty
}

// broadcast sends a notification to every session. Send failures evict the
// session; a half-closed connection is not worth retrying.
func (ss *sessionSet) broadcast(logger types.Logger, notif *protocol.JSONRPCNotification) {
	ss.sessions.Range(func(key, value interface{}) bool {
		session := value.(types.ClientSession)
		if err := session.SendNotification(*notif); err != nil {
			logger.Warn("dropping session %v after failed notification: %v", key, err)
			ss.sessions.Delete(key)
		}
		return true
	})
}

// RegisterSession attaches a long-lived client session so it receives
// list_changed notifications. Transport adapters call this on connect.
func (s *Server) RegisterSession(session types.ClientSession) {
	s.sessions.add(session)
	s.logger.Debug("session registered: %s", session.SessionID())
}

// UnregisterSession detaches a session on disconnect.
func (s *Server) UnregisterSession(sessionID string) {
	s.sessions.remove(sessionID)
	s.logger.Debug("session unregistered: %s", sessionID)
}
