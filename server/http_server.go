package server

import (
	"encoding/json"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/lakeward/mcpserve/protocol"
)

// HTTPHandler adapts a Server to net/http. One POST body maps to one
// HandleMessage call; responses are written back as JSON with a status
// code derived from the JSON-RPC outcome.
type HTTPHandler struct {
	server *Server
}

// HTTPHandler returns an http.Handler serving this instance's endpoint.
func (s *Server) HTTPHandler() *HTTPHandler {
	return &HTTPHandler{server: s}
}

// ListenAndServe serves the instance over HTTP at addr until the listener
// fails. The engine is mounted at every path; put it behind a mux to
// restrict it.
func (s *Server) ListenAndServe(addr string) error {
	httpSrv := &http.Server{
		Addr:              addr,
		Handler:           s.HTTPHandler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.logger.Info("http server listening on %s", addr)
	return httpSrv.ListenAndServe()
}

func (h *HTTPHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s := h.server
	h.setCORS(w)

	switch r.Method {
	case http.MethodOptions:
		// CORS preflight.
		if s.corsOrigin != "" {
			w.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-API-Key")
		}
		w.WriteHeader(http.StatusNoContent)
		return
	case http.MethodPost:
	default:
		h.writeError(w, http.StatusMethodNotAllowed, nil,
			protocol.NewErrorWithMessage(protocol.ErrorCodeInvalidRequest, "Method not allowed: use POST", nil))
		return
	}

	contentType := r.Header.Get("Content-Type")
	if !strings.Contains(strings.ToLower(contentType), "application/json") {
		h.writeError(w, http.StatusUnsupportedMediaType, nil,
			protocol.NewError(protocol.ErrorCodeContentType, contentType))
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, s.maxBodySize+1))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, nil,
			protocol.NewErrorWithMessage(protocol.ErrorCodeInvalidRequest, "Failed to read request body", nil))
		return
	}
	if int64(len(body)) > s.maxBodySize {
		h.writeError(w, http.StatusRequestEntityTooLarge, nil,
			protocol.NewErrorWithMessage(protocol.ErrorCodeInvalidRequest, "Request body too large", nil))
		return
	}

	meta := RequestMeta{
		Transport: TransportHTTP,
		ClientKey: clientKeyFromRequest(r),
		Headers:   flattenHeaders(r.Header),
	}

	responses := s.HandleMessage(r.Context(), body, meta)

	// Pure notifications: acknowledge with no body.
	if len(responses) == 0 {
		w.WriteHeader(http.StatusAccepted)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	enc := json.NewEncoder(w)
	if len(responses) == 1 && !bytesIsBatch(body) {
		// Single request: the HTTP status mirrors the JSON-RPC outcome.
		w.WriteHeader(httpStatusFor(responses[0]))
		if err := enc.Encode(responses[0]); err != nil {
			s.logger.Error("failed to write response: %v", err)
		}
		return
	}
	// Batches mix outcomes, so the transport status stays 200 and each
	// envelope carries its own result or error.
	w.WriteHeader(http.StatusOK)
	if err := enc.Encode(responses); err != nil {
		s.logger.Error("failed to write response: %v", err)
	}
}

// setCORS reflects the configured origin on every response, errors
// included. No configured origin means no CORS headers at all.
func (h *HTTPHandler) setCORS(w http.ResponseWriter) {
	if origin := h.server.corsOrigin; origin != "" {
		w.Header().Set("Access-Control-Allow-Origin", origin)
	}
}

func (h *HTTPHandler) writeError(w http.ResponseWriter, status int, id interface{}, mcpErr *protocol.MCPError) {
	// Transport-level rejections never reach the dispatcher, so they are
	// counted here to keep the error statistics complete.
	h.server.record("", 0, mcpErr.Code)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(errorResponse(id, mcpErr)); err != nil {
		h.server.logger.Error("failed to write error response: %v", err)
	}
}

// httpStatusFor maps a JSON-RPC outcome onto an HTTP status code.
func httpStatusFor(resp *protocol.JSONRPCResponse) int {
	if resp.Error == nil {
		return http.StatusOK
	}
	switch resp.Error.Code {
	case protocol.ErrorCodeParseError, protocol.ErrorCodeInvalidRequest, protocol.ErrorCodeInvalidParams:
		return http.StatusBadRequest
	case protocol.ErrorCodeAuthFailed:
		return http.StatusUnauthorized
	case protocol.ErrorCodeRateLimitExceeded:
		return http.StatusTooManyRequests
	case protocol.ErrorCodeContentType:
		return http.StatusUnsupportedMediaType
	default:
		// Method-not-found, internal, timeout: the envelope carries the
		// detail; 200 keeps JSON-RPC-over-HTTP clients happy.
		return http.StatusOK
	}
}

// clientKeyFromRequest derives the rate-limit key for an HTTP client:
// the first X-Forwarded-For hop when present, else the remote IP.
func clientKeyFromRequest(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		if first, _, found := strings.Cut(fwd, ","); found {
			return strings.TrimSpace(first)
		}
		return strings.TrimSpace(fwd)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func flattenHeaders(header http.Header) map[string]string {
	out := make(map[string]string, len(header))
	for name := range header {
		out[name] = header.Get(name)
	}
	return out
}

func bytesIsBatch(body []byte) bool {
	for _, b := range body {
		switch b {
		case ' ', '\t', '\r', '\n':
			continue
		case '[':
			return true
		default:
			return false
		}
	}
	return false
}
