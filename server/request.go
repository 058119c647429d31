package server

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/lakeward/mcpserve/protocol"
)

// TransportKind tags the origin of a canonical request.
type TransportKind string

const (
	TransportHTTP      TransportKind = "http"
	TransportStdio     TransportKind = "stdio"
	TransportWebSocket TransportKind = "websocket"
)

// RequestMeta carries the transport-level context a canonical request is
// normalized with: which transport delivered it, the client identifier used
// for rate limiting, and the raw headers when the transport has them.
type RequestMeta struct {
	Transport TransportKind
	ClientKey string
	Headers   map[string]string
	SessionID string
}

// Header returns a header value, treating names case-insensitively the way
// HTTP does without requiring adapters to canonicalize.
func (m RequestMeta) Header(name string) string {
	if m.Headers == nil {
		return ""
	}
	if v, ok := m.Headers[name]; ok {
		return v
	}
	for k, v := range m.Headers {
		if strings.EqualFold(k, name) {
			return v
		}
	}
	return ""
}

// CanonicalRequest is the normalized, transport-agnostic representation of
// one inbound JSON-RPC message. Constructed fresh per message, never
// persisted.
type CanonicalRequest struct {
	JSONRPC string
	ID      interface{}
	// HasID distinguishes an absent id (notification, no response emitted)
	// from an explicit "id": null (request whose response carries null id).
	HasID  bool
	Method string
	Params json.RawMessage
	Meta   RequestMeta
}

// IsNotification reports whether the message must not receive a response.
func (r *CanonicalRequest) IsNotification() bool { return !r.HasID }

// normalizeMessage parses one raw JSON-RPC message and validates its
// envelope. On failure it returns the short-circuit error response to emit
// (nil for notifications is the caller's concern: parse errors always get a
// response with a null id per JSON-RPC 2.0).
func normalizeMessage(raw json.RawMessage, meta RequestMeta) (*CanonicalRequest, *protocol.JSONRPCResponse) {
	var envelope struct {
		JSONRPC string          `json:"jsonrpc"`
		ID      json.RawMessage `json:"id"`
		Method  string          `json:"method"`
		Params  json.RawMessage `json:"params"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		// Parse error is reserved for byte streams that are not JSON at
		// all. A well-formed JSON value that is not a request object
		// (a bare string, number, etc.) fails the envelope, not the parse.
		if json.Valid(raw) {
			return nil, protocol.NewErrorResponse(nil, protocol.ErrorCodeInvalidRequest,
				"Request must be a JSON object", nil)
		}
		return nil, protocol.NewErrorResponse(nil, protocol.ErrorCodeParseError,
			fmt.Sprintf("Failed to parse JSON: %v", err), nil)
	}

	req := &CanonicalRequest{
		JSONRPC: envelope.JSONRPC,
		Method:  envelope.Method,
		Params:  envelope.Params,
		Meta:    meta,
	}

	// A missing "id" key signals a notification; "id": null is a request
	// with a null id.
	if envelope.ID != nil {
		req.HasID = true
		var id interface{}
		if err := json.Unmarshal(envelope.ID, &id); err != nil {
			return nil, protocol.NewErrorResponse(nil, protocol.ErrorCodeInvalidRequest,
				"Invalid request id", nil)
		}
		switch id.(type) {
		case nil, string, float64:
			req.ID = id
		default:
			return nil, protocol.NewErrorResponse(nil, protocol.ErrorCodeInvalidRequest,
				"Request id must be a string, number, or null", nil)
		}
	}

	if envelope.JSONRPC != protocol.Version {
		return nil, protocol.NewErrorResponse(req.ID, protocol.ErrorCodeInvalidRequest,
			`Invalid jsonrpc version: must be "2.0"`, nil)
	}
	if envelope.Method == "" {
		return nil, protocol.NewErrorResponse(req.ID, protocol.ErrorCodeInvalidRequest,
			"Missing method", nil)
	}

	return req, nil
}
