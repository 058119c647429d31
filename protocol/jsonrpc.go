// Package protocol defines the wire structures and constants for the
// capability-exposure protocol (MCP), based on the JSON-RPC 2.0 specification.
package protocol

import (
	"encoding/json"
	"fmt"
)

// ErrorPayload defines the structure of the 'error' object within an error
// response, aligning with the JSON-RPC 2.0 specification.
type ErrorPayload struct {
	Code    ErrorCode   `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// JSONRPCRequest represents a standard JSON-RPC request object.
type JSONRPCRequest struct {
	JSONRPC string      `json:"jsonrpc"`          // MUST be "2.0"
	ID      interface{} `json:"id,omitempty"`     // string, number, or null; absent for notifications
	Method  string      `json:"method"`           // e.g. "tools/call"
	Params  interface{} `json:"params,omitempty"` // structured parameters or absent
}

// JSONRPCResponse represents a standard JSON-RPC response object.
// Exactly one of Result or Error is set.
type JSONRPCResponse struct {
	JSONRPC string        `json:"jsonrpc"`
	ID      interface{}   `json:"id"` // matches the request ID, or null when the ID was unparseable
	Result  interface{}   `json:"result,omitempty"`
	Error   *ErrorPayload `json:"error,omitempty"`
}

// JSONRPCNotification represents a JSON-RPC notification object.
// Notifications MUST NOT carry an 'id' field.
type JSONRPCNotification struct {
	JSONRPC string      `json:"jsonrpc"`
	Method  string      `json:"method"`
	Params  interface{} `json:"params,omitempty"`
}

// NewNotification creates a new JSON-RPC notification object.
func NewNotification(method string, params interface{}) *JSONRPCNotification {
	return &JSONRPCNotification{
		JSONRPC: Version,
		Method:  method,
		Params:  params,
	}
}

// NewSuccessResponse creates a new JSON-RPC success response object.
func NewSuccessResponse(id interface{}, result interface{}) *JSONRPCResponse {
	return &JSONRPCResponse{
		JSONRPC: Version,
		ID:      id,
		Result:  result,
	}
}

// NewErrorResponse creates a new JSON-RPC error response object. The id may
// be nil when the error occurred before the request ID could be parsed.
func NewErrorResponse(id interface{}, code ErrorCode, message string, data interface{}) *JSONRPCResponse {
	return &JSONRPCResponse{
		JSONRPC: Version,
		ID:      id,
		Error: &ErrorPayload{
			Code:    code,
			Message: message,
			Data:    data,
		},
	}
}

// UnmarshalPayload re-marshals a decoded params or result value (held as
// interface{} or json.RawMessage) into the concrete struct pointed to by
// target. A nil or empty payload is an error; callers that allow absent
// params must check before calling.
func UnmarshalPayload(payload interface{}, target interface{}) error {
	if payload == nil {
		return fmt.Errorf("payload is nil, cannot unmarshal")
	}
	var payloadBytes []byte
	switch p := payload.(type) {
	case json.RawMessage:
		payloadBytes = p
	case []byte:
		payloadBytes = p
	default:
		var err error
		payloadBytes, err = json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to re-marshal payload (type %T): %w", payload, err)
		}
	}
	if len(payloadBytes) == 0 || string(payloadBytes) == "null" {
		return fmt.Errorf("payload is empty")
	}
	if err := json.Unmarshal(payloadBytes, target); err != nil {
		return fmt.Errorf("failed to unmarshal payload into %T: %w", target, err)
	}
	return nil
}
