// Package protocol defines the wire structures and constants for the
// capability-exposure protocol (MCP).
package protocol

import "fmt"

// ErrorCode is a JSON-RPC 2.0 error code. The standard codes occupy
// -32700..-32600; server-defined codes occupy the -32000..-32099 range.
type ErrorCode int

// Error codes. These values are part of the wire contract and must match
// exactly for interoperability.
const (
	ErrorCodeParseError        ErrorCode = -32700 // payload is not valid JSON
	ErrorCodeInvalidRequest    ErrorCode = -32600 // envelope missing required fields / malformed
	ErrorCodeMethodNotFound    ErrorCode = -32601 // unknown method, or named capability absent
	ErrorCodeInvalidParams     ErrorCode = -32602 // parameters fail schema/required-field validation
	ErrorCodeInternalError     ErrorCode = -32603 // handler raised an unexpected error
	ErrorCodeAuthFailed        ErrorCode = -32001 // authentication failed or missing
	ErrorCodeRateLimitExceeded ErrorCode = -32002 // rate limiter rejected the request
	ErrorCodeContentType       ErrorCode = -32050 // transport content-type mismatch (HTTP)
	ErrorCodeTimeout           ErrorCode = -32070 // handler exceeded configured execution timeout
)

var errorMessages = map[ErrorCode]string{
	ErrorCodeParseError:        "Parse error",
	ErrorCodeInvalidRequest:    "Invalid request",
	ErrorCodeMethodNotFound:    "Method not found",
	ErrorCodeInvalidParams:     "Invalid params",
	ErrorCodeInternalError:     "Internal error",
	ErrorCodeAuthFailed:        "Authentication failed",
	ErrorCodeRateLimitExceeded: "Rate limit exceeded",
	ErrorCodeContentType:       "Unsupported content type",
	ErrorCodeTimeout:           "Request timed out",
}

// DefaultMessage returns the canonical short message for a code, or
// "Unknown error" for codes outside the table.
func DefaultMessage(code ErrorCode) string {
	if msg, ok := errorMessages[code]; ok {
		return msg
	}
	return "Unknown error"
}

// MCPError wraps ErrorPayload so protocol-level failures can travel through
// ordinary error returns. Handlers and middleware may return this type to
// control the JSON-RPC error emitted to the client.
type MCPError struct {
	ErrorPayload
}

// Error implements the error interface.
func (e *MCPError) Error() string {
	return fmt.Sprintf("mcp error %d: %s", e.Code, e.Message)
}

// NewError creates an MCPError with the canonical message for code.
func NewError(code ErrorCode, data interface{}) *MCPError {
	return &MCPError{ErrorPayload{Code: code, Message: DefaultMessage(code), Data: data}}
}

// NewErrorWithMessage creates an MCPError with a custom message.
func NewErrorWithMessage(code ErrorCode, message string, data interface{}) *MCPError {
	return &MCPError{ErrorPayload{Code: code, Message: message, Data: data}}
}

// NewMethodNotFoundError reports an unknown method or missing capability.
func NewMethodNotFoundError(name string) *MCPError {
	return NewErrorWithMessage(ErrorCodeMethodNotFound, fmt.Sprintf("Method not found: %s", name), nil)
}

// NewInvalidParamsError reports parameters that fail validation.
func NewInvalidParamsError(message string) *MCPError {
	return NewErrorWithMessage(ErrorCodeInvalidParams, message, nil)
}

// NewAuthError reports an authentication failure.
func NewAuthError(message string) *MCPError {
	return NewErrorWithMessage(ErrorCodeAuthFailed, message, nil)
}
