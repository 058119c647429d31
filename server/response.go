package server

import (
	"encoding/base64"
	"encoding/json"
	"fmt"

	"github.com/lakeward/mcpserve/protocol"
)

// successResponse builds a success envelope for the given request ID.
func successResponse(id interface{}, result interface{}) *protocol.JSONRPCResponse {
	return protocol.NewSuccessResponse(id, result)
}

// errorResponse builds an error envelope from an MCPError.
func errorResponse(id interface{}, err *protocol.MCPError) *protocol.JSONRPCResponse {
	return protocol.NewErrorResponse(id, err.Code, err.Message, err.Data)
}

// toolResultFromValue wraps an arbitrary handler return value into a
// CallToolResult. Handlers may return the result type directly, content
// values, a plain string, or any JSON-marshalable value.
func toolResultFromValue(value interface{}) (*protocol.CallToolResult, error) {
	switch v := value.(type) {
	case *protocol.CallToolResult:
		return v, nil
	case protocol.CallToolResult:
		return &v, nil
	case []protocol.Content:
		return &protocol.CallToolResult{Content: v}, nil
	case protocol.Content:
		return &protocol.CallToolResult{Content: []protocol.Content{v}}, nil
	case string:
		return &protocol.CallToolResult{Content: []protocol.Content{protocol.NewTextContent(v)}}, nil
	case nil:
		return &protocol.CallToolResult{Content: []protocol.Content{}}, nil
	default:
		data, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("tool result not serializable: %w", err)
		}
		return &protocol.CallToolResult{Content: []protocol.Content{protocol.NewTextContent(string(data))}}, nil
	}
}

// resourceContentsFromValue wraps a resource handler return value into the
// contents list for a resources/read result. Strings become text contents,
// byte slices become base64 blobs, and anything else is JSON-encoded text.
func resourceContentsFromValue(def protocol.Resource, value interface{}) ([]protocol.ResourceContents, error) {
	mimeType := def.MimeType
	switch v := value.(type) {
	case []protocol.ResourceContents:
		return v, nil
	case protocol.ResourceContents:
		return []protocol.ResourceContents{v}, nil
	case *protocol.ResourceContents:
		return []protocol.ResourceContents{*v}, nil
	case string:
		if mimeType == "" {
			mimeType = "text/plain"
		}
		return []protocol.ResourceContents{{URI: def.URI, MimeType: mimeType, Text: v}}, nil
	case []byte:
		if mimeType == "" {
			mimeType = "application/octet-stream"
		}
		return []protocol.ResourceContents{{URI: def.URI, MimeType: mimeType, Blob: base64.StdEncoding.EncodeToString(v)}}, nil
	case nil:
		return []protocol.ResourceContents{}, nil
	default:
		data, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("resource contents not serializable: %w", err)
		}
		if mimeType == "" {
			mimeType = "application/json"
		}
		return []protocol.ResourceContents{{URI: def.URI, MimeType: mimeType, Text: string(data)}}, nil
	}
}
