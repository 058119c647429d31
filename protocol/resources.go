// Package protocol defines the wire structures and constants for the
// capability-exposure protocol (MCP).
package protocol

// --- Resource access structures ---

// Resource represents a readable piece of content exposed by the server.
// The URI is an opaque identifier, not necessarily a fetchable location.
type Resource struct {
	URI         string `json:"uri"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	MimeType    string `json:"mimeType,omitempty"`
}

// ListResourcesResult is the result payload for 'resources/list'.
type ListResourcesResult struct {
	Resources []Resource `json:"resources"`
}

// ReadResourceParams are the parameters for 'resources/read'.
type ReadResourceParams struct {
	URI string `json:"uri"`
}

// ResourceContents holds the produced content of one resource read. Exactly
// one of Text or Blob is set; Blob carries base64-encoded bytes.
type ResourceContents struct {
	URI      string `json:"uri"`
	MimeType string `json:"mimeType,omitempty"`
	Text     string `json:"text,omitempty"`
	Blob     string `json:"blob,omitempty"`
}

// ReadResourceResult is the result payload for 'resources/read'.
type ReadResourceResult struct {
	Contents []ResourceContents `json:"contents"`
}
