// Package protocol defines the wire structures and constants for the
// capability-exposure protocol (MCP).
package protocol

// --- Tooling structures ---

// ToolInputSchema describes the expected input for a tool (JSON Schema subset).
type ToolInputSchema struct {
	Type       string                    `json:"type"` // typically "object"
	Properties map[string]PropertyDetail `json:"properties,omitempty"`
	Required   []string                  `json:"required,omitempty"`
}

// PropertyDetail describes one parameter within a ToolInputSchema.
type PropertyDetail struct {
	Type        string        `json:"type"`
	Description string        `json:"description,omitempty"`
	Enum        []interface{} `json:"enum,omitempty"`
	Format      string        `json:"format,omitempty"`
}

// Tool defines a callable capability offered by the server.
type Tool struct {
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	InputSchema ToolInputSchema `json:"inputSchema"`
}

// ListToolsResult is the result payload for 'tools/list'.
type ListToolsResult struct {
	Tools []Tool `json:"tools"`
}

// CallToolParams are the parameters for 'tools/call'.
type CallToolParams struct {
	Name      string                 `json:"name"`
	Arguments map[string]interface{} `json:"arguments,omitempty"`
}

// CallToolResult is the result payload for 'tools/call'. IsError marks a
// tool-level failure surfaced as content rather than a protocol error.
type CallToolResult struct {
	Content []Content `json:"content"`
	IsError bool      `json:"isError,omitempty"`
}
