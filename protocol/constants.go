// Package protocol defines the wire structures and constants for the
// capability-exposure protocol (MCP).
package protocol

const (
	// Version is the JSON-RPC version tag carried by every envelope.
	Version = "2.0"

	// CurrentProtocolVersion is the MCP revision this server implements.
	CurrentProtocolVersion = "2025-03-26"

	// --- Method name constants (JSON-RPC 'method' field values) ---

	// Initialization
	MethodInitialize  = "initialize"
	MethodInitialized = "initialized" // notification

	// Tools
	MethodListTools              = "tools/list"
	MethodCallTool               = "tools/call"
	MethodNotifyToolsListChanged = "notifications/tools/list_changed"

	// Resources
	MethodListResources              = "resources/list"
	MethodReadResource               = "resources/read"
	MethodNotifyResourcesListChanged = "notifications/resources/list_changed"

	// Prompts
	MethodListPrompts              = "prompts/list"
	MethodGetPrompt                = "prompts/get"
	MethodNotifyPromptsListChanged = "notifications/prompts/list_changed"

	// Ping
	MethodPing = "ping"
)
