// Package protocol defines the wire structures and constants for the
// capability-exposure protocol (MCP).
package protocol

import (
	"encoding/json"
	"fmt"
)

// --- Prompt structures ---

// PromptArgument defines an input parameter for a prompt template.
type PromptArgument struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Type        string `json:"type,omitempty"` // "string", "number", "boolean"
	Required    bool   `json:"required,omitempty"`
}

// PromptMessage is a single role-tagged message within a rendered prompt.
type PromptMessage struct {
	Role    string  `json:"role"` // "system", "user", "assistant"
	Content Content `json:"content"`
}

// UnmarshalJSON decodes the Content interface field via its type discriminator.
func (pm *PromptMessage) UnmarshalJSON(data []byte) error {
	var aux struct {
		Role    string          `json:"role"`
		Content json.RawMessage `json:"content"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return fmt.Errorf("failed to unmarshal PromptMessage: %w", err)
	}
	pm.Role = aux.Role
	if len(aux.Content) == 0 || string(aux.Content) == "null" {
		pm.Content = nil
		return nil
	}
	content, err := decodeContent(aux.Content)
	if err != nil {
		return fmt.Errorf("prompt message: %w", err)
	}
	pm.Content = content
	return nil
}

// Prompt represents a parameterized template available from the server.
type Prompt struct {
	Name        string           `json:"name"`
	Description string           `json:"description,omitempty"`
	Arguments   []PromptArgument `json:"arguments,omitempty"`
}

// ListPromptsResult is the result payload for 'prompts/list'.
type ListPromptsResult struct {
	Prompts []Prompt `json:"prompts"`
}

// GetPromptParams are the parameters for 'prompts/get'.
type GetPromptParams struct {
	Name      string                 `json:"name"`
	Arguments map[string]interface{} `json:"arguments,omitempty"`
}

// GetPromptResult is the result payload for 'prompts/get': the rendered
// message sequence in order.
type GetPromptResult struct {
	Description string          `json:"description,omitempty"`
	Messages    []PromptMessage `json:"messages"`
}
