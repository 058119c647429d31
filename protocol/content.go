// Package protocol defines the wire structures and constants for the
// capability-exposure protocol (MCP).
package protocol

import (
	"encoding/json"
	"fmt"
)

// Content is a single typed fragment within a tool result or prompt message.
type Content interface {
	ContentType() string
}

// TextContent carries plain text.
type TextContent struct {
	Type string `json:"type"` // always "text"
	Text string `json:"text"`
}

func (c TextContent) ContentType() string { return "text" }

// ImageContent carries base64-encoded image data.
type ImageContent struct {
	Type     string `json:"type"` // always "image"
	Data     string `json:"data"` // base64
	MimeType string `json:"mimeType"`
}

func (c ImageContent) ContentType() string { return "image" }

// NewTextContent wraps text in a TextContent fragment.
func NewTextContent(text string) TextContent {
	return TextContent{Type: "text", Text: text}
}

// decodeContent unmarshals a raw content fragment by inspecting its "type"
// discriminator.
func decodeContent(raw json.RawMessage) (Content, error) {
	var typeDetect struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(raw, &typeDetect); err != nil {
		return nil, fmt.Errorf("failed to detect content type: %w", err)
	}
	switch typeDetect.Type {
	case "text":
		var tc TextContent
		if err := json.Unmarshal(raw, &tc); err != nil {
			return nil, fmt.Errorf("failed to unmarshal TextContent: %w", err)
		}
		return tc, nil
	case "image":
		var ic ImageContent
		if err := json.Unmarshal(raw, &ic); err != nil {
			return nil, fmt.Errorf("failed to unmarshal ImageContent: %w", err)
		}
		return ic, nil
	default:
		return nil, fmt.Errorf("unknown content type %q", typeDetect.Type)
	}
}
