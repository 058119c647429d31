package server

import (
	"context"

	"github.com/lakeward/mcpserve/protocol"
	"github.com/lakeward/mcpserve/util/schema"
)

// RegisterTypedTool registers a tool whose input schema is derived from
// the argument struct T via reflection and whose handler receives decoded,
// validated arguments instead of a raw map. Struct fields use `json` tags
// for property names, `description` tags for schema docs, and `required`/
// `enum` tags for validation.
func RegisterTypedTool[T any](s *Server, name, description string, handler func(ctx context.Context, args T) (interface{}, error)) error {
	var zero T
	inputSchema := schema.FromStruct(zero)
	tool := protocol.Tool{
		Name:        name,
		Description: description,
		InputSchema: inputSchema,
	}
	return s.RegisterTool(tool, func(ctx context.Context, arguments map[string]interface{}) (interface{}, error) {
		args, err := schema.DecodeArgs[T](arguments)
		if err != nil {
			return nil, protocol.NewInvalidParamsError(err.Error())
		}
		return handler(ctx, *args)
	})
}
