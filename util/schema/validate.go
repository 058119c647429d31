package schema

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/lakeward/mcpserve/protocol"
)

// Compiled is a tool input schema compiled for argument validation. A nil
// *Compiled validates nothing and accepts any arguments.
type Compiled struct {
	schema *jsonschema.Schema
}

// Compile builds a validating schema from a declared tool input schema.
// An empty schema (no type, no properties) compiles to nil, meaning no
// validation is performed at invocation time.
func Compile(s protocol.ToolInputSchema) (*Compiled, error) {
	if s.Type == "" && len(s.Properties) == 0 && len(s.Required) == 0 {
		return nil, nil
	}
	raw, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("marshaling input schema: %w", err)
	}

	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft2020
	if err := compiler.AddResource("inputSchema.json", bytes.NewReader(raw)); err != nil {
		return nil, fmt.Errorf("adding schema resource: %w", err)
	}
	compiled, err := compiler.Compile("inputSchema.json")
	if err != nil {
		return nil, fmt.Errorf("compiling input schema: %w", err)
	}
	return &Compiled{schema: compiled}, nil
}

// Validate checks an argument map against the compiled schema. The returned
// error message is suitable for an INVALID_PARAMS error payload.
func (c *Compiled) Validate(arguments map[string]interface{}) error {
	if c == nil || c.schema == nil {
		return nil
	}
	// jsonschema validates plain JSON values; round-trip to normalize
	// numbers and nested types.
	raw, err := json.Marshal(arguments)
	if err != nil {
		return fmt.Errorf("arguments are not serializable: %w", err)
	}
	var v interface{}
	if err := json.Unmarshal(raw, &v); err != nil {
		return err
	}
	if v == nil {
		v = map[string]interface{}{}
	}
	if err := c.schema.Validate(v); err != nil {
		if ve, ok := err.(*jsonschema.ValidationError); ok {
			return fmt.Errorf("%s", flattenValidationError(ve))
		}
		return err
	}
	return nil
}

// flattenValidationError picks the most specific leaf cause for a compact
// single-line message.
func flattenValidationError(ve *jsonschema.ValidationError) string {
	for len(ve.Causes) > 0 {
		ve = ve.Causes[0]
	}
	if ve.InstanceLocation != "" {
		return fmt.Sprintf("%s: %s", ve.InstanceLocation, ve.Message)
	}
	return ve.Message
}
