// Package schema provides utilities for generating tool input schemas from
// Go structs and for validating invocation arguments against them.
package schema

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/mitchellh/mapstructure"

	"github.com/lakeward/mcpserve/protocol"
	"github.com/lakeward/mcpserve/util/validator"
)

// goTypeToSchemaType maps Go kinds to schema types.
func goTypeToSchemaType(kind reflect.Kind) string {
	switch kind {
	case reflect.String:
		return "string"
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return "integer"
	case reflect.Float32, reflect.Float64:
		return "number"
	case reflect.Bool:
		return "boolean"
	case reflect.Slice, reflect.Array:
		return "array"
	case reflect.Map, reflect.Struct:
		return "object"
	default:
		return "string"
	}
}

// FromStruct generates a protocol.ToolInputSchema from struct tags. Field
// names come from json tags (falling back to the lowercased field name),
// descriptions from `description` tags, allowed values from `enum` tags.
// Non-pointer fields are treated as required.
func FromStruct(v interface{}) protocol.ToolInputSchema {
	t := reflect.TypeOf(v)
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	props := map[string]protocol.PropertyDetail{}
	var required []string
	seen := make(map[string]bool)

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if field.PkgPath != "" {
			continue // unexported
		}

		jsonTag := field.Tag.Get("json")
		var name string
		switch {
		case jsonTag == "-":
			continue
		case jsonTag != "":
			name = strings.Split(jsonTag, ",")[0]
		default:
			name = strings.ToLower(field.Name)
		}

		isPtr := field.Type.Kind() == reflect.Ptr
		if !isPtr && !seen[name] {
			required = append(required, name)
			seen[name] = true
		}

		fieldType := field.Type
		if isPtr {
			fieldType = fieldType.Elem()
		}

		var enumValues []interface{}
		if enumTag := field.Tag.Get("enum"); enumTag != "" {
			for _, v := range strings.Split(enumTag, ",") {
				enumValues = append(enumValues, strings.TrimSpace(v))
			}
		}

		props[name] = protocol.PropertyDetail{
			Type:        goTypeToSchemaType(fieldType.Kind()),
			Description: field.Tag.Get("description"),
			Enum:        enumValues,
		}
	}

	schema := protocol.ToolInputSchema{
		Type:       "object",
		Properties: props,
	}
	if len(required) > 0 {
		schema.Required = required
	}
	return schema
}

// DecodeArgs decodes an argument map into the strongly-typed struct T using
// mapstructure (honoring json tags), then applies struct-tag validation.
func DecodeArgs[T any](arguments map[string]interface{}) (*T, error) {
	var args T
	if arguments == nil {
		arguments = map[string]interface{}{}
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &args,
		TagName:          "json",
		WeaklyTypedInput: true,
	})
	if err != nil {
		return nil, fmt.Errorf("creating argument decoder: %w", err)
	}
	if err := decoder.Decode(arguments); err != nil {
		return nil, fmt.Errorf("parsing arguments: %w", err)
	}
	if err := validator.Arguments(args); err != nil {
		return nil, err
	}
	return &args, nil
}
