package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lakeward/mcpserve/protocol"
)

type searchArgs struct {
	Query string   `json:"query" description:"Search text" required:"true"`
	Limit *int     `json:"limit" description:"Max results"`
	Sort  string   `json:"sort" enum:"asc,desc"`
	Tags  []string `json:"tags"`
	skip  bool     // unexported, must not appear in the schema
}

func TestFromStruct(t *testing.T) {
	s := FromStruct(searchArgs{})

	assert.Equal(t, "object", s.Type)
	require.Contains(t, s.Properties, "query")
	assert.Equal(t, "string", s.Properties["query"].Type)
	assert.Equal(t, "Search text", s.Properties["query"].Description)
	assert.Equal(t, "integer", s.Properties["limit"].Type)
	assert.Equal(t, "array", s.Properties["tags"].Type)
	assert.ElementsMatch(t, []interface{}{"asc", "desc"}, s.Properties["sort"].Enum)

	assert.Contains(t, s.Required, "query")
	assert.NotContains(t, s.Required, "limit", "pointer fields are optional")
	assert.NotContains(t, s.Properties, "skip", "unexported fields are ignored")
}

func TestDecodeArgs(t *testing.T) {
	t.Run("basic decode", func(t *testing.T) {
		args, err := DecodeArgs[searchArgs](map[string]interface{}{
			"query": "golang",
			"limit": float64(5), // JSON numbers decode as float64
			"sort":  "asc",
		})
		require.NoError(t, err)
		assert.Equal(t, "golang", args.Query)
		require.NotNil(t, args.Limit)
		assert.Equal(t, 5, *args.Limit)
	})

	t.Run("missing required field", func(t *testing.T) {
		_, err := DecodeArgs[searchArgs](map[string]interface{}{"sort": "asc"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "query")
	})

	t.Run("enum violation", func(t *testing.T) {
		_, err := DecodeArgs[searchArgs](map[string]interface{}{"query": "x", "sort": "sideways"})
		require.Error(t, err)
	})

	t.Run("nil argument map", func(t *testing.T) {
		_, err := DecodeArgs[searchArgs](nil)
		assert.Error(t, err, "required field still enforced on empty input")
	})
}

func TestCompileAndValidate(t *testing.T) {
	s := protocol.ToolInputSchema{
		Type: "object",
		Properties: map[string]protocol.PropertyDetail{
			"count": {Type: "integer"},
			"mode":  {Type: "string", Enum: []interface{}{"fast", "slow"}},
		},
		Required: []string{"count"},
	}
	compiled, err := Compile(s)
	require.NoError(t, err)
	require.NotNil(t, compiled)

	t.Run("valid arguments", func(t *testing.T) {
		assert.NoError(t, compiled.Validate(map[string]interface{}{"count": 3, "mode": "fast"}))
	})

	t.Run("missing required", func(t *testing.T) {
		assert.Error(t, compiled.Validate(map[string]interface{}{"mode": "fast"}))
	})

	t.Run("type mismatch", func(t *testing.T) {
		assert.Error(t, compiled.Validate(map[string]interface{}{"count": "three"}))
	})

	t.Run("enum mismatch", func(t *testing.T) {
		assert.Error(t, compiled.Validate(map[string]interface{}{"count": 1, "mode": "medium"}))
	})
}

func TestCompile_EmptySchemaDisablesValidation(t *testing.T) {
	compiled, err := Compile(protocol.ToolInputSchema{})
	require.NoError(t, err)
	assert.Nil(t, compiled, "no schema means no validation")
}
