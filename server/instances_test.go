package server

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lakeward/mcpserve/logx"
	"github.com/lakeward/mcpserve/protocol"
)

func TestInstance_GetOrCreate(t *testing.T) {
	a := Instance("instances-test-a", WithLogger(logx.NopLogger{}))
	b := Instance("instances-test-a")
	assert.Same(t, a, b, "same name must yield the same instance")

	c := Instance("instances-test-b", WithLogger(logx.NopLogger{}))
	assert.NotSame(t, a, c)
}

func TestInstance_OptionsIgnoredOnExisting(t *testing.T) {
	a := Instance("instances-test-opts", WithLogger(logx.NopLogger{}), WithVersion("1.0.0"))
	b := Instance("instances-test-opts", WithVersion("2.0.0"))
	assert.Same(t, a, b)
	assert.Equal(t, "1.0.0", b.version, "options on an existing instance are ignored")
}

func TestLookup(t *testing.T) {
	_, ok := Lookup("instances-test-missing")
	assert.False(t, ok)

	created := Instance("instances-test-lookup", WithLogger(logx.NopLogger{}))
	found, ok := Lookup("instances-test-lookup")
	require.True(t, ok)
	assert.Same(t, created, found)
}

func TestRebuild_ReplacesInstanceAndClearsState(t *testing.T) {
	old := Instance("instances-test-rebuild", WithLogger(logx.NopLogger{}))
	require.NoError(t, old.RegisterTool(protocol.Tool{Name: "t"}, func(ctx context.Context, args map[string]interface{}) (interface{}, error) {
		return nil, nil
	}))
	old.stats.RecordToolCall("t")

	fresh := Rebuild("instances-test-rebuild", WithLogger(logx.NopLogger{}))
	assert.NotSame(t, old, fresh)
	assert.Equal(t, 0, fresh.tools.len(), "rebuilt instance starts empty")
	assert.Zero(t, fresh.Stats().TotalRequests)

	// The displaced instance is scrubbed too.
	assert.Equal(t, 0, old.tools.len())
	assert.Empty(t, old.Stats().MostUsedTool)

	again, ok := Lookup("instances-test-rebuild")
	require.True(t, ok)
	assert.Same(t, fresh, again)
}
