package server

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lakeward/mcpserve/protocol"
)

func noopTool(ctx context.Context, args map[string]interface{}) (interface{}, error) {
	return "ok", nil
}

func TestRegistry_OverwriteByDefault(t *testing.T) {
	srv := newTestServer(t)

	require.NoError(t, srv.RegisterTool(protocol.Tool{Name: "t", Description: "first"}, noopTool))
	require.NoError(t, srv.RegisterTool(protocol.Tool{Name: "t", Description: "second"}, noopTool))

	entry, ok := srv.tools.get("t")
	require.True(t, ok)
	assert.Equal(t, "second", entry.def.Description)
	assert.Equal(t, 1, srv.tools.len())
}

func TestRegistry_RejectDuplicatesPolicy(t *testing.T) {
	srv := newTestServer(t, WithDuplicatePolicy(RejectDuplicates))

	require.NoError(t, srv.RegisterTool(protocol.Tool{Name: "t", Description: "first"}, noopTool))
	err := srv.RegisterTool(protocol.Tool{Name: "t", Description: "second"}, noopTool)
	require.Error(t, err)

	entry, _ := srv.tools.get("t")
	assert.Equal(t, "first", entry.def.Description, "original registration must survive")
}

func TestRegistry_ListingOrderIsInsertionOrder(t *testing.T) {
	srv := newTestServer(t)
	for _, name := range []string{"zeta", "alpha", "mid"} {
		require.NoError(t, srv.RegisterTool(protocol.Tool{Name: name}, noopTool))
	}
	// Overwriting keeps the original position.
	require.NoError(t, srv.RegisterTool(protocol.Tool{Name: "alpha", Description: "v2"}, noopTool))

	entries := srv.tools.list()
	names := make([]string, len(entries))
	for i, e := range entries {
		names[i] = e.def.Name
	}
	assert.Equal(t, []string{"zeta", "alpha", "mid"}, names)
}

func TestRegistry_RemoveUnknownIsNoop(t *testing.T) {
	srv := newTestServer(t)
	srv.RemoveTool("ghost")
	srv.RemoveResource("ghost://nothing")
	srv.RemovePrompt("ghost")
	assert.Equal(t, 0, srv.tools.len())
}

func TestRegistry_ValidationErrors(t *testing.T) {
	srv := newTestServer(t)

	assert.Error(t, srv.RegisterTool(protocol.Tool{}, noopTool), "empty tool name")
	assert.Error(t, srv.RegisterTool(protocol.Tool{Name: "t"}, nil), "nil handler")
	assert.Error(t, srv.RegisterResource(protocol.Resource{}, func(ctx context.Context) (interface{}, error) { return nil, nil }), "empty URI")
	assert.Error(t, srv.RegisterPrompt(protocol.Prompt{}, func(ctx context.Context, args map[string]interface{}) ([]protocol.PromptMessage, error) {
		return nil, nil
	}), "empty prompt name")
}

func TestRegistry_ConcurrentMutationDuringDispatch(t *testing.T) {
	srv := newTestServer(t)
	registerEchoTool(t, srv)

	var wg sync.WaitGroup

	// Writers register and remove tools while readers dispatch calls.
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			name := fmt.Sprintf("tool-%d", i)
			for j := 0; j < 20; j++ {
				_ = srv.RegisterTool(protocol.Tool{Name: name}, noopTool)
				srv.RemoveTool(name)
			}
		}(i)
	}

	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			resp := srv.HandleMessage(context.Background(),
				[]byte(`{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{"name":"echo","arguments":{"message":"x"}}}`),
				RequestMeta{ClientKey: "c"})
			require.Len(t, resp, 1)
			assert.Nil(t, resp[0].Error)
		}()
	}

	wg.Wait()
}
