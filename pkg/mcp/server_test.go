package mcp

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ekaya-inc/pantry-engine/pkg/mcp/tools"
)

func listToolNames(t *testing.T, s *Server) []string {
	t.Helper()
	raw, err := json.Marshal(s.MCP().HandleMessage(context.Background(), []byte(`{"jsonrpc":"2.0","method":"tools/list","id":1}`)))
	require.NoError(t, err)

	var resp struct {
		Result struct {
			Tools []struct {
				Name string `json:"name"`
			} `json:"tools"`
		} `json:"result"`
	}
	require.NoError(t, json.Unmarshal(raw, &resp))

	names := make([]string, 0, len(resp.Result.Tools))
	for _, tool := range resp.Result.Tools {
		names = append(names, tool.Name)
	}
	return names
}

func TestNewServer_RegistersHealth(t *testing.T) {
	logger := zap.NewNop()
	s := NewServer("pantry-engine", "1.0.0", logger)

	require.NotNil(t, s.MCP())
	assert.Same(t, logger, s.logger)
	assert.Equal(t, []string{"health"}, listToolNames(t, s))
}

func TestServer_RegisterPantryTools(t *testing.T) {
	s := NewServer("pantry-engine", "1.0.0", zap.NewNop())
	s.RegisterPantryTools(&tools.PantryToolDeps{Logger: zap.NewNop()})

	assert.ElementsMatch(t, []string{"health", "recommend_recipes", "list_stock"}, listToolNames(t, s))
}

func TestServer_NewStreamableHTTPServer(t *testing.T) {
	s := NewServer("pantry-engine", "1.0.0", zap.NewNop())
	assert.NotNil(t, s.NewStreamableHTTPServer())
}
