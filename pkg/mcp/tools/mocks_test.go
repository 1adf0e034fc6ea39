package tools

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/mark3labs/mcp-go/server"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ekaya-inc/pantry-engine/pkg/auth"
	"github.com/ekaya-inc/pantry-engine/pkg/models"
	"github.com/ekaya-inc/pantry-engine/pkg/services"
)

// fakeScope hands out the caller's context and counts releases.
type fakeScope struct {
	err      error
	acquired int
	released int
}

func (f *fakeScope) WithScope(ctx context.Context) (context.Context, func(), error) {
	if f.err != nil {
		return nil, nil, f.err
	}
	f.acquired++
	return ctx, func() { f.released++ }, nil
}

type mockRecommendationService struct {
	results   []models.AnnotatedRecipe
	err       error
	lastUser  int64
	lastTag   string
	lastLimit *int
}

func (m *mockRecommendationService) Recommend(ctx context.Context, userID int64, candidates []*models.Recipe, limit *int) ([]models.AnnotatedRecipe, error) {
	return m.results, m.err
}

func (m *mockRecommendationService) RecommendFromCatalog(ctx context.Context, userID int64, tag string, limit *int) ([]models.AnnotatedRecipe, error) {
	m.lastUser, m.lastTag, m.lastLimit = userID, tag, limit
	return m.results, m.err
}

type mockStockService struct {
	services.StockService
	stock    []*models.UserStock
	err      error
	lastUser int64
}

func (m *mockStockService) List(ctx context.Context, userID int64) ([]*models.UserStock, error) {
	m.lastUser = userID
	return m.stock, m.err
}

// toolResponse is the JSON-RPC envelope of a tools/call reply.
type toolResponse struct {
	Result struct {
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"content"`
		IsError bool `json:"isError"`
	} `json:"result"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func newTestServer(deps *PantryToolDeps) *server.MCPServer {
	s := server.NewMCPServer("test", "1.0.0", server.WithToolCapabilities(true))
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	RegisterPantryTools(s, deps)
	return s
}

// callTool sends a tools/call for name as userID (0 means anonymous).
func callTool(t *testing.T, s *server.MCPServer, userID int64, name string, args map[string]any) toolResponse {
	t.Helper()

	ctx := context.Background()
	if userID > 0 {
		ctx = auth.WithUserID(ctx, userID)
	}

	msg, err := json.Marshal(map[string]any{
		"jsonrpc": "2.0",
		"id":      1,
		"method":  "tools/call",
		"params":  map[string]any{"name": name, "arguments": args},
	})
	require.NoError(t, err)

	raw, err := json.Marshal(s.HandleMessage(ctx, msg))
	require.NoError(t, err)

	var resp toolResponse
	require.NoError(t, json.Unmarshal(raw, &resp))
	return resp
}
