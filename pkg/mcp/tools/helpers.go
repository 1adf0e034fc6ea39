// Package tools provides MCP tool implementations for pantry-engine.
package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"go.uber.org/zap"

	"github.com/ekaya-inc/pantry-engine/pkg/auth"
)

// ScopeProvider acquires a database scope for one tool call.
// *database.DB satisfies it.
type ScopeProvider interface {
	WithScope(ctx context.Context) (context.Context, func(), error)
}

// acquireUserScope resolves the session user and opens a database scope.
// The caller must invoke cleanup when done.
func acquireUserScope(ctx context.Context, db ScopeProvider) (int64, context.Context, func(), error) {
	userID, err := auth.RequireUserID(ctx)
	if err != nil {
		return 0, nil, nil, fmt.Errorf("authentication required: %w", err)
	}

	scopedCtx, cleanup, err := db.WithScope(ctx)
	if err != nil {
		return 0, nil, nil, fmt.Errorf("failed to acquire database connection: %w", err)
	}
	return userID, scopedCtx, cleanup, nil
}

// getOptionalString extracts an optional string argument from the request.
func getOptionalString(req mcp.CallToolRequest, key string) string {
	args, ok := req.Params.Arguments.(map[string]any)
	if !ok {
		return ""
	}
	val, ok := args[key].(string)
	if !ok {
		return ""
	}
	return strings.TrimSpace(val)
}

// getOptionalInt extracts an optional whole-number argument. ok is false when
// the argument is absent; err is set when it is present but not a whole number.
func getOptionalInt(req mcp.CallToolRequest, key string) (value int, ok bool, err error) {
	args, isMap := req.Params.Arguments.(map[string]any)
	if !isMap {
		return 0, false, nil
	}
	raw, present := args[key]
	if !present || raw == nil {
		return 0, false, nil
	}
	f, isNumber := raw.(float64)
	if !isNumber || f != math.Trunc(f) {
		return 0, true, fmt.Errorf("%s must be a whole number", key)
	}
	return int(f), true, nil
}

// jsonResult marshals v into a text tool result.
func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal tool result: %w", err)
	}
	return mcp.NewToolResultText(string(data)), nil
}

// logToolFailure records a system failure that is returned as a Go error.
func logToolFailure(logger *zap.Logger, tool string, err error) {
	logger.Error("MCP tool failed", zap.String("tool", tool), zap.Error(err))
}
