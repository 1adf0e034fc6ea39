package tools

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/ekaya-inc/pantry-engine/pkg/models"
)

type stockItem struct {
	ID             int64        `json:"id"`
	Ingredient     string       `json:"ingredient"`
	Quantity       float64      `json:"quantity"`
	Unit           *string      `json:"unit,omitempty"`
	ExpirationDate *models.Date `json:"expiration_date,omitempty"`
	Disabled       bool         `json:"disabled"`
}

type listStockResponse struct {
	Active   int         `json:"active"`
	Disabled int         `json:"disabled"`
	Items    []stockItem `json:"items"`
}

func registerListStockTool(s *server.MCPServer, deps *PantryToolDeps) {
	tool := mcp.NewTool(
		"list_stock",
		mcp.WithDescription(
			"List the signed-in user's pantry stock, newest first. "+
				"Disabled rows (expired or switched off) are included and flagged; only active rows count for recommendations.",
		),
		mcp.WithBoolean(
			"active_only",
			mcp.Description("Leave out disabled rows (default false)"),
		),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithIdempotentHintAnnotation(true),
		mcp.WithOpenWorldHintAnnotation(false),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		userID, scopedCtx, cleanup, err := acquireUserScope(ctx, deps.DB)
		if err != nil {
			if res := userErrorResult(err); res != nil {
				return res, nil
			}
			return nil, err
		}
		defer cleanup()

		stock, err := deps.StockService.List(scopedCtx, userID)
		if err != nil {
			logToolFailure(deps.Logger, "list_stock", err)
			return nil, err
		}

		activeOnly := req.GetBool("active_only", false)
		resp := listStockResponse{Items: make([]stockItem, 0, len(stock))}
		for _, row := range stock {
			if row.Disable {
				resp.Disabled++
				if activeOnly {
					continue
				}
			} else {
				resp.Active++
			}
			resp.Items = append(resp.Items, stockItem{
				ID:             row.ID,
				Ingredient:     row.Ingredient.Name,
				Quantity:       row.Quantity,
				Unit:           row.Ingredient.UnitOfMeasure,
				ExpirationDate: row.ExpirationDate,
				Disabled:       row.Disable,
			})
		}

		return jsonResult(resp)
	})
}
