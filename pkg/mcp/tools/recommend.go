package tools

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/ekaya-inc/pantry-engine/pkg/models"
	"github.com/ekaya-inc/pantry-engine/pkg/services"
)

// PantryToolDeps contains dependencies for the pantry tools.
type PantryToolDeps struct {
	DB                    ScopeProvider
	RecommendationService services.RecommendationService
	StockService          services.StockService
	Logger                *zap.Logger
}

// RegisterPantryTools registers the recommendation and stock tools.
func RegisterPantryTools(s *server.MCPServer, deps *PantryToolDeps) {
	registerRecommendRecipesTool(s, deps)
	registerListStockTool(s, deps)
}

// recommendedRecipe is the compact form returned to agents.
// The annotation keys match the REST recommendation rows.
type recommendedRecipe struct {
	ID                 int64    `json:"id"`
	Title              string   `json:"title"`
	MatchPercentage    float64  `json:"match_percentage"`
	MatchedIngredients int      `json:"matched_ingredients"`
	Considered         int      `json:"total_considered_ingredients"`
	MissingCount       int      `json:"missing_ingredient_count"`
	MissingIngredients []string `json:"missing_ingredients"`
}

type recommendResponse struct {
	Count   int                 `json:"count"`
	Results []recommendedRecipe `json:"results"`
}

func registerRecommendRecipesTool(s *server.MCPServer, deps *PantryToolDeps) {
	tool := mcp.NewTool(
		"recommend_recipes",
		mcp.WithDescription(
			"Rank recipes by how many of their non-common ingredients the signed-in user has in stock. "+
				"Best matches come first; recipes sharing no ingredient with the pantry are left out. "+
				"Example: recommend_recipes(tag='Breakfast', limit=3)",
		),
		mcp.WithString(
			"tag",
			mcp.Description("Only rank recipes carrying this tag name (optional)"),
		),
		mcp.WithNumber(
			"limit",
			mcp.Description("Maximum number of recipes to return (optional, defaults to the server setting)"),
		),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithIdempotentHintAnnotation(true),
		mcp.WithOpenWorldHintAnnotation(false),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var limit *int
		value, present, err := getOptionalInt(req, "limit")
		if err != nil {
			return NewErrorResult("invalid_input", err.Error()), nil
		}
		if present {
			limit = &value
		}

		userID, scopedCtx, cleanup, err := acquireUserScope(ctx, deps.DB)
		if err != nil {
			if res := userErrorResult(err); res != nil {
				return res, nil
			}
			return nil, err
		}
		defer cleanup()

		ranked, err := deps.RecommendationService.RecommendFromCatalog(scopedCtx, userID, getOptionalString(req, "tag"), limit)
		if err != nil {
			if res := userErrorResult(err); res != nil {
				return res, nil
			}
			logToolFailure(deps.Logger, "recommend_recipes", err)
			return nil, err
		}

		return jsonResult(toRecommendResponse(ranked))
	})
}

func toRecommendResponse(ranked []models.AnnotatedRecipe) recommendResponse {
	resp := recommendResponse{
		Count:   len(ranked),
		Results: make([]recommendedRecipe, 0, len(ranked)),
	}
	for _, r := range ranked {
		resp.Results = append(resp.Results, recommendedRecipe{
			ID:                 r.ID,
			Title:              r.Title,
			MatchPercentage:    r.MatchPercentage,
			MatchedIngredients: r.MatchedIngredients,
			Considered:         r.TotalConsideredIngredients,
			MissingCount:       r.MissingIngredientCount,
			MissingIngredients: r.MissingIngredients,
		})
	}
	return resp
}
