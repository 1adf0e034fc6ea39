package repositories

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/ekaya-inc/pantry-engine/pkg/database"
	"github.com/ekaya-inc/pantry-engine/pkg/models"
	"github.com/ekaya-inc/pantry-engine/pkg/recommendation"
)

// RecommendationSource reads the two inputs of a ranking run.
type RecommendationSource interface {
	// GetActiveStockIngredientIDs returns the distinct ingredient ids the
	// user holds in at least one non-disabled batch.
	GetActiveStockIngredientIDs(ctx context.Context, userID int64) (recommendation.StockSet, error)
	// GetRecipeIngredients returns ingredient rows keyed by recipe id in
	// stored order. Recipes without rows are absent from the map.
	GetRecipeIngredients(ctx context.Context, recipeIDs []int64) (map[int64][]models.RecipeIngredient, error)
}

// recommendationSource implements RecommendationSource using PostgreSQL.
type recommendationSource struct{}

// NewRecommendationSource creates a new recommendation source.
func NewRecommendationSource() RecommendationSource {
	return &recommendationSource{}
}

// GetActiveStockIngredientIDs reads the user's stock set.
func (r *recommendationSource) GetActiveStockIngredientIDs(ctx context.Context, userID int64) (recommendation.StockSet, error) {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return nil, fmt.Errorf("no database scope in context")
	}

	rows, err := scope.Conn.Query(ctx, `
		SELECT DISTINCT ingredient_id
		FROM user_stock
		WHERE user_id = $1 AND disable = FALSE`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query stock ingredients: %w", err)
	}

	ids, err := pgx.CollectRows(rows, pgx.RowTo[int64])
	if err != nil {
		return nil, fmt.Errorf("failed to collect stock ingredients: %w", err)
	}

	return recommendation.NewStockSet(ids...), nil
}

// GetRecipeIngredients reads ingredient rows for a batch of recipes.
func (r *recommendationSource) GetRecipeIngredients(ctx context.Context, recipeIDs []int64) (map[int64][]models.RecipeIngredient, error) {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return nil, fmt.Errorf("no database scope in context")
	}

	return loadIngredients(ctx, scope.Conn, recipeIDs)
}

// Ensure recommendationSource implements RecommendationSource at compile time.
var _ RecommendationSource = (*recommendationSource)(nil)
