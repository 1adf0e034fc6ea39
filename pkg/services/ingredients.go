package services

import (
	"context"

	"go.uber.org/zap"

	"github.com/ekaya-inc/pantry-engine/pkg/models"
	"github.com/ekaya-inc/pantry-engine/pkg/repositories"
)

// IngredientService manages the ingredient catalog.
type IngredientService interface {
	// ListStockable returns the non-common ingredients a user can add to stock.
	ListStockable(ctx context.Context) ([]*models.Ingredient, error)
	// Delete removes an ingredient together with every recipe that uses it
	// and returns how many recipes were removed.
	Delete(ctx context.Context, id int64) (int64, error)
}

type ingredientService struct {
	ingredientRepo repositories.IngredientRepository
	logger         *zap.Logger
}

// NewIngredientService creates a new ingredient service.
func NewIngredientService(ingredientRepo repositories.IngredientRepository, logger *zap.Logger) IngredientService {
	return &ingredientService{
		ingredientRepo: ingredientRepo,
		logger:         logger.Named("ingredient-service"),
	}
}

var _ IngredientService = (*ingredientService)(nil)

func (s *ingredientService) ListStockable(ctx context.Context) ([]*models.Ingredient, error) {
	return s.ingredientRepo.ListNonCommon(ctx)
}

// Delete cascades to user stock rows of the ingredient as well. Cached stock
// sets may still list the id until their TTL; no remaining recipe uses it.
func (s *ingredientService) Delete(ctx context.Context, id int64) (int64, error) {
	deleted, err := s.ingredientRepo.DeleteWithRecipes(ctx, id)
	if err != nil {
		return 0, err
	}

	s.logger.Info("Deleted ingredient",
		zap.Int64("ingredient_id", id),
		zap.Int64("recipes_deleted", deleted))

	return deleted, nil
}
