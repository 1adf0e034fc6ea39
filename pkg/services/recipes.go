package services

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/ekaya-inc/pantry-engine/pkg/apperrors"
	"github.com/ekaya-inc/pantry-engine/pkg/models"
	"github.com/ekaya-inc/pantry-engine/pkg/repositories"
)

// RecipePage is one page of a recipe listing.
type RecipePage struct {
	Recipes     []*models.Recipe
	Count       int
	Page        int
	HasNext     bool
	HasPrevious bool
}

// RecipeService browses the recipe catalog.
type RecipeService interface {
	// List returns page (1-based) of recipes matching filter, newest first.
	// A page past the end returns ErrNotFound; page 1 of an empty listing does not.
	List(ctx context.Context, filter models.RecipeFilter, page int) (*RecipePage, error)
	Get(ctx context.Context, id int64) (*models.Recipe, error)
	ListTags(ctx context.Context) ([]*models.Tag, error)
}

type recipeService struct {
	recipeRepo repositories.RecipeRepository
	tagRepo    repositories.TagRepository
	pageSize   int
	logger     *zap.Logger
}

// NewRecipeService creates a new recipe service.
func NewRecipeService(recipeRepo repositories.RecipeRepository, tagRepo repositories.TagRepository, pageSize int, logger *zap.Logger) RecipeService {
	return &recipeService{
		recipeRepo: recipeRepo,
		tagRepo:    tagRepo,
		pageSize:   pageSize,
		logger:     logger.Named("recipe-service"),
	}
}

var _ RecipeService = (*recipeService)(nil)

func (s *recipeService) List(ctx context.Context, filter models.RecipeFilter, page int) (*RecipePage, error) {
	if page < 1 {
		return nil, fmt.Errorf("page %d: %w", page, apperrors.ErrNotFound)
	}

	count, err := s.recipeRepo.Count(ctx, filter)
	if err != nil {
		return nil, err
	}

	offset := (page - 1) * s.pageSize
	if page > 1 && offset >= count {
		return nil, fmt.Errorf("page %d: %w", page, apperrors.ErrNotFound)
	}

	recipes, err := s.recipeRepo.List(ctx, filter, s.pageSize, offset)
	if err != nil {
		return nil, err
	}

	return &RecipePage{
		Recipes:     recipes,
		Count:       count,
		Page:        page,
		HasNext:     offset+len(recipes) < count,
		HasPrevious: page > 1,
	}, nil
}

func (s *recipeService) Get(ctx context.Context, id int64) (*models.Recipe, error) {
	return s.recipeRepo.GetByID(ctx, id)
}

func (s *recipeService) ListTags(ctx context.Context) ([]*models.Tag, error) {
	return s.tagRepo.List(ctx)
}
