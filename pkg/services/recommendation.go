package services

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/ekaya-inc/pantry-engine/pkg/apperrors"
	"github.com/ekaya-inc/pantry-engine/pkg/metrics"
	"github.com/ekaya-inc/pantry-engine/pkg/models"
	"github.com/ekaya-inc/pantry-engine/pkg/recommendation"
	"github.com/ekaya-inc/pantry-engine/pkg/repositories"
)

// RecommendationService ranks recipes against a user's stock.
type RecommendationService interface {
	// Recommend ranks the given candidates for userID. Candidate ingredient
	// rows are loaded from storage. A nil limit uses the configured default.
	Recommend(ctx context.Context, userID int64, candidates []*models.Recipe, limit *int) ([]models.AnnotatedRecipe, error)

	// RecommendFromCatalog ranks every recipe (newest first), optionally
	// restricted to a tag name.
	RecommendFromCatalog(ctx context.Context, userID int64, tag string, limit *int) ([]models.AnnotatedRecipe, error)
}

type recommendationService struct {
	userRepo     repositories.UserRepository
	recipeRepo   repositories.RecipeRepository
	source       repositories.RecommendationSource
	defaultLimit int
	metrics      *metrics.Metrics
	logger       *zap.Logger
}

// NewRecommendationService creates a new recommendation service.
// source is usually the Redis-backed stock cache.
func NewRecommendationService(
	userRepo repositories.UserRepository,
	recipeRepo repositories.RecipeRepository,
	source repositories.RecommendationSource,
	defaultLimit int,
	m *metrics.Metrics,
	logger *zap.Logger,
) RecommendationService {
	return &recommendationService{
		userRepo:     userRepo,
		recipeRepo:   recipeRepo,
		source:       source,
		defaultLimit: defaultLimit,
		metrics:      m,
		logger:       logger.Named("recommendation-service"),
	}
}

var _ RecommendationService = (*recommendationService)(nil)

func (s *recommendationService) Recommend(ctx context.Context, userID int64, candidates []*models.Recipe, limit *int) ([]models.AnnotatedRecipe, error) {
	start := time.Now()

	if limit == nil {
		limit = &s.defaultLimit
	}
	if *limit < 0 {
		return nil, fmt.Errorf("%w: limit must not be negative, got %d", apperrors.ErrInvalidInput, *limit)
	}

	if _, err := s.userRepo.GetByID(ctx, userID); err != nil {
		return nil, err
	}

	stock, err := s.source.GetActiveStockIngredientIDs(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load stock: %w", err)
	}

	withRows, err := s.attachIngredients(ctx, candidates)
	if err != nil {
		return nil, err
	}

	result, err := recommendation.Rank(stock, withRows, recommendation.Options{Limit: limit})
	if err != nil {
		return nil, err
	}

	for _, skipped := range result.Skipped {
		s.logger.Warn("Skipped recipe with corrupt ingredient rows",
			zap.Int64("recipe_id", skipped.RecipeID),
			zap.String("reason", skipped.Reason))
	}

	s.metrics.ObserveRecommendation(time.Since(start), len(candidates), result.Excluded, len(result.Skipped))
	s.logger.Debug("Ranked recipes",
		zap.Int64("user_id", userID),
		zap.Int("candidates", len(candidates)),
		zap.Int("stock_size", len(stock)),
		zap.Int("returned", len(result.Recipes)),
		zap.Int("excluded", result.Excluded))

	return result.Recipes, nil
}

func (s *recommendationService) RecommendFromCatalog(ctx context.Context, userID int64, tag string, limit *int) ([]models.AnnotatedRecipe, error) {
	candidates, err := s.recipeRepo.ListCandidates(ctx, models.RecipeFilter{Tag: tag})
	if err != nil {
		return nil, fmt.Errorf("failed to list candidate recipes: %w", err)
	}
	return s.Recommend(ctx, userID, candidates, limit)
}

// attachIngredients returns shallow copies of candidates carrying their
// stored ingredient rows. Nil entries are kept so ranking can reject them.
func (s *recommendationService) attachIngredients(ctx context.Context, candidates []*models.Recipe) ([]*models.Recipe, error) {
	if len(candidates) == 0 {
		return candidates, nil
	}

	ids := make([]int64, 0, len(candidates))
	for _, r := range candidates {
		if r != nil {
			ids = append(ids, r.ID)
		}
	}

	rows, err := s.source.GetRecipeIngredients(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load recipe ingredients: %w", err)
	}

	out := make([]*models.Recipe, len(candidates))
	for i, r := range candidates {
		if r == nil {
			continue
		}
		clone := *r
		clone.Ingredients = rows[r.ID]
		if clone.Ingredients == nil {
			clone.Ingredients = []models.RecipeIngredient{}
		}
		if clone.Tags == nil {
			clone.Tags = []models.Tag{}
		}
		out[i] = &clone
	}
	return out, nil
}
