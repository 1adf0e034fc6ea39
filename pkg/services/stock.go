package services

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/ekaya-inc/pantry-engine/pkg/apperrors"
	"github.com/ekaya-inc/pantry-engine/pkg/cache"
	"github.com/ekaya-inc/pantry-engine/pkg/models"
	"github.com/ekaya-inc/pantry-engine/pkg/repositories"
)

// AddStockRequest is the body of a new stock batch.
type AddStockRequest struct {
	Quantity       *float64     `json:"quantity" validate:"omitempty,gt=0"`
	ExpirationDate *models.Date `json:"expiration_date"`
	Disable        *bool        `json:"disable"`
}

// UpdateStockRequest is a partial update. Absent fields are left unchanged;
// an explicit null expiration_date clears the date.
type UpdateStockRequest struct {
	Quantity       *float64            `json:"quantity" validate:"omitempty,gt=0"`
	ExpirationDate models.NullableDate `json:"expiration_date"`
	Disable        *bool               `json:"disable"`
}

// Patch converts the request into a StockPatch.
func (r UpdateStockRequest) Patch() models.StockPatch {
	return models.StockPatch{
		Quantity:        r.Quantity,
		ExpirationDate:  r.ExpirationDate.Value,
		ClearExpiration: r.ExpirationDate.Set && r.ExpirationDate.Value == nil,
		Disable:         r.Disable,
	}
}

// StockService manages a user's pantry stock.
type StockService interface {
	// List returns all of the user's batches, including disabled ones.
	List(ctx context.Context, userID int64) ([]*models.UserStock, error)
	// Add always creates a new batch; quantity defaults to 1.
	Add(ctx context.Context, userID, ingredientID int64, req AddStockRequest) (*models.UserStock, error)
	Update(ctx context.Context, userID, stockID int64, req UpdateStockRequest) (*models.UserStock, error)
	Delete(ctx context.Context, userID, stockID int64) error
	// DeleteIngredients removes every batch of the given ingredients.
	DeleteIngredients(ctx context.Context, userID int64, ingredientIDs []int64) (int64, error)
}

type stockService struct {
	stockRepo      repositories.StockRepository
	ingredientRepo repositories.IngredientRepository
	invalidator    cache.StockInvalidator
	logger         *zap.Logger
}

// NewStockService creates a new stock service. Every mutation invalidates the
// user's cached stock set through invalidator.
func NewStockService(
	stockRepo repositories.StockRepository,
	ingredientRepo repositories.IngredientRepository,
	invalidator cache.StockInvalidator,
	logger *zap.Logger,
) StockService {
	return &stockService{
		stockRepo:      stockRepo,
		ingredientRepo: ingredientRepo,
		invalidator:    invalidator,
		logger:         logger.Named("stock-service"),
	}
}

var _ StockService = (*stockService)(nil)

func (s *stockService) List(ctx context.Context, userID int64) ([]*models.UserStock, error) {
	return s.stockRepo.ListByUser(ctx, userID)
}

func (s *stockService) Add(ctx context.Context, userID, ingredientID int64, req AddStockRequest) (*models.UserStock, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	ingredient, err := s.ingredientRepo.GetByID(ctx, ingredientID)
	if err != nil {
		return nil, err
	}

	stock := &models.UserStock{
		UserID: userID,
		Ingredient: models.StockIngredientInfo{
			ID:            ingredient.ID,
			Name:          ingredient.Name,
			UnitOfMeasure: ingredient.UnitOfMeasure,
		},
		Quantity:       1,
		ExpirationDate: req.ExpirationDate,
	}
	if req.Quantity != nil {
		stock.Quantity = *req.Quantity
	}
	if req.Disable != nil {
		stock.Disable = *req.Disable
	}

	if err := s.stockRepo.Create(ctx, stock); err != nil {
		return nil, err
	}
	s.invalidator.Invalidate(ctx, userID)

	return stock, nil
}

func (s *stockService) Update(ctx context.Context, userID, stockID int64, req UpdateStockRequest) (*models.UserStock, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	patch := req.Patch()
	if patch.IsEmpty() {
		return nil, fmt.Errorf("%w: no updatable fields provided", apperrors.ErrInvalidInput)
	}

	stock, err := s.stockRepo.GetByID(ctx, userID, stockID)
	if err != nil {
		return nil, err
	}

	patch.Apply(stock)
	if err := s.stockRepo.Update(ctx, stock); err != nil {
		return nil, err
	}
	s.invalidator.Invalidate(ctx, userID)

	return stock, nil
}

func (s *stockService) Delete(ctx context.Context, userID, stockID int64) error {
	if err := s.stockRepo.Delete(ctx, userID, stockID); err != nil {
		return err
	}
	s.invalidator.Invalidate(ctx, userID)
	return nil
}

func (s *stockService) DeleteIngredients(ctx context.Context, userID int64, ingredientIDs []int64) (int64, error) {
	if len(ingredientIDs) == 0 {
		return 0, fmt.Errorf("%w: ingredient_ids must contain at least one id", apperrors.ErrInvalidInput)
	}

	deleted, err := s.stockRepo.DeleteByIngredients(ctx, userID, ingredientIDs)
	if err != nil {
		return 0, err
	}
	if deleted > 0 {
		s.invalidator.Invalidate(ctx, userID)
	}

	s.logger.Debug("Deleted stock by ingredient",
		zap.Int64("user_id", userID),
		zap.Int("ingredients", len(ingredientIDs)),
		zap.Int64("deleted", deleted))

	return deleted, nil
}
