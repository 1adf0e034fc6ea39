package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/ekaya-inc/pantry-engine/pkg/apperrors"
	"github.com/ekaya-inc/pantry-engine/pkg/database"
	"github.com/ekaya-inc/pantry-engine/pkg/models"
)

// StockRepository defines the interface for user stock data access.
// Every per-user method only sees rows owned by userID.
type StockRepository interface {
	ListByUser(ctx context.Context, userID int64) ([]*models.UserStock, error)
	GetByID(ctx context.Context, userID, stockID int64) (*models.UserStock, error)
	// Create inserts a new batch and fills in its id and date added.
	Create(ctx context.Context, stock *models.UserStock) error
	Update(ctx context.Context, stock *models.UserStock) error
	Delete(ctx context.Context, userID, stockID int64) error
	// DeleteByIngredients removes every batch of the given ingredients and
	// returns the number of rows deleted.
	DeleteByIngredients(ctx context.Context, userID int64, ingredientIDs []int64) (int64, error)
	// DisableExpiredBy disables active batches expiring on or before day and
	// returns the owning user id of each disabled row. Batches a missed sweep
	// left behind are caught by the next one.
	DisableExpiredBy(ctx context.Context, day models.Date) ([]int64, error)
	// ListActiveExpiringOn returns active batches expiring on day across all users.
	ListActiveExpiringOn(ctx context.Context, day models.Date) ([]*models.UserStock, error)
}

// stockRepository implements StockRepository using PostgreSQL.
type stockRepository struct{}

// NewStockRepository creates a new stock repository.
func NewStockRepository() StockRepository {
	return &stockRepository{}
}

const stockSelect = `
	SELECT s.id, s.user_id, i.id, i.name, i.unit_of_measure,
	       s.quantity::float8, s.expiration_date, s.disable, s.date_added
	FROM user_stock s
	JOIN ingredient i ON i.id = s.ingredient_id`

// scanStockColumns scans the stockSelect column list, optionally preceded by extra destinations.
func scanStockColumns(row pgx.Row, extra ...any) (*models.UserStock, error) {
	var s models.UserStock
	var expires *time.Time
	dest := append(extra,
		&s.ID,
		&s.UserID,
		&s.Ingredient.ID,
		&s.Ingredient.Name,
		&s.Ingredient.UnitOfMeasure,
		&s.Quantity,
		&expires,
		&s.Disable,
		&s.DateAdded,
	)
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	s.ExpirationDate = models.DatePtr(expires)
	return &s, nil
}

func collectStock(rows pgx.Rows) ([]*models.UserStock, error) {
	defer rows.Close()

	stock := make([]*models.UserStock, 0)
	for rows.Next() {
		s, err := scanStockColumns(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan stock: %w", err)
		}
		stock = append(stock, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating stock: %w", err)
	}

	return stock, nil
}

func dateArg(d *models.Date) any {
	if d == nil {
		return nil
	}
	return d.Time
}

// ListByUser returns all batches of a user, newest first.
func (r *stockRepository) ListByUser(ctx context.Context, userID int64) ([]*models.UserStock, error) {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return nil, fmt.Errorf("no database scope in context")
	}

	rows, err := scope.Conn.Query(ctx, stockSelect+`
		WHERE s.user_id = $1
		ORDER BY s.date_added DESC, s.id DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list stock: %w", err)
	}
	return collectStock(rows)
}

// GetByID retrieves one batch owned by userID.
func (r *stockRepository) GetByID(ctx context.Context, userID, stockID int64) (*models.UserStock, error) {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return nil, fmt.Errorf("no database scope in context")
	}

	s, err := scanStockColumns(scope.Conn.QueryRow(ctx, stockSelect+`
		WHERE s.id = $1 AND s.user_id = $2`, stockID, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("stock %d: %w", stockID, apperrors.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get stock: %w", err)
	}
	return s, nil
}

// Create inserts a batch.
func (r *stockRepository) Create(ctx context.Context, stock *models.UserStock) error {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return fmt.Errorf("no database scope in context")
	}

	err := scope.Conn.QueryRow(ctx, `
		INSERT INTO user_stock (user_id, ingredient_id, quantity, expiration_date, disable)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, date_added`,
		stock.UserID,
		stock.Ingredient.ID,
		stock.Quantity,
		dateArg(stock.ExpirationDate),
		stock.Disable,
	).Scan(&stock.ID, &stock.DateAdded)
	if err != nil {
		return fmt.Errorf("failed to create stock: %w", err)
	}

	return nil
}

// Update writes quantity, expiration date and disable flag.
func (r *stockRepository) Update(ctx context.Context, stock *models.UserStock) error {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return fmt.Errorf("no database scope in context")
	}

	result, err := scope.Conn.Exec(ctx, `
		UPDATE user_stock
		SET quantity = $3, expiration_date = $4, disable = $5
		WHERE id = $1 AND user_id = $2`,
		stock.ID,
		stock.UserID,
		stock.Quantity,
		dateArg(stock.ExpirationDate),
		stock.Disable,
	)
	if err != nil {
		return fmt.Errorf("failed to update stock: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("stock %d: %w", stock.ID, apperrors.ErrNotFound)
	}

	return nil
}

// Delete removes one batch owned by userID.
func (r *stockRepository) Delete(ctx context.Context, userID, stockID int64) error {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return fmt.Errorf("no database scope in context")
	}

	result, err := scope.Conn.Exec(ctx,
		`DELETE FROM user_stock WHERE id = $1 AND user_id = $2`, stockID, userID)
	if err != nil {
		return fmt.Errorf("failed to delete stock: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("stock %d: %w", stockID, apperrors.ErrNotFound)
	}

	return nil
}

// DeleteByIngredients removes the user's batches of the given ingredients.
func (r *stockRepository) DeleteByIngredients(ctx context.Context, userID int64, ingredientIDs []int64) (int64, error) {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return 0, fmt.Errorf("no database scope in context")
	}

	result, err := scope.Conn.Exec(ctx,
		`DELETE FROM user_stock WHERE user_id = $1 AND ingredient_id = ANY($2)`, userID, ingredientIDs)
	if err != nil {
		return 0, fmt.Errorf("failed to delete stock: %w", err)
	}

	return result.RowsAffected(), nil
}

// DisableExpiredBy marks active batches expiring on or before day as disabled.
func (r *stockRepository) DisableExpiredBy(ctx context.Context, day models.Date) ([]int64, error) {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return nil, fmt.Errorf("no database scope in context")
	}

	rows, err := scope.Conn.Query(ctx, `
		UPDATE user_stock
		SET disable = TRUE
		WHERE expiration_date <= $1 AND disable = FALSE
		RETURNING user_id`, day.Time)
	if err != nil {
		return nil, fmt.Errorf("failed to disable expired stock: %w", err)
	}

	userIDs, err := pgx.CollectRows(rows, pgx.RowTo[int64])
	if err != nil {
		return nil, fmt.Errorf("failed to collect disabled stock: %w", err)
	}
	return userIDs, nil
}

// ListActiveExpiringOn returns active batches expiring on day.
func (r *stockRepository) ListActiveExpiringOn(ctx context.Context, day models.Date) ([]*models.UserStock, error) {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return nil, fmt.Errorf("no database scope in context")
	}

	rows, err := scope.Conn.Query(ctx, stockSelect+`
		WHERE s.expiration_date = $1 AND s.disable = FALSE
		ORDER BY s.user_id, s.id`, day.Time)
	if err != nil {
		return nil, fmt.Errorf("failed to list expiring stock: %w", err)
	}
	return collectStock(rows)
}

// Ensure stockRepository implements StockRepository at compile time.
var _ StockRepository = (*stockRepository)(nil)
