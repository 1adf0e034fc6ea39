package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/ekaya-inc/pantry-engine/pkg/apperrors"
	"github.com/ekaya-inc/pantry-engine/pkg/database"
	"github.com/ekaya-inc/pantry-engine/pkg/models"
)

// IngredientRepository defines the interface for ingredient data access.
type IngredientRepository interface {
	// ListNonCommon returns ingredients users can stock, ordered by name.
	ListNonCommon(ctx context.Context) ([]*models.Ingredient, error)
	GetByID(ctx context.Context, id int64) (*models.Ingredient, error)
	GetByName(ctx context.Context, name string) (*models.Ingredient, error)
	// Upsert inserts or updates an ingredient keyed by name and fills in its id.
	Upsert(ctx context.Context, ingredient *models.Ingredient) error
	// DeleteWithRecipes removes the ingredient and every recipe that uses it
	// in one transaction, returning the number of recipes removed.
	DeleteWithRecipes(ctx context.Context, id int64) (int64, error)
}

// ingredientRepository implements IngredientRepository using PostgreSQL.
type ingredientRepository struct{}

// NewIngredientRepository creates a new ingredient repository.
func NewIngredientRepository() IngredientRepository {
	return &ingredientRepository{}
}

const ingredientColumns = `id, name, unit_of_measure, calories::float8, common`

func scanIngredient(row pgx.Row) (*models.Ingredient, error) {
	var ing models.Ingredient
	err := row.Scan(
		&ing.ID,
		&ing.Name,
		&ing.UnitOfMeasure,
		&ing.Calories,
		&ing.Common,
	)
	if err != nil {
		return nil, err
	}
	return &ing, nil
}

// ListNonCommon returns every ingredient with common = false.
func (r *ingredientRepository) ListNonCommon(ctx context.Context) ([]*models.Ingredient, error) {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return nil, fmt.Errorf("no database scope in context")
	}

	query := `SELECT ` + ingredientColumns + ` FROM ingredient WHERE common = FALSE ORDER BY name`

	rows, err := scope.Conn.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list ingredients: %w", err)
	}
	defer rows.Close()

	ingredients := make([]*models.Ingredient, 0)
	for rows.Next() {
		ing, err := scanIngredient(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan ingredient: %w", err)
		}
		ingredients = append(ingredients, ing)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating ingredients: %w", err)
	}

	return ingredients, nil
}

// GetByID retrieves an ingredient by id.
func (r *ingredientRepository) GetByID(ctx context.Context, id int64) (*models.Ingredient, error) {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return nil, fmt.Errorf("no database scope in context")
	}

	query := `SELECT ` + ingredientColumns + ` FROM ingredient WHERE id = $1`

	ing, err := scanIngredient(scope.Conn.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("ingredient %d: %w", id, apperrors.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get ingredient: %w", err)
	}
	return ing, nil
}

// GetByName retrieves an ingredient by its exact name.
func (r *ingredientRepository) GetByName(ctx context.Context, name string) (*models.Ingredient, error) {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return nil, fmt.Errorf("no database scope in context")
	}

	query := `SELECT ` + ingredientColumns + ` FROM ingredient WHERE name = $1`

	ing, err := scanIngredient(scope.Conn.QueryRow(ctx, query, name))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("ingredient %q: %w", name, apperrors.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get ingredient: %w", err)
	}
	return ing, nil
}

// Upsert inserts the ingredient or updates the one with the same name.
func (r *ingredientRepository) Upsert(ctx context.Context, ingredient *models.Ingredient) error {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return fmt.Errorf("no database scope in context")
	}

	query := `
		INSERT INTO ingredient (name, unit_of_measure, calories, common)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (name) DO UPDATE
		SET unit_of_measure = COALESCE(EXCLUDED.unit_of_measure, ingredient.unit_of_measure),
		    calories = COALESCE(EXCLUDED.calories, ingredient.calories),
		    common = EXCLUDED.common
		RETURNING id`

	err := scope.Conn.QueryRow(ctx, query,
		ingredient.Name,
		ingredient.UnitOfMeasure,
		ingredient.Calories,
		ingredient.Common,
	).Scan(&ingredient.ID)
	if err != nil {
		return fmt.Errorf("failed to upsert ingredient: %w", err)
	}

	return nil
}

// DeleteWithRecipes deletes the recipes using the ingredient, then the ingredient.
// Recipe ingredient rows, tag links, stock and notifications cascade.
func (r *ingredientRepository) DeleteWithRecipes(ctx context.Context, id int64) (deleted int64, err error) {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return 0, fmt.Errorf("no database scope in context")
	}

	tx, err := scope.Conn.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	var exists bool
	err = tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM ingredient WHERE id = $1)`, id).Scan(&exists)
	if err != nil {
		return 0, fmt.Errorf("failed to check ingredient: %w", err)
	}
	if !exists {
		err = fmt.Errorf("ingredient %d: %w", id, apperrors.ErrNotFound)
		return 0, err
	}

	result, err := tx.Exec(ctx, `
		DELETE FROM recipe
		WHERE id IN (SELECT DISTINCT recipe_id FROM recipe_ingredient WHERE ingredient_id = $1)`, id)
	if err != nil {
		return 0, fmt.Errorf("failed to delete recipes: %w", err)
	}
	deleted = result.RowsAffected()

	if _, err = tx.Exec(ctx, `DELETE FROM ingredient WHERE id = $1`, id); err != nil {
		return 0, fmt.Errorf("failed to delete ingredient: %w", err)
	}

	if err = tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return deleted, nil
}

// Ensure ingredientRepository implements IngredientRepository at compile time.
var _ IngredientRepository = (*ingredientRepository)(nil)
