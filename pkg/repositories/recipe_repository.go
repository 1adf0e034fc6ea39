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

// RecipeRepository defines the interface for recipe data access.
// Listings are ordered newest first, then by id descending.
type RecipeRepository interface {
	// List returns one page of recipes with tags and ingredients attached.
	List(ctx context.Context, filter models.RecipeFilter, limit, offset int) ([]*models.Recipe, error)
	Count(ctx context.Context, filter models.RecipeFilter) (int, error)
	// ListCandidates returns every matching recipe with tags but without
	// ingredients, for ranking against a user's stock.
	ListCandidates(ctx context.Context, filter models.RecipeFilter) ([]*models.Recipe, error)
	GetByID(ctx context.Context, id int64) (*models.Recipe, error)
	// Upsert stores a recipe keyed by external id when present and replaces
	// its ingredient rows and tag links. Ingredient and tag ids must be set.
	Upsert(ctx context.Context, recipe *models.Recipe) error
}

// recipeRepository implements RecipeRepository using PostgreSQL.
type recipeRepository struct{}

// NewRecipeRepository creates a new recipe repository.
func NewRecipeRepository() RecipeRepository {
	return &recipeRepository{}
}

const recipeColumns = `r.id, r.external_id, r.title, r.short_detail, r.instructions, r.servings, r.level, r.created_at`

const recipeFilterClause = `
	WHERE ($1 = '' OR r.title ILIKE $2)
	  AND ($3 = '' OR EXISTS (
		SELECT 1 FROM recipe_tags rt
		JOIN tag t ON t.id = rt.tag_id
		WHERE rt.recipe_id = r.id AND t.name = $3))`

const recipeOrderClause = ` ORDER BY r.created_at DESC NULLS LAST, r.id DESC`

func filterArgs(filter models.RecipeFilter) []any {
	return []any{filter.Search, containsPattern(filter.Search), filter.Tag}
}

func scanRecipe(row pgx.Row) (*models.Recipe, error) {
	var r models.Recipe
	err := row.Scan(
		&r.ID,
		&r.ExternalID,
		&r.Title,
		&r.ShortDetail,
		&r.Instructions,
		&r.Servings,
		&r.Level,
		&r.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	r.Tags = []models.Tag{}
	r.Ingredients = []models.RecipeIngredient{}
	return &r, nil
}

// queryRecipes runs a recipe select and collects the rows before returning,
// so the caller can issue follow-up queries on the same connection.
func queryRecipes(ctx context.Context, q querier, query string, args ...any) ([]*models.Recipe, error) {
	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query recipes: %w", err)
	}
	defer rows.Close()

	recipes := make([]*models.Recipe, 0)
	for rows.Next() {
		r, err := scanRecipe(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan recipe: %w", err)
		}
		recipes = append(recipes, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating recipes: %w", err)
	}

	return recipes, nil
}

func recipeIDs(recipes []*models.Recipe) []int64 {
	ids := make([]int64, len(recipes))
	for i, r := range recipes {
		ids[i] = r.ID
	}
	return ids
}

// loadTags fetches tags for the given recipes keyed by recipe id.
func loadTags(ctx context.Context, q querier, ids []int64) (map[int64][]models.Tag, error) {
	result := make(map[int64][]models.Tag)
	if len(ids) == 0 {
		return result, nil
	}

	rows, err := q.Query(ctx, `
		SELECT rt.recipe_id, t.id, t.external_id, t.name, t.slug, t.taxonomy
		FROM recipe_tags rt
		JOIN tag t ON t.id = rt.tag_id
		WHERE rt.recipe_id = ANY($1)
		ORDER BY t.name, t.id`, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to query recipe tags: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var recipeID int64
		var tag models.Tag
		if err := rows.Scan(&recipeID, &tag.ID, &tag.ExternalID, &tag.Name, &tag.Slug, &tag.Taxonomy); err != nil {
			return nil, fmt.Errorf("failed to scan recipe tag: %w", err)
		}
		result[recipeID] = append(result[recipeID], tag)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating recipe tags: %w", err)
	}

	return result, nil
}

// loadIngredients fetches ingredient rows for the given recipes keyed by
// recipe id, in stored order. A row whose ingredient cannot be resolved is
// returned with IngredientID 0 and an empty name.
func loadIngredients(ctx context.Context, q querier, ids []int64) (map[int64][]models.RecipeIngredient, error) {
	result := make(map[int64][]models.RecipeIngredient)
	if len(ids) == 0 {
		return result, nil
	}

	rows, err := q.Query(ctx, `
		SELECT ri.id, ri.recipe_id, COALESCE(i.id, 0), COALESCE(i.name, ''), COALESCE(i.common, FALSE),
		       ri.required_quantity::float8, ri.required_unit, ri.group_name
		FROM recipe_ingredient ri
		LEFT JOIN ingredient i ON i.id = ri.ingredient_id
		WHERE ri.recipe_id = ANY($1)
		ORDER BY ri.recipe_id, ri.id`, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to query recipe ingredients: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var ri models.RecipeIngredient
		err := rows.Scan(
			&ri.ID,
			&ri.RecipeID,
			&ri.IngredientID,
			&ri.IngredientName,
			&ri.IngredientCommon,
			&ri.RequiredQuantity,
			&ri.RequiredUnit,
			&ri.GroupName,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan recipe ingredient: %w", err)
		}
		result[ri.RecipeID] = append(result[ri.RecipeID], ri)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating recipe ingredients: %w", err)
	}

	return result, nil
}

func attachTags(ctx context.Context, q querier, recipes []*models.Recipe) error {
	tags, err := loadTags(ctx, q, recipeIDs(recipes))
	if err != nil {
		return err
	}
	for _, r := range recipes {
		if t, ok := tags[r.ID]; ok {
			r.Tags = t
		}
	}
	return nil
}

func attachIngredients(ctx context.Context, q querier, recipes []*models.Recipe) error {
	ingredients, err := loadIngredients(ctx, q, recipeIDs(recipes))
	if err != nil {
		return err
	}
	for _, r := range recipes {
		if ri, ok := ingredients[r.ID]; ok {
			r.Ingredients = ri
		}
	}
	return nil
}

// List returns a page of recipes matching filter.
func (r *recipeRepository) List(ctx context.Context, filter models.RecipeFilter, limit, offset int) ([]*models.Recipe, error) {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return nil, fmt.Errorf("no database scope in context")
	}

	args := append(filterArgs(filter), limit, offset)
	query := `SELECT ` + recipeColumns + ` FROM recipe r` + recipeFilterClause + recipeOrderClause + ` LIMIT $4 OFFSET $5`

	recipes, err := queryRecipes(ctx, scope.Conn, query, args...)
	if err != nil {
		return nil, err
	}
	if err := attachTags(ctx, scope.Conn, recipes); err != nil {
		return nil, err
	}
	if err := attachIngredients(ctx, scope.Conn, recipes); err != nil {
		return nil, err
	}
	return recipes, nil
}

// Count returns the number of recipes matching filter.
func (r *recipeRepository) Count(ctx context.Context, filter models.RecipeFilter) (int, error) {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return 0, fmt.Errorf("no database scope in context")
	}

	var count int
	query := `SELECT COUNT(*) FROM recipe r` + recipeFilterClause
	if err := scope.Conn.QueryRow(ctx, query, filterArgs(filter)...).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count recipes: %w", err)
	}
	return count, nil
}

// ListCandidates returns all recipes matching filter with tags attached.
func (r *recipeRepository) ListCandidates(ctx context.Context, filter models.RecipeFilter) ([]*models.Recipe, error) {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return nil, fmt.Errorf("no database scope in context")
	}

	query := `SELECT ` + recipeColumns + ` FROM recipe r` + recipeFilterClause + recipeOrderClause

	recipes, err := queryRecipes(ctx, scope.Conn, query, filterArgs(filter)...)
	if err != nil {
		return nil, err
	}
	if err := attachTags(ctx, scope.Conn, recipes); err != nil {
		return nil, err
	}
	return recipes, nil
}

// GetByID retrieves one recipe with tags and ingredients.
func (r *recipeRepository) GetByID(ctx context.Context, id int64) (*models.Recipe, error) {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return nil, fmt.Errorf("no database scope in context")
	}

	query := `SELECT ` + recipeColumns + ` FROM recipe r WHERE r.id = $1`

	recipe, err := scanRecipe(scope.Conn.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("recipe %d: %w", id, apperrors.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get recipe: %w", err)
	}

	recipes := []*models.Recipe{recipe}
	if err := attachTags(ctx, scope.Conn, recipes); err != nil {
		return nil, err
	}
	if err := attachIngredients(ctx, scope.Conn, recipes); err != nil {
		return nil, err
	}
	return recipe, nil
}

// Upsert writes the recipe, its ingredient rows and its tag links in one transaction.
func (r *recipeRepository) Upsert(ctx context.Context, recipe *models.Recipe) (err error) {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return fmt.Errorf("no database scope in context")
	}

	tx, err := scope.Conn.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	if recipe.ExternalID != nil {
		err = tx.QueryRow(ctx, `
			INSERT INTO recipe (external_id, title, short_detail, instructions, servings, level, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, COALESCE($7, now()), now())
			ON CONFLICT (external_id) DO UPDATE
			SET title = EXCLUDED.title,
			    short_detail = EXCLUDED.short_detail,
			    instructions = EXCLUDED.instructions,
			    servings = EXCLUDED.servings,
			    level = EXCLUDED.level,
			    updated_at = now()
			RETURNING id, created_at`,
			recipe.ExternalID, recipe.Title, recipe.ShortDetail, recipe.Instructions,
			recipe.Servings, recipe.Level, recipe.CreatedAt,
		).Scan(&recipe.ID, &recipe.CreatedAt)
	} else {
		err = tx.QueryRow(ctx, `
			INSERT INTO recipe (title, short_detail, instructions, servings, level, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, COALESCE($6, now()), now())
			RETURNING id, created_at`,
			recipe.Title, recipe.ShortDetail, recipe.Instructions,
			recipe.Servings, recipe.Level, recipe.CreatedAt,
		).Scan(&recipe.ID, &recipe.CreatedAt)
	}
	if err != nil {
		return fmt.Errorf("failed to upsert recipe: %w", err)
	}

	if _, err = tx.Exec(ctx, `DELETE FROM recipe_ingredient WHERE recipe_id = $1`, recipe.ID); err != nil {
		return fmt.Errorf("failed to clear recipe ingredients: %w", err)
	}
	for i := range recipe.Ingredients {
		ri := &recipe.Ingredients[i]
		ri.RecipeID = recipe.ID
		err = tx.QueryRow(ctx, `
			INSERT INTO recipe_ingredient (recipe_id, ingredient_id, required_quantity, required_unit, group_name)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING id`,
			recipe.ID, ri.IngredientID, ri.RequiredQuantity, ri.RequiredUnit, ri.GroupName,
		).Scan(&ri.ID)
		if err != nil {
			return fmt.Errorf("failed to insert recipe ingredient %q: %w", ri.IngredientName, err)
		}
	}

	if _, err = tx.Exec(ctx, `DELETE FROM recipe_tags WHERE recipe_id = $1`, recipe.ID); err != nil {
		return fmt.Errorf("failed to clear recipe tags: %w", err)
	}
	for _, tag := range recipe.Tags {
		_, err = tx.Exec(ctx, `
			INSERT INTO recipe_tags (recipe_id, tag_id) VALUES ($1, $2)
			ON CONFLICT DO NOTHING`, recipe.ID, tag.ID)
		if err != nil {
			return fmt.Errorf("failed to link tag %q: %w", tag.Name, err)
		}
	}

	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// Ensure recipeRepository implements RecipeRepository at compile time.
var _ RecipeRepository = (*recipeRepository)(nil)
