// Package recommendation ranks recipes by how much of their non-common
// ingredient list a user already holds.
//
// Rank is pure: it reads the stock set and the candidate recipes it is given,
// performs no I/O and keeps no state, so it is safe to call concurrently.
package recommendation

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/ekaya-inc/pantry-engine/pkg/apperrors"
	"github.com/ekaya-inc/pantry-engine/pkg/models"
)

var hundred = decimal.NewFromInt(100)

// StockSet holds the ingredient ids available to a user. Quantity is
// irrelevant to matching, so several batches collapse into one member.
type StockSet map[int64]struct{}

// NewStockSet builds a StockSet from ingredient ids.
func NewStockSet(ids ...int64) StockSet {
	s := make(StockSet, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

// Has reports whether the ingredient is in stock.
func (s StockSet) Has(id int64) bool {
	_, ok := s[id]
	return ok
}

// IDs returns the members in ascending order.
func (s StockSet) IDs() []int64 {
	ids := make([]int64, 0, len(s))
	for id := range s {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// Options tunes a ranking run.
type Options struct {
	// Limit caps the number of results after sorting. Nil means no cap.
	Limit *int
}

// Skipped records a candidate recipe left out because its data is unusable.
type Skipped struct {
	RecipeID int64
	Reason   string
}

// Result is the outcome of Rank.
type Result struct {
	// Recipes are the surviving candidates, best match first.
	Recipes []models.AnnotatedRecipe
	// Excluded counts recipes dropped because the user holds none of
	// their non-common ingredients.
	Excluded int
	// Skipped lists recipes ignored because of corrupt ingredient rows.
	Skipped []Skipped
}

// scored is a candidate with its exact percentage kept for comparison.
type scored struct {
	recipe *models.Recipe
	row    models.RecommendationRow
	pct    decimal.Decimal
}

// Rank scores every candidate against stock and returns the makeable ones
// ordered by match percentage (desc), missing count (asc) and recipe id (asc).
//
// Candidates must carry their ingredient rows. Common ingredients are ignored.
// A recipe with no non-common ingredients scores 100. A recipe with at least
// one non-common ingredient and no match is excluded. A recipe with a corrupt
// ingredient row is skipped without failing the batch.
func Rank(stock StockSet, candidates []*models.Recipe, opts Options) (*Result, error) {
	if opts.Limit != nil && *opts.Limit < 0 {
		return nil, fmt.Errorf("%w: limit must not be negative, got %d", apperrors.ErrInvalidInput, *opts.Limit)
	}
	if err := validateCandidates(candidates); err != nil {
		return nil, err
	}

	result := &Result{}
	rows := make([]scored, 0, len(candidates))

	for _, recipe := range candidates {
		if reason := corruptReason(recipe); reason != "" {
			result.Skipped = append(result.Skipped, Skipped{RecipeID: recipe.ID, Reason: reason})
			continue
		}

		s, ok := score(stock, recipe)
		if !ok {
			result.Excluded++
			continue
		}
		rows = append(rows, s)
	}

	slices.SortStableFunc(rows, func(a, b scored) int {
		if c := b.pct.Cmp(a.pct); c != 0 {
			return c
		}
		if c := cmp.Compare(a.row.MissingIngredientCount, b.row.MissingIngredientCount); c != 0 {
			return c
		}
		return cmp.Compare(a.recipe.ID, b.recipe.ID)
	})

	if opts.Limit != nil && *opts.Limit < len(rows) {
		rows = rows[:*opts.Limit]
	}

	result.Recipes = make([]models.AnnotatedRecipe, 0, len(rows))
	for _, s := range rows {
		result.Recipes = append(result.Recipes, models.AnnotatedRecipe{
			Recipe:            *s.recipe,
			RecommendationRow: s.row,
		})
	}

	return result, nil
}

// score computes the row for one recipe. ok is false when the recipe is
// excluded because none of its non-common ingredients are in stock.
func score(stock StockSet, recipe *models.Recipe) (scored, bool) {
	considered := 0
	matched := 0
	missing := make([]string, 0)

	for _, ri := range recipe.Ingredients {
		if ri.IngredientCommon {
			continue
		}
		considered++
		if stock.Has(ri.IngredientID) {
			matched++
		} else {
			missing = append(missing, ri.IngredientName)
		}
	}

	if considered > 0 && matched == 0 {
		return scored{}, false
	}

	pct := MatchPercentage(matched, considered)

	return scored{
		recipe: recipe,
		pct:    pct,
		row: models.RecommendationRow{
			MissingIngredientCount:     considered - matched,
			MatchPercentage:            pct.InexactFloat64(),
			MissingIngredients:         missing,
			TotalConsideredIngredients: considered,
			MatchedIngredients:         matched,
		},
	}, true
}

// MatchPercentage returns matched/considered as a percentage rounded half away
// from zero to two decimals. Zero considered ingredients is a full match.
func MatchPercentage(matched, considered int) decimal.Decimal {
	if considered == 0 {
		return hundred.Round(2)
	}
	return decimal.NewFromInt(int64(matched)).
		Mul(hundred).
		DivRound(decimal.NewFromInt(int64(considered)), 2)
}

// validateCandidates rejects collections that cannot be ranked at all.
func validateCandidates(candidates []*models.Recipe) error {
	seen := make(map[int64]struct{}, len(candidates))
	for i, recipe := range candidates {
		if recipe == nil {
			return fmt.Errorf("%w: candidate %d is nil", apperrors.ErrInvalidInput, i)
		}
		if _, dup := seen[recipe.ID]; dup {
			return fmt.Errorf("%w: recipe %d appears more than once", apperrors.ErrInvalidInput, recipe.ID)
		}
		seen[recipe.ID] = struct{}{}
	}
	return nil
}

// corruptReason returns why a recipe's ingredient rows cannot be trusted,
// or "" when they are fine.
func corruptReason(recipe *models.Recipe) string {
	for _, ri := range recipe.Ingredients {
		if ri.IngredientID <= 0 {
			return "ingredient row references no ingredient"
		}
		if strings.TrimSpace(ri.IngredientName) == "" {
			return fmt.Sprintf("ingredient %d has no name", ri.IngredientID)
		}
	}
	return ""
}
