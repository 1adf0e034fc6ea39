package models

// RecommendationRow is how well a user's stock covers one recipe.
// The JSON names are part of the public API.
type RecommendationRow struct {
	MissingIngredientCount     int      `json:"missing_ingredient_count"`
	MatchPercentage            float64  `json:"match_percentage"`
	MissingIngredients         []string `json:"missing_ingredients"`
	TotalConsideredIngredients int      `json:"total_considered_ingredients"`
	MatchedIngredients         int      `json:"matched_ingredients"`
}

// AnnotatedRecipe pairs a recipe with its recommendation row.
// Both halves serialize into one flat JSON object.
type AnnotatedRecipe struct {
	Recipe
	RecommendationRow
}

// Page is the list envelope shared by recipe listings and recommendations.
type Page[T any] struct {
	Count    int     `json:"count"`
	Next     *string `json:"next"`
	Previous *string `json:"previous"`
	Results  []T     `json:"results"`
}
