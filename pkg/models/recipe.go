package models

import "time"

// Tag labels recipes (cuisine, course, diet).
type Tag struct {
	ID         int64   `json:"id"`
	ExternalID *int64  `json:"external_id"`
	Name       string  `json:"name"`
	Slug       *string `json:"slug"`
	Taxonomy   *string `json:"taxonomy"`
}

// Recipe is a dish with its tags and required ingredients.
// Ingredients keep the order they were stored in.
type Recipe struct {
	ID           int64              `json:"id"`
	ExternalID   *int64             `json:"external_id"`
	Title        string             `json:"title"`
	ShortDetail  *string            `json:"short_detail"`
	Instructions *string            `json:"instructions"`
	Servings     *int               `json:"servings"`
	Level        *int               `json:"level"`
	CreatedAt    *time.Time         `json:"created_at"`
	Tags         []Tag              `json:"tags"`
	Ingredients  []RecipeIngredient `json:"ingredients"`
}

// RecipeIngredient links a recipe to one ingredient it requires.
// The same ingredient may appear several times under different groups
// (for example "marinade" and "sauce").
type RecipeIngredient struct {
	ID               int64    `json:"-"`
	RecipeID         int64    `json:"-"`
	IngredientID     int64    `json:"-"`
	IngredientName   string   `json:"ingredient_name"`
	IngredientCommon bool     `json:"-"`
	RequiredQuantity *float64 `json:"required_quantity"`
	RequiredUnit     *string  `json:"required_unit"`
	GroupName        *string  `json:"group_name"`
}

// RecipeFilter narrows recipe listings. Zero values mean "no filter".
type RecipeFilter struct {
	// Search matches the title case-insensitively.
	Search string
	// Tag matches a tag name exactly.
	Tag string
}
