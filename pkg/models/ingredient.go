package models

// Ingredient is a catalog entry identified by its unique name.
// Common ingredients are staples (salt, oil) assumed to always be available;
// they never count towards recipe matching.
type Ingredient struct {
	ID            int64    `json:"id"`
	Name          string   `json:"name"`
	UnitOfMeasure *string  `json:"unit_of_measure"`
	Calories      *float64 `json:"calories"`
	Common        bool     `json:"common"`
}
