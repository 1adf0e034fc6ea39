package testhelpers

import (
	"context"
	"testing"
	"time"
)

// Fixture inserts rows directly so repository and service tests can share setup.
type Fixture struct {
	t   *testing.T
	tdb *TestDB
}

// NewFixture returns a Fixture over a freshly reset database.
func NewFixture(t *testing.T, tdb *TestDB) *Fixture {
	t.Helper()
	tdb.Reset(t)
	return &Fixture{t: t, tdb: tdb}
}

func (f *Fixture) insertID(query string, args ...any) int64 {
	f.t.Helper()
	var id int64
	if err := f.tdb.DB.Pool.QueryRow(context.Background(), query, args...).Scan(&id); err != nil {
		f.t.Fatalf("fixture insert failed: %v", err)
	}
	return id
}

// User inserts a user and returns its id.
func (f *Fixture) User(username string) int64 {
	return f.insertID(
		`INSERT INTO users (email, username, first_name) VALUES ($1, $2, $3) RETURNING id`,
		username+"@example.com", username, username)
}

// Ingredient inserts an ingredient and returns its id.
func (f *Fixture) Ingredient(name string, common bool) int64 {
	return f.insertID(
		`INSERT INTO ingredient (name, common) VALUES ($1, $2) RETURNING id`,
		name, common)
}

// Tag inserts a tag and returns its id.
func (f *Fixture) Tag(name string) int64 {
	return f.insertID(`INSERT INTO tag (name) VALUES ($1) RETURNING id`, name)
}

// Recipe inserts a recipe created at the given time with its ingredients in order.
func (f *Fixture) Recipe(title string, createdAt time.Time, ingredientIDs ...int64) int64 {
	f.t.Helper()
	id := f.insertID(
		`INSERT INTO recipe (title, created_at, updated_at) VALUES ($1, $2, $2) RETURNING id`,
		title, createdAt)
	for _, ingID := range ingredientIDs {
		_, err := f.tdb.DB.Pool.Exec(context.Background(),
			`INSERT INTO recipe_ingredient (recipe_id, ingredient_id, required_quantity, required_unit)
			 VALUES ($1, $2, 1, 'unit')`, id, ingID)
		if err != nil {
			f.t.Fatalf("fixture recipe ingredient failed: %v", err)
		}
	}
	return id
}

// TagRecipe links a recipe to a tag.
func (f *Fixture) TagRecipe(recipeID, tagID int64) {
	f.t.Helper()
	_, err := f.tdb.DB.Pool.Exec(context.Background(),
		`INSERT INTO recipe_tags (recipe_id, tag_id) VALUES ($1, $2)`, recipeID, tagID)
	if err != nil {
		f.t.Fatalf("fixture recipe tag failed: %v", err)
	}
}

// Stock inserts a stock batch and returns its id. A nil expiry means none.
func (f *Fixture) Stock(userID, ingredientID int64, expires *time.Time, disabled bool) int64 {
	return f.insertID(
		`INSERT INTO user_stock (user_id, ingredient_id, quantity, expiration_date, disable)
		 VALUES ($1, $2, 1, $3, $4) RETURNING id`,
		userID, ingredientID, expires, disabled)
}
