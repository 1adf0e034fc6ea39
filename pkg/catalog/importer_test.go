package catalog

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ekaya-inc/pantry-engine/pkg/models"
)

type memoryIngredients struct {
	byName map[string]*models.Ingredient
	calls  int
}

func (m *memoryIngredients) Upsert(ctx context.Context, ing *models.Ingredient) error {
	m.calls++
	if existing, ok := m.byName[ing.Name]; ok {
		ing.ID = existing.ID
		return nil
	}
	ing.ID = int64(len(m.byName) + 1)
	m.byName[ing.Name] = ing
	return nil
}

type memoryTags struct {
	tags []models.Tag
}

func (m *memoryTags) Upsert(ctx context.Context, tag *models.Tag) error {
	tag.ID = int64(len(m.tags) + 1)
	m.tags = append(m.tags, *tag)
	return nil
}

type memoryRecipes struct {
	recipes []*models.Recipe
	failOn  string
}

func (m *memoryRecipes) Upsert(ctx context.Context, recipe *models.Recipe) error {
	if recipe.Title == m.failOn {
		return errors.New("constraint violation")
	}
	recipe.ID = int64(len(m.recipes) + 1)
	m.recipes = append(m.recipes, recipe)
	return nil
}

const seed = `
common_ingredients: [Salt, water]
recipes:
  - id: 101
    title: Basil pork
    serves: "2 servings"
    level: 1
    created: 2024-05-01T09:00:00Z
    tags:
      - {id: 91, name: Stir fry, slug: stir-fry}
      - {name: "  "}
    main_ingredients:
      - ingredient_name: Pork
        ingredient_value: "200"
        ingredient_unit: g
      - ingredient_name: Salt
      - ingredient_name: Sauce
        sub_ingredients:
          - sub_ingredient_name: Fish sauce
            ingredient_value: "1 1/2"
            ingredient_unit: tbsp
  - title: Fried eggs
    tags:
      - {id: 91, name: Stir fry}
    main_ingredients:
      - ingredient_name: Eggs
        ingredient_value: "2"
  - title: Broken
    main_ingredients:
      - ingredient_name: Rice
        ingredient_value: "lots"
`

func newTestImporter() (*Importer, *memoryIngredients, *memoryTags, *memoryRecipes) {
	ingredients := &memoryIngredients{byName: make(map[string]*models.Ingredient)}
	tags := &memoryTags{}
	recipes := &memoryRecipes{}
	return NewImporter(ingredients, tags, recipes, zap.NewNop()), ingredients, tags, recipes
}

func TestImporter_Import(t *testing.T) {
	f, err := Decode(strings.NewReader(seed))
	require.NoError(t, err)

	im, ingredients, tags, recipes := newTestImporter()
	summary, err := im.Import(context.Background(), f)
	require.NoError(t, err)

	assert.Equal(t, Summary{Recipes: 2, Ingredients: 5, Tags: 1, Failed: 1}, *summary)
	require.Len(t, recipes.recipes, 2)

	pork := recipes.recipes[0]
	require.NotNil(t, pork.ExternalID)
	assert.Equal(t, int64(101), *pork.ExternalID)
	assert.Equal(t, 2, *pork.Servings)
	require.NotNil(t, pork.CreatedAt)
	assert.Equal(t, 2024, pork.CreatedAt.Year())

	require.Len(t, pork.Ingredients, 3)
	assert.Equal(t, "pork", pork.Ingredients[0].IngredientName)
	assert.Equal(t, 200.0, *pork.Ingredients[0].RequiredQuantity)
	assert.True(t, pork.Ingredients[1].IngredientCommon)
	assert.Nil(t, pork.Ingredients[1].RequiredQuantity)
	assert.Equal(t, "fish sauce", pork.Ingredients[2].IngredientName)
	assert.Equal(t, "Sauce", *pork.Ingredients[2].GroupName)
	assert.Equal(t, 1.5, *pork.Ingredients[2].RequiredQuantity)

	require.Len(t, pork.Tags, 1, "blank tag names are ignored")
	assert.Equal(t, recipes.recipes[1].Tags[0].ID, pork.Tags[0].ID, "tags are reused within a run")
	assert.Len(t, tags.tags, 1)

	assert.True(t, ingredients.byName["salt"].Common)
	assert.True(t, ingredients.byName["water"].Common)
	assert.False(t, ingredients.byName["egg"].Common)
	assert.Equal(t, "egg", recipes.recipes[1].Ingredients[0].IngredientName)
}

func TestImporter_RecipeStoreFailureSkipsRecipe(t *testing.T) {
	f := &File{Recipes: []RecipeEntry{{Title: "A"}, {Title: "B"}}}

	im, _, _, recipes := newTestImporter()
	recipes.failOn = "A"

	summary, err := im.Import(context.Background(), f)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Recipes)
	assert.Equal(t, 1, summary.Failed)
}

func TestImporter_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	im, _, _, _ := newTestImporter()
	_, err := im.Import(ctx, &File{Recipes: []RecipeEntry{{Title: "A"}}})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDecode_RejectsUnknownKeys(t *testing.T) {
	_, err := Decode(strings.NewReader("recipes:\n  - title: x\n    flavour: 3\n"))
	assert.Error(t, err)

	f, err := Decode(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, f.Recipes)
}
