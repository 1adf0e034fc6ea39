package catalog

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/ekaya-inc/pantry-engine/pkg/models"
)

// IngredientStore upserts ingredients by name.
type IngredientStore interface {
	Upsert(ctx context.Context, ingredient *models.Ingredient) error
}

// TagStore upserts tags by external id or name.
type TagStore interface {
	Upsert(ctx context.Context, tag *models.Tag) error
}

// RecipeStore upserts a recipe with its ingredient rows and tags.
type RecipeStore interface {
	Upsert(ctx context.Context, recipe *models.Recipe) error
}

// Summary counts what an import wrote.
type Summary struct {
	Recipes     int
	Ingredients int
	Tags        int
	Failed      int
}

// Importer writes seed files to storage. A recipe that fails is logged and
// skipped; the rest of the file is still imported.
type Importer struct {
	ingredients IngredientStore
	tags        TagStore
	recipes     RecipeStore
	logger      *zap.Logger
}

// NewImporter creates a new catalog importer.
func NewImporter(ingredients IngredientStore, tags TagStore, recipes RecipeStore, logger *zap.Logger) *Importer {
	return &Importer{
		ingredients: ingredients,
		tags:        tags,
		recipes:     recipes,
		logger:      logger.Named("catalog-importer"),
	}
}

// run holds per-import state.
type run struct {
	common      map[string]bool
	ingredients map[string]int64
	tags        map[string]models.Tag
	summary     Summary
}

// Import writes every recipe in f. It only returns an error when ctx ends
// or the common ingredient list cannot be stored.
func (im *Importer) Import(ctx context.Context, f *File) (*Summary, error) {
	state := &run{
		common:      make(map[string]bool, len(f.CommonIngredients)),
		ingredients: make(map[string]int64),
		tags:        make(map[string]models.Tag),
	}

	for _, raw := range f.CommonIngredients {
		name := NormalizeName(raw)
		if name == "" {
			continue
		}
		state.common[name] = true
		if _, err := im.ingredient(ctx, state, name, ""); err != nil {
			return &state.summary, err
		}
	}

	for i := range f.Recipes {
		if err := ctx.Err(); err != nil {
			return &state.summary, err
		}

		entry := &f.Recipes[i]
		recipe, err := im.importRecipe(ctx, state, entry)
		if err != nil {
			state.summary.Failed++
			im.logger.Error("Skipped recipe",
				zap.String("title", entry.Title),
				zap.Int("index", i),
				zap.Error(err))
			continue
		}

		state.summary.Recipes++
		im.logger.Debug("Imported recipe",
			zap.Int64("recipe_id", recipe.ID),
			zap.String("title", recipe.Title),
			zap.Int("ingredients", len(recipe.Ingredients)))
	}

	return &state.summary, nil
}

func (im *Importer) importRecipe(ctx context.Context, state *run, entry *RecipeEntry) (*models.Recipe, error) {
	title := strings.TrimSpace(entry.Title)
	if title == "" {
		return nil, fmt.Errorf("recipe has no title")
	}

	recipe := &models.Recipe{
		ExternalID:   entry.ID,
		Title:        title,
		ShortDetail:  optional(entry.ShortDetail),
		Instructions: optional(entry.Content),
		Servings:     ParseServings(entry.Serves),
		Level:        entry.Level,
		CreatedAt:    entry.Created,
		Tags:         []models.Tag{},
		Ingredients:  []models.RecipeIngredient{},
	}

	for _, item := range entry.Ingredients {
		if len(item.SubIngredients) == 0 {
			row, err := im.ingredientRow(ctx, state, item.Name, item.Value, item.Unit, nil)
			if err != nil {
				return nil, err
			}
			recipe.Ingredients = append(recipe.Ingredients, row)
			continue
		}

		group := optional(item.Name)
		for _, sub := range item.SubIngredients {
			row, err := im.ingredientRow(ctx, state, sub.Name, sub.Value, sub.Unit, group)
			if err != nil {
				return nil, err
			}
			recipe.Ingredients = append(recipe.Ingredients, row)
		}
	}

	for _, t := range entry.Tags {
		tag, ok, err := im.tag(ctx, state, t)
		if err != nil {
			return nil, err
		}
		if ok {
			recipe.Tags = append(recipe.Tags, tag)
		}
	}

	if err := im.recipes.Upsert(ctx, recipe); err != nil {
		return nil, err
	}
	return recipe, nil
}

func (im *Importer) ingredientRow(ctx context.Context, state *run, rawName, value, unit string, group *string) (models.RecipeIngredient, error) {
	name, qty, outUnit, err := NormalizeIngredient(rawName, value, unit)
	if err != nil {
		return models.RecipeIngredient{}, err
	}
	if name == "" {
		return models.RecipeIngredient{}, fmt.Errorf("ingredient line %q has no name", rawName)
	}

	id, err := im.ingredient(ctx, state, name, outUnit)
	if err != nil {
		return models.RecipeIngredient{}, err
	}

	row := models.RecipeIngredient{
		IngredientID:     id,
		IngredientName:   name,
		IngredientCommon: state.common[name],
		RequiredUnit:     optional(outUnit),
		GroupName:        group,
	}
	if qty != nil {
		f := qty.InexactFloat64()
		row.RequiredQuantity = &f
	}
	return row, nil
}

// ingredient returns the id for name, upserting it on first use in this run.
func (im *Importer) ingredient(ctx context.Context, state *run, name, unit string) (int64, error) {
	if id, ok := state.ingredients[name]; ok {
		return id, nil
	}

	ing := &models.Ingredient{
		Name:          name,
		UnitOfMeasure: optional(unit),
		Common:        state.common[name],
	}
	if err := im.ingredients.Upsert(ctx, ing); err != nil {
		return 0, fmt.Errorf("failed to store ingredient %q: %w", name, err)
	}

	state.ingredients[name] = ing.ID
	state.summary.Ingredients++
	return ing.ID, nil
}

// tag upserts a tag once per run. Tags without a name are ignored.
func (im *Importer) tag(ctx context.Context, state *run, t TagEntry) (models.Tag, bool, error) {
	name := strings.TrimSpace(t.Name)
	if name == "" {
		return models.Tag{}, false, nil
	}

	key := "name:" + name
	if t.ID != nil {
		key = fmt.Sprintf("id:%d", *t.ID)
	}
	if tag, ok := state.tags[key]; ok {
		return tag, true, nil
	}

	tag := models.Tag{
		ExternalID: t.ID,
		Name:       name,
		Slug:       optional(t.Slug),
		Taxonomy:   t.Taxonomy,
	}
	if err := im.tags.Upsert(ctx, &tag); err != nil {
		return models.Tag{}, false, fmt.Errorf("failed to store tag %q: %w", name, err)
	}

	state.tags[key] = tag
	state.summary.Tags++
	return tag, true, nil
}

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
