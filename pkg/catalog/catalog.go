// Package catalog loads recipe catalog seed files and writes them to storage.
//
// A seed file is YAML shaped after the upstream recipe feed:
//
//	common_ingredients: [salt, water]
//	recipes:
//	  - id: 101
//	    title: Basil pork
//	    serves: "2 servings"
//	    created: 2024-05-01T09:00:00Z
//	    tags: [{id: 91, name: Stir fry, slug: stir-fry}]
//	    main_ingredients:
//	      - ingredient_name: pork
//	        ingredient_value: "200"
//	        ingredient_unit: g
//	      - ingredient_name: sauce
//	        sub_ingredients:
//	          - sub_ingredient_name: fish sauce
//	            ingredient_value: "1 1/2"
//	            ingredient_unit: tbsp
package catalog

import (
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// File is one parsed seed file.
type File struct {
	// CommonIngredients are staples ignored by recommendations.
	CommonIngredients []string      `yaml:"common_ingredients"`
	Recipes           []RecipeEntry `yaml:"recipes"`
}

// RecipeEntry is one recipe in a seed file.
type RecipeEntry struct {
	ID          *int64            `yaml:"id"`
	Title       string            `yaml:"title"`
	Content     string            `yaml:"content"`
	Serves      string            `yaml:"serves"`
	ShortDetail string            `yaml:"short_detail"`
	Level       *int              `yaml:"level"`
	Created     *time.Time        `yaml:"created"`
	Tags        []TagEntry        `yaml:"tags"`
	Ingredients []IngredientEntry `yaml:"main_ingredients"`
}

// IngredientEntry is a top-level ingredient line. When SubIngredients is set
// the entry is a group heading and Name becomes the group name.
type IngredientEntry struct {
	Name           string          `yaml:"ingredient_name"`
	Value          string          `yaml:"ingredient_value"`
	Unit           string          `yaml:"ingredient_unit"`
	SubIngredients []SubIngredient `yaml:"sub_ingredients"`
}

// SubIngredient is an ingredient line inside a group.
type SubIngredient struct {
	Name  string `yaml:"sub_ingredient_name"`
	Value string `yaml:"ingredient_value"`
	Unit  string `yaml:"ingredient_unit"`
}

// TagEntry is a recipe tag. ID is the upstream tag id when known.
type TagEntry struct {
	ID       *int64  `yaml:"id"`
	Name     string  `yaml:"name"`
	Slug     string  `yaml:"slug"`
	Taxonomy *string `yaml:"taxonomy"`
}

// Decode parses a seed file, rejecting unknown keys.
func Decode(r io.Reader) (*File, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var f File
	if err := dec.Decode(&f); err != nil {
		if err == io.EOF {
			return &File{}, nil
		}
		return nil, fmt.Errorf("failed to parse catalog: %w", err)
	}
	return &f, nil
}

// LoadFile reads and parses the seed file at path.
func LoadFile(path string) (*File, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog %s: %w", path, err)
	}
	defer fh.Close()

	return Decode(fh)
}
