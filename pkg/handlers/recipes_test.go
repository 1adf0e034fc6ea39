package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ekaya-inc/pantry-engine/pkg/apperrors"
	"github.com/ekaya-inc/pantry-engine/pkg/models"
	"github.com/ekaya-inc/pantry-engine/pkg/services"
)

func setupRecipesMux(svc *mockRecipeService) *http.ServeMux {
	mux := http.NewServeMux()
	NewRecipesHandler(svc, "http://pantry.test", zap.NewNop()).RegisterRoutes(mux, nil, noopScope)
	return mux
}

func TestRecipesHandler_ListLinks(t *testing.T) {
	svc := &mockRecipeService{page: &services.RecipePage{
		Recipes:     []*models.Recipe{{ID: 3, Title: "Curry"}},
		Count:       45,
		Page:        2,
		HasNext:     true,
		HasPrevious: true,
	}}
	mux := setupRecipesMux(svc)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/recipes?search=cur&tag=Thai&page=2", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 2, svc.lastPage)
	assert.Equal(t, models.RecipeFilter{Search: "cur", Tag: "Thai"}, svc.lastFilter)

	var body models.Page[*models.Recipe]
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, 45, body.Count)
	require.NotNil(t, body.Next)
	require.NotNil(t, body.Previous)
	assert.Equal(t, "http://pantry.test/api/recipes?page=3&search=cur&tag=Thai", *body.Next)
	assert.Equal(t, "http://pantry.test/api/recipes?search=cur&tag=Thai", *body.Previous)
	require.Len(t, body.Results, 1)
}

func TestRecipesHandler_ListSinglePage(t *testing.T) {
	svc := &mockRecipeService{page: &services.RecipePage{Page: 1}}
	mux := setupRecipesMux(svc)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/recipes", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, svc.lastPage)
	assert.JSONEq(t, `{"count":0,"next":null,"previous":null,"results":[]}`, rec.Body.String())
}

func TestRecipesHandler_ListInvalidPage(t *testing.T) {
	mux := setupRecipesMux(&mockRecipeService{err: fmt.Errorf("page 9: %w", apperrors.ErrNotFound)})

	for _, target := range []string{"/api/recipes?page=abc", "/api/recipes?page=9"} {
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
		assert.Equal(t, http.StatusNotFound, rec.Code, target)
	}
}

func TestRecipesHandler_Get(t *testing.T) {
	qty := 2.0
	svc := &mockRecipeService{recipe: &models.Recipe{
		ID:    5,
		Title: "Pad Thai",
		Tags:  []models.Tag{{ID: 1, Name: "Thai"}},
		Ingredients: []models.RecipeIngredient{
			{IngredientID: 9, IngredientName: "noodle", RequiredQuantity: &qty},
		},
	}}
	mux := setupRecipesMux(svc)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/recipes/5", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]any
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	ingredients := body["ingredients"].([]any)
	require.Len(t, ingredients, 1)
	assert.Equal(t, "noodle", ingredients[0].(map[string]any)["ingredient_name"])
	assert.NotContains(t, ingredients[0].(map[string]any), "IngredientID")

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/recipes/zero", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRecipesHandler_RecommendationsRouteIsNotAnID(t *testing.T) {
	mux := setupRecipesMux(&mockRecipeService{})
	_, pattern := mux.Handler(httptest.NewRequest(http.MethodGet, "/api/recipes/recommendations", nil))
	assert.Equal(t, "GET /api/recipes/{id}", pattern, "without the recommendation handler the id route matches")

	authMux := setupRecommendationMux(&mockRecommendationService{}, 1)
	NewRecipesHandler(&mockRecipeService{}, "", zap.NewNop()).RegisterRoutes(authMux, nil, noopScope)
	_, pattern = authMux.Handler(httptest.NewRequest(http.MethodGet, "/api/recipes/recommendations", nil))
	assert.Equal(t, "GET /api/recipes/recommendations", pattern)
}

func TestRecipesHandler_ListTags(t *testing.T) {
	mux := setupRecipesMux(&mockRecipeService{tags: []*models.Tag{{ID: 1, Name: "Vegan"}}})

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/tags", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[{"id":1,"external_id":null,"name":"Vegan","slug":null,"taxonomy":null}]`, rec.Body.String())
}
