package services

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/ekaya-inc/pantry-engine/pkg/apperrors"
	"github.com/ekaya-inc/pantry-engine/pkg/metrics"
	"github.com/ekaya-inc/pantry-engine/pkg/models"
	"github.com/ekaya-inc/pantry-engine/pkg/recommendation"
)

func row(id int64, name string, common bool) models.RecipeIngredient {
	return models.RecipeIngredient{IngredientID: id, IngredientName: name, IngredientCommon: common}
}

func intPtr(v int) *int { return &v }

// Catalog used across tests: egg=1, milk=2, flour=3, salt=10 (common).
func newRecommendationFixture() (*mockRecipeRepo, *mockRecommendationSource) {
	recipes := &mockRecipeRepo{candidates: []*models.Recipe{
		{ID: 3, Title: "Pancakes"},
		{ID: 2, Title: "Omelette"},
		{ID: 1, Title: "Bread"},
		{ID: 4, Title: "Salted Water"},
	}}
	source := &mockRecommendationSource{
		stock: recommendation.NewStockSet(1, 2),
		rows: map[int64][]models.RecipeIngredient{
			3: {row(1, "egg", false), row(2, "milk", false), row(3, "flour", false), row(10, "salt", true)},
			2: {row(1, "egg", false), row(10, "salt", true)},
			1: {row(3, "flour", false)},
			4: {row(10, "salt", true)},
		},
	}
	return recipes, source
}

func TestRecommendationService_RecommendFromCatalog(t *testing.T) {
	recipes, source := newRecommendationFixture()
	svc := NewRecommendationService(newMockUserRepo(7), recipes, source, 5, nil, zap.NewNop())

	got, err := svc.RecommendFromCatalog(context.Background(), 7, "Breakfast", nil)
	require.NoError(t, err)

	assert.Equal(t, "Breakfast", recipes.lastFilter.Tag)
	require.Len(t, got, 3, "bread has no stocked ingredient and is excluded")

	assert.Equal(t, int64(2), got[0].ID)
	assert.Equal(t, 100.0, got[0].MatchPercentage)

	// A recipe of common ingredients only is a full match with nothing considered.
	assert.Equal(t, int64(4), got[1].ID)
	assert.Equal(t, 0, got[1].TotalConsideredIngredients)

	assert.Equal(t, int64(3), got[2].ID)
	assert.Equal(t, 66.67, got[2].MatchPercentage)
	assert.Equal(t, []string{"flour"}, got[2].MissingIngredients)
	assert.Len(t, got[2].Ingredients, 4, "ingredient rows are attached to results")
}

func TestRecommendationService_DefaultAndExplicitLimit(t *testing.T) {
	recipes, source := newRecommendationFixture()
	svc := NewRecommendationService(newMockUserRepo(7), recipes, source, 1, nil, zap.NewNop())

	got, err := svc.RecommendFromCatalog(context.Background(), 7, "", nil)
	require.NoError(t, err)
	assert.Len(t, got, 1)

	got, err = svc.RecommendFromCatalog(context.Background(), 7, "", intPtr(10))
	require.NoError(t, err)
	assert.Len(t, got, 3)

	got, err = svc.RecommendFromCatalog(context.Background(), 7, "", intPtr(0))
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestRecommendationService_UnknownUser(t *testing.T) {
	recipes, source := newRecommendationFixture()
	svc := NewRecommendationService(newMockUserRepo(7), recipes, source, 5, nil, zap.NewNop())

	_, err := svc.RecommendFromCatalog(context.Background(), 99, "", nil)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestRecommendationService_InvalidInput(t *testing.T) {
	_, source := newRecommendationFixture()
	svc := NewRecommendationService(newMockUserRepo(7), &mockRecipeRepo{}, source, 5, nil, zap.NewNop())

	_, err := svc.Recommend(context.Background(), 7, nil, intPtr(-1))
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)

	_, err = svc.Recommend(context.Background(), 7, []*models.Recipe{{ID: 2}, nil}, nil)
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)

	_, err = svc.Recommend(context.Background(), 7, []*models.Recipe{{ID: 2}, {ID: 2}}, nil)
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

func TestRecommendationService_EmptyCandidates(t *testing.T) {
	_, source := newRecommendationFixture()
	svc := NewRecommendationService(newMockUserRepo(7), &mockRecipeRepo{}, source, 5, nil, zap.NewNop())

	got, err := svc.Recommend(context.Background(), 7, nil, nil)
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.Nil(t, source.requestedIDs, "no ingredient lookup for an empty batch")
}

func TestRecommendationService_DoesNotMutateCandidates(t *testing.T) {
	_, source := newRecommendationFixture()
	svc := NewRecommendationService(newMockUserRepo(7), &mockRecipeRepo{}, source, 5, nil, zap.NewNop())

	candidate := &models.Recipe{ID: 2, Title: "Omelette"}
	_, err := svc.Recommend(context.Background(), 7, []*models.Recipe{candidate}, nil)
	require.NoError(t, err)
	assert.Nil(t, candidate.Ingredients)
}

func TestRecommendationService_SkipsCorruptRecipesAndLogs(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	m := metrics.New(prometheus.NewRegistry())
	source := &mockRecommendationSource{
		stock: recommendation.NewStockSet(1),
		rows: map[int64][]models.RecipeIngredient{
			1: {row(1, "egg", false)},
			2: {row(0, "", false)},
		},
	}
	svc := NewRecommendationService(newMockUserRepo(7), &mockRecipeRepo{}, source, 5, m, zap.New(core))

	got, err := svc.Recommend(context.Background(), 7, []*models.Recipe{{ID: 1}, {ID: 2}}, nil)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, int64(1), got[0].ID)

	require.Equal(t, 1, logs.Len())
	assert.Equal(t, int64(2), logs.All()[0].ContextMap()["recipe_id"])
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RecommendationSkipped))
}

func TestRecommendationService_SourceErrors(t *testing.T) {
	source := &mockRecommendationSource{stockErr: errors.New("db down")}
	svc := NewRecommendationService(newMockUserRepo(7), &mockRecipeRepo{}, source, 5, nil, zap.NewNop())

	_, err := svc.Recommend(context.Background(), 7, []*models.Recipe{{ID: 1}}, nil)
	assert.ErrorContains(t, err, "db down")

	source = &mockRecommendationSource{stock: recommendation.NewStockSet(), rowsErr: errors.New("timeout")}
	svc = NewRecommendationService(newMockUserRepo(7), &mockRecipeRepo{}, source, 5, nil, zap.NewNop())

	_, err = svc.Recommend(context.Background(), 7, []*models.Recipe{{ID: 1}}, nil)
	assert.ErrorContains(t, err, "timeout")
}
