//go:build integration

package repositories

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ekaya-inc/pantry-engine/pkg/apperrors"
	"github.com/ekaya-inc/pantry-engine/pkg/models"
	"github.com/ekaya-inc/pantry-engine/pkg/testhelpers"
)

func TestStockRepository_CRUD(t *testing.T) {
	tdb := testhelpers.GetTestDB(t)
	fx := testhelpers.NewFixture(t, tdb)
	ctx := tdb.ScopedContext(t)
	repo := NewStockRepository()

	alice := fx.User("alice")
	bob := fx.User("bob")
	milk := fx.Ingredient("milk", false)

	expires := models.NewDate(2025, time.January, 10)
	stock := &models.UserStock{
		UserID:         alice,
		Ingredient:     models.StockIngredientInfo{ID: milk},
		Quantity:       2.5,
		ExpirationDate: &expires,
	}
	require.NoError(t, repo.Create(ctx, stock))
	require.NotZero(t, stock.ID)

	got, err := repo.GetByID(ctx, alice, stock.ID)
	require.NoError(t, err)
	assert.Equal(t, "milk", got.Ingredient.Name)
	assert.Equal(t, 2.5, got.Quantity)
	require.NotNil(t, got.ExpirationDate)
	assert.Equal(t, "2025-01-10", got.ExpirationDate.String())

	// Other users cannot see or touch the batch.
	_, err = repo.GetByID(ctx, bob, stock.ID)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	assert.ErrorIs(t, repo.Delete(ctx, bob, stock.ID), apperrors.ErrNotFound)

	got.Quantity = 1
	got.ExpirationDate = nil
	got.Disable = true
	require.NoError(t, repo.Update(ctx, got))

	list, err := repo.ListByUser(ctx, alice)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.True(t, list[0].Disable)
	assert.Nil(t, list[0].ExpirationDate)

	require.NoError(t, repo.Delete(ctx, alice, stock.ID))
	assert.ErrorIs(t, repo.Delete(ctx, alice, stock.ID), apperrors.ErrNotFound)
}

func TestStockRepository_DeleteByIngredients(t *testing.T) {
	tdb := testhelpers.GetTestDB(t)
	fx := testhelpers.NewFixture(t, tdb)
	ctx := tdb.ScopedContext(t)
	repo := NewStockRepository()

	alice := fx.User("alice")
	bob := fx.User("bob")
	egg := fx.Ingredient("egg", false)
	rice := fx.Ingredient("rice", false)
	fx.Stock(alice, egg, nil, false)
	fx.Stock(alice, egg, nil, true)
	fx.Stock(alice, rice, nil, false)
	fx.Stock(bob, egg, nil, false)

	deleted, err := repo.DeleteByIngredients(ctx, alice, []int64{egg})
	require.NoError(t, err)
	assert.Equal(t, int64(2), deleted)

	remaining, err := repo.ListByUser(ctx, alice)
	require.NoError(t, err)
	require.Len(t, remaining, 1)
	assert.Equal(t, rice, remaining[0].Ingredient.ID)

	bobs, err := repo.ListByUser(ctx, bob)
	require.NoError(t, err)
	assert.Len(t, bobs, 1)
}

func TestStockRepository_Expiration(t *testing.T) {
	tdb := testhelpers.GetTestDB(t)
	fx := testhelpers.NewFixture(t, tdb)
	ctx := tdb.ScopedContext(t)
	repo := NewStockRepository()

	alice := fx.User("alice")
	egg := fx.Ingredient("egg", false)
	today := time.Date(2025, time.March, 3, 0, 0, 0, 0, time.UTC)
	later := today.AddDate(0, 0, 4)

	yesterday := today.AddDate(0, 0, -1)
	tomorrow := today.AddDate(0, 0, 1)

	expiringToday := fx.Stock(alice, egg, &today, false)
	overdue := fx.Stock(alice, egg, &yesterday, false)
	fresh := fx.Stock(alice, egg, &tomorrow, false)
	fx.Stock(alice, egg, &today, true)
	soon := fx.Stock(alice, egg, &later, false)

	upcoming, err := repo.ListActiveExpiringOn(ctx, models.DateOf(later))
	require.NoError(t, err)
	require.Len(t, upcoming, 1)
	assert.Equal(t, soon, upcoming[0].ID)

	users, err := repo.DisableExpiredBy(ctx, models.DateOf(today))
	require.NoError(t, err)
	assert.Equal(t, []int64{alice, alice}, users)

	for _, id := range []int64{expiringToday, overdue} {
		got, err := repo.GetByID(ctx, alice, id)
		require.NoError(t, err)
		assert.True(t, got.Disable, "stock %d", id)
	}
	got, err := repo.GetByID(ctx, alice, fresh)
	require.NoError(t, err)
	assert.False(t, got.Disable)

	users, err = repo.DisableExpiredBy(ctx, models.DateOf(today))
	require.NoError(t, err)
	assert.Empty(t, users)
}
