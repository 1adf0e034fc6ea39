//go:build integration

package repositories

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ekaya-inc/pantry-engine/pkg/apperrors"
	"github.com/ekaya-inc/pantry-engine/pkg/models"
	"github.com/ekaya-inc/pantry-engine/pkg/testhelpers"
)

func TestUserRepository_GetByID(t *testing.T) {
	tdb := testhelpers.GetTestDB(t)
	fx := testhelpers.NewFixture(t, tdb)
	ctx := tdb.ScopedContext(t)
	repo := NewUserRepository()

	id := fx.User("somchai")

	user, err := repo.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, id, user.ID)
	assert.Equal(t, "somchai@example.com", user.Email)
	assert.Equal(t, "somchai", user.Username)
	assert.False(t, user.CreatedAt.IsZero())

	_, err = repo.GetByID(ctx, id+1000)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestUserRepository_CreateIsKeyedByUsername(t *testing.T) {
	tdb := testhelpers.GetTestDB(t)
	testhelpers.NewFixture(t, tdb)
	ctx := tdb.ScopedContext(t)
	repo := NewUserRepository()

	first := &models.User{Email: "a@example.com", Username: "malee", FirstName: "Malee"}
	require.NoError(t, repo.Create(ctx, first))
	require.NotZero(t, first.ID)

	second := &models.User{Email: "b@example.com", Username: "malee", LastName: "S"}
	require.NoError(t, repo.Create(ctx, second))
	assert.Equal(t, first.ID, second.ID)

	stored, err := repo.GetByID(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, "b@example.com", stored.Email)
	assert.Equal(t, "S", stored.LastName)
}

func TestUserRepository_NoScope(t *testing.T) {
	_, err := NewUserRepository().GetByID(t.Context(), 1)
	assert.ErrorContains(t, err, "no database scope")
}
