package users

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/truthmate/truthmate/internal/common"
	"github.com/truthmate/truthmate/internal/server/models"
)

func TestMemoryRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()

	ann, err := repo.Create(ctx, &models.User{Name: "Ann", Email: "ann@example.com", Password: "h"})
	require.NoError(t, err)
	require.NotEmpty(t, ann.ID)

	_, err = repo.Create(ctx, &models.User{Name: "Other", Email: "ann@example.com"})
	assert.ErrorIs(t, err, common.ErrorConflict)

	got, err := repo.GetByEmail(ctx, "ann@example.com")
	require.NoError(t, err)
	assert.Equal(t, ann.ID, got.ID)

	_, err = repo.GetByID(ctx, "missing")
	assert.ErrorIs(t, err, common.ErrorNotFound)

	bob, err := repo.Create(ctx, &models.User{Name: "Bob", Email: "bob@example.com"})
	require.NoError(t, err)

	_, err = repo.Update(ctx, &models.User{ID: bob.ID, Name: "Bob", Email: "ann@example.com"})
	assert.ErrorIs(t, err, common.ErrorConflict)

	updated, err := repo.Update(ctx, &models.User{ID: bob.ID, Name: "Robert", Email: "robert@example.com"})
	require.NoError(t, err)
	assert.Equal(t, "Robert", updated.Name)
	assert.Equal(t, "h", ann.Password)

	_, err = repo.GetByEmail(ctx, "bob@example.com")
	assert.ErrorIs(t, err, common.ErrorNotFound, "old email is released")

	got, err = repo.GetByEmail(ctx, "robert@example.com")
	require.NoError(t, err)
	assert.Equal(t, bob.ID, got.ID)
}
