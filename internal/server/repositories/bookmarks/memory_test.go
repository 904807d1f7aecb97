package bookmarks

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/truthmate/truthmate/internal/common"
	"github.com/truthmate/truthmate/internal/server/models"
)

func TestMemoryRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()
	base := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)

	first, err := repo.Create(ctx, &models.Bookmark{UserID: "u1", VerificationID: "v1", CreatedAt: base})
	require.NoError(t, err)
	second, err := repo.Create(ctx, &models.Bookmark{UserID: "u1", VerificationID: "v2", CreatedAt: base.Add(time.Hour)})
	require.NoError(t, err)
	_, err = repo.Create(ctx, &models.Bookmark{UserID: "u2", VerificationID: "v1", CreatedAt: base})
	require.NoError(t, err)

	found, err := repo.FindByUserAndVerification(ctx, "u1", "v1")
	require.NoError(t, err)
	assert.Equal(t, first.ID, found.ID)
	assert.Equal(t, []string{}, found.Tags)

	list, err := repo.ListByUser(ctx, "u1", 10, 0)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, second.ID, list[0].ID)

	list, err = repo.ListByUser(ctx, "u1", 1, 1)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, first.ID, list[0].ID)

	marked, err := repo.BookmarkedAmong(ctx, "u1", []string{"v1", "v3"})
	require.NoError(t, err)
	assert.Equal(t, map[string]bool{"v1": true}, marked)

	require.NoError(t, repo.Delete(ctx, first.ID))
	assert.ErrorIs(t, repo.Delete(ctx, first.ID), common.ErrorNotFound)
	_, err = repo.GetByID(ctx, first.ID)
	assert.ErrorIs(t, err, common.ErrorNotFound)
}
