//go:build integration

package repomanager

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/mongodb"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/truthmate/truthmate/internal/common"
	"github.com/truthmate/truthmate/internal/server/models"
)

func startPostgres(t *testing.T) RepositoryManager {
	t.Helper()
	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("truthmate"),
		postgres.WithUsername("truthmate"),
		postgres.WithPassword("truthmate"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Logf("terminate postgres: %v", err)
		}
	})

	dsn, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	m, err := OpenPostgres(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = m.Close(ctx) })
	return m
}

func startMongo(t *testing.T) RepositoryManager {
	t.Helper()
	ctx := context.Background()

	mongoContainer, err := mongodb.Run(ctx, "mongo:7")
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := mongoContainer.Terminate(ctx); err != nil {
			t.Logf("terminate mongo: %v", err)
		}
	})

	uri, err := mongoContainer.ConnectionString(ctx)
	require.NoError(t, err)

	m, err := OpenMongo(ctx, uri, "truthmate_test")
	require.NoError(t, err)
	t.Cleanup(func() { _ = m.Close(ctx) })
	return m
}

func TestBackends(t *testing.T) {
	backends := map[string]func(t *testing.T) RepositoryManager{
		"postgres": startPostgres,
		"mongo":    startMongo,
		"memory":   func(t *testing.T) RepositoryManager { return NewMemoryRepositoryManager() },
	}

	for name, start := range backends {
		t.Run(name, func(t *testing.T) {
			exerciseBackend(t, start(t))
		})
	}
}

func exerciseBackend(t *testing.T, m RepositoryManager) {
	ctx := context.Background()
	require.NoError(t, m.Ping(ctx))

	ann, err := m.Users().Create(ctx, &models.User{Name: "Ann", Email: "ann@example.com", Password: "hash"})
	require.NoError(t, err)
	bob, err := m.Users().Create(ctx, &models.User{Name: "Bob", Email: "bob@example.com", Password: "hash"})
	require.NoError(t, err)

	_, err = m.Users().Create(ctx, &models.User{Name: "Dup", Email: "ann@example.com", Password: "hash"})
	assert.ErrorIs(t, err, common.ErrorConflict)

	_, err = m.Users().Update(ctx, &models.User{ID: bob.ID, Name: "Bob", Email: "ann@example.com"})
	assert.ErrorIs(t, err, common.ErrorConflict)

	got, err := m.Users().GetByID(ctx, ann.ID)
	require.NoError(t, err)
	assert.Equal(t, "ann@example.com", got.Email)

	now := time.Now().UTC().Truncate(time.Millisecond)
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	public, err := m.Verifications().Create(ctx, &models.Verification{
		UserID: ann.ID, Claim: "Vaccines cause autism", ClaimType: models.ClaimText,
		Verdict: models.VerdictFalse, Confidence: 95, HarmIndex: models.HarmHigh,
		Category: models.CategoryHealth, IsPublic: true, CreatedAt: now,
		Evidence: []models.Evidence{{Title: "CDC", Credibility: 0.9, Relevance: 0.8}},
		Metadata: models.Metadata{IPAddress: "1.2.3.4", UserAgent: "test"},
	})
	require.NoError(t, err)

	private, err := m.Verifications().Create(ctx, &models.Verification{
		UserID: bob.ID, Claim: "100% of cats_are liquid", ClaimType: models.ClaimText,
		Verdict: models.VerdictMisleading, Confidence: 40, HarmIndex: models.HarmLow,
		Category: models.CategoryScience, CreatedAt: now.Add(time.Second),
	})
	require.NoError(t, err)

	dup, err := m.Verifications().FindRecentDuplicate(ctx, ann.ID, "Vaccines cause autism", now.Add(-5*time.Minute))
	require.NoError(t, err)
	assert.Equal(t, public.ID, dup.ID)

	_, err = m.Verifications().FindRecentDuplicate(ctx, bob.ID, "Vaccines cause autism", now.Add(-5*time.Minute))
	assert.ErrorIs(t, err, common.ErrorNotFound)

	views, err := m.Verifications().IncrementViews(ctx, public.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), views)

	loaded, err := m.Verifications().GetByID(ctx, public.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), loaded.Views)
	require.Len(t, loaded.Evidence, 1)
	assert.Equal(t, "CDC", loaded.Evidence[0].Title)
	assert.Equal(t, "1.2.3.4", loaded.Metadata.IPAddress)

	feed, err := m.Verifications().ListPublic(ctx, models.VerificationFilter{}, models.SortTrending, 20, 0)
	require.NoError(t, err)
	require.Len(t, feed, 1)
	assert.Equal(t, public.ID, feed[0].ID)

	own, err := m.Verifications().ListByUser(ctx, bob.ID, models.VerificationFilter{Search: "% OF CATS_"}, 10, 0)
	require.NoError(t, err)
	require.Len(t, own, 1, "search is a literal, case-insensitive substring")
	assert.Equal(t, private.ID, own[0].ID)

	own, err = m.Verifications().ListByUser(ctx, bob.ID, models.VerificationFilter{Search: "cats%liquid"}, 10, 0)
	require.NoError(t, err)
	assert.Empty(t, own)

	stats, err := m.Verifications().Stats(ctx, today)
	require.NoError(t, err)
	assert.Equal(t, models.ExploreStats{TotalVerifications: 1, TodayVerifications: 2, FakeNewsToday: 2, ActiveUsersToday: 2}, stats)

	require.NoError(t, m.Verifications().AddBookmark(ctx, public.ID, bob.ID))
	require.NoError(t, m.Verifications().AddBookmark(ctx, public.ID, bob.ID))
	loaded, err = m.Verifications().GetByID(ctx, public.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{bob.ID}, loaded.Bookmarks)

	b, err := m.Bookmarks().Create(ctx, &models.Bookmark{UserID: bob.ID, VerificationID: public.ID, Tags: []string{"health"}})
	require.NoError(t, err)

	marked, err := m.Bookmarks().BookmarkedAmong(ctx, bob.ID, []string{public.ID, private.ID})
	require.NoError(t, err)
	assert.Equal(t, map[string]bool{public.ID: true}, marked)

	sums, err := m.Verifications().GetSummaries(ctx, []string{public.ID})
	require.NoError(t, err)
	assert.Equal(t, "Vaccines cause autism", sums[public.ID].Claim)

	require.NoError(t, m.Bookmarks().Delete(ctx, b.ID))
	require.NoError(t, m.Verifications().RemoveBookmark(ctx, public.ID, bob.ID))
	loaded, err = m.Verifications().GetByID(ctx, public.ID)
	require.NoError(t, err)
	assert.Empty(t, loaded.Bookmarks)
}
