// Package verifications stores fact-check results together with their view
// counter and the set of users that bookmarked them.
package verifications

import (
	"context"
	"time"

	"github.com/truthmate/truthmate/internal/server/models"
)

// Repository persists verifications.
//
// GetByID and FindRecentDuplicate return common.ErrorNotFound when nothing
// matches. Connection-class failures are reported as
// common.ErrStorageUnavailable.
type Repository interface {
	Create(ctx context.Context, v *models.Verification) (*models.Verification, error)
	GetByID(ctx context.Context, id string) (*models.Verification, error)

	// FindRecentDuplicate returns the newest record of userID with exactly
	// this claim created at or after since.
	FindRecentDuplicate(ctx context.Context, userID, claim string, since time.Time) (*models.Verification, error)

	// IncrementViews atomically adds one to the view counter and returns
	// the new count.
	IncrementViews(ctx context.Context, id string) (int64, error)

	// ListByUser returns records owned by userID, newest first.
	ListByUser(ctx context.Context, userID string, filter models.VerificationFilter, limit, offset int) ([]*models.Verification, error)
	CountByUser(ctx context.Context, userID string, filter models.VerificationFilter) (int64, error)

	// ListPublic returns public records only. Verdict filters are ignored.
	ListPublic(ctx context.Context, filter models.VerificationFilter, sort models.SortOrder, limit, offset int) ([]*models.Verification, error)
	CountPublic(ctx context.Context, filter models.VerificationFilter) (int64, error)

	// Stats counts public records overall and all records created since.
	Stats(ctx context.Context, since time.Time) (models.ExploreStats, error)
	UserStats(ctx context.Context, userID string, since time.Time) (models.HistoryStats, error)

	// AddBookmark and RemoveBookmark maintain the bookmark back-reference
	// with single-record atomic updates.
	AddBookmark(ctx context.Context, id, userID string) error
	RemoveBookmark(ctx context.Context, id, userID string) error

	// GetSummaries returns projections keyed by id. Unknown ids are absent
	// from the map.
	GetSummaries(ctx context.Context, ids []string) (map[string]models.VerificationSummary, error)
}
