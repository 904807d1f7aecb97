// Package bookmarks stores the verifications users saved for later.
package bookmarks

import (
	"context"

	"github.com/truthmate/truthmate/internal/server/models"
)

// Repository persists bookmarks. Uniqueness of (user, verification) is not
// enforced here; callers check with FindByUserAndVerification first.
type Repository interface {
	Create(ctx context.Context, b *models.Bookmark) (*models.Bookmark, error)
	GetByID(ctx context.Context, id string) (*models.Bookmark, error)
	FindByUserAndVerification(ctx context.Context, userID, verificationID string) (*models.Bookmark, error)
	Delete(ctx context.Context, id string) error

	// ListByUser returns the user's bookmarks, newest first.
	ListByUser(ctx context.Context, userID string, limit, offset int) ([]*models.Bookmark, error)

	// BookmarkedAmong returns the subset of verificationIDs the user has
	// bookmarked.
	BookmarkedAmong(ctx context.Context, userID string, verificationIDs []string) (map[string]bool, error)
}
