package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/truthmate/truthmate/internal/common"
	"github.com/truthmate/truthmate/internal/logging"
	"github.com/truthmate/truthmate/internal/server/models"
	"github.com/truthmate/truthmate/internal/server/repositories/repomanager"
)

const (
	defaultBookmarkLimit = 20
	maxBookmarkLimit     = 100
	maxCheckBatch        = 100
)

type BookmarkInput struct {
	VerificationID string
	Notes          string
	Tags           []string
}

type BookmarkPage struct {
	Items   []models.BookmarkedVerification
	Limit   int
	Offset  int
	HasMore bool
}

// BookmarkService manages bookmarks and keeps the bookmark set stored on each
// verification in step with them.
type BookmarkService struct {
	repomanager repomanager.RepositoryManager
	log         logging.Logger
}

func NewBookmarkService(m repomanager.RepositoryManager, log logging.Logger) *BookmarkService {
	return &BookmarkService{repomanager: m, log: log.With("module", "bookmarks")}
}

// Create bookmarks a verification the user can see. A second bookmark of the
// same verification yields common.ErrorConflict.
func (s *BookmarkService) Create(ctx context.Context, userID string, in BookmarkInput) (*models.Bookmark, error) {
	verificationID := strings.TrimSpace(in.VerificationID)
	if verificationID == "" {
		return nil, common.MissingFields("verificationId")
	}
	notes := strings.TrimSpace(in.Notes)
	if utf8.RuneCountInString(notes) > models.MaxNotesLength {
		return nil, common.InvalidField("notes", "notes must be at most %d characters", models.MaxNotesLength)
	}
	tags, ok := models.NormalizeTags(in.Tags)
	if !ok {
		return nil, common.InvalidField("tags", "at most %d tags of up to %d characters each", models.MaxTags, models.MaxTagLength)
	}

	v, err := s.repomanager.Verifications().GetByID(ctx, verificationID)
	if err != nil {
		return nil, fmt.Errorf("error loading verification: %w", err)
	}
	if !v.VisibleTo(userID) {
		return nil, common.ErrorForbidden
	}
	verificationID = v.ID

	repo := s.repomanager.Bookmarks()
	_, err = repo.FindByUserAndVerification(ctx, userID, verificationID)
	switch {
	case err == nil:
		return nil, common.ErrorConflict
	case !errors.Is(err, common.ErrorNotFound):
		return nil, fmt.Errorf("error checking bookmark: %w", err)
	}

	b, err := repo.Create(ctx, &models.Bookmark{
		UserID:         userID,
		VerificationID: verificationID,
		Notes:          notes,
		Tags:           tags,
	})
	if err != nil {
		return nil, fmt.Errorf("error creating bookmark: %w", err)
	}

	if err := s.repomanager.Verifications().AddBookmark(ctx, verificationID, userID); err != nil {
		s.log.Warn(ctx, "bookmark set not updated", "verification_id", verificationID, "error", err)
	}
	return b, nil
}

// Delete removes the user's bookmark found by bookmarkID, or else by
// verificationID. Bookmarks of other users are reported as not found.
func (s *BookmarkService) Delete(ctx context.Context, userID, bookmarkID, verificationID string) error {
	bookmarkID = strings.TrimSpace(bookmarkID)
	verificationID = strings.TrimSpace(verificationID)

	repo := s.repomanager.Bookmarks()
	var (
		b   *models.Bookmark
		err error
	)
	switch {
	case bookmarkID != "":
		b, err = repo.GetByID(ctx, bookmarkID)
	case verificationID != "":
		b, err = repo.FindByUserAndVerification(ctx, userID, verificationID)
	default:
		return &common.ValidationError{
			Fields:  []string{"id", "verificationId"},
			Message: "bookmark id or verificationId is required",
		}
	}
	if err != nil {
		return fmt.Errorf("error loading bookmark: %w", err)
	}
	if b.UserID != userID {
		return common.ErrorNotFound
	}

	if err := repo.Delete(ctx, b.ID); err != nil {
		return fmt.Errorf("error deleting bookmark: %w", err)
	}

	if err := s.repomanager.Verifications().RemoveBookmark(ctx, b.VerificationID, userID); err != nil {
		s.log.Warn(ctx, "bookmark set not updated", "verification_id", b.VerificationID, "error", err)
	}
	return nil
}

// List returns the user's bookmarks joined with their verifications, newest
// first. Bookmarks of deleted verifications are skipped.
func (s *BookmarkService) List(ctx context.Context, userID string, limit, offset int) (*BookmarkPage, error) {
	if limit < 1 {
		limit = defaultBookmarkLimit
	}
	limit = min(limit, maxBookmarkLimit)
	offset = max(offset, 0)

	bookmarks, err := s.repomanager.Bookmarks().ListByUser(ctx, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("error listing bookmarks: %w", err)
	}

	ids := make([]string, 0, len(bookmarks))
	for _, b := range bookmarks {
		ids = append(ids, b.VerificationID)
	}
	summaries, err := s.repomanager.Verifications().GetSummaries(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("error loading bookmarked verifications: %w", err)
	}

	items := make([]models.BookmarkedVerification, 0, len(bookmarks))
	for _, b := range bookmarks {
		sum, ok := summaries[b.VerificationID]
		if !ok {
			continue
		}
		items = append(items, models.BookmarkedVerification{Bookmark: *b, Verification: sum})
	}

	return &BookmarkPage{
		Items:   items,
		Limit:   limit,
		Offset:  offset,
		HasMore: len(bookmarks) == limit,
	}, nil
}

// CheckBatch reports, for each id, whether userID bookmarked it. Anonymous
// callers get an empty map.
func (s *BookmarkService) CheckBatch(ctx context.Context, userID string, ids []string) (map[string]bool, error) {
	out := make(map[string]bool)
	if userID == "" {
		return out, nil
	}
	if len(ids) > maxCheckBatch {
		return nil, common.InvalidField("verificationIds", "at most %d ids per request", maxCheckBatch)
	}

	clean := make([]string, 0, len(ids))
	for _, id := range ids {
		if id = strings.TrimSpace(id); id != "" {
			if _, seen := out[id]; !seen {
				out[id] = false
				clean = append(clean, id)
			}
		}
	}
	if len(clean) == 0 {
		return out, nil
	}

	marked, err := s.repomanager.Bookmarks().BookmarkedAmong(ctx, userID, clean)
	if err != nil {
		return nil, fmt.Errorf("error checking bookmarks: %w", err)
	}
	for id := range marked {
		if marked[id] {
			out[id] = true
		}
	}
	return out, nil
}
