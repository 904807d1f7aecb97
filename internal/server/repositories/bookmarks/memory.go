package bookmarks

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/truthmate/truthmate/internal/common"
	"github.com/truthmate/truthmate/internal/server/models"
)

// MemoryRepository keeps bookmarks in process memory. Safe for concurrent use.
type MemoryRepository struct {
	mu    sync.RWMutex
	items map[string]models.Bookmark
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{items: make(map[string]models.Bookmark)}
}

func (r *MemoryRepository) Create(ctx context.Context, b *models.Bookmark) (*models.Bookmark, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	if b.CreatedAt.IsZero() {
		b.CreatedAt = time.Now().UTC()
	}
	if b.Tags == nil {
		b.Tags = []string{}
	}

	stored := *b
	stored.Tags = slices.Clone(b.Tags)
	r.items[b.ID] = stored
	return b, nil
}

func (r *MemoryRepository) GetByID(ctx context.Context, id string) (*models.Bookmark, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	b, ok := r.items[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return &b, nil
}

func (r *MemoryRepository) FindByUserAndVerification(ctx context.Context, userID, verificationID string) (*models.Bookmark, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, b := range r.items {
		if b.UserID == userID && b.VerificationID == verificationID {
			return &b, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (r *MemoryRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.items[id]; !ok {
		return common.ErrorNotFound
	}
	delete(r.items, id)
	return nil
}

func (r *MemoryRepository) ListByUser(ctx context.Context, userID string, limit, offset int) ([]*models.Bookmark, error) {
	r.mu.RLock()
	all := make([]*models.Bookmark, 0)
	for _, b := range r.items {
		if b.UserID == userID {
			all = append(all, &b)
		}
	}
	r.mu.RUnlock()

	slices.SortFunc(all, func(a, b *models.Bookmark) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})

	if offset >= len(all) {
		return []*models.Bookmark{}, nil
	}
	return all[offset:min(offset+limit, len(all))], nil
}

func (r *MemoryRepository) BookmarkedAmong(ctx context.Context, userID string, verificationIDs []string) (map[string]bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[string]bool)
	for _, b := range r.items {
		if b.UserID == userID && slices.Contains(verificationIDs, b.VerificationID) {
			out[b.VerificationID] = true
		}
	}
	return out, nil
}
