package verifications

import (
	"cmp"
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/truthmate/truthmate/internal/common"
	"github.com/truthmate/truthmate/internal/server/models"
)

// MemoryRepository keeps verifications in process memory. Safe for
// concurrent use; returned records are copies.
type MemoryRepository struct {
	mu    sync.RWMutex
	items map[string]*models.Verification
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{items: make(map[string]*models.Verification)}
}

func (r *MemoryRepository) Create(ctx context.Context, v *models.Verification) (*models.Verification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if v.ID == "" {
		v.ID = uuid.NewString()
	}
	if v.CreatedAt.IsZero() {
		v.CreatedAt = time.Now().UTC()
	}
	v.UpdatedAt = v.CreatedAt

	r.items[v.ID] = clone(v)
	return clone(v), nil
}

func (r *MemoryRepository) GetByID(ctx context.Context, id string) (*models.Verification, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	v, ok := r.items[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return clone(v), nil
}

func (r *MemoryRepository) FindRecentDuplicate(ctx context.Context, userID, claim string, since time.Time) (*models.Verification, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var found *models.Verification
	for _, v := range r.items {
		if v.UserID != userID || v.Claim != claim || v.CreatedAt.Before(since) {
			continue
		}
		if found == nil || v.CreatedAt.After(found.CreatedAt) {
			found = v
		}
	}
	if found == nil {
		return nil, common.ErrorNotFound
	}
	return clone(found), nil
}

func (r *MemoryRepository) IncrementViews(ctx context.Context, id string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	v, ok := r.items[id]
	if !ok {
		return 0, common.ErrorNotFound
	}
	v.Views++
	return v.Views, nil
}

func (r *MemoryRepository) ListByUser(ctx context.Context, userID string, filter models.VerificationFilter, limit, offset int) ([]*models.Verification, error) {
	items := r.collect(func(v *models.Verification) bool {
		return v.UserID == userID && matches(v, filter, true)
	})
	slices.SortFunc(items, byRecent)
	return page(items, limit, offset), nil
}

func (r *MemoryRepository) CountByUser(ctx context.Context, userID string, filter models.VerificationFilter) (int64, error) {
	items := r.collect(func(v *models.Verification) bool {
		return v.UserID == userID && matches(v, filter, true)
	})
	return int64(len(items)), nil
}

func (r *MemoryRepository) ListPublic(ctx context.Context, filter models.VerificationFilter, sort models.SortOrder, limit, offset int) ([]*models.Verification, error) {
	items := r.collect(func(v *models.Verification) bool {
		return v.IsPublic && matches(v, filter, false)
	})
	if sort == models.SortTrending {
		slices.SortFunc(items, func(a, b *models.Verification) int {
			if c := cmp.Compare(b.Views, a.Views); c != 0 {
				return c
			}
			return byRecent(a, b)
		})
	} else {
		slices.SortFunc(items, byRecent)
	}
	return page(items, limit, offset), nil
}

func (r *MemoryRepository) CountPublic(ctx context.Context, filter models.VerificationFilter) (int64, error) {
	items := r.collect(func(v *models.Verification) bool {
		return v.IsPublic && matches(v, filter, false)
	})
	return int64(len(items)), nil
}

func (r *MemoryRepository) Stats(ctx context.Context, since time.Time) (models.ExploreStats, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var s models.ExploreStats
	users := make(map[string]struct{})
	for _, v := range r.items {
		if v.IsPublic {
			s.TotalVerifications++
		}
		if v.CreatedAt.Before(since) {
			continue
		}
		s.TodayVerifications++
		if v.Verdict == models.VerdictFalse || v.Verdict == models.VerdictMisleading {
			s.FakeNewsToday++
		}
		users[v.UserID] = struct{}{}
	}
	s.ActiveUsersToday = int64(len(users))
	return s, nil
}

func (r *MemoryRepository) UserStats(ctx context.Context, userID string, since time.Time) (models.HistoryStats, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var s models.HistoryStats
	for _, v := range r.items {
		if v.UserID != userID {
			continue
		}
		s.Total++
		if !v.CreatedAt.Before(since) {
			s.Today++
		}
	}
	return s, nil
}

func (r *MemoryRepository) AddBookmark(ctx context.Context, id, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	v, ok := r.items[id]
	if !ok {
		return common.ErrorNotFound
	}
	if !slices.Contains(v.Bookmarks, userID) {
		v.Bookmarks = append(v.Bookmarks, userID)
	}
	return nil
}

func (r *MemoryRepository) RemoveBookmark(ctx context.Context, id, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	v, ok := r.items[id]
	if !ok {
		return common.ErrorNotFound
	}
	v.Bookmarks = slices.DeleteFunc(v.Bookmarks, func(u string) bool { return u == userID })
	return nil
}

func (r *MemoryRepository) GetSummaries(ctx context.Context, ids []string) (map[string]models.VerificationSummary, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[string]models.VerificationSummary, len(ids))
	for _, id := range ids {
		v, ok := r.items[id]
		if !ok {
			continue
		}
		out[id] = models.VerificationSummary{
			ID:         v.ID,
			Claim:      v.Claim,
			Verdict:    v.Verdict,
			Confidence: v.Confidence,
			Category:   v.Category,
			CreatedAt:  v.CreatedAt,
			Views:      v.Views,
		}
	}
	return out, nil
}

func (r *MemoryRepository) collect(keep func(v *models.Verification) bool) []*models.Verification {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*models.Verification, 0)
	for _, v := range r.items {
		if keep(v) {
			out = append(out, clone(v))
		}
	}
	return out
}

func matches(v *models.Verification, f models.VerificationFilter, withVerdict bool) bool {
	if f.Category != "" && v.Category != f.Category {
		return false
	}
	if withVerdict && f.Verdict != "" && v.Verdict != f.Verdict {
		return false
	}
	if f.Search != "" && !strings.Contains(strings.ToLower(v.Claim), strings.ToLower(f.Search)) {
		return false
	}
	return true
}

func byRecent(a, b *models.Verification) int {
	if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
		return c
	}
	return cmp.Compare(a.ID, b.ID)
}

func page(items []*models.Verification, limit, offset int) []*models.Verification {
	if offset >= len(items) {
		return []*models.Verification{}
	}
	end := min(offset+limit, len(items))
	return items[offset:end]
}

func clone(v *models.Verification) *models.Verification {
	c := *v
	c.Evidence = slices.Clone(v.Evidence)
	c.Bookmarks = slices.Clone(v.Bookmarks)
	c.Flags = slices.Clone(v.Flags)
	return &c
}
