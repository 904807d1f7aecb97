package services

import (
	"context"
	"testing"
	"time"

	"github.com/truthmate/truthmate/internal/common"
	"github.com/truthmate/truthmate/internal/logging"
	"github.com/truthmate/truthmate/internal/server/config"
	"github.com/truthmate/truthmate/internal/server/models"
	"github.com/truthmate/truthmate/internal/server/repositories/repomanager"
	"github.com/truthmate/truthmate/internal/server/repositories/verifications"
)

// clock is a settable time source for dedup and "today" checks.
type clock struct{ t time.Time }

func newClock() *clock {
	return &clock{t: time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)}
}

func (c *clock) now() time.Time { return c.t }

func (c *clock) advance(d time.Duration) { c.t = c.t.Add(d) }

func ptr[T any](v T) *T { return &v }

func testConfig() *config.Config {
	return &config.Config{DedupWindow: 5 * time.Minute}
}

func newVerificationService(t *testing.T, m repomanager.RepositoryManager, a Analyzer) (*VerificationService, *clock) {
	t.Helper()
	if a == nil {
		a = MockAnalyzer{}
	}
	c := newClock()
	s := NewVerificationService(m, a, testConfig(), logging.Nop())
	s.now = c.now
	t.Cleanup(s.Wait)
	return s, c
}

// downVerifications behaves like a store whose connection is gone.
type downVerifications struct {
	verifications.Repository
}

func (downVerifications) Create(context.Context, *models.Verification) (*models.Verification, error) {
	return nil, common.ErrStorageUnavailable
}

func (downVerifications) FindRecentDuplicate(context.Context, string, string, time.Time) (*models.Verification, error) {
	return nil, common.ErrStorageUnavailable
}

func (downVerifications) ListByUser(context.Context, string, models.VerificationFilter, int, int) ([]*models.Verification, error) {
	return nil, common.ErrStorageUnavailable
}

func (downVerifications) ListPublic(context.Context, models.VerificationFilter, models.SortOrder, int, int) ([]*models.Verification, error) {
	return nil, common.ErrStorageUnavailable
}

func (downVerifications) AddBookmark(context.Context, string, string) error {
	return common.ErrStorageUnavailable
}

func (downVerifications) RemoveBookmark(context.Context, string, string) error {
	return common.ErrStorageUnavailable
}

// readOnlyVerifications reads normally but cannot count views.
type readOnlyVerifications struct {
	verifications.Repository
}

func (readOnlyVerifications) IncrementViews(context.Context, string) (int64, error) {
	return 0, common.ErrStorageUnavailable
}

// stubManager serves memory repositories except for the verification store.
type stubManager struct {
	*repomanager.MemoryRepositoryManager
	verifications verifications.Repository
}

func (m *stubManager) Verifications() verifications.Repository { return m.verifications }
