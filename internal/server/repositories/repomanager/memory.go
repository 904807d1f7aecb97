package repomanager

import (
	"context"

	"github.com/truthmate/truthmate/internal/server/repositories/bookmarks"
	"github.com/truthmate/truthmate/internal/server/repositories/users"
	"github.com/truthmate/truthmate/internal/server/repositories/verifications"
)

// MemoryRepositoryManager keeps everything in process memory. Data is lost
// on restart.
type MemoryRepositoryManager struct {
	users         *users.MemoryRepository
	verifications *verifications.MemoryRepository
	bookmarks     *bookmarks.MemoryRepository
}

func NewMemoryRepositoryManager() *MemoryRepositoryManager {
	return &MemoryRepositoryManager{
		users:         users.NewMemoryRepository(),
		verifications: verifications.NewMemoryRepository(),
		bookmarks:     bookmarks.NewMemoryRepository(),
	}
}

func (m *MemoryRepositoryManager) Users() users.Repository {
	return m.users
}

func (m *MemoryRepositoryManager) Verifications() verifications.Repository {
	return m.verifications
}

func (m *MemoryRepositoryManager) Bookmarks() bookmarks.Repository {
	return m.bookmarks
}

func (m *MemoryRepositoryManager) Ping(ctx context.Context) error {
	return nil
}

func (m *MemoryRepositoryManager) Close(ctx context.Context) error {
	return nil
}
