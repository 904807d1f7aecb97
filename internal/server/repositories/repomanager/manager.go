// Package repomanager vends the repositories of one storage backend
// (PostgreSQL, MongoDB or process memory) behind a single interface.
package repomanager

import (
	"context"
	"fmt"

	"github.com/truthmate/truthmate/internal/server/config"
	"github.com/truthmate/truthmate/internal/server/repositories/bookmarks"
	"github.com/truthmate/truthmate/internal/server/repositories/users"
	"github.com/truthmate/truthmate/internal/server/repositories/verifications"
)

type RepositoryManager interface {
	Users() users.Repository
	Verifications() verifications.Repository
	Bookmarks() bookmarks.Repository

	// Ping reports whether the backend is reachable.
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}

// Open connects to the backend named by cfg.DatabaseDriver and prepares its
// schema (migrations or indexes).
func Open(ctx context.Context, cfg *config.Config) (RepositoryManager, error) {
	switch cfg.DatabaseDriver {
	case config.DriverPostgres:
		return OpenPostgres(ctx, cfg.DatabaseDSN)
	case config.DriverMongo:
		return OpenMongo(ctx, cfg.MongoURI, cfg.MongoDatabase)
	case config.DriverMemory:
		return NewMemoryRepositoryManager(), nil
	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.DatabaseDriver)
	}
}
