package repomanager

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/truthmate/truthmate/internal/dbx"
	"github.com/truthmate/truthmate/internal/server/migrations"
	"github.com/truthmate/truthmate/internal/server/repositories/bookmarks"
	"github.com/truthmate/truthmate/internal/server/repositories/users"
	"github.com/truthmate/truthmate/internal/server/repositories/verifications"
)

// PostgresRepositoryManager vends PostgreSQL-backed repositories sharing one
// connection pool.
type PostgresRepositoryManager struct {
	db            *sql.DB
	users         *users.PostgresRepository
	verifications *verifications.PostgresRepository
	bookmarks     *bookmarks.PostgresRepository
}

func (m *PostgresRepositoryManager) Users() users.Repository {
	return m.users
}

func (m *PostgresRepositoryManager) Verifications() verifications.Repository {
	return m.verifications
}

func (m *PostgresRepositoryManager) Bookmarks() bookmarks.Repository {
	return m.bookmarks
}

func (m *PostgresRepositoryManager) Ping(ctx context.Context) error {
	return dbx.Classify(m.db.PingContext(ctx))
}

func (m *PostgresRepositoryManager) Close(ctx context.Context) error {
	return m.db.Close()
}

// gooseUpContext is a seam for testing goose.UpContext.
var gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
	return goose.UpContext(ctx, db, dir, opts...)
}

// RunMigrations sets up goose with the embedded migrations and runs them
// against the manager's database.
func (m *PostgresRepositoryManager) RunMigrations(ctx context.Context) error {
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("pgx"); err != nil {
		return err
	}
	if err := gooseUpContext(ctx, m.db, "."); err != nil {
		return err
	}
	return nil
}

// NewPostgresRepositoryManager wraps an open database handle.
func NewPostgresRepositoryManager(db *sql.DB) *PostgresRepositoryManager {
	return &PostgresRepositoryManager{
		db:            db,
		users:         users.NewPostgresRepository(db),
		verifications: verifications.NewPostgresRepository(db),
		bookmarks:     bookmarks.NewPostgresRepository(db),
	}
}

// OpenPostgres opens a pgx-backed pool for dsn and applies migrations.
func OpenPostgres(ctx context.Context, dsn string) (*PostgresRepositoryManager, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	db.SetMaxOpenConns(20)
	db.SetMaxIdleConns(5)
	db.SetConnMaxIdleTime(5 * time.Minute)

	m := NewPostgresRepositoryManager(db)
	if err := m.RunMigrations(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate postgres: %w", dbx.Classify(err))
	}
	return m, nil
}
