package bookmarks

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/truthmate/truthmate/internal/common"
	"github.com/truthmate/truthmate/internal/dbx"
	"github.com/truthmate/truthmate/internal/server/models"
)

const columns = `id, user_id, verification_id, notes, tags, created_at`

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, b *models.Bookmark) (*models.Bookmark, error) {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	if b.CreatedAt.IsZero() {
		b.CreatedAt = time.Now().UTC()
	}
	if b.Tags == nil {
		b.Tags = []string{}
	}

	tags, err := json.Marshal(b.Tags)
	if err != nil {
		return nil, err
	}

	query :=
		`INSERT INTO bookmarks (` + columns + `)
		 VALUES ($1, $2, $3, $4, $5, $6)`

	if _, err := r.db.ExecContext(ctx, query, b.ID, b.UserID, b.VerificationID, b.Notes, tags, b.CreatedAt); err != nil {
		return nil, wrapError(err)
	}
	return b, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.Bookmark, error) {
	if uuid.Validate(id) != nil {
		return nil, common.ErrorNotFound
	}
	query := `SELECT ` + columns + ` FROM bookmarks WHERE id = $1`
	return scanRow(r.db.QueryRowContext(ctx, query, id))
}

func (r *PostgresRepository) FindByUserAndVerification(ctx context.Context, userID, verificationID string) (*models.Bookmark, error) {
	if uuid.Validate(verificationID) != nil {
		return nil, common.ErrorNotFound
	}
	query :=
		`SELECT ` + columns + ` FROM bookmarks
		 WHERE user_id = $1 AND verification_id = $2
		 LIMIT 1`
	return scanRow(r.db.QueryRowContext(ctx, query, userID, verificationID))
}

func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	if uuid.Validate(id) != nil {
		return common.ErrorNotFound
	}
	res, err := r.db.ExecContext(ctx, `DELETE FROM bookmarks WHERE id = $1`, id)
	if err != nil {
		return wrapError(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return wrapError(err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}

func (r *PostgresRepository) ListByUser(ctx context.Context, userID string, limit, offset int) ([]*models.Bookmark, error) {
	query :=
		`SELECT ` + columns + ` FROM bookmarks
		 WHERE user_id = $1
		 ORDER BY created_at DESC
		 LIMIT $2 OFFSET $3`

	rows, err := r.db.QueryContext(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, wrapError(err)
	}
	defer rows.Close()

	out := make([]*models.Bookmark, 0)
	for rows.Next() {
		b, err := scanRow(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapError(err)
	}
	return out, nil
}

// BookmarkedAmong keys the result by the caller's spelling of each id;
// Postgres itself reports uuids in canonical lowercase form.
func (r *PostgresRepository) BookmarkedAmong(ctx context.Context, userID string, verificationIDs []string) (map[string]bool, error) {
	out := make(map[string]bool)

	spellings := make(map[string][]string, len(verificationIDs))
	args := []any{userID}
	placeholders := make([]string, 0, len(verificationIDs))
	for _, id := range verificationIDs {
		parsed, err := uuid.Parse(id)
		if err != nil {
			continue
		}
		canonical := parsed.String()
		if _, seen := spellings[canonical]; !seen {
			args = append(args, canonical)
			placeholders = append(placeholders, "$"+strconv.Itoa(len(args)))
		}
		spellings[canonical] = append(spellings[canonical], id)
	}
	if len(placeholders) == 0 {
		return out, nil
	}

	query :=
		`SELECT DISTINCT verification_id FROM bookmarks
		 WHERE user_id = $1 AND verification_id IN (` + strings.Join(placeholders, ", ") + `)`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, wrapError(err)
	}
	defer rows.Close()

	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, wrapError(err)
		}
		for _, spelled := range spellings[strings.ToLower(id)] {
			out[spelled] = true
		}
	}
	if err := rows.Err(); err != nil {
		return nil, wrapError(err)
	}
	return out, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRow(row scanner) (*models.Bookmark, error) {
	var (
		b    models.Bookmark
		tags []byte
	)
	if err := row.Scan(&b.ID, &b.UserID, &b.VerificationID, &b.Notes, &tags, &b.CreatedAt); err != nil {
		return nil, wrapError(err)
	}
	b.Tags = []string{}
	if len(tags) > 0 {
		if err := json.Unmarshal(tags, &b.Tags); err != nil {
			return nil, fmt.Errorf("decode bookmark %s tags: %w", b.ID, err)
		}
	}
	return &b, nil
}

func wrapError(err error) error {
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return common.ErrorNotFound
	case errors.Is(err, common.ErrorNotFound), errors.Is(err, common.ErrStorageUnavailable):
		return err
	default:
		return fmt.Errorf("db error: %w", dbx.Classify(err))
	}
}
