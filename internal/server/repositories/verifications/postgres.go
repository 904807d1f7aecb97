package verifications

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

const columns = `id, user_id, claim, claim_type, verdict, confidence, explanation, source_credibility,
	harm_index, evidence, is_public, views, bookmarked_by, flags, category, metadata, created_at, updated_at`

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, v *models.Verification) (*models.Verification, error) {
	if v.ID == "" {
		v.ID = uuid.NewString()
	}
	if v.CreatedAt.IsZero() {
		v.CreatedAt = time.Now().UTC()
	}
	v.UpdatedAt = v.CreatedAt

	evidence, err := marshalList(v.Evidence)
	if err != nil {
		return nil, err
	}
	bookmarks, err := marshalList(v.Bookmarks)
	if err != nil {
		return nil, err
	}
	flags, err := marshalList(v.Flags)
	if err != nil {
		return nil, err
	}
	metadata, err := json.Marshal(v.Metadata)
	if err != nil {
		return nil, err
	}

	query :=
		`INSERT INTO verifications (` + columns + `)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)`

	_, err = r.db.ExecContext(ctx, query,
		v.ID, v.UserID, v.Claim, string(v.ClaimType), string(v.Verdict), v.Confidence, v.Explanation,
		v.SourceCredibility, string(v.HarmIndex), evidence, v.IsPublic, v.Views, bookmarks, flags,
		string(v.Category), metadata, v.CreatedAt, v.UpdatedAt)
	if err != nil {
		return nil, wrapError(err)
	}

	return v, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.Verification, error) {
	if uuid.Validate(id) != nil {
		return nil, common.ErrorNotFound
	}

	query := `SELECT ` + columns + ` FROM verifications WHERE id = $1`

	return scanRow(r.db.QueryRowContext(ctx, query, id))
}

func (r *PostgresRepository) FindRecentDuplicate(ctx context.Context, userID, claim string, since time.Time) (*models.Verification, error) {
	query :=
		`SELECT ` + columns + ` FROM verifications
		 WHERE user_id = $1 AND claim = $2 AND created_at >= $3
		 ORDER BY created_at DESC
		 LIMIT 1`

	return scanRow(r.db.QueryRowContext(ctx, query, userID, claim, since))
}

func (r *PostgresRepository) IncrementViews(ctx context.Context, id string) (int64, error) {
	if uuid.Validate(id) != nil {
		return 0, common.ErrorNotFound
	}

	var views int64
	err := r.db.QueryRowContext(ctx, `UPDATE verifications SET views = views + 1 WHERE id = $1 RETURNING views`, id).Scan(&views)
	if err != nil {
		return 0, wrapError(err)
	}
	return views, nil
}

func (r *PostgresRepository) ListByUser(ctx context.Context, userID string, filter models.VerificationFilter, limit, offset int) ([]*models.Verification, error) {
	w := newWhere("user_id = $1", userID).filter(filter, true)
	query := `SELECT ` + columns + ` FROM verifications WHERE ` + w.sql() +
		` ORDER BY created_at DESC` + w.page(limit, offset)

	return r.list(ctx, query, w.args...)
}

func (r *PostgresRepository) CountByUser(ctx context.Context, userID string, filter models.VerificationFilter) (int64, error) {
	w := newWhere("user_id = $1", userID).filter(filter, true)
	return r.count(ctx, `SELECT count(*) FROM verifications WHERE `+w.sql(), w.args...)
}

func (r *PostgresRepository) ListPublic(ctx context.Context, filter models.VerificationFilter, sort models.SortOrder, limit, offset int) ([]*models.Verification, error) {
	w := newWhere("is_public = true").filter(filter, false)

	order := ` ORDER BY created_at DESC`
	if sort == models.SortTrending {
		order = ` ORDER BY views DESC, created_at DESC`
	}

	query := `SELECT ` + columns + ` FROM verifications WHERE ` + w.sql() + order + w.page(limit, offset)

	return r.list(ctx, query, w.args...)
}

func (r *PostgresRepository) CountPublic(ctx context.Context, filter models.VerificationFilter) (int64, error) {
	w := newWhere("is_public = true").filter(filter, false)
	return r.count(ctx, `SELECT count(*) FROM verifications WHERE `+w.sql(), w.args...)
}

func (r *PostgresRepository) Stats(ctx context.Context, since time.Time) (models.ExploreStats, error) {
	query :=
		`SELECT
		   count(*) FILTER (WHERE is_public),
		   count(*) FILTER (WHERE created_at >= $1),
		   count(*) FILTER (WHERE created_at >= $1 AND verdict IN ('false', 'misleading')),
		   count(DISTINCT user_id) FILTER (WHERE created_at >= $1)
		 FROM verifications`

	var s models.ExploreStats
	err := r.db.QueryRowContext(ctx, query, since).
		Scan(&s.TotalVerifications, &s.TodayVerifications, &s.FakeNewsToday, &s.ActiveUsersToday)
	if err != nil {
		return models.ExploreStats{}, wrapError(err)
	}
	return s, nil
}

func (r *PostgresRepository) UserStats(ctx context.Context, userID string, since time.Time) (models.HistoryStats, error) {
	query :=
		`SELECT count(*), count(*) FILTER (WHERE created_at >= $2)
		 FROM verifications
		 WHERE user_id = $1`

	var s models.HistoryStats
	if err := r.db.QueryRowContext(ctx, query, userID, since).Scan(&s.Total, &s.Today); err != nil {
		return models.HistoryStats{}, wrapError(err)
	}
	return s, nil
}

func (r *PostgresRepository) AddBookmark(ctx context.Context, id, userID string) error {
	if uuid.Validate(id) != nil {
		return common.ErrorNotFound
	}

	query :=
		`UPDATE verifications
		 SET bookmarked_by = bookmarked_by || jsonb_build_array($2::text), updated_at = now()
		 WHERE id = $1 AND NOT bookmarked_by @> jsonb_build_array($2::text)`

	if _, err := r.db.ExecContext(ctx, query, id, userID); err != nil {
		return wrapError(err)
	}
	return nil
}

func (r *PostgresRepository) RemoveBookmark(ctx context.Context, id, userID string) error {
	if uuid.Validate(id) != nil {
		return common.ErrorNotFound
	}

	query :=
		`UPDATE verifications
		 SET bookmarked_by = bookmarked_by - $2::text, updated_at = now()
		 WHERE id = $1`

	if _, err := r.db.ExecContext(ctx, query, id, userID); err != nil {
		return wrapError(err)
	}
	return nil
}

func (r *PostgresRepository) GetSummaries(ctx context.Context, ids []string) (map[string]models.VerificationSummary, error) {
	out := make(map[string]models.VerificationSummary, len(ids))

	args := make([]any, 0, len(ids))
	placeholders := make([]string, 0, len(ids))
	for _, id := range ids {
		if uuid.Validate(id) != nil {
			continue
		}
		args = append(args, id)
		placeholders = append(placeholders, "$"+strconv.Itoa(len(args)))
	}
	if len(args) == 0 {
		return out, nil
	}

	query :=
		`SELECT id, claim, verdict, confidence, category, created_at, views
		 FROM verifications
		 WHERE id IN (` + strings.Join(placeholders, ", ") + `)`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, wrapError(err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			s                 models.VerificationSummary
			verdict, category string
		)
		if err := rows.Scan(&s.ID, &s.Claim, &verdict, &s.Confidence, &category, &s.CreatedAt, &s.Views); err != nil {
			return nil, wrapError(err)
		}
		s.Verdict = models.Verdict(verdict)
		s.Category = models.Category(category)
		out[s.ID] = s
	}
	if err := rows.Err(); err != nil {
		return nil, wrapError(err)
	}

	return out, nil
}

func (r *PostgresRepository) list(ctx context.Context, query string, args ...any) ([]*models.Verification, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, wrapError(err)
	}
	defer rows.Close()

	out := make([]*models.Verification, 0)
	for rows.Next() {
		v, err := scanRow(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapError(err)
	}
	return out, nil
}

func (r *PostgresRepository) count(ctx context.Context, query string, args ...any) (int64, error) {
	var n int64
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, wrapError(err)
	}
	return n, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRow(row scanner) (*models.Verification, error) {
	var (
		v                                    models.Verification
		claimType, verdict, harm, category   string
		evidence, bookmarks, flags, metadata []byte
	)

	err := row.Scan(&v.ID, &v.UserID, &v.Claim, &claimType, &verdict, &v.Confidence, &v.Explanation,
		&v.SourceCredibility, &harm, &evidence, &v.IsPublic, &v.Views, &bookmarks, &flags, &category,
		&metadata, &v.CreatedAt, &v.UpdatedAt)
	if err != nil {
		return nil, wrapError(err)
	}

	v.ClaimType = models.ClaimType(claimType)
	v.Verdict = models.Verdict(verdict)
	v.HarmIndex = models.HarmIndex(harm)
	v.Category = models.Category(category)

	for _, f := range []struct {
		raw []byte
		dst any
	}{
		{evidence, &v.Evidence},
		{bookmarks, &v.Bookmarks},
		{flags, &v.Flags},
		{metadata, &v.Metadata},
	} {
		if len(f.raw) == 0 {
			continue
		}
		if err := json.Unmarshal(f.raw, f.dst); err != nil {
			return nil, fmt.Errorf("decode verification %s: %w", v.ID, err)
		}
	}

	return &v, nil
}

func marshalList[T any](items []T) ([]byte, error) {
	if items == nil {
		items = []T{}
	}
	return json.Marshal(items)
}

// where accumulates AND-ed conditions with positional arguments.
type where struct {
	conds []string
	args  []any
}

func newWhere(cond string, args ...any) *where {
	return &where{conds: []string{cond}, args: args}
}

func (w *where) add(cond string, arg any) {
	w.args = append(w.args, arg)
	w.conds = append(w.conds, strings.ReplaceAll(cond, "?", "$"+strconv.Itoa(len(w.args))))
}

func (w *where) filter(f models.VerificationFilter, withVerdict bool) *where {
	if f.Category != "" {
		w.add("category = ?", string(f.Category))
	}
	if withVerdict && f.Verdict != "" {
		w.add("verdict = ?", string(f.Verdict))
	}
	if f.Search != "" {
		w.add(`claim ILIKE ? ESCAPE '\'`, "%"+escapeLike(f.Search)+"%")
	}
	return w
}

func (w *where) sql() string {
	return strings.Join(w.conds, " AND ")
}

func (w *where) page(limit, offset int) string {
	w.args = append(w.args, limit, offset)
	n := len(w.args)
	return fmt.Sprintf(" LIMIT $%d OFFSET $%d", n-1, n)
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
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
