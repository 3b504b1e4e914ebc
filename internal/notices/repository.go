package notices

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/campuscore/campuscore/internal/shared"
)

// Repository defines persistence operations for notices.
type Repository interface {
	Create(ctx context.Context, notice Notice) (Notice, error)
	GetByID(ctx context.Context, id int64) (Notice, error)
	List(ctx context.Context, req ListNoticesRequest) ([]Notice, int, error)
	Update(ctx context.Context, notice Notice) (Notice, error)
	SetStatus(ctx context.Context, id int64, status Status, publishedAt *time.Time) error
	Delete(ctx context.Context, id int64) error
}

// PGRepository provides PostgreSQL backed persistence.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

const noticeColumns = `id, title, body, audience, status, author_id, published_at, created_at, updated_at`

// Create inserts a new draft notice.
func (r *PGRepository) Create(ctx context.Context, notice Notice) (Notice, error) {
	row := r.pool.QueryRow(ctx,
		`INSERT INTO notices (title, body, audience, status, author_id)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING `+noticeColumns,
		notice.Title, notice.Body, notice.Audience, notice.Status, notice.AuthorID)
	return scanNotice(row)
}

// GetByID fetches one notice.
func (r *PGRepository) GetByID(ctx context.Context, id int64) (Notice, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+noticeColumns+` FROM notices WHERE id=$1`, id)
	notice, err := scanNotice(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Notice{}, shared.ErrNotFound
		}
		return Notice{}, err
	}
	return notice, nil
}

// List returns a filtered page of notices plus the unpaged total.
func (r *PGRepository) List(ctx context.Context, req ListNoticesRequest) ([]Notice, int, error) {
	where := []string{"TRUE"}
	args := []any{}
	if req.Status != nil {
		args = append(args, *req.Status)
		where = append(where, fmt.Sprintf("status=$%d", len(args)))
	}
	if len(req.Audiences) > 0 {
		placeholders := make([]string, 0, len(req.Audiences))
		for _, audience := range req.Audiences {
			args = append(args, audience)
			placeholders = append(placeholders, fmt.Sprintf("$%d", len(args)))
		}
		where = append(where, "audience IN ("+strings.Join(placeholders, ", ")+")")
	}
	clause := strings.Join(where, " AND ")

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM notices WHERE `+clause, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	page := shared.NewPagination(req.Page, req.PerPage, total)
	args = append(args, page.PerPage, page.Offset())
	rows, err := r.pool.Query(ctx,
		`SELECT `+noticeColumns+` FROM notices WHERE `+clause+
			fmt.Sprintf(` ORDER BY created_at DESC, id LIMIT $%d OFFSET $%d`, len(args)-1, len(args)),
		args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []Notice
	for rows.Next() {
		notice, err := scanNotice(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, notice)
	}
	return out, total, rows.Err()
}

// Update persists editable fields.
func (r *PGRepository) Update(ctx context.Context, notice Notice) (Notice, error) {
	row := r.pool.QueryRow(ctx,
		`UPDATE notices SET title=$2, body=$3, audience=$4, updated_at=NOW()
		 WHERE id=$1 RETURNING `+noticeColumns,
		notice.ID, notice.Title, notice.Body, notice.Audience)
	updated, err := scanNotice(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Notice{}, shared.ErrNotFound
		}
		return Notice{}, err
	}
	return updated, nil
}

// SetStatus moves the notice through its lifecycle.
func (r *PGRepository) SetStatus(ctx context.Context, id int64, status Status, publishedAt *time.Time) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE notices SET status=$2, published_at=COALESCE($3, published_at), updated_at=NOW() WHERE id=$1`,
		id, status, publishedAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Delete removes the notice.
func (r *PGRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM notices WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func scanNotice(row pgx.Row) (Notice, error) {
	var n Notice
	err := row.Scan(&n.ID, &n.Title, &n.Body, &n.Audience, &n.Status, &n.AuthorID, &n.PublishedAt, &n.CreatedAt, &n.UpdatedAt)
	return n, err
}

var _ Repository = (*PGRepository)(nil)
