package blogs

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

// Repository defines persistence operations for blog posts.
type Repository interface {
	Create(ctx context.Context, post Post) (Post, error)
	GetByID(ctx context.Context, id int64) (Post, error)
	List(ctx context.Context, req ListPostsRequest) ([]Post, int, error)
	Update(ctx context.Context, post Post) (Post, error)
	SetPublished(ctx context.Context, id int64, published bool, publishedAt *time.Time) error
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

const postColumns = `id, title, body, author_id, is_published, published_at, created_at, updated_at`

// Create inserts a new post.
func (r *PGRepository) Create(ctx context.Context, post Post) (Post, error) {
	row := r.pool.QueryRow(ctx,
		`INSERT INTO blogs (title, body, author_id, is_published, published_at)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING `+postColumns,
		post.Title, post.Body, post.AuthorID, post.IsPublished, post.PublishedAt)
	return scanPost(row)
}

// GetByID fetches one post.
func (r *PGRepository) GetByID(ctx context.Context, id int64) (Post, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+postColumns+` FROM blogs WHERE id=$1`, id)
	post, err := scanPost(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Post{}, shared.ErrNotFound
		}
		return Post{}, err
	}
	return post, nil
}

// List returns a filtered page of posts plus the unpaged total.
func (r *PGRepository) List(ctx context.Context, req ListPostsRequest) ([]Post, int, error) {
	where := []string{"TRUE"}
	args := []any{}
	if req.AuthorID != nil {
		args = append(args, *req.AuthorID)
		where = append(where, fmt.Sprintf("author_id=$%d", len(args)))
	}
	if req.Published != nil {
		args = append(args, *req.Published)
		where = append(where, fmt.Sprintf("is_published=$%d", len(args)))
	}
	clause := strings.Join(where, " AND ")

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM blogs WHERE `+clause, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	page := shared.NewPagination(req.Page, req.PerPage, total)
	args = append(args, page.PerPage, page.Offset())
	rows, err := r.pool.Query(ctx,
		`SELECT `+postColumns+` FROM blogs WHERE `+clause+
			fmt.Sprintf(` ORDER BY created_at DESC, id LIMIT $%d OFFSET $%d`, len(args)-1, len(args)),
		args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []Post
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, post)
	}
	return out, total, rows.Err()
}

// Update persists editable fields.
func (r *PGRepository) Update(ctx context.Context, post Post) (Post, error) {
	row := r.pool.QueryRow(ctx,
		`UPDATE blogs SET title=$2, body=$3, updated_at=NOW() WHERE id=$1 RETURNING `+postColumns,
		post.ID, post.Title, post.Body)
	updated, err := scanPost(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Post{}, shared.ErrNotFound
		}
		return Post{}, err
	}
	return updated, nil
}

// SetPublished flips the publish flag.
func (r *PGRepository) SetPublished(ctx context.Context, id int64, published bool, publishedAt *time.Time) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE blogs SET is_published=$2, published_at=COALESCE($3, published_at), updated_at=NOW() WHERE id=$1`,
		id, published, publishedAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Delete removes the post.
func (r *PGRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM blogs WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func scanPost(row pgx.Row) (Post, error) {
	var p Post
	err := row.Scan(&p.ID, &p.Title, &p.Body, &p.AuthorID, &p.IsPublished, &p.PublishedAt, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

var _ Repository = (*PGRepository)(nil)
