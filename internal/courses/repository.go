package courses

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/campuscore/campuscore/internal/shared"
)

// Repository defines persistence operations for courses.
type Repository interface {
	Create(ctx context.Context, course Course) (Course, error)
	GetByID(ctx context.Context, id int64) (Course, error)
	List(ctx context.Context, req ListCoursesRequest) ([]Course, int, error)
	Update(ctx context.Context, course Course) (Course, error)
	SetArchived(ctx context.Context, id int64, archived bool) error
	Delete(ctx context.Context, id int64) error
	ActiveEnrollmentCount(ctx context.Context, id int64) (int, error)
}

// PGRepository provides PostgreSQL backed persistence.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

const courseColumns = `id, code, title, description, instructor_id, term, capacity, is_archived, created_at, updated_at`

// Create inserts a new course. Duplicate (code, term) pairs surface as
// shared.ErrDuplicate.
func (r *PGRepository) Create(ctx context.Context, course Course) (Course, error) {
	row := r.pool.QueryRow(ctx,
		`INSERT INTO courses (code, title, description, instructor_id, term, capacity)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING `+courseColumns,
		course.Code, course.Title, course.Description, course.InstructorID, course.Term, course.Capacity)
	created, err := scanCourse(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return Course{}, fmt.Errorf("%w: course %s already offered in %s", shared.ErrDuplicate, course.Code, course.Term)
		}
		return Course{}, err
	}
	return created, nil
}

// GetByID fetches one course.
func (r *PGRepository) GetByID(ctx context.Context, id int64) (Course, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+courseColumns+` FROM courses WHERE id=$1`, id)
	course, err := scanCourse(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Course{}, shared.ErrNotFound
		}
		return Course{}, err
	}
	return course, nil
}

// List returns a filtered page of courses plus the unpaged total.
func (r *PGRepository) List(ctx context.Context, req ListCoursesRequest) ([]Course, int, error) {
	where := []string{"TRUE"}
	args := []any{}
	if req.InstructorID != nil {
		args = append(args, *req.InstructorID)
		where = append(where, fmt.Sprintf("instructor_id=$%d", len(args)))
	}
	if req.Term != "" {
		args = append(args, req.Term)
		where = append(where, fmt.Sprintf("term=$%d", len(args)))
	}
	if req.Archived != nil {
		args = append(args, *req.Archived)
		where = append(where, fmt.Sprintf("is_archived=$%d", len(args)))
	}
	if req.Search != "" {
		args = append(args, "%"+strings.ToLower(req.Search)+"%")
		where = append(where, fmt.Sprintf("(LOWER(title) LIKE $%d OR LOWER(code) LIKE $%d)", len(args), len(args)))
	}
	clause := strings.Join(where, " AND ")

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM courses WHERE `+clause, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	page := shared.NewPagination(req.Page, req.PerPage, total)
	args = append(args, page.PerPage, page.Offset())
	rows, err := r.pool.Query(ctx,
		`SELECT `+courseColumns+` FROM courses WHERE `+clause+
			fmt.Sprintf(` ORDER BY code, term LIMIT $%d OFFSET $%d`, len(args)-1, len(args)),
		args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var courses []Course
	for rows.Next() {
		course, err := scanCourse(rows)
		if err != nil {
			return nil, 0, err
		}
		courses = append(courses, course)
	}
	return courses, total, rows.Err()
}

// Update persists editable fields.
func (r *PGRepository) Update(ctx context.Context, course Course) (Course, error) {
	row := r.pool.QueryRow(ctx,
		`UPDATE courses SET title=$2, description=$3, term=$4, capacity=$5, updated_at=NOW()
		 WHERE id=$1 RETURNING `+courseColumns,
		course.ID, course.Title, course.Description, course.Term, course.Capacity)
	updated, err := scanCourse(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Course{}, shared.ErrNotFound
		}
		return Course{}, err
	}
	return updated, nil
}

// SetArchived flips the archive flag.
func (r *PGRepository) SetArchived(ctx context.Context, id int64, archived bool) error {
	tag, err := r.pool.Exec(ctx, `UPDATE courses SET is_archived=$2, updated_at=NOW() WHERE id=$1`, id, archived)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Delete removes the course.
func (r *PGRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM courses WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// ActiveEnrollmentCount counts active enrollments for the course.
func (r *PGRepository) ActiveEnrollmentCount(ctx context.Context, id int64) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM enrollments WHERE course_id=$1 AND status='active'`, id).Scan(&count)
	return count, err
}

func scanCourse(row pgx.Row) (Course, error) {
	var c Course
	err := row.Scan(&c.ID, &c.Code, &c.Title, &c.Description, &c.InstructorID, &c.Term, &c.Capacity, &c.IsArchived, &c.CreatedAt, &c.UpdatedAt)
	return c, err
}

var _ Repository = (*PGRepository)(nil)
