package enrollments

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/campuscore/campuscore/internal/platform/db"
	"github.com/campuscore/campuscore/internal/shared"
)

// Repository defines persistence operations for enrollments.
type Repository interface {
	Create(ctx context.Context, enrollment Enrollment) (Enrollment, error)
	GetByID(ctx context.Context, id int64) (Enrollment, error)
	List(ctx context.Context, req ListEnrollmentsRequest) ([]Enrollment, int, error)
	SetStatus(ctx context.Context, id int64, status Status) error
	CourseSeat(ctx context.Context, courseID int64) (Seat, error)
	CourseInstructor(ctx context.Context, courseID int64) (int64, error)
}

// PGRepository provides PostgreSQL backed persistence.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

const enrollmentColumns = `id, student_id, course_id, status, enrolled_at, updated_at`

// Create inserts a new enrollment. The course row is locked and the seat
// count re-verified inside the transaction, so two concurrent enrollments
// cannot both claim the last seat. A second enrollment for the same
// (student, course) pair surfaces as shared.ErrDuplicate.
func (r *PGRepository) Create(ctx context.Context, enrollment Enrollment) (Enrollment, error) {
	var created Enrollment
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		var capacity int
		var archived bool
		err := tx.QueryRow(ctx,
			`SELECT capacity, is_archived FROM courses WHERE id=$1 FOR UPDATE`,
			enrollment.CourseID).Scan(&capacity, &archived)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return fmt.Errorf("%w: course not found", shared.ErrNotFound)
			}
			return err
		}
		if archived {
			return fmt.Errorf("%w: cannot enroll in an archived course", shared.ErrBusinessRule)
		}
		if capacity > 0 {
			var active int
			err := tx.QueryRow(ctx,
				`SELECT COUNT(*) FROM enrollments WHERE course_id=$1 AND status='active'`,
				enrollment.CourseID).Scan(&active)
			if err != nil {
				return err
			}
			if active >= capacity {
				return fmt.Errorf("%w: course is full", shared.ErrBusinessRule)
			}
		}
		row := tx.QueryRow(ctx,
			`INSERT INTO enrollments (student_id, course_id, status)
			 VALUES ($1, $2, $3)
			 RETURNING `+enrollmentColumns,
			enrollment.StudentID, enrollment.CourseID, enrollment.Status)
		created, err = scanEnrollment(row)
		if err != nil {
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == "23505" {
				return fmt.Errorf("%w: student already enrolled in this course", shared.ErrDuplicate)
			}
			return err
		}
		return nil
	})
	if err != nil {
		return Enrollment{}, err
	}
	return created, nil
}

// GetByID fetches one enrollment.
func (r *PGRepository) GetByID(ctx context.Context, id int64) (Enrollment, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+enrollmentColumns+` FROM enrollments WHERE id=$1`, id)
	enrollment, err := scanEnrollment(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Enrollment{}, shared.ErrNotFound
		}
		return Enrollment{}, err
	}
	return enrollment, nil
}

// List returns a filtered page of enrollments plus the unpaged total. The
// instructor filter joins through courses so faculty listings stay scoped to
// their own teaching.
func (r *PGRepository) List(ctx context.Context, req ListEnrollmentsRequest) ([]Enrollment, int, error) {
	where := []string{"TRUE"}
	args := []any{}
	if req.StudentID != nil {
		args = append(args, *req.StudentID)
		where = append(where, fmt.Sprintf("e.student_id=$%d", len(args)))
	}
	if req.CourseID != nil {
		args = append(args, *req.CourseID)
		where = append(where, fmt.Sprintf("e.course_id=$%d", len(args)))
	}
	if req.InstructorID != nil {
		args = append(args, *req.InstructorID)
		where = append(where, fmt.Sprintf("c.instructor_id=$%d", len(args)))
	}
	if req.Status != nil {
		args = append(args, *req.Status)
		where = append(where, fmt.Sprintf("e.status=$%d", len(args)))
	}
	clause := strings.Join(where, " AND ")
	from := `FROM enrollments e JOIN courses c ON c.id=e.course_id`

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) `+from+` WHERE `+clause, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	page := shared.NewPagination(req.Page, req.PerPage, total)
	args = append(args, page.PerPage, page.Offset())
	rows, err := r.pool.Query(ctx,
		`SELECT e.id, e.student_id, e.course_id, e.status, e.enrolled_at, e.updated_at `+from+
			` WHERE `+clause+
			fmt.Sprintf(` ORDER BY e.enrolled_at DESC, e.id LIMIT $%d OFFSET $%d`, len(args)-1, len(args)),
		args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []Enrollment
	for rows.Next() {
		enrollment, err := scanEnrollment(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, enrollment)
	}
	return out, total, rows.Err()
}

// SetStatus updates the lifecycle state.
func (r *PGRepository) SetStatus(ctx context.Context, id int64, status Status) error {
	tag, err := r.pool.Exec(ctx, `UPDATE enrollments SET status=$2, updated_at=NOW() WHERE id=$1`, id, status)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// CourseSeat reports the capacity situation of the course.
func (r *PGRepository) CourseSeat(ctx context.Context, courseID int64) (Seat, error) {
	var seat Seat
	err := r.pool.QueryRow(ctx,
		`SELECT c.capacity, c.is_archived,
		        (SELECT COUNT(*) FROM enrollments e WHERE e.course_id=c.id AND e.status='active')
		 FROM courses c WHERE c.id=$1`,
		courseID).Scan(&seat.Capacity, &seat.IsArchived, &seat.ActiveCount)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Seat{}, fmt.Errorf("%w: course not found", shared.ErrNotFound)
		}
		return Seat{}, err
	}
	return seat, nil
}

// CourseInstructor returns the instructor teaching the course.
func (r *PGRepository) CourseInstructor(ctx context.Context, courseID int64) (int64, error) {
	var instructorID int64
	err := r.pool.QueryRow(ctx, `SELECT instructor_id FROM courses WHERE id=$1`, courseID).Scan(&instructorID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, fmt.Errorf("%w: course not found", shared.ErrNotFound)
		}
		return 0, err
	}
	return instructorID, nil
}

func scanEnrollment(row pgx.Row) (Enrollment, error) {
	var e Enrollment
	err := row.Scan(&e.ID, &e.StudentID, &e.CourseID, &e.Status, &e.EnrolledAt, &e.UpdatedAt)
	return e, err
}

var _ Repository = (*PGRepository)(nil)
