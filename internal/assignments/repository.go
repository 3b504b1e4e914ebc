package assignments

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

// Repository defines persistence operations for assignments, submissions
// and grades.
type Repository interface {
	Create(ctx context.Context, assignment Assignment) (Assignment, error)
	GetByID(ctx context.Context, id int64) (Assignment, error)
	List(ctx context.Context, req ListAssignmentsRequest) ([]Assignment, int, error)
	Update(ctx context.Context, assignment Assignment) (Assignment, error)
	SetStatus(ctx context.Context, id int64, status Status) error
	Delete(ctx context.Context, id int64) error
	CourseInstructor(ctx context.Context, courseID int64) (int64, error)
	HasActiveEnrollment(ctx context.Context, courseID, studentID int64) (bool, error)

	UpsertSubmission(ctx context.Context, submission Submission) (Submission, error)
	GetSubmission(ctx context.Context, id int64) (Submission, error)
	ListSubmissions(ctx context.Context, assignmentID int64) ([]Submission, error)
	SetGrade(ctx context.Context, submissionID int64, score int, letter string, gradedBy int64, gradedAt time.Time) error
}

// PGRepository provides PostgreSQL backed persistence.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

const assignmentColumns = `id, course_id, title, description, due_at, max_score, status, created_at, updated_at`

const submissionColumns = `id, assignment_id, student_id, content, is_late, submitted_at, updated_at, score, letter_grade, graded_by, graded_at`

// Create inserts a new draft assignment.
func (r *PGRepository) Create(ctx context.Context, assignment Assignment) (Assignment, error) {
	row := r.pool.QueryRow(ctx,
		`INSERT INTO assignments (course_id, title, description, due_at, max_score, status)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING `+assignmentColumns,
		assignment.CourseID, assignment.Title, assignment.Description, assignment.DueAt, assignment.MaxScore, assignment.Status)
	return scanAssignment(row)
}

// GetByID fetches one assignment.
func (r *PGRepository) GetByID(ctx context.Context, id int64) (Assignment, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+assignmentColumns+` FROM assignments WHERE id=$1`, id)
	assignment, err := scanAssignment(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Assignment{}, shared.ErrNotFound
		}
		return Assignment{}, err
	}
	return assignment, nil
}

// List returns a filtered page of assignments plus the unpaged total.
func (r *PGRepository) List(ctx context.Context, req ListAssignmentsRequest) ([]Assignment, int, error) {
	where := []string{"TRUE"}
	args := []any{}
	if req.CourseID != nil {
		args = append(args, *req.CourseID)
		where = append(where, fmt.Sprintf("course_id=$%d", len(args)))
	}
	if req.Status != nil {
		args = append(args, *req.Status)
		where = append(where, fmt.Sprintf("status=$%d", len(args)))
	}
	clause := strings.Join(where, " AND ")

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM assignments WHERE `+clause, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	page := shared.NewPagination(req.Page, req.PerPage, total)
	args = append(args, page.PerPage, page.Offset())
	rows, err := r.pool.Query(ctx,
		`SELECT `+assignmentColumns+` FROM assignments WHERE `+clause+
			fmt.Sprintf(` ORDER BY due_at, id LIMIT $%d OFFSET $%d`, len(args)-1, len(args)),
		args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []Assignment
	for rows.Next() {
		assignment, err := scanAssignment(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, assignment)
	}
	return out, total, rows.Err()
}

// Update persists editable fields.
func (r *PGRepository) Update(ctx context.Context, assignment Assignment) (Assignment, error) {
	row := r.pool.QueryRow(ctx,
		`UPDATE assignments SET title=$2, description=$3, due_at=$4, max_score=$5, updated_at=NOW()
		 WHERE id=$1 RETURNING `+assignmentColumns,
		assignment.ID, assignment.Title, assignment.Description, assignment.DueAt, assignment.MaxScore)
	updated, err := scanAssignment(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Assignment{}, shared.ErrNotFound
		}
		return Assignment{}, err
	}
	return updated, nil
}

// SetStatus moves the assignment through its lifecycle.
func (r *PGRepository) SetStatus(ctx context.Context, id int64, status Status) error {
	tag, err := r.pool.Exec(ctx, `UPDATE assignments SET status=$2, updated_at=NOW() WHERE id=$1`, id, status)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Delete removes the assignment and its submissions.
func (r *PGRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM assignments WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// CourseInstructor returns the instructor of the course.
func (r *PGRepository) CourseInstructor(ctx context.Context, courseID int64) (int64, error) {
	var instructorID int64
	err := r.pool.QueryRow(ctx, `SELECT instructor_id FROM courses WHERE id=$1`, courseID).Scan(&instructorID)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, fmt.Errorf("%w: course not found", shared.ErrNotFound)
	}
	return instructorID, err
}

// HasActiveEnrollment reports whether the student is actively enrolled.
func (r *PGRepository) HasActiveEnrollment(ctx context.Context, courseID, studentID int64) (bool, error) {
	var enrolled bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM enrollments WHERE course_id=$1 AND student_id=$2 AND status='active')`,
		courseID, studentID).Scan(&enrolled)
	return enrolled, err
}

// UpsertSubmission inserts the submission or, when the student already
// submitted, replaces its content. A resubmission clears any earlier grade.
func (r *PGRepository) UpsertSubmission(ctx context.Context, submission Submission) (Submission, error) {
	row := r.pool.QueryRow(ctx,
		`INSERT INTO submissions (assignment_id, student_id, content, is_late)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (assignment_id, student_id) DO UPDATE
		 SET content=EXCLUDED.content, is_late=EXCLUDED.is_late, updated_at=NOW(),
		     score=NULL, letter_grade=NULL, graded_by=NULL, graded_at=NULL
		 RETURNING `+submissionColumns,
		submission.AssignmentID, submission.StudentID, submission.Content, submission.IsLate)
	return scanSubmission(row)
}

// GetSubmission fetches one submission.
func (r *PGRepository) GetSubmission(ctx context.Context, id int64) (Submission, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+submissionColumns+` FROM submissions WHERE id=$1`, id)
	submission, err := scanSubmission(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Submission{}, shared.ErrNotFound
		}
		return Submission{}, err
	}
	return submission, nil
}

// ListSubmissions returns every submission for the assignment.
func (r *PGRepository) ListSubmissions(ctx context.Context, assignmentID int64) ([]Submission, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+submissionColumns+` FROM submissions WHERE assignment_id=$1 ORDER BY submitted_at`,
		assignmentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Submission
	for rows.Next() {
		submission, err := scanSubmission(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, submission)
	}
	return out, rows.Err()
}

// SetGrade records the grade on the submission.
func (r *PGRepository) SetGrade(ctx context.Context, submissionID int64, score int, letter string, gradedBy int64, gradedAt time.Time) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE submissions SET score=$2, letter_grade=$3, graded_by=$4, graded_at=$5, updated_at=NOW() WHERE id=$1`,
		submissionID, score, letter, gradedBy, gradedAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func scanAssignment(row pgx.Row) (Assignment, error) {
	var a Assignment
	err := row.Scan(&a.ID, &a.CourseID, &a.Title, &a.Description, &a.DueAt, &a.MaxScore, &a.Status, &a.CreatedAt, &a.UpdatedAt)
	return a, err
}

func scanSubmission(row pgx.Row) (Submission, error) {
	var s Submission
	err := row.Scan(&s.ID, &s.AssignmentID, &s.StudentID, &s.Content, &s.IsLate, &s.SubmittedAt, &s.UpdatedAt,
		&s.Score, &s.LetterGrade, &s.GradedBy, &s.GradedAt)
	return s, err
}

var _ Repository = (*PGRepository)(nil)
