package authz

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/campuscore/campuscore/internal/shared"
)

// Kind tags the resource types the resolver understands.
type Kind string

const (
	KindCourse     Kind = "course"
	KindEnrollment Kind = "enrollment"
	KindAssignment Kind = "assignment"
	KindSubmission Kind = "submission"
	KindNotice     Kind = "notice"
	KindEvent      Kind = "event"
	KindBlog       Kind = "blog"
)

// Resolver fetches the minimal ownership projection for a resource. It never
// loads full rows, so authorization cost stays independent of resource size.
type Resolver struct {
	pool *pgxpool.Pool
}

// NewResolver constructs a Resolver backed by the given pool.
func NewResolver(pool *pgxpool.Pool) *Resolver {
	return &Resolver{pool: pool}
}

// Resolve returns the ownership reference for the resource, or
// shared.ErrNotFound when the id does not exist.
func (r *Resolver) Resolve(ctx context.Context, kind Kind, id int64) (ResourceRef, error) {
	ref := ResourceRef{ID: id}
	var err error
	switch kind {
	case KindCourse:
		err = r.pool.QueryRow(ctx, `SELECT instructor_id FROM courses WHERE id=$1`, id).Scan(&ref.OwnerID)
		if err == nil {
			ref.MemberIDs, err = r.enrolledStudents(ctx, id)
		}
	case KindEnrollment:
		// The enrolled student owns the record; the course instructor may see it.
		var instructorID int64
		err = r.pool.QueryRow(ctx,
			`SELECT e.student_id, c.instructor_id FROM enrollments e JOIN courses c ON c.id=e.course_id WHERE e.id=$1`,
			id).Scan(&ref.OwnerID, &instructorID)
		ref.MemberIDs = []int64{instructorID}
	case KindAssignment:
		err = r.pool.QueryRow(ctx, `SELECT c.instructor_id FROM assignments a JOIN courses c ON c.id=a.course_id WHERE a.id=$1`, id).Scan(&ref.OwnerID)
	case KindSubmission:
		// The submitting student owns it; the course instructor may grade it.
		var instructorID int64
		err = r.pool.QueryRow(ctx,
			`SELECT s.student_id, c.instructor_id FROM submissions s JOIN assignments a ON a.id=s.assignment_id JOIN courses c ON c.id=a.course_id WHERE s.id=$1`,
			id).Scan(&ref.OwnerID, &instructorID)
		ref.MemberIDs = []int64{instructorID}
	case KindNotice:
		err = r.pool.QueryRow(ctx, `SELECT author_id FROM notices WHERE id=$1`, id).Scan(&ref.OwnerID)
	case KindEvent:
		err = r.pool.QueryRow(ctx, `SELECT organizer_id FROM events WHERE id=$1`, id).Scan(&ref.OwnerID)
	case KindBlog:
		err = r.pool.QueryRow(ctx, `SELECT author_id FROM blogs WHERE id=$1`, id).Scan(&ref.OwnerID)
	default:
		return ResourceRef{}, fmt.Errorf("authz: unknown resource kind %q", kind)
	}
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ResourceRef{}, shared.ErrNotFound
		}
		return ResourceRef{}, err
	}
	return ref, nil
}

func (r *Resolver) enrolledStudents(ctx context.Context, courseID int64) ([]int64, error) {
	rows, err := r.pool.Query(ctx, `SELECT student_id FROM enrollments WHERE course_id=$1 AND status='active'`, courseID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
