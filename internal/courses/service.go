package courses

import (
	"context"
	"fmt"

	"github.com/campuscore/campuscore/internal/shared"
)

// Service handles course business logic.
type Service struct {
	repo Repository
}

// NewService builds Service instance.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// CreateCourse opens a new course. Faculty always become the instructor of
// courses they create; admins may assign any instructor.
func (s *Service) CreateCourse(ctx context.Context, actor *shared.Principal, req CreateCourseRequest) (Course, error) {
	instructorID := req.InstructorID
	if actor != nil && actor.Role == shared.RoleFaculty {
		instructorID = actor.ID
	}
	if instructorID == 0 {
		return Course{}, fmt.Errorf("%w: instructor_id required", shared.ErrValidation)
	}
	return s.repo.Create(ctx, Course{
		Code:         req.Code,
		Title:        req.Title,
		Description:  req.Description,
		InstructorID: instructorID,
		Term:         req.Term,
		Capacity:     req.Capacity,
	})
}

// GetCourse returns one course.
func (s *Service) GetCourse(ctx context.Context, id int64) (Course, error) {
	return s.repo.GetByID(ctx, id)
}

// ListCourses returns a filtered page of courses.
func (s *Service) ListCourses(ctx context.Context, req ListCoursesRequest) ([]Course, shared.Pagination, error) {
	courses, total, err := s.repo.List(ctx, req)
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	return courses, shared.NewPagination(req.Page, req.PerPage, total), nil
}

// UpdateCourse persists editable fields. Archived courses are frozen.
func (s *Service) UpdateCourse(ctx context.Context, id int64, req UpdateCourseRequest) (Course, error) {
	current, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return Course{}, err
	}
	if current.IsArchived {
		return Course{}, fmt.Errorf("%w: cannot edit an archived course", shared.ErrBusinessRule)
	}
	current.Title = req.Title
	current.Description = req.Description
	current.Term = req.Term
	current.Capacity = req.Capacity
	return s.repo.Update(ctx, current)
}

// ArchiveCourse freezes the course.
func (s *Service) ArchiveCourse(ctx context.Context, id int64) error {
	return s.repo.SetArchived(ctx, id, true)
}

// DeleteCourse removes a course with no active enrollments.
func (s *Service) DeleteCourse(ctx context.Context, id int64) error {
	count, err := s.repo.ActiveEnrollmentCount(ctx, id)
	if err != nil {
		return err
	}
	if count > 0 {
		return fmt.Errorf("%w: cannot delete a course with active enrollments", shared.ErrBusinessRule)
	}
	return s.repo.Delete(ctx, id)
}
