package enrollments

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/campuscore/campuscore/internal/bulk"
	"github.com/campuscore/campuscore/internal/shared"
)

// BulkOps enumerates the bulk operations the enrollments resource accepts.
var BulkOps = map[string]bulk.OpSpec{
	"updateStatus": {PayloadKeys: []string{"status"}},
	"drop":         {},
}

// Service handles enrollment business logic.
type Service struct {
	repo   Repository
	audit  *shared.AuditLogger
	logger *slog.Logger
}

// NewService builds Service instance.
func NewService(repo Repository, audit *shared.AuditLogger, logger *slog.Logger) *Service {
	return &Service{repo: repo, audit: audit, logger: logger}
}

// Enroll registers a student on a course. Students always enroll themselves;
// admins may enroll any student. Archived and full courses reject new
// enrollments.
func (s *Service) Enroll(ctx context.Context, actor *shared.Principal, req EnrollRequest) (Enrollment, error) {
	studentID := req.StudentID
	if actor != nil && actor.Role == shared.RoleStudent {
		studentID = actor.ID
	}
	if studentID == 0 {
		return Enrollment{}, fmt.Errorf("%w: student_id required", shared.ErrValidation)
	}

	seat, err := s.repo.CourseSeat(ctx, req.CourseID)
	if err != nil {
		return Enrollment{}, err
	}
	if seat.IsArchived {
		return Enrollment{}, fmt.Errorf("%w: cannot enroll in an archived course", shared.ErrBusinessRule)
	}
	if seat.Capacity > 0 && seat.ActiveCount >= seat.Capacity {
		return Enrollment{}, fmt.Errorf("%w: course is full", shared.ErrBusinessRule)
	}

	return s.repo.Create(ctx, Enrollment{
		StudentID: studentID,
		CourseID:  req.CourseID,
		Status:    StatusActive,
	})
}

// GetEnrollment returns one enrollment.
func (s *Service) GetEnrollment(ctx context.Context, id int64) (Enrollment, error) {
	return s.repo.GetByID(ctx, id)
}

// ListEnrollments returns a filtered page of enrollments. Students are
// pinned to their own rows and faculty to their own courses regardless of
// the requested filters.
func (s *Service) ListEnrollments(ctx context.Context, actor *shared.Principal, req ListEnrollmentsRequest) ([]Enrollment, shared.Pagination, error) {
	if actor != nil {
		switch actor.Role {
		case shared.RoleStudent:
			req.StudentID = &actor.ID
		case shared.RoleFaculty:
			req.InstructorID = &actor.ID
		}
	}
	out, total, err := s.repo.List(ctx, req)
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	return out, shared.NewPagination(req.Page, req.PerPage, total), nil
}

// Drop moves an active enrollment to dropped.
func (s *Service) Drop(ctx context.Context, id int64) error {
	return s.transition(ctx, id, StatusDropped)
}

// Complete moves an active enrollment to completed.
func (s *Service) Complete(ctx context.Context, id int64) error {
	return s.transition(ctx, id, StatusCompleted)
}

// UpdateStatus sets the lifecycle state directly. Completed enrollments are
// final.
func (s *Service) UpdateStatus(ctx context.Context, id int64, status Status) error {
	if !status.Valid() {
		return fmt.Errorf("%w: unknown status %q", shared.ErrValidation, status)
	}
	current, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if current.Status == status {
		return nil
	}
	if current.Status == StatusCompleted {
		return fmt.Errorf("%w: completed enrollment cannot change status", shared.ErrBusinessRule)
	}
	return s.repo.SetStatus(ctx, id, status)
}

// Bulk applies one lifecycle operation across a batch of enrollments.
// Faculty only reach enrollments on courses they teach; a foreign item fails
// in place without aborting the rest of the batch.
func (s *Service) Bulk(ctx context.Context, actor *shared.Principal, req bulk.Request) (bulk.Result, error) {
	if actor == nil {
		return bulk.Result{}, shared.ErrNoAuth
	}
	if err := bulk.Validate(req, BulkOps); err != nil {
		return bulk.Result{}, err
	}
	if req.Op == "updateStatus" {
		if status := Status(req.Payload["status"]); !status.Valid() {
			return bulk.Result{}, fmt.Errorf("%w: unknown status %q", shared.ErrValidation, status)
		}
	}
	batchID := uuid.New()
	result := bulk.Run(ctx, req, func(ctx context.Context, id int64) error {
		err := s.bulkAuthorize(ctx, actor, id)
		if err == nil {
			switch req.Op {
			case "updateStatus":
				err = s.UpdateStatus(ctx, id, Status(req.Payload["status"]))
			case "drop":
				err = s.Drop(ctx, id)
			}
		}
		if errors.Is(err, shared.ErrNotFound) {
			return fmt.Errorf("%w: target enrollment not found", shared.ErrNotFound)
		}
		return err
	})
	s.recordBulkAudit(ctx, actor, req.Op, batchID, result)
	return result, nil
}

func (s *Service) bulkAuthorize(ctx context.Context, actor *shared.Principal, id int64) error {
	if actor.IsAdmin() {
		return nil
	}
	current, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	instructorID, err := s.repo.CourseInstructor(ctx, current.CourseID)
	if err != nil {
		return err
	}
	if instructorID != actor.ID {
		return fmt.Errorf("%w: not the instructor of this course", shared.ErrForbidden)
	}
	return nil
}

func (s *Service) transition(ctx context.Context, id int64, to Status) error {
	current, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if current.Status == to {
		return nil
	}
	if current.Status != StatusActive {
		return fmt.Errorf("%w: only active enrollments can be %s", shared.ErrBusinessRule, to)
	}
	return s.repo.SetStatus(ctx, id, to)
}

func (s *Service) recordBulkAudit(ctx context.Context, actor *shared.Principal, op string, batchID uuid.UUID, result bulk.Result) {
	if s.audit == nil {
		return
	}
	var actorID int64
	if actor != nil {
		actorID = actor.ID
	}
	for _, id := range result.Succeeded {
		entry := shared.AuditLog{
			ActorID:  actorID,
			Action:   "enrollments.bulk." + op,
			Entity:   "enrollment",
			EntityID: fmt.Sprintf("%d", id),
			BatchID:  batchID,
		}
		if err := s.audit.Record(ctx, entry); err != nil && s.logger != nil {
			s.logger.Warn("record bulk audit", slog.Any("error", err))
		}
	}
}
