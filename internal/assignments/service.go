package assignments

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/campuscore/campuscore/internal/bulk"
	"github.com/campuscore/campuscore/internal/shared"
)

// BulkOps enumerates the bulk operations the assignments resource accepts.
var BulkOps = map[string]bulk.OpSpec{
	"publish": {},
	"close":   {},
	"delete":  {},
}

// Service handles assignment, submission and grading business logic.
type Service struct {
	repo   Repository
	audit  *shared.AuditLogger
	logger *slog.Logger
	now    func() time.Time
}

// NewService builds Service instance.
func NewService(repo Repository, audit *shared.AuditLogger, logger *slog.Logger) *Service {
	return &Service{repo: repo, audit: audit, logger: logger, now: time.Now}
}

// CreateAssignment creates a draft assignment under the course. Faculty may
// only create under courses they teach; admins under any.
func (s *Service) CreateAssignment(ctx context.Context, actor *shared.Principal, req CreateAssignmentRequest) (Assignment, error) {
	instructorID, err := s.repo.CourseInstructor(ctx, req.CourseID)
	if err != nil {
		return Assignment{}, err
	}
	if actor != nil && actor.Role == shared.RoleFaculty && actor.ID != instructorID {
		return Assignment{}, shared.ErrForbidden
	}
	return s.repo.Create(ctx, Assignment{
		CourseID:    req.CourseID,
		Title:       req.Title,
		Description: req.Description,
		DueAt:       req.DueAt,
		MaxScore:    req.MaxScore,
		Status:      StatusDraft,
	})
}

// GetAssignment returns one assignment.
func (s *Service) GetAssignment(ctx context.Context, id int64) (Assignment, error) {
	return s.repo.GetByID(ctx, id)
}

// ListAssignments returns a filtered page of assignments. Students only see
// published and closed work; drafts stay with their authors.
func (s *Service) ListAssignments(ctx context.Context, actor *shared.Principal, req ListAssignmentsRequest) ([]Assignment, shared.Pagination, error) {
	if actor != nil && actor.Role == shared.RoleStudent && req.Status == nil {
		published := StatusPublished
		req.Status = &published
	}
	if actor != nil && actor.Role == shared.RoleStudent && req.Status != nil && *req.Status == StatusDraft {
		return nil, shared.Pagination{}, shared.ErrForbidden
	}
	out, total, err := s.repo.List(ctx, req)
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	return out, shared.NewPagination(req.Page, req.PerPage, total), nil
}

// UpdateAssignment persists editable fields. Closed assignments are frozen.
func (s *Service) UpdateAssignment(ctx context.Context, id int64, req UpdateAssignmentRequest) (Assignment, error) {
	current, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return Assignment{}, err
	}
	if current.Status == StatusClosed {
		return Assignment{}, fmt.Errorf("%w: cannot edit a closed assignment", shared.ErrBusinessRule)
	}
	current.Title = req.Title
	current.Description = req.Description
	current.DueAt = req.DueAt
	current.MaxScore = req.MaxScore
	return s.repo.Update(ctx, current)
}

// Publish opens a draft for submissions. Publishing again is a no-op; a
// closed assignment stays closed.
func (s *Service) Publish(ctx context.Context, id int64) error {
	current, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	switch current.Status {
	case StatusPublished:
		return nil
	case StatusClosed:
		return fmt.Errorf("%w: closed assignment cannot be republished", shared.ErrBusinessRule)
	}
	return s.repo.SetStatus(ctx, id, StatusPublished)
}

// Close stops accepting submissions. Closing again is a no-op; a draft has
// nothing to close.
func (s *Service) Close(ctx context.Context, id int64) error {
	current, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	switch current.Status {
	case StatusClosed:
		return nil
	case StatusDraft:
		return fmt.Errorf("%w: draft assignment cannot be closed", shared.ErrBusinessRule)
	}
	return s.repo.SetStatus(ctx, id, StatusClosed)
}

// DeleteAssignment removes an assignment that was never published or has
// been closed. Live published work cannot be deleted.
func (s *Service) DeleteAssignment(ctx context.Context, id int64) error {
	current, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if current.Status == StatusPublished {
		return fmt.Errorf("%w: cannot delete a published assignment", shared.ErrBusinessRule)
	}
	return s.repo.Delete(ctx, id)
}

// Bulk applies one lifecycle operation across a batch of assignments.
// Faculty only reach assignments under courses they teach; a foreign item
// fails in place without aborting the rest of the batch.
func (s *Service) Bulk(ctx context.Context, actor *shared.Principal, req bulk.Request) (bulk.Result, error) {
	if actor == nil {
		return bulk.Result{}, shared.ErrNoAuth
	}
	if err := bulk.Validate(req, BulkOps); err != nil {
		return bulk.Result{}, err
	}
	batchID := uuid.New()
	result := bulk.Run(ctx, req, func(ctx context.Context, id int64) error {
		err := s.bulkAuthorize(ctx, actor, id)
		if err == nil {
			switch req.Op {
			case "publish":
				err = s.Publish(ctx, id)
			case "close":
				err = s.Close(ctx, id)
			case "delete":
				err = s.DeleteAssignment(ctx, id)
			}
		}
		if errors.Is(err, shared.ErrNotFound) {
			return fmt.Errorf("%w: target assignment not found", shared.ErrNotFound)
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

// Submit records a student submission. Only actively enrolled students may
// submit, and only while the assignment is published. Resubmitting replaces
// the earlier answer and clears its grade.
func (s *Service) Submit(ctx context.Context, actor *shared.Principal, assignmentID int64, req SubmitRequest) (Submission, error) {
	if actor == nil {
		return Submission{}, shared.ErrNoAuth
	}
	assignment, err := s.repo.GetByID(ctx, assignmentID)
	if err != nil {
		return Submission{}, err
	}
	switch assignment.Status {
	case StatusDraft:
		return Submission{}, fmt.Errorf("%w: assignment is not open for submissions", shared.ErrBusinessRule)
	case StatusClosed:
		return Submission{}, fmt.Errorf("%w: assignment is closed", shared.ErrBusinessRule)
	}
	enrolled, err := s.repo.HasActiveEnrollment(ctx, assignment.CourseID, actor.ID)
	if err != nil {
		return Submission{}, err
	}
	if !enrolled {
		return Submission{}, fmt.Errorf("%w: only enrolled students may submit", shared.ErrBusinessRule)
	}
	return s.repo.UpsertSubmission(ctx, Submission{
		AssignmentID: assignmentID,
		StudentID:    actor.ID,
		Content:      req.Content,
		IsLate:       s.now().After(assignment.DueAt),
	})
}

// GetSubmission returns one submission.
func (s *Service) GetSubmission(ctx context.Context, id int64) (Submission, error) {
	return s.repo.GetSubmission(ctx, id)
}

// ListSubmissions returns every submission for the assignment.
func (s *Service) ListSubmissions(ctx context.Context, assignmentID int64) ([]Submission, error) {
	if _, err := s.repo.GetByID(ctx, assignmentID); err != nil {
		return nil, err
	}
	return s.repo.ListSubmissions(ctx, assignmentID)
}

// Grade records a score on the submission and derives the letter grade from
// it against the assignment's maximum.
func (s *Service) Grade(ctx context.Context, actor *shared.Principal, submissionID int64, req GradeRequest) (Submission, error) {
	if actor == nil {
		return Submission{}, shared.ErrNoAuth
	}
	submission, err := s.repo.GetSubmission(ctx, submissionID)
	if err != nil {
		return Submission{}, err
	}
	assignment, err := s.repo.GetByID(ctx, submission.AssignmentID)
	if err != nil {
		return Submission{}, err
	}
	if req.Score < 0 || req.Score > assignment.MaxScore {
		return Submission{}, fmt.Errorf("%w: score must be between 0 and %d", shared.ErrValidation, assignment.MaxScore)
	}
	letter := LetterGrade(req.Score, assignment.MaxScore)
	gradedAt := s.now()
	if err := s.repo.SetGrade(ctx, submissionID, req.Score, letter, actor.ID, gradedAt); err != nil {
		return Submission{}, err
	}
	submission.Score = &req.Score
	submission.LetterGrade = &letter
	submission.GradedBy = &actor.ID
	submission.GradedAt = &gradedAt
	return submission, nil
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
			Action:   "assignments.bulk." + op,
			Entity:   "assignment",
			EntityID: fmt.Sprintf("%d", id),
			BatchID:  batchID,
		}
		if err := s.audit.Record(ctx, entry); err != nil && s.logger != nil {
			s.logger.Warn("record bulk audit", slog.Any("error", err))
		}
	}
}
