package notices

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

// BulkOps enumerates the bulk operations the notices resource accepts.
var BulkOps = map[string]bulk.OpSpec{
	"publish": {},
	"archive": {},
	"delete":  {},
}

// Broadcaster fans a published notice out to its audience. Nil disables
// broadcasting.
type Broadcaster interface {
	EnqueueBroadcast(ctx context.Context, notice Notice) error
}

// Service handles notice business logic.
type Service struct {
	repo        Repository
	audit       *shared.AuditLogger
	broadcaster Broadcaster
	logger      *slog.Logger
	now         func() time.Time
}

// NewService builds Service instance.
func NewService(repo Repository, audit *shared.AuditLogger, broadcaster Broadcaster, logger *slog.Logger) *Service {
	return &Service{repo: repo, audit: audit, broadcaster: broadcaster, logger: logger, now: time.Now}
}

// CreateNotice drafts a notice authored by the actor.
func (s *Service) CreateNotice(ctx context.Context, actor *shared.Principal, req CreateNoticeRequest) (Notice, error) {
	if !req.Audience.Valid() {
		return Notice{}, fmt.Errorf("%w: unknown audience %q", shared.ErrValidation, req.Audience)
	}
	if actor == nil {
		return Notice{}, shared.ErrNoAuth
	}
	return s.repo.Create(ctx, Notice{
		Title:    req.Title,
		Body:     req.Body,
		Audience: req.Audience,
		Status:   StatusDraft,
		AuthorID: actor.ID,
	})
}

// GetNotice returns one notice. Students and faculty only see published
// notices aimed at them; authors and admins see everything.
func (s *Service) GetNotice(ctx context.Context, actor *shared.Principal, id int64) (Notice, error) {
	notice, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return Notice{}, err
	}
	if !visibleTo(actor, notice) {
		return Notice{}, shared.ErrNotFound
	}
	return notice, nil
}

// ListNotices returns a filtered page of notices scoped to the actor's
// audience.
func (s *Service) ListNotices(ctx context.Context, actor *shared.Principal, req ListNoticesRequest) ([]Notice, shared.Pagination, error) {
	if actor != nil && !actor.IsAdmin() {
		published := StatusPublished
		req.Status = &published
		switch actor.Role {
		case shared.RoleFaculty:
			req.Audiences = []Audience{AudienceAll, AudienceFaculty}
		case shared.RoleStudent:
			req.Audiences = []Audience{AudienceAll, AudienceStudents}
		}
	}
	out, total, err := s.repo.List(ctx, req)
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	return out, shared.NewPagination(req.Page, req.PerPage, total), nil
}

// UpdateNotice persists editable fields. Archived notices are frozen.
func (s *Service) UpdateNotice(ctx context.Context, id int64, req UpdateNoticeRequest) (Notice, error) {
	if !req.Audience.Valid() {
		return Notice{}, fmt.Errorf("%w: unknown audience %q", shared.ErrValidation, req.Audience)
	}
	current, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return Notice{}, err
	}
	if current.Status == StatusArchived {
		return Notice{}, fmt.Errorf("%w: cannot edit an archived notice", shared.ErrBusinessRule)
	}
	current.Title = req.Title
	current.Body = req.Body
	current.Audience = req.Audience
	return s.repo.Update(ctx, current)
}

// Publish makes the notice visible to its audience and fans it out.
// Publishing again is a no-op; archived notices stay archived.
func (s *Service) Publish(ctx context.Context, id int64) error {
	current, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	switch current.Status {
	case StatusPublished:
		return nil
	case StatusArchived:
		return fmt.Errorf("%w: archived notice cannot be republished", shared.ErrBusinessRule)
	}
	publishedAt := s.now()
	if err := s.repo.SetStatus(ctx, id, StatusPublished, &publishedAt); err != nil {
		return err
	}
	if s.broadcaster != nil {
		current.Status = StatusPublished
		current.PublishedAt = &publishedAt
		if err := s.broadcaster.EnqueueBroadcast(ctx, current); err != nil && s.logger != nil {
			s.logger.Warn("enqueue notice broadcast", slog.Any("error", err))
		}
	}
	return nil
}

// Archive retires the notice. Archiving again is a no-op.
func (s *Service) Archive(ctx context.Context, id int64) error {
	current, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if current.Status == StatusArchived {
		return nil
	}
	return s.repo.SetStatus(ctx, id, StatusArchived, nil)
}

// DeleteNotice removes a notice that is not currently published.
func (s *Service) DeleteNotice(ctx context.Context, id int64) error {
	current, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if current.Status == StatusPublished {
		return fmt.Errorf("%w: cannot delete a published notice", shared.ErrBusinessRule)
	}
	return s.repo.Delete(ctx, id)
}

// Bulk applies one lifecycle operation across a batch of notices. Non-admin
// actors only reach notices they authored; a foreign item fails in place
// without aborting the rest of the batch.
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
			case "archive":
				err = s.Archive(ctx, id)
			case "delete":
				err = s.DeleteNotice(ctx, id)
			}
		}
		if errors.Is(err, shared.ErrNotFound) {
			return fmt.Errorf("%w: target notice not found", shared.ErrNotFound)
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
	if current.AuthorID != actor.ID {
		return fmt.Errorf("%w: not the author of this notice", shared.ErrForbidden)
	}
	return nil
}

func visibleTo(actor *shared.Principal, notice Notice) bool {
	if actor == nil {
		return false
	}
	if actor.IsAdmin() || actor.ID == notice.AuthorID {
		return true
	}
	if notice.Status != StatusPublished {
		return false
	}
	switch notice.Audience {
	case AudienceAll:
		return true
	case AudienceFaculty:
		return actor.Role == shared.RoleFaculty
	case AudienceStudents:
		return actor.Role == shared.RoleStudent
	}
	return false
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
			Action:   "notices.bulk." + op,
			Entity:   "notice",
			EntityID: fmt.Sprintf("%d", id),
			BatchID:  batchID,
		}
		if err := s.audit.Record(ctx, entry); err != nil && s.logger != nil {
			s.logger.Warn("record bulk audit", slog.Any("error", err))
		}
	}
}
