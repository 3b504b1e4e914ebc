package users

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/campuscore/campuscore/internal/bulk"
	"github.com/campuscore/campuscore/internal/shared"
)

// maxEmailSuffix bounds the uniqueness-suffix search when generating
// addresses for homonymous accounts.
const maxEmailSuffix = 99

// BulkOps enumerates the bulk operations the users resource accepts.
var BulkOps = map[string]bulk.OpSpec{
	"activate":   {},
	"suspend":    {},
	"delete":     {},
	"updateRole": {PayloadKeys: []string{"role"}},
}

// Notifier enqueues user-facing notifications. Nil disables them.
type Notifier interface {
	EnqueueWelcome(ctx context.Context, user User) error
}

// Service handles user management business logic.
type Service struct {
	repo        Repository
	audit       *shared.AuditLogger
	notifier    Notifier
	logger      *slog.Logger
	emailDomain string
}

// NewService builds Service instance.
func NewService(repo Repository, audit *shared.AuditLogger, notifier Notifier, logger *slog.Logger, emailDomain string) *Service {
	if emailDomain == "" {
		emailDomain = "campus.edu"
	}
	return &Service{repo: repo, audit: audit, notifier: notifier, logger: logger, emailDomain: emailDomain}
}

// CreateUser provisions one account. The campus email is generated from the
// name; on an address collision the numeric suffix grows until a free one is
// found.
func (s *Service) CreateUser(ctx context.Context, req CreateUserRequest) (User, error) {
	if !req.Role.Valid() {
		return User{}, fmt.Errorf("%w: unknown role %q", shared.ErrValidation, req.Role)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return User{}, err
	}

	user := User{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Role:      req.Role,
		IsActive:  true,
	}
	for suffix := 0; suffix <= maxEmailSuffix; suffix++ {
		user.Email = GenerateEmail(req.FirstName, req.LastName, s.emailDomain, suffix)
		created, err := s.repo.Create(ctx, user, string(hash))
		if err != nil {
			if errors.Is(err, shared.ErrDuplicate) {
				continue
			}
			return User{}, err
		}
		if s.notifier != nil {
			if err := s.notifier.EnqueueWelcome(ctx, created); err != nil && s.logger != nil {
				s.logger.Warn("enqueue welcome email", slog.Any("error", err))
			}
		}
		return created, nil
	}
	return User{}, fmt.Errorf("%w: no free email for %s %s", shared.ErrDuplicate, req.FirstName, req.LastName)
}

// BulkCreate provisions up to bulk.MaxBatchSize accounts, each in isolation.
// A rejected row is recorded by its input position and the rest proceed.
func (s *Service) BulkCreate(ctx context.Context, reqs []CreateUserRequest) (BulkCreateResult, error) {
	if len(reqs) == 0 {
		return BulkCreateResult{}, fmt.Errorf("%w: users must not be empty", shared.ErrValidation)
	}
	if len(reqs) > bulk.MaxBatchSize {
		return BulkCreateResult{}, fmt.Errorf("%w: users exceeds the maximum of %d", shared.ErrValidation, bulk.MaxBatchSize)
	}
	result := BulkCreateResult{
		Created: make([]User, 0, len(reqs)),
		Failed:  make([]BulkCreateError, 0),
	}
	for i, req := range reqs {
		created, err := s.CreateUser(ctx, req)
		if err != nil {
			result.Failed = append(result.Failed, BulkCreateError{Index: i, Error: shared.UserSafeMessage(err)})
			continue
		}
		result.Created = append(result.Created, created)
	}
	result.Summary = BulkCreateSummary{
		Total:   len(reqs),
		Created: len(result.Created),
		Failed:  len(result.Failed),
	}
	return result, nil
}

// Bulk applies one lifecycle operation across a batch of accounts.
func (s *Service) Bulk(ctx context.Context, actor *shared.Principal, req bulk.Request) (bulk.Result, error) {
	if err := bulk.Validate(req, BulkOps); err != nil {
		return bulk.Result{}, err
	}
	batchID := uuid.New()
	result := bulk.Run(ctx, req, func(ctx context.Context, id int64) error {
		var err error
		switch req.Op {
		case "activate":
			err = s.repo.SetActive(ctx, id, true)
		case "suspend":
			err = s.suspend(ctx, actor, id)
		case "delete":
			err = s.delete(ctx, actor, id)
		case "updateRole":
			role := shared.Role(req.Payload["role"])
			if !role.Valid() {
				return fmt.Errorf("%w: unknown role %q", shared.ErrValidation, role)
			}
			err = s.repo.SetRole(ctx, id, role)
		}
		if errors.Is(err, shared.ErrNotFound) {
			return fmt.Errorf("%w: target user not found", shared.ErrNotFound)
		}
		return err
	})
	s.recordBulkAudit(ctx, actor, req.Op, batchID, result)
	return result, nil
}

// GetUser returns one account.
func (s *Service) GetUser(ctx context.Context, id int64) (User, error) {
	return s.repo.GetByID(ctx, id)
}

// ListUsers returns a filtered page of accounts.
func (s *Service) ListUsers(ctx context.Context, req ListUsersRequest) ([]User, shared.Pagination, error) {
	users, total, err := s.repo.List(ctx, req)
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	return users, shared.NewPagination(req.Page, req.PerPage, total), nil
}

// Suspend deactivates one account, honouring the self-protection rule.
func (s *Service) Suspend(ctx context.Context, actor *shared.Principal, id int64) error {
	return s.suspend(ctx, actor, id)
}

// Activate reactivates one account.
func (s *Service) Activate(ctx context.Context, id int64) error {
	return s.repo.SetActive(ctx, id, true)
}

// Delete removes one account, honouring the self-protection rule.
func (s *Service) Delete(ctx context.Context, actor *shared.Principal, id int64) error {
	return s.delete(ctx, actor, id)
}

// UpdateRole reassigns a role.
func (s *Service) UpdateRole(ctx context.Context, id int64, role shared.Role) error {
	if !role.Valid() {
		return fmt.Errorf("%w: unknown role %q", shared.ErrValidation, role)
	}
	return s.repo.SetRole(ctx, id, role)
}

func (s *Service) suspend(ctx context.Context, actor *shared.Principal, id int64) error {
	if actor != nil && actor.ID == id {
		return fmt.Errorf("%w: admin cannot deactivate their own account", shared.ErrBusinessRule)
	}
	return s.repo.SetActive(ctx, id, false)
}

func (s *Service) delete(ctx context.Context, actor *shared.Principal, id int64) error {
	if actor != nil && actor.ID == id {
		return fmt.Errorf("%w: admin cannot delete their own account", shared.ErrBusinessRule)
	}
	return s.repo.Delete(ctx, id)
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
			Action:   "users.bulk." + op,
			Entity:   "user",
			EntityID: fmt.Sprintf("%d", id),
			BatchID:  batchID,
		}
		if err := s.audit.Record(ctx, entry); err != nil && s.logger != nil {
			s.logger.Warn("record bulk audit", slog.Any("error", err))
		}
	}
}
