package events

import (
	"context"
	"fmt"

	"github.com/campuscore/campuscore/internal/shared"
)

// Service handles event business logic.
type Service struct {
	repo Repository
}

// NewService builds Service instance.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// CreateEvent schedules an event organized by the actor.
func (s *Service) CreateEvent(ctx context.Context, actor *shared.Principal, req CreateEventRequest) (Event, error) {
	if actor == nil {
		return Event{}, shared.ErrNoAuth
	}
	if !req.EndsAt.After(req.StartsAt) {
		return Event{}, fmt.Errorf("%w: ends_at must be after starts_at", shared.ErrValidation)
	}
	return s.repo.Create(ctx, Event{
		Title:       req.Title,
		Description: req.Description,
		Location:    req.Location,
		OrganizerID: actor.ID,
		StartsAt:    req.StartsAt,
		EndsAt:      req.EndsAt,
	})
}

// GetEvent returns one event.
func (s *Service) GetEvent(ctx context.Context, id int64) (Event, error) {
	return s.repo.GetByID(ctx, id)
}

// ListEvents returns a filtered page of events.
func (s *Service) ListEvents(ctx context.Context, req ListEventsRequest) ([]Event, shared.Pagination, error) {
	if req.From != nil && req.To != nil && req.To.Before(*req.From) {
		return nil, shared.Pagination{}, fmt.Errorf("%w: to must not precede from", shared.ErrValidation)
	}
	out, total, err := s.repo.List(ctx, req)
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	return out, shared.NewPagination(req.Page, req.PerPage, total), nil
}

// UpdateEvent persists editable fields.
func (s *Service) UpdateEvent(ctx context.Context, id int64, req UpdateEventRequest) (Event, error) {
	if !req.EndsAt.After(req.StartsAt) {
		return Event{}, fmt.Errorf("%w: ends_at must be after starts_at", shared.ErrValidation)
	}
	current, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return Event{}, err
	}
	current.Title = req.Title
	current.Description = req.Description
	current.Location = req.Location
	current.StartsAt = req.StartsAt
	current.EndsAt = req.EndsAt
	return s.repo.Update(ctx, current)
}

// DeleteEvent removes the event.
func (s *Service) DeleteEvent(ctx context.Context, id int64) error {
	return s.repo.Delete(ctx, id)
}
