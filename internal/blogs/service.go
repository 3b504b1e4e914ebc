package blogs

import (
	"context"
	"time"

	"github.com/campuscore/campuscore/internal/shared"
)

// Service handles blog business logic.
type Service struct {
	repo Repository
	now  func() time.Time
}

// NewService builds Service instance.
func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

// CreatePost writes a post authored by the actor, optionally publishing it
// immediately.
func (s *Service) CreatePost(ctx context.Context, actor *shared.Principal, req CreatePostRequest) (Post, error) {
	if actor == nil {
		return Post{}, shared.ErrNoAuth
	}
	post := Post{
		Title:       req.Title,
		Body:        req.Body,
		AuthorID:    actor.ID,
		IsPublished: req.Publish,
	}
	if req.Publish {
		publishedAt := s.now()
		post.PublishedAt = &publishedAt
	}
	return s.repo.Create(ctx, post)
}

// GetPost returns one post. Unpublished drafts are visible only to their
// author and admins.
func (s *Service) GetPost(ctx context.Context, actor *shared.Principal, id int64) (Post, error) {
	post, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return Post{}, err
	}
	if !post.IsPublished {
		if actor == nil || (!actor.IsAdmin() && actor.ID != post.AuthorID) {
			return Post{}, shared.ErrNotFound
		}
	}
	return post, nil
}

// ListPosts returns a filtered page of posts. Non-admins asking for someone
// else's drafts get published posts only.
func (s *Service) ListPosts(ctx context.Context, actor *shared.Principal, req ListPostsRequest) ([]Post, shared.Pagination, error) {
	if actor != nil && !actor.IsAdmin() {
		ownFeed := req.AuthorID != nil && *req.AuthorID == actor.ID
		if !ownFeed {
			published := true
			req.Published = &published
		}
	}
	out, total, err := s.repo.List(ctx, req)
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	return out, shared.NewPagination(req.Page, req.PerPage, total), nil
}

// UpdatePost persists editable fields.
func (s *Service) UpdatePost(ctx context.Context, id int64, req UpdatePostRequest) (Post, error) {
	current, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return Post{}, err
	}
	current.Title = req.Title
	current.Body = req.Body
	return s.repo.Update(ctx, current)
}

// Publish makes the post public. Publishing again is a no-op, and a post
// that was unpublished keeps its original publish timestamp on republish.
func (s *Service) Publish(ctx context.Context, id int64) error {
	current, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if current.IsPublished {
		return nil
	}
	var publishedAt *time.Time
	if current.PublishedAt == nil {
		first := s.now()
		publishedAt = &first
	}
	return s.repo.SetPublished(ctx, id, true, publishedAt)
}

// Unpublish takes the post back to draft.
func (s *Service) Unpublish(ctx context.Context, id int64) error {
	return s.repo.SetPublished(ctx, id, false, nil)
}

// DeletePost removes the post.
func (s *Service) DeletePost(ctx context.Context, id int64) error {
	return s.repo.Delete(ctx, id)
}
