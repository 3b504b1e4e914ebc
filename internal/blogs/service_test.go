package blogs

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campuscore/campuscore/internal/shared"
)

type mockRepository struct {
	posts  map[int64]*Post
	nextID int64
}

func newMockRepository() *mockRepository {
	return &mockRepository{posts: make(map[int64]*Post), nextID: 1}
}

func (m *mockRepository) Create(ctx context.Context, post Post) (Post, error) {
	post.ID = m.nextID
	m.nextID++
	m.posts[post.ID] = &post
	return post, nil
}

func (m *mockRepository) GetByID(ctx context.Context, id int64) (Post, error) {
	p, ok := m.posts[id]
	if !ok {
		return Post{}, shared.ErrNotFound
	}
	return *p, nil
}

func (m *mockRepository) List(ctx context.Context, req ListPostsRequest) ([]Post, int, error) {
	var out []Post
	for _, p := range m.posts {
		if req.AuthorID != nil && p.AuthorID != *req.AuthorID {
			continue
		}
		if req.Published != nil && p.IsPublished != *req.Published {
			continue
		}
		out = append(out, *p)
	}
	return out, len(out), nil
}

func (m *mockRepository) Update(ctx context.Context, post Post) (Post, error) {
	if _, ok := m.posts[post.ID]; !ok {
		return Post{}, shared.ErrNotFound
	}
	m.posts[post.ID] = &post
	return post, nil
}

func (m *mockRepository) SetPublished(ctx context.Context, id int64, published bool, publishedAt *time.Time) error {
	p, ok := m.posts[id]
	if !ok {
		return shared.ErrNotFound
	}
	p.IsPublished = published
	if publishedAt != nil {
		p.PublishedAt = publishedAt
	}
	return nil
}

func (m *mockRepository) Delete(ctx context.Context, id int64) error {
	if _, ok := m.posts[id]; !ok {
		return shared.ErrNotFound
	}
	delete(m.posts, id)
	return nil
}

var (
	admin  = &shared.Principal{ID: 1, Role: shared.RoleAdmin}
	author = &shared.Principal{ID: 20, Role: shared.RoleStudent}
	reader = &shared.Principal{ID: 21, Role: shared.RoleStudent}
)

func TestDraftVisibility(t *testing.T) {
	repo := newMockRepository()
	svc := NewService(repo)
	ctx := context.Background()

	draft, err := svc.CreatePost(ctx, author, CreatePostRequest{Title: "Work in progress", Body: "..."})
	require.NoError(t, err)
	assert.False(t, draft.IsPublished)

	_, err = svc.GetPost(ctx, reader, draft.ID)
	assert.ErrorIs(t, err, shared.ErrNotFound, "drafts are hidden from other readers")
	_, err = svc.GetPost(ctx, author, draft.ID)
	assert.NoError(t, err)
	_, err = svc.GetPost(ctx, admin, draft.ID)
	assert.NoError(t, err)
}

func TestCreatePublishesImmediately(t *testing.T) {
	repo := newMockRepository()
	svc := NewService(repo)

	post, err := svc.CreatePost(context.Background(), author, CreatePostRequest{Title: "Hello campus", Body: "...", Publish: true})
	require.NoError(t, err)
	assert.True(t, post.IsPublished)
	assert.NotNil(t, post.PublishedAt)
}

func TestListHidesOthersDrafts(t *testing.T) {
	repo := newMockRepository()
	svc := NewService(repo)
	ctx := context.Background()

	_, err := svc.CreatePost(ctx, author, CreatePostRequest{Title: "Draft post", Body: "..."})
	require.NoError(t, err)
	published, err := svc.CreatePost(ctx, author, CreatePostRequest{Title: "Public post", Body: "...", Publish: true})
	require.NoError(t, err)

	out, _, err := svc.ListPosts(ctx, reader, ListPostsRequest{})
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, published.ID, out[0].ID)

	// Authors see their own drafts when asking for their feed.
	out, _, err = svc.ListPosts(ctx, author, ListPostsRequest{AuthorID: &author.ID})
	require.NoError(t, err)
	assert.Len(t, out, 2)

	out, _, err = svc.ListPosts(ctx, admin, ListPostsRequest{})
	require.NoError(t, err)
	assert.Len(t, out, 2)
}

func TestPublishRoundTrip(t *testing.T) {
	repo := newMockRepository()
	svc := NewService(repo)
	ctx := context.Background()

	post, err := svc.CreatePost(ctx, author, CreatePostRequest{Title: "Draft post", Body: "..."})
	require.NoError(t, err)

	require.NoError(t, svc.Publish(ctx, post.ID))
	require.NoError(t, svc.Publish(ctx, post.ID), "republish is a no-op")
	assert.True(t, repo.posts[post.ID].IsPublished)
	firstPublished := repo.posts[post.ID].PublishedAt

	require.NoError(t, svc.Unpublish(ctx, post.ID))
	assert.False(t, repo.posts[post.ID].IsPublished)
	assert.Equal(t, firstPublished, repo.posts[post.ID].PublishedAt, "unpublish keeps the original timestamp")
}

func TestRepublishKeepsFirstTimestamp(t *testing.T) {
	repo := newMockRepository()
	svc := NewService(repo)
	ctx := context.Background()

	post, err := svc.CreatePost(ctx, author, CreatePostRequest{Title: "Draft post", Body: "..."})
	require.NoError(t, err)

	first := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return first }
	require.NoError(t, svc.Publish(ctx, post.ID))
	require.NoError(t, svc.Unpublish(ctx, post.ID))

	svc.now = func() time.Time { return first.Add(48 * time.Hour) }
	require.NoError(t, svc.Publish(ctx, post.ID))
	assert.True(t, repo.posts[post.ID].IsPublished)
	require.NotNil(t, repo.posts[post.ID].PublishedAt)
	assert.Equal(t, first, *repo.posts[post.ID].PublishedAt, "republish must not refresh the timestamp")
}
