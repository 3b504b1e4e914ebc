package notices

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campuscore/campuscore/internal/bulk"
	"github.com/campuscore/campuscore/internal/shared"
)

type mockRepository struct {
	notices map[int64]*Notice
	nextID  int64
}

func newMockRepository() *mockRepository {
	return &mockRepository{notices: make(map[int64]*Notice), nextID: 1}
}

func (m *mockRepository) Create(ctx context.Context, notice Notice) (Notice, error) {
	notice.ID = m.nextID
	m.nextID++
	m.notices[notice.ID] = &notice
	return notice, nil
}

func (m *mockRepository) GetByID(ctx context.Context, id int64) (Notice, error) {
	n, ok := m.notices[id]
	if !ok {
		return Notice{}, shared.ErrNotFound
	}
	return *n, nil
}

func (m *mockRepository) List(ctx context.Context, req ListNoticesRequest) ([]Notice, int, error) {
	var out []Notice
	for _, n := range m.notices {
		if req.Status != nil && n.Status != *req.Status {
			continue
		}
		if len(req.Audiences) > 0 {
			match := false
			for _, audience := range req.Audiences {
				if n.Audience == audience {
					match = true
					break
				}
			}
			if !match {
				continue
			}
		}
		out = append(out, *n)
	}
	return out, len(out), nil
}

func (m *mockRepository) Update(ctx context.Context, notice Notice) (Notice, error) {
	if _, ok := m.notices[notice.ID]; !ok {
		return Notice{}, shared.ErrNotFound
	}
	m.notices[notice.ID] = &notice
	return notice, nil
}

func (m *mockRepository) SetStatus(ctx context.Context, id int64, status Status, publishedAt *time.Time) error {
	n, ok := m.notices[id]
	if !ok {
		return shared.ErrNotFound
	}
	n.Status = status
	if publishedAt != nil {
		n.PublishedAt = publishedAt
	}
	return nil
}

func (m *mockRepository) Delete(ctx context.Context, id int64) error {
	if _, ok := m.notices[id]; !ok {
		return shared.ErrNotFound
	}
	delete(m.notices, id)
	return nil
}

type recordingBroadcaster struct {
	sent []Notice
}

func (b *recordingBroadcaster) EnqueueBroadcast(ctx context.Context, notice Notice) error {
	b.sent = append(b.sent, notice)
	return nil
}

var (
	admin   = &shared.Principal{ID: 1, Role: shared.RoleAdmin}
	teacher = &shared.Principal{ID: 7, Role: shared.RoleFaculty}
	pupil   = &shared.Principal{ID: 20, Role: shared.RoleStudent}
)

func noticeReq(audience Audience) CreateNoticeRequest {
	return CreateNoticeRequest{Title: "Library hours", Body: "Open until midnight during finals.", Audience: audience}
}

func TestPublishBroadcastsOnce(t *testing.T) {
	repo := newMockRepository()
	broadcaster := &recordingBroadcaster{}
	svc := NewService(repo, nil, broadcaster, nil)
	ctx := context.Background()

	n, err := svc.CreateNotice(ctx, teacher, noticeReq(AudienceAll))
	require.NoError(t, err)
	assert.Equal(t, StatusDraft, n.Status)

	require.NoError(t, svc.Publish(ctx, n.ID))
	require.NoError(t, svc.Publish(ctx, n.ID), "republish is a no-op")
	assert.Len(t, broadcaster.sent, 1)
	assert.NotNil(t, repo.notices[n.ID].PublishedAt)
}

func TestDeletePublishedRejected(t *testing.T) {
	repo := newMockRepository()
	svc := NewService(repo, nil, nil, nil)
	ctx := context.Background()

	n, err := svc.CreateNotice(ctx, teacher, noticeReq(AudienceAll))
	require.NoError(t, err)
	require.NoError(t, svc.Publish(ctx, n.ID))

	assert.ErrorIs(t, svc.DeleteNotice(ctx, n.ID), shared.ErrBusinessRule)

	require.NoError(t, svc.Archive(ctx, n.ID))
	require.NoError(t, svc.DeleteNotice(ctx, n.ID))
	_, ok := repo.notices[n.ID]
	assert.False(t, ok)
}

func TestArchivedNoticeFrozen(t *testing.T) {
	repo := newMockRepository()
	svc := NewService(repo, nil, nil, nil)
	ctx := context.Background()

	n, err := svc.CreateNotice(ctx, teacher, noticeReq(AudienceAll))
	require.NoError(t, err)
	require.NoError(t, svc.Archive(ctx, n.ID))

	_, err = svc.UpdateNotice(ctx, n.ID, UpdateNoticeRequest{Title: "New title", Body: "body", Audience: AudienceAll})
	assert.ErrorIs(t, err, shared.ErrBusinessRule)
	assert.ErrorIs(t, svc.Publish(ctx, n.ID), shared.ErrBusinessRule)
}

func TestAudienceVisibility(t *testing.T) {
	repo := newMockRepository()
	svc := NewService(repo, nil, nil, nil)
	ctx := context.Background()

	facultyOnly, err := svc.CreateNotice(ctx, admin, noticeReq(AudienceFaculty))
	require.NoError(t, err)
	studentsOnly, err := svc.CreateNotice(ctx, admin, noticeReq(AudienceStudents))
	require.NoError(t, err)
	require.NoError(t, svc.Publish(ctx, facultyOnly.ID))
	require.NoError(t, svc.Publish(ctx, studentsOnly.ID))

	_, err = svc.GetNotice(ctx, pupil, facultyOnly.ID)
	assert.ErrorIs(t, err, shared.ErrNotFound, "students cannot see faculty notices")
	_, err = svc.GetNotice(ctx, pupil, studentsOnly.ID)
	assert.NoError(t, err)

	out, _, err := svc.ListNotices(ctx, pupil, ListNoticesRequest{})
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, studentsOnly.ID, out[0].ID)
}

func TestDraftVisibleToAuthorOnly(t *testing.T) {
	repo := newMockRepository()
	svc := NewService(repo, nil, nil, nil)
	ctx := context.Background()

	n, err := svc.CreateNotice(ctx, teacher, noticeReq(AudienceAll))
	require.NoError(t, err)

	_, err = svc.GetNotice(ctx, pupil, n.ID)
	assert.ErrorIs(t, err, shared.ErrNotFound)
	_, err = svc.GetNotice(ctx, teacher, n.ID)
	assert.NoError(t, err)
	_, err = svc.GetNotice(ctx, admin, n.ID)
	assert.NoError(t, err)
}

func TestBulkPublishIsolation(t *testing.T) {
	repo := newMockRepository()
	svc := NewService(repo, nil, nil, nil)
	ctx := context.Background()

	first, err := svc.CreateNotice(ctx, teacher, noticeReq(AudienceAll))
	require.NoError(t, err)
	second, err := svc.CreateNotice(ctx, teacher, noticeReq(AudienceAll))
	require.NoError(t, err)

	result, err := svc.Bulk(ctx, teacher, bulk.Request{Op: "publish", TargetIDs: []int64{first.ID, 12345, second.ID}})
	require.NoError(t, err)
	assert.Equal(t, 3, result.Total)
	assert.Equal(t, []int64{first.ID, second.ID}, result.Succeeded)
	require.Len(t, result.Failed, 1)

	assert.Equal(t, StatusPublished, repo.notices[first.ID].Status)
	assert.Equal(t, StatusPublished, repo.notices[second.ID].Status)
}

func TestBulkScopedToOwnNotices(t *testing.T) {
	repo := newMockRepository()
	svc := NewService(repo, nil, nil, nil)
	ctx := context.Background()

	mine, err := svc.CreateNotice(ctx, teacher, noticeReq(AudienceAll))
	require.NoError(t, err)
	colleague := &shared.Principal{ID: 99, Role: shared.RoleFaculty}
	theirs, err := svc.CreateNotice(ctx, colleague, noticeReq(AudienceAll))
	require.NoError(t, err)

	result, err := svc.Bulk(ctx, teacher, bulk.Request{Op: "delete", TargetIDs: []int64{mine.ID, theirs.ID}})
	require.NoError(t, err)
	assert.Equal(t, []int64{mine.ID}, result.Succeeded)
	require.Len(t, result.Failed, 1)
	assert.Equal(t, theirs.ID, result.Failed[0].ID)
	assert.Contains(t, result.Failed[0].Error, "not the author")

	_, stillThere := repo.notices[theirs.ID]
	assert.True(t, stillThere, "a colleague's notice must survive the batch")

	adminResult, err := svc.Bulk(ctx, admin, bulk.Request{Op: "delete", TargetIDs: []int64{theirs.ID}})
	require.NoError(t, err)
	assert.Equal(t, []int64{theirs.ID}, adminResult.Succeeded, "admins operate on any author's notices")
}

func TestBulkRequiresActor(t *testing.T) {
	svc := NewService(newMockRepository(), nil, nil, nil)
	_, err := svc.Bulk(context.Background(), nil, bulk.Request{Op: "publish", TargetIDs: []int64{1}})
	assert.ErrorIs(t, err, shared.ErrNoAuth)
}
