package assignments

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campuscore/campuscore/internal/bulk"
	"github.com/campuscore/campuscore/internal/shared"
)

type mockRepository struct {
	assignments      map[int64]*Assignment
	submissions      map[int64]*Submission
	instructors      map[int64]int64
	enrolled         map[string]bool
	nextAssignmentID int64
	nextSubmissionID int64
}

func newMockRepository() *mockRepository {
	return &mockRepository{
		assignments:      make(map[int64]*Assignment),
		submissions:      make(map[int64]*Submission),
		instructors:      make(map[int64]int64),
		enrolled:         make(map[string]bool),
		nextAssignmentID: 1,
		nextSubmissionID: 1,
	}
}

func enrollKey(courseID, studentID int64) string {
	return fmt.Sprintf("%d/%d", courseID, studentID)
}

func (m *mockRepository) Create(ctx context.Context, a Assignment) (Assignment, error) {
	a.ID = m.nextAssignmentID
	m.nextAssignmentID++
	m.assignments[a.ID] = &a
	return a, nil
}

func (m *mockRepository) GetByID(ctx context.Context, id int64) (Assignment, error) {
	a, ok := m.assignments[id]
	if !ok {
		return Assignment{}, shared.ErrNotFound
	}
	return *a, nil
}

func (m *mockRepository) List(ctx context.Context, req ListAssignmentsRequest) ([]Assignment, int, error) {
	var out []Assignment
	for _, a := range m.assignments {
		if req.Status != nil && a.Status != *req.Status {
			continue
		}
		out = append(out, *a)
	}
	return out, len(out), nil
}

func (m *mockRepository) Update(ctx context.Context, a Assignment) (Assignment, error) {
	if _, ok := m.assignments[a.ID]; !ok {
		return Assignment{}, shared.ErrNotFound
	}
	m.assignments[a.ID] = &a
	return a, nil
}

func (m *mockRepository) SetStatus(ctx context.Context, id int64, status Status) error {
	a, ok := m.assignments[id]
	if !ok {
		return shared.ErrNotFound
	}
	a.Status = status
	return nil
}

func (m *mockRepository) Delete(ctx context.Context, id int64) error {
	if _, ok := m.assignments[id]; !ok {
		return shared.ErrNotFound
	}
	delete(m.assignments, id)
	return nil
}

func (m *mockRepository) CourseInstructor(ctx context.Context, courseID int64) (int64, error) {
	instructorID, ok := m.instructors[courseID]
	if !ok {
		return 0, fmt.Errorf("%w: course not found", shared.ErrNotFound)
	}
	return instructorID, nil
}

func (m *mockRepository) HasActiveEnrollment(ctx context.Context, courseID, studentID int64) (bool, error) {
	return m.enrolled[enrollKey(courseID, studentID)], nil
}

func (m *mockRepository) UpsertSubmission(ctx context.Context, s Submission) (Submission, error) {
	for _, existing := range m.submissions {
		if existing.AssignmentID == s.AssignmentID && existing.StudentID == s.StudentID {
			existing.Content = s.Content
			existing.IsLate = s.IsLate
			existing.Score = nil
			existing.LetterGrade = nil
			existing.GradedBy = nil
			existing.GradedAt = nil
			return *existing, nil
		}
	}
	s.ID = m.nextSubmissionID
	m.nextSubmissionID++
	m.submissions[s.ID] = &s
	return s, nil
}

func (m *mockRepository) GetSubmission(ctx context.Context, id int64) (Submission, error) {
	s, ok := m.submissions[id]
	if !ok {
		return Submission{}, shared.ErrNotFound
	}
	return *s, nil
}

func (m *mockRepository) ListSubmissions(ctx context.Context, assignmentID int64) ([]Submission, error) {
	var out []Submission
	for _, s := range m.submissions {
		if s.AssignmentID == assignmentID {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (m *mockRepository) SetGrade(ctx context.Context, submissionID int64, score int, letter string, gradedBy int64, gradedAt time.Time) error {
	s, ok := m.submissions[submissionID]
	if !ok {
		return shared.ErrNotFound
	}
	s.Score = &score
	s.LetterGrade = &letter
	s.GradedBy = &gradedBy
	s.GradedAt = &gradedAt
	return nil
}

var (
	admin   = &shared.Principal{ID: 1, Role: shared.RoleAdmin}
	teacher = &shared.Principal{ID: 7, Role: shared.RoleFaculty}
	pupil   = &shared.Principal{ID: 20, Role: shared.RoleStudent}
)

func newFixture(t *testing.T) (*mockRepository, *Service) {
	t.Helper()
	repo := newMockRepository()
	repo.instructors[10] = teacher.ID
	repo.enrolled[enrollKey(10, pupil.ID)] = true
	return repo, NewService(repo, nil, nil)
}

func assignmentReq(due time.Time) CreateAssignmentRequest {
	return CreateAssignmentRequest{CourseID: 10, Title: "Problem Set 1", DueAt: due, MaxScore: 100}
}

func TestCreateAssignmentOwnership(t *testing.T) {
	_, svc := newFixture(t)
	ctx := context.Background()
	due := time.Now().Add(24 * time.Hour)

	a, err := svc.CreateAssignment(ctx, teacher, assignmentReq(due))
	require.NoError(t, err)
	assert.Equal(t, StatusDraft, a.Status)

	other := &shared.Principal{ID: 8, Role: shared.RoleFaculty}
	_, err = svc.CreateAssignment(ctx, other, assignmentReq(due))
	assert.ErrorIs(t, err, shared.ErrForbidden)

	_, err = svc.CreateAssignment(ctx, admin, assignmentReq(due))
	assert.NoError(t, err, "admin may create under any course")
}

func TestLifecycleTransitions(t *testing.T) {
	_, svc := newFixture(t)
	ctx := context.Background()

	a, err := svc.CreateAssignment(ctx, teacher, assignmentReq(time.Now().Add(time.Hour)))
	require.NoError(t, err)

	// Draft cannot be closed.
	assert.ErrorIs(t, svc.Close(ctx, a.ID), shared.ErrBusinessRule)

	require.NoError(t, svc.Publish(ctx, a.ID))
	assert.NoError(t, svc.Publish(ctx, a.ID), "republish is a no-op")

	require.NoError(t, svc.Close(ctx, a.ID))
	assert.NoError(t, svc.Close(ctx, a.ID), "reclose is a no-op")
	assert.ErrorIs(t, svc.Publish(ctx, a.ID), shared.ErrBusinessRule)
}

func TestDeletePublishedRejected(t *testing.T) {
	repo, svc := newFixture(t)
	ctx := context.Background()

	a, err := svc.CreateAssignment(ctx, teacher, assignmentReq(time.Now().Add(time.Hour)))
	require.NoError(t, err)
	require.NoError(t, svc.Publish(ctx, a.ID))

	assert.ErrorIs(t, svc.DeleteAssignment(ctx, a.ID), shared.ErrBusinessRule)

	require.NoError(t, svc.Close(ctx, a.ID))
	require.NoError(t, svc.DeleteAssignment(ctx, a.ID))
	_, ok := repo.assignments[a.ID]
	assert.False(t, ok)
}

func TestSubmitRules(t *testing.T) {
	_, svc := newFixture(t)
	ctx := context.Background()

	a, err := svc.CreateAssignment(ctx, teacher, assignmentReq(time.Now().Add(time.Hour)))
	require.NoError(t, err)

	// Drafts do not accept submissions.
	_, err = svc.Submit(ctx, pupil, a.ID, SubmitRequest{Content: "answer"})
	assert.ErrorIs(t, err, shared.ErrBusinessRule)

	require.NoError(t, svc.Publish(ctx, a.ID))
	sub, err := svc.Submit(ctx, pupil, a.ID, SubmitRequest{Content: "answer"})
	require.NoError(t, err)
	assert.False(t, sub.IsLate)

	// Resubmission replaces content and keeps a single row.
	again, err := svc.Submit(ctx, pupil, a.ID, SubmitRequest{Content: "better answer"})
	require.NoError(t, err)
	assert.Equal(t, sub.ID, again.ID)
	assert.Equal(t, "better answer", again.Content)

	// Unenrolled students are rejected.
	stranger := &shared.Principal{ID: 99, Role: shared.RoleStudent}
	_, err = svc.Submit(ctx, stranger, a.ID, SubmitRequest{Content: "answer"})
	assert.ErrorIs(t, err, shared.ErrBusinessRule)

	require.NoError(t, svc.Close(ctx, a.ID))
	_, err = svc.Submit(ctx, pupil, a.ID, SubmitRequest{Content: "late answer"})
	assert.ErrorIs(t, err, shared.ErrBusinessRule)
}

func TestSubmitLateFlag(t *testing.T) {
	_, svc := newFixture(t)
	ctx := context.Background()
	due := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	a, err := svc.CreateAssignment(ctx, teacher, assignmentReq(due))
	require.NoError(t, err)
	require.NoError(t, svc.Publish(ctx, a.ID))

	svc.now = func() time.Time { return due.Add(-time.Minute) }
	sub, err := svc.Submit(ctx, pupil, a.ID, SubmitRequest{Content: "on time"})
	require.NoError(t, err)
	assert.False(t, sub.IsLate)

	svc.now = func() time.Time { return due.Add(time.Minute) }
	sub, err = svc.Submit(ctx, pupil, a.ID, SubmitRequest{Content: "late"})
	require.NoError(t, err)
	assert.True(t, sub.IsLate)
}

func TestGradeDerivesLetter(t *testing.T) {
	_, svc := newFixture(t)
	ctx := context.Background()

	req := assignmentReq(time.Now().Add(time.Hour))
	req.MaxScore = 50
	a, err := svc.CreateAssignment(ctx, teacher, req)
	require.NoError(t, err)
	require.NoError(t, svc.Publish(ctx, a.ID))

	sub, err := svc.Submit(ctx, pupil, a.ID, SubmitRequest{Content: "answer"})
	require.NoError(t, err)

	graded, err := svc.Grade(ctx, teacher, sub.ID, GradeRequest{Score: 45})
	require.NoError(t, err)
	require.NotNil(t, graded.LetterGrade)
	assert.Equal(t, "A", *graded.LetterGrade)
	assert.Equal(t, teacher.ID, *graded.GradedBy)

	_, err = svc.Grade(ctx, teacher, sub.ID, GradeRequest{Score: 51})
	assert.ErrorIs(t, err, shared.ErrValidation)
}

func TestResubmissionClearsGrade(t *testing.T) {
	_, svc := newFixture(t)
	ctx := context.Background()

	a, err := svc.CreateAssignment(ctx, teacher, assignmentReq(time.Now().Add(time.Hour)))
	require.NoError(t, err)
	require.NoError(t, svc.Publish(ctx, a.ID))

	sub, err := svc.Submit(ctx, pupil, a.ID, SubmitRequest{Content: "answer"})
	require.NoError(t, err)
	_, err = svc.Grade(ctx, teacher, sub.ID, GradeRequest{Score: 80})
	require.NoError(t, err)

	again, err := svc.Submit(ctx, pupil, a.ID, SubmitRequest{Content: "revised"})
	require.NoError(t, err)
	assert.Nil(t, again.Score)
	assert.Nil(t, again.LetterGrade)
}

func TestStudentListingHidesDrafts(t *testing.T) {
	_, svc := newFixture(t)
	ctx := context.Background()

	draft, err := svc.CreateAssignment(ctx, teacher, assignmentReq(time.Now().Add(time.Hour)))
	require.NoError(t, err)
	published, err := svc.CreateAssignment(ctx, teacher, assignmentReq(time.Now().Add(time.Hour)))
	require.NoError(t, err)
	require.NoError(t, svc.Publish(ctx, published.ID))

	out, _, err := svc.ListAssignments(ctx, pupil, ListAssignmentsRequest{})
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, published.ID, out[0].ID)

	draftStatus := StatusDraft
	_, _, err = svc.ListAssignments(ctx, pupil, ListAssignmentsRequest{Status: &draftStatus})
	assert.ErrorIs(t, err, shared.ErrForbidden)

	out, _, err = svc.ListAssignments(ctx, teacher, ListAssignmentsRequest{})
	require.NoError(t, err)
	assert.Len(t, out, 2, "faculty see drafts")
	_ = draft
}

func TestBulkPublishIsolation(t *testing.T) {
	repo, svc := newFixture(t)
	ctx := context.Background()

	first, err := svc.CreateAssignment(ctx, teacher, assignmentReq(time.Now().Add(time.Hour)))
	require.NoError(t, err)
	second, err := svc.CreateAssignment(ctx, teacher, assignmentReq(time.Now().Add(time.Hour)))
	require.NoError(t, err)

	result, err := svc.Bulk(ctx, teacher, bulk.Request{Op: "publish", TargetIDs: []int64{first.ID, 12345, second.ID}})
	require.NoError(t, err)
	assert.Equal(t, 3, result.Total)
	assert.Equal(t, []int64{first.ID, second.ID}, result.Succeeded)
	require.Len(t, result.Failed, 1)
	assert.Contains(t, result.Failed[0].Error, "not found")

	assert.Equal(t, StatusPublished, repo.assignments[first.ID].Status)
	assert.Equal(t, StatusPublished, repo.assignments[second.ID].Status)

	// Retrying the full batch converges: already-published items no-op.
	retry, err := svc.Bulk(ctx, teacher, bulk.Request{Op: "publish", TargetIDs: []int64{first.ID, second.ID}})
	require.NoError(t, err)
	assert.Len(t, retry.Succeeded, 2)
}

func TestBulkScopedToOwnCourses(t *testing.T) {
	repo, svc := newFixture(t)
	ctx := context.Background()

	a, err := svc.CreateAssignment(ctx, teacher, assignmentReq(time.Now().Add(time.Hour)))
	require.NoError(t, err)

	other := &shared.Principal{ID: 8, Role: shared.RoleFaculty}
	result, err := svc.Bulk(ctx, other, bulk.Request{Op: "publish", TargetIDs: []int64{a.ID}})
	require.NoError(t, err)
	assert.Empty(t, result.Succeeded)
	require.Len(t, result.Failed, 1)
	assert.Contains(t, result.Failed[0].Error, "not the instructor")
	assert.Equal(t, StatusDraft, repo.assignments[a.ID].Status, "another instructor's assignment must stay untouched")

	adminResult, err := svc.Bulk(ctx, admin, bulk.Request{Op: "publish", TargetIDs: []int64{a.ID}})
	require.NoError(t, err)
	assert.Equal(t, []int64{a.ID}, adminResult.Succeeded, "admins operate across all courses")
}
