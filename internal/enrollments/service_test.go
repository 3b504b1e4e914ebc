package enrollments

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campuscore/campuscore/internal/bulk"
	"github.com/campuscore/campuscore/internal/shared"
)

type mockRepository struct {
	enrollments map[int64]*Enrollment
	seats       map[int64]Seat
	instructors map[int64]int64
	nextID      int64
	createErr   error
}

func newMockRepository() *mockRepository {
	return &mockRepository{
		enrollments: make(map[int64]*Enrollment),
		seats:       make(map[int64]Seat),
		instructors: make(map[int64]int64),
		nextID:      1,
	}
}

func (m *mockRepository) Create(ctx context.Context, enrollment Enrollment) (Enrollment, error) {
	if m.createErr != nil {
		return Enrollment{}, m.createErr
	}
	for _, e := range m.enrollments {
		if e.StudentID == enrollment.StudentID && e.CourseID == enrollment.CourseID {
			return Enrollment{}, fmt.Errorf("%w: student already enrolled in this course", shared.ErrDuplicate)
		}
	}
	enrollment.ID = m.nextID
	m.nextID++
	m.enrollments[enrollment.ID] = &enrollment

	seat := m.seats[enrollment.CourseID]
	seat.ActiveCount++
	m.seats[enrollment.CourseID] = seat
	return enrollment, nil
}

func (m *mockRepository) GetByID(ctx context.Context, id int64) (Enrollment, error) {
	e, ok := m.enrollments[id]
	if !ok {
		return Enrollment{}, shared.ErrNotFound
	}
	return *e, nil
}

func (m *mockRepository) List(ctx context.Context, req ListEnrollmentsRequest) ([]Enrollment, int, error) {
	var out []Enrollment
	for _, e := range m.enrollments {
		if req.StudentID != nil && e.StudentID != *req.StudentID {
			continue
		}
		if req.CourseID != nil && e.CourseID != *req.CourseID {
			continue
		}
		out = append(out, *e)
	}
	return out, len(out), nil
}

func (m *mockRepository) SetStatus(ctx context.Context, id int64, status Status) error {
	e, ok := m.enrollments[id]
	if !ok {
		return shared.ErrNotFound
	}
	e.Status = status
	return nil
}

func (m *mockRepository) CourseSeat(ctx context.Context, courseID int64) (Seat, error) {
	seat, ok := m.seats[courseID]
	if !ok {
		return Seat{}, fmt.Errorf("%w: course not found", shared.ErrNotFound)
	}
	return seat, nil
}

func (m *mockRepository) CourseInstructor(ctx context.Context, courseID int64) (int64, error) {
	instructorID, ok := m.instructors[courseID]
	if !ok {
		return 0, fmt.Errorf("%w: course not found", shared.ErrNotFound)
	}
	return instructorID, nil
}

var admin = &shared.Principal{ID: 1, Role: shared.RoleAdmin}

func student(id int64) *shared.Principal {
	return &shared.Principal{ID: id, Role: shared.RoleStudent}
}

func TestEnrollStudentEnrollsSelf(t *testing.T) {
	repo := newMockRepository()
	repo.seats[10] = Seat{Capacity: 30}
	svc := NewService(repo, nil, nil)

	// student_id in the body is ignored for student actors
	e, err := svc.Enroll(context.Background(), student(5), EnrollRequest{CourseID: 10, StudentID: 99})
	require.NoError(t, err)
	assert.Equal(t, int64(5), e.StudentID)
	assert.Equal(t, StatusActive, e.Status)
}

func TestEnrollDuplicateRejected(t *testing.T) {
	repo := newMockRepository()
	repo.seats[10] = Seat{Capacity: 30}
	svc := NewService(repo, nil, nil)
	ctx := context.Background()

	_, err := svc.Enroll(ctx, student(5), EnrollRequest{CourseID: 10})
	require.NoError(t, err)
	_, err = svc.Enroll(ctx, student(5), EnrollRequest{CourseID: 10})
	assert.ErrorIs(t, err, shared.ErrDuplicate)
}

func TestEnrollFullCourseRejected(t *testing.T) {
	repo := newMockRepository()
	repo.seats[10] = Seat{Capacity: 1}
	svc := NewService(repo, nil, nil)
	ctx := context.Background()

	_, err := svc.Enroll(ctx, student(5), EnrollRequest{CourseID: 10})
	require.NoError(t, err)
	_, err = svc.Enroll(ctx, student(6), EnrollRequest{CourseID: 10})
	assert.ErrorIs(t, err, shared.ErrBusinessRule)
}

func TestEnrollArchivedCourseRejected(t *testing.T) {
	repo := newMockRepository()
	repo.seats[10] = Seat{Capacity: 30, IsArchived: true}
	svc := NewService(repo, nil, nil)

	_, err := svc.Enroll(context.Background(), student(5), EnrollRequest{CourseID: 10})
	assert.ErrorIs(t, err, shared.ErrBusinessRule)
}

func TestEnrollUnknownCourse(t *testing.T) {
	svc := NewService(newMockRepository(), nil, nil)
	_, err := svc.Enroll(context.Background(), student(5), EnrollRequest{CourseID: 404})
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestCompletedEnrollmentIsFinal(t *testing.T) {
	repo := newMockRepository()
	repo.seats[10] = Seat{Capacity: 30}
	svc := NewService(repo, nil, nil)
	ctx := context.Background()

	e, err := svc.Enroll(ctx, student(5), EnrollRequest{CourseID: 10})
	require.NoError(t, err)
	require.NoError(t, svc.Complete(ctx, e.ID))

	err = svc.Drop(ctx, e.ID)
	assert.ErrorIs(t, err, shared.ErrBusinessRule)
	err = svc.UpdateStatus(ctx, e.ID, StatusActive)
	assert.ErrorIs(t, err, shared.ErrBusinessRule)
}

func TestListScopedByRole(t *testing.T) {
	repo := newMockRepository()
	repo.seats[10] = Seat{Capacity: 30}
	svc := NewService(repo, nil, nil)
	ctx := context.Background()

	_, err := svc.Enroll(ctx, student(5), EnrollRequest{CourseID: 10})
	require.NoError(t, err)
	_, err = svc.Enroll(ctx, student(6), EnrollRequest{CourseID: 10})
	require.NoError(t, err)

	// A student only ever sees their own rows, filters notwithstanding.
	other := int64(6)
	out, _, err := svc.ListEnrollments(ctx, student(5), ListEnrollmentsRequest{StudentID: &other})
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, int64(5), out[0].StudentID)
}

func TestBulkDropContinuesPastMissing(t *testing.T) {
	repo := newMockRepository()
	repo.seats[10] = Seat{Capacity: 30}
	svc := NewService(repo, nil, nil)
	ctx := context.Background()

	first, err := svc.Enroll(ctx, student(5), EnrollRequest{CourseID: 10})
	require.NoError(t, err)
	second, err := svc.Enroll(ctx, student(6), EnrollRequest{CourseID: 10})
	require.NoError(t, err)

	result, err := svc.Bulk(ctx, admin, bulk.Request{Op: "drop", TargetIDs: []int64{first.ID, 12345, second.ID}})
	require.NoError(t, err)
	assert.Equal(t, 3, result.Total)
	assert.Equal(t, []int64{first.ID, second.ID}, result.Succeeded)
	require.Len(t, result.Failed, 1)
	assert.Equal(t, int64(12345), result.Failed[0].ID)

	assert.Equal(t, StatusDropped, repo.enrollments[first.ID].Status)
	assert.Equal(t, StatusDropped, repo.enrollments[second.ID].Status)
}

func TestBulkUpdateStatusValidatesPayload(t *testing.T) {
	repo := newMockRepository()
	repo.seats[10] = Seat{Capacity: 30}
	svc := NewService(repo, nil, nil)
	ctx := context.Background()

	e, err := svc.Enroll(ctx, student(5), EnrollRequest{CourseID: 10})
	require.NoError(t, err)

	_, err = svc.Bulk(ctx, admin, bulk.Request{Op: "updateStatus", TargetIDs: []int64{e.ID}})
	assert.ErrorIs(t, err, shared.ErrValidation)

	_, err = svc.Bulk(ctx, admin, bulk.Request{
		Op: "updateStatus", TargetIDs: []int64{e.ID},
		Payload: map[string]string{"status": "graduated"},
	})
	assert.ErrorIs(t, err, shared.ErrValidation)
	assert.Equal(t, StatusActive, repo.enrollments[e.ID].Status, "validation failure must leave items untouched")

	result, err := svc.Bulk(ctx, admin, bulk.Request{
		Op: "updateStatus", TargetIDs: []int64{e.ID},
		Payload: map[string]string{"status": "completed"},
	})
	require.NoError(t, err)
	assert.Equal(t, []int64{e.ID}, result.Succeeded)
	assert.Equal(t, StatusCompleted, repo.enrollments[e.ID].Status)
}

func TestBulkScopedToOwnCourses(t *testing.T) {
	repo := newMockRepository()
	repo.seats[10] = Seat{Capacity: 30}
	repo.seats[11] = Seat{Capacity: 30}
	repo.instructors[10] = 7
	repo.instructors[11] = 8
	svc := NewService(repo, nil, nil)
	ctx := context.Background()

	mine, err := svc.Enroll(ctx, student(5), EnrollRequest{CourseID: 10})
	require.NoError(t, err)
	theirs, err := svc.Enroll(ctx, student(5), EnrollRequest{CourseID: 11})
	require.NoError(t, err)

	faculty := &shared.Principal{ID: 7, Role: shared.RoleFaculty}
	result, err := svc.Bulk(ctx, faculty, bulk.Request{Op: "drop", TargetIDs: []int64{mine.ID, theirs.ID}})
	require.NoError(t, err)
	assert.Equal(t, []int64{mine.ID}, result.Succeeded)
	require.Len(t, result.Failed, 1)
	assert.Equal(t, theirs.ID, result.Failed[0].ID)
	assert.Contains(t, result.Failed[0].Error, "not the instructor")
	assert.Equal(t, StatusActive, repo.enrollments[theirs.ID].Status, "another instructor's enrollment must stay untouched")
}

func TestBulkRequiresActor(t *testing.T) {
	svc := NewService(newMockRepository(), nil, nil)
	_, err := svc.Bulk(context.Background(), nil, bulk.Request{Op: "drop", TargetIDs: []int64{1}})
	assert.ErrorIs(t, err, shared.ErrNoAuth)
}

func TestEnrollSeatTakenBetweenCheckAndInsert(t *testing.T) {
	repo := newMockRepository()
	repo.seats[10] = Seat{Capacity: 1}
	repo.createErr = fmt.Errorf("%w: course is full", shared.ErrBusinessRule)
	svc := NewService(repo, nil, nil)

	// The seat check passes but the insert loses the race for the last seat.
	_, err := svc.Enroll(context.Background(), student(5), EnrollRequest{CourseID: 10})
	assert.ErrorIs(t, err, shared.ErrBusinessRule)
}
