package enrollments

import "time"

// Status is the enrollment lifecycle state.
type Status string

const (
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
	StatusDropped   Status = "dropped"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusActive, StatusCompleted, StatusDropped:
		return true
	}
	return false
}

// Enrollment ties a student to a course. At most one row exists per
// (student, course) pair.
type Enrollment struct {
	ID         int64     `json:"id"`
	StudentID  int64     `json:"student_id"`
	CourseID   int64     `json:"course_id"`
	Status     Status    `json:"status"`
	EnrolledAt time.Time `json:"enrolled_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// EnrollRequest carries the fields needed to enroll a student. StudentID is
// honoured only for admin actors; students always enroll themselves.
type EnrollRequest struct {
	CourseID  int64 `json:"course_id" validate:"required,gt=0"`
	StudentID int64 `json:"student_id"`
}

// ListEnrollmentsRequest captures filtering criteria for enrollment listings.
type ListEnrollmentsRequest struct {
	StudentID    *int64
	CourseID     *int64
	InstructorID *int64
	Status       *Status
	Page         int
	PerPage      int
}

// Seat is the projection the capacity check needs from the course.
type Seat struct {
	Capacity    int
	ActiveCount int
	IsArchived  bool
}
