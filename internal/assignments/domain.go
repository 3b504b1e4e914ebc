package assignments

import "time"

// Status is the assignment lifecycle state. Draft assignments are invisible
// to students, published ones accept submissions, closed ones are read only.
type Status string

const (
	StatusDraft     Status = "draft"
	StatusPublished Status = "published"
	StatusClosed    Status = "closed"
)

// Assignment is coursework attached to a course.
type Assignment struct {
	ID          int64     `json:"id"`
	CourseID    int64     `json:"course_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	DueAt       time.Time `json:"due_at"`
	MaxScore    int       `json:"max_score"`
	Status      Status    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Submission is a student's answer to an assignment. Resubmitting replaces
// the content; at most one row exists per (assignment, student).
type Submission struct {
	ID           int64      `json:"id"`
	AssignmentID int64      `json:"assignment_id"`
	StudentID    int64      `json:"student_id"`
	Content      string     `json:"content"`
	IsLate       bool       `json:"is_late"`
	SubmittedAt  time.Time  `json:"submitted_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
	Score        *int       `json:"score,omitempty"`
	LetterGrade  *string    `json:"letter_grade,omitempty"`
	GradedBy     *int64     `json:"graded_by,omitempty"`
	GradedAt     *time.Time `json:"graded_at,omitempty"`
}

// CreateAssignmentRequest carries the fields needed to create an assignment.
type CreateAssignmentRequest struct {
	CourseID    int64     `json:"course_id" validate:"required,gt=0"`
	Title       string    `json:"title" validate:"required,min=3,max=200"`
	Description string    `json:"description" validate:"max=5000"`
	DueAt       time.Time `json:"due_at" validate:"required"`
	MaxScore    int       `json:"max_score" validate:"gt=0,lte=1000"`
}

// UpdateAssignmentRequest carries editable assignment fields.
type UpdateAssignmentRequest struct {
	Title       string    `json:"title" validate:"required,min=3,max=200"`
	Description string    `json:"description" validate:"max=5000"`
	DueAt       time.Time `json:"due_at" validate:"required"`
	MaxScore    int       `json:"max_score" validate:"gt=0,lte=1000"`
}

// SubmitRequest carries a student submission body.
type SubmitRequest struct {
	Content string `json:"content" validate:"required,max=50000"`
}

// GradeRequest carries a faculty grading action.
type GradeRequest struct {
	Score int `json:"score" validate:"gte=0"`
}

// ListAssignmentsRequest captures filtering criteria for assignment listings.
type ListAssignmentsRequest struct {
	CourseID *int64
	Status   *Status
	Page     int
	PerPage  int
}
