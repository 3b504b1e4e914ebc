package courses

import "time"

// Course represents a taught course owned by its instructor.
type Course struct {
	ID           int64     `json:"id"`
	Code         string    `json:"code"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	InstructorID int64     `json:"instructor_id"`
	Term         string    `json:"term"`
	Capacity     int       `json:"capacity"`
	IsArchived   bool      `json:"is_archived"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// CreateCourseRequest carries the fields needed to open a course.
type CreateCourseRequest struct {
	Code         string `json:"code" validate:"required,min=2,max=16"`
	Title        string `json:"title" validate:"required,min=3,max=200"`
	Description  string `json:"description" validate:"max=2000"`
	InstructorID int64  `json:"instructor_id"`
	Term         string `json:"term" validate:"required"`
	Capacity     int    `json:"capacity" validate:"gte=0,lte=1000"`
}

// UpdateCourseRequest carries editable course fields.
type UpdateCourseRequest struct {
	Title       string `json:"title" validate:"required,min=3,max=200"`
	Description string `json:"description" validate:"max=2000"`
	Term        string `json:"term" validate:"required"`
	Capacity    int    `json:"capacity" validate:"gte=0,lte=1000"`
}

// ListCoursesRequest captures filtering criteria for course listings.
type ListCoursesRequest struct {
	InstructorID *int64
	Term         string
	Archived     *bool
	Search       string
	Page         int
	PerPage      int
}
