package notices

import "time"

// Status is the notice lifecycle state.
type Status string

const (
	StatusDraft     Status = "draft"
	StatusPublished Status = "published"
	StatusArchived  Status = "archived"
)

// Audience selects who a notice is shown to.
type Audience string

const (
	AudienceAll      Audience = "all"
	AudienceFaculty  Audience = "faculty"
	AudienceStudents Audience = "students"
)

// Valid reports whether a is a known audience.
func (a Audience) Valid() bool {
	switch a {
	case AudienceAll, AudienceFaculty, AudienceStudents:
		return true
	}
	return false
}

// Notice is an announcement posted to part of the campus.
type Notice struct {
	ID          int64      `json:"id"`
	Title       string     `json:"title"`
	Body        string     `json:"body"`
	Audience    Audience   `json:"audience"`
	Status      Status     `json:"status"`
	AuthorID    int64      `json:"author_id"`
	PublishedAt *time.Time `json:"published_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// CreateNoticeRequest carries the fields needed to draft a notice.
type CreateNoticeRequest struct {
	Title    string   `json:"title" validate:"required,min=3,max=200"`
	Body     string   `json:"body" validate:"required,max=20000"`
	Audience Audience `json:"audience" validate:"required"`
}

// UpdateNoticeRequest carries editable notice fields.
type UpdateNoticeRequest struct {
	Title    string   `json:"title" validate:"required,min=3,max=200"`
	Body     string   `json:"body" validate:"required,max=20000"`
	Audience Audience `json:"audience" validate:"required"`
}

// ListNoticesRequest captures filtering criteria for notice listings.
type ListNoticesRequest struct {
	Status    *Status
	Audiences []Audience
	Page      int
	PerPage   int
}
