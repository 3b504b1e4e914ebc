package blogs

import "time"

// Post is a campus blog entry. Any authenticated user may write one; only
// the author or an admin may change it afterwards.
type Post struct {
	ID          int64      `json:"id"`
	Title       string     `json:"title"`
	Body        string     `json:"body"`
	AuthorID    int64      `json:"author_id"`
	IsPublished bool       `json:"is_published"`
	PublishedAt *time.Time `json:"published_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// CreatePostRequest carries the fields needed to write a post.
type CreatePostRequest struct {
	Title   string `json:"title" validate:"required,min=3,max=200"`
	Body    string `json:"body" validate:"required,max=100000"`
	Publish bool   `json:"publish"`
}

// UpdatePostRequest carries editable post fields.
type UpdatePostRequest struct {
	Title string `json:"title" validate:"required,min=3,max=200"`
	Body  string `json:"body" validate:"required,max=100000"`
}

// ListPostsRequest captures filtering criteria for post listings.
type ListPostsRequest struct {
	AuthorID  *int64
	Published *bool
	Page      int
	PerPage   int
}
