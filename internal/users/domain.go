package users

import (
	"time"

	"github.com/campuscore/campuscore/internal/shared"
)

// User represents a managed campus account.
type User struct {
	ID        int64       `json:"id"`
	Email     string      `json:"email"`
	FirstName string      `json:"first_name"`
	LastName  string      `json:"last_name"`
	Role      shared.Role `json:"role"`
	IsActive  bool        `json:"is_active"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}

// CreateUserRequest carries the fields needed to provision an account. Email
// is generated, never supplied.
type CreateUserRequest struct {
	FirstName string      `json:"first_name" validate:"required,min=1,max=64"`
	LastName  string      `json:"last_name" validate:"required,min=1,max=64"`
	Role      shared.Role `json:"role" validate:"required"`
	Password  string      `json:"password" validate:"required,min=8"`
}

// ListUsersRequest captures filtering criteria for user listings.
type ListUsersRequest struct {
	Role     *shared.Role
	IsActive *bool
	Search   string
	Page     int
	PerPage  int
}

// BulkCreateResult aggregates per-item outcomes of a bulk provisioning call.
type BulkCreateResult struct {
	Created []User            `json:"created"`
	Failed  []BulkCreateError `json:"failed"`
	Summary BulkCreateSummary `json:"summary"`
}

// BulkCreateError records one rejected row by input position.
type BulkCreateError struct {
	Index int    `json:"index"`
	Error string `json:"error"`
}

// BulkCreateSummary totals a bulk provisioning call.
type BulkCreateSummary struct {
	Total   int `json:"total"`
	Created int `json:"created"`
	Failed  int `json:"failed"`
}
