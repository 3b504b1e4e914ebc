package auth

import (
	"time"

	"github.com/campuscore/campuscore/internal/shared"
)

// Account represents a login-capable user account.
type Account struct {
	ID           int64
	Email        string
	Name         string
	PasswordHash string
	Role         shared.Role
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Principal converts the account into its request-scoped projection.
func (a *Account) Principal() *shared.Principal {
	if a == nil {
		return nil
	}
	return &shared.Principal{ID: a.ID, Role: a.Role, IsActive: a.IsActive}
}
