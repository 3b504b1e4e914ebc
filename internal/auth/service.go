package auth

import (
	"context"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/campuscore/campuscore/internal/shared"
)

// Service wraps authentication business rules.
type Service struct {
	repo   Repository
	tokens *TokenStore
}

// NewService constructs a new Service.
func NewService(repo Repository, tokens *TokenStore) *Service {
	return &Service{repo: repo, tokens: tokens}
}

// Authenticate validates email/password credentials. Inactive accounts fail
// the same way as wrong passwords.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*Account, error) {
	acc, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		return nil, shared.ErrInvalidCredentials
	}
	if !acc.IsActive {
		return nil, shared.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(acc.PasswordHash), []byte(password)); err != nil {
		return nil, shared.ErrInvalidCredentials
	}
	return acc, nil
}

// Login authenticates and issues a bearer token, recording the session.
func (s *Service) Login(ctx context.Context, email, password, ip, ua string) (string, *Account, error) {
	acc, err := s.Authenticate(ctx, email, password)
	if err != nil {
		return "", nil, err
	}
	token, err := s.tokens.Issue(ctx, *acc.Principal())
	if err != nil {
		return "", nil, err
	}
	expiresAt := time.Now().Add(s.tokens.TTL())
	if err := s.repo.CreateSession(ctx, token, acc.ID, expiresAt, ip, ua); err != nil {
		_ = s.tokens.Revoke(ctx, token)
		return "", nil, err
	}
	return token, acc, nil
}

// Logout revokes the token and removes the session record.
func (s *Service) Logout(ctx context.Context, token string) error {
	if err := s.tokens.Revoke(ctx, token); err != nil {
		return err
	}
	return s.repo.DeleteSession(ctx, token)
}
