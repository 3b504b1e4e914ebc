package shared

import "errors"

var (
	// ErrNotFound indicates a well-formed identifier with no matching resource.
	ErrNotFound = errors.New("not found")
	// ErrInvalidID indicates a malformed identifier in path or body.
	ErrInvalidID = errors.New("invalid identifier")
	// ErrInvalidCredentials indicates login failure.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrNoAuth indicates a missing or unresolvable credential.
	ErrNoAuth = errors.New("access token required")
	// ErrForbidden indicates an authenticated but unauthorised request.
	ErrForbidden = errors.New("insufficient permissions")
	// ErrDuplicate indicates a uniqueness conflict.
	ErrDuplicate = errors.New("duplicate entry")
	// ErrValidation indicates request shape or payload failed validation.
	ErrValidation = errors.New("validation failed")
	// ErrBusinessRule indicates a domain rule rejected the operation.
	ErrBusinessRule = errors.New("business rule violation")
)

// UserSafeMessage returns a message safe to surface to API clients. Known
// sentinels pass through; anything else collapses to a generic message so
// internals never leak.
func UserSafeMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrNotFound),
		errors.Is(err, ErrInvalidID),
		errors.Is(err, ErrInvalidCredentials),
		errors.Is(err, ErrNoAuth),
		errors.Is(err, ErrForbidden),
		errors.Is(err, ErrDuplicate),
		errors.Is(err, ErrValidation),
		errors.Is(err, ErrBusinessRule):
		return err.Error()
	default:
		return "internal error"
	}
}
