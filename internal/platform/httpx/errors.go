package httpx

import (
	"errors"
	"net/http"

	"github.com/campuscore/campuscore/internal/shared"
)

// Machine-readable error codes mirrored in response bodies.
const (
	CodeNoAuth           = "NO_AUTH"
	CodeForbidden        = "FORBIDDEN"
	CodeInvalidID        = "INVALID_ID"
	CodeNotFound         = "NOT_FOUND"
	CodeValidation       = "VALIDATION_ERROR"
	CodeBusinessRule     = "BUSINESS_RULE_VIOLATION"
	CodeDuplicate        = "DUPLICATE"
	CodeInternal         = "INTERNAL"
	CodeIdempotentReplay = "IDEMPOTENT_REPLAY"
)

// RespondError maps domain errors onto the platform error taxonomy.
// Authorization failures split into 401 (no credential) and 403 (credential
// present but insufficient) and deliberately carry no extra detail.
func RespondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, shared.ErrNoAuth):
		Fail(w, http.StatusUnauthorized, CodeNoAuth, "Access token required")
	case errors.Is(err, shared.ErrInvalidCredentials):
		Fail(w, http.StatusUnauthorized, CodeNoAuth, "Invalid credentials")
	case errors.Is(err, shared.ErrForbidden):
		Fail(w, http.StatusForbidden, CodeForbidden, "Insufficient permissions")
	case errors.Is(err, shared.ErrInvalidID):
		Fail(w, http.StatusBadRequest, CodeInvalidID, shared.UserSafeMessage(err))
	case errors.Is(err, shared.ErrNotFound):
		Fail(w, http.StatusNotFound, CodeNotFound, shared.UserSafeMessage(err))
	case errors.Is(err, shared.ErrValidation):
		Fail(w, http.StatusBadRequest, CodeValidation, shared.UserSafeMessage(err))
	case errors.Is(err, errDecode):
		Fail(w, http.StatusBadRequest, CodeValidation, errDecode.Error())
	case errors.Is(err, shared.ErrBusinessRule):
		Fail(w, http.StatusBadRequest, CodeBusinessRule, shared.UserSafeMessage(err))
	case errors.Is(err, shared.ErrDuplicate):
		Fail(w, http.StatusConflict, CodeDuplicate, shared.UserSafeMessage(err))
	case errors.Is(err, shared.ErrIdempotencyConflict):
		Fail(w, http.StatusConflict, CodeIdempotentReplay, err.Error())
	default:
		Fail(w, http.StatusInternalServerError, CodeInternal, "internal error")
	}
}
