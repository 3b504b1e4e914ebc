// Package authz implements the role and ownership guards evaluated on every
// protected request. Guards are stateless predicates over the principal and a
// minimal resource projection; they compose with short-circuit AND so the
// cheap role check always runs before any lookup-requiring ownership check.
package authz

import "github.com/campuscore/campuscore/internal/shared"

// Reason classifies an authorization outcome.
type Reason string

const (
	// ReasonOK marks an allowed request.
	ReasonOK Reason = "OK"
	// ReasonNoAuth marks a request without a resolvable credential.
	ReasonNoAuth Reason = "NO_AUTH"
	// ReasonInsufficientRole marks a principal whose role is not in the allowed set.
	ReasonInsufficientRole Reason = "INSUFFICIENT_ROLE"
	// ReasonNotOwner marks a principal with no ownership relation to the resource.
	ReasonNotOwner Reason = "NOT_OWNER"
)

// Decision is the ephemeral result of a guard evaluation. It is computed per
// request and never persisted.
type Decision struct {
	Allowed bool
	Reason  Reason
}

// Allow returns a passing decision.
func Allow() Decision {
	return Decision{Allowed: true, Reason: ReasonOK}
}

// Deny returns a failing decision with the given reason.
func Deny(reason Reason) Decision {
	return Decision{Allowed: false, Reason: reason}
}

// And chains a further guard, evaluated only when the receiver passed.
func (d Decision) And(next func() Decision) Decision {
	if !d.Allowed {
		return d
	}
	return next()
}

// Err maps the decision onto the platform error taxonomy: NO_AUTH becomes the
// 401 sentinel, every other denial the 403 sentinel. Allowed decisions map to
// nil.
func (d Decision) Err() error {
	if d.Allowed {
		return nil
	}
	if d.Reason == ReasonNoAuth {
		return shared.ErrNoAuth
	}
	return shared.ErrForbidden
}
