package authz

import "github.com/campuscore/campuscore/internal/shared"

// ResourceRef is the minimal projection of a resource needed for an
// ownership decision. OwnerID is the direct owner (creator, instructor,
// organizer, author); MemberIDs carries set-style relations such as the
// students enrolled in a course.
type ResourceRef struct {
	ID        int64
	OwnerID   int64
	MemberIDs []int64
}

// RequireRole allows iff the principal's role is in the allowed set. An
// anonymous principal denies with NO_AUTH before the role is even checked.
func RequireRole(p *shared.Principal, allowed ...shared.Role) Decision {
	if p == nil {
		return Deny(ReasonNoAuth)
	}
	for _, role := range allowed {
		if p.Role == role {
			return Allow()
		}
	}
	return Deny(ReasonInsufficientRole)
}

// RequireOwnership allows admins unconditionally; any other principal must
// be the direct owner or a member of the resource's member set.
func RequireOwnership(p *shared.Principal, ref ResourceRef) Decision {
	if p == nil {
		return Deny(ReasonNoAuth)
	}
	if p.Role == shared.RoleAdmin {
		return Allow()
	}
	if ref.OwnerID != 0 && p.ID == ref.OwnerID {
		return Allow()
	}
	for _, id := range ref.MemberIDs {
		if p.ID == id {
			return Allow()
		}
	}
	return Deny(ReasonNotOwner)
}
