package shared

// Role is the closed set of account roles recognised by the platform.
type Role string

const (
	// RoleAdmin grants unrestricted access to every resource.
	RoleAdmin Role = "admin"
	// RoleFaculty marks teaching staff: course, assignment and grade owners.
	RoleFaculty Role = "faculty"
	// RoleStudent marks enrolled learners.
	RoleStudent Role = "student"
)

// Roles lists every valid role.
func Roles() []Role {
	return []Role{RoleAdmin, RoleFaculty, RoleStudent}
}

// Valid reports whether the role belongs to the closed set.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleFaculty, RoleStudent:
		return true
	}
	return false
}

// Principal describes the authenticated actor attached to a request.
type Principal struct {
	ID       int64
	Role     Role
	IsActive bool
}

// IsAdmin reports whether the principal holds the admin role.
func (p *Principal) IsAdmin() bool {
	return p != nil && p.Role == RoleAdmin
}
