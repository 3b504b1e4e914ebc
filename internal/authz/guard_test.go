package authz

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/campuscore/campuscore/internal/shared"
)

func TestRequireRoleAnonymousAlwaysNoAuth(t *testing.T) {
	for _, allowed := range [][]shared.Role{
		nil,
		{shared.RoleAdmin},
		{shared.RoleAdmin, shared.RoleFaculty, shared.RoleStudent},
	} {
		d := RequireRole(nil, allowed...)
		assert.False(t, d.Allowed)
		assert.Equal(t, ReasonNoAuth, d.Reason)
		assert.ErrorIs(t, d.Err(), shared.ErrNoAuth)
	}
}

func TestRequireRoleMembership(t *testing.T) {
	cases := []struct {
		name    string
		role    shared.Role
		allowed []shared.Role
		want    bool
	}{
		{"student against admin/faculty", shared.RoleStudent, []shared.Role{shared.RoleAdmin, shared.RoleFaculty}, false},
		{"faculty against admin/faculty", shared.RoleFaculty, []shared.Role{shared.RoleAdmin, shared.RoleFaculty}, true},
		{"admin against admin", shared.RoleAdmin, []shared.Role{shared.RoleAdmin}, true},
		{"admin against empty set", shared.RoleAdmin, nil, false},
		{"student against student", shared.RoleStudent, []shared.Role{shared.RoleStudent}, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			d := RequireRole(&shared.Principal{ID: 1, Role: tc.role}, tc.allowed...)
			assert.Equal(t, tc.want, d.Allowed)
			if !tc.want {
				assert.Equal(t, ReasonInsufficientRole, d.Reason)
				assert.ErrorIs(t, d.Err(), shared.ErrForbidden)
			}
		})
	}
}

func TestRequireOwnershipDirectOwner(t *testing.T) {
	p := &shared.Principal{ID: 7, Role: shared.RoleStudent}
	assert.True(t, RequireOwnership(p, ResourceRef{ID: 1, OwnerID: 7}).Allowed)

	d := RequireOwnership(p, ResourceRef{ID: 1, OwnerID: 8})
	assert.False(t, d.Allowed)
	assert.Equal(t, ReasonNotOwner, d.Reason)
}

func TestRequireOwnershipMemberSet(t *testing.T) {
	p := &shared.Principal{ID: 7, Role: shared.RoleStudent}
	ref := ResourceRef{ID: 1, OwnerID: 99, MemberIDs: []int64{5, 6, 7}}
	assert.True(t, RequireOwnership(p, ref).Allowed)

	ref.MemberIDs = []int64{5, 6}
	assert.False(t, RequireOwnership(p, ref).Allowed)
}

func TestRequireOwnershipAdminAlwaysPasses(t *testing.T) {
	p := &shared.Principal{ID: 1, Role: shared.RoleAdmin}
	assert.True(t, RequireOwnership(p, ResourceRef{ID: 42, OwnerID: 999}).Allowed)
}

func TestRequireOwnershipAnonymous(t *testing.T) {
	d := RequireOwnership(nil, ResourceRef{ID: 1, OwnerID: 1})
	assert.False(t, d.Allowed)
	assert.Equal(t, ReasonNoAuth, d.Reason)
}

func TestDecisionAndShortCircuits(t *testing.T) {
	called := false
	d := Deny(ReasonInsufficientRole).And(func() Decision {
		called = true
		return Allow()
	})
	assert.False(t, d.Allowed)
	assert.False(t, called, "second guard must not run after a denial")

	d = Allow().And(func() Decision {
		called = true
		return Deny(ReasonNotOwner)
	})
	assert.True(t, called)
	assert.Equal(t, ReasonNotOwner, d.Reason)
}
