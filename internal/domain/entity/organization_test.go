package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMemberRoleAtLeast(t *testing.T) {
	assert.True(t, MemberRoleOwner.AtLeast(MemberRoleUser))
	assert.True(t, MemberRoleAdmin.AtLeast(MemberRoleModerator))
	assert.True(t, MemberRoleUser.AtLeast(MemberRoleUser))
	assert.False(t, MemberRoleUser.AtLeast(MemberRoleAdmin))
	assert.False(t, MemberRoleModerator.AtLeast(MemberRoleOwner))
	assert.False(t, MemberRole("ghost").AtLeast(MemberRoleUser))
}

func TestNewMembershipInvalidRole(t *testing.T) {
	m := NewMembership("org-1", "user-1", MemberRole("superuser"))

	assert.Equal(t, MemberRoleUser, m.Role)
	assert.True(t, m.HasRequiredRole(MemberRoleUser))
	assert.False(t, m.HasRequiredRole(MemberRoleAdmin))
}

func TestGroupsFromSamples(t *testing.T) {
	samples := []Sample{
		{Name: "tumor", Files: []SampleFile{{ID: "f1"}, {ID: "f2"}}},
		{Name: "control", Files: nil},
	}

	groups := GroupsFromSamples(samples)

	assert.Equal(t, []Group{
		{Name: "tumor", Files: []string{"f1", "f2"}},
		{Name: "control", Files: []string{}},
	}, groups)
}
