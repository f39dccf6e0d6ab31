package access

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContainsAny(t *testing.T) {
	tests := []struct {
		name  string
		roles []Role
		req   Requirement
		want  bool
	}{
		{"empty requirement", nil, Requirement{}, true},
		{"role match", []Role{ParkViewer}, Requirement{Roles: []Role{ParkViewer, ParkManager}}, true},
		{"role miss", []Role{ParkViewer}, Requirement{Roles: []Role{ParkManager}}, false},
		{"roles win over groups", []Role{ParkViewer}, Requirement{Roles: []Role{ParkManager}, Groups: []RoleGroup{GroupPark}}, false},
		{"group match", []Role{TallyEditor}, Requirement{Groups: []RoleGroup{GroupForm, GroupTally}}, true},
		{"group miss", []Role{TallyEditor}, Requirement{Groups: []RoleGroup{GroupUser}}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ContainsAny(tt.roles, tt.req))
		})
	}
}

func TestContainsAll(t *testing.T) {
	roles := []Role{ParkViewer, ParkManager, FormViewer}

	assert.True(t, ContainsAll(roles, Requirement{Groups: []RoleGroup{GroupPark}}))
	assert.False(t, ContainsAll(roles, Requirement{Groups: []RoleGroup{GroupForm}}))
	assert.True(t, ContainsAll(roles, Requirement{Roles: []Role{FormViewer, ParkManager}}))
	assert.False(t, ContainsAll(roles, Requirement{Roles: []Role{UserManager}}))
	assert.True(t, ContainsAll(nil, Requirement{}))
}

func TestPrincipal(t *testing.T) {
	var anon Principal
	assert.False(t, anon.HasAny(AllRoles()...))

	p := Principal{UserID: 7, Roles: []Role{AssessmentEditor}}
	assert.True(t, p.HasAny(AssessmentEditor, AssessmentManager))
	assert.False(t, p.HasAny(AssessmentManager))
	assert.True(t, p.HasAnyGroup(GroupAssessment))
}

func TestParseRole(t *testing.T) {
	r, err := ParseRole("FORM_MANAGER")
	require.NoError(t, err)
	assert.Equal(t, FormManager, r)

	_, err = ParseRole("ADMIN")
	assert.Error(t, err)
	assert.Len(t, AllRoles(), 12)
}
