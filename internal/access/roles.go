package access

import (
	"fmt"
	"slices"
)

type Role string

const (
	AssessmentViewer  Role = "ASSESSMENT_VIEWER"
	AssessmentEditor  Role = "ASSESSMENT_EDITOR"
	AssessmentManager Role = "ASSESSMENT_MANAGER"
	ParkViewer        Role = "PARK_VIEWER"
	ParkManager       Role = "PARK_MANAGER"
	FormViewer        Role = "FORM_VIEWER"
	FormManager       Role = "FORM_MANAGER"
	TallyViewer       Role = "TALLY_VIEWER"
	TallyEditor       Role = "TALLY_EDITOR"
	TallyManager      Role = "TALLY_MANAGER"
	UserViewer        Role = "USER_VIEWER"
	UserManager       Role = "USER_MANAGER"
)

type RoleGroup string

const (
	GroupAssessment RoleGroup = "ASSESSMENT"
	GroupPark       RoleGroup = "PARK"
	GroupForm       RoleGroup = "FORM"
	GroupTally      RoleGroup = "TALLY"
	GroupUser       RoleGroup = "USER"
)

var roleGroups = map[RoleGroup][]Role{
	GroupAssessment: {AssessmentViewer, AssessmentEditor, AssessmentManager},
	GroupPark:       {ParkViewer, ParkManager},
	GroupForm:       {FormViewer, FormManager},
	GroupTally:      {TallyViewer, TallyEditor, TallyManager},
	GroupUser:       {UserViewer, UserManager},
}

// AllRoles lists every role in group order.
func AllRoles() []Role {
	var all []Role
	for _, g := range []RoleGroup{GroupAssessment, GroupPark, GroupForm, GroupTally, GroupUser} {
		all = append(all, roleGroups[g]...)
	}
	return all
}

func ParseRole(s string) (Role, error) {
	r := Role(s)
	if slices.Contains(AllRoles(), r) {
		return r, nil
	}
	return "", fmt.Errorf("unknown role %q", s)
}

// Requirement names the roles or role groups an operation accepts. When Roles
// is set, Groups is ignored. An empty requirement is always satisfied.
type Requirement struct {
	Roles  []Role
	Groups []RoleGroup
}

// ContainsAny reports whether userRoles satisfy at least one entry of req.
func ContainsAny(userRoles []Role, req Requirement) bool {
	if req.Roles != nil {
		for _, r := range userRoles {
			if slices.Contains(req.Roles, r) {
				return true
			}
		}
		return false
	}
	if req.Groups != nil {
		for _, g := range req.Groups {
			for _, r := range userRoles {
				if slices.Contains(roleGroups[g], r) {
					return true
				}
			}
		}
		return false
	}
	return true
}

// ContainsAll reports whether userRoles hold every listed role and every role
// of every listed group.
func ContainsAll(userRoles []Role, req Requirement) bool {
	for _, r := range req.Roles {
		if !slices.Contains(userRoles, r) {
			return false
		}
	}
	for _, g := range req.Groups {
		for _, r := range roleGroups[g] {
			if !slices.Contains(userRoles, r) {
				return false
			}
		}
	}
	return true
}
