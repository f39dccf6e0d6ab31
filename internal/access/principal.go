package access

// Principal is the authenticated caller. Services receive it explicitly and
// check permissions against it instead of consulting request state.
type Principal struct {
	UserID uint
	Email  string
	Roles  []Role
}

func (p Principal) IsZero() bool {
	return p.UserID == 0
}

func (p Principal) HasAny(roles ...Role) bool {
	if p.IsZero() {
		return false
	}
	return ContainsAny(p.Roles, Requirement{Roles: roles})
}

func (p Principal) HasAnyGroup(groups ...RoleGroup) bool {
	if p.IsZero() {
		return false
	}
	return ContainsAny(p.Roles, Requirement{Groups: groups})
}
