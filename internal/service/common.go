package service

import (
	"errors"
	"fmt"

	"pracas_backend/internal/access"
	"pracas_backend/internal/util"

	"gorm.io/gorm"
)

// authorize returns util.ErrPermissionDenied unless p holds any role of req.
func authorize(p access.Principal, req access.Requirement) error {
	if p.IsZero() || !access.ContainsAny(p.Roles, req) {
		return util.ErrPermissionDenied
	}
	return nil
}

func roles(rs ...access.Role) access.Requirement {
	return access.Requirement{Roles: rs}
}

func groups(gs ...access.RoleGroup) access.Requirement {
	return access.Requirement{Groups: gs}
}

// lookup turns gorm's not-found error into util.ErrNotFound.
func lookup(what string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%s: %w", what, util.ErrNotFound)
	}
	return fmt.Errorf("load %s: %w", what, err)
}
