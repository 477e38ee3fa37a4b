package ports

import (
	"context"

	"github.com/ednar28/user-admin/internal/core/domain"
)

// RoleRepository reads seeded roles and manages the user/role membership.
type RoleRepository interface {
	// FindByName returns domain.ErrUnknownRole when no role is seeded under name.
	FindByName(ctx context.Context, name string) (*domain.Role, error)
	// ReplaceUserRoles removes every membership of userID and inserts roleID,
	// atomically.
	ReplaceUserRoles(ctx context.Context, userID, roleID int64) error
	// RolesOf lists the memberships of userID, ordered by role id.
	RolesOf(ctx context.Context, userID int64) ([]domain.Role, error)
}
