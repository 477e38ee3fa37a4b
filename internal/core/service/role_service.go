package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/ednar28/user-admin/internal/core/domain"
	"github.com/ednar28/user-admin/internal/core/ports"
)

// RoleService keeps every user at exactly one role. Assignment is always a
// wholesale replace so no reader sees a user with zero or two roles.
type RoleService struct {
	roles ports.RoleRepository
	log   zerolog.Logger
}

func NewRoleService(roles ports.RoleRepository, log zerolog.Logger) *RoleService {
	return &RoleService{roles: roles, log: log}
}

// AssignRole resolves roleName and makes it the only role of userID.
func (s *RoleService) AssignRole(ctx context.Context, userID int64, roleName string) (*domain.Role, error) {
	role, err := s.roles.FindByName(ctx, roleName)
	if err != nil {
		if errors.Is(err, domain.ErrUnknownRole) {
			return nil, err
		}
		return nil, fmt.Errorf("assign role: %w", err)
	}

	if err := s.roles.ReplaceUserRoles(ctx, userID, role.ID); err != nil {
		return nil, fmt.Errorf("assign role: %w", err)
	}

	s.log.Debug().Int64("user_id", userID).Str("role", role.Name).Msg("role assigned")
	return role, nil
}

// ReplaceRole is used on update. It has the same replace semantics as AssignRole.
func (s *RoleService) ReplaceRole(ctx context.Context, userID int64, roleName string) (*domain.Role, error) {
	return s.AssignRole(ctx, userID, roleName)
}
