package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/ednar28/user-admin/internal/core/domain"
	"github.com/ednar28/user-admin/internal/core/ports"
)

// UserOptions tunes the directory.
type UserOptions struct {
	BcryptCost int
	Now        func() time.Time
}

// UserService is the user directory: listing, creation, lookup, update and
// soft deletion of administrative accounts.
type UserService struct {
	users       ports.UserRepository
	roles       ports.RoleRepository
	assignments ports.RoleService
	tx          ports.Transactor
	audit       ports.AuditLog
	log         zerolog.Logger

	bcryptCost int
	now        func() time.Time
}

func NewUserService(
	users ports.UserRepository,
	roles ports.RoleRepository,
	assignments ports.RoleService,
	tx ports.Transactor,
	audit ports.AuditLog,
	log zerolog.Logger,
	opts UserOptions,
) *UserService {
	if opts.BcryptCost == 0 {
		opts.BcryptCost = bcrypt.DefaultCost
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if audit == nil {
		audit = nopAudit{}
	}
	return &UserService{
		users:       users,
		roles:       roles,
		assignments: assignments,
		tx:          tx,
		audit:       audit,
		log:         log,
		bcryptCost:  opts.BcryptCost,
		now:         opts.Now,
	}
}

// List returns one page of role-holding users other than the actor, by name.
func (s *UserService) List(ctx context.Context, actor *domain.Identity, page int) (*ports.UserPage, error) {
	if page < 1 {
		page = 1
	}

	items, total, err := s.users.ListAdmins(ctx, ports.ListAdminsFilter{
		ExcludeID: actor.UserID,
		Page:      page,
		PerPage:   ports.DefaultPerPage,
	})
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}

	return &ports.UserPage{
		Items:   items,
		Total:   total,
		Page:    page,
		PerPage: ports.DefaultPerPage,
	}, nil
}

// Create stores a new user with the fixed default password and assigns its
// role in the same transaction.
func (s *UserService) Create(ctx context.Context, actor *domain.Identity, in ports.UserInput) (*domain.User, error) {
	if err := s.validate(ctx, in, 0); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(domain.DefaultPassword), s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}

	now := s.now().UTC()
	user := &domain.User{
		Name:         in.Name,
		Email:        in.Email,
		PasswordHash: string(hash),
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.users.Create(ctx, user); err != nil {
			return err
		}
		role, err := s.assignments.AssignRole(ctx, user.ID, in.Role)
		if err != nil {
			return err
		}
		user.Role = role
		return nil
	})
	if err != nil {
		return nil, wrapWrite("create user", err)
	}

	s.log.Info().Int64("user_id", user.ID).Int64("actor_id", actor.UserID).Str("role", in.Role).Msg("user created")
	s.record(domain.AuditUserCreated, actor, user, map[string]string{"role": in.Role})
	return user, nil
}

// Get returns a non-deleted user with its role.
func (s *UserService) Get(ctx context.Context, _ *domain.Identity, id int64) (*domain.User, error) {
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		return nil, wrapRead("get user", err)
	}
	return user, nil
}

// Update overwrites name and email and replaces the role atomically.
func (s *UserService) Update(ctx context.Context, actor *domain.Identity, id int64, in ports.UserInput) (*domain.User, error) {
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		return nil, wrapRead("update user", err)
	}

	if err := s.validate(ctx, in, id); err != nil {
		return nil, err
	}

	user.Name = in.Name
	user.Email = in.Email
	user.UpdatedAt = s.now().UTC()

	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.users.Update(ctx, user); err != nil {
			return err
		}
		role, err := s.assignments.ReplaceRole(ctx, user.ID, in.Role)
		if err != nil {
			return err
		}
		user.Role = role
		return nil
	})
	if err != nil {
		return nil, wrapWrite("update user", err)
	}

	s.log.Info().Int64("user_id", user.ID).Int64("actor_id", actor.UserID).Msg("user updated")
	s.record(domain.AuditUserUpdated, actor, user, map[string]string{"role": in.Role})
	return user, nil
}

// Delete soft-deletes a user. Role links and issued tokens are left in place;
// the access guard stops accepting tokens of deleted users.
func (s *UserService) Delete(ctx context.Context, actor *domain.Identity, id int64) (*domain.DeletionReceipt, error) {
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		return nil, wrapRead("delete user", err)
	}

	at := s.now().UTC()
	if err := s.users.SoftDelete(ctx, user.ID, at); err != nil {
		return nil, wrapRead("delete user", err)
	}

	s.log.Info().Int64("user_id", user.ID).Int64("actor_id", actor.UserID).Msg("user deleted")
	s.record(domain.AuditUserDeleted, actor, user, nil)
	return &domain.DeletionReceipt{ID: user.ID, DeletedAt: at}, nil
}

// FindWithTrashed reads a user regardless of soft deletion.
func (s *UserService) FindWithTrashed(ctx context.Context, id int64) (*domain.User, error) {
	user, err := s.users.FindByIDWithTrashed(ctx, id)
	if err != nil {
		return nil, wrapRead("find user", err)
	}
	return user, nil
}

// validate runs the checks that need the store: role existence and email
// uniqueness among non-deleted users other than exceptID. Both are reported
// together.
func (s *UserService) validate(ctx context.Context, in ports.UserInput, exceptID int64) error {
	ve := domain.NewValidationError()

	taken, err := s.users.EmailTaken(ctx, in.Email, exceptID)
	if err != nil {
		return fmt.Errorf("check email: %w", err)
	}
	if taken {
		ve.Add("email", domain.MsgEmailTaken)
	}

	if _, err := s.roles.FindByName(ctx, in.Role); err != nil {
		if !errors.Is(err, domain.ErrUnknownRole) {
			return fmt.Errorf("check role: %w", err)
		}
		ve.Add("role", domain.MsgRoleInvalid)
	}

	if !ve.Empty() {
		return ve
	}
	return nil
}

func (s *UserService) record(action domain.AuditAction, actor *domain.Identity, target *domain.User, detail map[string]string) {
	s.audit.Record(domain.AuditEvent{
		Action:   action,
		ActorID:  actor.UserID,
		TargetID: target.ID,
		Email:    target.Email,
		Detail:   detail,
		At:       s.now().UTC(),
	})
}

// wrapRead keeps not-found errors bare so the HTTP layer maps them to 404.
func wrapRead(op string, err error) error {
	if errors.Is(err, domain.ErrUserNotFound) {
		return err
	}
	return fmt.Errorf("%s: %w", op, err)
}

// wrapWrite turns store-level conflicts that slipped past validate (a
// concurrent insert of the same email, a role removed meanwhile) into field
// errors.
func wrapWrite(op string, err error) error {
	switch {
	case errors.Is(err, domain.ErrEmailTaken):
		return domain.FieldError("email", domain.MsgEmailTaken)
	case errors.Is(err, domain.ErrUnknownRole):
		return domain.FieldError("role", domain.MsgRoleInvalid)
	}
	return fmt.Errorf("%s: %w", op, err)
}
