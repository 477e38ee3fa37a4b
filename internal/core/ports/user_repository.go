package ports

import (
	"context"
	"time"

	"github.com/ednar28/user-admin/internal/core/domain"
)

// UserRepository defines persistence for user accounts. Every finder except
// FindByIDWithTrashed applies the soft-delete scope.
type UserRepository interface {
	// FindByEmail returns the non-deleted user owning email, with its role.
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	// FindByID returns the non-deleted user with its role.
	FindByID(ctx context.Context, id int64) (*domain.User, error)
	// FindByIDWithTrashed ignores the soft-delete scope (audit reads).
	FindByIDWithTrashed(ctx context.Context, id int64) (*domain.User, error)
	// ListAdmins returns one page of users holding at least one role, excluding
	// excludeID, ordered by name, plus the total match count.
	ListAdmins(ctx context.Context, filter ListAdminsFilter) ([]*domain.User, int64, error)
	// EmailTaken reports whether a non-deleted user other than exceptID owns email.
	EmailTaken(ctx context.Context, email string, exceptID int64) (bool, error)

	Create(ctx context.Context, user *domain.User) error
	Update(ctx context.Context, user *domain.User) error
	UpdatePassword(ctx context.Context, id int64, hash string, at time.Time) error
	SoftDelete(ctx context.Context, id int64, at time.Time) error
}

// ListAdminsFilter carries the listing query.
type ListAdminsFilter struct {
	ExcludeID int64
	Page      int // 1-based
	PerPage   int
}
