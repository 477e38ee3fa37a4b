package ports

import (
	"context"

	"github.com/ednar28/user-admin/internal/core/domain"
)

// DefaultPerPage is the fixed listing page size.
const DefaultPerPage = 15

// UserInput carries the writable attributes of a user.
type UserInput struct {
	Name  string
	Email string
	Role  string
}

// UserPage is one page of the admin listing.
type UserPage struct {
	Items   []*domain.User
	Total   int64
	Page    int
	PerPage int
}

// LastPage returns the 1-based index of the final page (1 for an empty set).
func (p *UserPage) LastPage() int {
	if p.Total == 0 || p.PerPage <= 0 {
		return 1
	}
	return int((p.Total + int64(p.PerPage) - 1) / int64(p.PerPage))
}

// UserService is the user directory. Every call takes the authenticated
// caller explicitly.
type UserService interface {
	List(ctx context.Context, actor *domain.Identity, page int) (*UserPage, error)
	Create(ctx context.Context, actor *domain.Identity, in UserInput) (*domain.User, error)
	Get(ctx context.Context, actor *domain.Identity, id int64) (*domain.User, error)
	Update(ctx context.Context, actor *domain.Identity, id int64, in UserInput) (*domain.User, error)
	Delete(ctx context.Context, actor *domain.Identity, id int64) (*domain.DeletionReceipt, error)
	FindWithTrashed(ctx context.Context, id int64) (*domain.User, error)
}

// RoleService enforces the single-role invariant.
type RoleService interface {
	AssignRole(ctx context.Context, userID int64, roleName string) (*domain.Role, error)
	ReplaceRole(ctx context.Context, userID int64, roleName string) (*domain.Role, error)
}
