package ports

import (
	"context"

	"github.com/ednar28/user-admin/internal/core/domain"
)

// LoginInput carries the login form.
type LoginInput struct {
	Email     string
	Password  string
	Remember  bool
	TokenName string
	ClientIP  string
}

// LoginResult is returned on successful login. Token is the plaintext bearer
// token and is never retrievable again.
type LoginResult struct {
	User  *domain.User
	Token string
}

// AuthService covers the credential verifier, token issuer and access guard.
type AuthService interface {
	Verify(ctx context.Context, email, password string) (*domain.User, error)
	IssueToken(ctx context.Context, user *domain.User, name string, remember bool) (string, error)
	Login(ctx context.Context, in LoginInput) (*LoginResult, error)
	Authenticate(ctx context.Context, token string) (*domain.Identity, error)
	Authorize(identity *domain.Identity, permission domain.Permission) bool
	Logout(ctx context.Context, identity *domain.Identity) error
	SetPassword(ctx context.Context, userID int64, password string) error
}
