package domain

import "time"

// DefaultPassword is assigned to every account created through the directory.
// Operators are expected to reset it before the account is used.
const DefaultPassword = "123456789"

// MaxFieldLength bounds name and email.
const MaxFieldLength = 255

// User models an administrative account.
type User struct {
	ID              int64
	Name            string
	Email           string
	PasswordHash    string
	EmailVerifiedAt *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
	DeletedAt       *time.Time

	// Role is the single resolved role, nil while the user has none.
	Role *Role
}

// Trashed reports whether the user has been soft-deleted.
func (u *User) Trashed() bool {
	return u.DeletedAt != nil
}

// DeletionReceipt is returned by a soft delete.
type DeletionReceipt struct {
	ID        int64
	DeletedAt time.Time
}

// Identity is the authenticated principal resolved from a bearer token.
type Identity struct {
	UserID  int64
	TokenID int64
	Name    string
	Email   string
	Role    string
}

// AccessToken is a personal access token row. Only the SHA-256 of the secret
// part is ever stored.
type AccessToken struct {
	ID         int64
	UserID     int64
	Name       string
	TokenHash  string
	LastUsedAt *time.Time
	ExpiresAt  *time.Time
	CreatedAt  time.Time
}

// DefaultTokenName labels tokens issued without an explicit name.
const DefaultTokenName = "auth_token"

// Expired reports whether the token is past its expiry at instant now.
func (t *AccessToken) Expired(now time.Time) bool {
	return t.ExpiresAt != nil && !now.Before(*t.ExpiresAt)
}
