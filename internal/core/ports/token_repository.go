package ports

import (
	"context"
	"time"

	"github.com/ednar28/user-admin/internal/core/domain"
)

// TokenRepository persists personal access tokens.
type TokenRepository interface {
	Create(ctx context.Context, token *domain.AccessToken) error
	FindByID(ctx context.Context, id int64) (*domain.AccessToken, error)
	FindByHash(ctx context.Context, hash string) (*domain.AccessToken, error)
	Touch(ctx context.Context, id int64, at time.Time) error
	Delete(ctx context.Context, id int64) error
}
