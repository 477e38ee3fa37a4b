package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ednar28/user-admin/internal/core/domain"
	"github.com/ednar28/user-admin/internal/core/ports"
)

const selectToken = `
	SELECT id, user_id, name, token_hash, last_used_at, expires_at, created_at
	FROM personal_access_tokens`

// TokenRepository implements ports.TokenRepository over personal_access_tokens.
type TokenRepository struct {
	pool *pgxpool.Pool
}

func NewTokenRepository(pool *pgxpool.Pool) *TokenRepository {
	return &TokenRepository{pool: pool}
}

var _ ports.TokenRepository = (*TokenRepository)(nil)

func (r *TokenRepository) Create(ctx context.Context, t *domain.AccessToken) error {
	err := conn(ctx, r.pool).QueryRow(ctx, `
		INSERT INTO personal_access_tokens (user_id, name, token_hash, expires_at, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`,
		t.UserID, t.Name, t.TokenHash, t.ExpiresAt, t.CreatedAt,
	).Scan(&t.ID)
	if err != nil {
		return fmt.Errorf("insert token: %w", err)
	}
	return nil
}

func (r *TokenRepository) FindByID(ctx context.Context, id int64) (*domain.AccessToken, error) {
	return r.findOne(ctx, selectToken+` WHERE id = $1`, id)
}

func (r *TokenRepository) FindByHash(ctx context.Context, hash string) (*domain.AccessToken, error) {
	return r.findOne(ctx, selectToken+` WHERE token_hash = $1`, hash)
}

func (r *TokenRepository) findOne(ctx context.Context, query string, arg any) (*domain.AccessToken, error) {
	var t domain.AccessToken
	err := conn(ctx, r.pool).QueryRow(ctx, query, arg).Scan(
		&t.ID,
		&t.UserID,
		&t.Name,
		&t.TokenHash,
		&t.LastUsedAt,
		&t.ExpiresAt,
		&t.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrTokenNotFound
		}
		return nil, fmt.Errorf("query token: %w", err)
	}
	return &t, nil
}

func (r *TokenRepository) Touch(ctx context.Context, id int64, at time.Time) error {
	if _, err := conn(ctx, r.pool).Exec(ctx,
		`UPDATE personal_access_tokens SET last_used_at = $2 WHERE id = $1`, id, at,
	); err != nil {
		return fmt.Errorf("touch token: %w", err)
	}
	return nil
}

func (r *TokenRepository) Delete(ctx context.Context, id int64) error {
	tag, err := conn(ctx, r.pool).Exec(ctx, `DELETE FROM personal_access_tokens WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete token: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrTokenNotFound
	}
	return nil
}
