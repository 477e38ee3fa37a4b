package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ednar28/user-admin/internal/core/domain"
	"github.com/ednar28/user-admin/internal/core/ports"
)

// RoleRepository implements ports.RoleRepository over roles and user_roles.
type RoleRepository struct {
	pool *pgxpool.Pool
	tx   *Transactor
}

func NewRoleRepository(pool *pgxpool.Pool) *RoleRepository {
	return &RoleRepository{pool: pool, tx: NewTransactor(pool)}
}

var _ ports.RoleRepository = (*RoleRepository)(nil)

func (r *RoleRepository) FindByName(ctx context.Context, name string) (*domain.Role, error) {
	var role domain.Role
	err := conn(ctx, r.pool).QueryRow(ctx,
		`SELECT id, name FROM roles WHERE name = $1`, name,
	).Scan(&role.ID, &role.Name)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrUnknownRole
		}
		return nil, fmt.Errorf("query role: %w", err)
	}
	return &role, nil
}

// ReplaceUserRoles removes every role link of userID and inserts roleID, in
// the caller's transaction when there is one and in a fresh one otherwise.
// The users row is locked first so concurrent replacements for one user run
// one after the other.
func (r *RoleRepository) ReplaceUserRoles(ctx context.Context, userID, roleID int64) error {
	return r.tx.WithinTx(ctx, func(ctx context.Context) error {
		q := conn(ctx, r.pool)
		var locked int
		if err := q.QueryRow(ctx, `SELECT 1 FROM users WHERE id = $1 FOR UPDATE`, userID).Scan(&locked); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return domain.ErrUserNotFound
			}
			return fmt.Errorf("lock user: %w", err)
		}
		if _, err := q.Exec(ctx, `DELETE FROM user_roles WHERE user_id = $1`, userID); err != nil {
			return fmt.Errorf("clear roles: %w", err)
		}
		if _, err := q.Exec(ctx,
			`INSERT INTO user_roles (user_id, role_id) VALUES ($1, $2)`, userID, roleID,
		); err != nil {
			code, constraint := pgErrorCode(err)
			switch {
			case code == pgForeignKeyViolation && constraint == "user_roles_role_id_fkey":
				return domain.ErrUnknownRole
			case code == pgForeignKeyViolation:
				return domain.ErrUserNotFound
			}
			return fmt.Errorf("insert role link: %w", err)
		}
		return nil
	})
}

func (r *RoleRepository) RolesOf(ctx context.Context, userID int64) ([]domain.Role, error) {
	rows, err := conn(ctx, r.pool).Query(ctx, `
		SELECT ro.id, ro.name
		FROM user_roles ur
		JOIN roles ro ON ro.id = ur.role_id
		WHERE ur.user_id = $1
		ORDER BY ro.id`, userID)
	if err != nil {
		return nil, fmt.Errorf("query roles: %w", err)
	}
	defer rows.Close()

	var roles []domain.Role
	for rows.Next() {
		var role domain.Role
		if err := rows.Scan(&role.ID, &role.Name); err != nil {
			return nil, fmt.Errorf("scan role: %w", err)
		}
		roles = append(roles, role)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate roles: %w", err)
	}
	return roles, nil
}
