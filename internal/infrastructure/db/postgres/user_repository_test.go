package postgres

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ednar28/user-admin/internal/core/domain"
	"github.com/ednar28/user-admin/internal/core/ports"
)

var fixedTime = time.Date(2021, 5, 28, 6, 0, 0, 0, time.UTC)

func insertUser(t *testing.T, users *UserRepository, roles *RoleRepository, name, email, role string) *domain.User {
	t.Helper()
	ctx := context.Background()

	u := &domain.User{
		Name:         name,
		Email:        email,
		PasswordHash: "$2a$04$placeholderplaceholderplaceholderplaceholderplacehold",
		CreatedAt:    fixedTime,
		UpdatedAt:    fixedTime,
	}
	require.NoError(t, users.Create(ctx, u))
	require.NotZero(t, u.ID)

	if role != "" {
		r, err := roles.FindByName(ctx, role)
		require.NoError(t, err)
		require.NoError(t, roles.ReplaceUserRoles(ctx, u.ID, r.ID))
	}
	return u
}

func TestUserRepository_CreateAndFind(t *testing.T) {
	pool := requireDB(t)
	users, roles := NewUserRepository(pool), NewRoleRepository(pool)
	ctx := context.Background()

	created := insertUser(t, users, roles, "Rizky", "rizky@example.com", domain.RoleSuperadmin)

	byID, err := users.FindByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Rizky", byID.Name)
	assert.Nil(t, byID.DeletedAt)
	require.NotNil(t, byID.Role)
	assert.Equal(t, domain.RoleSuperadmin, byID.Role.Name)
	assert.True(t, byID.CreatedAt.Equal(fixedTime))

	byEmail, err := users.FindByEmail(ctx, "rizky@example.com")
	require.NoError(t, err)
	assert.Equal(t, created.ID, byEmail.ID)

	_, err = users.FindByID(ctx, created.ID+100)
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
}

func TestUserRepository_CreateDuplicateEmail(t *testing.T) {
	pool := requireDB(t)
	users, roles := NewUserRepository(pool), NewRoleRepository(pool)

	insertUser(t, users, roles, "First", "dup@example.com", domain.RoleAdmin)

	err := users.Create(context.Background(), &domain.User{
		Name: "Second", Email: "dup@example.com", PasswordHash: "x", CreatedAt: fixedTime, UpdatedAt: fixedTime,
	})
	assert.ErrorIs(t, err, domain.ErrEmailTaken)
}

func TestUserRepository_SoftDelete(t *testing.T) {
	pool := requireDB(t)
	users, roles := NewUserRepository(pool), NewRoleRepository(pool)
	ctx := context.Background()

	u := insertUser(t, users, roles, "Gone", "gone@example.com", domain.RoleAdmin)
	at := fixedTime.Add(time.Hour)

	require.NoError(t, users.SoftDelete(ctx, u.ID, at))
	assert.ErrorIs(t, users.SoftDelete(ctx, u.ID, at), domain.ErrUserNotFound)

	_, err := users.FindByID(ctx, u.ID)
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
	_, err = users.FindByEmail(ctx, "gone@example.com")
	assert.ErrorIs(t, err, domain.ErrUserNotFound)

	trashed, err := users.FindByIDWithTrashed(ctx, u.ID)
	require.NoError(t, err)
	require.NotNil(t, trashed.DeletedAt)
	assert.True(t, trashed.DeletedAt.Equal(at))
	assert.NotNil(t, trashed.Role, "role links survive a soft delete")

	// The address is free again once its owner is soft-deleted.
	taken, err := users.EmailTaken(ctx, "gone@example.com", 0)
	require.NoError(t, err)
	assert.False(t, taken)
	insertUser(t, users, roles, "Reused", "gone@example.com", domain.RoleAdmin)
}

func TestUserRepository_ListAdmins(t *testing.T) {
	pool := requireDB(t)
	users, roles := NewUserRepository(pool), NewRoleRepository(pool)
	ctx := context.Background()

	actor := insertUser(t, users, roles, "Alice", "alice@example.com", domain.RoleSuperadmin)
	insertUser(t, users, roles, "Charlie", "charlie@example.com", domain.RoleAdmin)
	insertUser(t, users, roles, "Bob", "bob@example.com", domain.RoleSuperadmin)
	insertUser(t, users, roles, "Norole", "norole@example.com", "")
	gone := insertUser(t, users, roles, "Aaron", "aaron@example.com", domain.RoleAdmin)
	require.NoError(t, users.SoftDelete(ctx, gone.ID, fixedTime))

	list, total, err := users.ListAdmins(ctx, ports.ListAdminsFilter{ExcludeID: actor.ID, Page: 1, PerPage: 15})
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	require.Len(t, list, 2)
	assert.Equal(t, "Bob", list[0].Name)
	assert.Equal(t, "Charlie", list[1].Name)
	for _, u := range list {
		assert.NotNil(t, u.Role)
	}
}

func TestUserRepository_ListAdminsPagination(t *testing.T) {
	pool := requireDB(t)
	users, roles := NewUserRepository(pool), NewRoleRepository(pool)
	ctx := context.Background()

	for i := 0; i < 17; i++ {
		insertUser(t, users, roles, fmt.Sprintf("User %02d", i), fmt.Sprintf("u%02d@example.com", i), domain.RoleAdmin)
	}

	page2, total, err := users.ListAdmins(ctx, ports.ListAdminsFilter{Page: 2, PerPage: 15})
	require.NoError(t, err)
	assert.EqualValues(t, 17, total)
	require.Len(t, page2, 2)
	assert.Equal(t, "User 15", page2[0].Name)

	page9, total, err := users.ListAdmins(ctx, ports.ListAdminsFilter{Page: 9, PerPage: 15})
	require.NoError(t, err)
	assert.EqualValues(t, 17, total)
	assert.Empty(t, page9)
}

func TestUserRepository_UpdateAndEmailTaken(t *testing.T) {
	pool := requireDB(t)
	users, roles := NewUserRepository(pool), NewRoleRepository(pool)
	ctx := context.Background()

	a := insertUser(t, users, roles, "A", "a@example.com", domain.RoleAdmin)
	b := insertUser(t, users, roles, "B", "b@example.com", domain.RoleAdmin)

	taken, err := users.EmailTaken(ctx, "a@example.com", a.ID)
	require.NoError(t, err)
	assert.False(t, taken, "own address is not a conflict")

	taken, err = users.EmailTaken(ctx, "a@example.com", b.ID)
	require.NoError(t, err)
	assert.True(t, taken)

	b.Email = "a@example.com"
	assert.ErrorIs(t, users.Update(ctx, b), domain.ErrEmailTaken)

	b.Name, b.Email, b.UpdatedAt = "Bee", "bee@example.com", fixedTime.Add(time.Minute)
	require.NoError(t, users.Update(ctx, b))

	got, err := users.FindByID(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, "Bee", got.Name)
	assert.Equal(t, "bee@example.com", got.Email)
	assert.True(t, got.UpdatedAt.Equal(fixedTime.Add(time.Minute)))

	missing := &domain.User{ID: 9999, Name: "x", Email: "x@example.com", UpdatedAt: fixedTime}
	assert.ErrorIs(t, users.Update(ctx, missing), domain.ErrUserNotFound)
}

func TestUserRepository_UpdatePassword(t *testing.T) {
	pool := requireDB(t)
	users, roles := NewUserRepository(pool), NewRoleRepository(pool)
	ctx := context.Background()

	u := insertUser(t, users, roles, "A", "a@example.com", domain.RoleAdmin)
	require.NoError(t, users.UpdatePassword(ctx, u.ID, "new-hash", fixedTime))

	got, err := users.FindByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "new-hash", got.PasswordHash)

	assert.ErrorIs(t, users.UpdatePassword(ctx, 9999, "h", fixedTime), domain.ErrUserNotFound)
}

func TestTransactor_RollsBackOnError(t *testing.T) {
	pool := requireDB(t)
	users, roles := NewUserRepository(pool), NewRoleRepository(pool)
	tx := NewTransactor(pool)
	ctx := context.Background()

	boom := errors.New("boom")
	err := tx.WithinTx(ctx, func(ctx context.Context) error {
		u := &domain.User{Name: "Tx", Email: "tx@example.com", PasswordHash: "x", CreatedAt: fixedTime, UpdatedAt: fixedTime}
		if err := users.Create(ctx, u); err != nil {
			return err
		}
		role, err := roles.FindByName(ctx, domain.RoleAdmin)
		if err != nil {
			return err
		}
		if err := roles.ReplaceUserRoles(ctx, u.ID, role.ID); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	taken, err := users.EmailTaken(ctx, "tx@example.com", 0)
	require.NoError(t, err)
	assert.False(t, taken, "insert must be rolled back")
}
