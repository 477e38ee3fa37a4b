package service

import (
	"context"
	"sort"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/ednar28/user-admin/internal/core/domain"
	"github.com/ednar28/user-admin/internal/core/ports"
)

// ---------------------------------------------------------------------------
// In-memory stub store shared by the service tests. It mirrors the soft-delete
// scope and role join of the Postgres repositories.
// ---------------------------------------------------------------------------

var testNow = time.Date(2021, 5, 28, 6, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return testNow }

type memState struct {
	users       map[int64]*domain.User
	roles       map[string]domain.Role
	memberships map[int64][]int64
	tokens      map[int64]*domain.AccessToken

	nextUserID  int64
	nextTokenID int64

	createErr  error // returned by users.Create when set
	replaceErr error // returned by roles.ReplaceUserRoles when set
	touchErr   error

	emailLookups int
}

func newMemState() *memState {
	return &memState{
		users: make(map[int64]*domain.User),
		roles: map[string]domain.Role{
			domain.RoleSuperadmin: {ID: 1, Name: domain.RoleSuperadmin},
			domain.RoleAdmin:      {ID: 2, Name: domain.RoleAdmin},
		},
		memberships: make(map[int64][]int64),
		tokens:      make(map[int64]*domain.AccessToken),
	}
}

func (s *memState) roleByID(id int64) (domain.Role, bool) {
	for _, r := range s.roles {
		if r.ID == id {
			return r, true
		}
	}
	return domain.Role{}, false
}

func (s *memState) withRole(u *domain.User) *domain.User {
	clone := *u
	clone.Role = nil
	ids := append([]int64(nil), s.memberships[u.ID]...)
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	if len(ids) > 0 {
		if r, ok := s.roleByID(ids[0]); ok {
			clone.Role = &r
		}
	}
	return &clone
}

// seedUser stores a user with the given password and role and returns it.
func (s *memState) seedUser(name, email, password, role string) *domain.User {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		panic(err)
	}
	s.nextUserID++
	u := &domain.User{
		ID:           s.nextUserID,
		Name:         name,
		Email:        email,
		PasswordHash: string(hash),
		CreatedAt:    testNow,
		UpdatedAt:    testNow,
	}
	s.users[u.ID] = u
	if role != "" {
		s.memberships[u.ID] = []int64{s.roles[role].ID}
	}
	return s.withRole(u)
}

type memUsers struct{ s *memState }

func (r memUsers) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	r.s.emailLookups++
	for _, u := range r.s.users {
		if u.Email == email && u.DeletedAt == nil {
			return r.s.withRole(u), nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r memUsers) FindByID(_ context.Context, id int64) (*domain.User, error) {
	u, ok := r.s.users[id]
	if !ok || u.DeletedAt != nil {
		return nil, domain.ErrUserNotFound
	}
	return r.s.withRole(u), nil
}

func (r memUsers) FindByIDWithTrashed(_ context.Context, id int64) (*domain.User, error) {
	u, ok := r.s.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return r.s.withRole(u), nil
}

func (r memUsers) ListAdmins(_ context.Context, f ports.ListAdminsFilter) ([]*domain.User, int64, error) {
	var matched []*domain.User
	for _, u := range r.s.users {
		if u.DeletedAt != nil || u.ID == f.ExcludeID || len(r.s.memberships[u.ID]) == 0 {
			continue
		}
		matched = append(matched, r.s.withRole(u))
	}
	sort.Slice(matched, func(i, j int) bool {
		if matched[i].Name != matched[j].Name {
			return matched[i].Name < matched[j].Name
		}
		return matched[i].ID < matched[j].ID
	})

	total := int64(len(matched))
	skip := (f.Page - 1) * f.PerPage
	if skip >= len(matched) {
		return []*domain.User{}, total, nil
	}
	end := skip + f.PerPage
	if end > len(matched) {
		end = len(matched)
	}
	return matched[skip:end], total, nil
}

func (r memUsers) EmailTaken(_ context.Context, email string, exceptID int64) (bool, error) {
	for _, u := range r.s.users {
		if u.Email == email && u.DeletedAt == nil && u.ID != exceptID {
			return true, nil
		}
	}
	return false, nil
}

func (r memUsers) Create(_ context.Context, user *domain.User) error {
	if r.s.createErr != nil {
		return r.s.createErr
	}
	r.s.nextUserID++
	user.ID = r.s.nextUserID
	clone := *user
	clone.Role = nil
	r.s.users[user.ID] = &clone
	return nil
}

func (r memUsers) Update(_ context.Context, user *domain.User) error {
	u, ok := r.s.users[user.ID]
	if !ok || u.DeletedAt != nil {
		return domain.ErrUserNotFound
	}
	u.Name = user.Name
	u.Email = user.Email
	u.UpdatedAt = user.UpdatedAt
	return nil
}

func (r memUsers) UpdatePassword(_ context.Context, id int64, hash string, at time.Time) error {
	u, ok := r.s.users[id]
	if !ok || u.DeletedAt != nil {
		return domain.ErrUserNotFound
	}
	u.PasswordHash = hash
	u.UpdatedAt = at
	return nil
}

func (r memUsers) SoftDelete(_ context.Context, id int64, at time.Time) error {
	u, ok := r.s.users[id]
	if !ok || u.DeletedAt != nil {
		return domain.ErrUserNotFound
	}
	deletedAt := at
	u.DeletedAt = &deletedAt
	return nil
}

type memRoles struct{ s *memState }

func (r memRoles) FindByName(_ context.Context, name string) (*domain.Role, error) {
	role, ok := r.s.roles[name]
	if !ok {
		return nil, domain.ErrUnknownRole
	}
	return &role, nil
}

func (r memRoles) ReplaceUserRoles(_ context.Context, userID, roleID int64) error {
	if r.s.replaceErr != nil {
		return r.s.replaceErr
	}
	r.s.memberships[userID] = []int64{roleID}
	return nil
}

func (r memRoles) RolesOf(_ context.Context, userID int64) ([]domain.Role, error) {
	var out []domain.Role
	for _, id := range r.s.memberships[userID] {
		if role, ok := r.s.roleByID(id); ok {
			out = append(out, role)
		}
	}
	return out, nil
}

type memTokens struct{ s *memState }

func (r memTokens) Create(_ context.Context, t *domain.AccessToken) error {
	r.s.nextTokenID++
	t.ID = r.s.nextTokenID
	clone := *t
	r.s.tokens[t.ID] = &clone
	return nil
}

func (r memTokens) FindByID(_ context.Context, id int64) (*domain.AccessToken, error) {
	t, ok := r.s.tokens[id]
	if !ok {
		return nil, domain.ErrTokenNotFound
	}
	clone := *t
	return &clone, nil
}

func (r memTokens) FindByHash(_ context.Context, hash string) (*domain.AccessToken, error) {
	for _, t := range r.s.tokens {
		if t.TokenHash == hash {
			clone := *t
			return &clone, nil
		}
	}
	return nil, domain.ErrTokenNotFound
}

func (r memTokens) Touch(_ context.Context, id int64, at time.Time) error {
	if r.s.touchErr != nil {
		return r.s.touchErr
	}
	if t, ok := r.s.tokens[id]; ok {
		used := at
		t.LastUsedAt = &used
	}
	return nil
}

func (r memTokens) Delete(_ context.Context, id int64) error {
	if _, ok := r.s.tokens[id]; !ok {
		return domain.ErrTokenNotFound
	}
	delete(r.s.tokens, id)
	return nil
}

// memTx snapshots users and memberships and restores them when fn fails.
type memTx struct{ s *memState }

func (t memTx) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	users := make(map[int64]*domain.User, len(t.s.users))
	for id, u := range t.s.users {
		clone := *u
		users[id] = &clone
	}
	memberships := make(map[int64][]int64, len(t.s.memberships))
	for id, roles := range t.s.memberships {
		memberships[id] = append([]int64(nil), roles...)
	}

	if err := fn(ctx); err != nil {
		t.s.users = users
		t.s.memberships = memberships
		return err
	}
	return nil
}

type recordingAudit struct {
	events []domain.AuditEvent
}

func (a *recordingAudit) Record(e domain.AuditEvent) { a.events = append(a.events, e) }

func (a *recordingAudit) actions() []domain.AuditAction {
	out := make([]domain.AuditAction, len(a.events))
	for i, e := range a.events {
		out[i] = e.Action
	}
	return out
}

func newTestAuthService(st *memState, audit ports.AuditLog, opts AuthOptions) *AuthService {
	opts.BcryptCost = bcrypt.MinCost
	if opts.Now == nil {
		opts.Now = fixedClock
	}
	svc, err := NewAuthService(memUsers{st}, memTokens{st}, audit, zerolog.Nop(), opts)
	if err != nil {
		panic(err)
	}
	return svc
}

func newTestUserService(st *memState, audit ports.AuditLog) *UserService {
	return NewUserService(
		memUsers{st},
		memRoles{st},
		NewRoleService(memRoles{st}, zerolog.Nop()),
		memTx{st},
		audit,
		zerolog.Nop(),
		UserOptions{BcryptCost: bcrypt.MinCost, Now: fixedClock},
	)
}
