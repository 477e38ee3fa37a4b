package handler

import (
	"context"
	"io"
	"net/http/httptest"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/ednar28/user-admin/internal/api/middleware"
	"github.com/ednar28/user-admin/internal/core/domain"
	"github.com/ednar28/user-admin/internal/core/ports"
)

var fixedTime = time.Date(2021, 5, 28, 6, 0, 0, 0, time.UTC)

type stubAuthService struct {
	loginFn  func(ctx context.Context, in ports.LoginInput) (*ports.LoginResult, error)
	logoutFn func(ctx context.Context, identity *domain.Identity) error
}

func (s *stubAuthService) Verify(context.Context, string, string) (*domain.User, error) {
	return nil, domain.ErrInvalidCredentials
}

func (s *stubAuthService) IssueToken(context.Context, *domain.User, string, bool) (string, error) {
	return "", nil
}

func (s *stubAuthService) Login(ctx context.Context, in ports.LoginInput) (*ports.LoginResult, error) {
	return s.loginFn(ctx, in)
}

func (s *stubAuthService) Authenticate(context.Context, string) (*domain.Identity, error) {
	return nil, domain.ErrUnauthenticated
}

func (s *stubAuthService) Authorize(*domain.Identity, domain.Permission) bool { return true }

func (s *stubAuthService) Logout(ctx context.Context, identity *domain.Identity) error {
	return s.logoutFn(ctx, identity)
}

func (s *stubAuthService) SetPassword(context.Context, int64, string) error { return nil }

type stubUserService struct {
	listFn   func(ctx context.Context, actor *domain.Identity, page int) (*ports.UserPage, error)
	createFn func(ctx context.Context, actor *domain.Identity, in ports.UserInput) (*domain.User, error)
	getFn    func(ctx context.Context, actor *domain.Identity, id int64) (*domain.User, error)
	updateFn func(ctx context.Context, actor *domain.Identity, id int64, in ports.UserInput) (*domain.User, error)
	deleteFn func(ctx context.Context, actor *domain.Identity, id int64) (*domain.DeletionReceipt, error)
	trashFn  func(ctx context.Context, id int64) (*domain.User, error)
}

func (s *stubUserService) List(ctx context.Context, actor *domain.Identity, page int) (*ports.UserPage, error) {
	return s.listFn(ctx, actor, page)
}

func (s *stubUserService) Create(ctx context.Context, actor *domain.Identity, in ports.UserInput) (*domain.User, error) {
	return s.createFn(ctx, actor, in)
}

func (s *stubUserService) Get(ctx context.Context, actor *domain.Identity, id int64) (*domain.User, error) {
	return s.getFn(ctx, actor, id)
}

func (s *stubUserService) Update(ctx context.Context, actor *domain.Identity, id int64, in ports.UserInput) (*domain.User, error) {
	return s.updateFn(ctx, actor, id, in)
}

func (s *stubUserService) Delete(ctx context.Context, actor *domain.Identity, id int64) (*domain.DeletionReceipt, error) {
	return s.deleteFn(ctx, actor, id)
}

func (s *stubUserService) FindWithTrashed(ctx context.Context, id int64) (*domain.User, error) {
	return s.trashFn(ctx, id)
}

type stubAuditReader struct {
	events []domain.AuditEvent
	limit  int64
}

func (r *stubAuditReader) ForTarget(_ context.Context, _ int64, limit int64) ([]domain.AuditEvent, error) {
	r.limit = limit
	return r.events, nil
}

// newContext builds an echo.Context with the validator installed and, when
// actor is non-nil, the identity the Auth middleware would have set.
func newContext(method, target string, body io.Reader, actor *domain.Identity) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	e.Validator = NewValidator()
	req := httptest.NewRequest(method, target, body)
	if body != nil {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if actor != nil {
		c.Set(middleware.IdentityKey, actor)
	}
	return c, rec
}

func sampleUser(id int64, name, role string) *domain.User {
	u := &domain.User{
		ID:           id,
		Name:         name,
		Email:        name + "@example.com",
		PasswordHash: "$2a$10$secret",
		CreatedAt:    fixedTime,
		UpdatedAt:    fixedTime,
	}
	if role != "" {
		u.Role = &domain.Role{ID: 1, Name: role}
	}
	return u
}
