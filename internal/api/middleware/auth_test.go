package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/ednar28/user-admin/internal/core/domain"
)

type stubGuard struct {
	tokens map[string]*domain.Identity
	err    error
	seen   string
}

func (g *stubGuard) Authenticate(_ context.Context, token string) (*domain.Identity, error) {
	g.seen = token
	if g.err != nil {
		return nil, g.err
	}
	id, ok := g.tokens[token]
	if !ok {
		return nil, domain.ErrUnauthenticated
	}
	return id, nil
}

func runAuth(t *testing.T, guard Authenticator, header string) (called bool, identity *domain.Identity, err error) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/user", nil)
	if header != "" {
		req.Header.Set(echo.HeaderAuthorization, header)
	}
	c := e.NewContext(req, httptest.NewRecorder())

	err = Auth(guard)(func(c echo.Context) error {
		called = true
		identity, _ = c.Get(IdentityKey).(*domain.Identity)
		return nil
	})(c)
	return called, identity, err
}

func TestAuthMiddleware_ValidToken(t *testing.T) {
	alice := &domain.Identity{UserID: 7, TokenID: 3, Name: "Alice", Role: domain.RoleAdmin}
	guard := &stubGuard{tokens: map[string]*domain.Identity{"3|secret": alice}}

	called, identity, err := runAuth(t, guard, "Bearer 3|secret")
	if err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if !called {
		t.Fatalf("next not called")
	}
	if identity != alice {
		t.Fatalf("identity not set, got %+v", identity)
	}
}

func TestAuthMiddleware_SchemeIsCaseInsensitive(t *testing.T) {
	guard := &stubGuard{tokens: map[string]*domain.Identity{"tok": {UserID: 1}}}

	called, _, err := runAuth(t, guard, "bearer   tok ")
	if err != nil || !called {
		t.Fatalf("expected lowercase scheme to pass, err=%v called=%v", err, called)
	}
	if guard.seen != "tok" {
		t.Fatalf("expected trimmed token, got %q", guard.seen)
	}
}

func TestAuthMiddleware_Rejects(t *testing.T) {
	cases := []struct {
		name   string
		header string
	}{
		{"missing header", ""},
		{"wrong scheme", "Basic dXNlcjpwYXNz"},
		{"no token", "Bearer "},
		{"unknown token", "Bearer 9|nope"},
	}
	for _, tc := range cases {
		called, _, err := runAuth(t, &stubGuard{}, tc.header)
		if !errors.Is(err, domain.ErrUnauthenticated) {
			t.Fatalf("%s: expected ErrUnauthenticated, got %v", tc.name, err)
		}
		if called {
			t.Fatalf("%s: next must not be called", tc.name)
		}
	}
}

func TestAuthMiddleware_PropagatesStoreError(t *testing.T) {
	boom := errors.New("pool closed")

	_, _, err := runAuth(t, &stubGuard{err: boom}, "Bearer 1|abc")
	if !errors.Is(err, boom) {
		t.Fatalf("expected store error, got %v", err)
	}
}
