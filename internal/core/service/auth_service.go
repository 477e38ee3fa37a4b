package service

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/ednar28/user-admin/internal/core/domain"
	"github.com/ednar28/user-admin/internal/core/ports"
)

const (
	tokenSecretLength = 40
	tokenAlphabet     = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

// AuthOptions tunes token lifetimes and hashing.
type AuthOptions struct {
	// TokenTTL applies to tokens issued without "remember". Zero disables expiry.
	TokenTTL time.Duration
	// RememberTTL applies to tokens issued with "remember". Zero disables expiry.
	RememberTTL time.Duration
	BcryptCost  int
	Now         func() time.Time
}

// AuthService implements credential verification, token issuing and the
// bearer-token access guard.
type AuthService struct {
	users  ports.UserRepository
	tokens ports.TokenRepository
	audit  ports.AuditLog
	log    zerolog.Logger

	tokenTTL    time.Duration
	rememberTTL time.Duration
	bcryptCost  int
	now         func() time.Time

	// dummyHash is compared against when the email is unknown so every failure
	// path pays for one bcrypt comparison.
	dummyHash []byte
}

func NewAuthService(
	users ports.UserRepository,
	tokens ports.TokenRepository,
	audit ports.AuditLog,
	log zerolog.Logger,
	opts AuthOptions,
) (*AuthService, error) {
	if opts.BcryptCost == 0 {
		opts.BcryptCost = bcrypt.DefaultCost
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if audit == nil {
		audit = nopAudit{}
	}

	dummy, err := bcrypt.GenerateFromPassword([]byte("not-a-real-password"), opts.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("auth service: %w", err)
	}

	return &AuthService{
		users:       users,
		tokens:      tokens,
		audit:       audit,
		log:         log,
		tokenTTL:    opts.TokenTTL,
		rememberTTL: opts.RememberTTL,
		bcryptCost:  opts.BcryptCost,
		now:         opts.Now,
		dummyHash:   dummy,
	}, nil
}

// Verify checks email/password against the stored bcrypt hash. An unknown
// email and a wrong password both yield domain.ErrInvalidCredentials. Empty
// input takes the same store lookup and comparison as any other miss.
func (s *AuthService) Verify(ctx context.Context, email, password string) (*domain.User, error) {
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			_ = bcrypt.CompareHashAndPassword(s.dummyHash, []byte(password))
			return nil, domain.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("verify credentials: %w", err)
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, domain.ErrInvalidCredentials
	}
	return user, nil
}

// IssueToken stores a new personal access token for user and returns its
// plaintext form "<id>|<secret>". The plaintext is not kept anywhere.
func (s *AuthService) IssueToken(ctx context.Context, user *domain.User, name string, remember bool) (string, error) {
	if name == "" {
		name = domain.DefaultTokenName
	}

	secret, err := randomToken(tokenSecretLength)
	if err != nil {
		return "", fmt.Errorf("issue token: %w", err)
	}

	now := s.now().UTC()
	ttl := s.tokenTTL
	if remember {
		ttl = s.rememberTTL
	}
	token := &domain.AccessToken{
		UserID:    user.ID,
		Name:      name,
		TokenHash: hashToken(secret),
		CreatedAt: now,
	}
	if ttl > 0 {
		exp := now.Add(ttl)
		token.ExpiresAt = &exp
	}

	if err := s.tokens.Create(ctx, token); err != nil {
		return "", fmt.Errorf("issue token: %w", err)
	}
	return strconv.FormatInt(token.ID, 10) + "|" + secret, nil
}

// Login verifies the credentials and issues a token in one step.
func (s *AuthService) Login(ctx context.Context, in ports.LoginInput) (*ports.LoginResult, error) {
	user, err := s.Verify(ctx, in.Email, in.Password)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidCredentials) {
			s.log.Warn().Str("email", in.Email).Str("ip", in.ClientIP).Msg("login failed")
			s.audit.Record(domain.AuditEvent{
				Action: domain.AuditLoginFailed,
				Email:  in.Email,
				Detail: map[string]string{"ip": in.ClientIP},
				At:     s.now().UTC(),
			})
		}
		return nil, err
	}

	token, err := s.IssueToken(ctx, user, in.TokenName, in.Remember)
	if err != nil {
		return nil, err
	}

	s.log.Info().Int64("user_id", user.ID).Bool("remember", in.Remember).Msg("login succeeded")
	s.audit.Record(domain.AuditEvent{
		Action:   domain.AuditLoginSucceeded,
		ActorID:  user.ID,
		TargetID: user.ID,
		Email:    user.Email,
		Detail:   map[string]string{"ip": in.ClientIP},
		At:       s.now().UTC(),
	})

	return &ports.LoginResult{User: user, Token: token}, nil
}

// Authenticate resolves a bearer token to the identity of a non-deleted user.
// Every failure collapses to domain.ErrUnauthenticated except store errors.
func (s *AuthService) Authenticate(ctx context.Context, raw string) (*domain.Identity, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, domain.ErrUnauthenticated
	}

	token, err := s.lookupToken(ctx, raw)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	if token.Expired(now) {
		return nil, domain.ErrUnauthenticated
	}

	user, err := s.users.FindByID(ctx, token.UserID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrUnauthenticated
		}
		return nil, fmt.Errorf("authenticate: %w", err)
	}

	if err := s.tokens.Touch(ctx, token.ID, now); err != nil {
		s.log.Warn().Err(err).Int64("token_id", token.ID).Msg("failed to update token last_used_at")
	}

	identity := &domain.Identity{
		UserID:  user.ID,
		TokenID: token.ID,
		Name:    user.Name,
		Email:   user.Email,
	}
	if user.Role != nil {
		identity.Role = user.Role.Name
	}
	return identity, nil
}

// lookupToken accepts both "<id>|<secret>" and a bare secret.
func (s *AuthService) lookupToken(ctx context.Context, raw string) (*domain.AccessToken, error) {
	var (
		token *domain.AccessToken
		err   error
	)

	if idPart, secret, ok := strings.Cut(raw, "|"); ok {
		id, perr := strconv.ParseInt(idPart, 10, 64)
		if perr != nil || id <= 0 || secret == "" {
			return nil, domain.ErrUnauthenticated
		}
		token, err = s.tokens.FindByID(ctx, id)
		if err == nil && subtle.ConstantTimeCompare([]byte(token.TokenHash), []byte(hashToken(secret))) != 1 {
			return nil, domain.ErrUnauthenticated
		}
	} else {
		token, err = s.tokens.FindByHash(ctx, hashToken(raw))
	}

	if err != nil {
		if errors.Is(err, domain.ErrTokenNotFound) {
			return nil, domain.ErrUnauthenticated
		}
		return nil, fmt.Errorf("authenticate: %w", err)
	}
	return token, nil
}

// Authorize reports whether the identity's role grants permission.
func (s *AuthService) Authorize(identity *domain.Identity, permission domain.Permission) bool {
	return identity != nil && domain.Grants(identity.Role, permission)
}

// Logout revokes the token the identity authenticated with. Other tokens of
// the same user keep working.
func (s *AuthService) Logout(ctx context.Context, identity *domain.Identity) error {
	if err := s.tokens.Delete(ctx, identity.TokenID); err != nil && !errors.Is(err, domain.ErrTokenNotFound) {
		return fmt.Errorf("logout: %w", err)
	}
	s.audit.Record(domain.AuditEvent{
		Action:   domain.AuditTokenRevoked,
		ActorID:  identity.UserID,
		TargetID: identity.UserID,
		Email:    identity.Email,
		Detail:   map[string]string{"token_id": strconv.FormatInt(identity.TokenID, 10)},
		At:       s.now().UTC(),
	})
	return nil
}

// SetPassword replaces the stored hash of a non-deleted user.
func (s *AuthService) SetPassword(ctx context.Context, userID int64, password string) error {
	if password == "" {
		return domain.FieldError("password", "The password field is required.")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return fmt.Errorf("set password: %w", err)
	}
	if err := s.users.UpdatePassword(ctx, userID, string(hash), s.now().UTC()); err != nil {
		return fmt.Errorf("set password: %w", err)
	}
	return nil
}

func hashToken(secret string) string {
	sum := sha256.Sum256([]byte(secret))
	return hex.EncodeToString(sum[:])
}

// randomToken draws n characters from tokenAlphabet using crypto/rand with
// rejection sampling, so every character is uniformly distributed.
func randomToken(n int) (string, error) {
	const maxByte = 255 - (256 % len(tokenAlphabet))

	out := make([]byte, 0, n)
	buf := make([]byte, n*2)
	for len(out) < n {
		if _, err := rand.Read(buf); err != nil {
			return "", err
		}
		for _, b := range buf {
			if int(b) > maxByte {
				continue
			}
			out = append(out, tokenAlphabet[int(b)%len(tokenAlphabet)])
			if len(out) == n {
				break
			}
		}
	}
	return string(out), nil
}
