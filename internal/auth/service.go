// Package auth issues and verifies shopper sessions backed by the auth_identities table.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"storefront-service/internal/domain"
	"storefront-service/internal/store"
)

var (
	ErrInvalidCredentials = errors.New("auth: invalid email or password")
	ErrEmailTaken         = errors.New("auth: email already registered")
	ErrInvalidToken       = errors.New("auth: invalid or expired token")
	ErrWeakPassword       = errors.New("auth: password must be at least 6 characters")
)

const minPasswordLength = 6

type claims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// Service is the auth gateway. Tokens are HS256 JWTs; sign-out revokes the token id
// until the token would have expired anyway.
type Service struct {
	identities store.IdentityStorer
	secret     []byte
	ttl        time.Duration
	logger     *zap.Logger
	now        func() time.Time

	mu      sync.Mutex
	revoked map[string]time.Time
}

func NewService(identities store.IdentityStorer, secret string, ttl time.Duration, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		identities: identities,
		secret:     []byte(secret),
		ttl:        ttl,
		logger:     logger,
		now:        time.Now,
		revoked:    make(map[string]time.Time),
	}
}

// SignUp creates an identity and returns its first session.
func (s *Service) SignUp(ctx context.Context, email, password string, meta domain.UserMetadata) (*domain.Session, error) {
	email = normalizeEmail(email)
	if len(password) < minPasswordLength {
		return nil, ErrWeakPassword
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("auth: hash password: %w", err)
	}
	if meta.Role == "" {
		meta.Role = string(domain.RoleCustomer)
	}

	identity := &domain.AuthIdentity{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: string(hash),
		Metadata:     meta,
	}
	if err := s.identities.CreateIdentity(ctx, identity); err != nil {
		if errors.Is(err, store.ErrIdentityEmailExists) {
			return nil, ErrEmailTaken
		}
		return nil, err
	}
	s.logger.Info("identity created", zap.String("identity_id", identity.ID))
	return s.issue(identity)
}

// SignIn verifies credentials and returns a new session.
func (s *Service) SignIn(ctx context.Context, email, password string) (*domain.Session, error) {
	identity, err := s.identities.GetIdentityByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, store.ErrIdentityNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(identity.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return s.issue(identity)
}

// SignOut revokes token. Unknown or expired tokens are ignored.
func (s *Service) SignOut(_ context.Context, token string) error {
	c, err := s.parse(token)
	if err != nil {
		return nil
	}
	s.mu.Lock()
	s.revoked[c.ID] = c.ExpiresAt.Time
	s.mu.Unlock()
	return nil
}

// CurrentSession resolves token into a session with fresh identity data.
func (s *Service) CurrentSession(ctx context.Context, token string) (*domain.Session, error) {
	c, err := s.parse(token)
	if err != nil {
		return nil, err
	}
	identity, err := s.identities.GetIdentityByID(ctx, c.Subject)
	if err != nil {
		if errors.Is(err, store.ErrIdentityNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, err
	}
	return &domain.Session{
		AccessToken: token,
		ExpiresAt:   c.ExpiresAt.Time,
		User:        authUser(identity),
	}, nil
}

// Refresh exchanges a valid token for a new one and revokes the old one.
func (s *Service) Refresh(ctx context.Context, token string) (*domain.Session, error) {
	current, err := s.CurrentSession(ctx, token)
	if err != nil {
		return nil, err
	}
	identity, err := s.identities.GetIdentityByID(ctx, current.User.ID)
	if err != nil {
		return nil, err
	}
	next, err := s.issue(identity)
	if err != nil {
		return nil, err
	}
	_ = s.SignOut(ctx, token)
	return next, nil
}

// PruneRevoked forgets revocations whose tokens have expired.
func (s *Service) PruneRevoked() int {
	now := s.now()
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for id, exp := range s.revoked {
		if now.After(exp) {
			delete(s.revoked, id)
			n++
		}
	}
	return n
}

func (s *Service) issue(identity *domain.AuthIdentity) (*domain.Session, error) {
	now := s.now()
	exp := now.Add(s.ttl)
	c := claims{
		Email: identity.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   identity.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(s.secret)
	if err != nil {
		return nil, fmt.Errorf("auth: sign token: %w", err)
	}
	return &domain.Session{
		AccessToken: signed,
		ExpiresAt:   exp.Truncate(time.Second),
		User:        authUser(identity),
	}, nil
}

func (s *Service) parse(token string) (*claims, error) {
	if strings.TrimSpace(token) == "" {
		return nil, ErrInvalidToken
	}
	var c claims
	parsed, err := jwt.ParseWithClaims(token, &c, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(s.now))
	if err != nil || !parsed.Valid {
		return nil, ErrInvalidToken
	}

	s.mu.Lock()
	_, revoked := s.revoked[c.ID]
	s.mu.Unlock()
	if revoked {
		return nil, ErrInvalidToken
	}
	return &c, nil
}

func authUser(identity *domain.AuthIdentity) domain.AuthUser {
	return domain.AuthUser{ID: identity.ID, Email: identity.Email, Metadata: identity.Metadata}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
