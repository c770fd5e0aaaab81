package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/nurpe/erp-console/internal/auth"
	"github.com/nurpe/erp-console/internal/model"
)

type TokenIssuer interface {
	Issue(userID, sessionID uuid.UUID, ttl time.Duration) (string, time.Time, error)
}

type AuthService struct {
	users  UserStore
	tokens TokenIssuer
	ttl    time.Duration
	now    func() time.Time
}

type LoginResult struct {
	Token       string            `json:"token"`
	ExpiresAt   time.Time         `json:"expires_at"`
	User        model.UserSummary `json:"user"`
	Permissions []string          `json:"permissions"`
}

func NewAuthService(users UserStore, tokens TokenIssuer, ttl time.Duration) *AuthService {
	return &AuthService{users: users, tokens: tokens, ttl: ttl, now: time.Now}
}

func (s *AuthService) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if storeError(err) == ErrNotFound {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if !auth.CheckPassword(user.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}
	if user.Blocked {
		return nil, ErrUserBlocked
	}

	now := s.now()
	session := &model.Session{
		ID:        uuid.New(),
		UserID:    user.ID,
		ExpiresAt: now.Add(s.ttl),
		CreatedAt: now,
	}
	if err := s.users.CreateSession(ctx, session); err != nil {
		return nil, err
	}

	token, expiresAt, err := s.tokens.Issue(user.ID, session.ID, s.ttl)
	if err != nil {
		return nil, err
	}
	return &LoginResult{
		Token:       token,
		ExpiresAt:   expiresAt,
		User:        user.Summary(),
		Permissions: []string(user.Permissions),
	}, nil
}

func (s *AuthService) Logout(ctx context.Context, principal model.Principal) error {
	return s.users.RevokeSession(ctx, principal.SessionID, s.now())
}

// Resolve turns validated token claims into a principal. A revoked or lapsed
// session reports ErrSessionExpired; a blocked user reports ErrUserBlocked.
func (s *AuthService) Resolve(ctx context.Context, claims auth.Claims) (model.Principal, error) {
	session, err := s.users.GetSession(ctx, claims.SessionID)
	if err != nil {
		if errors.Is(storeError(err), ErrNotFound) {
			return model.Principal{}, ErrSessionExpired
		}
		return model.Principal{}, err
	}
	if session.UserID != claims.UserID || !session.Active(s.now()) {
		return model.Principal{}, ErrSessionExpired
	}

	user, err := s.users.Get(ctx, claims.UserID)
	if err != nil {
		if errors.Is(storeError(err), ErrNotFound) {
			return model.Principal{}, ErrSessionExpired
		}
		return model.Principal{}, err
	}
	if user.Blocked {
		return model.Principal{}, ErrUserBlocked
	}
	return model.NewPrincipal(*user, session.ID), nil
}
