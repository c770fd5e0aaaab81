package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/nurpe/erp-console/internal/auth"
	"github.com/nurpe/erp-console/internal/model"
)

const (
	minPasswordLength = 8
	// bcrypt rejects longer inputs.
	maxPasswordBytes = 72
)

type UserStore interface {
	List(ctx context.Context, q model.ListQuery) (*model.Page[model.User], error)
	Get(ctx context.Context, id uuid.UUID) (*model.User, error)
	GetByUsername(ctx context.Context, username string) (*model.User, error)
	Create(ctx context.Context, user *model.User) error
	Update(ctx context.Context, user *model.User) error
	Delete(ctx context.Context, id uuid.UUID) error
	CreateSession(ctx context.Context, session *model.Session) error
	GetSession(ctx context.Context, id uuid.UUID) (*model.Session, error)
	RevokeSession(ctx context.Context, id uuid.UUID, at time.Time) error
	RevokeUserSessions(ctx context.Context, userID uuid.UUID, at time.Time) error
}

type UserService struct {
	repo        UserStore
	departments DepartmentStore
}

type UserInput struct {
	Username     string
	FullName     string
	Email        string
	Position     string
	DepartmentID *uuid.UUID
	Permissions  []string
	Password     string
}

func NewUserService(repo UserStore, departments DepartmentStore) *UserService {
	return &UserService{repo: repo, departments: departments}
}

func (s *UserService) List(ctx context.Context, q model.ListQuery) (*model.Page[model.User], error) {
	return s.repo.List(ctx, q)
}

func (s *UserService) Get(ctx context.Context, id uuid.UUID) (*model.User, error) {
	user, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, storeError(err)
	}
	return user, nil
}

func (s *UserService) Create(ctx context.Context, input UserInput) (*model.User, error) {
	if err := s.validate(ctx, input); err != nil {
		return nil, err
	}
	if err := validPassword(input.Password); err != nil {
		return nil, err
	}
	hash, err := auth.HashPassword(input.Password)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	user := &model.User{ID: uuid.New(), PasswordHash: hash, CreatedAt: now}
	applyUserInput(user, input)
	user.UpdatedAt = now
	if err := s.repo.Create(ctx, user); err != nil {
		return nil, storeError(err)
	}
	return user, nil
}

func (s *UserService) Update(ctx context.Context, id uuid.UUID, input UserInput) (*model.User, error) {
	user, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, storeError(err)
	}
	if err := s.validate(ctx, input); err != nil {
		return nil, err
	}
	applyUserInput(user, input)
	user.UpdatedAt = time.Now()
	if err := s.repo.Update(ctx, user); err != nil {
		return nil, storeError(err)
	}
	return user, nil
}

func (s *UserService) Delete(ctx context.Context, principal model.Principal, id uuid.UUID) error {
	if principal.UserID == id {
		return fmt.Errorf("%w: cannot delete the current user", ErrInvalidInput)
	}
	err := s.repo.Delete(ctx, id)
	if storeError(err) == ErrInvalidInput {
		return ErrConflict
	}
	return storeError(err)
}

// SetBlocked blocks or unblocks a user. Blocking revokes every open session.
func (s *UserService) SetBlocked(ctx context.Context, principal model.Principal, id uuid.UUID, blocked bool) (*model.User, error) {
	if blocked && principal.UserID == id {
		return nil, fmt.Errorf("%w: cannot block the current user", ErrInvalidInput)
	}
	user, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, storeError(err)
	}
	user.Blocked = blocked
	user.UpdatedAt = time.Now()
	if err := s.repo.Update(ctx, user); err != nil {
		return nil, storeError(err)
	}
	if blocked {
		if err := s.repo.RevokeUserSessions(ctx, id, time.Now()); err != nil {
			return nil, err
		}
	}
	return user, nil
}

func (s *UserService) ResetPassword(ctx context.Context, id uuid.UUID, password string) error {
	if err := validPassword(password); err != nil {
		return err
	}
	user, err := s.repo.Get(ctx, id)
	if err != nil {
		return storeError(err)
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}
	user.PasswordHash = hash
	user.UpdatedAt = time.Now()
	if err := s.repo.Update(ctx, user); err != nil {
		return storeError(err)
	}
	return s.repo.RevokeUserSessions(ctx, id, time.Now())
}

func validPassword(password string) error {
	if len(password) < minPasswordLength {
		return fmt.Errorf("%w: password must be at least %d characters", ErrInvalidInput, minPasswordLength)
	}
	if len(password) > maxPasswordBytes {
		return fmt.Errorf("%w: password must be at most %d bytes", ErrInvalidInput, maxPasswordBytes)
	}
	return nil
}

func (s *UserService) validate(ctx context.Context, input UserInput) error {
	if err := required("username", input.Username); err != nil {
		return err
	}
	if err := required("full_name", input.FullName); err != nil {
		return err
	}
	if err := validEmail(strings.TrimSpace(input.Email)); err != nil {
		return err
	}
	for _, code := range input.Permissions {
		if !model.IsKnownPermission(code) {
			return fmt.Errorf("%w: unknown permission %q", ErrInvalidInput, code)
		}
	}
	if input.DepartmentID != nil {
		if _, err := s.departments.Get(ctx, *input.DepartmentID); err != nil {
			if storeError(err) == ErrNotFound {
				return fmt.Errorf("%w: department not found", ErrInvalidInput)
			}
			return err
		}
	}
	return nil
}

func applyUserInput(user *model.User, input UserInput) {
	user.Username = strings.TrimSpace(input.Username)
	user.FullName = strings.TrimSpace(input.FullName)
	user.Email = strings.TrimSpace(input.Email)
	user.Position = strings.TrimSpace(input.Position)
	user.DepartmentID = input.DepartmentID

	seen := make(map[string]struct{}, len(input.Permissions))
	perms := make(model.StringList, 0, len(input.Permissions))
	for _, code := range input.Permissions {
		if _, ok := seen[code]; ok {
			continue
		}
		seen[code] = struct{}{}
		perms = append(perms, code)
	}
	user.Permissions = perms
}
