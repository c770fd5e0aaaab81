// Package session persists the console's signed-in profile between runs and
// exposes the permission set used to gate actions.
package session

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/nurpe/erp-console/internal/model"
)

// CurrentUserKey is the storage key holding the signed-in profile.
const CurrentUserKey = "erp.currentUser"

// Profile is the cached result of a successful login.
type Profile struct {
	User        model.UserSummary `json:"user"`
	Token       string            `json:"token"`
	ExpiresAt   time.Time         `json:"expires_at"`
	Permissions []string          `json:"permissions"`
	BaseURL     string            `json:"base_url,omitempty"`
}

// Expired reports whether the access token has lapsed at now.
func (p Profile) Expired(now time.Time) bool {
	return !p.ExpiresAt.IsZero() && !now.Before(p.ExpiresAt)
}

// Store is a small JSON key/value file, rewritten atomically on every change.
type Store struct {
	mu   sync.Mutex
	path string
}

func NewStore(path string) *Store {
	return &Store{path: path}
}

func (s *Store) Path() string { return s.path }

func (s *Store) Save(profile Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	values, err := s.read()
	if err != nil {
		return err
	}
	raw, err := json.Marshal(profile)
	if err != nil {
		return err
	}
	values[CurrentUserKey] = raw
	return s.write(values)
}

// Load returns the cached profile. A missing or unreadable entry reports
// false so callers fall back to signing in again.
func (s *Store) Load() (*Profile, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	values, err := s.read()
	if err != nil {
		return nil, false
	}
	raw, ok := values[CurrentUserKey]
	if !ok {
		return nil, false
	}
	var profile Profile
	if err := json.Unmarshal(raw, &profile); err != nil {
		return nil, false
	}
	return &profile, true
}

func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	values, err := s.read()
	if err != nil {
		values = map[string]json.RawMessage{}
	}
	if _, ok := values[CurrentUserKey]; !ok && err == nil {
		return nil
	}
	delete(values, CurrentUserKey)
	return s.write(values)
}

func (s *Store) read() (map[string]json.RawMessage, error) {
	values := map[string]json.RawMessage{}
	b, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return values, nil
	}
	if err != nil {
		return nil, err
	}
	if len(b) == 0 {
		return values, nil
	}
	if err := json.Unmarshal(b, &values); err != nil {
		return nil, err
	}
	return values, nil
}

func (s *Store) write(values map[string]json.RawMessage) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return err
	}
	b, err := json.MarshalIndent(values, "", "  ")
	if err != nil {
		return err
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, s.path)
}
