// Package memstore keeps every collection in process memory. It is the
// "memory" database driver used for local development and by the tests.
package memstore

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"memories-backend/internal/apperr"
	"memories-backend/internal/models"
)

func limit[T any](items []T, n int) []T {
	if n > 0 && len(items) > n {
		return items[:n]
	}
	return items
}

// Users is an in-memory user collection
type Users struct {
	mu    sync.RWMutex
	users map[string]models.User
}

// NewUsers creates an empty user collection
func NewUsers() *Users {
	return &Users{users: make(map[string]models.User)}
}

// Create creates a new user; the email must be unused
func (s *Users) Create(ctx context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email == user.Email {
			return fmt.Errorf("email %s: %w", user.Email, apperr.ErrDuplicate)
		}
	}
	s.users[user.ID] = *user
	return nil
}

// GetByID retrieves a user by ID
func (s *Users) GetByID(ctx context.Context, id string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return nil, fmt.Errorf("user %s: %w", id, apperr.ErrNotFound)
	}
	return &u, nil
}

// GetByEmail retrieves a user by email
func (s *Users) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, fmt.Errorf("user %s: %w", email, apperr.ErrNotFound)
}

func (s *Users) update(id string, fn func(u *models.User) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return fmt.Errorf("user %s: %w", id, apperr.ErrNotFound)
	}
	if err := fn(&u); err != nil {
		return err
	}
	u.UpdatedAt = time.Now()
	s.users[id] = u
	return nil
}

// UpdateProfile merges the non-nil name and email into the user
func (s *Users) UpdateProfile(ctx context.Context, id string, name, email *string) error {
	return s.update(id, func(u *models.User) error {
		if email != nil {
			for otherID, other := range s.users {
				if otherID != id && other.Email == *email {
					return fmt.Errorf("email %s: %w", *email, apperr.ErrDuplicate)
				}
			}
			u.Email = *email
		}
		if name != nil {
			u.Name = *name
		}
		return nil
	})
}

// UpdatePasswordHash replaces the password hash of a user
func (s *Users) UpdatePasswordHash(ctx context.Context, id, hash string) error {
	return s.update(id, func(u *models.User) error {
		u.PasswordHash = hash
		return nil
	})
}

// UpdatePreferences merges the non-nil preference fields into the user
func (s *Users) UpdatePreferences(ctx context.Context, id string, patch models.PreferencePatch) error {
	return s.update(id, func(u *models.User) error {
		if patch.DarkMode != nil {
			v := *patch.DarkMode
			u.DarkMode = &v
		}
		if patch.EmailNotifications != nil {
			v := *patch.EmailNotifications
			u.EmailNotifications = &v
		}
		return nil
	})
}

// UpdatePushToken updates the push token for a user
func (s *Users) UpdatePushToken(ctx context.Context, userID string, pushToken *string) error {
	return s.update(userID, func(u *models.User) error {
		u.PushToken = pushToken
		return nil
	})
}

// ListPushTokens returns the push tokens of every other enabled user whose
// notification flag is on or unset
func (s *Users) ListPushTokens(ctx context.Context, excludeUserID string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var tokens []string
	for id, u := range s.users {
		if id == excludeUserID || u.Disabled || u.PushToken == nil {
			continue
		}
		if u.EmailNotifications != nil && !*u.EmailNotifications {
			continue
		}
		tokens = append(tokens, *u.PushToken)
	}
	sort.Strings(tokens)
	return tokens, nil
}

// SetDisabled disables or re-enables an account
func (s *Users) SetDisabled(id string, disabled bool) error {
	return s.update(id, func(u *models.User) error {
		u.Disabled = disabled
		return nil
	})
}

// Tokens is an in-memory revocation list
type Tokens struct {
	mu      sync.Mutex
	revoked map[string]time.Time
}

// NewTokens creates an empty revocation list
func NewTokens() *Tokens {
	return &Tokens{revoked: make(map[string]time.Time)}
}

// Revoke marks jti as revoked until expiresAt and drops expired entries
func (s *Tokens) Revoke(ctx context.Context, jti string, expiresAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	for id, exp := range s.revoked {
		if exp.Before(now) {
			delete(s.revoked, id)
		}
	}
	s.revoked[jti] = expiresAt
	return nil
}

// IsRevoked reports whether jti has been revoked
func (s *Tokens) IsRevoked(ctx context.Context, jti string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.revoked[jti]
	return ok, nil
}
