package memory

import (
	"context"
	"fmt"

	"tally/internal/core"
)

// CreateUser hashes the password and stores a new user. It returns
// core.ErrConflict when the email is already registered.
func (s *Store) CreateUser(ctx context.Context, n core.NewUser) (core.User, error) {
	// bcrypt is slow; keep it outside the lock.
	digest, err := s.hasher.Hash(n.Password)
	if err != nil {
		return core.User{}, fmt.Errorf("create user: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.usersByEmail[n.Email]; exists {
		return core.User{}, core.ErrConflict
	}

	u := core.User{
		ID:           s.nextUserID,
		Email:        n.Email,
		PasswordHash: digest,
		FullName:     n.FullName,
		CreatedAt:    s.now(),
	}
	s.nextUserID++
	s.users[u.ID] = u
	s.usersByEmail[u.Email] = u.ID
	return u, nil
}

// GetUserByEmail returns core.ErrNotFound when no user has that email.
// Emails match exactly as stored.
func (s *Store) GetUserByEmail(ctx context.Context, email string) (core.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.usersByEmail[email]
	if !ok {
		return core.User{}, core.ErrNotFound
	}
	return s.users[id], nil
}

func (s *Store) GetUserByID(ctx context.Context, id int64) (core.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return core.User{}, core.ErrNotFound
	}
	return u, nil
}

// VerifyPassword returns the user owning email when password matches, and
// core.ErrInvalidCredentials otherwise. Unknown emails still pay for one
// bcrypt compare.
func (s *Store) VerifyPassword(ctx context.Context, email, password string) (core.User, error) {
	u, err := s.GetUserByEmail(ctx, email)
	if err != nil {
		s.hasher.CompareDummy(password)
		return core.User{}, core.ErrInvalidCredentials
	}
	if !s.hasher.Compare(u.PasswordHash, password) {
		return core.User{}, core.ErrInvalidCredentials
	}
	return u, nil
}
