// Package memory implements the process-lifetime entity store for users,
// categories and expenses, together with the owner-scoped queries and
// aggregates built on top of it.
//
// Every method that touches categories or expenses takes the caller's user
// id and treats records of other users exactly like missing ones.
package memory

import (
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"

	"tally/internal/auth"
	"tally/internal/core"
)

// PasswordHasher hashes and verifies user passwords.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Compare(digest, password string) bool
	CompareDummy(password string)
}

// Store keeps all entities in maps guarded by one RWMutex. Each public method
// holds the lock for its whole read or read-modify-write, so no caller sees a
// partially applied mutation.
type Store struct {
	mu sync.RWMutex

	users        map[int64]core.User
	usersByEmail map[string]int64
	categories   map[int64]core.Category
	expenses     map[int64]core.Expense

	nextUserID     int64
	nextCategoryID int64
	nextExpenseID  int64

	hasher PasswordHasher
	now    func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the time source used for createdAt stamps and
// statistics windows.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// WithHasher overrides the password hasher.
func WithHasher(h PasswordHasher) Option {
	return func(s *Store) {
		s.hasher = h
	}
}

// New returns an empty store. Ids start at 1 for every entity type.
func New(opts ...Option) *Store {
	s := &Store{
		users:          make(map[int64]core.User),
		usersByEmail:   make(map[string]int64),
		categories:     make(map[int64]core.Category),
		expenses:       make(map[int64]core.Expense),
		nextUserID:     1,
		nextCategoryID: 1,
		nextExpenseID:  1,
		hasher:         auth.NewHasher(bcrypt.DefaultCost),
		now:            time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}
