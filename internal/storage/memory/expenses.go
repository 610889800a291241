package memory

import (
	"context"

	"tally/internal/core"
)

var errUnknownCategory = core.NewValidationError("categoryId", "category not found")

// CreateExpense stores a new expense. A category reference must point to a
// category of the same user.
func (s *Store) CreateExpense(ctx context.Context, n core.NewExpense) (core.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if n.CategoryID != nil {
		if _, ok := s.ownedCategory(*n.CategoryID, n.UserID); !ok {
			return core.Expense{}, errUnknownCategory
		}
	}

	e := core.Expense{
		ID:          s.nextExpenseID,
		UserID:      n.UserID,
		CategoryID:  n.CategoryID,
		Title:       n.Title,
		Amount:      n.Amount,
		Date:        n.Date,
		Description: n.Description,
		CreatedAt:   s.now(),
	}.Clone()
	s.nextExpenseID++
	s.expenses[e.ID] = e
	return e.Clone(), nil
}

// GetExpense returns core.ErrNotFound for missing or foreign expenses.
func (s *Store) GetExpense(ctx context.Context, id, userID int64) (core.Expense, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.ownedExpense(id, userID)
	if !ok {
		return core.Expense{}, core.ErrNotFound
	}
	return e.Clone(), nil
}

// UpdateExpense merges u onto the expense. Ownership is checked first, so a
// foreign id yields core.ErrNotFound even when the update is otherwise bad.
func (s *Store) UpdateExpense(ctx context.Context, id, userID int64, u core.ExpenseUpdate) (core.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.ownedExpense(id, userID)
	if !ok {
		return core.Expense{}, core.ErrNotFound
	}
	if u.CategoryID != nil {
		if _, ok := s.ownedCategory(*u.CategoryID, userID); !ok {
			return core.Expense{}, errUnknownCategory
		}
	}

	e = u.Apply(e)
	s.expenses[id] = e
	return e.Clone(), nil
}

// DeleteExpense removes the expense and returns its last state.
func (s *Store) DeleteExpense(ctx context.Context, id, userID int64) (core.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.ownedExpense(id, userID)
	if !ok {
		return core.Expense{}, core.ErrNotFound
	}
	delete(s.expenses, id)
	return e.Clone(), nil
}

// ownedExpense requires s.mu held.
func (s *Store) ownedExpense(id, userID int64) (core.Expense, bool) {
	e, ok := s.expenses[id]
	if !ok || e.UserID != userID {
		return core.Expense{}, false
	}
	return e, true
}
