package memory

import (
	"context"
	"fmt"
	"sort"

	"tally/internal/core"
)

// ListCategories returns the user's categories in creation order, each with
// the count and exact total of the user's expenses that reference it.
func (s *Store) ListCategories(ctx context.Context, userID int64) ([]core.CategoryWithStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	index := make(map[int64]int)
	out := make([]core.CategoryWithStats, 0)
	for _, c := range s.categories {
		if c.UserID != userID {
			continue
		}
		index[c.ID] = len(out)
		out = append(out, core.CategoryWithStats{Category: c})
	}

	for _, e := range s.expenses {
		if e.UserID != userID || e.CategoryID == nil {
			continue
		}
		i, ok := index[*e.CategoryID]
		if !ok {
			continue
		}
		total, err := out[i].TotalAmount.Add(e.Amount)
		if err != nil {
			return nil, fmt.Errorf("category %d total: %w", out[i].ID, err)
		}
		out[i].ExpenseCount++
		out[i].TotalAmount = total
	}

	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// ListExpenses returns the user's expenses that satisfy every set filter,
// newest date first and by id ascending within one date. Each expense carries
// its category when it has one.
func (s *Store) ListExpenses(ctx context.Context, userID int64, f core.ExpenseFilter) ([]core.ExpenseWithCategory, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]core.ExpenseWithCategory, 0)
	for _, e := range s.expenses {
		if e.UserID != userID || !f.Matches(e) {
			continue
		}
		item := core.ExpenseWithCategory{Expense: e.Clone()}
		if e.CategoryID != nil {
			if c, ok := s.ownedCategory(*e.CategoryID, userID); ok {
				item.Category = &c
			}
		}
		out = append(out, item)
	}

	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date.Time) {
			return out[i].Date.After(out[j].Date.Time)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}
