package memory

import (
	"context"
	"fmt"

	"tally/internal/core"
)

const (
	weeklyWindowDays  = 7
	averageWindowDays = 30
)

// Stats aggregates the user's expenses. Windows are calendar based and
// inclusive: an expense dated exactly today-7 counts as weekly. The daily
// average always divides the trailing 30-day sum by 30.
func (s *Store) Stats(ctx context.Context, userID int64) (core.ExpenseStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	today := core.DateOf(s.now())
	weekStart := today.AddDays(-weeklyWindowDays)
	monthStart := today.AddDays(-averageWindowDays)

	var stats core.ExpenseStats
	var trailing core.Money
	for _, e := range s.expenses {
		if e.UserID != userID {
			continue
		}
		var err error
		if stats.TotalExpenses, err = stats.TotalExpenses.Add(e.Amount); err != nil {
			return core.ExpenseStats{}, fmt.Errorf("total expenses: %w", err)
		}
		if !e.Date.Before(weekStart.Time) {
			if stats.WeeklyExpenses, err = stats.WeeklyExpenses.Add(e.Amount); err != nil {
				return core.ExpenseStats{}, fmt.Errorf("weekly expenses: %w", err)
			}
		}
		if !e.Date.Before(monthStart.Time) {
			if trailing, err = trailing.Add(e.Amount); err != nil {
				return core.ExpenseStats{}, fmt.Errorf("trailing expenses: %w", err)
			}
		}
	}
	for _, c := range s.categories {
		if c.UserID == userID {
			stats.CategoriesCount++
		}
	}
	stats.DailyAverage = trailing.DivRound(averageWindowDays)
	return stats, nil
}
