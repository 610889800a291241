package memory

import (
	"context"

	"tally/internal/core"
)

func (s *Store) CreateCategory(ctx context.Context, n core.NewCategory) (core.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.insertCategory(n), nil
}

// insertCategory requires s.mu held for writing.
func (s *Store) insertCategory(n core.NewCategory) core.Category {
	c := core.Category{
		ID:        s.nextCategoryID,
		UserID:    n.UserID,
		Name:      n.Name,
		Icon:      n.Icon,
		Color:     n.Color,
		CreatedAt: s.now(),
	}
	s.nextCategoryID++
	s.categories[c.ID] = c
	return c
}

// GetCategory returns core.ErrNotFound for missing or foreign categories.
func (s *Store) GetCategory(ctx context.Context, id, userID int64) (core.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.ownedCategory(id, userID)
	if !ok {
		return core.Category{}, core.ErrNotFound
	}
	return c, nil
}

// UpdateCategory merges u onto the category. Ownership is checked before
// anything is merged.
func (s *Store) UpdateCategory(ctx context.Context, id, userID int64, u core.CategoryUpdate) (core.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.ownedCategory(id, userID)
	if !ok {
		return core.Category{}, core.ErrNotFound
	}
	c = u.Apply(c)
	s.categories[id] = c
	return c, nil
}

// DeleteCategory removes the category and clears categoryId on every expense
// that referenced it, under one lock. It returns how many expenses were
// orphaned.
func (s *Store) DeleteCategory(ctx context.Context, id, userID int64) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.ownedCategory(id, userID); !ok {
		return 0, core.ErrNotFound
	}

	orphaned := 0
	for eid, e := range s.expenses {
		if e.UserID == userID && e.HasCategory(id) {
			e.CategoryID = nil
			s.expenses[eid] = e
			orphaned++
		}
	}
	delete(s.categories, id)
	return orphaned, nil
}

// SeedDefaultCategories creates core.DefaultCategories for a user that has no
// categories yet. Otherwise it does nothing and returns an empty slice.
func (s *Store) SeedDefaultCategories(ctx context.Context, userID int64) ([]core.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, c := range s.categories {
		if c.UserID == userID {
			return []core.Category{}, nil
		}
	}

	created := make([]core.Category, 0, len(core.DefaultCategories))
	for _, tmpl := range core.DefaultCategories {
		created = append(created, s.insertCategory(tmpl.ForUser(userID)))
	}
	return created, nil
}

// ownedCategory requires s.mu held.
func (s *Store) ownedCategory(id, userID int64) (core.Category, bool) {
	c, ok := s.categories[id]
	if !ok || c.UserID != userID {
		return core.Category{}, false
	}
	return c, true
}
