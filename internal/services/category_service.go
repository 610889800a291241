package services

import (
	"context"
	"fmt"

	"tally/internal/amqp"
	"tally/internal/core"
	"tally/internal/log"
)

type CategoryService struct {
	store  CategoryStore
	stats  statsInvalidator
	events eventSink
}

// NewCategoryService wires the category store. publisher may be nil.
func NewCategoryService(store CategoryStore, stats *StatsService, publisher EventPublisher) *CategoryService {
	return &CategoryService{store: store, stats: stats, events: eventSink{publisher: publisher}}
}

func (s *CategoryService) List(ctx context.Context, userID int64) ([]core.CategoryWithStats, error) {
	return s.store.ListCategories(ctx, userID)
}

func (s *CategoryService) Create(ctx context.Context, n core.NewCategory) (core.Category, error) {
	if err := n.Validate(); err != nil {
		return core.Category{}, err
	}

	c, err := s.store.CreateCategory(ctx, n)
	if err != nil {
		return core.Category{}, fmt.Errorf("create category: %w", err)
	}
	s.stats.Invalidate(n.UserID)
	s.logger(ctx).LogMutation(ctx, "Category created", log.OpCreate,
		log.NewFields().WithUser(n.UserID).WithCategory(c.ID))
	return c, nil
}

// Update merges u onto the caller's category. An empty update echoes the
// record unchanged.
func (s *CategoryService) Update(ctx context.Context, id, userID int64, u core.CategoryUpdate) (core.Category, error) {
	if err := u.Validate(); err != nil {
		return core.Category{}, err
	}
	if u.IsEmpty() {
		return s.store.GetCategory(ctx, id, userID)
	}

	c, err := s.store.UpdateCategory(ctx, id, userID, u)
	if err != nil {
		return core.Category{}, err
	}
	s.stats.Invalidate(userID)
	s.logger(ctx).LogMutation(ctx, "Category updated", log.OpUpdate,
		log.NewFields().WithUser(userID).WithCategory(id))
	return c, nil
}

// Delete removes the category and orphans its expenses. It returns the number
// of expenses left uncategorized.
func (s *CategoryService) Delete(ctx context.Context, id, userID int64) (int, error) {
	c, err := s.store.GetCategory(ctx, id, userID)
	if err != nil {
		return 0, err
	}

	orphaned, err := s.store.DeleteCategory(ctx, id, userID)
	if err != nil {
		return 0, err
	}
	s.stats.Invalidate(userID)
	s.logger(ctx).LogMutation(ctx, "Category deleted", log.OpDelete,
		log.NewFields().WithUser(userID).WithCategory(id).With(log.FieldOrphaned, orphaned))

	ev := amqp.NewEvent(amqp.EventCategoryDeleted, userID)
	ev.Category = &amqp.CategoryPayload{ID: c.ID, Name: c.Name}
	ev.Orphaned = orphaned
	s.events.publish(ctx, ev)
	return orphaned, nil
}

// SeedDefaults creates the default categories for a user without any. The
// returned slice is empty when the user already had categories.
func (s *CategoryService) SeedDefaults(ctx context.Context, userID int64) ([]core.Category, error) {
	created, err := s.store.SeedDefaultCategories(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("seed default categories: %w", err)
	}
	if len(created) > 0 {
		s.stats.Invalidate(userID)
		s.logger(ctx).LogMutation(ctx, "Default categories created", log.OpSeed,
			log.NewFields().WithUser(userID).With("count", len(created)))
	}
	return created, nil
}

func (s *CategoryService) logger(ctx context.Context) *log.StructuredLogger {
	return log.NewStructuredLogger(log.FromContext(ctx).WithComponent(log.ComponentCategory))
}
