// Package services orchestrates mutations: validate, write to the store,
// invalidate cached stats, then publish a domain event. Event delivery is
// best effort and never fails the caller.
package services

import (
	"context"

	"tally/internal/amqp"
	"tally/internal/core"
	"tally/internal/log"
)

// EventPublisher publishes domain events. *amqp.Client satisfies it.
type EventPublisher interface {
	PublishEvent(ctx context.Context, e *amqp.Event) error
}

type UserStore interface {
	CreateUser(ctx context.Context, n core.NewUser) (core.User, error)
	GetUserByID(ctx context.Context, id int64) (core.User, error)
	VerifyPassword(ctx context.Context, email, password string) (core.User, error)
}

type CategoryStore interface {
	CreateCategory(ctx context.Context, n core.NewCategory) (core.Category, error)
	GetCategory(ctx context.Context, id, userID int64) (core.Category, error)
	UpdateCategory(ctx context.Context, id, userID int64, u core.CategoryUpdate) (core.Category, error)
	DeleteCategory(ctx context.Context, id, userID int64) (int, error)
	SeedDefaultCategories(ctx context.Context, userID int64) ([]core.Category, error)
	ListCategories(ctx context.Context, userID int64) ([]core.CategoryWithStats, error)
}

type ExpenseStore interface {
	GetCategory(ctx context.Context, id, userID int64) (core.Category, error)
	CreateExpense(ctx context.Context, n core.NewExpense) (core.Expense, error)
	GetExpense(ctx context.Context, id, userID int64) (core.Expense, error)
	UpdateExpense(ctx context.Context, id, userID int64, u core.ExpenseUpdate) (core.Expense, error)
	DeleteExpense(ctx context.Context, id, userID int64) (core.Expense, error)
	ListExpenses(ctx context.Context, userID int64, f core.ExpenseFilter) ([]core.ExpenseWithCategory, error)
}

type StatsStore interface {
	Stats(ctx context.Context, userID int64) (core.ExpenseStats, error)
}

// statsInvalidator drops a user's cached stats after a mutation.
type statsInvalidator interface {
	Invalidate(userID int64)
}

// eventSink wraps an optional publisher.
type eventSink struct {
	publisher EventPublisher
}

func (s eventSink) publish(ctx context.Context, e *amqp.Event) {
	logger := log.FromContext(ctx).WithComponent(log.ComponentEvents)
	if s.publisher == nil {
		logger.DebugContext(ctx, "Event publishing disabled, skipping", log.FieldEventType, e.Type)
		return
	}
	if err := s.publisher.PublishEvent(ctx, e); err != nil {
		log.NewStructuredLogger(logger).LogError(ctx, "Failed to publish event", err, log.OpPublish,
			log.NewFields().WithEvent(e.ID, string(e.Type)).WithUser(e.UserID))
	}
}
