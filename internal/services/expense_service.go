package services

import (
	"context"
	"fmt"

	"tally/internal/amqp"
	"tally/internal/core"
	"tally/internal/log"
)

// ExpenseService orchestrates expense mutations across the store, the stats
// cache and the event bus.
type ExpenseService struct {
	store  ExpenseStore
	stats  statsInvalidator
	events eventSink
}

// NewExpenseService wires the expense store. publisher may be nil.
func NewExpenseService(store ExpenseStore, stats *StatsService, publisher EventPublisher) *ExpenseService {
	return &ExpenseService{store: store, stats: stats, events: eventSink{publisher: publisher}}
}

func (s *ExpenseService) List(ctx context.Context, userID int64, f core.ExpenseFilter) ([]core.ExpenseWithCategory, error) {
	return s.store.ListExpenses(ctx, userID, f)
}

func (s *ExpenseService) Get(ctx context.Context, id, userID int64) (core.Expense, error) {
	return s.store.GetExpense(ctx, id, userID)
}

func (s *ExpenseService) Create(ctx context.Context, n core.NewExpense) (core.Expense, error) {
	if err := n.Validate(); err != nil {
		return core.Expense{}, err
	}

	e, err := s.store.CreateExpense(ctx, n)
	if err != nil {
		return core.Expense{}, fmt.Errorf("create expense: %w", err)
	}
	s.afterMutation(ctx, amqp.EventExpenseCreated, e, log.OpCreate, "Expense created")
	return e, nil
}

// Update merges u onto the caller's expense. An empty update echoes the
// record unchanged and publishes nothing.
func (s *ExpenseService) Update(ctx context.Context, id, userID int64, u core.ExpenseUpdate) (core.Expense, error) {
	if err := u.Validate(); err != nil {
		return core.Expense{}, err
	}
	if u.IsEmpty() {
		return s.store.GetExpense(ctx, id, userID)
	}

	e, err := s.store.UpdateExpense(ctx, id, userID, u)
	if err != nil {
		return core.Expense{}, err
	}
	s.afterMutation(ctx, amqp.EventExpenseUpdated, e, log.OpUpdate, "Expense updated")
	return e, nil
}

func (s *ExpenseService) Delete(ctx context.Context, id, userID int64) error {
	e, err := s.store.DeleteExpense(ctx, id, userID)
	if err != nil {
		return err
	}
	s.afterMutation(ctx, amqp.EventExpenseDeleted, e, log.OpDelete, "Expense deleted")
	return nil
}

func (s *ExpenseService) afterMutation(ctx context.Context, t amqp.EventType, e core.Expense, op, msg string) {
	s.stats.Invalidate(e.UserID)

	log.NewStructuredLogger(log.FromContext(ctx).WithComponent(log.ComponentExpense)).
		LogMutation(ctx, msg, op,
			log.NewFields().WithUser(e.UserID).WithExpense(e.ID, e.Amount.String()))

	s.events.publish(ctx, amqp.NewExpenseEvent(t, e, s.categoryName(ctx, e)))
}

// categoryName resolves the expense's category for event payloads. A deleted
// category simply yields "".
func (s *ExpenseService) categoryName(ctx context.Context, e core.Expense) string {
	if e.CategoryID == nil {
		return ""
	}
	c, err := s.store.GetCategory(ctx, *e.CategoryID, e.UserID)
	if err != nil {
		return ""
	}
	return c.Name
}
