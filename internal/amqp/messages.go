package amqp

import (
	"errors"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"tally/internal/core"
)

type EventType string

const (
	EventUserRegistered  EventType = "user.registered"
	EventExpenseCreated  EventType = "expense.created"
	EventExpenseUpdated  EventType = "expense.updated"
	EventExpenseDeleted  EventType = "expense.deleted"
	EventCategoryDeleted EventType = "category.deleted"
)

// IsExpenseEvent reports whether t carries an expense payload.
func (t EventType) IsExpenseEvent() bool {
	switch t {
	case EventExpenseCreated, EventExpenseUpdated, EventExpenseDeleted:
		return true
	}
	return false
}

var errMissingEventType = errors.New("event type is required")

// ExpensePayload is the expense snapshot carried by expense events. The
// category name is resolved at publish time so consumers need no lookups.
type ExpensePayload struct {
	ID           int64      `json:"id"`
	CategoryID   *int64     `json:"categoryId,omitempty"`
	CategoryName string     `json:"categoryName,omitempty"`
	Title        string     `json:"title"`
	Amount       core.Money `json:"amount"`
	Date         core.Date  `json:"date"`
	Description  *string    `json:"description,omitempty"`
}

type CategoryPayload struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Event is a domain event published after a successful mutation.
type Event struct {
	ID         string           `json:"id"`
	Type       EventType        `json:"type"`
	UserID     int64            `json:"userId"`
	OccurredAt time.Time        `json:"occurredAt"`
	Expense    *ExpensePayload  `json:"expense,omitempty"`
	Category   *CategoryPayload `json:"category,omitempty"`
	// Orphaned is the number of expenses left uncategorized by a category delete.
	Orphaned int `json:"orphaned,omitempty"`
}

func NewEvent(t EventType, userID int64) *Event {
	return &Event{
		ID:         uuid.NewString(),
		Type:       t,
		UserID:     userID,
		OccurredAt: time.Now().UTC(),
	}
}

// NewExpenseEvent builds an expense event. categoryName may be empty.
func NewExpenseEvent(t EventType, e core.Expense, categoryName string) *Event {
	ev := NewEvent(t, e.UserID)
	ev.Expense = &ExpensePayload{
		ID:           e.ID,
		CategoryID:   e.CategoryID,
		CategoryName: categoryName,
		Title:        e.Title,
		Amount:       e.Amount,
		Date:         e.Date,
		Description:  e.Description,
	}
	return ev
}

func (e *Event) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

func EventFromJSON(data []byte) (*Event, error) {
	var e Event
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, err
	}
	if e.Type == "" {
		return nil, errMissingEventType
	}
	return &e, nil
}
