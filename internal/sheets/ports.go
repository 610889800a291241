package sheets

import (
	"context"
	"time"
)

// AuditRow is one line of the expense audit log.
type AuditRow struct {
	Timestamp   time.Time
	Event       string
	UserID      int64
	ExpenseID   int64
	Date        string
	Title       string
	Category    string
	Amount      string
	Description string
}

// Values returns the row in column order A..I.
func (r AuditRow) Values() []any {
	return []any{
		r.Timestamp.UTC().Format(time.RFC3339),
		r.Event,
		r.UserID,
		r.ExpenseID,
		r.Date,
		r.Title,
		r.Category,
		r.Amount,
		r.Description,
	}
}

// Ports for outbound adapters.
type (
	AuditWriter interface {
		// AppendAudit writes row below the last used row and returns its A1 range.
		AppendAudit(ctx context.Context, row AuditRow) (rowRef string, err error)
	}
)
