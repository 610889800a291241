package worker

import (
	"context"
	"fmt"

	"tally/internal/amqp"
	"tally/internal/log"
	"tally/internal/sheets"
)

// ExportWorker mirrors expense events into the audit sheet.
type ExportWorker struct {
	writer sheets.AuditWriter
	logger *log.StructuredLogger
	plain  *log.Logger
}

func NewExportWorker(writer sheets.AuditWriter, logger *log.Logger) *ExportWorker {
	logger = logger.WithComponent(log.ComponentWorker)
	return &ExportWorker{
		writer: writer,
		logger: log.NewStructuredLogger(logger),
		plain:  logger,
	}
}

// HandleEvent satisfies amqp.Handler. Returning an error requeues the event,
// so only sheet failures are reported; unusable payloads are logged and acked.
func (w *ExportWorker) HandleEvent(ctx context.Context, e *amqp.Event) error {
	fields := log.NewFields().WithEvent(e.ID, string(e.Type)).WithUser(e.UserID)

	if !e.Type.IsExpenseEvent() {
		w.plain.InfoContext(ctx, "Skipping non-expense event", fields.ToSlice()...)
		return nil
	}
	if e.Expense == nil {
		w.plain.WarnContext(ctx, "Expense event without payload", fields.ToSlice()...)
		return nil
	}

	row := AuditRowFromEvent(e)
	ref, err := w.writer.AppendAudit(ctx, row)
	if err != nil {
		w.logger.LogError(ctx, "Failed to append audit row", err, log.OpExport, fields.WithExpense(e.Expense.ID, row.Amount))
		return fmt.Errorf("append audit row: %w", err)
	}

	w.logger.LogMutation(ctx, "Audit row appended", log.OpExport,
		fields.WithExpense(e.Expense.ID, row.Amount).With("row", ref))
	return nil
}

// AuditRowFromEvent flattens an expense event. Missing optional values become
// empty cells.
func AuditRowFromEvent(e *amqp.Event) sheets.AuditRow {
	p := e.Expense
	row := sheets.AuditRow{
		Timestamp: e.OccurredAt,
		Event:     string(e.Type),
		UserID:    e.UserID,
		ExpenseID: p.ID,
		Date:      p.Date.String(),
		Title:     p.Title,
		Category:  p.CategoryName,
		Amount:    p.Amount.String(),
	}
	if p.Description != nil {
		row.Description = *p.Description
	}
	return row
}
