// Package worker consumes budget events and writes them to the report sink.
package worker

import (
	"context"
	"fmt"
	"time"

	"tasknest/internal/amqp"
	"tasknest/internal/cache"
	"tasknest/internal/log"
	"tasknest/internal/sheets"
)

// EventConsumer delivers events to a handler until ctx is done.
// *amqp.Client implements it.
type EventConsumer interface {
	ConsumeEvents(ctx context.Context, handler func(context.Context, *amqp.BudgetEvent) error) error
}

var _ EventConsumer = (*amqp.Client)(nil)

const (
	seenCacheSize = 1024
	seenCacheTTL  = time.Hour
)

// ReportWorker appends one report row per budget event. Redelivered events
// that were already written are skipped.
type ReportWorker struct {
	reports sheets.ReportWriter
	seen    *cache.LRUCache[string]
	logger  *log.Logger
}

func NewReportWorker(reports sheets.ReportWriter, logger *log.Logger) *ReportWorker {
	if logger == nil {
		logger = log.New(log.Config{Component: log.ComponentWorker})
	}
	return &ReportWorker{
		reports: reports,
		seen:    cache.NewLRUCache[string](seenCacheSize, seenCacheTTL),
		logger:  logger,
	}
}

// Run consumes events until ctx is cancelled.
func (w *ReportWorker) Run(ctx context.Context, consumer EventConsumer) error {
	w.logger.InfoContext(ctx, "Report worker started")
	err := consumer.ConsumeEvents(ctx, w.HandleEvent)
	if err != nil && ctx.Err() == nil {
		return fmt.Errorf("consume events: %w", err)
	}
	w.logger.InfoContext(ctx, "Report worker stopped")
	return nil
}

// HandleEvent writes the report row for one event. A returned error makes
// the consumer requeue the delivery.
func (w *ReportWorker) HandleEvent(ctx context.Context, event *amqp.BudgetEvent) error {
	if ref, ok := w.seen.Get(event.ID); ok {
		w.logger.DebugContext(ctx, "Skipping already reported event",
			log.FieldEventID, event.ID,
			"row_ref", ref)
		return nil
	}

	ref, err := w.reports.AppendReport(ctx, sheets.RowFromEvent(event))
	if err != nil {
		w.logger.ErrorContext(ctx, "Failed to append report row",
			log.FieldOperation, log.OpReport,
			log.FieldEventID, event.ID,
			log.FieldEventType, event.Type,
			log.FieldError, err)
		return fmt.Errorf("append report row: %w", err)
	}
	w.seen.Set(event.ID, ref)

	w.logger.InfoContext(ctx, "Budget event reported",
		log.FieldOperation, log.OpReport,
		log.FieldEventID, event.ID,
		log.FieldEventType, event.Type,
		log.FieldUserEmail, event.UserEmail,
		log.FieldMonth, event.Month,
		"row_ref", ref)
	return nil
}
