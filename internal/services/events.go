package services

import (
	"context"

	"tasknest/internal/amqp"
	"tasknest/internal/budget"
	"tasknest/internal/core"
	"tasknest/internal/log"
)

// EventPublisher sends budget events to the message bus. *amqp.Client
// implements it.
type EventPublisher interface {
	PublishEvent(ctx context.Context, event *amqp.BudgetEvent) error
}

var _ EventPublisher = (*amqp.Client)(nil)

// newEvent snapshots a budget and its period into an event. p may be nil.
func newEvent(eventType amqp.EventType, b core.Budget, p *budget.Period) *amqp.BudgetEvent {
	event := amqp.NewBudgetEvent(eventType, b.ID, b.UserEmail, b.Month)
	event.MonthlyBudget = b.MonthlyBudget
	if p == nil {
		return event
	}
	event.Percentages = p.Percentages()
	for _, rec := range p.Overspend() {
		event.Overspent = append(event.Overspent, amqp.OverspentCategory{
			Category:            rec.Category,
			OverspentAmount:     rec.OverspentAmount,
			OverspentPercentage: rec.OverspentPercentage,
		})
	}
	return event
}

// publish never fails the caller: the change is already stored.
func publish(ctx context.Context, publisher EventPublisher, logger *log.Logger, event *amqp.BudgetEvent) {
	if publisher == nil {
		logger.DebugContext(ctx, "Event publishing disabled, skipping event",
			log.FieldEventType, event.Type)
		return
	}
	if err := publisher.PublishEvent(ctx, event); err != nil {
		logger.ErrorContext(ctx, "Failed to publish budget event",
			log.FieldEventID, event.ID,
			log.FieldEventType, event.Type,
			log.FieldBudgetID, event.BudgetID,
			log.FieldError, err)
		return
	}
	logger.DebugContext(ctx, "Budget event published",
		log.FieldEventID, event.ID,
		log.FieldEventType, event.Type)
}
