package amqp

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// EventType names what changed on a budget.
type EventType string

const (
	EventFundsChanged         EventType = "funds_changed"
	EventDistributionApplied  EventType = "distribution_applied"
	EventDistributionAdjusted EventType = "distribution_adjusted"
	EventExpenseChanged       EventType = "expense_changed"
)

func (t EventType) IsValid() bool {
	switch t {
	case EventFundsChanged, EventDistributionApplied, EventDistributionAdjusted, EventExpenseChanged:
		return true
	default:
		return false
	}
}

// OverspentCategory is the overspend summary carried by an event.
type OverspentCategory struct {
	Category            string          `json:"category"`
	OverspentAmount     decimal.Decimal `json:"overspentAmount"`
	OverspentPercentage float64         `json:"overspentPercentage"`
}

// BudgetEvent is a snapshot of a budget published after it changed.
// BudgetID is zero for expense changes of users without a budget that month.
type BudgetEvent struct {
	ID            string              `json:"id"`
	Type          EventType           `json:"type"`
	BudgetID      int64               `json:"budgetId"`
	UserEmail     string              `json:"userEmail"`
	Month         string              `json:"month"`
	MonthlyBudget decimal.Decimal     `json:"monthlyBudget"`
	Percentages   map[string]float64  `json:"percentages,omitempty"`
	Overspent     []OverspentCategory `json:"overspent,omitempty"`
	Timestamp     time.Time           `json:"timestamp"`
}

// NewBudgetEvent creates an event with a fresh ID and timestamp.
func NewBudgetEvent(eventType EventType, budgetID int64, userEmail, month string) *BudgetEvent {
	return &BudgetEvent{
		ID:            uuid.NewString(),
		Type:          eventType,
		BudgetID:      budgetID,
		UserEmail:     userEmail,
		Month:         month,
		MonthlyBudget: decimal.Zero,
		Timestamp:     time.Now().UTC(),
	}
}

// ToJSON converts the event to JSON bytes
func (e *BudgetEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// BudgetEventFromJSON decodes and validates an event.
func BudgetEventFromJSON(data []byte) (*BudgetEvent, error) {
	var e BudgetEvent
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, err
	}
	if _, err := uuid.Parse(e.ID); err != nil {
		return nil, fmt.Errorf("invalid event id %q: %w", e.ID, err)
	}
	if !e.Type.IsValid() {
		return nil, fmt.Errorf("unknown event type %q", e.Type)
	}
	return &e, nil
}
