// Package sheets defines the report sink the worker writes budget events to.
package sheets

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"tasknest/internal/amqp"
)

// ReportRow is one line of the budget report, one per event.
type ReportRow struct {
	Month         string
	User          string
	EventType     string
	MonthlyBudget string
	Distribution  string
	Overspent     string
	EventID       string
	Timestamp     string
}

// Values returns the row in column order.
func (r ReportRow) Values() []any {
	return []any{r.Month, r.User, r.EventType, r.MonthlyBudget, r.Distribution, r.Overspent, r.EventID, r.Timestamp}
}

// Header is the first row of a fresh report sheet.
var Header = ReportRow{
	Month:         "Month",
	User:          "User",
	EventType:     "Event",
	MonthlyBudget: "Monthly budget",
	Distribution:  "Distribution",
	Overspent:     "Overspent",
	EventID:       "Event ID",
	Timestamp:     "Timestamp",
}

// ReportWriter appends rows to the report.
type ReportWriter interface {
	AppendReport(ctx context.Context, row ReportRow) (rowRef string, err error)
}

// RowFromEvent flattens an event. The distribution is written as
// "category=pct;..." and overspend as "category:amount (pct%);...", both
// ordered by category.
func RowFromEvent(e *amqp.BudgetEvent) ReportRow {
	categories := make([]string, 0, len(e.Percentages))
	for category := range e.Percentages {
		categories = append(categories, category)
	}
	sort.Strings(categories)

	dist := make([]string, len(categories))
	for i, category := range categories {
		dist[i] = category + "=" + strconv.FormatFloat(e.Percentages[category], 'f', -1, 64)
	}

	overspent := make([]string, len(e.Overspent))
	for i, o := range e.Overspent {
		overspent[i] = fmt.Sprintf("%s:%s (%.1f%%)", o.Category, o.OverspentAmount.StringFixed(2), o.OverspentPercentage)
	}
	sort.Strings(overspent)

	return ReportRow{
		Month:         e.Month,
		User:          e.UserEmail,
		EventType:     string(e.Type),
		MonthlyBudget: e.MonthlyBudget.StringFixed(2),
		Distribution:  strings.Join(dist, ";"),
		Overspent:     strings.Join(overspent, ";"),
		EventID:       e.ID,
		Timestamp:     e.Timestamp.UTC().Format(time.RFC3339),
	}
}
