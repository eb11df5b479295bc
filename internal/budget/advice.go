package budget

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"tasknest/internal/core"
)

type Severity string

const (
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

const (
	AdviceCategoryOverspent = "category_overspent"
	AdviceApproachingLimit  = "approaching_limit"
	AdviceTotalOverspent    = "total_overspent"
	AdviceNearLimit         = "near_limit"
	AdviceHighUsage         = "high_usage"
)

// OverallCategory tags advice that concerns the whole budget.
const OverallCategory = "overall"

var (
	approachingRatio = decimal.NewFromFloat(0.8)
	nearLimitPercent = decimal.NewFromInt(90)
	highUsagePercent = decimal.NewFromInt(80)
)

type Advice struct {
	Kind     string   `json:"type"`
	Category string   `json:"category"`
	Severity Severity `json:"severity"`
	Message  string   `json:"message"`
}

// Advise produces warnings and suggestions for a period. totalSpent is the
// user's whole spend for the month, including untracked categories.
func Advise(p *Period, totalSpent decimal.Decimal) []Advice {
	var out []Advice

	for _, alloc := range p.Sorted() {
		budgeted, spent := alloc.BudgetedAmount, alloc.SpentAmount
		if !budgeted.IsPositive() {
			continue
		}
		switch {
		case spent.GreaterThan(budgeted):
			over := spent.Sub(budgeted)
			out = append(out, Advice{
				Kind:     AdviceCategoryOverspent,
				Category: alloc.Category,
				Severity: SeverityHigh,
				Message: fmt.Sprintf("%s is overspent by %s (%.1f%% over budget)",
					strings.ToUpper(alloc.Category), core.FormatAmount(over),
					over.Div(budgeted).Mul(hundred).InexactFloat64()),
			})
		case spent.GreaterThan(budgeted.Mul(approachingRatio)):
			out = append(out, Advice{
				Kind:     AdviceApproachingLimit,
				Category: alloc.Category,
				Severity: SeverityMedium,
				Message:  fmt.Sprintf("approaching the %s budget limit", alloc.Category),
			})
		}
	}

	remaining := p.MonthlyBudget.Sub(totalSpent)
	if remaining.IsNegative() {
		return append(out, Advice{
			Kind:     AdviceTotalOverspent,
			Category: OverallCategory,
			Severity: SeverityCritical,
			Message:  fmt.Sprintf("total budget exceeded by %s", core.FormatAmount(remaining.Abs())),
		})
	}
	if !p.MonthlyBudget.IsPositive() {
		return out
	}

	used := totalSpent.Div(p.MonthlyBudget).Mul(hundred)
	switch {
	case used.GreaterThan(nearLimitPercent):
		out = append(out, Advice{
			Kind:     AdviceNearLimit,
			Category: OverallCategory,
			Severity: SeverityMedium,
			Message:  fmt.Sprintf("budget almost exhausted, %.1f%% used", used.InexactFloat64()),
		})
	case used.GreaterThan(highUsagePercent):
		out = append(out, Advice{
			Kind:     AdviceHighUsage,
			Category: OverallCategory,
			Severity: SeverityMedium,
			Message:  fmt.Sprintf("%.1f%% of the available budget used", used.InexactFloat64()),
		})
	}
	return out
}
