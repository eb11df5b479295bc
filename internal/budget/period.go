package budget

import (
	"github.com/shopspring/decimal"

	"tasknest/internal/core"
)

// Period is one user's budget for one month together with the spend
// recorded against each category.
//
// Spend in categories outside the distribution is not tracked here.
type Period struct {
	UserEmail     string                        `json:"userEmail"`
	Month         string                        `json:"month"`
	MonthlyBudget decimal.Decimal               `json:"monthlyBudget"`
	Categories    map[string]CategoryAllocation `json:"categories"`
}

// NewPeriod builds a period and computes budgeted amounts from pct.
func NewPeriod(email, month string, monthlyBudget decimal.Decimal, pct map[string]float64, spend map[string]decimal.Decimal) (*Period, error) {
	if _, err := core.ParseMonth(month); err != nil {
		return nil, err
	}
	p := &Period{
		UserEmail:     email,
		Month:         month,
		MonthlyBudget: monthlyBudget,
	}
	if err := p.Redistribute(pct); err != nil {
		return nil, err
	}
	p.SetSpend(spend)
	return p, nil
}

// Redistribute replaces the distribution. On error the period is unchanged.
func (p *Period) Redistribute(pct map[string]float64) error {
	amounts, err := ApplyPercentages(p.MonthlyBudget, pct)
	if err != nil {
		return err
	}
	next := make(map[string]CategoryAllocation, len(pct))
	for category, percentage := range pct {
		next[category] = CategoryAllocation{
			Category:       category,
			Percentage:     percentage,
			BudgetedAmount: amounts[category],
			SpentAmount:    p.Categories[category].SpentAmount,
		}
	}
	p.Categories = next
	return nil
}

// SetSpend replaces the spent amount of every category. Categories missing
// from spend are reset to zero.
func (p *Period) SetSpend(spend map[string]decimal.Decimal) {
	for category, alloc := range p.Categories {
		alloc.SpentAmount = spend[category]
		p.Categories[category] = alloc
	}
}

// AddFunds adds delta to the monthly budget; a negative delta removes
// funds. Budgeted amounts follow the current percentages.
func (p *Period) AddFunds(delta decimal.Decimal) error {
	if delta.IsZero() {
		return core.NewValidationError("amount", "amount must not be zero")
	}
	next := p.MonthlyBudget.Add(delta)
	if next.IsNegative() {
		return core.NewValidationError("amount", "cannot remove %s, only %s available",
			core.FormatAmount(delta.Neg()), core.FormatAmount(p.MonthlyBudget))
	}
	p.MonthlyBudget = next
	p.recompute()
	return nil
}

func (p *Period) recompute() {
	amounts, err := ApplyPercentages(p.MonthlyBudget, p.Percentages())
	if err != nil {
		// Percentages were validated on the way in.
		return
	}
	for category, alloc := range p.Categories {
		alloc.BudgetedAmount = amounts[category]
		p.Categories[category] = alloc
	}
}

func (p *Period) Percentages() map[string]float64 {
	out := make(map[string]float64, len(p.Categories))
	for category, alloc := range p.Categories {
		out[category] = alloc.Percentage
	}
	return out
}

func (p *Period) Allocations() map[string]decimal.Decimal {
	out := make(map[string]decimal.Decimal, len(p.Categories))
	for category, alloc := range p.Categories {
		out[category] = alloc.BudgetedAmount
	}
	return out
}

func (p *Period) Spend() map[string]decimal.Decimal {
	out := make(map[string]decimal.Decimal, len(p.Categories))
	for category, alloc := range p.Categories {
		out[category] = alloc.SpentAmount
	}
	return out
}

// TotalSpent sums spend across the tracked categories.
func (p *Period) TotalSpent() decimal.Decimal {
	total := decimal.Zero
	for _, alloc := range p.Categories {
		total = total.Add(alloc.SpentAmount)
	}
	return total
}

func (p *Period) Overspend() []OverspendRecord {
	return DetectOverspend(p.Allocations(), p.Spend())
}

// AutoAdjust redistributes after overspend. It reports whether the
// distribution changed; a period without overspend is left untouched.
func (p *Period) AutoAdjust() (bool, error) {
	if len(p.Overspend()) == 0 {
		return false, nil
	}
	current := p.Percentages()
	next, err := AutoAdjust(current, p.Spend(), p.MonthlyBudget)
	if err != nil {
		return false, err
	}
	if samePercentages(current, next) {
		return false, nil
	}
	if err := p.Redistribute(next); err != nil {
		return false, err
	}
	return true, nil
}

func samePercentages(a, b map[string]float64) bool {
	if len(a) != len(b) {
		return false
	}
	for category, v := range a {
		w, ok := b[category]
		if !ok || v != w {
			return false
		}
	}
	return true
}

// Sorted returns the allocations ordered by category name.
func (p *Period) Sorted() []CategoryAllocation {
	out := make([]CategoryAllocation, 0, len(p.Categories))
	for _, category := range sortedKeys(p.Categories) {
		out = append(out, p.Categories[category])
	}
	return out
}
