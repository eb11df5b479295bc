package budget

import (
	"github.com/shopspring/decimal"

	"tasknest/internal/core"
)

// NoCategory is reported as the most spent category of an empty month.
const NoCategory = "N/A"

type Stats struct {
	MonthlyBudget     decimal.Decimal `json:"monthlyBudget"`
	TotalSpent        decimal.Decimal `json:"totalSpent"`
	AvailableBudget   decimal.Decimal `json:"availableBudget"`
	MostSpentCategory string          `json:"mostSpentCategory"`
	AvgDailySpent     decimal.Decimal `json:"avgDailySpent"`
}

// MonthlyStats summarises the expenses of b's user within b's month.
// Expenses of other users or months are ignored. The daily average divides
// by the number of distinct purchase days and is rounded half-up to cents.
func MonthlyStats(b core.Budget, expenses []core.Expense) (Stats, error) {
	start, end, err := core.MonthRange(b.Month)
	if err != nil {
		return Stats{}, err
	}

	total := decimal.Zero
	byCategory := make(map[string]decimal.Decimal)
	days := make(map[core.Date]struct{})
	for _, e := range expenses {
		if e.UserEmail != b.UserEmail {
			continue
		}
		if e.PurchaseDate.Before(start.Time) || e.PurchaseDate.After(end.Time) {
			continue
		}
		amount := e.Amount.OrZero()
		total = total.Add(amount)
		byCategory[e.Category] = byCategory[e.Category].Add(amount)
		days[e.PurchaseDate] = struct{}{}
	}

	most := NoCategory
	var mostAmount decimal.Decimal
	for _, category := range sortedKeys(byCategory) {
		if most == NoCategory || byCategory[category].GreaterThan(mostAmount) {
			most, mostAmount = category, byCategory[category]
		}
	}

	avg := decimal.Zero
	if len(days) > 0 {
		avg = total.DivRound(decimal.NewFromInt(int64(len(days))), 2)
	}

	return Stats{
		MonthlyBudget:     b.MonthlyBudget,
		TotalSpent:        total,
		AvailableBudget:   b.MonthlyBudget.Sub(total),
		MostSpentCategory: most,
		AvgDailySpent:     avg,
	}, nil
}
