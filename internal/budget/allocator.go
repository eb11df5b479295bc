// Package budget computes category allocations for a monthly budget,
// detects overspending and redistributes percentages after overspend.
//
// Everything in this package is pure: callers hand in percentages, spend
// and totals and receive new values back. Nothing is persisted here.
package budget

import (
	"math"
	"sort"

	"github.com/shopspring/decimal"

	"tasknest/internal/core"
)

// PercentTolerance is the allowed deviation of a distribution total from 100.
const PercentTolerance = 0.1

const (
	// overspendHeadroom is added to an overspent category's share of the
	// total when it is re-weighted.
	overspendHeadroom = 5.0
	// minPercentage is the floor applied to every category after adjustment.
	minPercentage = 1.0
	// tenths is the rounding unit of adjusted percentages.
	tenths = 10.0
	// epsilon absorbs float noise when comparing sums against the tolerance.
	epsilon = 1e-9
)

var hundred = decimal.NewFromInt(100)

type (
	CategoryAllocation struct {
		Category       string          `json:"category"`
		Percentage     float64         `json:"percentage"`
		BudgetedAmount decimal.Decimal `json:"budgetedAmount"`
		SpentAmount    decimal.Decimal `json:"spentAmount"`
	}

	OverspendRecord struct {
		Category            string          `json:"category"`
		OverspentAmount     decimal.Decimal `json:"overspentAmount"`
		OverspentPercentage float64         `json:"overspentPercentage"`
		Budgeted            decimal.Decimal `json:"budgeted"`
		Spent               decimal.Decimal `json:"spent"`
	}
)

// DefaultPercentages returns the distribution used for new budgets.
func DefaultPercentages() map[string]float64 {
	return map[string]float64{
		"food":          30,
		"transport":     15,
		"bills":         20,
		"entertainment": 10,
		"shopping":      10,
		"healthcare":    8,
		"education":     5,
		"other":         2,
	}
}

// ValidatePercentages checks that every entry is a finite value in [0, 100]
// and that the total is within PercentTolerance of 100.
func ValidatePercentages(pct map[string]float64) error {
	if len(pct) == 0 {
		return core.NewValidationError("percentages", "distribution is empty")
	}
	if err := validateEntries(pct); err != nil {
		return err
	}
	total := sumPercentages(pct)
	if math.Abs(total-100) > PercentTolerance+epsilon {
		return core.NewValidationError("percentages", "percentages must total 100 (current total: %.1f)", total)
	}
	return nil
}

func validateEntries(pct map[string]float64) error {
	for _, category := range sortedKeys(pct) {
		p := pct[category]
		if category == "" {
			return core.ErrEmptyCategory
		}
		if math.IsNaN(p) || math.IsInf(p, 0) {
			return core.NewValidationError("percentages", "%s: percentage is not a number", category)
		}
		if p < 0 || p > 100 {
			return core.NewValidationError("percentages", "%s: percentage %.1f out of range 0-100", category, p)
		}
	}
	return nil
}

// ApplyPercentages splits totalBudget across categories.
//
// The distribution must total 100 within PercentTolerance. Each amount is
// totalBudget * percentage / 100, which AutoAdjust also uses to detect
// overspend. A distribution inside the tolerance but off 100 therefore
// allocates slightly less or slightly more than totalBudget.
func ApplyPercentages(totalBudget decimal.Decimal, pct map[string]float64) (map[string]decimal.Decimal, error) {
	if totalBudget.IsNegative() {
		return nil, core.NewValidationError("totalBudget", "total budget cannot be negative")
	}
	if err := ValidatePercentages(pct); err != nil {
		return nil, err
	}

	amounts := make(map[string]decimal.Decimal, len(pct))
	for category, p := range pct {
		amounts[category] = shareOf(totalBudget, p)
	}
	return amounts, nil
}

// shareOf returns p percent of total.
func shareOf(total decimal.Decimal, p float64) decimal.Decimal {
	return total.Mul(decimal.NewFromFloat(p)).Div(hundred)
}

// DetectOverspend reports every category whose spend exceeds a positive
// budgeted amount. Records are ordered by category name.
func DetectOverspend(allocations, actualSpend map[string]decimal.Decimal) []OverspendRecord {
	var out []OverspendRecord
	for _, category := range sortedKeys(allocations) {
		budgeted := allocations[category]
		spent := actualSpend[category]
		if !budgeted.IsPositive() || !spent.GreaterThan(budgeted) {
			continue
		}
		over := spent.Sub(budgeted)
		out = append(out, OverspendRecord{
			Category:            category,
			OverspentAmount:     over,
			OverspentPercentage: over.Div(budgeted).Mul(hundred).InexactFloat64(),
			Budgeted:            budgeted,
			Spent:               spent,
		})
	}
	return out
}

// AutoAdjust re-weights the distribution after overspending.
//
// Each overspent category receives its spend as a share of totalBudget plus
// five points, floored at 1%. The remainder is shared by the other
// categories in proportion to their current percentages, each floored at
// 1%. The result is rescaled to 100 and rounded to one decimal. When every
// category is overspent, or rounding drift exceeds PercentTolerance, the
// result is an equal split. Without overspend the input is returned as is.
func AutoAdjust(pct map[string]float64, actualSpend map[string]decimal.Decimal, totalBudget decimal.Decimal) (map[string]float64, error) {
	if !totalBudget.IsPositive() {
		return nil, core.NewValidationError("totalBudget", "total budget must be greater than zero")
	}
	if len(pct) == 0 {
		return nil, core.NewValidationError("percentages", "distribution is empty")
	}
	if err := validateEntries(pct); err != nil {
		return nil, err
	}
	for category, spent := range actualSpend {
		if spent.IsNegative() {
			return nil, core.NewValidationError("actualSpend", "%s: spend cannot be negative", category)
		}
	}

	budgeted := make(map[string]decimal.Decimal, len(pct))
	for category, p := range pct {
		budgeted[category] = shareOf(totalBudget, p)
	}
	overspent := DetectOverspend(budgeted, actualSpend)
	if len(overspent) == 0 {
		return copyPercentages(pct), nil
	}

	categories := sortedKeys(pct)
	if len(overspent) == len(categories) {
		return equalSplit(categories), nil
	}

	adjusted := make(map[string]float64, len(pct))
	fixed := 0.0
	for _, rec := range overspent {
		share := rec.Spent.Div(totalBudget).Mul(hundred).InexactFloat64()
		p := math.Max(minPercentage, share+overspendHeadroom)
		adjusted[rec.Category] = p
		fixed += p
	}

	var others []string
	currentOthers := 0.0
	for _, category := range categories {
		if _, ok := adjusted[category]; ok {
			continue
		}
		others = append(others, category)
		currentOthers += pct[category]
	}

	remaining := 100 - fixed
	for _, category := range others {
		weight := 1 / float64(len(others))
		if currentOthers > 0 {
			weight = pct[category] / currentOthers
		}
		adjusted[category] = math.Max(minPercentage, remaining*weight)
	}

	return rescale(categories, adjusted), nil
}

// rescale normalises values to total 100 and rounds each to one decimal.
// A drift of one tenth is absorbed by the entry whose rounding moved it
// furthest. Larger drift falls back to an equal split.
func rescale(categories []string, values map[string]float64) map[string]float64 {
	total := 0.0
	for _, v := range values {
		total += v
	}
	if total <= 0 {
		return equalSplit(categories)
	}

	exact := make(map[string]float64, len(values))
	units := make(map[string]int, len(values))
	sum := 0
	for _, category := range categories {
		x := values[category] * 100 / total * tenths
		exact[category] = x
		units[category] = int(math.Round(x))
		sum += units[category]
	}

	drift := 1000 - sum
	if drift < -1 || drift > 1 {
		return equalSplit(categories)
	}
	if drift != 0 {
		absorb(categories, exact, units, drift)
	}
	return fromTenths(units)
}

// absorb moves a single tenth onto the category whose rounding error
// points the most in the direction of drift.
func absorb(categories []string, exact map[string]float64, units map[string]int, drift int) {
	best := ""
	bestErr := 0.0
	for _, category := range categories {
		if drift < 0 && units[category] == 0 {
			continue
		}
		diff := (exact[category] - float64(units[category])) * float64(drift)
		if best == "" || diff > bestErr {
			best, bestErr = category, diff
		}
	}
	if best != "" {
		units[best] += drift
	}
}

func equalSplit(categories []string) map[string]float64 {
	if len(categories) == 0 {
		return map[string]float64{}
	}
	units := make(map[string]int, len(categories))
	share := 1000 / len(categories)
	extra := 1000 % len(categories)
	for i, category := range categories {
		units[category] = share
		if i < extra {
			units[category]++
		}
	}
	return fromTenths(units)
}

func fromTenths(units map[string]int) map[string]float64 {
	out := make(map[string]float64, len(units))
	for category, u := range units {
		out[category] = float64(u) / tenths
	}
	return out
}

func copyPercentages(pct map[string]float64) map[string]float64 {
	out := make(map[string]float64, len(pct))
	for k, v := range pct {
		out[k] = v
	}
	return out
}

func sumPercentages(pct map[string]float64) float64 {
	total := 0.0
	for _, category := range sortedKeys(pct) {
		total += pct[category]
	}
	return total
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
