// Package expenses groups, filters and summarises expense records for the
// budget and analysis views.
//
// Amounts that are missing or non-numeric count as zero.
package expenses

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"tasknest/internal/core"
)

const (
	UncategorizedLabel = "Uncategorized"
	UnknownUserLabel   = "Unknown"
	// AllFilter disables a category or user filter.
	AllFilter = "all"
)

var hundred = decimal.NewFromInt(100)

type CategoryShare struct {
	Category   string          `json:"category"`
	Amount     decimal.Decimal `json:"amount"`
	Percentage float64         `json:"percentage"`
}

type Summary struct {
	Total             decimal.Decimal `json:"total"`
	Count             int             `json:"count"`
	Average           decimal.Decimal `json:"average"`
	MostSpentCategory string          `json:"mostSpentCategory"`
	TopSpender        string          `json:"topSpender"`
	Categories        []CategoryShare `json:"categories"`
}

// GroupByCategory sums amounts per category.
func GroupByCategory(expenses []core.Expense) map[string]decimal.Decimal {
	return groupBy(expenses, func(e core.Expense) string {
		return labelOr(e.Category, UncategorizedLabel)
	})
}

// GroupByUser sums amounts per user email.
func GroupByUser(expenses []core.Expense) map[string]decimal.Decimal {
	return groupBy(expenses, func(e core.Expense) string {
		return labelOr(e.UserEmail, UnknownUserLabel)
	})
}

func groupBy(expenses []core.Expense, key func(core.Expense) string) map[string]decimal.Decimal {
	out := make(map[string]decimal.Decimal)
	for _, e := range expenses {
		k := key(e)
		out[k] = out[k].Add(e.Amount.OrZero())
	}
	return out
}

func labelOr(s, fallback string) string {
	if strings.TrimSpace(s) == "" {
		return fallback
	}
	return s
}

// FilterByCategory keeps expenses of one category, compared case-insensitively.
func FilterByCategory(expenses []core.Expense, category string) []core.Expense {
	if isAll(category) {
		return append([]core.Expense(nil), expenses...)
	}
	return filter(expenses, func(e core.Expense) bool {
		return strings.EqualFold(labelOr(e.Category, UncategorizedLabel), category)
	})
}

// FilterByUser keeps expenses of one user, compared case-insensitively.
func FilterByUser(expenses []core.Expense, user string) []core.Expense {
	if isAll(user) {
		return append([]core.Expense(nil), expenses...)
	}
	return filter(expenses, func(e core.Expense) bool {
		return strings.EqualFold(strings.TrimSpace(e.UserEmail), strings.TrimSpace(user))
	})
}

func isAll(s string) bool {
	s = strings.TrimSpace(s)
	return s == "" || strings.EqualFold(s, AllFilter)
}

func filter(expenses []core.Expense, keep func(core.Expense) bool) []core.Expense {
	var out []core.Expense
	for _, e := range expenses {
		if keep(e) {
			out = append(out, e)
		}
	}
	return out
}

// Summarize computes totals and rankings. Ties are broken by name.
func Summarize(expenses []core.Expense) Summary {
	s := Summary{
		Total:      decimal.Zero,
		Count:      len(expenses),
		Average:    decimal.Zero,
		Categories: []CategoryShare{},
	}
	for _, e := range expenses {
		s.Total = s.Total.Add(e.Amount.OrZero())
	}
	if s.Count > 0 {
		s.Average = s.Total.DivRound(decimal.NewFromInt(int64(s.Count)), 2)
	}

	byCategory := GroupByCategory(expenses)
	s.MostSpentCategory = top(byCategory)
	s.TopSpender = top(GroupByUser(expenses))

	for category, amount := range byCategory {
		share := CategoryShare{Category: category, Amount: amount}
		if s.Total.IsPositive() {
			share.Percentage = amount.Div(s.Total).Mul(hundred).Round(1).InexactFloat64()
		}
		s.Categories = append(s.Categories, share)
	}
	sort.Slice(s.Categories, func(i, j int) bool {
		a, b := s.Categories[i], s.Categories[j]
		if !a.Amount.Equal(b.Amount) {
			return a.Amount.GreaterThan(b.Amount)
		}
		return a.Category < b.Category
	})
	return s
}

func top(totals map[string]decimal.Decimal) string {
	keys := make([]string, 0, len(totals))
	for k := range totals {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	best := ""
	for _, k := range keys {
		if best == "" || totals[k].GreaterThan(totals[best]) {
			best = k
		}
	}
	return best
}
