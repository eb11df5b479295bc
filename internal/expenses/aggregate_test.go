package expenses

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"tasknest/internal/core"
)

func exp(user, category, amount string, date core.Date) core.Expense {
	a, _ := core.ParseAmount(amount)
	return core.Expense{UserEmail: user, Category: category, Amount: a, PurchaseDate: date}
}

func sample() []core.Expense {
	d := core.NewDate(2025, 3, 10)
	return []core.Expense{
		exp("ana@example.com", "food", "12.50", d),
		exp("ana@example.com", "food", "7.50", d),
		exp("bob@example.com", "bills", "100", d),
		exp("bob@example.com", "", "5", d),
		exp("", "food", "abc", d),
		exp("", "transport", "3", d),
	}
}

func TestGroupByCategory(t *testing.T) {
	got := GroupByCategory(sample())
	want := map[string]string{"food": "20", "bills": "100", UncategorizedLabel: "5", "transport": "3"}
	if len(got) != len(want) {
		t.Fatalf("unexpected groups %v", got)
	}
	for k, v := range want {
		if !got[k].Equal(decimal.RequireFromString(v)) {
			t.Errorf("%s: expected %s, got %s", k, v, got[k])
		}
	}
}

func TestGroupByUser(t *testing.T) {
	got := GroupByUser(sample())
	want := map[string]string{"ana@example.com": "20", "bob@example.com": "105", UnknownUserLabel: "3"}
	for k, v := range want {
		if !got[k].Equal(decimal.RequireFromString(v)) {
			t.Errorf("%s: expected %s, got %s", k, v, got[k])
		}
	}
}

func TestFilters(t *testing.T) {
	all := sample()
	cases := []struct {
		name string
		got  []core.Expense
		want int
	}{
		{"category", FilterByCategory(all, "FOOD"), 3},
		{"category all", FilterByCategory(all, "all"), len(all)},
		{"category empty", FilterByCategory(all, ""), len(all)},
		{"uncategorized", FilterByCategory(all, UncategorizedLabel), 1},
		{"user", FilterByUser(all, "bob@example.com"), 2},
		{"user all", FilterByUser(all, "All"), len(all)},
		{"user missing", FilterByUser(all, "zed@example.com"), 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if len(tc.got) != tc.want {
				t.Fatalf("expected %d, got %d", tc.want, len(tc.got))
			}
		})
	}
}

func TestSummarize(t *testing.T) {
	s := Summarize(sample())
	if s.Count != 6 || !s.Total.Equal(decimal.RequireFromString("128")) {
		t.Fatalf("unexpected totals %+v", s)
	}
	if !s.Average.Equal(decimal.RequireFromString("21.33")) {
		t.Fatalf("unexpected average %s", s.Average)
	}
	if s.MostSpentCategory != "bills" || s.TopSpender != "bob@example.com" {
		t.Fatalf("unexpected rankings %q %q", s.MostSpentCategory, s.TopSpender)
	}
	if len(s.Categories) != 4 || s.Categories[0].Category != "bills" || s.Categories[1].Category != "food" {
		t.Fatalf("unexpected shares %+v", s.Categories)
	}
	if s.Categories[0].Percentage != 78.1 {
		t.Fatalf("unexpected bills share %v", s.Categories[0].Percentage)
	}
}

func TestSummarizeEmpty(t *testing.T) {
	s := Summarize(nil)
	if s.Count != 0 || !s.Total.IsZero() || !s.Average.IsZero() || s.MostSpentCategory != "" || len(s.Categories) != 0 {
		t.Fatalf("unexpected summary %+v", s)
	}
	if s.Categories == nil {
		t.Fatalf("categories should encode as an empty list")
	}
}

func TestSummarizeOverWindow(t *testing.T) {
	now := time.Date(2025, 3, 12, 9, 0, 0, 0, time.UTC)
	expenses := append(sample(), exp("ana@example.com", "food", "1000", core.NewDate(2025, 2, 28)))
	s := Summarize(FilterByWindow(expenses, WindowMonth, now))
	if !s.Total.Equal(decimal.RequireFromString("128")) {
		t.Fatalf("expected February expense excluded, got %s", s.Total)
	}
}
