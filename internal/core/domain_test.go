package core

import (
	"encoding/json"
	"errors"
	"testing"
	"time"
)

func TestExpenseValidate(t *testing.T) {
	good := Expense{
		UserEmail:    "a@b.c",
		Description:  "ok",
		Category:     "food",
		Amount:       MustAmount("12.50"),
		PurchaseDate: NewDate(2025, 1, 1),
	}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	bads := []struct {
		name string
		mut  func(e *Expense)
		want error
	}{
		{"no user", func(e *Expense) { e.UserEmail = " " }, ErrEmptyUser},
		{"no category", func(e *Expense) { e.Category = "" }, ErrEmptyCategory},
		{"zero date", func(e *Expense) { e.PurchaseDate = Date{} }, ErrZeroDate},
		{"invalid amount", func(e *Expense) { e.Amount = Amount{} }, ErrInvalidAmount},
		{"zero amount", func(e *Expense) { e.Amount = MustAmount("0") }, ErrInvalidAmount},
		{"negative amount", func(e *Expense) { e.Amount = MustAmount("-1") }, ErrNegativeAmount},
	}
	for _, tc := range bads {
		t.Run(tc.name, func(t *testing.T) {
			e := good
			tc.mut(&e)
			err := e.Validate()
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
			if !IsValidation(err) {
				t.Fatalf("expected validation error, got %T", err)
			}
		})
	}
}

func TestDateJSON(t *testing.T) {
	var e Expense
	body := `{"expenseId":3,"purchaseDate":"2025-03-09","amount":"4.5","category":"food","userEmail":"x@y.z"}`
	if err := json.Unmarshal([]byte(body), &e); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if e.PurchaseDate != NewDate(2025, 3, 9) {
		t.Fatalf("unexpected date %v", e.PurchaseDate)
	}

	out, err := json.Marshal(e)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var back map[string]any
	if err := json.Unmarshal(out, &back); err != nil {
		t.Fatalf("unmarshal map: %v", err)
	}
	if back["purchaseDate"] != "2025-03-09" {
		t.Fatalf("unexpected purchaseDate %v", back["purchaseDate"])
	}

	if err := json.Unmarshal([]byte(`{"purchaseDate":"2025-03-09T22:10:00Z"}`), &e); err != nil {
		t.Fatalf("rfc3339: %v", err)
	}
	if e.PurchaseDate != NewDate(2025, 3, 9) {
		t.Fatalf("rfc3339 date truncated wrong: %v", e.PurchaseDate)
	}

	if err := json.Unmarshal([]byte(`{"purchaseDate":"yesterday"}`), &e); err == nil {
		t.Fatalf("expected error for bad date")
	}
}

func TestMonthRange(t *testing.T) {
	start, end, err := MonthRange("2024-02")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if start != NewDate(2024, 2, 1) || end != NewDate(2024, 2, 29) {
		t.Fatalf("unexpected range %v..%v", start, end)
	}
	for _, bad := range []string{"", "2024-13", "2024/02", "24-02"} {
		if _, _, err := MonthRange(bad); !errors.Is(err, ErrInvalidMonth) {
			t.Fatalf("%q expected ErrInvalidMonth, got %v", bad, err)
		}
	}
	if got := MonthKey(time.Date(2025, 11, 30, 23, 0, 0, 0, time.UTC)); got != "2025-11" {
		t.Fatalf("MonthKey = %q", got)
	}
}

func TestDateInLocation(t *testing.T) {
	loc := time.FixedZone("IST", 5*3600+1800)
	d := NewDate(2025, 6, 1)
	got := d.In(loc)
	if got.Hour() != 0 || got.Day() != 1 || got.Location() != loc {
		t.Fatalf("unexpected local midnight %v", got)
	}
}
