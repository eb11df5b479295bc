package core

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const dateLayout = "2006-01-02"

const monthLayout = "2006-01"

type (
	// Date is a calendar day. The time-of-day part is always midnight UTC.
	Date struct {
		time.Time
	}

	Expense struct {
		ID           int64  `json:"expenseId"`
		UserEmail    string `json:"userEmail"`
		Description  string `json:"description"`
		Category     string `json:"category"`
		Amount       Amount `json:"amount"`
		PurchaseDate Date   `json:"purchaseDate"`
	}

	// Budget is the persisted monthly budget of a user. MonthlyBudget is
	// derived from FundsAmount and kept for clients that read either.
	Budget struct {
		ID            int64           `json:"budgetID"`
		UserEmail     string          `json:"userEmail"`
		Month         string          `json:"month"`
		FundsAmount   decimal.Decimal `json:"fundsAmount"`
		MonthlyBudget decimal.Decimal `json:"monthlyBudget"`
		UpdateDate    Date            `json:"updateDate"`
	}
)

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates t to its calendar day in t's own location.
func DateOf(t time.Time) Date {
	return NewDate(t.Year(), int(t.Month()), t.Day())
}

// ParseDate accepts YYYY-MM-DD or a full RFC 3339 timestamp.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(dateLayout, s); err == nil {
		return DateOf(t), nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return Date{}, NewValidationError("date", "invalid date %q", s)
	}
	return DateOf(t), nil
}

// In returns midnight of the same calendar day in loc.
func (d Date) In(loc *time.Location) time.Time {
	return time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, loc)
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(dateLayout)
}

func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return []byte(`"` + d.Format(dateLayout) + `"`), nil
}

func (d *Date) UnmarshalJSON(b []byte) error {
	s := strings.Trim(strings.TrimSpace(string(b)), `"`)
	if s == "" || s == "null" {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// ParseMonth validates a YYYY-MM month key and returns its first day.
func ParseMonth(month string) (Date, error) {
	t, err := time.Parse(monthLayout, strings.TrimSpace(month))
	if err != nil {
		return Date{}, ErrInvalidMonth
	}
	return DateOf(t), nil
}

// MonthRange returns the first and last calendar day of a YYYY-MM month.
func MonthRange(month string) (Date, Date, error) {
	start, err := ParseMonth(month)
	if err != nil {
		return Date{}, Date{}, err
	}
	end := DateOf(start.AddDate(0, 1, -1))
	return start, end, nil
}

// MonthKey formats t as YYYY-MM.
func MonthKey(t time.Time) string {
	return t.Format(monthLayout)
}

func (e Expense) Validate() error {
	if strings.TrimSpace(e.UserEmail) == "" {
		return ErrEmptyUser
	}
	if strings.TrimSpace(e.Category) == "" {
		return ErrEmptyCategory
	}
	if len(e.Description) > 200 {
		return ErrDescriptionLong
	}
	if e.PurchaseDate.IsZero() {
		return ErrZeroDate
	}
	if !e.Amount.Valid {
		return ErrInvalidAmount
	}
	if e.Amount.Value.IsNegative() {
		return ErrNegativeAmount
	}
	if e.Amount.Value.IsZero() {
		return ErrInvalidAmount
	}
	return nil
}

// NewBudget returns an empty budget for email and month, stamped with today.
func NewBudget(email, month string, today time.Time) Budget {
	return Budget{
		UserEmail:     email,
		Month:         month,
		FundsAmount:   decimal.Zero,
		MonthlyBudget: decimal.Zero,
		UpdateDate:    DateOf(today),
	}
}
