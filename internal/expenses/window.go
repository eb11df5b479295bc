package expenses

import (
	"strings"
	"time"

	"tasknest/internal/core"
)

// Window selects expenses relative to the current moment.
type Window string

const (
	WindowToday Window = "today"
	WindowWeek  Window = "week"
	WindowMonth Window = "month"
	WindowAll   Window = "all"
)

// ParseWindow accepts today, week, month or all; empty means all.
func ParseWindow(s string) (Window, error) {
	switch w := Window(strings.ToLower(strings.TrimSpace(s))); w {
	case "":
		return WindowAll, nil
	case WindowToday, WindowWeek, WindowMonth, WindowAll:
		return w, nil
	default:
		return "", core.NewValidationError("window", "unknown window %q (expected today, week, month or all)", s)
	}
}

// Start returns the first instant of the window in now's location. Weeks
// start on Sunday. The zero time is returned for WindowAll.
func (w Window) Start(now time.Time) time.Time {
	y, m, d := now.Date()
	loc := now.Location()
	switch w {
	case WindowToday:
		return time.Date(y, m, d, 0, 0, 0, 0, loc)
	case WindowWeek:
		return time.Date(y, m, d-int(now.Weekday()), 0, 0, 0, 0, loc)
	case WindowMonth:
		return time.Date(y, m, 1, 0, 0, 0, 0, loc)
	default:
		return time.Time{}
	}
}

// FilterByWindow keeps expenses purchased on or after the window start.
// Purchase dates are read as calendar days in now's location. Expenses
// without a date only survive WindowAll.
func FilterByWindow(expenses []core.Expense, w Window, now time.Time) []core.Expense {
	if w == WindowAll || w == "" {
		return append([]core.Expense(nil), expenses...)
	}
	start := w.Start(now)
	var out []core.Expense
	for _, e := range expenses {
		if e.PurchaseDate.IsZero() {
			continue
		}
		if e.PurchaseDate.In(now.Location()).Before(start) {
			continue
		}
		out = append(out, e)
	}
	return out
}
