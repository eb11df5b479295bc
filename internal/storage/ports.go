package storage

import (
	"context"
	"errors"

	"tasknest/internal/core"
)

// ErrNotFound is returned when a budget or expense does not exist.
var ErrNotFound = errors.New("not found")

// BudgetStore persists monthly budgets and their category distribution.
type BudgetStore interface {
	// FindBudget looks a budget up by its natural key.
	FindBudget(ctx context.Context, email, month string) (core.Budget, error)
	GetBudget(ctx context.Context, id int64) (core.Budget, error)
	// CreateBudget inserts b and returns it with its assigned ID. Creating
	// a second budget for the same user and month returns the existing one.
	CreateBudget(ctx context.Context, b core.Budget) (core.Budget, error)
	UpdateBudget(ctx context.Context, b core.Budget) error
	// Distribution returns the stored percentages; an empty map means the
	// budget has no custom distribution.
	Distribution(ctx context.Context, budgetID int64) (map[string]float64, error)
	// SaveDistribution replaces the whole distribution atomically.
	SaveDistribution(ctx context.Context, budgetID int64, pct map[string]float64) error
	DeleteDistribution(ctx context.Context, budgetID int64) error
}

// ExpenseStore persists expense records.
type ExpenseStore interface {
	CreateExpense(ctx context.Context, e core.Expense) (core.Expense, error)
	GetExpense(ctx context.Context, id int64) (core.Expense, error)
	UpdateExpense(ctx context.Context, e core.Expense) error
	DeleteExpense(ctx context.Context, id int64) error
	ListExpenses(ctx context.Context) ([]core.Expense, error)
	ListExpensesByUser(ctx context.Context, email string) ([]core.Expense, error)
	// ListExpensesBetween returns a user's expenses with from <= date <= to.
	ListExpensesBetween(ctx context.Context, email string, from, to core.Date) ([]core.Expense, error)
}

// Store is a complete persistence backend.
type Store interface {
	BudgetStore
	ExpenseStore
	Ping(ctx context.Context) error
	Close() error
}
