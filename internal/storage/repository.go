package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/shopspring/decimal"

	"tasknest/internal/core"

	_ "modernc.org/sqlite"
)

const sqlitePragmas = "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"

type SQLiteRepository struct {
	db      *sql.DB
	queries *Queries
}

var _ Store = (*SQLiteRepository)(nil)

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+sqlitePragmas)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// A single writer avoids SQLITE_BUSY between pooled connections.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{
		db:      db,
		queries: New(db),
	}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *SQLiteRepository) FindBudget(ctx context.Context, email, month string) (core.Budget, error) {
	row, err := r.queries.GetBudgetByUserMonth(ctx, email, month)
	if err != nil {
		return core.Budget{}, notFound(err, "find budget %s/%s", email, month)
	}
	return toBudget(ctx, row), nil
}

func (r *SQLiteRepository) GetBudget(ctx context.Context, id int64) (core.Budget, error) {
	row, err := r.queries.GetBudget(ctx, id)
	if err != nil {
		return core.Budget{}, notFound(err, "get budget %d", id)
	}
	return toBudget(ctx, row), nil
}

func (r *SQLiteRepository) CreateBudget(ctx context.Context, b core.Budget) (core.Budget, error) {
	row, err := r.queries.CreateBudget(ctx, CreateBudgetParams{
		UserEmail:     b.UserEmail,
		Month:         b.Month,
		FundsAmount:   b.FundsAmount.String(),
		MonthlyBudget: b.MonthlyBudget.String(),
		UpdateDate:    b.UpdateDate.String(),
	})
	if errors.Is(err, sql.ErrNoRows) {
		// Lost a race with a concurrent create.
		return r.FindBudget(ctx, b.UserEmail, b.Month)
	}
	if err != nil {
		return core.Budget{}, fmt.Errorf("create budget: %w", err)
	}

	slog.InfoContext(ctx, "Budget created",
		"id", row.ID,
		"user_email", row.UserEmail,
		"month", row.Month)

	return toBudget(ctx, row), nil
}

func (r *SQLiteRepository) UpdateBudget(ctx context.Context, b core.Budget) error {
	n, err := r.queries.UpdateBudget(ctx, UpdateBudgetParams{
		FundsAmount:   b.FundsAmount.String(),
		MonthlyBudget: b.MonthlyBudget.String(),
		UpdateDate:    b.UpdateDate.String(),
		ID:            b.ID,
	})
	if err != nil {
		return fmt.Errorf("update budget %d: %w", b.ID, err)
	}
	if n == 0 {
		return fmt.Errorf("update budget %d: %w", b.ID, ErrNotFound)
	}
	return nil
}

func (r *SQLiteRepository) Distribution(ctx context.Context, budgetID int64) (map[string]float64, error) {
	rows, err := r.queries.GetDistribution(ctx, budgetID)
	if err != nil {
		return nil, fmt.Errorf("get distribution %d: %w", budgetID, err)
	}
	out := make(map[string]float64, len(rows))
	for _, row := range rows {
		out[row.Category] = row.Percentage
	}
	return out, nil
}

func (r *SQLiteRepository) SaveDistribution(ctx context.Context, budgetID int64, pct map[string]float64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	q := r.queries.WithTx(tx)
	if err := q.DeleteDistribution(ctx, budgetID); err != nil {
		return fmt.Errorf("clear distribution %d: %w", budgetID, err)
	}
	for category, p := range pct {
		if err := q.InsertDistribution(ctx, budgetID, category, p); err != nil {
			return fmt.Errorf("insert distribution %d/%s: %w", budgetID, category, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit distribution %d: %w", budgetID, err)
	}

	slog.InfoContext(ctx, "Distribution saved", "budget_id", budgetID, "categories", len(pct))
	return nil
}

func (r *SQLiteRepository) DeleteDistribution(ctx context.Context, budgetID int64) error {
	if err := r.queries.DeleteDistribution(ctx, budgetID); err != nil {
		return fmt.Errorf("delete distribution %d: %w", budgetID, err)
	}
	return nil
}

func (r *SQLiteRepository) CreateExpense(ctx context.Context, e core.Expense) (core.Expense, error) {
	row, err := r.queries.CreateExpense(ctx, CreateExpenseParams{
		UserEmail:    e.UserEmail,
		Description:  e.Description,
		Category:     e.Category,
		Amount:       e.Amount.OrZero().String(),
		PurchaseDate: e.PurchaseDate.String(),
	})
	if err != nil {
		return core.Expense{}, fmt.Errorf("create expense: %w", err)
	}

	slog.InfoContext(ctx, "Expense saved to SQLite",
		"id", row.ID,
		"category", row.Category,
		"amount", row.Amount,
		"purchase_date", row.PurchaseDate)

	return toExpense(ctx, row), nil
}

func (r *SQLiteRepository) GetExpense(ctx context.Context, id int64) (core.Expense, error) {
	row, err := r.queries.GetExpense(ctx, id)
	if err != nil {
		return core.Expense{}, notFound(err, "get expense %d", id)
	}
	return toExpense(ctx, row), nil
}

func (r *SQLiteRepository) UpdateExpense(ctx context.Context, e core.Expense) error {
	n, err := r.queries.UpdateExpense(ctx, UpdateExpenseParams{
		UserEmail:    e.UserEmail,
		Description:  e.Description,
		Category:     e.Category,
		Amount:       e.Amount.OrZero().String(),
		PurchaseDate: e.PurchaseDate.String(),
		ID:           e.ID,
	})
	if err != nil {
		return fmt.Errorf("update expense %d: %w", e.ID, err)
	}
	if n == 0 {
		return fmt.Errorf("update expense %d: %w", e.ID, ErrNotFound)
	}
	return nil
}

func (r *SQLiteRepository) DeleteExpense(ctx context.Context, id int64) error {
	n, err := r.queries.DeleteExpense(ctx, id)
	if err != nil {
		return fmt.Errorf("delete expense %d: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("delete expense %d: %w", id, ErrNotFound)
	}
	return nil
}

func (r *SQLiteRepository) ListExpenses(ctx context.Context) ([]core.Expense, error) {
	rows, err := r.queries.ListExpenses(ctx)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	return toExpenses(ctx, rows), nil
}

func (r *SQLiteRepository) ListExpensesByUser(ctx context.Context, email string) ([]core.Expense, error) {
	rows, err := r.queries.ListExpensesByUser(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("list expenses for %s: %w", email, err)
	}
	return toExpenses(ctx, rows), nil
}

func (r *SQLiteRepository) ListExpensesBetween(ctx context.Context, email string, from, to core.Date) ([]core.Expense, error) {
	rows, err := r.queries.ListExpensesBetween(ctx, email, from.String(), to.String())
	if err != nil {
		return nil, fmt.Errorf("list expenses for %s between %s and %s: %w", email, from, to, err)
	}
	return toExpenses(ctx, rows), nil
}

func notFound(err error, format string, args ...any) error {
	if errors.Is(err, sql.ErrNoRows) {
		err = ErrNotFound
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}

func toBudget(ctx context.Context, row BudgetRow) core.Budget {
	date, err := core.ParseDate(row.UpdateDate)
	if err != nil {
		slog.WarnContext(ctx, "Invalid budget update date", "id", row.ID, "value", row.UpdateDate)
	}
	return core.Budget{
		ID:            row.ID,
		UserEmail:     row.UserEmail,
		Month:         row.Month,
		FundsAmount:   parseStoredDecimal(ctx, "funds_amount", row.FundsAmount),
		MonthlyBudget: parseStoredDecimal(ctx, "monthly_budget", row.MonthlyBudget),
		UpdateDate:    date,
	}
}

func toExpense(ctx context.Context, row ExpenseRow) core.Expense {
	amount, err := core.ParseAmount(row.Amount)
	if err != nil {
		slog.WarnContext(ctx, "Stored expense amount unreadable", "id", row.ID, "error", err)
	}
	date, err := core.ParseDate(row.PurchaseDate)
	if err != nil {
		slog.WarnContext(ctx, "Stored purchase date unreadable", "id", row.ID, "value", row.PurchaseDate)
	}
	return core.Expense{
		ID:           row.ID,
		UserEmail:    row.UserEmail,
		Description:  row.Description,
		Category:     row.Category,
		Amount:       amount,
		PurchaseDate: date,
	}
}

func toExpenses(ctx context.Context, rows []ExpenseRow) []core.Expense {
	out := make([]core.Expense, len(rows))
	for i, row := range rows {
		out[i] = toExpense(ctx, row)
	}
	return out
}

func parseStoredDecimal(ctx context.Context, field, raw string) decimal.Decimal {
	a, err := core.ParseAmount(raw)
	if err != nil {
		slog.WarnContext(ctx, "Stored decimal unreadable", "field", field, "error", err)
	}
	return a.OrZero()
}
