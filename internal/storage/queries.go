package storage

import (
	"context"
	"database/sql"
)

// DBTX is satisfied by *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(context.Context, string, ...interface{}) (sql.Result, error)
	QueryContext(context.Context, string, ...interface{}) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...interface{}) *sql.Row
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

type Queries struct {
	db DBTX
}

func (q *Queries) WithTx(tx *sql.Tx) *Queries {
	return &Queries{db: tx}
}

// Row types mirror the table layout; amounts and dates are kept as text.

type BudgetRow struct {
	ID            int64
	UserEmail     string
	Month         string
	FundsAmount   string
	MonthlyBudget string
	UpdateDate    string
}

type ExpenseRow struct {
	ID           int64
	UserEmail    string
	Description  string
	Category     string
	Amount       string
	PurchaseDate string
}

const budgetColumns = `id, user_email, month, funds_amount, monthly_budget, update_date`

const expenseColumns = `id, user_email, description, category, amount, purchase_date`

func scanBudget(row interface{ Scan(...any) error }) (BudgetRow, error) {
	var b BudgetRow
	err := row.Scan(&b.ID, &b.UserEmail, &b.Month, &b.FundsAmount, &b.MonthlyBudget, &b.UpdateDate)
	return b, err
}

func scanExpense(row interface{ Scan(...any) error }) (ExpenseRow, error) {
	var e ExpenseRow
	err := row.Scan(&e.ID, &e.UserEmail, &e.Description, &e.Category, &e.Amount, &e.PurchaseDate)
	return e, err
}

const getBudgetByUserMonth = `SELECT ` + budgetColumns + ` FROM budgets WHERE user_email = ? AND month = ?`

func (q *Queries) GetBudgetByUserMonth(ctx context.Context, userEmail, month string) (BudgetRow, error) {
	return scanBudget(q.db.QueryRowContext(ctx, getBudgetByUserMonth, userEmail, month))
}

const getBudget = `SELECT ` + budgetColumns + ` FROM budgets WHERE id = ?`

func (q *Queries) GetBudget(ctx context.Context, id int64) (BudgetRow, error) {
	return scanBudget(q.db.QueryRowContext(ctx, getBudget, id))
}

const createBudget = `INSERT INTO budgets (user_email, month, funds_amount, monthly_budget, update_date)
VALUES (?, ?, ?, ?, ?)
ON CONFLICT (user_email, month) DO NOTHING
RETURNING ` + budgetColumns

type CreateBudgetParams struct {
	UserEmail     string
	Month         string
	FundsAmount   string
	MonthlyBudget string
	UpdateDate    string
}

// CreateBudget returns sql.ErrNoRows when the budget already exists.
func (q *Queries) CreateBudget(ctx context.Context, arg CreateBudgetParams) (BudgetRow, error) {
	return scanBudget(q.db.QueryRowContext(ctx, createBudget,
		arg.UserEmail, arg.Month, arg.FundsAmount, arg.MonthlyBudget, arg.UpdateDate))
}

const updateBudget = `UPDATE budgets
SET funds_amount = ?, monthly_budget = ?, update_date = ?
WHERE id = ?`

type UpdateBudgetParams struct {
	FundsAmount   string
	MonthlyBudget string
	UpdateDate    string
	ID            int64
}

func (q *Queries) UpdateBudget(ctx context.Context, arg UpdateBudgetParams) (int64, error) {
	res, err := q.db.ExecContext(ctx, updateBudget, arg.FundsAmount, arg.MonthlyBudget, arg.UpdateDate, arg.ID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const getDistribution = `SELECT category, percentage FROM budget_categories WHERE budget_id = ? ORDER BY category`

type DistributionRow struct {
	Category   string
	Percentage float64
}

func (q *Queries) GetDistribution(ctx context.Context, budgetID int64) ([]DistributionRow, error) {
	rows, err := q.db.QueryContext(ctx, getDistribution, budgetID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []DistributionRow
	for rows.Next() {
		var i DistributionRow
		if err := rows.Scan(&i.Category, &i.Percentage); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

const deleteDistribution = `DELETE FROM budget_categories WHERE budget_id = ?`

func (q *Queries) DeleteDistribution(ctx context.Context, budgetID int64) error {
	_, err := q.db.ExecContext(ctx, deleteDistribution, budgetID)
	return err
}

const insertDistribution = `INSERT INTO budget_categories (budget_id, category, percentage) VALUES (?, ?, ?)`

func (q *Queries) InsertDistribution(ctx context.Context, budgetID int64, category string, percentage float64) error {
	_, err := q.db.ExecContext(ctx, insertDistribution, budgetID, category, percentage)
	return err
}

const createExpense = `INSERT INTO expenses (user_email, description, category, amount, purchase_date)
VALUES (?, ?, ?, ?, ?)
RETURNING ` + expenseColumns

type CreateExpenseParams struct {
	UserEmail    string
	Description  string
	Category     string
	Amount       string
	PurchaseDate string
}

func (q *Queries) CreateExpense(ctx context.Context, arg CreateExpenseParams) (ExpenseRow, error) {
	return scanExpense(q.db.QueryRowContext(ctx, createExpense,
		arg.UserEmail, arg.Description, arg.Category, arg.Amount, arg.PurchaseDate))
}

const getExpense = `SELECT ` + expenseColumns + ` FROM expenses WHERE id = ?`

func (q *Queries) GetExpense(ctx context.Context, id int64) (ExpenseRow, error) {
	return scanExpense(q.db.QueryRowContext(ctx, getExpense, id))
}

const updateExpense = `UPDATE expenses
SET user_email = ?, description = ?, category = ?, amount = ?, purchase_date = ?, updated_at = CURRENT_TIMESTAMP
WHERE id = ?`

type UpdateExpenseParams struct {
	UserEmail    string
	Description  string
	Category     string
	Amount       string
	PurchaseDate string
	ID           int64
}

func (q *Queries) UpdateExpense(ctx context.Context, arg UpdateExpenseParams) (int64, error) {
	res, err := q.db.ExecContext(ctx, updateExpense,
		arg.UserEmail, arg.Description, arg.Category, arg.Amount, arg.PurchaseDate, arg.ID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const deleteExpense = `DELETE FROM expenses WHERE id = ?`

func (q *Queries) DeleteExpense(ctx context.Context, id int64) (int64, error) {
	res, err := q.db.ExecContext(ctx, deleteExpense, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const listExpenses = `SELECT ` + expenseColumns + ` FROM expenses ORDER BY purchase_date DESC, id DESC`

func (q *Queries) ListExpenses(ctx context.Context) ([]ExpenseRow, error) {
	return q.queryExpenses(ctx, listExpenses)
}

const listExpensesByUser = `SELECT ` + expenseColumns + ` FROM expenses WHERE user_email = ? ORDER BY purchase_date DESC, id DESC`

func (q *Queries) ListExpensesByUser(ctx context.Context, userEmail string) ([]ExpenseRow, error) {
	return q.queryExpenses(ctx, listExpensesByUser, userEmail)
}

const listExpensesBetween = `SELECT ` + expenseColumns + ` FROM expenses
WHERE user_email = ? AND purchase_date >= ? AND purchase_date <= ?
ORDER BY purchase_date DESC, id DESC`

func (q *Queries) ListExpensesBetween(ctx context.Context, userEmail, from, to string) ([]ExpenseRow, error) {
	return q.queryExpenses(ctx, listExpensesBetween, userEmail, from, to)
}

func (q *Queries) queryExpenses(ctx context.Context, query string, args ...interface{}) ([]ExpenseRow, error) {
	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []ExpenseRow
	for rows.Next() {
		i, err := scanExpense(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}
