package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"tasknest/internal/core"
	"tasknest/internal/expenses"
	"tasknest/internal/log"
	"tasknest/internal/storage"
)

// AnalysisQuery selects the expenses summarised by Analysis. Empty fields
// and "all" disable a filter.
type AnalysisQuery struct {
	Window   string
	Category string
	User     string
}

// ExpenseService orchestrates expense writes across storage, the budget
// stats cache and the event bus.
type ExpenseService struct {
	store   storage.ExpenseStore
	budgets *BudgetService
	logger  *log.Logger
	now     func() time.Time
}

// NewExpenseService wires the service. budgets may be nil, in which case
// writes do not invalidate stats or publish events.
func NewExpenseService(store storage.ExpenseStore, budgets *BudgetService, logger *log.Logger) *ExpenseService {
	if logger == nil {
		logger = log.New(log.Config{Component: log.ComponentExpense})
	}
	return &ExpenseService{
		store:   store,
		budgets: budgets,
		logger:  logger,
		now:     time.Now,
	}
}

// Create validates and saves an expense.
func (s *ExpenseService) Create(ctx context.Context, e core.Expense) (core.Expense, error) {
	e = normalizeExpense(e)
	if err := e.Validate(); err != nil {
		return core.Expense{}, err
	}
	saved, err := s.store.CreateExpense(ctx, e)
	if err != nil {
		return core.Expense{}, fmt.Errorf("save expense: %w", err)
	}

	s.logger.InfoContext(ctx, "Expense created",
		log.FieldOperation, log.OpCreate,
		log.FieldExpenseID, saved.ID,
		log.FieldCategory, saved.Category,
		log.FieldAmount, saved.Amount.String())
	s.changed(ctx, saved)
	return saved, nil
}

func (s *ExpenseService) Get(ctx context.Context, id int64) (core.Expense, error) {
	e, err := s.store.GetExpense(ctx, id)
	if err != nil {
		return core.Expense{}, fmt.Errorf("get expense %d: %w", id, err)
	}
	return e, nil
}

func (s *ExpenseService) List(ctx context.Context) ([]core.Expense, error) {
	list, err := s.store.ListExpenses(ctx)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	return list, nil
}

func (s *ExpenseService) ListByUser(ctx context.Context, email string) ([]core.Expense, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return nil, core.ErrEmptyUser
	}
	list, err := s.store.ListExpensesByUser(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("list expenses of %s: %w", email, err)
	}
	return list, nil
}

// Update replaces the expense with the given id.
func (s *ExpenseService) Update(ctx context.Context, id int64, e core.Expense) (core.Expense, error) {
	e = normalizeExpense(e)
	e.ID = id
	if err := e.Validate(); err != nil {
		return core.Expense{}, err
	}
	old, err := s.Get(ctx, id)
	if err != nil {
		return core.Expense{}, err
	}
	if err := s.store.UpdateExpense(ctx, e); err != nil {
		return core.Expense{}, fmt.Errorf("update expense %d: %w", id, err)
	}

	s.logger.InfoContext(ctx, "Expense updated",
		log.FieldOperation, log.OpUpdate,
		log.FieldExpenseID, id,
		log.FieldCategory, e.Category,
		log.FieldAmount, e.Amount.String())
	if old.UserEmail != e.UserEmail || core.MonthKey(old.PurchaseDate.Time) != core.MonthKey(e.PurchaseDate.Time) {
		s.changed(ctx, old)
	}
	s.changed(ctx, e)
	return e, nil
}

func (s *ExpenseService) Delete(ctx context.Context, id int64) error {
	old, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.store.DeleteExpense(ctx, id); err != nil {
		return fmt.Errorf("delete expense %d: %w", id, err)
	}

	s.logger.InfoContext(ctx, "Expense deleted",
		log.FieldOperation, log.OpDelete,
		log.FieldExpenseID, id)
	s.changed(ctx, old)
	return nil
}

// Analysis filters all expenses by window, category and user and
// summarises what is left.
func (s *ExpenseService) Analysis(ctx context.Context, q AnalysisQuery) (expenses.Summary, error) {
	window, err := expenses.ParseWindow(q.Window)
	if err != nil {
		return expenses.Summary{}, err
	}
	list, err := s.List(ctx)
	if err != nil {
		return expenses.Summary{}, err
	}

	list = expenses.FilterByWindow(list, window, s.now())
	list = expenses.FilterByCategory(list, q.Category)
	list = expenses.FilterByUser(list, q.User)

	s.logger.DebugContext(ctx, "Expense analysis",
		log.FieldOperation, log.OpAnalyze,
		"window", window,
		"matched", len(list))
	return expenses.Summarize(list), nil
}

func (s *ExpenseService) changed(ctx context.Context, e core.Expense) {
	if s.budgets == nil {
		return
	}
	s.budgets.expenseChanged(ctx, e.UserEmail, core.MonthKey(e.PurchaseDate.Time))
}

func normalizeExpense(e core.Expense) core.Expense {
	e.UserEmail = strings.TrimSpace(e.UserEmail)
	e.Category = strings.TrimSpace(e.Category)
	e.Description = strings.TrimSpace(e.Description)
	return e
}
