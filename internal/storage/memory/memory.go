// Package memory is an in-process storage backend for development and tests.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"tasknest/internal/core"
	"tasknest/internal/storage"
)

type Store struct {
	mu            sync.Mutex
	nextBudgetID  int64
	nextExpenseID int64
	budgets       map[int64]core.Budget
	byKey         map[string]int64
	distributions map[int64]map[string]float64
	expenses      map[int64]core.Expense
}

var _ storage.Store = (*Store)(nil)

func New() *Store {
	return &Store{
		budgets:       make(map[int64]core.Budget),
		byKey:         make(map[string]int64),
		distributions: make(map[int64]map[string]float64),
		expenses:      make(map[int64]core.Expense),
	}
}

func budgetKey(email, month string) string {
	return email + "\x00" + month
}

func (s *Store) Ping(context.Context) error { return nil }

func (s *Store) Close() error { return nil }

func (s *Store) FindBudget(_ context.Context, email, month string) (core.Budget, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.byKey[budgetKey(email, month)]
	if !ok {
		return core.Budget{}, fmt.Errorf("find budget %s/%s: %w", email, month, storage.ErrNotFound)
	}
	return s.budgets[id], nil
}

func (s *Store) GetBudget(_ context.Context, id int64) (core.Budget, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.budgets[id]
	if !ok {
		return core.Budget{}, fmt.Errorf("get budget %d: %w", id, storage.ErrNotFound)
	}
	return b, nil
}

func (s *Store) CreateBudget(_ context.Context, b core.Budget) (core.Budget, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := budgetKey(b.UserEmail, b.Month)
	if id, ok := s.byKey[key]; ok {
		return s.budgets[id], nil
	}
	s.nextBudgetID++
	b.ID = s.nextBudgetID
	s.budgets[b.ID] = b
	s.byKey[key] = b.ID
	return b, nil
}

func (s *Store) UpdateBudget(_ context.Context, b core.Budget) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	old, ok := s.budgets[b.ID]
	if !ok {
		return fmt.Errorf("update budget %d: %w", b.ID, storage.ErrNotFound)
	}
	// The natural key is immutable.
	b.UserEmail, b.Month = old.UserEmail, old.Month
	s.budgets[b.ID] = b
	return nil
}

func (s *Store) Distribution(_ context.Context, budgetID int64) (map[string]float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]float64, len(s.distributions[budgetID]))
	for k, v := range s.distributions[budgetID] {
		out[k] = v
	}
	return out, nil
}

func (s *Store) SaveDistribution(_ context.Context, budgetID int64, pct map[string]float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.budgets[budgetID]; !ok {
		return fmt.Errorf("save distribution %d: %w", budgetID, storage.ErrNotFound)
	}
	cp := make(map[string]float64, len(pct))
	for k, v := range pct {
		cp[k] = v
	}
	s.distributions[budgetID] = cp
	return nil
}

func (s *Store) DeleteDistribution(_ context.Context, budgetID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.distributions, budgetID)
	return nil
}

func (s *Store) CreateExpense(_ context.Context, e core.Expense) (core.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextExpenseID++
	e.ID = s.nextExpenseID
	s.expenses[e.ID] = e
	return e, nil
}

func (s *Store) GetExpense(_ context.Context, id int64) (core.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.expenses[id]
	if !ok {
		return core.Expense{}, fmt.Errorf("get expense %d: %w", id, storage.ErrNotFound)
	}
	return e, nil
}

func (s *Store) UpdateExpense(_ context.Context, e core.Expense) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.expenses[e.ID]; !ok {
		return fmt.Errorf("update expense %d: %w", e.ID, storage.ErrNotFound)
	}
	s.expenses[e.ID] = e
	return nil
}

func (s *Store) DeleteExpense(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.expenses[id]; !ok {
		return fmt.Errorf("delete expense %d: %w", id, storage.ErrNotFound)
	}
	delete(s.expenses, id)
	return nil
}

func (s *Store) ListExpenses(context.Context) ([]core.Expense, error) {
	return s.list(func(core.Expense) bool { return true }), nil
}

func (s *Store) ListExpensesByUser(_ context.Context, email string) ([]core.Expense, error) {
	return s.list(func(e core.Expense) bool { return e.UserEmail == email }), nil
}

func (s *Store) ListExpensesBetween(_ context.Context, email string, from, to core.Date) ([]core.Expense, error) {
	return s.list(func(e core.Expense) bool {
		return e.UserEmail == email && !e.PurchaseDate.Before(from.Time) && !e.PurchaseDate.After(to.Time)
	}), nil
}

// list returns matching expenses newest first, like the SQL backend.
func (s *Store) list(keep func(core.Expense) bool) []core.Expense {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []core.Expense{}
	for _, e := range s.expenses {
		if keep(e) {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].PurchaseDate.Equal(out[j].PurchaseDate.Time) {
			return out[i].PurchaseDate.After(out[j].PurchaseDate.Time)
		}
		return out[i].ID > out[j].ID
	})
	return out
}
