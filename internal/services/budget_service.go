package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"tasknest/internal/amqp"
	"tasknest/internal/budget"
	"tasknest/internal/cache"
	"tasknest/internal/core"
	"tasknest/internal/log"
	"tasknest/internal/storage"
)

type (
	// DistributionView is a budget's category split with computed amounts.
	DistributionView struct {
		BudgetID      int64                       `json:"budgetID"`
		MonthlyBudget decimal.Decimal             `json:"monthlyBudget"`
		Custom        bool                        `json:"custom"`
		Categories    []budget.CategoryAllocation `json:"categories"`
	}

	Overview struct {
		Budget     core.Budget                 `json:"budget"`
		Categories []budget.CategoryAllocation `json:"categories"`
		TotalSpent decimal.Decimal             `json:"totalSpent"`
		Remaining  decimal.Decimal             `json:"remaining"`
		Overspent  []budget.OverspendRecord    `json:"overspent"`
		Advice     []budget.Advice             `json:"advice"`
	}

	AdjustResult struct {
		Changed   bool                     `json:"changed"`
		Before    map[string]float64       `json:"before"`
		After     map[string]float64       `json:"after"`
		Overspent []budget.OverspendRecord `json:"overspent"`
	}
)

// BudgetService orchestrates budgets, their distribution and statistics
// across storage, the stats cache and the event bus.
type BudgetService struct {
	store     storage.Store
	publisher EventPublisher
	defaults  map[string]float64
	stats     cache.Cache[budget.Stats]
	logger    *log.Logger
	now       func() time.Time
}

// NewBudgetService wires the service. publisher and stats may be nil.
func NewBudgetService(store storage.Store, publisher EventPublisher, defaults map[string]float64, stats cache.Cache[budget.Stats], logger *log.Logger) *BudgetService {
	if defaults == nil {
		defaults = budget.DefaultPercentages()
	}
	if logger == nil {
		logger = log.New(log.Config{Component: log.ComponentBudget})
	}
	return &BudgetService{
		store:     store,
		publisher: publisher,
		defaults:  defaults,
		stats:     stats,
		logger:    logger,
		now:       time.Now,
	}
}

// GetOrCreate returns the budget of email for month, creating an empty one
// on first access.
func (s *BudgetService) GetOrCreate(ctx context.Context, email, month string) (core.Budget, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return core.Budget{}, core.ErrEmptyUser
	}
	if _, err := core.ParseMonth(month); err != nil {
		return core.Budget{}, err
	}

	b, err := s.store.FindBudget(ctx, email, month)
	if err == nil {
		return b, nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return core.Budget{}, fmt.Errorf("find budget: %w", err)
	}

	b, err = s.store.CreateBudget(ctx, core.NewBudget(email, month, s.now()))
	if err != nil {
		return core.Budget{}, fmt.Errorf("create budget: %w", err)
	}
	s.logger.InfoContext(ctx, "Budget created",
		log.FieldBudgetID, b.ID,
		log.FieldUserEmail, email,
		log.FieldMonth, month)
	return b, nil
}

func (s *BudgetService) Get(ctx context.Context, id int64) (core.Budget, error) {
	b, err := s.store.GetBudget(ctx, id)
	if err != nil {
		return core.Budget{}, fmt.Errorf("get budget %d: %w", id, err)
	}
	return b, nil
}

// AddFunds adds delta to the budget; a negative delta removes funds.
func (s *BudgetService) AddFunds(ctx context.Context, id int64, delta decimal.Decimal) (core.Budget, error) {
	b, err := s.Get(ctx, id)
	if err != nil {
		return core.Budget{}, err
	}
	p, _, err := s.loadPeriod(ctx, b)
	if err != nil {
		return core.Budget{}, err
	}
	if err := p.AddFunds(delta); err != nil {
		return core.Budget{}, err
	}

	b.FundsAmount = p.MonthlyBudget
	b.MonthlyBudget = p.MonthlyBudget
	b.UpdateDate = core.DateOf(s.now())
	if err := s.store.UpdateBudget(ctx, b); err != nil {
		return core.Budget{}, fmt.Errorf("update budget %d: %w", id, err)
	}
	s.invalidate(b.UserEmail, b.Month)

	s.logger.InfoContext(ctx, "Budget funds changed",
		log.FieldOperation, log.OpAddFunds,
		log.FieldBudgetID, b.ID,
		log.FieldAmount, delta.StringFixed(2),
		"monthly_budget", b.MonthlyBudget.StringFixed(2))
	publish(ctx, s.publisher, s.logger, newEvent(amqp.EventFundsChanged, b, p))
	return b, nil
}

// Distribution returns the current split; budgets without a custom split
// use the configured defaults.
func (s *BudgetService) Distribution(ctx context.Context, id int64) (DistributionView, error) {
	b, err := s.Get(ctx, id)
	if err != nil {
		return DistributionView{}, err
	}
	p, custom, err := s.loadPeriod(ctx, b)
	if err != nil {
		return DistributionView{}, err
	}
	return view(b, p, custom), nil
}

// SetDistribution validates and stores a new split. Category names are
// lowercased.
func (s *BudgetService) SetDistribution(ctx context.Context, id int64, pct map[string]float64) (DistributionView, error) {
	normalized, err := normalizePercentages(pct)
	if err != nil {
		return DistributionView{}, err
	}
	b, err := s.Get(ctx, id)
	if err != nil {
		return DistributionView{}, err
	}
	p, _, err := s.loadPeriod(ctx, b)
	if err != nil {
		return DistributionView{}, err
	}
	if err := p.Redistribute(normalized); err != nil {
		return DistributionView{}, err
	}
	if err := s.store.SaveDistribution(ctx, b.ID, normalized); err != nil {
		return DistributionView{}, fmt.Errorf("save distribution: %w", err)
	}

	s.logger.InfoContext(ctx, "Budget distribution applied",
		log.FieldOperation, log.OpDistribute,
		log.FieldBudgetID, b.ID,
		"categories", len(normalized))
	publish(ctx, s.publisher, s.logger, newEvent(amqp.EventDistributionApplied, b, p))
	return view(b, p, true), nil
}

// ResetDistribution drops the custom split so the defaults apply again.
func (s *BudgetService) ResetDistribution(ctx context.Context, id int64) (DistributionView, error) {
	b, err := s.Get(ctx, id)
	if err != nil {
		return DistributionView{}, err
	}
	if err := s.store.DeleteDistribution(ctx, b.ID); err != nil {
		return DistributionView{}, fmt.Errorf("delete distribution: %w", err)
	}
	p, _, err := s.loadPeriod(ctx, b)
	if err != nil {
		return DistributionView{}, err
	}

	s.logger.InfoContext(ctx, "Budget distribution reset",
		log.FieldOperation, log.OpDistribute,
		log.FieldBudgetID, b.ID)
	publish(ctx, s.publisher, s.logger, newEvent(amqp.EventDistributionApplied, b, p))
	return view(b, p, false), nil
}

func (s *BudgetService) Overview(ctx context.Context, id int64) (Overview, error) {
	b, err := s.Get(ctx, id)
	if err != nil {
		return Overview{}, err
	}
	p, _, err := s.loadPeriod(ctx, b)
	if err != nil {
		return Overview{}, err
	}

	total := p.TotalSpent()
	overspent := p.Overspend()
	if overspent == nil {
		overspent = []budget.OverspendRecord{}
	}
	advice := budget.Advise(p, total)
	if advice == nil {
		advice = []budget.Advice{}
	}
	return Overview{
		Budget:     b,
		Categories: p.Sorted(),
		TotalSpent: total,
		Remaining:  b.MonthlyBudget.Sub(total),
		Overspent:  overspent,
		Advice:     advice,
	}, nil
}

// AutoAdjust redistributes the split after overspend and stores the result.
// Budgets without overspend are left untouched.
func (s *BudgetService) AutoAdjust(ctx context.Context, id int64) (AdjustResult, error) {
	b, err := s.Get(ctx, id)
	if err != nil {
		return AdjustResult{}, err
	}
	p, _, err := s.loadPeriod(ctx, b)
	if err != nil {
		return AdjustResult{}, err
	}

	result := AdjustResult{
		Before:    p.Percentages(),
		Overspent: p.Overspend(),
	}
	if result.Overspent == nil {
		result.Overspent = []budget.OverspendRecord{}
	}
	changed, err := p.AutoAdjust()
	if err != nil {
		return AdjustResult{}, err
	}
	result.Changed = changed
	result.After = p.Percentages()
	if !changed {
		return result, nil
	}

	if err := s.store.SaveDistribution(ctx, b.ID, result.After); err != nil {
		return AdjustResult{}, fmt.Errorf("save distribution: %w", err)
	}
	s.logger.InfoContext(ctx, "Budget distribution adjusted",
		log.FieldOperation, log.OpAutoAdjust,
		log.FieldBudgetID, b.ID,
		log.FieldOverspent, len(result.Overspent))
	publish(ctx, s.publisher, s.logger, newEvent(amqp.EventDistributionAdjusted, b, p))
	return result, nil
}

// Stats returns the monthly statistics of email, creating the budget on
// first access. Results are cached until an expense or the budget changes.
func (s *BudgetService) Stats(ctx context.Context, email, month string) (budget.Stats, error) {
	key := statsKey(email, month)
	if s.stats != nil {
		if st, ok := s.stats.Get(key); ok {
			s.logger.DebugContext(ctx, "Stats cache hit", log.FieldUserEmail, email, log.FieldMonth, month)
			return st, nil
		}
	}

	b, err := s.GetOrCreate(ctx, email, month)
	if err != nil {
		return budget.Stats{}, err
	}
	monthExpenses, err := s.monthExpenses(ctx, b)
	if err != nil {
		return budget.Stats{}, err
	}
	st, err := budget.MonthlyStats(b, monthExpenses)
	if err != nil {
		return budget.Stats{}, err
	}
	if s.stats != nil {
		s.stats.Set(key, st)
	}
	return st, nil
}

// expenseChanged refreshes cached state after an expense of email dated in
// month was written and announces it on the bus.
func (s *BudgetService) expenseChanged(ctx context.Context, email, month string) {
	s.invalidate(email, month)

	b, err := s.store.FindBudget(ctx, email, month)
	if errors.Is(err, storage.ErrNotFound) {
		publish(ctx, s.publisher, s.logger, newEvent(amqp.EventExpenseChanged, core.NewBudget(email, month, s.now()), nil))
		return
	}
	if err != nil {
		s.logger.WarnContext(ctx, "Failed to load budget for expense event",
			log.FieldUserEmail, email, log.FieldMonth, month, log.FieldError, err)
		return
	}
	p, _, err := s.loadPeriod(ctx, b)
	if err != nil {
		s.logger.WarnContext(ctx, "Failed to load period for expense event",
			log.FieldBudgetID, b.ID, log.FieldError, err)
		p = nil
	}
	publish(ctx, s.publisher, s.logger, newEvent(amqp.EventExpenseChanged, b, p))
}

func (s *BudgetService) invalidate(email, month string) {
	if s.stats != nil {
		s.stats.Delete(statsKey(email, month))
	}
}

// loadPeriod loads the distribution and the month's expenses concurrently.
// The boolean reports whether the budget has a custom distribution.
func (s *BudgetService) loadPeriod(ctx context.Context, b core.Budget) (*budget.Period, bool, error) {
	var (
		pct           map[string]float64
		monthExpenses []core.Expense
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		pct, err = s.store.Distribution(gctx, b.ID)
		if err != nil {
			return fmt.Errorf("load distribution: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		monthExpenses, err = s.monthExpenses(gctx, b)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, false, err
	}

	custom := len(pct) > 0
	if !custom {
		pct = s.defaults
	}
	spend := make(map[string]decimal.Decimal)
	for _, e := range monthExpenses {
		category := strings.ToLower(strings.TrimSpace(e.Category))
		spend[category] = spend[category].Add(e.Amount.OrZero())
	}
	p, err := budget.NewPeriod(b.UserEmail, b.Month, b.MonthlyBudget, pct, spend)
	if err != nil {
		return nil, false, err
	}
	return p, custom, nil
}

func (s *BudgetService) monthExpenses(ctx context.Context, b core.Budget) ([]core.Expense, error) {
	start, end, err := core.MonthRange(b.Month)
	if err != nil {
		return nil, err
	}
	list, err := s.store.ListExpensesBetween(ctx, b.UserEmail, start, end)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	return list, nil
}

func view(b core.Budget, p *budget.Period, custom bool) DistributionView {
	return DistributionView{
		BudgetID:      b.ID,
		MonthlyBudget: b.MonthlyBudget,
		Custom:        custom,
		Categories:    p.Sorted(),
	}
}

func normalizePercentages(pct map[string]float64) (map[string]float64, error) {
	out := make(map[string]float64, len(pct))
	for category, p := range pct {
		key := strings.ToLower(strings.TrimSpace(category))
		if key == "" {
			return nil, core.ErrEmptyCategory
		}
		if _, dup := out[key]; dup {
			return nil, core.NewValidationError("percentages", "duplicate category %q", key)
		}
		out[key] = p
	}
	if err := budget.ValidatePercentages(out); err != nil {
		return nil, err
	}
	return out, nil
}

func statsKey(email, month string) string {
	return strings.TrimSpace(email) + "|" + month
}
