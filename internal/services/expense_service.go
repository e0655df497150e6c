package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"finlens/internal/core"
	"finlens/internal/ledger"
	"finlens/internal/log"
)

var ErrInvalidRange = errors.New("range end must be after its start")

// ExpenseStore is the part of the ledger the expense service needs.
type ExpenseStore interface {
	ledger.ExpenseWriter
	ledger.ExpenseLister
	ledger.ExpenseGetter
	ledger.ExpenseDeleter
	ledger.BudgetStore
}

// ExpenseService validates and records expenses and budgets.
type ExpenseService struct {
	store  ExpenseStore
	logger *log.Logger
	now    func() time.Time
}

func NewExpenseService(store ExpenseStore, logger *log.Logger) *ExpenseService {
	if logger == nil {
		logger = log.Discard()
	}
	return &ExpenseService{
		store:  store,
		logger: logger.WithComponent(log.ComponentStorage),
		now:    time.Now,
	}
}

// CreateExpense stores e for its user. A zero date means now.
func (s *ExpenseService) CreateExpense(ctx context.Context, e core.Expense) (core.Expense, error) {
	e.Description = strings.TrimSpace(e.Description)
	if e.Date.IsZero() {
		e.Date = s.now().UTC()
	}
	if err := e.Validate(); err != nil {
		return core.Expense{}, err
	}

	id, err := s.store.CreateExpense(ctx, e)
	if err != nil {
		return core.Expense{}, fmt.Errorf("save expense: %w", err)
	}
	e.ID = id

	s.logger.InfoContext(ctx, "Expense recorded",
		log.NewFields().
			WithUser(e.UserID).
			WithItem(e.Description, e.Category.String(), e.Amount.Cents).
			WithOperation(log.OpCreate).
			ToSlice()...)
	return e, nil
}

// SetBudget upserts the budget of b.UserID for b.Category.
func (s *ExpenseService) SetBudget(ctx context.Context, b core.Budget) (core.Budget, error) {
	if err := b.Validate(); err != nil {
		return core.Budget{}, err
	}
	saved, err := s.store.SetBudget(ctx, b)
	if err != nil {
		return core.Budget{}, fmt.Errorf("save budget: %w", err)
	}
	s.logger.InfoContext(ctx, "Budget set",
		log.FieldUserID, saved.UserID,
		log.FieldCategory, saved.Category,
		log.FieldAmountCents, saved.Amount.Cents)
	return saved, nil
}

func (s *ExpenseService) ListBudgets(ctx context.Context, userID string) ([]core.Budget, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, core.ErrEmptyUser
	}
	budgets, err := s.store.ListBudgets(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list budgets: %w", err)
	}
	return budgets, nil
}

// ListExpenses returns the expenses of userID inside r, oldest first.
func (s *ExpenseService) ListExpenses(ctx context.Context, userID string, r core.DateRange) ([]core.Expense, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, core.ErrEmptyUser
	}
	if !r.End.After(r.Start) {
		return nil, ErrInvalidRange
	}
	expenses, err := s.store.ListExpenses(ctx, userID, r)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	return expenses, nil
}

// GetExpense returns one expense of userID. Unknown ids, and ids owned by
// other users, yield ledger.ErrNotFound.
func (s *ExpenseService) GetExpense(ctx context.Context, userID string, id int64) (core.Expense, error) {
	if strings.TrimSpace(userID) == "" {
		return core.Expense{}, core.ErrEmptyUser
	}
	e, err := s.store.GetExpense(ctx, userID, id)
	if err != nil {
		return core.Expense{}, fmt.Errorf("get expense: %w", err)
	}
	return e, nil
}

func (s *ExpenseService) DeleteExpense(ctx context.Context, userID string, id int64) error {
	if strings.TrimSpace(userID) == "" {
		return core.ErrEmptyUser
	}
	if err := s.store.DeleteExpense(ctx, userID, id); err != nil {
		return fmt.Errorf("delete expense: %w", err)
	}
	s.logger.InfoContext(ctx, "Expense removed",
		log.FieldUserID, userID,
		log.FieldOperation, log.OpDelete,
		"expense_id", id)
	return nil
}

// Summary totals the expenses of userID inside r per category, largest
// first, along with the most recent ones.
func (s *ExpenseService) Summary(ctx context.Context, userID string, r core.DateRange) (core.ExpenseSummary, error) {
	expenses, err := s.ListExpenses(ctx, userID, r)
	if err != nil {
		return core.ExpenseSummary{}, err
	}
	return core.Summarize(expenses, r, core.RecentExpenses), nil
}
