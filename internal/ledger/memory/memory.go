// Package memory is an in-process ledger.Store for development and tests.
package memory

import (
	"context"
	"sort"
	"sync"

	"finlens/internal/core"
	"finlens/internal/ledger"
)

type budgetKey struct {
	user     string
	category core.Category
}

type Store struct {
	mu       sync.Mutex
	nextID   int64
	expenses []core.Expense
	budgets  map[budgetKey]core.Budget
	order    []budgetKey
	receipts map[string]struct{}
}

func New() *Store {
	return &Store{
		budgets:  map[budgetKey]core.Budget{},
		receipts: map[string]struct{}{},
	}
}

// CreateExpense validates and stores e, returning its sequential id.
func (s *Store) CreateExpense(_ context.Context, e core.Expense) (int64, error) {
	if err := e.Validate(); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.insertLocked(e), nil
}

func (s *Store) insertLocked(e core.Expense) int64 {
	s.nextID++
	e.ID = s.nextID
	e.Date = e.Date.UTC()
	s.expenses = append(s.expenses, e)
	return e.ID
}

func (s *Store) ListExpenses(_ context.Context, userID string, r core.DateRange) ([]core.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []core.Expense{}
	for _, e := range s.expenses {
		if e.UserID == userID && r.Contains(e.Date) {
			out = append(out, e)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

func (s *Store) GetExpense(_ context.Context, userID string, id int64) (core.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.indexLocked(userID, id); i >= 0 {
		return s.expenses[i], nil
	}
	return core.Expense{}, ledger.ErrNotFound
}

func (s *Store) DeleteExpense(_ context.Context, userID string, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexLocked(userID, id)
	if i < 0 {
		return ledger.ErrNotFound
	}
	s.expenses = append(s.expenses[:i], s.expenses[i+1:]...)
	return nil
}

func (s *Store) indexLocked(userID string, id int64) int {
	for i, e := range s.expenses {
		if e.ID == id && e.UserID == userID {
			return i
		}
	}
	return -1
}

func (s *Store) CategorySpend(_ context.Context, userID string, c core.Category, r core.DateRange) (core.Money, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var sum core.Money
	for _, e := range s.expenses {
		if e.UserID == userID && e.Category == c && r.Contains(e.Date) {
			sum = sum.Add(e.Amount)
		}
	}
	return sum, nil
}

func (s *Store) SetBudget(_ context.Context, b core.Budget) (core.Budget, error) {
	if err := b.Validate(); err != nil {
		return core.Budget{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	k := budgetKey{b.UserID, b.Category}
	if _, ok := s.budgets[k]; !ok {
		s.order = append(s.order, k)
	}
	s.budgets[k] = b
	return b, nil
}

// ListBudgets returns the user's budgets in creation order.
func (s *Store) ListBudgets(_ context.Context, userID string) ([]core.Budget, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []core.Budget{}
	for _, k := range s.order {
		if k.user == userID {
			out = append(out, s.budgets[k])
		}
	}
	return out, nil
}

func (s *Store) SaveReceipt(_ context.Context, r core.ScannedReceipt) (bool, error) {
	expenses := r.Expenses()
	for _, e := range expenses {
		if err := e.Validate(); err != nil {
			return false, err
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, dup := s.receipts[r.ID]; dup {
		return false, nil
	}
	s.receipts[r.ID] = struct{}{}
	for _, e := range expenses {
		s.insertLocked(e)
	}
	return true, nil
}

func (s *Store) Ping(context.Context) error { return nil }

func (s *Store) Close() error { return nil }
