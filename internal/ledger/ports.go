// Package ledger declares the storage ports used by the services and the
// budget evaluator. Adapters live in internal/storage and internal/ledger/memory.
package ledger

import (
	"context"
	"errors"

	"finlens/internal/core"
)

var ErrNotFound = errors.New("not found")

// Ports for outbound adapters.
type (
	ExpenseWriter interface {
		CreateExpense(ctx context.Context, e core.Expense) (id int64, err error)
	}

	// ExpenseLister returns the expenses of a user inside a date range, oldest first.
	ExpenseLister interface {
		ListExpenses(ctx context.Context, userID string, r core.DateRange) ([]core.Expense, error)
	}

	// ExpenseGetter reads one expense of a user. Another user's id is
	// ErrNotFound, the same as a missing one.
	ExpenseGetter interface {
		GetExpense(ctx context.Context, userID string, id int64) (core.Expense, error)
	}

	// ExpenseDeleter removes one expense of a user, or reports ErrNotFound.
	ExpenseDeleter interface {
		DeleteExpense(ctx context.Context, userID string, id int64) error
	}

	// SpendReader sums spend for one category of a user inside a date range.
	SpendReader interface {
		CategorySpend(ctx context.Context, userID string, category core.Category, r core.DateRange) (core.Money, error)
	}

	// BudgetStore upserts and lists budgets. There is one budget per (user, category).
	BudgetStore interface {
		SetBudget(ctx context.Context, b core.Budget) (core.Budget, error)
		ListBudgets(ctx context.Context, userID string) ([]core.Budget, error)
	}

	// ReceiptWriter stores a scanned receipt and its expenses atomically.
	// Saving a receipt id a second time is a no-op and reports created=false.
	ReceiptWriter interface {
		SaveReceipt(ctx context.Context, r core.ScannedReceipt) (created bool, err error)
	}

	// Store is everything a backend provides.
	Store interface {
		ExpenseWriter
		ExpenseLister
		ExpenseGetter
		ExpenseDeleter
		SpendReader
		BudgetStore
		ReceiptWriter
		Ping(ctx context.Context) error
		Close() error
	}
)
