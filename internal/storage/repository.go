package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"finlens/internal/core"
	"finlens/internal/ledger"
	"finlens/internal/log"

	_ "modernc.org/sqlite"
)

// SQLiteRepository implements ledger.Store on a SQLite file.
type SQLiteRepository struct {
	db      *sql.DB
	queries *Queries
	logger  *log.Logger
	now     func() time.Time
}

func NewSQLiteRepository(dbPath string, logger *log.Logger) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	if logger == nil {
		logger = log.Discard()
	}
	return &SQLiteRepository{
		db:      db,
		queries: New(db),
		logger:  logger.WithComponent(log.ComponentStorage),
		now:     time.Now,
	}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping checks that the database answers.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// CreateExpense implements ledger.ExpenseWriter
func (r *SQLiteRepository) CreateExpense(ctx context.Context, e core.Expense) (int64, error) {
	if err := e.Validate(); err != nil {
		return 0, err
	}
	id, err := r.queries.CreateExpense(ctx, r.expenseParams(e, sql.NullString{}))
	if err != nil {
		return 0, fmt.Errorf("create expense: %w", err)
	}

	r.logger.InfoContext(ctx, "Expense saved to SQLite",
		log.NewFields().
			WithUser(e.UserID).
			WithItem(e.Description, string(e.Category), e.Amount.Cents).
			WithOperation(log.OpCreate).
			ToSlice()...)
	return id, nil
}

func (r *SQLiteRepository) expenseParams(e core.Expense, receiptID sql.NullString) CreateExpenseParams {
	return CreateExpenseParams{
		UserID:      e.UserID,
		Category:    string(e.Category),
		Description: e.Description,
		AmountCents: e.Amount.Cents,
		Icon:        e.Icon,
		SpentAt:     e.Date.UTC().Unix(),
		ReceiptID:   receiptID,
		CreatedAt:   r.now().UTC().Unix(),
	}
}

// ListExpenses implements ledger.ExpenseLister
func (r *SQLiteRepository) ListExpenses(ctx context.Context, userID string, rng core.DateRange) ([]core.Expense, error) {
	rows, err := r.queries.ListExpensesInRange(ctx, ListExpensesInRangeParams{
		UserID: userID,
		From:   rng.Start.UTC().Unix(),
		To:     rng.End.UTC().Unix(),
	})
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}

	out := make([]core.Expense, 0, len(rows))
	for _, row := range rows {
		out = append(out, expenseFromRow(row))
	}
	return out, nil
}

// GetExpense implements ledger.ExpenseGetter
func (r *SQLiteRepository) GetExpense(ctx context.Context, userID string, id int64) (core.Expense, error) {
	row, err := r.queries.GetExpense(ctx, GetExpenseParams{ID: id, UserID: userID})
	if errors.Is(err, sql.ErrNoRows) {
		return core.Expense{}, ledger.ErrNotFound
	}
	if err != nil {
		return core.Expense{}, fmt.Errorf("get expense %d: %w", id, err)
	}
	return expenseFromRow(row), nil
}

// DeleteExpense implements ledger.ExpenseDeleter
func (r *SQLiteRepository) DeleteExpense(ctx context.Context, userID string, id int64) error {
	n, err := r.queries.DeleteExpense(ctx, DeleteExpenseParams{ID: id, UserID: userID})
	if err != nil {
		return fmt.Errorf("delete expense %d: %w", id, err)
	}
	if n == 0 {
		return ledger.ErrNotFound
	}
	r.logger.InfoContext(ctx, "Expense deleted",
		log.FieldUserID, userID,
		"expense_id", id)
	return nil
}

func expenseFromRow(row Expense) core.Expense {
	return core.Expense{
		ID:          row.ID,
		UserID:      row.UserID,
		Category:    core.Category(row.Category),
		Description: row.Description,
		Amount:      core.Money{Cents: row.AmountCents},
		Icon:        row.Icon,
		Date:        time.Unix(row.SpentAt, 0).UTC(),
	}
}

// CategorySpend implements ledger.SpendReader
func (r *SQLiteRepository) CategorySpend(ctx context.Context, userID string, c core.Category, rng core.DateRange) (core.Money, error) {
	total, err := r.queries.SumCategorySpend(ctx, SumCategorySpendParams{
		UserID:   userID,
		Category: string(c),
		From:     rng.Start.UTC().Unix(),
		To:       rng.End.UTC().Unix(),
	})
	if err != nil {
		return core.Money{}, fmt.Errorf("sum %s spend: %w", c, err)
	}
	return core.Money{Cents: total}, nil
}

// SetBudget implements ledger.BudgetStore. An existing budget for the same
// user and category is overwritten, icon included.
func (r *SQLiteRepository) SetBudget(ctx context.Context, b core.Budget) (core.Budget, error) {
	if err := b.Validate(); err != nil {
		return core.Budget{}, err
	}
	row, err := r.queries.UpsertBudget(ctx, UpsertBudgetParams{
		UserID:      b.UserID,
		Category:    string(b.Category),
		AmountCents: b.Amount.Cents,
		Icon:        b.Icon,
		Now:         r.now().UTC().Unix(),
	})
	if err != nil {
		return core.Budget{}, fmt.Errorf("upsert budget: %w", err)
	}
	return budgetFromRow(row), nil
}

// ListBudgets implements ledger.BudgetStore
func (r *SQLiteRepository) ListBudgets(ctx context.Context, userID string) ([]core.Budget, error) {
	rows, err := r.queries.ListBudgets(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list budgets: %w", err)
	}
	out := make([]core.Budget, 0, len(rows))
	for _, row := range rows {
		out = append(out, budgetFromRow(row))
	}
	return out, nil
}

func budgetFromRow(row Budget) core.Budget {
	return core.Budget{
		UserID:   row.UserID,
		Category: core.Category(row.Category),
		Amount:   core.Money{Cents: row.AmountCents},
		Icon:     row.Icon,
	}
}

// SaveReceipt implements ledger.ReceiptWriter. The receipt row and its
// expenses are written in one transaction; a known receipt id is skipped.
func (r *SQLiteRepository) SaveReceipt(ctx context.Context, rc core.ScannedReceipt) (bool, error) {
	expenses := rc.Expenses()
	for _, e := range expenses {
		if err := e.Validate(); err != nil {
			return false, fmt.Errorf("receipt %s: %w", rc.ID, err)
		}
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	q := r.queries.WithTx(tx)
	inserted, err := q.InsertReceipt(ctx, InsertReceiptParams{
		ID:        rc.ID,
		UserID:    rc.UserID,
		Merchant:  rc.Merchant,
		ScannedAt: rc.ScannedAt.UTC().Unix(),
		CreatedAt: r.now().UTC().Unix(),
	})
	if err != nil {
		return false, fmt.Errorf("insert receipt: %w", err)
	}
	if inserted == 0 {
		r.logger.InfoContext(ctx, "Receipt already stored", log.FieldReceiptID, rc.ID)
		return false, nil
	}

	receiptID := sql.NullString{String: rc.ID, Valid: true}
	for _, e := range expenses {
		if _, err := q.CreateExpense(ctx, r.expenseParams(e, receiptID)); err != nil {
			return false, fmt.Errorf("create receipt expense: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("commit receipt: %w", err)
	}

	r.logger.InfoContext(ctx, "Receipt saved to SQLite",
		log.FieldReceiptID, rc.ID,
		log.FieldUserID, rc.UserID,
		log.FieldMerchant, rc.Merchant,
		"items", len(expenses))
	return true, nil
}
