package storage

import (
	"context"
	"database/sql"
)

// DBTX is satisfied by both *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(context.Context, string, ...any) (sql.Result, error)
	QueryContext(context.Context, string, ...any) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...any) *sql.Row
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

// Expense is a row of the expenses table.
type Expense struct {
	ID          int64
	UserID      string
	Category    string
	Description string
	AmountCents int64
	Icon        string
	SpentAt     int64
	ReceiptID   sql.NullString
	CreatedAt   int64
}

// Budget is a row of the budgets table.
type Budget struct {
	ID          int64
	UserID      string
	Category    string
	AmountCents int64
	Icon        string
	CreatedAt   int64
	UpdatedAt   int64
}

const createExpense = `
INSERT INTO expenses (user_id, category, description, amount_cents, icon, spent_at, receipt_id, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
RETURNING id
`

type CreateExpenseParams struct {
	UserID      string
	Category    string
	Description string
	AmountCents int64
	Icon        string
	SpentAt     int64
	ReceiptID   sql.NullString
	CreatedAt   int64
}

func (q *Queries) CreateExpense(ctx context.Context, arg CreateExpenseParams) (int64, error) {
	row := q.db.QueryRowContext(ctx, createExpense,
		arg.UserID, arg.Category, arg.Description, arg.AmountCents,
		arg.Icon, arg.SpentAt, arg.ReceiptID, arg.CreatedAt)
	var id int64
	err := row.Scan(&id)
	return id, err
}

const listExpensesInRange = `
SELECT id, user_id, category, description, amount_cents, icon, spent_at, receipt_id, created_at
FROM expenses
WHERE user_id = ? AND spent_at >= ? AND spent_at < ?
ORDER BY spent_at, id
`

type ListExpensesInRangeParams struct {
	UserID string
	From   int64
	To     int64
}

func (q *Queries) ListExpensesInRange(ctx context.Context, arg ListExpensesInRangeParams) ([]Expense, error) {
	rows, err := q.db.QueryContext(ctx, listExpensesInRange, arg.UserID, arg.From, arg.To)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Expense
	for rows.Next() {
		var i Expense
		if err := rows.Scan(&i.ID, &i.UserID, &i.Category, &i.Description, &i.AmountCents,
			&i.Icon, &i.SpentAt, &i.ReceiptID, &i.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const getExpense = `
SELECT id, user_id, category, description, amount_cents, icon, spent_at, receipt_id, created_at
FROM expenses
WHERE id = ? AND user_id = ?
`

type GetExpenseParams struct {
	ID     int64
	UserID string
}

func (q *Queries) GetExpense(ctx context.Context, arg GetExpenseParams) (Expense, error) {
	row := q.db.QueryRowContext(ctx, getExpense, arg.ID, arg.UserID)
	var i Expense
	err := row.Scan(&i.ID, &i.UserID, &i.Category, &i.Description, &i.AmountCents,
		&i.Icon, &i.SpentAt, &i.ReceiptID, &i.CreatedAt)
	return i, err
}

const deleteExpense = `
DELETE FROM expenses
WHERE id = ? AND user_id = ?
`

type DeleteExpenseParams struct {
	ID     int64
	UserID string
}

func (q *Queries) DeleteExpense(ctx context.Context, arg DeleteExpenseParams) (int64, error) {
	result, err := q.db.ExecContext(ctx, deleteExpense, arg.ID, arg.UserID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const sumCategorySpend = `
SELECT COALESCE(SUM(amount_cents), 0)
FROM expenses
WHERE user_id = ? AND category = ? AND spent_at >= ? AND spent_at < ?
`

type SumCategorySpendParams struct {
	UserID   string
	Category string
	From     int64
	To       int64
}

func (q *Queries) SumCategorySpend(ctx context.Context, arg SumCategorySpendParams) (int64, error) {
	row := q.db.QueryRowContext(ctx, sumCategorySpend, arg.UserID, arg.Category, arg.From, arg.To)
	var total int64
	err := row.Scan(&total)
	return total, err
}

const upsertBudget = `
INSERT INTO budgets (user_id, category, amount_cents, icon, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?)
ON CONFLICT (user_id, category) DO UPDATE SET
    amount_cents = excluded.amount_cents,
    icon = excluded.icon,
    updated_at = excluded.updated_at
RETURNING id, user_id, category, amount_cents, icon, created_at, updated_at
`

type UpsertBudgetParams struct {
	UserID      string
	Category    string
	AmountCents int64
	Icon        string
	Now         int64
}

func (q *Queries) UpsertBudget(ctx context.Context, arg UpsertBudgetParams) (Budget, error) {
	row := q.db.QueryRowContext(ctx, upsertBudget,
		arg.UserID, arg.Category, arg.AmountCents, arg.Icon, arg.Now, arg.Now)
	var i Budget
	err := row.Scan(&i.ID, &i.UserID, &i.Category, &i.AmountCents, &i.Icon, &i.CreatedAt, &i.UpdatedAt)
	return i, err
}

const listBudgets = `
SELECT id, user_id, category, amount_cents, icon, created_at, updated_at
FROM budgets
WHERE user_id = ?
ORDER BY id
`

func (q *Queries) ListBudgets(ctx context.Context, userID string) ([]Budget, error) {
	rows, err := q.db.QueryContext(ctx, listBudgets, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Budget
	for rows.Next() {
		var i Budget
		if err := rows.Scan(&i.ID, &i.UserID, &i.Category, &i.AmountCents, &i.Icon, &i.CreatedAt, &i.UpdatedAt); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const insertReceipt = `
INSERT INTO receipts (id, user_id, merchant, scanned_at, created_at)
VALUES (?, ?, ?, ?, ?)
ON CONFLICT (id) DO NOTHING
`

type InsertReceiptParams struct {
	ID        string
	UserID    string
	Merchant  string
	ScannedAt int64
	CreatedAt int64
}

// InsertReceipt returns the number of inserted rows: 0 when the id already exists.
func (q *Queries) InsertReceipt(ctx context.Context, arg InsertReceiptParams) (int64, error) {
	res, err := q.db.ExecContext(ctx, insertReceipt, arg.ID, arg.UserID, arg.Merchant, arg.ScannedAt, arg.CreatedAt)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
