package storage

import (
	"context"
	"database/sql"
)

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

const userColumns = `id, username, password_hash, created_at`

const createUser = `INSERT INTO users (username, password_hash) VALUES (?, ?)
RETURNING ` + userColumns

type CreateUserParams struct {
	Username     string
	PasswordHash string
}

func (q *Queries) CreateUser(ctx context.Context, arg CreateUserParams) (User, error) {
	row := q.db.QueryRowContext(ctx, createUser, arg.Username, arg.PasswordHash)
	return scanUser(row)
}

const getUser = `SELECT ` + userColumns + ` FROM users WHERE id = ?`

func (q *Queries) GetUser(ctx context.Context, id int64) (User, error) {
	return scanUser(q.db.QueryRowContext(ctx, getUser, id))
}

const getUserByUsername = `SELECT ` + userColumns + ` FROM users WHERE username = ?`

func (q *Queries) GetUserByUsername(ctx context.Context, username string) (User, error) {
	return scanUser(q.db.QueryRowContext(ctx, getUserByUsername, username))
}

func scanUser(row *sql.Row) (User, error) {
	var i User
	err := row.Scan(&i.ID, &i.Username, &i.PasswordHash, &i.CreatedAt)
	return i, err
}

const transactionColumns = `id, user_id, type, amount_cents, category, description, date`

const createTransaction = `INSERT INTO transactions (user_id, type, amount_cents, category, description, date)
VALUES (?, ?, ?, ?, ?, ?)
RETURNING ` + transactionColumns

type CreateTransactionParams struct {
	UserID      int64
	Type        string
	AmountCents int64
	Category    string
	Description string
	Date        string
}

func (q *Queries) CreateTransaction(ctx context.Context, arg CreateTransactionParams) (Transaction, error) {
	row := q.db.QueryRowContext(ctx, createTransaction,
		arg.UserID, arg.Type, arg.AmountCents, arg.Category, arg.Description, arg.Date)
	return scanTransaction(row)
}

const getTransaction = `SELECT ` + transactionColumns + ` FROM transactions WHERE id = ? AND user_id = ?`

type GetTransactionParams struct {
	ID     int64
	UserID int64
}

func (q *Queries) GetTransaction(ctx context.Context, arg GetTransactionParams) (Transaction, error) {
	return scanTransaction(q.db.QueryRowContext(ctx, getTransaction, arg.ID, arg.UserID))
}

const updateTransaction = `UPDATE transactions
SET type = ?, amount_cents = ?, category = ?, description = ?, date = ?
WHERE id = ? AND user_id = ?`

type UpdateTransactionParams struct {
	Type        string
	AmountCents int64
	Category    string
	Description string
	Date        string
	ID          int64
	UserID      int64
}

func (q *Queries) UpdateTransaction(ctx context.Context, arg UpdateTransactionParams) (int64, error) {
	result, err := q.db.ExecContext(ctx, updateTransaction,
		arg.Type, arg.AmountCents, arg.Category, arg.Description, arg.Date, arg.ID, arg.UserID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const deleteTransaction = `DELETE FROM transactions WHERE id = ? AND user_id = ?`

type DeleteTransactionParams struct {
	ID     int64
	UserID int64
}

func (q *Queries) DeleteTransaction(ctx context.Context, arg DeleteTransactionParams) (int64, error) {
	result, err := q.db.ExecContext(ctx, deleteTransaction, arg.ID, arg.UserID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

// Nullable filters are passed twice: once for the IS NULL test, once for the
// comparison.
const listTransactions = `SELECT ` + transactionColumns + ` FROM transactions
WHERE user_id = ?
  AND (? IS NULL OR date >= ?)
  AND (? IS NULL OR date <= ?)
  AND (? IS NULL OR instr(lower(category), lower(?)) > 0)
  AND (? IS NULL OR type = ?)
ORDER BY date DESC, id DESC
LIMIT ?`

type ListTransactionsParams struct {
	UserID   int64
	From     sql.NullString
	To       sql.NullString
	Category sql.NullString
	Type     sql.NullString
	Limit    int64 // -1 for no limit
}

func (q *Queries) ListTransactions(ctx context.Context, arg ListTransactionsParams) ([]Transaction, error) {
	rows, err := q.db.QueryContext(ctx, listTransactions,
		arg.UserID,
		arg.From, arg.From,
		arg.To, arg.To,
		arg.Category, arg.Category,
		arg.Type, arg.Type,
		arg.Limit,
	)
	if err != nil {
		return nil, err
	}
	return collectTransactions(rows)
}

const listTransactionsBetween = `SELECT ` + transactionColumns + ` FROM transactions
WHERE user_id = ? AND date >= ? AND date < ?
ORDER BY date, id`

type ListTransactionsBetweenParams struct {
	UserID int64
	From   string
	Until  string // exclusive
}

func (q *Queries) ListTransactionsBetween(ctx context.Context, arg ListTransactionsBetweenParams) ([]Transaction, error) {
	rows, err := q.db.QueryContext(ctx, listTransactionsBetween, arg.UserID, arg.From, arg.Until)
	if err != nil {
		return nil, err
	}
	return collectTransactions(rows)
}

const sumExpenses = `SELECT CAST(COALESCE(SUM(amount_cents), 0) AS INTEGER) FROM transactions
WHERE user_id = ? AND type = 'expense' AND category = ? AND date >= ? AND date < ?`

type SumExpensesParams struct {
	UserID   int64
	Category string
	From     string
	Until    string
}

func (q *Queries) SumExpenses(ctx context.Context, arg SumExpensesParams) (int64, error) {
	var total int64
	err := q.db.QueryRowContext(ctx, sumExpenses, arg.UserID, arg.Category, arg.From, arg.Until).Scan(&total)
	return total, err
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanTransaction(row rowScanner) (Transaction, error) {
	var i Transaction
	err := row.Scan(&i.ID, &i.UserID, &i.Type, &i.AmountCents, &i.Category, &i.Description, &i.Date)
	return i, err
}

func collectTransactions(rows *sql.Rows) ([]Transaction, error) {
	defer rows.Close()
	var items []Transaction
	for rows.Next() {
		i, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const budgetColumns = `id, user_id, category, amount_cents, month, year`

const upsertBudget = `INSERT INTO budgets (user_id, category, amount_cents, month, year)
VALUES (?, ?, ?, ?, ?)
ON CONFLICT (user_id, category, month, year) DO UPDATE SET amount_cents = excluded.amount_cents
RETURNING ` + budgetColumns

type UpsertBudgetParams struct {
	UserID      int64
	Category    string
	AmountCents int64
	Month       int64
	Year        int64
}

func (q *Queries) UpsertBudget(ctx context.Context, arg UpsertBudgetParams) (Budget, error) {
	row := q.db.QueryRowContext(ctx, upsertBudget, arg.UserID, arg.Category, arg.AmountCents, arg.Month, arg.Year)
	var i Budget
	err := row.Scan(&i.ID, &i.UserID, &i.Category, &i.AmountCents, &i.Month, &i.Year)
	return i, err
}

const getBudget = `SELECT ` + budgetColumns + ` FROM budgets
WHERE user_id = ? AND category = ? AND month = ? AND year = ?`

type GetBudgetParams struct {
	UserID   int64
	Category string
	Month    int64
	Year     int64
}

func (q *Queries) GetBudget(ctx context.Context, arg GetBudgetParams) (Budget, error) {
	row := q.db.QueryRowContext(ctx, getBudget, arg.UserID, arg.Category, arg.Month, arg.Year)
	var i Budget
	err := row.Scan(&i.ID, &i.UserID, &i.Category, &i.AmountCents, &i.Month, &i.Year)
	return i, err
}

const listBudgetsWithSpend = `SELECT b.id, b.user_id, b.category, b.amount_cents, b.month, b.year,
  CAST(COALESCE((
    SELECT SUM(t.amount_cents) FROM transactions t
    WHERE t.user_id = b.user_id AND t.type = 'expense' AND t.category = b.category
      AND t.date >= ? AND t.date < ?
  ), 0) AS INTEGER) AS spent_cents
FROM budgets b
WHERE b.user_id = ? AND b.month = ? AND b.year = ?
ORDER BY b.category`

type ListBudgetsWithSpendParams struct {
	From   string
	Until  string
	UserID int64
	Month  int64
	Year   int64
}

func (q *Queries) ListBudgetsWithSpend(ctx context.Context, arg ListBudgetsWithSpendParams) ([]BudgetWithSpend, error) {
	rows, err := q.db.QueryContext(ctx, listBudgetsWithSpend, arg.From, arg.Until, arg.UserID, arg.Month, arg.Year)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []BudgetWithSpend
	for rows.Next() {
		var i BudgetWithSpend
		if err := rows.Scan(&i.ID, &i.UserID, &i.Category, &i.AmountCents, &i.Month, &i.Year, &i.SpentCents); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
