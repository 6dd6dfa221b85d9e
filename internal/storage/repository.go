package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"finman/internal/core"
	"finman/internal/log"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

type SQLiteRepository struct {
	path    string
	db      *sql.DB
	queries *Queries
	logger  *log.Logger
}

// NewSQLiteRepository opens (creating if needed) the database file at dbPath
// and migrates it to the latest schema.
func NewSQLiteRepository(dbPath string, logger *log.Logger) (*SQLiteRepository, error) {
	if logger == nil {
		logger = log.Discard()
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := openDB(dbPath)
	if err != nil {
		return nil, err
	}

	version, err := RunMigrations(dbPath)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	repo := &SQLiteRepository{
		path:    dbPath,
		db:      db,
		queries: New(db),
		logger:  logger.WithComponent(log.ComponentStorage),
	}
	repo.logger.Info("Database ready", log.FieldPath, dbPath, "schema_version", version)
	return repo, nil
}

func dataSource(dbPath string) string {
	return dbPath + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
}

// openDB is a variable so tests can make reopening fail.
var openDB = func(dbPath string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", dataSource(dbPath))
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return db, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Path returns the database file path.
func (r *SQLiteRepository) Path() string {
	return r.path
}

// withTx runs fn inside one SQL transaction. Any error from fn rolls back.
func (r *SQLiteRepository) withTx(ctx context.Context, fn func(q *Queries) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := fn(r.queries.WithTx(tx)); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			r.logger.WarnContext(ctx, "Rollback failed", log.FieldError, rbErr)
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func notFound(err error, what string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s: %w", what, core.ErrNotFound)
	}
	return fmt.Errorf("get %s: %w", what, err)
}

func isUniqueViolation(err error) bool {
	var sqliteErr *sqlite.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	code := sqliteErr.Code()
	return code == sqlite3.SQLITE_CONSTRAINT_UNIQUE || code == sqlite3.SQLITE_CONSTRAINT
}

// CreateUser stores a new user. A taken username yields core.ErrDuplicateUsername.
func (r *SQLiteRepository) CreateUser(ctx context.Context, username, passwordHash string) (core.User, error) {
	u, err := r.queries.CreateUser(ctx, CreateUserParams{Username: username, PasswordHash: passwordHash})
	if err != nil {
		if isUniqueViolation(err) {
			return core.User{}, core.ErrDuplicateUsername
		}
		return core.User{}, fmt.Errorf("create user: %w", err)
	}

	r.logger.InfoContext(ctx, "User created", log.FieldUserID, u.ID, log.FieldUsername, u.Username)
	return toCoreUser(u), nil
}

func (r *SQLiteRepository) UserByUsername(ctx context.Context, username string) (core.User, error) {
	u, err := r.queries.GetUserByUsername(ctx, username)
	if err != nil {
		return core.User{}, notFound(err, "user")
	}
	return toCoreUser(u), nil
}

func (r *SQLiteRepository) UserByID(ctx context.Context, id int64) (core.User, error) {
	u, err := r.queries.GetUser(ctx, id)
	if err != nil {
		return core.User{}, notFound(err, "user")
	}
	return toCoreUser(u), nil
}

func (r *SQLiteRepository) CreateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	var created core.Transaction
	err := r.withTx(ctx, func(q *Queries) error {
		row, err := q.CreateTransaction(ctx, CreateTransactionParams{
			UserID:      t.UserID,
			Type:        string(t.Type),
			AmountCents: t.Amount.Cents,
			Category:    t.Category,
			Description: t.Description,
			Date:        t.Date.String(),
		})
		if err != nil {
			return fmt.Errorf("create transaction: %w", err)
		}
		created, err = toCoreTransaction(row)
		return err
	})
	if err != nil {
		return core.Transaction{}, err
	}

	r.logger.InfoContext(ctx, "Transaction saved to SQLite",
		log.FieldTxID, created.ID,
		log.FieldUserID, created.UserID,
		log.FieldTxType, created.Type,
		log.FieldAmountCents, created.Amount.Cents,
		log.FieldCategory, created.Category,
		log.FieldDate, created.Date.String())
	return created, nil
}

// GetTransaction returns the transaction id owned by userID. Rows of other
// users are reported as not found.
func (r *SQLiteRepository) GetTransaction(ctx context.Context, userID, id int64) (core.Transaction, error) {
	row, err := r.queries.GetTransaction(ctx, GetTransactionParams{ID: id, UserID: userID})
	if err != nil {
		return core.Transaction{}, notFound(err, "transaction")
	}
	return toCoreTransaction(row)
}

// UpdateTransaction loads the transaction, hands it to apply and writes the
// result back, all in one SQL transaction. An error from apply rolls back.
func (r *SQLiteRepository) UpdateTransaction(ctx context.Context, userID, id int64, apply func(*core.Transaction) error) (core.Transaction, error) {
	var updated core.Transaction
	err := r.withTx(ctx, func(q *Queries) error {
		row, err := q.GetTransaction(ctx, GetTransactionParams{ID: id, UserID: userID})
		if err != nil {
			return notFound(err, "transaction")
		}
		t, err := toCoreTransaction(row)
		if err != nil {
			return err
		}
		if err := apply(&t); err != nil {
			return err
		}
		n, err := q.UpdateTransaction(ctx, UpdateTransactionParams{
			Type:        string(t.Type),
			AmountCents: t.Amount.Cents,
			Category:    t.Category,
			Description: t.Description,
			Date:        t.Date.String(),
			ID:          id,
			UserID:      userID,
		})
		if err != nil {
			return fmt.Errorf("update transaction: %w", err)
		}
		if n == 0 {
			return fmt.Errorf("transaction: %w", core.ErrNotFound)
		}
		updated = t
		return nil
	})
	if err != nil {
		return core.Transaction{}, err
	}

	r.logger.InfoContext(ctx, "Transaction updated", log.FieldTxID, id, log.FieldUserID, userID)
	return updated, nil
}

func (r *SQLiteRepository) DeleteTransaction(ctx context.Context, userID, id int64) error {
	err := r.withTx(ctx, func(q *Queries) error {
		n, err := q.DeleteTransaction(ctx, DeleteTransactionParams{ID: id, UserID: userID})
		if err != nil {
			return fmt.Errorf("delete transaction: %w", err)
		}
		if n == 0 {
			return fmt.Errorf("transaction: %w", core.ErrNotFound)
		}
		return nil
	})
	if err != nil {
		return err
	}

	r.logger.InfoContext(ctx, "Transaction deleted", log.FieldTxID, id, log.FieldUserID, userID)
	return nil
}

// ListTransactions returns the user's transactions matching f, newest first.
func (r *SQLiteRepository) ListTransactions(ctx context.Context, userID int64, f core.TransactionFilter) ([]core.Transaction, error) {
	params := ListTransactionsParams{UserID: userID, Limit: -1}
	if !f.From.IsZero() {
		params.From = sql.NullString{String: f.From.String(), Valid: true}
	}
	if !f.To.IsZero() {
		params.To = sql.NullString{String: f.To.String(), Valid: true}
	}
	if f.Category != "" {
		params.Category = sql.NullString{String: f.Category, Valid: true}
	}
	if f.Type != "" {
		params.Type = sql.NullString{String: string(f.Type), Valid: true}
	}
	if f.Limit > 0 {
		params.Limit = int64(f.Limit)
	}

	rows, err := r.queries.ListTransactions(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	return toCoreTransactions(rows)
}

// TransactionsBetween returns the user's transactions dated in [from, until),
// oldest first.
func (r *SQLiteRepository) TransactionsBetween(ctx context.Context, userID int64, from, until core.Date) ([]core.Transaction, error) {
	rows, err := r.queries.ListTransactionsBetween(ctx, ListTransactionsBetweenParams{
		UserID: userID,
		From:   from.String(),
		Until:  until.String(),
	})
	if err != nil {
		return nil, fmt.Errorf("list transactions between %s and %s: %w", from, until, err)
	}
	return toCoreTransactions(rows)
}

// SumExpenses totals the user's expenses for one (category, month, year) key.
func (r *SQLiteRepository) SumExpenses(ctx context.Context, userID int64, category string, month, year int) (core.Money, error) {
	from, until := core.MonthRange(year, month)
	total, err := r.queries.SumExpenses(ctx, SumExpensesParams{
		UserID:   userID,
		Category: category,
		From:     from.String(),
		Until:    until.String(),
	})
	if err != nil {
		return core.Money{}, fmt.Errorf("sum expenses: %w", err)
	}
	return core.Money{Cents: total}, nil
}

// UpsertBudget sets the ceiling of a (category, month, year) key, keeping the
// row id when the key already exists.
func (r *SQLiteRepository) UpsertBudget(ctx context.Context, b core.Budget) (core.Budget, error) {
	var saved Budget
	err := r.withTx(ctx, func(q *Queries) error {
		var err error
		saved, err = q.UpsertBudget(ctx, UpsertBudgetParams{
			UserID:      b.UserID,
			Category:    b.Category,
			AmountCents: b.Amount.Cents,
			Month:       int64(b.Month),
			Year:        int64(b.Year),
		})
		if err != nil {
			return fmt.Errorf("upsert budget: %w", err)
		}
		return nil
	})
	if err != nil {
		return core.Budget{}, err
	}

	r.logger.InfoContext(ctx, "Budget saved to SQLite",
		"id", saved.ID,
		log.FieldUserID, saved.UserID,
		log.FieldCategory, saved.Category,
		log.FieldAmountCents, saved.AmountCents,
		log.FieldMonth, saved.Month,
		log.FieldYear, saved.Year)
	return toCoreBudget(saved), nil
}

func (r *SQLiteRepository) GetBudget(ctx context.Context, userID int64, category string, month, year int) (core.Budget, error) {
	b, err := r.queries.GetBudget(ctx, GetBudgetParams{
		UserID:   userID,
		Category: category,
		Month:    int64(month),
		Year:     int64(year),
	})
	if err != nil {
		return core.Budget{}, notFound(err, "budget")
	}
	return toCoreBudget(b), nil
}

// ListBudgetLines returns the budgets of a period joined with the expense
// spend of the same category and period, ordered by category.
func (r *SQLiteRepository) ListBudgetLines(ctx context.Context, userID int64, month, year int) ([]core.BudgetLine, error) {
	from, until := core.MonthRange(year, month)
	rows, err := r.queries.ListBudgetsWithSpend(ctx, ListBudgetsWithSpendParams{
		From:   from.String(),
		Until:  until.String(),
		UserID: userID,
		Month:  int64(month),
		Year:   int64(year),
	})
	if err != nil {
		return nil, fmt.Errorf("list budgets: %w", err)
	}

	lines := make([]core.BudgetLine, len(rows))
	for i, row := range rows {
		lines[i] = core.NewBudgetLine(toCoreBudget(row.Budget), core.Money{Cents: row.SpentCents})
	}
	return lines, nil
}

// ListBudgets returns the budgets of a period without spend.
func (r *SQLiteRepository) ListBudgets(ctx context.Context, userID int64, month, year int) ([]core.Budget, error) {
	lines, err := r.ListBudgetLines(ctx, userID, month, year)
	if err != nil {
		return nil, err
	}
	budgets := make([]core.Budget, len(lines))
	for i, l := range lines {
		budgets[i] = l.Budget
	}
	return budgets, nil
}

func toCoreUser(u User) core.User {
	return core.User{
		ID:           u.ID,
		Username:     u.Username,
		PasswordHash: u.PasswordHash,
		CreatedAt:    u.CreatedAt,
	}
}

func toCoreTransaction(row Transaction) (core.Transaction, error) {
	date, err := core.ParseDate(row.Date)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("transaction %d has date %q: %w", row.ID, row.Date, err)
	}
	return core.Transaction{
		ID:          row.ID,
		UserID:      row.UserID,
		Type:        core.TransactionType(row.Type),
		Amount:      core.Money{Cents: row.AmountCents},
		Category:    row.Category,
		Description: row.Description,
		Date:        date,
	}, nil
}

func toCoreTransactions(rows []Transaction) ([]core.Transaction, error) {
	txs := make([]core.Transaction, 0, len(rows))
	for _, row := range rows {
		t, err := toCoreTransaction(row)
		if err != nil {
			return nil, err
		}
		txs = append(txs, t)
	}
	return txs, nil
}

func toCoreBudget(b Budget) core.Budget {
	return core.Budget{
		ID:       b.ID,
		UserID:   b.UserID,
		Category: b.Category,
		Amount:   core.Money{Cents: b.AmountCents},
		Month:    int(b.Month),
		Year:     int(b.Year),
	}
}
