// Package services holds the use cases of the finance manager: accounts,
// the transaction ledger, budgets, reports and backups. Every operation that
// touches user data takes the caller's core.Session explicitly.
package services

import (
	"context"
	"io"

	"finman/internal/amqp"
	"finman/internal/core"
	"finman/internal/log"
)

type UserStore interface {
	CreateUser(ctx context.Context, username, passwordHash string) (core.User, error)
	UserByUsername(ctx context.Context, username string) (core.User, error)
	UserByID(ctx context.Context, id int64) (core.User, error)
}

type TransactionStore interface {
	CreateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error)
	GetTransaction(ctx context.Context, userID, id int64) (core.Transaction, error)
	UpdateTransaction(ctx context.Context, userID, id int64, apply func(*core.Transaction) error) (core.Transaction, error)
	DeleteTransaction(ctx context.Context, userID, id int64) error
	ListTransactions(ctx context.Context, userID int64, f core.TransactionFilter) ([]core.Transaction, error)
	TransactionsBetween(ctx context.Context, userID int64, from, until core.Date) ([]core.Transaction, error)
}

type BudgetStore interface {
	UpsertBudget(ctx context.Context, b core.Budget) (core.Budget, error)
	GetBudget(ctx context.Context, userID int64, category string, month, year int) (core.Budget, error)
	ListBudgets(ctx context.Context, userID int64, month, year int) ([]core.Budget, error)
	ListBudgetLines(ctx context.Context, userID int64, month, year int) ([]core.BudgetLine, error)
	SumExpenses(ctx context.Context, userID int64, category string, month, year int) (core.Money, error)
}

type DumpStore interface {
	Dump(ctx context.Context, w io.Writer) error
	Restore(ctx context.Context, dumpPath string) error
}

// EventPublisher receives ledger events. A nil publisher disables them.
type EventPublisher interface {
	Publish(ctx context.Context, ev *amqp.LedgerEvent) error
}

func requireSession(s core.Session) error {
	if !s.Valid() {
		return core.ErrNotAuthenticated
	}
	return nil
}

// publish sends ev if a publisher is configured. Failures are logged and
// never fail the operation: the ledger change is already committed.
func publish(ctx context.Context, p EventPublisher, logger *log.Logger, ev *amqp.LedgerEvent) {
	if p == nil {
		return
	}
	if err := p.Publish(ctx, ev); err != nil {
		fields := log.NewFields().WithOperation(log.OpPublish).WithError(err).ToSlice()
		logger.WarnContext(ctx, "Failed to publish ledger event", append(fields, "event", ev.Type)...)
	}
}

func orDiscard(logger *log.Logger) *log.Logger {
	if logger == nil {
		return log.Discard()
	}
	return logger
}
