package services

import (
	"context"
	"strings"
	"time"

	"finman/internal/amqp"
	"finman/internal/core"
	"finman/internal/log"
)

// NewTransaction is the input of LedgerService.Add. A zero Date means today.
type NewTransaction struct {
	Type        core.TransactionType
	Amount      core.Money
	Category    string
	Description string
	Date        core.Date
}

// TransactionUpdate lists the fields to change. Nil fields keep their value.
type TransactionUpdate struct {
	Type        *core.TransactionType
	Amount      *core.Money
	Category    *string
	Description *string
	Date        *core.Date
}

func (u TransactionUpdate) Empty() bool {
	return u.Type == nil && u.Amount == nil && u.Category == nil && u.Description == nil && u.Date == nil
}

func (u TransactionUpdate) apply(t *core.Transaction) {
	if u.Type != nil {
		t.Type = *u.Type
	}
	if u.Amount != nil {
		t.Amount = *u.Amount
	}
	if u.Category != nil {
		t.Category = strings.TrimSpace(*u.Category)
	}
	if u.Description != nil {
		t.Description = strings.TrimSpace(*u.Description)
	}
	if u.Date != nil {
		t.Date = *u.Date
	}
}

// LedgerService records, edits and lists a user's transactions
type LedgerService struct {
	store     TransactionStore
	budgets   *BudgetService
	publisher EventPublisher
	logger    *log.Logger
	now       func() time.Time
}

func NewLedgerService(store TransactionStore, budgets *BudgetService, publisher EventPublisher, logger *log.Logger) *LedgerService {
	return &LedgerService{
		store:     store,
		budgets:   budgets,
		publisher: publisher,
		logger:    orDiscard(logger).WithComponent(log.ComponentLedger),
		now:       time.Now,
	}
}

// Add records a transaction. For expenses the budget of the resulting
// (category, month, year) is evaluated and its alert returned.
func (s *LedgerService) Add(ctx context.Context, sess core.Session, in NewTransaction) (core.Transaction, core.BudgetAlert, error) {
	if err := requireSession(sess); err != nil {
		return core.Transaction{}, core.BudgetAlert{}, err
	}
	t := core.Transaction{
		UserID:      sess.UserID,
		Type:        in.Type,
		Amount:      in.Amount,
		Category:    strings.TrimSpace(in.Category),
		Description: strings.TrimSpace(in.Description),
		Date:        in.Date,
	}
	if t.Date.IsZero() {
		t.Date = core.Today(s.now())
	}
	if err := t.Validate(); err != nil {
		return core.Transaction{}, core.BudgetAlert{}, err
	}

	created, err := s.store.CreateTransaction(ctx, t)
	if err != nil {
		return core.Transaction{}, core.BudgetAlert{}, err
	}
	s.logger.InfoContext(ctx, "Transaction added", log.NewFields().
		WithOperation(log.OpCreate).
		WithUser(sess.UserID, "").
		WithTransaction(created.ID, string(created.Type), created.Amount.Cents, created.Category, created.Date.String()).
		ToSlice()...)
	publish(ctx, s.publisher, s.logger, amqp.NewTransactionEvent(amqp.EventTransactionCreated, created))

	alert, err := s.evaluate(ctx, sess, created)
	return created, alert, err
}

// List returns the transactions matching f, newest first, with their totals.
func (s *LedgerService) List(ctx context.Context, sess core.Session, f core.TransactionFilter) (core.TransactionList, error) {
	if err := requireSession(sess); err != nil {
		return core.TransactionList{}, err
	}
	f.Category = strings.TrimSpace(f.Category)
	if err := f.Validate(); err != nil {
		return core.TransactionList{}, err
	}

	txs, err := s.store.ListTransactions(ctx, sess.UserID, f)
	if err != nil {
		return core.TransactionList{}, err
	}
	return core.TransactionList{Transactions: txs, Summary: core.Summarize(txs)}, nil
}

// Recent returns the n most recent transactions.
func (s *LedgerService) Recent(ctx context.Context, sess core.Session, n int) ([]core.Transaction, error) {
	list, err := s.List(ctx, sess, core.RecentFilter(n))
	if err != nil {
		return nil, err
	}
	return list.Transactions, nil
}

func (s *LedgerService) Get(ctx context.Context, sess core.Session, id int64) (core.Transaction, error) {
	if err := requireSession(sess); err != nil {
		return core.Transaction{}, err
	}
	return s.store.GetTransaction(ctx, sess.UserID, id)
}

// Update changes the given fields of one transaction atomically. A field
// that fails validation leaves the whole row unchanged.
func (s *LedgerService) Update(ctx context.Context, sess core.Session, id int64, u TransactionUpdate) (core.Transaction, core.BudgetAlert, error) {
	if err := requireSession(sess); err != nil {
		return core.Transaction{}, core.BudgetAlert{}, err
	}

	updated, err := s.store.UpdateTransaction(ctx, sess.UserID, id, func(t *core.Transaction) error {
		u.apply(t)
		return t.Validate()
	})
	if err != nil {
		return core.Transaction{}, core.BudgetAlert{}, err
	}

	s.logger.InfoContext(ctx, "Transaction updated", log.NewFields().
		WithOperation(log.OpUpdate).
		WithUser(sess.UserID, "").
		WithTransaction(updated.ID, string(updated.Type), updated.Amount.Cents, updated.Category, updated.Date.String()).
		ToSlice()...)
	publish(ctx, s.publisher, s.logger, amqp.NewTransactionEvent(amqp.EventTransactionUpdated, updated))

	alert, err := s.evaluate(ctx, sess, updated)
	return updated, alert, err
}

func (s *LedgerService) Delete(ctx context.Context, sess core.Session, id int64) error {
	if err := requireSession(sess); err != nil {
		return err
	}
	if err := s.store.DeleteTransaction(ctx, sess.UserID, id); err != nil {
		return err
	}

	s.logger.InfoContext(ctx, "Transaction deleted", log.FieldOperation, log.OpDelete, log.FieldTxID, id)
	publish(ctx, s.publisher, s.logger,
		amqp.NewTransactionEvent(amqp.EventTransactionDeleted, core.Transaction{ID: id, UserID: sess.UserID}))
	return nil
}

func (s *LedgerService) evaluate(ctx context.Context, sess core.Session, t core.Transaction) (core.BudgetAlert, error) {
	if t.Type != core.Expense || s.budgets == nil {
		return core.BudgetAlert{}, nil
	}
	return s.budgets.Evaluate(ctx, sess, t.Category, t.Date)
}
