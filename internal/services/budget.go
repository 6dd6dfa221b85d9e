package services

import (
	"context"
	"errors"
	"strings"

	"finman/internal/amqp"
	"finman/internal/core"
	"finman/internal/log"
)

type BudgetService struct {
	store     BudgetStore
	publisher EventPublisher
	logger    *log.Logger
}

func NewBudgetService(store BudgetStore, publisher EventPublisher, logger *log.Logger) *BudgetService {
	return &BudgetService{
		store:     store,
		publisher: publisher,
		logger:    orDiscard(logger).WithComponent(log.ComponentBudget),
	}
}

// Set creates or replaces the ceiling for (category, month, year).
func (s *BudgetService) Set(ctx context.Context, sess core.Session, category string, amount core.Money, month, year int) (core.Budget, error) {
	if err := requireSession(sess); err != nil {
		return core.Budget{}, err
	}
	b := core.Budget{
		UserID:   sess.UserID,
		Category: strings.TrimSpace(category),
		Amount:   amount,
		Month:    month,
		Year:     year,
	}
	if err := b.Validate(); err != nil {
		return core.Budget{}, err
	}

	saved, err := s.store.UpsertBudget(ctx, b)
	if err != nil {
		return core.Budget{}, err
	}

	s.logger.InfoContext(ctx, "Budget set", log.NewFields().
		WithOperation(log.OpUpsert).
		WithUser(sess.UserID, "").
		WithPeriod(month, year).ToSlice()...)
	publish(ctx, s.publisher, s.logger, amqp.NewBudgetSetEvent(saved))
	return saved, nil
}

// List returns the budgets of a period with their spend, the most used first.
func (s *BudgetService) List(ctx context.Context, sess core.Session, month, year int) (core.BudgetOverview, error) {
	if err := requireSession(sess); err != nil {
		return core.BudgetOverview{}, err
	}
	if err := core.ValidatePeriod(month, year); err != nil {
		return core.BudgetOverview{}, err
	}

	lines, err := s.store.ListBudgetLines(ctx, sess.UserID, month, year)
	if err != nil {
		return core.BudgetOverview{}, err
	}
	core.SortBudgetLines(lines)
	return core.BudgetOverview{Month: month, Year: year, Lines: lines}, nil
}

// Evaluate checks the budget of the expense's (category, month, year) key
// against the recorded spend. Without a budget the alert level is AlertNone.
func (s *BudgetService) Evaluate(ctx context.Context, sess core.Session, category string, date core.Date) (core.BudgetAlert, error) {
	if err := requireSession(sess); err != nil {
		return core.BudgetAlert{}, err
	}
	month, year := date.Month(), date.Year()

	b, err := s.store.GetBudget(ctx, sess.UserID, category, month, year)
	if errors.Is(err, core.ErrNotFound) {
		return core.BudgetAlert{Category: category, Month: month, Year: year}, nil
	}
	if err != nil {
		return core.BudgetAlert{}, err
	}

	spent, err := s.store.SumExpenses(ctx, sess.UserID, category, month, year)
	if err != nil {
		return core.BudgetAlert{}, err
	}

	alert := core.EvaluateBudget(b, spent)
	if alert.Triggered() {
		s.logger.InfoContext(ctx, "Budget alert",
			log.FieldOperation, log.OpEvaluate,
			log.FieldUserID, sess.UserID,
			log.FieldCategory, category,
			"level", alert.Level,
			"spent_cents", spent.Cents,
			"ceiling_cents", b.Amount.Cents)
		publish(ctx, s.publisher, s.logger, amqp.NewBudgetAlertEvent(sess.UserID, alert))
	}
	return alert, nil
}
