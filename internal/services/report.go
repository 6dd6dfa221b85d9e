package services

import (
	"context"

	"finman/internal/core"
	"finman/internal/log"
)

type ReportService struct {
	transactions TransactionStore
	budgets      BudgetStore
	logger       *log.Logger
}

func NewReportService(transactions TransactionStore, budgets BudgetStore, logger *log.Logger) *ReportService {
	return &ReportService{
		transactions: transactions,
		budgets:      budgets,
		logger:       orDiscard(logger).WithComponent(log.ComponentReport),
	}
}

func (s *ReportService) Monthly(ctx context.Context, sess core.Session, month, year int) (core.MonthlyReport, error) {
	if err := requireSession(sess); err != nil {
		return core.MonthlyReport{}, err
	}
	if err := core.ValidatePeriod(month, year); err != nil {
		return core.MonthlyReport{}, err
	}

	from, until := core.MonthRange(year, month)
	txs, err := s.transactions.TransactionsBetween(ctx, sess.UserID, from, until)
	if err != nil {
		return core.MonthlyReport{}, err
	}
	budgets, err := s.budgets.ListBudgets(ctx, sess.UserID, month, year)
	if err != nil {
		return core.MonthlyReport{}, err
	}

	s.logger.DebugContext(ctx, "Monthly report", log.FieldUserID, sess.UserID, log.FieldMonth, month, log.FieldYear, year, log.FieldCount, len(txs))
	return core.BuildMonthlyReport(year, month, txs, budgets), nil
}

func (s *ReportService) Yearly(ctx context.Context, sess core.Session, year int) (core.YearlyReport, error) {
	txs, err := s.year(ctx, sess, year)
	if err != nil {
		return core.YearlyReport{}, err
	}
	return core.BuildYearlyReport(year, txs), nil
}

// Categories groups the transactions dated from..to (inclusive) by type and
// category.
func (s *ReportService) Categories(ctx context.Context, sess core.Session, from, to core.Date, sel core.TypeSelector) (core.CategoryBreakdown, error) {
	if err := requireSession(sess); err != nil {
		return core.CategoryBreakdown{}, err
	}
	if err := from.Validate(); err != nil {
		return core.CategoryBreakdown{}, err
	}
	if err := to.Validate(); err != nil {
		return core.CategoryBreakdown{}, err
	}
	if from.After(to.Time) {
		return core.CategoryBreakdown{}, core.ErrInvalidRange
	}
	if _, err := core.ParseTypeSelector(string(sel)); err != nil {
		return core.CategoryBreakdown{}, err
	}

	until := core.Date{Time: to.AddDate(0, 0, 1)}
	txs, err := s.transactions.TransactionsBetween(ctx, sess.UserID, from, until)
	if err != nil {
		return core.CategoryBreakdown{}, err
	}
	return core.BuildCategoryBreakdown(from, to, sel, txs), nil
}

// MonthlyTrend buckets a year by month.
func (s *ReportService) MonthlyTrend(ctx context.Context, sess core.Session, year int) (core.TrendReport, error) {
	txs, err := s.year(ctx, sess, year)
	if err != nil {
		return core.TrendReport{}, err
	}
	return core.BuildMonthlyTrend(year, txs), nil
}

// DailyTrend buckets a month by day.
func (s *ReportService) DailyTrend(ctx context.Context, sess core.Session, month, year int) (core.TrendReport, error) {
	if err := requireSession(sess); err != nil {
		return core.TrendReport{}, err
	}
	if err := core.ValidatePeriod(month, year); err != nil {
		return core.TrendReport{}, err
	}

	from, until := core.MonthRange(year, month)
	txs, err := s.transactions.TransactionsBetween(ctx, sess.UserID, from, until)
	if err != nil {
		return core.TrendReport{}, err
	}
	return core.BuildDailyTrend(year, month, txs), nil
}

func (s *ReportService) year(ctx context.Context, sess core.Session, year int) ([]core.Transaction, error) {
	if err := requireSession(sess); err != nil {
		return nil, err
	}
	if err := core.ValidateYear(year); err != nil {
		return nil, err
	}
	from, until := core.YearRange(year)
	return s.transactions.TransactionsBetween(ctx, sess.UserID, from, until)
}
