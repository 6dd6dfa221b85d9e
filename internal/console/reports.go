package console

import (
	"context"
	"fmt"

	"finman/internal/core"
)

func (c *Console) report(ctx context.Context) error {
	c.header("Generate Report")
	c.println("1. Monthly Report")
	c.println("2. Yearly Report")
	c.println("3. Category Breakdown")
	c.println("4. Income vs Expense Trend")

	choice, err := ask(c, "\nSelect report type (1-4): ", parseChoice(1, 4))
	if err != nil {
		return err
	}
	switch choice {
	case 1:
		return c.monthlyReport(ctx)
	case 2:
		return c.yearlyReport(ctx)
	case 3:
		return c.categoryReport(ctx)
	default:
		return c.trendReport(ctx)
	}
}

func (c *Console) monthlyReport(ctx context.Context) error {
	month, year, err := c.askPeriod()
	if err != nil {
		return err
	}
	r, err := c.svc.Reports.Monthly(ctx, c.session, month, year)
	if err != nil {
		return err
	}

	c.header(fmt.Sprintf("Monthly Report: %s %d", monthName(month), year))
	if r.Count == 0 {
		c.println(c.styles.muted.Render(fmt.Sprintf("No transactions found for %d/%d.", month, year)))
		return nil
	}
	c.summary("Summary", r.Summary, "Net Savings")
	c.savingsRate(r.Summary)

	if len(r.Income) > 0 {
		c.println("\nIncome Breakdown:")
		c.shareTable(r.Income, "% of Income")
	}
	if len(r.Expense) > 0 {
		c.println("\nExpense Breakdown:")
		c.shareTable(r.Expense, "% of Expenses")
	}
	if len(r.Budgets) > 0 {
		rows := make([][]string, 0, len(r.Budgets))
		for _, l := range r.Budgets {
			used, ok := l.UsedPercent()
			rows = append(rows, []string{
				l.Category, money(l.Amount), money(l.Spent), money(l.Remaining()),
				percentOrNA(used, ok), c.status(l.Status),
			})
		}
		c.println("\nBudget Performance:")
		c.table([]string{"Category", "Budget", "Spent", "Remaining", "Used", "Status"}, rows)
	}
	return nil
}

func (c *Console) yearlyReport(ctx context.Context) error {
	year, err := c.askYear()
	if err != nil {
		return err
	}
	r, err := c.svc.Reports.Yearly(ctx, c.session, year)
	if err != nil {
		return err
	}

	c.header(fmt.Sprintf("Yearly Report: %d", year))
	if r.Count == 0 {
		c.println(c.styles.muted.Render(fmt.Sprintf("No transactions found for %d.", year)))
		return nil
	}
	c.summary(fmt.Sprintf("Summary for %d", year), r.Summary, "Net Savings")
	c.savingsRate(r.Summary)

	var rows [][]string
	for _, m := range r.ActiveMonths() {
		rate, ok := m.SavingsRate()
		rows = append(rows, []string{
			monthName(m.Index), money(m.Income), money(m.Expense), money(m.Net()), percentOrNA(rate, ok),
		})
	}
	c.println("\nMonthly Breakdown:")
	c.table([]string{"Month", "Income", "Expenses", "Net Savings", "Savings Rate"}, rows)

	if len(r.TopIncome) > 0 {
		c.println("\nTop Income Sources:")
		c.shareTable(r.TopIncome, "% of Income")
	}
	if len(r.TopExpense) > 0 {
		c.println("\nTop Expense Categories:")
		c.shareTable(r.TopExpense, "% of Expenses")
	}
	return nil
}

func (c *Console) categoryReport(ctx context.Context) error {
	from, err := ask(c, "Start date (YYYY-MM-DD): ", core.ParseDate)
	if err != nil {
		return err
	}
	today := core.Today(c.now())
	to, err := ask(c, "End date (YYYY-MM-DD, leave empty for today): ", func(s string) (core.Date, error) {
		to, err := optional(today, core.ParseDate)(s)
		if err == nil && from.After(to.Time) {
			return core.Date{}, core.ErrInvalidRange
		}
		return to, err
	})
	if err != nil {
		return err
	}
	sel, err := ask(c, "Transaction type (income/expense/both): ", parseSelector)
	if err != nil {
		return err
	}

	b, err := c.svc.Reports.Categories(ctx, c.session, from, to, sel)
	if err != nil {
		return err
	}
	if b.Empty() {
		c.println(c.styles.muted.Render("No transactions found for the selected period and filters."))
		return nil
	}

	if len(b.Income) > 0 {
		c.printf("\nIncome Categories (%s to %s):\n", from, to)
		c.shareTable(b.Income, "% of Total")
		c.printf("Total Income: %s\n", money(b.Summary.Income))
	}
	if len(b.Expense) > 0 {
		c.printf("\nExpense Categories (%s to %s):\n", from, to)
		c.shareTable(b.Expense, "% of Total")
		c.printf("Total Expenses: %s\n", money(b.Summary.Expense))
	}
	if sel == core.SelectBoth && len(b.Income) > 0 && len(b.Expense) > 0 {
		c.summary("Summary", b.Summary, "Net Savings")
		c.savingsRate(b.Summary)
	}
	return nil
}

func (c *Console) trendReport(ctx context.Context) error {
	c.println("\n1. Monthly trend (for a year)")
	c.println("2. Daily trend (for a month)")
	choice, err := ask(c, "Select option (1-2): ", parseChoice(1, 2))
	if err != nil {
		return err
	}

	var r core.TrendReport
	if choice == 1 {
		year, err := c.askYear()
		if err != nil {
			return err
		}
		if r, err = c.svc.Reports.MonthlyTrend(ctx, c.session, year); err != nil {
			return err
		}
	} else {
		month, year, err := c.askPeriod()
		if err != nil {
			return err
		}
		if r, err = c.svc.Reports.DailyTrend(ctx, c.session, month, year); err != nil {
			return err
		}
	}

	rows := r.Rows()
	if len(rows) == 0 {
		c.println(c.styles.muted.Render("No transactions found for the selected period."))
		return nil
	}

	label, unit := "Month", "Monthly"
	if r.Granularity == core.TrendDaily {
		label, unit = "Date", "Daily"
		c.printf("\nDaily Trend for %s %d:\n", monthName(r.Month), r.Year)
	} else {
		c.printf("\nMonthly Trend for %d:\n", r.Year)
	}

	cells := make([][]string, 0, len(rows))
	for _, b := range rows {
		name := monthName(b.Index)
		if r.Granularity == core.TrendDaily {
			name = core.NewDate(r.Year, r.Month, b.Index).String()
		}
		rate, ok := b.SavingsRate()
		cells = append(cells, []string{
			name, money(b.Income), money(b.Expense), money(b.Net()), percentOrNA(rate, ok), arrow(b.Direction()),
		})
	}
	c.table([]string{label, "Income", "Expenses", "Net", "Savings Rate", "Trend"}, cells)

	if avg, ok := r.Averages(); ok {
		c.println("\nAverages:")
		c.printf("Average %s Income: %s\n", unit, money(avg.Income))
		c.printf("Average %s Expenses: %s\n", unit, money(avg.Expense))
		c.printf("Average %s Net: %s\n", unit, money(avg.Net))
	}
	return nil
}
