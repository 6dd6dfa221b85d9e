package console

import (
	"context"
	"fmt"

	"finman/internal/core"
)

func (c *Console) setBudget(ctx context.Context) error {
	c.header("Set Budget")
	month, year, err := c.askPeriod()
	if err != nil {
		return err
	}
	category, err := c.askCategory(core.Expense, "")
	if err != nil {
		return err
	}
	amount, err := ask(c, fmt.Sprintf("Budget amount for %s (%d/%d): $", category, month, year), core.ParseAmount)
	if err != nil {
		return err
	}

	b, err := c.svc.Budgets.Set(ctx, c.session, category, amount, month, year)
	if err != nil {
		return err
	}
	c.success(fmt.Sprintf("Budget of %s set for %s in %d/%d", money(b.Amount), b.Category, b.Month, b.Year))
	return nil
}

func (c *Console) viewBudgets(ctx context.Context) error {
	c.header("View Budgets")
	month, year, err := c.askPeriod()
	if err != nil {
		return err
	}

	o, err := c.svc.Budgets.List(ctx, c.session, month, year)
	if err != nil {
		return err
	}
	if len(o.Lines) == 0 {
		c.println(c.styles.muted.Render(fmt.Sprintf("No budgets set for %d/%d.", month, year)))
		return nil
	}

	rows := make([][]string, 0, len(o.Lines))
	for _, l := range o.Lines {
		used, ok := l.UsedPercent()
		rows = append(rows, []string{
			l.Category, money(l.Amount), money(l.Spent), money(l.Remaining()),
			percentOrNA(used, ok), c.status(l.Status),
		})
	}
	c.printf("\nBudgets for %d/%d:\n", month, year)
	c.table([]string{"Category", "Budget", "Spent", "Remaining", "Used", "Status"}, rows)

	c.println("\nSummary:")
	c.printf("Total Budget: %s\n", money(o.TotalBudget()))
	c.printf("Total Spent: %s\n", money(o.TotalSpent()))
	c.printf("Total Remaining: %s\n", money(o.TotalRemaining()))
	if pct, ok := o.OverallPercent(); ok {
		c.printf("Overall Progress: %s\n", percent(pct))
	}
	return nil
}
