package console

import (
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/shopspring/decimal"

	"finman/internal/core"
)

type styles struct {
	renderer *lipgloss.Renderer
	title    lipgloss.Style
	header   lipgloss.Style
	cell     lipgloss.Style
	border   lipgloss.Style
	good     lipgloss.Style
	warn     lipgloss.Style
	bad      lipgloss.Style
	muted    lipgloss.Style
}

// newStyles binds the styles to out, so colours are dropped when out is not
// a terminal.
func newStyles(out io.Writer) styles {
	r := lipgloss.NewRenderer(out)
	return styles{
		renderer: r,
		title:    r.NewStyle().Bold(true),
		header:   r.NewStyle().Bold(true).Padding(0, 1),
		cell:     r.NewStyle().Padding(0, 1),
		border:   r.NewStyle().Foreground(lipgloss.Color("240")),
		good:     r.NewStyle().Foreground(lipgloss.Color("42")),
		warn:     r.NewStyle().Foreground(lipgloss.Color("214")),
		bad:      r.NewStyle().Foreground(lipgloss.Color("196")),
		muted:    r.NewStyle().Foreground(lipgloss.Color("245")),
	}
}

func (c *Console) table(headers []string, rows [][]string) {
	s := c.styles
	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(s.border).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return s.header
			}
			return s.cell
		})
	c.println(t.Render())
}

// money formats an amount as "$12.50" or "-$12.50".
func money(m core.Money) string {
	if m.Cents < 0 {
		return "-$" + core.Money{Cents: -m.Cents}.String()
	}
	return "$" + m.String()
}

// signed shows income with a plus and expenses with a minus.
func signed(t core.Transaction) string {
	if t.Type == core.Income {
		return "+" + money(t.Amount)
	}
	return "-" + money(t.Amount)
}

func percent(d decimal.Decimal) string {
	return d.StringFixed(1) + "%"
}

// percentOrNA formats a ratio that may not apply.
func percentOrNA(d decimal.Decimal, ok bool) string {
	if !ok {
		return "N/A"
	}
	return percent(d)
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func monthName(m int) string {
	return time.Month(m).String()[:3]
}

func arrow(d core.Direction) string {
	switch d {
	case core.Up:
		return "↑"
	case core.Down:
		return "↓"
	}
	return "→"
}

func (c *Console) status(st core.BudgetStatus) string {
	switch st {
	case core.StatusOver:
		return c.styles.bad.Render("OVER")
	case core.StatusClose:
		return c.styles.warn.Render("CLOSE")
	}
	return c.styles.good.Render("OK")
}

func (c *Console) transactionTable(txs []core.Transaction) {
	rows := make([][]string, 0, len(txs))
	for _, t := range txs {
		rows = append(rows, []string{
			fmt.Sprint(t.ID), t.Type.Title(), signed(t), t.Category, dash(t.Description), t.Date.String(),
		})
	}
	c.table([]string{"ID", "Type", "Amount", "Category", "Description", "Date"}, rows)
}

func (c *Console) shareTable(shares []core.CategoryShare, pctHeader string) {
	rows := make([][]string, 0, len(shares))
	for _, s := range shares {
		rows = append(rows, []string{s.Category, money(s.Amount), percent(s.Percent)})
	}
	c.table([]string{"Category", "Amount", pctHeader}, rows)
}

func (c *Console) summary(title string, s core.Summary, netLabel string) {
	c.printf("\n%s:\n", title)
	c.printf("Total Income: %s\n", money(s.Income))
	c.printf("Total Expenses: %s\n", money(s.Expense))
	c.printf("%s: %s\n", netLabel, money(s.Net()))
}

func (c *Console) savingsRate(s core.Summary) {
	if rate, ok := s.SavingsRate(); ok {
		c.printf("Savings Rate: %s\n", percent(rate))
	}
}

func (c *Console) alert(a core.BudgetAlert) {
	switch a.Level {
	case core.AlertExceeded:
		c.println("")
		c.println(c.styles.bad.Render(fmt.Sprintf("Warning: You have exceeded your budget for %s in %d/%d!", a.Category, a.Month, a.Year)))
		c.printf("Budget: %s\n", money(a.Ceiling))
		c.printf("Spent: %s\n", money(a.Spent))
		c.printf("Over budget by: %s\n", money(a.Overage()))
	case core.AlertApproaching:
		c.println("")
		c.println(c.styles.warn.Render(fmt.Sprintf("Warning: You are approaching your budget limit for %s in %d/%d!", a.Category, a.Month, a.Year)))
		c.printf("Budget: %s\n", money(a.Ceiling))
		c.printf("Spent: %s\n", money(a.Spent))
		c.printf("Remaining: %s (%s left)\n", money(a.Remaining()), percent(a.RemainingPercent()))
	}
}
