package core

import (
	"sort"

	"github.com/shopspring/decimal"
)

const (
	StatusOK    BudgetStatus = "OK"
	StatusClose BudgetStatus = "CLOSE"
	StatusOver  BudgetStatus = "OVER"
)

const (
	AlertNone AlertLevel = iota
	AlertApproaching
	AlertExceeded
)

type (
	// BudgetStatus is the status band of a spend-to-ceiling ratio.
	BudgetStatus string

	AlertLevel int

	// BudgetLine is a budget joined with the actual spend of its period.
	BudgetLine struct {
		Budget
		Spent  Money
		Status BudgetStatus
	}

	// BudgetAlert is the outcome of evaluating one (category, month, year)
	// key after an expense was recorded.
	BudgetAlert struct {
		Category string
		Month    int
		Year     int
		Ceiling  Money
		Spent    Money
		Level    AlertLevel
	}

	// BudgetOverview is the budget list of one period plus its totals.
	BudgetOverview struct {
		Month int
		Year  int
		Lines []BudgetLine
	}
)

// Classify returns OVER above the ceiling, CLOSE from 80% of the ceiling
// up to and including it, OK below. The comparison is exact on cents.
func Classify(spent, ceiling Money) BudgetStatus {
	switch {
	case spent.Cents > ceiling.Cents:
		return StatusOver
	case spent.Cents*5 >= ceiling.Cents*4:
		return StatusClose
	default:
		return StatusOK
	}
}

// NewBudgetLine annotates a budget with its spend and status band.
func NewBudgetLine(b Budget, spent Money) BudgetLine {
	return BudgetLine{Budget: b, Spent: spent, Status: Classify(spent, b.Amount)}
}

func (l BudgetLine) Remaining() Money { return l.Amount.Sub(l.Spent) }

// UsedPercent is spent/ceiling*100; not applicable for a zero ceiling.
func (l BudgetLine) UsedPercent() (decimal.Decimal, bool) {
	return Percent(l.Spent, l.Amount)
}

// EvaluateBudget classifies the spend of a budget key into an alert level.
func EvaluateBudget(b Budget, spent Money) BudgetAlert {
	alert := BudgetAlert{
		Category: b.Category,
		Month:    b.Month,
		Year:     b.Year,
		Ceiling:  b.Amount,
		Spent:    spent,
	}
	switch Classify(spent, b.Amount) {
	case StatusOver:
		alert.Level = AlertExceeded
	case StatusClose:
		alert.Level = AlertApproaching
	}
	return alert
}

func (a BudgetAlert) Triggered() bool { return a.Level != AlertNone }

// Overage is how much the spend exceeds the ceiling, zero otherwise.
func (a BudgetAlert) Overage() Money {
	if a.Spent.Cents <= a.Ceiling.Cents {
		return Money{}
	}
	return a.Spent.Sub(a.Ceiling)
}

// Remaining is ceiling minus spend; negative once exceeded.
func (a BudgetAlert) Remaining() Money { return a.Ceiling.Sub(a.Spent) }

func (a BudgetAlert) UsedPercent() decimal.Decimal {
	pct, _ := Percent(a.Spent, a.Ceiling)
	return pct
}

// RemainingPercent is the share of the ceiling still available.
func (a BudgetAlert) RemainingPercent() decimal.Decimal {
	pct, _ := Percent(a.Remaining(), a.Ceiling)
	return pct
}

func (o BudgetOverview) TotalBudget() Money {
	var total Money
	for _, l := range o.Lines {
		total = total.Add(l.Amount)
	}
	return total
}

func (o BudgetOverview) TotalSpent() Money {
	var total Money
	for _, l := range o.Lines {
		total = total.Add(l.Spent)
	}
	return total
}

func (o BudgetOverview) TotalRemaining() Money {
	return o.TotalBudget().Sub(o.TotalSpent())
}

// OverallPercent is total spent over total budget.
func (o BudgetOverview) OverallPercent() (decimal.Decimal, bool) {
	return Percent(o.TotalSpent(), o.TotalBudget())
}

// SortBudgetLines orders lines by used share of the ceiling, highest first,
// then by category.
func SortBudgetLines(lines []BudgetLine) {
	sort.SliceStable(lines, func(i, j int) bool {
		pi, _ := lines[i].UsedPercent()
		pj, _ := lines[j].UsedPercent()
		if !pi.Equal(pj) {
			return pi.GreaterThan(pj)
		}
		return lines[i].Category < lines[j].Category
	})
}
