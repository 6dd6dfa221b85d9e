package core

import (
	"sort"

	"github.com/shopspring/decimal"
)

const (
	Up   Direction = "up"
	Down Direction = "down"
	Flat Direction = "flat"
)

const (
	SelectIncome  TypeSelector = "income"
	SelectExpense TypeSelector = "expense"
	SelectBoth    TypeSelector = "both"
)

const (
	TrendMonthly Granularity = "monthly"
	TrendDaily   Granularity = "daily"
)

// TopCategories is how many categories per type the yearly report keeps.
const TopCategories = 5

type (
	Direction string

	// TypeSelector picks which transaction types a breakdown covers.
	TypeSelector string

	Granularity string

	// Summary holds income and expense totals of a set of transactions.
	Summary struct {
		Income  Money
		Expense Money
	}

	// CategoryShare is a category total with its share of the type total.
	CategoryShare struct {
		Category string
		Amount   Money
		Percent  decimal.Decimal
	}

	// Bucket is the income/expense of one day or month. Index is the day of
	// the month or the month number.
	Bucket struct {
		Index int
		Summary
	}

	MonthlyReport struct {
		Year    int
		Month   int
		Count   int
		Summary Summary
		Income  []CategoryShare
		Expense []CategoryShare
		Budgets []BudgetLine
	}

	YearlyReport struct {
		Year       int
		Count      int
		Summary    Summary
		Months     [12]Bucket
		TopIncome  []CategoryShare
		TopExpense []CategoryShare
	}

	CategoryBreakdown struct {
		From     Date
		To       Date
		Selector TypeSelector
		Summary  Summary
		Income   []CategoryShare
		Expense  []CategoryShare
	}

	TrendReport struct {
		Granularity Granularity
		Year        int
		Month       int // daily trends only
		Buckets     []Bucket
	}

	// TrendAverages are per-bucket means over the buckets that have data.
	TrendAverages struct {
		Buckets int
		Income  Money
		Expense Money
		Net     Money
	}
)

func ParseTypeSelector(s string) (TypeSelector, error) {
	switch sel := TypeSelector(s); sel {
	case SelectIncome, SelectExpense, SelectBoth:
		return sel, nil
	}
	return "", ErrInvalidInput
}

// Includes reports whether t is covered by the selector.
func (s TypeSelector) Includes(t TransactionType) bool {
	return s == SelectBoth || string(s) == string(t)
}

// Summarize totals income and expense of txs.
func Summarize(txs []Transaction) Summary {
	var s Summary
	for _, t := range txs {
		s.add(t.Type, t.Amount)
	}
	return s
}

func (s *Summary) add(t TransactionType, m Money) {
	if t == Income {
		s.Income = s.Income.Add(m)
	} else {
		s.Expense = s.Expense.Add(m)
	}
}

func (s Summary) Net() Money { return s.Income.Sub(s.Expense) }

// SavingsRate is net/income*100, not applicable without income.
func (s Summary) SavingsRate() (decimal.Decimal, bool) {
	return Percent(s.Net(), s.Income)
}

func (s Summary) HasData() bool { return s.Income.Cents > 0 || s.Expense.Cents > 0 }

// Direction is up for a positive net, down for a negative one.
func (s Summary) Direction() Direction {
	switch net := s.Net(); {
	case net.Cents > 0:
		return Up
	case net.Cents < 0:
		return Down
	}
	return Flat
}

// GroupByCategory sums the transactions of type t per category and returns
// the shares sorted by amount descending, then by name.
func GroupByCategory(txs []Transaction, t TransactionType) []CategoryShare {
	sums := map[string]Money{}
	var total Money
	for _, tx := range txs {
		if tx.Type != t {
			continue
		}
		sums[tx.Category] = sums[tx.Category].Add(tx.Amount)
		total = total.Add(tx.Amount)
	}
	shares := make([]CategoryShare, 0, len(sums))
	for cat, amount := range sums {
		pct, _ := Percent(amount, total)
		shares = append(shares, CategoryShare{Category: cat, Amount: amount, Percent: pct})
	}
	sort.Slice(shares, func(i, j int) bool {
		if shares[i].Amount.Cents != shares[j].Amount.Cents {
			return shares[i].Amount.Cents > shares[j].Amount.Cents
		}
		return shares[i].Category < shares[j].Category
	})
	return shares
}

// BuildMonthlyReport aggregates the transactions of one month. budgets are
// those of the same period; their spend is taken from txs so the budget
// section agrees with the expense breakdown.
func BuildMonthlyReport(year, month int, txs []Transaction, budgets []Budget) MonthlyReport {
	r := MonthlyReport{
		Year:    year,
		Month:   month,
		Count:   len(txs),
		Summary: Summarize(txs),
		Income:  GroupByCategory(txs, Income),
		Expense: GroupByCategory(txs, Expense),
	}
	spent := map[string]Money{}
	for _, share := range r.Expense {
		spent[share.Category] = share.Amount
	}
	for _, b := range budgets {
		r.Budgets = append(r.Budgets, NewBudgetLine(b, spent[b.Category]))
	}
	return r
}

// BuildYearlyReport aggregates one calendar year. All twelve month buckets
// are present even when empty.
func BuildYearlyReport(year int, txs []Transaction) YearlyReport {
	r := YearlyReport{
		Year:       year,
		Count:      len(txs),
		Summary:    Summarize(txs),
		TopIncome:  top(GroupByCategory(txs, Income), TopCategories),
		TopExpense: top(GroupByCategory(txs, Expense), TopCategories),
	}
	for i := range r.Months {
		r.Months[i].Index = i + 1
	}
	for _, t := range txs {
		r.Months[t.Date.Month()-1].add(t.Type, t.Amount)
	}
	return r
}

// ActiveMonths returns the month buckets with any income or expense.
func (r YearlyReport) ActiveMonths() []Bucket {
	return nonEmpty(r.Months[:])
}

// BuildCategoryBreakdown groups txs by (type, category) for the selected
// types.
func BuildCategoryBreakdown(from, to Date, sel TypeSelector, txs []Transaction) CategoryBreakdown {
	var kept []Transaction
	for _, t := range txs {
		if sel.Includes(t.Type) {
			kept = append(kept, t)
		}
	}
	return CategoryBreakdown{
		From:     from,
		To:       to,
		Selector: sel,
		Summary:  Summarize(kept),
		Income:   GroupByCategory(kept, Income),
		Expense:  GroupByCategory(kept, Expense),
	}
}

func (b CategoryBreakdown) Empty() bool {
	return len(b.Income) == 0 && len(b.Expense) == 0
}

// BuildMonthlyTrend buckets a year of transactions by month.
func BuildMonthlyTrend(year int, txs []Transaction) TrendReport {
	r := TrendReport{Granularity: TrendMonthly, Year: year, Buckets: make([]Bucket, 12)}
	for i := range r.Buckets {
		r.Buckets[i].Index = i + 1
	}
	for _, t := range txs {
		r.Buckets[t.Date.Month()-1].add(t.Type, t.Amount)
	}
	return r
}

// BuildDailyTrend buckets a month of transactions by day.
func BuildDailyTrend(year, month int, txs []Transaction) TrendReport {
	days := DaysIn(year, month)
	r := TrendReport{Granularity: TrendDaily, Year: year, Month: month, Buckets: make([]Bucket, days)}
	for i := range r.Buckets {
		r.Buckets[i].Index = i + 1
	}
	for _, t := range txs {
		r.Buckets[t.Date.Day()-1].add(t.Type, t.Amount)
	}
	return r
}

// Rows returns the buckets that have data.
func (r TrendReport) Rows() []Bucket {
	return nonEmpty(r.Buckets)
}

// Totals sums every bucket.
func (r TrendReport) Totals() Summary {
	var s Summary
	for _, b := range r.Buckets {
		s.Income = s.Income.Add(b.Income)
		s.Expense = s.Expense.Add(b.Expense)
	}
	return s
}

// Averages divides the totals by the number of non-empty buckets, not by the
// number of months or days in the period. ok is false without data.
func (r TrendReport) Averages() (TrendAverages, bool) {
	n := len(r.Rows())
	if n == 0 {
		return TrendAverages{}, false
	}
	totals := r.Totals()
	return TrendAverages{
		Buckets: n,
		Income:  Average(totals.Income, n),
		Expense: Average(totals.Expense, n),
		Net:     Average(totals.Net(), n),
	}, true
}

func nonEmpty(buckets []Bucket) []Bucket {
	var out []Bucket
	for _, b := range buckets {
		if b.HasData() {
			out = append(out, b)
		}
	}
	return out
}

func top(shares []CategoryShare, n int) []CategoryShare {
	if len(shares) > n {
		return shares[:n]
	}
	return shares
}
