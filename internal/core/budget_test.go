package core

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestClassify(t *testing.T) {
	cases := []struct {
		spent, ceiling int64
		want           BudgetStatus
	}{
		{0, 30000, StatusOK},
		{23999, 30000, StatusOK},
		{24000, 30000, StatusClose},
		{25000, 30000, StatusClose},
		{30000, 30000, StatusClose},
		{30001, 30000, StatusOver},
	}
	for _, tc := range cases {
		if got := Classify(Money{Cents: tc.spent}, Money{Cents: tc.ceiling}); got != tc.want {
			t.Fatalf("spent %d / ceiling %d: expected %s, got %s", tc.spent, tc.ceiling, tc.want, got)
		}
	}
}

func TestEvaluateBudgetApproaching(t *testing.T) {
	b := Budget{Category: "Food", Amount: Money{Cents: 50000}, Month: 3, Year: 2025}
	alert := EvaluateBudget(b, Money{Cents: 45000})

	if alert.Level != AlertApproaching || !alert.Triggered() {
		t.Fatalf("expected approaching alert, got %v", alert.Level)
	}
	if alert.Remaining().String() != "50.00" {
		t.Fatalf("expected 50.00 remaining, got %s", alert.Remaining())
	}
	if !alert.UsedPercent().Equal(decimal.NewFromInt(90)) {
		t.Fatalf("expected 90%% used, got %s", alert.UsedPercent())
	}
	if !alert.RemainingPercent().Equal(decimal.NewFromInt(10)) {
		t.Fatalf("expected 10%% remaining, got %s", alert.RemainingPercent())
	}
	if !alert.Overage().IsZero() {
		t.Fatalf("expected no overage, got %s", alert.Overage())
	}
}

func TestEvaluateBudgetExceeded(t *testing.T) {
	b := Budget{Category: "Food", Amount: Money{Cents: 30000}, Month: 3, Year: 2025}

	alert := EvaluateBudget(b, Money{Cents: 25000})
	if alert.Level != AlertApproaching {
		t.Fatalf("250 of 300 should be approaching, got %v", alert.Level)
	}

	alert = EvaluateBudget(b, Money{Cents: 35000})
	if alert.Level != AlertExceeded {
		t.Fatalf("350 of 300 should be exceeded, got %v", alert.Level)
	}
	if alert.Overage().String() != "50.00" {
		t.Fatalf("expected 50.00 overage, got %s", alert.Overage())
	}

	alert = EvaluateBudget(b, Money{Cents: 1000})
	if alert.Triggered() {
		t.Fatalf("10 of 300 should not trigger, got %v", alert.Level)
	}
}

func TestBudgetOverviewTotals(t *testing.T) {
	o := BudgetOverview{
		Month: 3,
		Year:  2025,
		Lines: []BudgetLine{
			NewBudgetLine(Budget{Category: "Food", Amount: Money{Cents: 30000}}, Money{Cents: 25000}),
			NewBudgetLine(Budget{Category: "Fun", Amount: Money{Cents: 10000}}, Money{Cents: 15000}),
		},
	}
	if o.TotalBudget().Cents != 40000 || o.TotalSpent().Cents != 40000 || !o.TotalRemaining().IsZero() {
		t.Fatalf("unexpected totals %s/%s/%s", o.TotalBudget(), o.TotalSpent(), o.TotalRemaining())
	}
	pct, ok := o.OverallPercent()
	if !ok || !pct.Equal(decimal.NewFromInt(100)) {
		t.Fatalf("expected 100%%, got %s", pct)
	}
	if o.Lines[1].Status != StatusOver || o.Lines[1].Remaining().Cents != -5000 {
		t.Fatalf("unexpected line %+v", o.Lines[1])
	}
}

func TestSortBudgetLines(t *testing.T) {
	lines := []BudgetLine{
		NewBudgetLine(Budget{Category: "Rent", Amount: Money{Cents: 100000}}, Money{Cents: 10000}),
		NewBudgetLine(Budget{Category: "Fun", Amount: Money{Cents: 10000}}, Money{Cents: 15000}),
		NewBudgetLine(Budget{Category: "Food", Amount: Money{Cents: 10000}}, Money{Cents: 15000}),
		NewBudgetLine(Budget{Category: "Gym", Amount: Money{Cents: 10000}}, Money{Cents: 0}),
	}
	SortBudgetLines(lines)

	want := []string{"Food", "Fun", "Rent", "Gym"}
	for i, l := range lines {
		if l.Category != want[i] {
			t.Fatalf("position %d: expected %s, got %s", i, want[i], l.Category)
		}
	}
}
