package core

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestParseDate(t *testing.T) {
	cases := []struct {
		in string
		ok bool
	}{
		{"2025-01-01", true},
		{"2024-02-29", true},
		{" 2025-12-31 ", true},
		{"2025-02-30", false},
		{"2025-13-01", false},
		{"01/02/2025", false},
		{"", false},
	}
	for _, tc := range cases {
		d, err := ParseDate(tc.in)
		if tc.ok && err != nil {
			t.Fatalf("%q expected ok, got %v", tc.in, err)
		}
		if !tc.ok {
			if !errors.Is(err, ErrInvalidInput) {
				t.Fatalf("%q expected invalid input, got %v", tc.in, err)
			}
			continue
		}
		if d.String() != strings.TrimSpace(tc.in) {
			t.Fatalf("%q round-tripped to %q", tc.in, d.String())
		}
	}
}

func TestDateValidate(t *testing.T) {
	if err := NewDate(2025, 1, 1).Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if err := (Date{Time: time.Time{}}).Validate(); err == nil {
		t.Fatalf("expected error for zero date")
	}
}

func TestMonthRangeAndDaysIn(t *testing.T) {
	from, to := MonthRange(2024, 12)
	if from.String() != "2024-12-01" || to.String() != "2025-01-01" {
		t.Fatalf("unexpected range %s..%s", from, to)
	}
	if DaysIn(2024, 2) != 29 || DaysIn(2025, 2) != 28 || DaysIn(2025, 12) != 31 {
		t.Fatalf("unexpected days in month")
	}
	from, to = YearRange(2025)
	if from.String() != "2025-01-01" || to.String() != "2026-01-01" {
		t.Fatalf("unexpected year range %s..%s", from, to)
	}
}

func TestParseTransactionType(t *testing.T) {
	for in, want := range map[string]TransactionType{"income": Income, " Expense ": Expense, "INCOME": Income} {
		got, err := ParseTransactionType(in)
		if err != nil || got != want {
			t.Fatalf("%q expected %q, got %q (err=%v)", in, want, got, err)
		}
	}
	if _, err := ParseTransactionType("transfer"); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
}

func TestValidateCredentials(t *testing.T) {
	cases := []struct {
		name                        string
		username, password, confirm string
		want                        error
	}{
		{"ok", "alice", "secret1", "secret1", nil},
		{"short username", "al", "secret1", "secret1", ErrUsernameTooShort},
		{"padded short username", "  al  ", "secret1", "secret1", ErrUsernameTooShort},
		{"short password", "alice", "12345", "12345", ErrPasswordTooShort},
		{"mismatch", "alice", "secret1", "secret2", ErrPasswordMismatch},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateCredentials(tc.username, tc.password, tc.confirm)
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestTransactionValidate(t *testing.T) {
	good := Transaction{
		Type:     Expense,
		Amount:   Money{Cents: 100},
		Category: "Food",
		Date:     NewDate(2025, 1, 1),
	}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	bads := []Transaction{
		{Type: "transfer", Amount: Money{Cents: 1}, Category: "c", Date: NewDate(2025, 1, 1)},
		{Type: Income, Amount: Money{Cents: 0}, Category: "c", Date: NewDate(2025, 1, 1)},
		{Type: Income, Amount: Money{Cents: -5}, Category: "c", Date: NewDate(2025, 1, 1)},
		{Type: Income, Amount: Money{Cents: 1}, Category: "  ", Date: NewDate(2025, 1, 1)},
		{Type: Income, Amount: Money{Cents: 1}, Category: "c"},
		{Type: Income, Amount: Money{Cents: 1}, Category: "c", Date: NewDate(2025, 1, 1), Description: strings.Repeat("x", 201)},
	}
	for i, tx := range bads {
		if err := tx.Validate(); !errors.Is(err, ErrInvalidInput) {
			t.Fatalf("case %d expected invalid input, got %v", i, err)
		}
	}
}

func TestParseDescription(t *testing.T) {
	accented := strings.Repeat("é", MaxDescription)
	if got, err := ParseDescription(accented); err != nil || got != accented {
		t.Fatalf("expected %d accented characters to pass, got %v", MaxDescription, err)
	}
	if _, err := ParseDescription(""); err != nil {
		t.Fatalf("expected empty description to pass, got %v", err)
	}
	if _, err := ParseDescription(strings.Repeat("x", MaxDescription+1)); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
}

func TestBudgetValidate(t *testing.T) {
	good := Budget{Category: "Food", Amount: Money{Cents: 30000}, Month: 3, Year: 2025}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	bads := []Budget{
		{Category: "", Amount: Money{Cents: 1}, Month: 3, Year: 2025},
		{Category: "Food", Amount: Money{}, Month: 3, Year: 2025},
		{Category: "Food", Amount: Money{Cents: 1}, Month: 13, Year: 2025},
		{Category: "Food", Amount: Money{Cents: 1}, Month: 0, Year: 2025},
		{Category: "Food", Amount: Money{Cents: 1}, Month: 1, Year: 1999},
	}
	for i, b := range bads {
		if err := b.Validate(); err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}
}

func TestNormalizeCategory(t *testing.T) {
	cases := map[string]string{
		"personal loans": "Personal Loans",
		"  PETS ":        "Pets",
		"café":           "Café",
		"":               "",
	}
	for in, want := range cases {
		if got := NormalizeCategory(in); got != want {
			t.Fatalf("%q expected %q, got %q", in, want, got)
		}
	}
}

func TestSuggestedCategoriesAreCopies(t *testing.T) {
	list := SuggestedCategories(Income)
	list[0] = "Changed"
	if SuggestedCategories(Income)[0] != "Salary" {
		t.Fatalf("suggestion list was mutated through a returned slice")
	}
	if len(SuggestedCategories(Expense)) != 9 {
		t.Fatalf("unexpected expense suggestions: %v", SuggestedCategories(Expense))
	}
}

func TestTransactionFilter(t *testing.T) {
	food := Transaction{Type: Expense, Category: "Fast Food", Date: NewDate(2025, 3, 10)}

	cases := []struct {
		name   string
		filter TransactionFilter
		match  bool
	}{
		{"all", TransactionFilter{}, true},
		{"inclusive range", TransactionFilter{From: NewDate(2025, 3, 10), To: NewDate(2025, 3, 10)}, true},
		{"before range", TransactionFilter{From: NewDate(2025, 3, 11)}, false},
		{"category substring", TransactionFilter{Category: "FOOD"}, true},
		{"other category", TransactionFilter{Category: "rent"}, false},
		{"type", TransactionFilter{Type: Income}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.filter.Matches(food); got != tc.match {
				t.Fatalf("expected %v, got %v", tc.match, got)
			}
		})
	}

	inverted := TransactionFilter{From: NewDate(2025, 3, 2), To: NewDate(2025, 3, 1)}
	if err := inverted.Validate(); !errors.Is(err, ErrInvalidRange) {
		t.Fatalf("expected invalid range, got %v", err)
	}
}
