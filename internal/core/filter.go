package core

import "strings"

type (
	// TransactionFilter narrows a ledger listing. Zero fields do not filter.
	// From and To are inclusive.
	TransactionFilter struct {
		From     Date
		To       Date
		Category string // case-insensitive substring
		Type     TransactionType
		Limit    int
	}

	// TransactionList is a filtered listing plus its totals.
	TransactionList struct {
		Transactions []Transaction
		Summary      Summary
	}
)

// RecentFilter lists the n most recent transactions.
func RecentFilter(n int) TransactionFilter {
	return TransactionFilter{Limit: n}
}

func (f TransactionFilter) Validate() error {
	if !f.From.IsZero() && !f.To.IsZero() && f.From.After(f.To.Time) {
		return ErrInvalidRange
	}
	if f.Type != "" {
		if err := f.Type.Validate(); err != nil {
			return err
		}
	}
	if f.Limit < 0 {
		return ErrInvalidInput
	}
	return nil
}

// Matches reports whether t passes the filter. Storage applies the same rules
// in SQL; this is used on in-memory slices.
func (f TransactionFilter) Matches(t Transaction) bool {
	if !f.From.IsZero() && t.Date.Before(f.From.Time) {
		return false
	}
	if !f.To.IsZero() && t.Date.After(f.To.Time) {
		return false
	}
	if f.Category != "" && !strings.Contains(strings.ToLower(t.Category), strings.ToLower(f.Category)) {
		return false
	}
	return f.Type == "" || t.Type == f.Type
}
