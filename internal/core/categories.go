package core

import (
	"strings"
	"unicode"
)

var (
	incomeCategories = []string{"Salary", "Freelance", "Investment", "Gift", "Refund"}

	expenseCategories = []string{
		"Food", "Housing", "Transportation", "Utilities", "Entertainment",
		"Healthcare", "Education", "Shopping", "Personal Care",
	}
)

// SuggestedCategories returns the fixed suggestion list for a transaction
// type. Categories are an open set: any non-empty name is accepted.
func SuggestedCategories(t TransactionType) []string {
	if t == Income {
		return append([]string(nil), incomeCategories...)
	}
	return append([]string(nil), expenseCategories...)
}

// NormalizeCategory title-cases a freely entered category name, so that
// "personal loans" is stored as "Personal Loans".
func NormalizeCategory(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		runes := []rune(strings.ToLower(w))
		runes[0] = unicode.ToUpper(runes[0])
		words[i] = string(runes)
	}
	return strings.Join(words, " ")
}
