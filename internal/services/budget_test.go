package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finman/internal/core"
)

func TestSetBudget(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	sess := env.session(t, "alice")

	first, err := env.budgets.Set(ctx, sess, " Food ", core.Money{Cents: 20000}, 3, 2025)
	require.NoError(t, err)
	assert.Equal(t, "Food", first.Category)

	again, err := env.budgets.Set(ctx, sess, "Food", core.Money{Cents: 25000}, 3, 2025)
	require.NoError(t, err)
	assert.Equal(t, first.ID, again.ID)
	assert.Equal(t, int64(25000), again.Amount.Cents)

	tests := []struct {
		name   string
		cat    string
		amount int64
		month  int
		year   int
	}{
		{"zero amount", "Food", 0, 3, 2025},
		{"month 13", "Food", 100, 13, 2025},
		{"year 1999", "Food", 100, 3, 1999},
		{"blank category", " ", 100, 3, 2025},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.budgets.Set(ctx, sess, tt.cat, core.Money{Cents: tt.amount}, tt.month, tt.year)
			assert.ErrorIs(t, err, core.ErrInvalidInput)
		})
	}
}

func TestListBudgets(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	sess := env.session(t, "alice")

	for cat, cents := range map[string]int64{"Food": 30000, "Fun": 10000, "Rent": 80000} {
		_, err := env.budgets.Set(ctx, sess, cat, core.Money{Cents: cents}, 3, 2025)
		require.NoError(t, err)
	}
	env.add(t, sess, core.Expense, 25000, "Food", "2025-03-05")
	env.add(t, sess, core.Expense, 12000, "Fun", "2025-03-06")
	env.add(t, sess, core.Expense, 40000, "Rent", "2025-03-01")
	env.add(t, sess, core.Expense, 99999, "Food", "2025-04-01")

	o, err := env.budgets.List(ctx, sess, 3, 2025)
	require.NoError(t, err)
	require.Len(t, o.Lines, 3)

	assert.Equal(t, "Fun", o.Lines[0].Category)
	assert.Equal(t, core.StatusOver, o.Lines[0].Status)
	assert.Equal(t, "Food", o.Lines[1].Category)
	assert.Equal(t, core.StatusClose, o.Lines[1].Status)
	assert.Equal(t, "Rent", o.Lines[2].Category)
	assert.Equal(t, core.StatusOK, o.Lines[2].Status)

	assert.Equal(t, "1200.00", o.TotalBudget().String())
	assert.Equal(t, "770.00", o.TotalSpent().String())
	assert.Equal(t, "430.00", o.TotalRemaining().String())

	_, err = env.budgets.List(ctx, sess, 0, 2025)
	assert.ErrorIs(t, err, core.ErrInvalidMonth)
}

func TestEvaluateWithoutBudget(t *testing.T) {
	env := newTestEnv(t)
	sess := env.session(t, "alice")

	alert, err := env.budgets.Evaluate(context.Background(), sess, "Food", core.NewDate(2025, 3, 1))
	require.NoError(t, err)
	assert.False(t, alert.Triggered())
	assert.Empty(t, env.publisher.types())
}
