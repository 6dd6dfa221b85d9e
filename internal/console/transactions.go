package console

import (
	"context"
	"errors"
	"fmt"

	"finman/internal/core"
	"finman/internal/services"
)

const recentCount = 10

func (c *Console) addTransaction(ctx context.Context) error {
	c.header("Add Transaction")

	typ, err := ask(c, "Transaction type (income/expense): ", core.ParseTransactionType)
	if err != nil {
		return err
	}
	amount, err := ask(c, "Amount: $", core.ParseAmount)
	if err != nil {
		return err
	}
	category, err := c.askCategory(typ, "")
	if err != nil {
		return err
	}
	desc, err := ask(c, "Description (optional): ", core.ParseDescription)
	if err != nil {
		return err
	}
	date, err := ask(c, "Date (YYYY-MM-DD, leave empty for today): ", optional(core.Date{}, core.ParseDate))
	if err != nil {
		return err
	}

	created, alert, err := c.svc.Ledger.Add(ctx, c.session, services.NewTransaction{
		Type:        typ,
		Amount:      amount,
		Category:    category,
		Description: desc,
		Date:        date,
	})
	if created.ID != 0 {
		c.success(fmt.Sprintf("%s transaction added successfully!", created.Type.Title()))
		c.alert(alert)
	}
	return err
}

func (c *Console) viewTransactions(ctx context.Context) error {
	c.header("View Transactions")
	c.println("1. View all transactions")
	c.println("2. Filter by date range")
	c.println("3. Filter by category")
	c.println("4. Filter by transaction type")

	choice, err := ask(c, "\nSelect an option (1-4): ", parseChoice(1, 4))
	if err != nil {
		return err
	}

	var f core.TransactionFilter
	switch choice {
	case 2:
		if f.From, err = ask(c, "Start date (YYYY-MM-DD): ", core.ParseDate); err != nil {
			return err
		}
		today := core.Today(c.now())
		f.To, err = ask(c, "End date (YYYY-MM-DD, leave empty for today): ", func(s string) (core.Date, error) {
			to, err := optional(today, core.ParseDate)(s)
			if err == nil && f.From.After(to.Time) {
				return core.Date{}, core.ErrInvalidRange
			}
			return to, err
		})
		if err != nil {
			return err
		}
	case 3:
		if f.Category, err = c.line("Enter category: "); err != nil {
			return err
		}
	case 4:
		if f.Type, err = ask(c, "Transaction type (income/expense): ", core.ParseTransactionType); err != nil {
			return err
		}
	}

	list, err := c.svc.Ledger.List(ctx, c.session, f)
	if err != nil {
		return err
	}
	if len(list.Transactions) == 0 {
		c.println(c.styles.muted.Render("No transactions found."))
		return nil
	}

	c.println("")
	c.transactionTable(list.Transactions)
	c.summary("Summary", list.Summary, "Net Balance")
	return nil
}

// pickTransaction lists the recent transactions and asks for one of them by
// id. ok is false when the user cancels with 0 or there is nothing to pick.
func (c *Console) pickTransaction(ctx context.Context, verb string) (t core.Transaction, ok bool, err error) {
	recent, err := c.svc.Ledger.Recent(ctx, c.session, recentCount)
	if err != nil {
		return core.Transaction{}, false, err
	}
	if len(recent) == 0 {
		c.println(c.styles.muted.Render("No transactions found."))
		return core.Transaction{}, false, nil
	}
	c.println("\nRecent Transactions:")
	c.transactionTable(recent)

	for {
		id, err := ask(c, fmt.Sprintf("\nEnter ID of transaction to %s (0 to cancel): ", verb), parseID)
		if err != nil || id == 0 {
			return core.Transaction{}, false, err
		}
		t, err := c.svc.Ledger.Get(ctx, c.session, id)
		if errors.Is(err, core.ErrNotFound) {
			c.println(c.styles.bad.Render(fmt.Sprintf("Transaction not found or you don't have permission to %s it.", verb)))
			continue
		}
		if err != nil {
			return core.Transaction{}, false, err
		}
		return t, true, nil
	}
}

func (c *Console) editTransaction(ctx context.Context) error {
	c.header("Edit Transaction")
	t, ok, err := c.pickTransaction(ctx, "edit")
	if err != nil || !ok {
		return err
	}

	c.printf("\nEditing transaction #%d:\n", t.ID)
	c.printf("Current type: %s\n", t.Type)
	c.printf("Current amount: %s\n", money(t.Amount))
	c.printf("Current category: %s\n", t.Category)
	c.printf("Current description: %s\n", dash(t.Description))
	c.printf("Current date: %s\n", t.Date)
	c.println("\nEnter new values (leave empty to keep current value):")

	var u services.TransactionUpdate
	if u.Type, err = ask(c, "New type (income/expense): ", keep(core.ParseTransactionType)); err != nil {
		return err
	}
	if u.Type != nil && *u.Type == t.Type {
		u.Type = nil
	}
	if u.Amount, err = ask(c, "New amount: $", keep(core.ParseAmount)); err != nil {
		return err
	}

	if u.Type != nil {
		// a new type comes with its own category suggestions
		category, err := c.askCategory(*u.Type, t.Category)
		if err != nil {
			return err
		}
		if category != t.Category {
			u.Category = &category
		}
	} else {
		category, err := c.line(fmt.Sprintf("New category (current: %s): ", t.Category))
		if err != nil {
			return err
		}
		if category != "" {
			u.Category = &category
		}
	}

	if u.Description, err = ask(c, fmt.Sprintf("New description (current: %s): ", dash(t.Description)), keep(core.ParseDescription)); err != nil {
		return err
	}
	if u.Date, err = ask(c, fmt.Sprintf("New date (YYYY-MM-DD, current: %s): ", t.Date), keep(core.ParseDate)); err != nil {
		return err
	}

	if u.Empty() {
		c.println("No changes made.")
		return nil
	}
	updated, alert, err := c.svc.Ledger.Update(ctx, c.session, t.ID, u)
	if updated.ID != 0 {
		c.success("Transaction updated successfully!")
		c.alert(alert)
	}
	return err
}

func (c *Console) deleteTransaction(ctx context.Context) error {
	c.header("Delete Transaction")
	t, ok, err := c.pickTransaction(ctx, "delete")
	if err != nil || !ok {
		return err
	}

	yes, err := c.confirm(fmt.Sprintf("Are you sure you want to delete transaction #%d? (y/n): ", t.ID))
	if err != nil {
		return err
	}
	if !yes {
		c.println("Deletion cancelled.")
		return nil
	}
	if err := c.svc.Ledger.Delete(ctx, c.session, t.ID); err != nil {
		return err
	}
	c.success(fmt.Sprintf("Transaction #%d deleted successfully!", t.ID))
	return nil
}
