// Package console is the interactive front end of finman: the pre-login and
// post-login menus, their prompts and the rendering of lists and reports.
package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"finman/internal/core"
	"finman/internal/log"
	"finman/internal/services"
)

// errQuit ends the menu loop. It is returned once stdin is exhausted.
var errQuit = errors.New("quit")

// Services bundles the use cases the console drives.
type Services struct {
	Auth    *services.AuthService
	Ledger  *services.LedgerService
	Budgets *services.BudgetService
	Reports *services.ReportService
	Backups *services.BackupService
}

type Config struct {
	In       io.Reader
	Out      io.Writer
	Services Services
	Now      func() time.Time
}

// Console runs the menus over one input and one output stream. It holds the
// only session of the program.
type Console struct {
	in      *bufio.Reader
	inFile  *os.File // set when In is a terminal, for hidden password input
	out     io.Writer
	svc     Services
	logger  *log.Logger
	now     func() time.Time
	styles  styles
	session core.Session
}

func New(cfg Config) *Console {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	c := &Console{
		in:     bufio.NewReader(cfg.In),
		out:    cfg.Out,
		svc:    cfg.Services,
		logger: log.Discard(),
		now:    cfg.Now,
		styles: newStyles(cfg.Out),
	}
	if f, ok := cfg.In.(*os.File); ok && isTerminal(f) {
		c.inFile = f
	}
	return c
}

// Run shows the menus until the user exits, stdin reaches EOF or ctx is
// cancelled. Errors of single actions are printed and do not end the loop.
// Unexpected errors go to the logger carried by ctx.
func (c *Console) Run(ctx context.Context) error {
	c.logger = log.FromContext(ctx).WithComponent(log.ComponentConsole)
	for {
		if err := ctx.Err(); err != nil {
			return nil
		}

		var err error
		if c.session.Valid() {
			err = c.mainMenu(ctx)
		} else {
			err = c.startMenu(ctx)
		}

		switch {
		case errors.Is(err, errQuit):
			c.println("Goodbye!")
			return nil
		case err != nil:
			c.fail(err)
		}
	}
}

func (c *Console) startMenu(ctx context.Context) error {
	c.println("")
	c.println(c.styles.title.Render("Personal Finance Manager"))
	c.println("1. Register")
	c.println("2. Login")
	c.println("3. Exit")

	choice, err := c.line("Choose an option: ")
	if err != nil {
		return err
	}
	switch choice {
	case "1":
		return c.register(ctx)
	case "2":
		return c.login(ctx)
	case "3":
		return errQuit
	}
	c.println("Invalid choice. Please try again.")
	return nil
}

func (c *Console) mainMenu(ctx context.Context) error {
	c.println("")
	c.println(c.styles.title.Render(fmt.Sprintf("Welcome, %s!", c.session.Username)))
	for i, item := range []string{
		"Add Transaction", "View Transactions", "Edit Transaction", "Delete Transaction",
		"Set Budget", "View Budgets", "Generate Report", "Backup Data", "Restore Data", "Logout",
	} {
		c.printf("%d. %s\n", i+1, item)
	}

	choice, err := c.line("Choose an option: ")
	if err != nil {
		return err
	}
	switch choice {
	case "1":
		return c.addTransaction(ctx)
	case "2":
		return c.viewTransactions(ctx)
	case "3":
		return c.editTransaction(ctx)
	case "4":
		return c.deleteTransaction(ctx)
	case "5":
		return c.setBudget(ctx)
	case "6":
		return c.viewBudgets(ctx)
	case "7":
		return c.report(ctx)
	case "8":
		return c.backup(ctx)
	case "9":
		return c.restore(ctx)
	case "10":
		c.session = c.svc.Auth.Logout(ctx, c.session)
		c.println("Logged out successfully.")
		return nil
	}
	c.println("Invalid choice. Please try again.")
	return nil
}

func (c *Console) printf(format string, args ...any) {
	fmt.Fprintf(c.out, format, args...)
}

func (c *Console) println(s string) {
	fmt.Fprintln(c.out, s)
}

func (c *Console) header(s string) {
	c.println("")
	c.println(c.styles.title.Render("=== " + s + " ==="))
}

func (c *Console) success(s string) {
	c.println("")
	c.println(c.styles.good.Render("✓ " + s))
}

// fail reports an error of an action and logs the ones that are not the
// user's doing.
func (c *Console) fail(err error) {
	c.println(c.styles.bad.Render(userMessage(err)))
	if !isUserError(err) {
		c.logger.Error("Action failed", log.FieldError, err)
	}
}

// userMessage turns an error into a sentence for the console.
func userMessage(err error) string {
	switch {
	case errors.Is(err, core.ErrDumpUnreadable), errors.Is(err, core.ErrDumpMalformed):
		return "Error restoring backup: " + err.Error()
	case errors.Is(err, core.ErrInvalidInput):
		msg := strings.TrimPrefix(err.Error(), core.ErrInvalidInput.Error()+": ")
		return capitalize(msg) + "."
	case isUserError(err):
		return capitalize(err.Error()) + "."
	}
	return "Error: " + err.Error()
}

func isUserError(err error) bool {
	for _, target := range []error{
		core.ErrInvalidInput, core.ErrNotFound, core.ErrDuplicateUsername,
		core.ErrInvalidCredentials, core.ErrNotAuthenticated,
		core.ErrDumpUnreadable, core.ErrDumpMalformed,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
