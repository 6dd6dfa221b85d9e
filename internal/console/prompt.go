package console

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"golang.org/x/term"

	"finman/internal/core"
)

func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// line prints prompt and reads one trimmed line. EOF yields errQuit.
func (c *Console) line(prompt string) (string, error) {
	fmt.Fprint(c.out, prompt)
	s, err := c.in.ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) {
			if s != "" {
				return strings.TrimSpace(s), nil
			}
			c.println("")
			return "", errQuit
		}
		return "", err
	}
	return strings.TrimSpace(s), nil
}

// password reads a line without echo when stdin is a terminal.
func (c *Console) password(prompt string) (string, error) {
	if c.inFile == nil {
		s, err := c.line(prompt)
		return s, err
	}
	fmt.Fprint(c.out, prompt)
	b, err := term.ReadPassword(int(c.inFile.Fd()))
	c.println("")
	if err != nil {
		return "", errQuit
	}
	return string(b), nil
}

// ask repeats prompt until parse accepts the answer.
func ask[T any](c *Console, prompt string, parse func(string) (T, error)) (T, error) {
	for {
		s, err := c.line(prompt)
		if err != nil {
			var zero T
			return zero, err
		}
		v, err := parse(s)
		if err == nil {
			return v, nil
		}
		c.println(c.styles.bad.Render(userMessage(err)))
	}
}

// optional wraps parse so that an empty answer yields def.
func optional[T any](def T, parse func(string) (T, error)) func(string) (T, error) {
	return func(s string) (T, error) {
		if s == "" {
			return def, nil
		}
		return parse(s)
	}
}

// keep wraps parse so that an empty answer yields nil, meaning unchanged.
func keep[T any](parse func(string) (T, error)) func(string) (*T, error) {
	return func(s string) (*T, error) {
		if s == "" {
			return nil, nil
		}
		v, err := parse(s)
		if err != nil {
			return nil, err
		}
		return &v, nil
	}
}

func (c *Console) confirm(prompt string) (bool, error) {
	s, err := c.line(prompt)
	if err != nil {
		return false, err
	}
	return strings.ToLower(s) == "y", nil
}

var errNotNumber = fmt.Errorf("%w: please enter a number", core.ErrInvalidInput)

// parseChoice accepts a number in [lo, hi].
func parseChoice(lo, hi int) func(string) (int, error) {
	return func(s string) (int, error) {
		n, err := strconv.Atoi(s)
		if err != nil {
			return 0, errNotNumber
		}
		if n < lo || n > hi {
			return 0, fmt.Errorf("%w: invalid choice", core.ErrInvalidInput)
		}
		return n, nil
	}
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id < 0 {
		return 0, fmt.Errorf("%w: please enter a valid ID", core.ErrInvalidInput)
	}
	return id, nil
}

func parseMonth(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 || n > 12 {
		return 0, core.ErrInvalidMonth
	}
	return n, nil
}

func parseYear(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, core.ErrInvalidYear
	}
	return n, core.ValidateYear(n)
}

func parseSelector(s string) (core.TypeSelector, error) {
	sel, err := core.ParseTypeSelector(strings.ToLower(s))
	if err != nil {
		return "", fmt.Errorf("%w: type must be 'income', 'expense' or 'both'", core.ErrInvalidInput)
	}
	return sel, nil
}

// askPeriod asks for a month and a year, defaulting to the current ones.
func (c *Console) askPeriod() (month, year int, err error) {
	if month, err = c.askMonth(); err != nil {
		return 0, 0, err
	}
	year, err = c.askYear()
	return month, year, err
}

func (c *Console) askMonth() (int, error) {
	current := int(c.now().Month())
	return ask(c, fmt.Sprintf("Month (1-12, leave empty for current month %d): ", current),
		optional(current, parseMonth))
}

func (c *Console) askYear() (int, error) {
	current := c.now().Year()
	return ask(c, fmt.Sprintf("Year (leave empty for current year %d): ", current),
		optional(current, parseYear))
}

// askCategory offers the suggested categories of t plus "Other". A
// non-empty current adds an entry that keeps it.
func (c *Console) askCategory(t core.TransactionType, current string) (string, error) {
	suggested := core.SuggestedCategories(t)
	c.printf("\nAvailable %s categories:\n", t)
	for i, name := range suggested {
		c.printf("%d. %s\n", i+1, name)
	}
	other := len(suggested) + 1
	c.printf("%d. Other (create new)\n", other)
	last := other
	if current != "" {
		last++
		c.printf("%d. Keep current (%s)\n", last, current)
	}

	for {
		n, err := ask(c, "\nSelect category number: ", parseChoice(1, last))
		if err != nil {
			return "", err
		}
		switch {
		case n <= len(suggested):
			return suggested[n-1], nil
		case n > other:
			return current, nil
		}
		name, err := c.line("Enter new category name: ")
		if err != nil {
			return "", err
		}
		if name = core.NormalizeCategory(name); name != "" {
			return name, nil
		}
		c.println(c.styles.bad.Render(userMessage(core.ErrEmptyCategory)))
	}
}
