package core

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

const (
	Income  TransactionType = "income"
	Expense TransactionType = "expense"
)

// DateLayout is the ISO calendar-day format used for input, storage and dumps.
const DateLayout = "2006-01-02"

const (
	MinYear = 2000
	MaxYear = 2100

	MinUsernameLength = 3
	MinPasswordLength = 6
	MaxDescription    = 200
)

type (
	TransactionType string

	Date struct {
		time.Time
	}

	Money struct {
		Cents int64
	}

	User struct {
		ID           int64
		Username     string
		PasswordHash string
		CreatedAt    string
	}

	// Session identifies the logged-in user. Every ledger, budget, report
	// and backup operation takes one explicitly.
	Session struct {
		UserID   int64
		Username string
	}

	Transaction struct {
		ID          int64
		UserID      int64
		Type        TransactionType
		Amount      Money
		Category    string
		Description string // optional
		Date        Date
	}

	Budget struct {
		ID       int64
		UserID   int64
		Category string
		Amount   Money // ceiling
		Month    int   // 1-12
		Year     int
	}
)

// ParseTransactionType accepts "income" or "expense" in any case.
func ParseTransactionType(s string) (TransactionType, error) {
	switch TransactionType(strings.ToLower(strings.TrimSpace(s))) {
	case Income:
		return Income, nil
	case Expense:
		return Expense, nil
	}
	return "", ErrInvalidType
}

func (t TransactionType) Validate() error {
	if t != Income && t != Expense {
		return ErrInvalidType
	}
	return nil
}

// Title returns "Income" or "Expense".
func (t TransactionType) Title() string {
	s := string(t)
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses an ISO calendar day (YYYY-MM-DD). Impossible days such as
// 2025-02-30 are rejected.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, ErrInvalidDate
	}
	return Date{Time: t}, nil
}

// Today returns the calendar day of now, dropping the clock and zone.
func Today(now time.Time) Date {
	return NewDate(now.Year(), int(now.Month()), now.Day())
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(DateLayout)
}

// Day returns the day of the month
func (d Date) Day() int {
	return d.Time.Day()
}

// Month returns the month
func (d Date) Month() int {
	return int(d.Time.Month())
}

// Year returns the year
func (d Date) Year() int {
	return d.Time.Year()
}

// MonthRange returns the first day of the month and the first day of the
// following month, for half-open range queries.
func MonthRange(year, month int) (Date, Date) {
	from := NewDate(year, month, 1)
	return from, Date{Time: from.AddDate(0, 1, 0)}
}

// YearRange is MonthRange for a whole calendar year.
func YearRange(year int) (Date, Date) {
	from := NewDate(year, 1, 1)
	return from, Date{Time: from.AddDate(1, 0, 0)}
}

// DaysIn returns the number of days of the given month.
func DaysIn(year, month int) int {
	return time.Date(year, time.Month(month)+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// ValidatePeriod checks a budget/report month and year.
func ValidatePeriod(month, year int) error {
	if month < 1 || month > 12 {
		return ErrInvalidMonth
	}
	return ValidateYear(year)
}

func ValidateYear(year int) error {
	if year < MinYear || year > MaxYear {
		return ErrInvalidYear
	}
	return nil
}

func (s Session) Valid() bool {
	return s.UserID > 0
}

// ValidateCredentials checks the registration rules for a username and a
// password pair.
func ValidateCredentials(username, password, confirm string) error {
	if len([]rune(strings.TrimSpace(username))) < MinUsernameLength {
		return ErrUsernameTooShort
	}
	if len([]rune(password)) < MinPasswordLength {
		return ErrPasswordTooShort
	}
	if password != confirm {
		return ErrPasswordMismatch
	}
	return nil
}

func (t Transaction) Validate() error {
	if err := t.Type.Validate(); err != nil {
		return err
	}
	if err := t.Amount.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(t.Category) == "" {
		return ErrEmptyCategory
	}
	if _, err := ParseDescription(t.Description); err != nil {
		return err
	}
	return t.Date.Validate()
}

// ParseDescription accepts an optional description of at most MaxDescription
// characters.
func ParseDescription(s string) (string, error) {
	if utf8.RuneCountInString(s) > MaxDescription {
		return "", fmt.Errorf("%w: description too long (max %d characters)", ErrInvalidInput, MaxDescription)
	}
	return s, nil
}

func (b Budget) Validate() error {
	if strings.TrimSpace(b.Category) == "" {
		return ErrEmptyCategory
	}
	if err := b.Amount.Validate(); err != nil {
		return err
	}
	return ValidatePeriod(b.Month, b.Year)
}
