package core

import (
	"errors"
	"fmt"
)

// Error taxonomy shared by storage, services and the console. Field
// validation errors wrap ErrInvalidInput so callers can retry in place.
var (
	ErrInvalidInput       = errors.New("invalid input")
	ErrNotFound           = errors.New("not found")
	ErrDuplicateUsername  = errors.New("username already exists")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrNotAuthenticated   = errors.New("please log in first")
	ErrDumpUnreadable     = errors.New("backup file unreadable")
	ErrDumpMalformed      = errors.New("backup file malformed")
)

var (
	ErrInvalidAmount    = fmt.Errorf("%w: amount must be a number greater than zero", ErrInvalidInput)
	ErrInvalidType      = fmt.Errorf("%w: type must be 'income' or 'expense'", ErrInvalidInput)
	ErrInvalidDate      = fmt.Errorf("%w: date must use the YYYY-MM-DD format", ErrInvalidInput)
	ErrInvalidMonth     = fmt.Errorf("%w: month must be between 1 and 12", ErrInvalidInput)
	ErrInvalidYear      = fmt.Errorf("%w: year must be between %d and %d", ErrInvalidInput, MinYear, MaxYear)
	ErrEmptyCategory    = fmt.Errorf("%w: category cannot be empty", ErrInvalidInput)
	ErrUsernameTooShort = fmt.Errorf("%w: username must be at least %d characters long", ErrInvalidInput, MinUsernameLength)
	ErrPasswordTooShort = fmt.Errorf("%w: password must be at least %d characters long", ErrInvalidInput, MinPasswordLength)
	ErrPasswordMismatch = fmt.Errorf("%w: passwords do not match", ErrInvalidInput)
	ErrInvalidRange     = fmt.Errorf("%w: start date must not be after end date", ErrInvalidInput)
)
