package amqp

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"finman/internal/core"
)

type EventType string

const (
	EventTransactionCreated EventType = "transaction.created"
	EventTransactionUpdated EventType = "transaction.updated"
	EventTransactionDeleted EventType = "transaction.deleted"
	EventBudgetSet          EventType = "budget.set"
	EventBudgetAlert        EventType = "budget.alert"
)

// LedgerEvent describes one change of a user's ledger or budgets. Consumers
// fetch nothing back: the event carries every field they need.
type LedgerEvent struct {
	ID            string    `json:"id"`
	Type          EventType `json:"type"`
	UserID        int64     `json:"user_id"`
	TransactionID int64     `json:"transaction_id,omitempty"`
	Kind          string    `json:"kind,omitempty"`
	AmountCents   int64     `json:"amount_cents,omitempty"`
	Category      string    `json:"category,omitempty"`
	Date          string    `json:"date,omitempty"`
	Month         int       `json:"month,omitempty"`
	Year          int       `json:"year,omitempty"`
	SpentCents    int64     `json:"spent_cents,omitempty"`
	Level         string    `json:"level,omitempty"`
	Timestamp     time.Time `json:"timestamp"`
}

// NewLedgerEvent creates an event with a fresh id and the current time
func NewLedgerEvent(t EventType, userID int64) *LedgerEvent {
	return &LedgerEvent{
		ID:        uuid.NewString(),
		Type:      t,
		UserID:    userID,
		Timestamp: time.Now().UTC(),
	}
}

func NewTransactionEvent(t EventType, tx core.Transaction) *LedgerEvent {
	ev := NewLedgerEvent(t, tx.UserID)
	ev.TransactionID = tx.ID
	if t == EventTransactionDeleted {
		return ev
	}
	ev.Kind = string(tx.Type)
	ev.AmountCents = tx.Amount.Cents
	ev.Category = tx.Category
	ev.Date = tx.Date.String()
	return ev
}

func NewBudgetSetEvent(b core.Budget) *LedgerEvent {
	ev := NewLedgerEvent(EventBudgetSet, b.UserID)
	ev.Category = b.Category
	ev.AmountCents = b.Amount.Cents
	ev.Month = b.Month
	ev.Year = b.Year
	return ev
}

func NewBudgetAlertEvent(userID int64, a core.BudgetAlert) *LedgerEvent {
	ev := NewLedgerEvent(EventBudgetAlert, userID)
	ev.Category = a.Category
	ev.AmountCents = a.Ceiling.Cents
	ev.SpentCents = a.Spent.Cents
	ev.Month = a.Month
	ev.Year = a.Year
	ev.Level = alertLevelName(a.Level)
	return ev
}

func alertLevelName(l core.AlertLevel) string {
	switch l {
	case core.AlertExceeded:
		return "exceeded"
	case core.AlertApproaching:
		return "approaching"
	default:
		return "none"
	}
}

// ToJSON converts the event to JSON bytes
func (e *LedgerEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// LedgerEventFromJSON creates an event from JSON bytes
func LedgerEventFromJSON(data []byte) (*LedgerEvent, error) {
	var ev LedgerEvent
	if err := json.Unmarshal(data, &ev); err != nil {
		return nil, err
	}
	return &ev, nil
}
