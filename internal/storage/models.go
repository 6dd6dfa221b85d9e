package storage

type User struct {
	ID           int64
	Username     string
	PasswordHash string
	CreatedAt    string
}

type Transaction struct {
	ID          int64
	UserID      int64
	Type        string
	AmountCents int64
	Category    string
	Description string
	Date        string
}

type Budget struct {
	ID          int64
	UserID      int64
	Category    string
	AmountCents int64
	Month       int64
	Year        int64
}

type BudgetWithSpend struct {
	Budget
	SpentCents int64
}
