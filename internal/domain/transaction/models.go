package transaction

import (
	"errors"
	"time"

	"fatura/internal/domain/money"
)

var (
	ErrTransactionNotFound = errors.New("transaction not found")
	ErrInvalidInput        = errors.New("invalid transaction input")
)

const (
	TypeExpense = "expense"
	TypeIncome  = "income"
)

// Transaction is a single money movement on a user's ledger. Card purchases
// and bill payments both record one, so the forecast engine sees everything
// in one place.
type Transaction struct {
	ID          string      `json:"id"`
	UserID      int64       `json:"user_id"`
	Description string      `json:"description"`
	Amount      money.Cents `json:"amount"`
	Type        string      `json:"type"`
	Category    *string     `json:"category,omitempty"`
	CardID      *string     `json:"card_id,omitempty"`
	Date        time.Time   `json:"date"`
	CreatedAt   time.Time   `json:"created_at"`
}

type CreateParams struct {
	UserID      int64
	Description string
	Amount      money.Cents
	Type        string
	Category    *string
	CardID      *string
	Date        time.Time
}

func (p CreateParams) Validate() error {
	if p.UserID <= 0 {
		return ErrInvalidInput
	}
	if p.Description == "" {
		return ErrInvalidInput
	}
	if p.Amount <= 0 {
		return ErrInvalidInput
	}
	if p.Type != TypeExpense && p.Type != TypeIncome {
		return ErrInvalidInput
	}
	if p.Date.IsZero() {
		return ErrInvalidInput
	}
	return nil
}
