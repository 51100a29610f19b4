package bill

import (
	"errors"
	"time"

	"fatura/internal/domain/money"
)

const (
	StatusPending = "pending"
	StatusPaid    = "paid"
)

// Bill type values
const (
	TypeFixed       = "fixed"       // repeats every month
	TypeInstallment = "installment" // finite run, tracked by the counters
)

// Domain errors
var (
	ErrBillNotFound = errors.New("bill not found")
	ErrForbidden    = errors.New("access forbidden")
	ErrInvalidInput = errors.New("invalid bill input")

	// ErrBillNotPayable is returned when settlement is attempted on a bill
	// that is not pending anymore.
	ErrBillNotPayable = errors.New("bill is not payable")
)

// Bill is a non-card obligation (rent, utilities, boletos). Settlement may
// spawn a successor one month later when auto-renew is set.
type Bill struct {
	ID                 string      `json:"id"`
	UserID             int64       `json:"user_id"`
	Name               string      `json:"name"`
	Amount             money.Cents `json:"amount"`
	DueDate            time.Time   `json:"due_date"`
	Type               string      `json:"type"` // fixed, installment
	Status             string      `json:"status"`
	AutoRenew          bool        `json:"auto_renew"`
	IsFixedAmount      bool        `json:"is_fixed_amount"`
	TotalInstallments  int         `json:"total_installments"`
	CurrentInstallment int         `json:"current_installment"`
	Category           *string     `json:"category,omitempty"`
	Notes              *string     `json:"notes,omitempty"`
	RenewedFrom        *string     `json:"renewed_from,omitempty"`
	PaidAt             *time.Time  `json:"paid_at,omitempty"`
	CreatedAt          time.Time   `json:"created_at"`
}

// ShouldRenew reports whether settling this bill spawns a successor.
// Only fixed (monthly) bills with auto-renew roll over.
func (b *Bill) ShouldRenew() bool {
	return b.AutoRenew && b.Type == TypeFixed
}

// Successor builds the next occurrence of an auto-renewing bill. The due
// date moves one calendar month forward and a variable amount resets to
// zero for the user to fill in later. The predecessor's ID is recorded so
// a retried settlement cannot create a second successor.
func (b *Bill) Successor() *Bill {
	amount := b.Amount
	if !b.IsFixedAmount {
		amount = 0
	}
	from := b.ID
	return &Bill{
		UserID:             b.UserID,
		Name:               b.Name,
		Amount:             amount,
		DueDate:            b.DueDate.AddDate(0, 1, 0),
		Type:               b.Type,
		Status:             StatusPending,
		AutoRenew:          b.AutoRenew,
		IsFixedAmount:      b.IsFixedAmount,
		TotalInstallments:  b.TotalInstallments,
		CurrentInstallment: b.CurrentInstallment,
		Category:           b.Category,
		Notes:              b.Notes,
		RenewedFrom:        &from,
	}
}

// CreateParams contains parameters for creating a new bill
type CreateParams struct {
	UserID             int64
	Name               string
	Amount             money.Cents
	DueDate            time.Time
	Type               string
	AutoRenew          bool
	IsFixedAmount      bool
	TotalInstallments  int
	CurrentInstallment int
	Category           *string
	Notes              *string
}

// Validate validates the create parameters
func (p CreateParams) Validate() error {
	if p.UserID <= 0 {
		return ErrInvalidInput
	}
	if p.Name == "" {
		return ErrInvalidInput
	}
	if p.Amount < 0 {
		return ErrInvalidInput
	}
	if p.DueDate.IsZero() {
		return ErrInvalidInput
	}
	if p.Type != TypeFixed && p.Type != TypeInstallment {
		return ErrInvalidInput
	}
	if p.Type == TypeInstallment {
		if p.TotalInstallments < 1 || p.CurrentInstallment < 1 || p.CurrentInstallment > p.TotalInstallments {
			return ErrInvalidInput
		}
	}
	return nil
}
