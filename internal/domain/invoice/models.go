package invoice

import (
	"errors"
	"fmt"
	"time"

	"fatura/internal/domain/cycle"
	"fatura/internal/domain/money"
)

// Invoice and installment status values
const (
	StatusPending = "pending"
	StatusPaid    = "paid"
)

// Domain errors
var (
	ErrInvoiceNotFound   = errors.New("invoice not found")
	ErrInvoiceNotPending = errors.New("invoice is not pending")
	ErrForbidden         = errors.New("access forbidden")
	ErrInvalidInput      = errors.New("invalid input")
)

// NotPayableError is returned when settlement is attempted outside the
// payable window or on an invoice that is no longer pending. It carries the
// window bounds so the caller can surface them.
type NotPayableError struct {
	Reason     string
	ClosingDay int
	DueDay     int
}

func (e *NotPayableError) Error() string {
	if e.ClosingDay > 0 {
		return fmt.Sprintf("invoice not payable: %s (payable between day %d and day %d)",
			e.Reason, e.ClosingDay, e.DueDay)
	}
	return "invoice not payable: " + e.Reason
}

// Invoice collects the installments of one billing cycle of a card.
// There is at most one invoice per (card, month, year); it is created lazily
// when the first installment resolves to that cycle.
type Invoice struct {
	ID        string      `json:"id"`
	CardID    string      `json:"cardId"`
	Month     int         `json:"month"`
	Year      int         `json:"year"`
	Total     money.Cents `json:"total"`
	Status    string      `json:"status"`
	PaidAt    *time.Time  `json:"paidAt,omitempty"`
	CreatedAt time.Time   `json:"createdAt"`
}

// Key returns the invoice's cycle key.
func (i *Invoice) Key() cycle.Key {
	return cycle.Key{Month: i.Month, Year: i.Year}
}

// Installment is one dated slice of a purchase, bound to exactly one invoice.
// It is immutable after creation except for its status, which always flips in
// lockstep with its parent invoice's settlement.
type Installment struct {
	ID          string      `json:"id"`
	InvoiceID   string      `json:"invoiceId"`
	PurchaseID  string      `json:"purchaseId"`
	UserID      int64       `json:"-"`
	Description string      `json:"description"`
	Amount      money.Cents `json:"amount"`
	Number      int         `json:"installmentNumber"`
	TotalCount  int         `json:"totalInstallments"`
	Status      string      `json:"status"`
	PaidAt      *time.Time  `json:"paidAt,omitempty"`
	CreatedAt   time.Time   `json:"createdAt"`
}

// RecordPurchaseParams contains parameters for recording a card purchase.
type RecordPurchaseParams struct {
	UserID       int64
	CardID       string
	Description  string
	Amount       money.Cents
	Installments int
	Date         time.Time
}

// Validate validates the purchase parameters.
func (p RecordPurchaseParams) Validate() error {
	if p.UserID <= 0 {
		return errors.New("valid user ID is required")
	}
	if p.CardID == "" {
		return errors.New("card ID is required")
	}
	if p.Description == "" {
		return errors.New("description is required")
	}
	if p.Amount <= 0 {
		return errors.New("amount must be positive")
	}
	if p.Installments < 1 || p.Installments > MaxInstallments {
		return fmt.Errorf("installments must be between 1 and %d", MaxInstallments)
	}
	if p.Date.IsZero() {
		return errors.New("purchase date is required")
	}
	return nil
}
