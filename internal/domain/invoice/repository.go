package invoice

import (
	"context"
	"time"

	"fatura/internal/domain/cycle"
	"fatura/internal/domain/money"
)

// PurchaseParams is the fully planned purchase handed to the store for
// atomic execution.
type PurchaseParams struct {
	PurchaseID  string
	CardID      string
	UserID      int64
	Description string
	Date        time.Time
	Total       money.Cents
	Plans       []InstallmentPlan
}

// PurchaseResult reports the outcome of an executed purchase.
type PurchaseResult struct {
	Invoices        []*Invoice
	LimitTotal      money.Cents
	LimitUsedBefore money.Cents
	LimitUsedAfter  money.Cents
}

// SettleParams identifies the invoice to settle.
type SettleParams struct {
	InvoiceID string
	PaidAt    time.Time
}

// SettleResult reports the outcome of an executed settlement.
type SettleResult struct {
	Invoice        *Invoice
	Released       money.Cents
	LimitUsedAfter money.Cents
}

// Repository defines the interface for invoice and installment data access.
//
// ExecutePurchase and ExecuteSettlement are atomic: the store must serialize
// them per card (row lock or equivalent) and commit all writes or none.
type Repository interface {
	GetByID(ctx context.Context, id string) (*Invoice, error)
	GetByCycle(ctx context.Context, cardID string, key cycle.Key) (*Invoice, error)
	ListByCardID(ctx context.Context, cardID string) ([]*Invoice, error)
	ListInstallments(ctx context.Context, invoiceID string) ([]*Installment, error)

	// ExecutePurchase locks the card, checks the full purchase total against
	// the available limit, creates missing invoices, inserts installments and
	// bumps the consumed-limit counter in one transaction. Returns
	// *card.InsufficientLimitError when the limit check fails.
	ExecutePurchase(ctx context.Context, params PurchaseParams) (*PurchaseResult, error)

	// ExecuteSettlement flips the invoice and its pending installments to
	// paid and releases the reserved limit in one transaction. Returns
	// ErrInvoiceNotPending when the invoice was already settled.
	ExecuteSettlement(ctx context.Context, params SettleParams) (*SettleResult, error)
}
