package bill

import (
	"context"
	"time"

	"fatura/internal/domain/transaction"
)

// SettleParams carries everything the store must apply in one transaction
// when a bill is paid: the status flip, the expense record, and (when the
// bill auto-renews) the successor row.
type SettleParams struct {
	BillID    string
	PaidAt    time.Time
	Expense   transaction.CreateParams
	Successor *Bill // nil when the bill does not renew
}

// SettleResult reports what the settlement transaction produced.
type SettleResult struct {
	Bill      *Bill
	Successor *Bill // nil when no renewal happened
}

// Repository defines the interface for bill data access
type Repository interface {
	Create(ctx context.Context, params CreateParams) (*Bill, error)
	GetByID(ctx context.Context, id string) (*Bill, error)
	ListByUserID(ctx context.Context, userID int64) ([]*Bill, error)
	// ListPendingDueWithin returns every pending bill across all users whose
	// due date falls on or before the given day. The reminder job uses it.
	ListPendingDueWithin(ctx context.Context, until time.Time) ([]*Bill, error)
	Delete(ctx context.Context, id string) error

	// ExecuteSettlement atomically marks the bill paid, records the expense
	// and inserts the successor when one is given. It returns
	// ErrBillNotPayable without side effects when the bill is no longer
	// pending, so a retried settlement cannot double-renew.
	ExecuteSettlement(ctx context.Context, params SettleParams) (*SettleResult, error)
}
