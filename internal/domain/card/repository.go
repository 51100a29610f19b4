package card

import (
	"context"

	"fatura/internal/domain/money"
)

// Repository defines the interface for card data access.
type Repository interface {
	Create(ctx context.Context, params CreateParams) (*Card, error)
	GetByID(ctx context.Context, id string) (*Card, error)
	ListByUserID(ctx context.Context, userID int64) ([]*Card, error)
	ListAll(ctx context.Context) ([]*Card, error)

	// PendingInstallmentTotal recomputes consumed limit from the ground-truth
	// formula: the sum of all installments on the card whose parent invoice
	// is still pending. Used to audit the maintained LimitUsed counter.
	PendingInstallmentTotal(ctx context.Context, cardID string) (money.Cents, error)

	// DeleteCascade removes the card together with its invoices, installments
	// and notifications in a single transaction.
	DeleteCascade(ctx context.Context, id string) error
}
