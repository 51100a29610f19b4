package transaction

import (
	"context"
)

// Repository defines the interface for transaction data access
type Repository interface {
	Create(ctx context.Context, params CreateParams) (*Transaction, error)
	ListByUserID(ctx context.Context, userID int64, limit, offset int) ([]*Transaction, error)
	// ListExpensesByUserID returns every expense ordered by date ascending.
	// The forecast engine consumes the full history at once.
	ListExpensesByUserID(ctx context.Context, userID int64) ([]*Transaction, error)
}
