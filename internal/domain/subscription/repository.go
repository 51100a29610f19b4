package subscription

import (
	"context"
	"time"

	"fatura/internal/domain/cycle"
)

// Repository defines the interface for subscription data access
type Repository interface {
	Create(ctx context.Context, params CreateParams) (*Subscription, error)
	GetByID(ctx context.Context, id string) (*Subscription, error)
	ListByUserID(ctx context.Context, userID int64) ([]*Subscription, error)

	// ListDueOn returns active subscriptions whose billing day has arrived
	// in asOf's month and whose charge for that month has not been posted
	// yet. Billing days past the month's end fire on its last day.
	ListDueOn(ctx context.Context, asOf time.Time) ([]*Subscription, error)

	// MarkPosted records that the subscription's charge went out for the
	// given calendar month.
	MarkPosted(ctx context.Context, id string, key cycle.Key) error

	SetStatus(ctx context.Context, id, status string) error
	Delete(ctx context.Context, id string) error
}
