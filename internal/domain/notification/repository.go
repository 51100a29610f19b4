package notification

import (
	"context"
	"time"
)

// Repository defines the interface for notification data access.
// Defined in the domain layer, implemented in the infrastructure layer.
type Repository interface {
	Create(ctx context.Context, params CreateParams) (*Notification, error)
	ListByUserID(ctx context.Context, userID int64, page, perPage int) ([]*Notification, int, error)
	MarkRead(ctx context.Context, notificationID string, userID int64) error
	Delete(ctx context.Context, notificationID string, userID int64) error
	// ExistsSince reports whether a notification of the given type already
	// exists for the user since the given instant. Scheduled reminders use
	// it to avoid nagging twice in one day.
	ExistsSince(ctx context.Context, userID int64, notifType string, since time.Time) (bool, error)
}
