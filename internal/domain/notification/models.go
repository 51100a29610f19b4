package notification

import (
	"errors"
	"time"
)

// Notification types
const (
	TypeInvoiceClosing  = "closing"
	TypePaymentReminder = "payment_reminder"
	TypeLimitWarning    = "limit_warning"
	TypeInvoicePaid     = "paid"
	TypeBillDueSoon     = "bill_due_soon"
	TypeBillPaid        = "bill_paid"
)

var validTypes = map[string]struct{}{
	TypeInvoiceClosing:  {},
	TypePaymentReminder: {},
	TypeLimitWarning:    {},
	TypeInvoicePaid:     {},
	TypeBillDueSoon:     {},
	TypeBillPaid:        {},
}

// Domain errors
var (
	ErrNotificationNotFound = errors.New("notification not found")
	ErrInvalidType          = errors.New("invalid notification type")
	ErrForbidden            = errors.New("access forbidden")
)

// Notification represents a stored notification record
type Notification struct {
	ID        string            `json:"id"`
	UserID    int64             `json:"-"`
	Type      string            `json:"type"`
	Title     string            `json:"title"`
	Message   string            `json:"message"`
	Data      map[string]string `json:"data,omitempty"`
	Read      bool              `json:"read"`
	CreatedAt time.Time         `json:"created_at"`
}

// CreateParams contains parameters for storing a notification
type CreateParams struct {
	UserID  int64
	Type    string
	Title   string
	Message string
	Data    map[string]string
}

func (p CreateParams) Validate() error {
	if p.UserID <= 0 {
		return errors.New("valid user ID is required")
	}
	if p.Title == "" {
		return errors.New("notification title is required")
	}
	if p.Message == "" {
		return errors.New("notification message is required")
	}
	if !IsValidType(p.Type) {
		return ErrInvalidType
	}
	return nil
}

func IsValidType(t string) bool {
	_, ok := validTypes[t]
	return ok
}
