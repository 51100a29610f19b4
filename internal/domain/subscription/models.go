package subscription

import (
	"errors"
	"fmt"
	"time"

	"fatura/internal/domain/cycle"
	"fatura/internal/domain/money"
)

var (
	ErrSubscriptionNotFound = errors.New("subscription not found")
	ErrForbidden            = errors.New("access forbidden")
	ErrInvalidInput         = errors.New("invalid subscription input")
)

const (
	StatusActive   = "active"
	StatusInactive = "inactive"
)

// Subscription is a card-bound recurring purchase: every month on its
// billing day the charge is posted against the card's cycle like any other
// purchase, consuming limit. LastPostedMonth/Year mark the last calendar
// month a charge went out, zero meaning never.
type Subscription struct {
	ID              string      `json:"id"`
	UserID          int64       `json:"-"`
	CardID          string      `json:"cardId"`
	Name            string      `json:"name"`
	Amount          money.Cents `json:"amount"`
	BillingDay      int         `json:"billingDay"`
	Category        *string     `json:"category,omitempty"`
	Status          string      `json:"status"`
	LastPostedMonth int         `json:"-"`
	LastPostedYear  int         `json:"-"`
	CreatedAt       time.Time   `json:"createdAt"`
}

// PostedFor reports whether this month's charge already went out.
func (s *Subscription) PostedFor(key cycle.Key) bool {
	return s.LastPostedMonth == key.Month && s.LastPostedYear == key.Year
}

type CreateParams struct {
	UserID     int64
	CardID     string
	Name       string
	Amount     money.Cents
	BillingDay int
	Category   *string
}

func (p CreateParams) Validate() error {
	if p.UserID <= 0 {
		return fmt.Errorf("%w: valid user ID is required", ErrInvalidInput)
	}
	if p.CardID == "" {
		return fmt.Errorf("%w: card ID is required", ErrInvalidInput)
	}
	if p.Name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	if p.Amount <= 0 {
		return fmt.Errorf("%w: amount must be positive", ErrInvalidInput)
	}
	if p.BillingDay < 1 || p.BillingDay > 31 {
		return fmt.Errorf("%w: billing day must be between 1 and 31", ErrInvalidInput)
	}
	return nil
}
