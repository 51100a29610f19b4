package card

import (
	"errors"
	"fmt"
	"time"

	"fatura/internal/domain/cycle"
	"fatura/internal/domain/money"
)

// Domain errors
var (
	ErrCardNotFound = errors.New("card not found")
	ErrForbidden    = errors.New("access forbidden")
	ErrInvalidInput = errors.New("invalid input")
)

// LimitWarningRatio is the usage ratio above which a limit warning is emitted.
const LimitWarningRatio = 0.80

// InsufficientLimitError is returned when a purchase would exceed the card's
// available credit. It carries the shortfall so callers can surface it.
type InsufficientLimitError struct {
	Available money.Cents
	Requested money.Cents
}

func (e *InsufficientLimitError) Error() string {
	return fmt.Sprintf("insufficient limit by %s (available %s, requested %s)",
		e.Shortfall(), e.Available, e.Requested)
}

// Shortfall returns how much credit is missing for the purchase.
func (e *InsufficientLimitError) Shortfall() money.Cents {
	return e.Requested - e.Available
}

// Card represents a credit card and its limit ledger state.
//
// LimitUsed is a maintained counter equal to the sum of the card's pending
// installments; it is only ever mutated inside the same store transaction
// that writes or settles installments.
type Card struct {
	ID         string      `json:"id"`
	UserID     int64       `json:"-"`
	Name       string      `json:"name"`
	Number     string      `json:"number"` // last four digits, display only
	Color      string      `json:"color"`
	LimitTotal money.Cents `json:"limitTotal"`
	LimitUsed  money.Cents `json:"limitUsed"`
	ClosingDay int         `json:"closingDay"`
	DueDay     int         `json:"dueDay"`
	CreatedAt  time.Time   `json:"createdAt"`
	UpdatedAt  time.Time   `json:"updatedAt"`
}

// CycleConfig returns the card's billing cycle configuration.
func (c *Card) CycleConfig() cycle.Config {
	return cycle.Config{ClosingDay: c.ClosingDay, DueDay: c.DueDay}
}

// AvailableLimit returns the credit still open for new purchases.
func (c *Card) AvailableLimit() money.Cents {
	return c.LimitTotal - c.LimitUsed
}

// CanReserve checks whether the full purchase amount fits in the available
// limit. Installment purchases reserve their whole total up front, so the
// check always runs against the complete amount.
func (c *Card) CanReserve(amount money.Cents) error {
	if amount > c.AvailableLimit() {
		return &InsufficientLimitError{Available: c.AvailableLimit(), Requested: amount}
	}
	return nil
}

// UsageRatio returns the fraction of the limit currently consumed.
func (c *Card) UsageRatio() float64 {
	if c.LimitTotal <= 0 {
		return 0
	}
	return float64(c.LimitUsed) / float64(c.LimitTotal)
}

// CrossedWarningThreshold reports whether a change in consumed limit crossed
// the warning ratio upward.
func CrossedWarningThreshold(before, after, total money.Cents) bool {
	if total <= 0 {
		return false
	}
	threshold := money.Cents(float64(total) * LimitWarningRatio)
	return before < threshold && after >= threshold
}

// CreateParams contains parameters for registering a new card.
type CreateParams struct {
	UserID     int64
	Name       string
	Number     string
	Color      string
	LimitTotal money.Cents
	ClosingDay int
	DueDay     int
}

// Validate validates the create parameters.
func (p CreateParams) Validate() error {
	if p.UserID <= 0 {
		return errors.New("valid user ID is required")
	}
	if p.Name == "" {
		return errors.New("card name is required")
	}
	if p.LimitTotal <= 0 {
		return errors.New("limit total must be positive")
	}
	cfg := cycle.Config{ClosingDay: p.ClosingDay, DueDay: p.DueDay}
	return cfg.Validate()
}
