// Package cycle maps purchase dates onto card billing cycles.
//
// A cycle is identified by the (month, year) of the invoice that collects it.
// Purchases made on or after the card's closing day roll to the next month's
// invoice; the resolver is a pure function so installment assignment is
// reproducible.
package cycle

import (
	"errors"
	"fmt"
	"time"
)

var ErrInvalidCycleConfig = errors.New("closing and due day must be between 1 and 31")

// Config holds a card's cycle configuration.
type Config struct {
	ClosingDay int
	DueDay     int
}

// Validate checks that both days are valid days of month.
func (c Config) Validate() error {
	if c.ClosingDay < 1 || c.ClosingDay > 31 {
		return ErrInvalidCycleConfig
	}
	if c.DueDay < 1 || c.DueDay > 31 {
		return ErrInvalidCycleConfig
	}
	return nil
}

// WindowKind classifies the payable window between closing and due day.
type WindowKind int

const (
	// WindowSameMonth: closing day <= due day, the window is contained in
	// one calendar month. Equal days yield a one-day window.
	WindowSameMonth WindowKind = iota
	// WindowWrapAround: closing day > due day, the window crosses the month
	// boundary (e.g. closes on the 25th, due on the 10th).
	WindowWrapAround
)

// Window returns the window classification for this configuration.
func (c Config) Window() WindowKind {
	if c.ClosingDay <= c.DueDay {
		return WindowSameMonth
	}
	return WindowWrapAround
}

// PayableOn reports whether the given day of month falls inside the payable
// window.
func (c Config) PayableOn(day int) bool {
	switch c.Window() {
	case WindowSameMonth:
		return day >= c.ClosingDay && day <= c.DueDay
	default:
		return day >= c.ClosingDay || day <= c.DueDay
	}
}

// Key identifies one billing cycle of a card.
type Key struct {
	Month int `json:"month"`
	Year  int `json:"year"`
}

// KeyOf returns the calendar cycle containing t.
func KeyOf(t time.Time) Key {
	return Key{Month: int(t.Month()), Year: t.Year()}
}

// Resolve maps a purchase date onto the invoice cycle it belongs to.
// Purchases before the closing day stay in the purchase's own month;
// purchases on or after it roll to the following month, with the year
// rolling forward at December.
func Resolve(purchaseDate time.Time, cfg Config) (Key, error) {
	if err := cfg.Validate(); err != nil {
		return Key{}, err
	}

	key := KeyOf(purchaseDate)
	if purchaseDate.Day() < cfg.ClosingDay {
		return key, nil
	}
	return key.Next(), nil
}

// Next returns the cycle one month after k.
func (k Key) Next() Key {
	return k.AddMonths(1)
}

// AddMonths returns the cycle n months after k, rolling years as needed.
// Months are rolled arithmetically rather than through time.AddDate so that
// day-of-month normalization can never shift the result.
func (k Key) AddMonths(n int) Key {
	m := k.Month - 1 + n
	return Key{
		Month: m%12 + 1,
		Year:  k.Year + m/12,
	}
}

// Equal reports whether two keys identify the same cycle.
func (k Key) Equal(other Key) bool {
	return k.Month == other.Month && k.Year == other.Year
}

// Before reports whether k is an earlier cycle than other.
func (k Key) Before(other Key) bool {
	if k.Year != other.Year {
		return k.Year < other.Year
	}
	return k.Month < other.Month
}

func (k Key) String() string {
	return fmt.Sprintf("%02d/%d", k.Month, k.Year)
}
