package postgres

import (
	"errors"

	"github.com/lib/pq"
)

// ErrUnavailable marks a store failure the caller may retry: lost
// connections, serialization aborts, lock-wait deaths. Permanent errors
// (constraint violations, bad input) are never wrapped in it.
var ErrUnavailable = errors.New("store temporarily unavailable")

// classify maps transient postgres failures onto ErrUnavailable so the
// HTTP layer can answer 503 instead of 500.
func classify(err error) error {
	if err == nil {
		return nil
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch {
		case pqErr.Code.Class() == "08": // connection exceptions
			return errors.Join(ErrUnavailable, err)
		case pqErr.Code == "40001" || pqErr.Code == "40P01": // serialization failure, deadlock
			return errors.Join(ErrUnavailable, err)
		case pqErr.Code == "57P01": // admin shutdown
			return errors.Join(ErrUnavailable, err)
		}
	}
	return err
}
