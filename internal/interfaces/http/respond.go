package http

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"fatura/internal/domain/bill"
	"fatura/internal/domain/card"
	"fatura/internal/domain/cycle"
	"fatura/internal/domain/invoice"
	"fatura/internal/domain/notification"
	"fatura/internal/domain/subscription"
	"fatura/internal/domain/transaction"
	"fatura/internal/infrastructure/postgres"
	"fatura/internal/shared/middleware"
)

type errorResponse struct {
	Error     string `json:"error"`
	Message   string `json:"message"`
	Retryable bool   `json:"retryable,omitempty"`

	// insufficient_limit payload
	ShortfallCents *int64 `json:"shortfall_cents,omitempty"`
	AvailableCents *int64 `json:"available_cents,omitempty"`
	RequestedCents *int64 `json:"requested_cents,omitempty"`

	// not_payable payload
	Reason     string `json:"reason,omitempty"`
	ClosingDay int    `json:"closing_day,omitempty"`
	DueDay     int    `json:"due_day,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

// writeDomainError maps ledger errors onto the HTTP taxonomy: 422 for
// rejected input and limit overruns, 409 for lifecycle conflicts, 404 for
// unknown entities, 503 for transient store failures.
func writeDomainError(w http.ResponseWriter, err error) {
	var limitErr *card.InsufficientLimitError
	if errors.As(err, &limitErr) {
		shortfall := int64(limitErr.Shortfall())
		available := int64(limitErr.Available)
		requested := int64(limitErr.Requested)
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{
			Error:          "insufficient_limit",
			Message:        limitErr.Error(),
			ShortfallCents: &shortfall,
			AvailableCents: &available,
			RequestedCents: &requested,
		})
		return
	}

	var payErr *invoice.NotPayableError
	if errors.As(err, &payErr) {
		writeJSON(w, http.StatusConflict, errorResponse{
			Error:      "not_payable",
			Message:    payErr.Error(),
			Reason:     payErr.Reason,
			ClosingDay: payErr.ClosingDay,
			DueDay:     payErr.DueDay,
		})
		return
	}

	switch {
	case errors.Is(err, bill.ErrBillNotPayable):
		writeJSON(w, http.StatusConflict, errorResponse{Error: "not_payable", Message: err.Error()})
	case errors.Is(err, cycle.ErrInvalidCycleConfig),
		errors.Is(err, card.ErrInvalidInput),
		errors.Is(err, invoice.ErrInvalidInput),
		errors.Is(err, bill.ErrInvalidInput),
		errors.Is(err, subscription.ErrInvalidInput),
		errors.Is(err, transaction.ErrInvalidInput):
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: "invalid_input", Message: err.Error()})
	case errors.Is(err, card.ErrCardNotFound),
		errors.Is(err, invoice.ErrInvoiceNotFound),
		errors.Is(err, bill.ErrBillNotFound),
		errors.Is(err, subscription.ErrSubscriptionNotFound),
		errors.Is(err, notification.ErrNotificationNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "not_found", Message: err.Error()})
	case errors.Is(err, card.ErrForbidden),
		errors.Is(err, invoice.ErrForbidden),
		errors.Is(err, bill.ErrForbidden),
		errors.Is(err, subscription.ErrForbidden),
		errors.Is(err, notification.ErrForbidden):
		writeJSON(w, http.StatusForbidden, errorResponse{Error: "forbidden", Message: "access forbidden"})
	case errors.Is(err, postgres.ErrUnavailable):
		log.Printf("Store unavailable: %v", err)
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{
			Error:     "store_unavailable",
			Message:   "the ledger store is temporarily unavailable, retry shortly",
			Retryable: true,
		})
	default:
		log.Printf("Unhandled error: %v", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal", Message: "internal server error"})
	}
}

// userFrom pulls the authenticated user out of the request context.
func userFrom(w http.ResponseWriter, r *http.Request) (int64, bool) {
	userID, ok := r.Context().Value(middleware.UserIDKey).(int64)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return 0, false
	}
	return userID, true
}
