package http

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"

	"fatura/internal/domain/money"
	"fatura/internal/domain/transaction"
)

type TransactionHandler struct {
	transactions transaction.Repository
	forecasts    ForecastInvalidator
	validate     *validator.Validate
}

func NewTransactionHandler(transactions transaction.Repository, forecasts ForecastInvalidator) *TransactionHandler {
	return &TransactionHandler{
		transactions: transactions,
		forecasts:    forecasts,
		validate:     validator.New(validator.WithRequiredStructEnabled()),
	}
}

// CreateTransactionRequest accepts the amount either as integer cents or as
// a decimal string ("12.34" or "12,34"), exactly one of the two.
type CreateTransactionRequest struct {
	Description string  `json:"description" validate:"required,max=255"`
	AmountCents int64   `json:"amountCents" validate:"omitempty,gt=0"`
	Amount      string  `json:"amount" validate:"omitempty,max=32"`
	Type        string  `json:"type" validate:"required,oneof=expense income"`
	Category    *string `json:"category" validate:"omitempty,max=100"`
	Date        string  `json:"date" validate:"required,datetime=2006-01-02"`
}

type TransactionResponse struct {
	ID          string    `json:"id"`
	Description string    `json:"description"`
	AmountCents int64     `json:"amountCents"`
	Type        string    `json:"type"`
	Category    *string   `json:"category,omitempty"`
	CardID      *string   `json:"cardId,omitempty"`
	Date        string    `json:"date"`
	CreatedAt   time.Time `json:"createdAt"`
}

func toTransactionResponse(t *transaction.Transaction) TransactionResponse {
	return TransactionResponse{
		ID:          t.ID,
		Description: t.Description,
		AmountCents: int64(t.Amount),
		Type:        t.Type,
		Category:    t.Category,
		CardID:      t.CardID,
		Date:        t.Date.Format("2006-01-02"),
		CreatedAt:   t.CreatedAt,
	}
}

// HandleTransactions routes requests to the appropriate handler based on method
func (h *TransactionHandler) HandleTransactions(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.handleListTransactions(w, r)
	case http.MethodPost:
		h.handleCreateTransaction(w, r)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *TransactionHandler) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	userID, ok := userFrom(w, r)
	if !ok {
		return
	}

	limit := 50
	offset := 0
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if parsed, err := strconv.Atoi(limitStr); err == nil && parsed > 0 && parsed <= 500 {
			limit = parsed
		}
	}
	if offsetStr := r.URL.Query().Get("offset"); offsetStr != "" {
		if parsed, err := strconv.Atoi(offsetStr); err == nil && parsed >= 0 {
			offset = parsed
		}
	}

	transactions, err := h.transactions.ListByUserID(r.Context(), userID, limit, offset)
	if err != nil {
		log.Printf("Error listing transactions for user %d: %v", userID, err)
		writeDomainError(w, err)
		return
	}

	response := make([]TransactionResponse, 0, len(transactions))
	for _, t := range transactions {
		response = append(response, toTransactionResponse(t))
	}
	writeJSON(w, http.StatusOK, response)
}

// handleCreateTransaction records a manual ledger entry. Card purchases and
// bill settlements write their own transactions, this is for everything else.
func (h *TransactionHandler) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	userID, ok := userFrom(w, r)
	if !ok {
		return
	}

	var req CreateTransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Printf("Error decoding create transaction request: %v", err)
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if err := h.validate.Struct(req); err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: "invalid_input", Message: err.Error()})
		return
	}

	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: "invalid_input", Message: "date must be YYYY-MM-DD"})
		return
	}

	amount := money.Cents(req.AmountCents)
	switch {
	case req.AmountCents > 0 && req.Amount != "":
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: "invalid_input", Message: "provide amountCents or amount, not both"})
		return
	case req.Amount != "":
		amount, err = money.ParseDecimal(req.Amount)
		if err != nil {
			writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: "invalid_input", Message: "amount must be a positive decimal"})
			return
		}
	case req.AmountCents <= 0:
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: "invalid_input", Message: "amountCents or amount is required"})
		return
	}

	params := transaction.CreateParams{
		UserID:      userID,
		Description: req.Description,
		Amount:      amount,
		Type:        req.Type,
		Category:    req.Category,
		Date:        date,
	}
	if err := params.Validate(); err != nil {
		writeDomainError(w, err)
		return
	}

	t, err := h.transactions.Create(r.Context(), params)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	if h.forecasts != nil {
		h.forecasts.Invalidate(r.Context(), userID, time.Now())
	}

	writeJSON(w, http.StatusCreated, toTransactionResponse(t))
}
