package http

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"

	"fatura/internal/domain/invoice"
	"fatura/internal/domain/money"
)

type PurchaseHandler struct {
	invoices  *invoice.Service
	forecasts ForecastInvalidator
	validate  *validator.Validate
}

func NewPurchaseHandler(invoices *invoice.Service, forecasts ForecastInvalidator) *PurchaseHandler {
	return &PurchaseHandler{
		invoices:  invoices,
		forecasts: forecasts,
		validate:  validator.New(validator.WithRequiredStructEnabled()),
	}
}

type RecordPurchaseRequest struct {
	CardID       string `json:"cardId" validate:"required,uuid4"`
	Description  string `json:"description" validate:"required,max=255"`
	AmountCents  int64  `json:"amountCents" validate:"required,gt=0"`
	Installments int    `json:"installments" validate:"required,min=1,max=48"`
	Date         string `json:"date" validate:"required,datetime=2006-01-02"`
}

type RecordPurchaseResponse struct {
	Invoices []InvoiceResponse `json:"invoices"`
}

// HandlePurchases records a purchase, splitting it across invoices
func (h *PurchaseHandler) HandlePurchases(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	userID, ok := userFrom(w, r)
	if !ok {
		return
	}

	var req RecordPurchaseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Printf("Error decoding purchase request: %v", err)
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if err := h.validate.Struct(req); err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: "invalid_input", Message: err.Error()})
		return
	}

	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: "invalid_input", Message: "invalid date"})
		return
	}

	invoices, err := h.invoices.RecordPurchase(r.Context(), invoice.RecordPurchaseParams{
		UserID:       userID,
		CardID:       req.CardID,
		Description:  req.Description,
		Amount:       money.Cents(req.AmountCents),
		Installments: req.Installments,
		Date:         date,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	if h.forecasts != nil {
		h.forecasts.Invalidate(r.Context(), userID, time.Now())
	}

	response := RecordPurchaseResponse{Invoices: make([]InvoiceResponse, 0, len(invoices))}
	for _, inv := range invoices {
		response.Invoices = append(response.Invoices, toInvoiceResponse(inv))
	}
	writeJSON(w, http.StatusCreated, response)
}
