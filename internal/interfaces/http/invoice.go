package http

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"time"

	"fatura/internal/domain/cycle"
	"fatura/internal/domain/invoice"
)

type InvoiceHandler struct {
	invoices *invoice.Service
}

func NewInvoiceHandler(invoices *invoice.Service) *InvoiceHandler {
	return &InvoiceHandler{invoices: invoices}
}

type PayInvoiceRequest struct {
	AsOf string `json:"asOf,omitempty"`
}

type InvoiceResponse struct {
	ID     string     `json:"id"`
	CardID string     `json:"cardId"`
	Month  int        `json:"month"`
	Year   int        `json:"year"`
	Total  int64      `json:"totalCents"`
	Status string     `json:"status"`
	PaidAt *time.Time `json:"paidAt,omitempty"`
}

type InstallmentResponse struct {
	ID          string `json:"id"`
	PurchaseID  string `json:"purchaseId"`
	Description string `json:"description"`
	Amount      int64  `json:"amountCents"`
	Number      int    `json:"number"`
	TotalCount  int    `json:"totalCount"`
	Status      string `json:"status"`
}

type InvoiceDetailResponse struct {
	InvoiceResponse
	Installments []InstallmentResponse `json:"installments"`
}

func toInvoiceResponse(inv *invoice.Invoice) InvoiceResponse {
	return InvoiceResponse{
		ID:     inv.ID,
		CardID: inv.CardID,
		Month:  inv.Month,
		Year:   inv.Year,
		Total:  int64(inv.Total),
		Status: inv.Status,
		PaidAt: inv.PaidAt,
	}
}

func toInstallmentResponse(ins *invoice.Installment) InstallmentResponse {
	return InstallmentResponse{
		ID:          ins.ID,
		PurchaseID:  ins.PurchaseID,
		Description: ins.Description,
		Amount:      int64(ins.Amount),
		Number:      ins.Number,
		TotalCount:  ins.TotalCount,
		Status:      ins.Status,
	}
}

// HandlePayInvoice settles an invoice inside its payment window
func (h *InvoiceHandler) HandlePayInvoice(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	userID, ok := userFrom(w, r)
	if !ok {
		return
	}

	invoiceID := r.PathValue("id")
	if invoiceID == "" {
		http.Error(w, "Invoice ID is required", http.StatusBadRequest)
		return
	}

	asOf := time.Now()
	if r.Body != nil && r.ContentLength != 0 {
		var req PayInvoiceRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			log.Printf("Error decoding pay invoice request: %v", err)
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}
		if req.AsOf != "" {
			parsed, err := time.Parse("2006-01-02", req.AsOf)
			if err != nil {
				writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: "invalid_input", Message: "invalid asOf date"})
				return
			}
			asOf = parsed
		}
	}

	paid, err := h.invoices.SettleInvoice(r.Context(), invoiceID, userID, asOf)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toInvoiceResponse(paid))
}

// HandleCardInvoices lists a card's invoices, or returns one cycle with its
// installments when month and year are given
func (h *InvoiceHandler) HandleCardInvoices(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	userID, ok := userFrom(w, r)
	if !ok {
		return
	}

	cardID := r.PathValue("id")
	if cardID == "" {
		http.Error(w, "Card ID is required", http.StatusBadRequest)
		return
	}

	monthStr := r.URL.Query().Get("month")
	yearStr := r.URL.Query().Get("year")
	if monthStr != "" || yearStr != "" {
		month, err := strconv.Atoi(monthStr)
		if err != nil || month < 1 || month > 12 {
			writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: "invalid_input", Message: "month must be between 1 and 12"})
			return
		}
		year, err := strconv.Atoi(yearStr)
		if err != nil || year < 1 {
			writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: "invalid_input", Message: "invalid year"})
			return
		}

		inv, installments, err := h.invoices.GetCardInvoice(r.Context(), cardID, userID, cycle.Key{Month: month, Year: year})
		if err != nil {
			writeDomainError(w, err)
			return
		}

		detail := InvoiceDetailResponse{
			InvoiceResponse: toInvoiceResponse(inv),
			Installments:    make([]InstallmentResponse, 0, len(installments)),
		}
		for _, ins := range installments {
			detail.Installments = append(detail.Installments, toInstallmentResponse(ins))
		}
		writeJSON(w, http.StatusOK, detail)
		return
	}

	invoices, err := h.invoices.ListCardInvoices(r.Context(), cardID, userID)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	response := make([]InvoiceResponse, 0, len(invoices))
	for _, inv := range invoices {
		response = append(response, toInvoiceResponse(inv))
	}
	writeJSON(w, http.StatusOK, response)
}
