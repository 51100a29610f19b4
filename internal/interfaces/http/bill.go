package http

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"

	"fatura/internal/domain/bill"
	"fatura/internal/domain/money"
)

type BillHandler struct {
	bills     *bill.Service
	forecasts ForecastInvalidator
	validate  *validator.Validate
}

func NewBillHandler(bills *bill.Service, forecasts ForecastInvalidator) *BillHandler {
	return &BillHandler{
		bills:     bills,
		forecasts: forecasts,
		validate:  validator.New(validator.WithRequiredStructEnabled()),
	}
}

type CreateBillRequest struct {
	Name               string  `json:"name" validate:"required,max=255"`
	AmountCents        int64   `json:"amountCents" validate:"min=0"`
	DueDate            string  `json:"dueDate" validate:"required,datetime=2006-01-02"`
	Type               string  `json:"type" validate:"required,oneof=fixed installment"`
	AutoRenew          bool    `json:"autoRenew"`
	IsFixedAmount      bool    `json:"isFixedAmount"`
	TotalInstallments  int     `json:"totalInstallments" validate:"omitempty,min=1,max=360"`
	CurrentInstallment int     `json:"currentInstallment" validate:"omitempty,min=1"`
	Category           *string `json:"category" validate:"omitempty,max=100"`
	Notes              *string `json:"notes" validate:"omitempty,max=1000"`
}

type PayBillRequest struct {
	PaidAt string `json:"paidAt" validate:"omitempty,datetime=2006-01-02"`
}

type BillResponse struct {
	ID                 string     `json:"id"`
	Name               string     `json:"name"`
	AmountCents        int64      `json:"amountCents"`
	DueDate            string     `json:"dueDate"`
	Type               string     `json:"type"`
	Status             string     `json:"status"`
	AutoRenew          bool       `json:"autoRenew"`
	IsFixedAmount      bool       `json:"isFixedAmount"`
	TotalInstallments  int        `json:"totalInstallments,omitempty"`
	CurrentInstallment int        `json:"currentInstallment,omitempty"`
	Category           *string    `json:"category,omitempty"`
	Notes              *string    `json:"notes,omitempty"`
	RenewedFrom        *string    `json:"renewedFrom,omitempty"`
	PaidAt             *time.Time `json:"paidAt,omitempty"`
	CreatedAt          time.Time  `json:"createdAt"`
}

type SettleBillResponse struct {
	Bill      BillResponse  `json:"bill"`
	Successor *BillResponse `json:"successor,omitempty"`
}

func toBillResponse(b *bill.Bill) BillResponse {
	return BillResponse{
		ID:                 b.ID,
		Name:               b.Name,
		AmountCents:        int64(b.Amount),
		DueDate:            b.DueDate.Format("2006-01-02"),
		Type:               b.Type,
		Status:             b.Status,
		AutoRenew:          b.AutoRenew,
		IsFixedAmount:      b.IsFixedAmount,
		TotalInstallments:  b.TotalInstallments,
		CurrentInstallment: b.CurrentInstallment,
		Category:           b.Category,
		Notes:              b.Notes,
		RenewedFrom:        b.RenewedFrom,
		PaidAt:             b.PaidAt,
		CreatedAt:          b.CreatedAt,
	}
}

// HandleBills routes requests to the appropriate handler based on method
func (h *BillHandler) HandleBills(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.handleListBills(w, r)
	case http.MethodPost:
		h.handleCreateBill(w, r)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *BillHandler) handleListBills(w http.ResponseWriter, r *http.Request) {
	userID, ok := userFrom(w, r)
	if !ok {
		return
	}

	bills, err := h.bills.ListBills(r.Context(), userID)
	if err != nil {
		log.Printf("Error listing bills for user %d: %v", userID, err)
		writeDomainError(w, err)
		return
	}

	response := make([]BillResponse, 0, len(bills))
	for _, b := range bills {
		response = append(response, toBillResponse(b))
	}
	writeJSON(w, http.StatusOK, response)
}

func (h *BillHandler) handleCreateBill(w http.ResponseWriter, r *http.Request) {
	userID, ok := userFrom(w, r)
	if !ok {
		return
	}

	var req CreateBillRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Printf("Error decoding create bill request: %v", err)
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if err := h.validate.Struct(req); err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: "invalid_input", Message: err.Error()})
		return
	}

	dueDate, err := time.Parse("2006-01-02", req.DueDate)
	if err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: "invalid_input", Message: "dueDate must be YYYY-MM-DD"})
		return
	}

	b, err := h.bills.CreateBill(r.Context(), bill.CreateParams{
		UserID:             userID,
		Name:               req.Name,
		Amount:             money.Cents(req.AmountCents),
		DueDate:            dueDate,
		Type:               req.Type,
		AutoRenew:          req.AutoRenew,
		IsFixedAmount:      req.IsFixedAmount,
		TotalInstallments:  req.TotalInstallments,
		CurrentInstallment: req.CurrentInstallment,
		Category:           req.Category,
		Notes:              req.Notes,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toBillResponse(b))
}

// HandleBillByID handles DELETE /api/bills/{id}
func (h *BillHandler) HandleBillByID(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	userID, ok := userFrom(w, r)
	if !ok {
		return
	}

	billID := r.PathValue("id")
	if billID == "" {
		http.Error(w, "Bill ID is required", http.StatusBadRequest)
		return
	}

	if err := h.bills.DeleteBill(r.Context(), billID, userID); err != nil {
		writeDomainError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// HandlePayBill settles a bill, records the matching expense and, for
// auto-renewing bills, returns the freshly created successor.
func (h *BillHandler) HandlePayBill(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	userID, ok := userFrom(w, r)
	if !ok {
		return
	}

	billID := r.PathValue("id")
	if billID == "" {
		http.Error(w, "Bill ID is required", http.StatusBadRequest)
		return
	}

	paidAt := time.Now()
	if r.Body != nil && r.ContentLength != 0 {
		var req PayBillRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}
		if req.PaidAt != "" {
			parsed, err := time.Parse("2006-01-02", req.PaidAt)
			if err != nil {
				writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: "invalid_input", Message: "paidAt must be YYYY-MM-DD"})
				return
			}
			paidAt = parsed
		}
	}

	result, err := h.bills.SettleBill(r.Context(), billID, userID, paidAt)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	// Settlement recorded an expense, so the cached forecast is stale.
	if h.forecasts != nil {
		h.forecasts.Invalidate(r.Context(), userID, time.Now())
	}

	response := SettleBillResponse{Bill: toBillResponse(result.Bill)}
	if result.Successor != nil {
		successor := toBillResponse(result.Successor)
		response.Successor = &successor
	}
	writeJSON(w, http.StatusOK, response)
}
