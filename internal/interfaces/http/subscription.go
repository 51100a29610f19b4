package http

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"

	"fatura/internal/domain/money"
	"fatura/internal/domain/subscription"
)

type SubscriptionHandler struct {
	subscriptions *subscription.Service
	validate      *validator.Validate
}

func NewSubscriptionHandler(subscriptions *subscription.Service) *SubscriptionHandler {
	return &SubscriptionHandler{
		subscriptions: subscriptions,
		validate:      validator.New(validator.WithRequiredStructEnabled()),
	}
}

type CreateSubscriptionRequest struct {
	CardID      string  `json:"cardId" validate:"required,uuid4"`
	Name        string  `json:"name" validate:"required,max=100"`
	AmountCents int64   `json:"amountCents" validate:"required,gt=0"`
	BillingDay  int     `json:"billingDay" validate:"required,min=1,max=31"`
	Category    *string `json:"category" validate:"omitempty,max=100"`
}

type SetSubscriptionStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=active inactive"`
}

type SubscriptionResponse struct {
	ID          string    `json:"id"`
	CardID      string    `json:"cardId"`
	Name        string    `json:"name"`
	AmountCents int64     `json:"amountCents"`
	BillingDay  int       `json:"billingDay"`
	Category    *string   `json:"category,omitempty"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"createdAt"`
}

func toSubscriptionResponse(s *subscription.Subscription) SubscriptionResponse {
	return SubscriptionResponse{
		ID:          s.ID,
		CardID:      s.CardID,
		Name:        s.Name,
		AmountCents: int64(s.Amount),
		BillingDay:  s.BillingDay,
		Category:    s.Category,
		Status:      s.Status,
		CreatedAt:   s.CreatedAt,
	}
}

// HandleSubscriptions routes requests to the appropriate handler based on method
func (h *SubscriptionHandler) HandleSubscriptions(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.handleListSubscriptions(w, r)
	case http.MethodPost:
		h.handleCreateSubscription(w, r)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *SubscriptionHandler) handleListSubscriptions(w http.ResponseWriter, r *http.Request) {
	userID, ok := userFrom(w, r)
	if !ok {
		return
	}

	subs, err := h.subscriptions.ListSubscriptions(r.Context(), userID)
	if err != nil {
		log.Printf("Error listing subscriptions for user %d: %v", userID, err)
		writeDomainError(w, err)
		return
	}

	response := make([]SubscriptionResponse, 0, len(subs))
	for _, s := range subs {
		response = append(response, toSubscriptionResponse(s))
	}
	writeJSON(w, http.StatusOK, response)
}

func (h *SubscriptionHandler) handleCreateSubscription(w http.ResponseWriter, r *http.Request) {
	userID, ok := userFrom(w, r)
	if !ok {
		return
	}

	var req CreateSubscriptionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Printf("Error decoding create subscription request: %v", err)
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if err := h.validate.Struct(req); err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: "invalid_input", Message: err.Error()})
		return
	}

	sub, err := h.subscriptions.CreateSubscription(r.Context(), subscription.CreateParams{
		UserID:     userID,
		CardID:     req.CardID,
		Name:       req.Name,
		Amount:     money.Cents(req.AmountCents),
		BillingDay: req.BillingDay,
		Category:   req.Category,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toSubscriptionResponse(sub))
}

// HandleDeleteSubscription serves DELETE /api/subscriptions/{id}
func (h *SubscriptionHandler) HandleDeleteSubscription(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	userID, ok := userFrom(w, r)
	if !ok {
		return
	}

	subscriptionID := r.PathValue("id")
	if subscriptionID == "" {
		http.Error(w, "Subscription ID is required", http.StatusBadRequest)
		return
	}

	if err := h.subscriptions.DeleteSubscription(r.Context(), subscriptionID, userID); err != nil {
		writeDomainError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// HandleSubscriptionStatus serves POST /api/subscriptions/{id}/status,
// pausing or resuming the monthly charge.
func (h *SubscriptionHandler) HandleSubscriptionStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	userID, ok := userFrom(w, r)
	if !ok {
		return
	}

	subscriptionID := r.PathValue("id")
	if subscriptionID == "" {
		http.Error(w, "Subscription ID is required", http.StatusBadRequest)
		return
	}

	var req SetSubscriptionStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: "invalid_input", Message: err.Error()})
		return
	}

	sub, err := h.subscriptions.SetStatus(r.Context(), subscriptionID, userID, req.Status)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toSubscriptionResponse(sub))
}
