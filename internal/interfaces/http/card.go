package http

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"

	"fatura/internal/domain/card"
	"fatura/internal/domain/money"
)

type CardHandler struct {
	cards    *card.Service
	validate *validator.Validate
}

func NewCardHandler(cards *card.Service) *CardHandler {
	return &CardHandler{
		cards:    cards,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

type CreateCardRequest struct {
	Name            string `json:"name" validate:"required,max=100"`
	Number          string `json:"number" validate:"omitempty,max=20"`
	Color           string `json:"color" validate:"omitempty,hexcolor"`
	LimitTotalCents int64  `json:"limitTotalCents" validate:"required,gt=0"`
	ClosingDay      int    `json:"closingDay" validate:"required,min=1,max=31"`
	DueDay          int    `json:"dueDay" validate:"required,min=1,max=31"`
}

type CardResponse struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	Number          string    `json:"number"`
	Color           string    `json:"color"`
	LimitTotalCents int64     `json:"limitTotalCents"`
	LimitUsedCents  int64     `json:"limitUsedCents"`
	AvailableCents  int64     `json:"availableCents"`
	ClosingDay      int       `json:"closingDay"`
	DueDay          int       `json:"dueDay"`
	CreatedAt       time.Time `json:"createdAt"`
}

func toCardResponse(c *card.Card) CardResponse {
	return CardResponse{
		ID:              c.ID,
		Name:            c.Name,
		Number:          c.Number,
		Color:           c.Color,
		LimitTotalCents: int64(c.LimitTotal),
		LimitUsedCents:  int64(c.LimitUsed),
		AvailableCents:  int64(c.AvailableLimit()),
		ClosingDay:      c.ClosingDay,
		DueDay:          c.DueDay,
		CreatedAt:       c.CreatedAt,
	}
}

// HandleCards routes requests to the appropriate handler based on method
func (h *CardHandler) HandleCards(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.handleListCards(w, r)
	case http.MethodPost:
		h.handleCreateCard(w, r)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *CardHandler) handleListCards(w http.ResponseWriter, r *http.Request) {
	userID, ok := userFrom(w, r)
	if !ok {
		return
	}

	cards, err := h.cards.ListCards(r.Context(), userID)
	if err != nil {
		log.Printf("Error listing cards for user %d: %v", userID, err)
		writeDomainError(w, err)
		return
	}

	response := make([]CardResponse, 0, len(cards))
	for _, c := range cards {
		response = append(response, toCardResponse(c))
	}
	writeJSON(w, http.StatusOK, response)
}

func (h *CardHandler) handleCreateCard(w http.ResponseWriter, r *http.Request) {
	userID, ok := userFrom(w, r)
	if !ok {
		return
	}

	var req CreateCardRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Printf("Error decoding create card request: %v", err)
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if err := h.validate.Struct(req); err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: "invalid_input", Message: err.Error()})
		return
	}

	c, err := h.cards.CreateCard(r.Context(), card.CreateParams{
		UserID:     userID,
		Name:       req.Name,
		Number:     req.Number,
		Color:      req.Color,
		LimitTotal: money.Cents(req.LimitTotalCents),
		ClosingDay: req.ClosingDay,
		DueDay:     req.DueDay,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toCardResponse(c))
}

// HandleDeleteCard removes a card and everything it owns
func (h *CardHandler) HandleDeleteCard(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
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

	if err := h.cards.DeleteCard(r.Context(), cardID, userID); err != nil {
		writeDomainError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
