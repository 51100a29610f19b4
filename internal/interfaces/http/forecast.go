package http

import (
	"context"
	"log"
	"net/http"
	"time"

	"fatura/internal/domain/forecast"
)

// ForecastInvalidator drops cached forecasts after a write touches the
// expense history. The forecast service implements it; handlers that record
// expenses call it once the write commits.
type ForecastInvalidator interface {
	Invalidate(ctx context.Context, userID int64, month time.Time)
}

type ForecastHandler struct {
	forecasts *forecast.Service
}

func NewForecastHandler(forecasts *forecast.Service) *ForecastHandler {
	return &ForecastHandler{forecasts: forecasts}
}

// HandleForecast serves GET /api/forecast
func (h *ForecastHandler) HandleForecast(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	userID, ok := userFrom(w, r)
	if !ok {
		return
	}

	result, err := h.forecasts.Forecast(r.Context(), userID, time.Now())
	if err != nil {
		log.Printf("Error computing forecast for user %d: %v", userID, err)
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// HandleCurrentMonthSummary serves GET /api/summary/current-month
func (h *ForecastHandler) HandleCurrentMonthSummary(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	userID, ok := userFrom(w, r)
	if !ok {
		return
	}

	summary, err := h.forecasts.CurrentMonthSummary(r.Context(), userID, time.Now())
	if err != nil {
		log.Printf("Error computing current month summary for user %d: %v", userID, err)
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, summary)
}
