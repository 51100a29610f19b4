package http

import (
	"log"
	"net/http"
	"strconv"
	"time"

	"fatura/internal/domain/notification"
)

type NotificationHandler struct {
	notifications *notification.Service
}

func NewNotificationHandler(notifications *notification.Service) *NotificationHandler {
	return &NotificationHandler{notifications: notifications}
}

type NotificationResponse struct {
	ID        string            `json:"id"`
	Type      string            `json:"type"`
	Title     string            `json:"title"`
	Message   string            `json:"message"`
	Data      map[string]string `json:"data"`
	Read      bool              `json:"read"`
	CreatedAt time.Time         `json:"createdAt"`
}

type NotificationListResponse struct {
	Notifications []NotificationResponse `json:"notifications"`
	Pagination    PaginationResponse     `json:"pagination"`
}

type PaginationResponse struct {
	Page    int `json:"page"`
	PerPage int `json:"per_page"`
	Total   int `json:"total"`
	Pages   int `json:"pages"`
}

// HandleNotifications handles GET /api/notifications (list, newest first)
func (h *NotificationHandler) HandleNotifications(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	userID, ok := userFrom(w, r)
	if !ok {
		return
	}

	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	perPage, _ := strconv.Atoi(r.URL.Query().Get("per_page"))

	notifications, total, err := h.notifications.ListNotifications(r.Context(), userID, page, perPage)
	if err != nil {
		log.Printf("Error listing notifications for user %d: %v", userID, err)
		writeDomainError(w, err)
		return
	}

	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 20
	}

	items := make([]NotificationResponse, 0, len(notifications))
	for _, n := range notifications {
		items = append(items, toNotificationResponse(n))
	}

	pages := 0
	if total > 0 {
		pages = (total + perPage - 1) / perPage
	}

	writeJSON(w, http.StatusOK, NotificationListResponse{
		Notifications: items,
		Pagination: PaginationResponse{
			Page:    page,
			PerPage: perPage,
			Total:   total,
			Pages:   pages,
		},
	})
}

// HandleMarkRead handles POST /api/notifications/{id}/read
func (h *NotificationHandler) HandleMarkRead(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	userID, ok := userFrom(w, r)
	if !ok {
		return
	}

	notificationID := r.PathValue("id")
	if notificationID == "" {
		http.Error(w, "Notification ID is required", http.StatusBadRequest)
		return
	}

	if err := h.notifications.MarkNotificationRead(r.Context(), notificationID, userID); err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// HandleNotificationByID handles DELETE /api/notifications/{id}
func (h *NotificationHandler) HandleNotificationByID(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	userID, ok := userFrom(w, r)
	if !ok {
		return
	}

	notificationID := r.PathValue("id")
	if notificationID == "" {
		http.Error(w, "Notification ID is required", http.StatusBadRequest)
		return
	}

	if err := h.notifications.DeleteNotification(r.Context(), notificationID, userID); err != nil {
		writeDomainError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func toNotificationResponse(n *notification.Notification) NotificationResponse {
	data := n.Data
	if data == nil {
		data = make(map[string]string)
	}
	return NotificationResponse{
		ID:        n.ID,
		Type:      n.Type,
		Title:     n.Title,
		Message:   n.Message,
		Data:      data,
		Read:      n.Read,
		CreatedAt: n.CreatedAt,
	}
}
