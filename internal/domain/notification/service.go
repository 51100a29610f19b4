package notification

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"fatura/internal/domain/bill"
	"fatura/internal/domain/card"
	"fatura/internal/domain/invoice"
)

// Service stores notifications for the in-app feed and fans the same
// events out to the message broker. It satisfies the Notifier interfaces
// of the invoice and bill services.
type Service struct {
	repo      Repository
	publisher Publisher
}

// NewService creates a new notification service
func NewService(repo Repository, publisher Publisher) *Service {
	return &Service{repo: repo, publisher: publisher}
}

// notify stores the record and publishes the matching event. Broker
// failures are logged, never propagated: a down broker must not fail a
// payment.
func (s *Service) notify(ctx context.Context, params CreateParams) {
	if err := params.Validate(); err != nil {
		log.Printf("Dropping invalid notification for user %d: %v", params.UserID, err)
		return
	}

	if _, err := s.repo.Create(ctx, params); err != nil {
		log.Printf("Error storing notification for user %d: %v", params.UserID, err)
	}

	if s.publisher == nil {
		return
	}
	event := Event{
		Type:       params.Type,
		UserID:     params.UserID,
		Title:      params.Title,
		Message:    params.Message,
		Data:       params.Data,
		OccurredAt: time.Now().UTC(),
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		log.Printf("Error publishing %s event for user %d: %v", params.Type, params.UserID, err)
	}
}

// InvoicePaid records that a card invoice was settled.
func (s *Service) InvoicePaid(ctx context.Context, c *card.Card, inv *invoice.Invoice) {
	s.notify(ctx, CreateParams{
		UserID:  c.UserID,
		Type:    TypeInvoicePaid,
		Title:   "Fatura paga",
		Message: fmt.Sprintf("A fatura %02d/%d do cartão %s foi paga (%s).", inv.Month, inv.Year, c.Name, inv.Total),
		Data:    map[string]string{"card_id": c.ID, "invoice_id": inv.ID},
	})
}

// LimitWarning records that a card crossed the usage threshold.
func (s *Service) LimitWarning(ctx context.Context, c *card.Card) {
	s.notify(ctx, CreateParams{
		UserID:  c.UserID,
		Type:    TypeLimitWarning,
		Title:   "Limite quase no fim",
		Message: fmt.Sprintf("O cartão %s atingiu %.0f%% do limite (%s disponíveis).", c.Name, c.UsageRatio()*100, c.AvailableLimit()),
		Data:    map[string]string{"card_id": c.ID},
	})
}

// BillPaid records that a bill was settled, noting whether a successor
// was created.
func (s *Service) BillPaid(ctx context.Context, b *bill.Bill, renewed bool) {
	message := fmt.Sprintf("%s foi paga (%s).", b.Name, b.Amount)
	if renewed {
		message = fmt.Sprintf("%s foi paga (%s). A cobrança do próximo mês já foi criada.", b.Name, b.Amount)
	}
	s.notify(ctx, CreateParams{
		UserID:  b.UserID,
		Type:    TypeBillPaid,
		Title:   "Conta paga",
		Message: message,
		Data:    map[string]string{"bill_id": b.ID},
	})
}

// notifyOncePerDay stores the notification unless one of the same type was
// already created today.
func (s *Service) notifyOncePerDay(ctx context.Context, params CreateParams, now time.Time) error {
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	exists, err := s.repo.ExistsSince(ctx, params.UserID, params.Type, midnight)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}
	s.notify(ctx, params)
	return nil
}

// InvoiceClosing reminds the user that a card's invoice closes today.
func (s *Service) InvoiceClosing(ctx context.Context, c *card.Card, now time.Time) error {
	return s.notifyOncePerDay(ctx, CreateParams{
		UserID:  c.UserID,
		Type:    TypeInvoiceClosing,
		Title:   "Fatura fecha hoje",
		Message: fmt.Sprintf("A fatura do cartão %s fecha hoje. Compras a partir de amanhã entram na próxima fatura.", c.Name),
		Data:    map[string]string{"card_id": c.ID},
	}, now)
}

// PaymentReminder reminds the user that a pending invoice is inside its
// payment window.
func (s *Service) PaymentReminder(ctx context.Context, c *card.Card, inv *invoice.Invoice, now time.Time) error {
	return s.notifyOncePerDay(ctx, CreateParams{
		UserID:  c.UserID,
		Type:    TypePaymentReminder,
		Title:   "Fatura vence em breve",
		Message: fmt.Sprintf("A fatura do cartão %s vence dia %d (%s).", c.Name, c.DueDay, inv.Total),
		Data:    map[string]string{"card_id": c.ID, "invoice_id": inv.ID},
	}, now)
}

// BillDueSoon reminds the user of a bill due within the next days.
func (s *Service) BillDueSoon(ctx context.Context, b *bill.Bill, now time.Time) error {
	return s.notifyOncePerDay(ctx, CreateParams{
		UserID:  b.UserID,
		Type:    TypeBillDueSoon,
		Title:   "Conta a vencer",
		Message: fmt.Sprintf("%s vence em %s (%s).", b.Name, b.DueDate.Format("02/01"), b.Amount),
		Data:    map[string]string{"bill_id": b.ID},
	}, now)
}

// ListNotifications returns paginated notifications for a user
func (s *Service) ListNotifications(ctx context.Context, userID int64, page, perPage int) ([]*Notification, int, error) {
	if userID <= 0 {
		return nil, 0, errors.New("valid user ID is required")
	}
	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 100 {
		perPage = 20
	}

	return s.repo.ListByUserID(ctx, userID, page, perPage)
}

// MarkNotificationRead marks a notification as read by the authenticated user
func (s *Service) MarkNotificationRead(ctx context.Context, notificationID string, userID int64) error {
	if notificationID == "" {
		return ErrNotificationNotFound
	}
	if userID <= 0 {
		return errors.New("valid user ID is required")
	}

	return s.repo.MarkRead(ctx, notificationID, userID)
}

// DeleteNotification removes a notification from the user's feed
func (s *Service) DeleteNotification(ctx context.Context, notificationID string, userID int64) error {
	if notificationID == "" {
		return ErrNotificationNotFound
	}
	if userID <= 0 {
		return errors.New("valid user ID is required")
	}

	return s.repo.Delete(ctx, notificationID, userID)
}
