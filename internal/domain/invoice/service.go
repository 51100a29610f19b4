package invoice

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/google/uuid"

	"fatura/internal/domain/card"
	"fatura/internal/domain/cycle"
)

// Notifier emits ledger events after committed state changes. Delivery is
// best-effort; failures are logged and never roll back the ledger.
type Notifier interface {
	InvoicePaid(ctx context.Context, c *card.Card, inv *Invoice)
	LimitWarning(ctx context.Context, c *card.Card)
}

// Service owns the invoice lifecycle: recording purchases against cycles and
// settling invoices inside their payable window.
type Service struct {
	repo     Repository
	cardRepo card.Repository
	notifier Notifier
}

// NewService creates a new invoice service. notifier may be nil.
func NewService(repo Repository, cardRepo card.Repository, notifier Notifier) *Service {
	return &Service{repo: repo, cardRepo: cardRepo, notifier: notifier}
}

// RecordPurchase splits a purchase into installments, reserves limit for the
// full amount and persists everything atomically. Returns the invoices
// touched by the purchase.
func (s *Service) RecordPurchase(ctx context.Context, params RecordPurchaseParams) ([]*Invoice, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}

	c, err := s.cardRepo.GetByID(ctx, params.CardID)
	if err != nil {
		return nil, err
	}
	if c.UserID != params.UserID {
		return nil, card.ErrForbidden
	}

	plans, err := SplitPurchase(params.Amount, params.Installments, params.Date, c.CycleConfig())
	if err != nil {
		return nil, err
	}

	result, err := s.repo.ExecutePurchase(ctx, PurchaseParams{
		PurchaseID:  uuid.NewString(),
		CardID:      c.ID,
		UserID:      params.UserID,
		Description: params.Description,
		Date:        params.Date,
		Total:       params.Amount,
		Plans:       plans,
	})
	if err != nil {
		return nil, err
	}

	if s.notifier != nil &&
		card.CrossedWarningThreshold(result.LimitUsedBefore, result.LimitUsedAfter, result.LimitTotal) {
		warned := *c
		warned.LimitUsed = result.LimitUsedAfter
		s.notifier.LimitWarning(ctx, &warned)
	}

	return result.Invoices, nil
}

// CanPay reports whether the invoice is payable today: it must be pending,
// belong to the current calendar cycle, and today must fall inside the
// payable window between closing and due day.
func CanPay(inv *Invoice, cfg cycle.Config, today time.Time) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	if inv.Status != StatusPending {
		return &NotPayableError{Reason: "invoice already paid"}
	}
	if !inv.Key().Equal(cycle.KeyOf(today)) {
		return &NotPayableError{
			Reason:     "only the current month's invoice can be paid",
			ClosingDay: cfg.ClosingDay,
			DueDay:     cfg.DueDay,
		}
	}
	if !cfg.PayableOn(today.Day()) {
		return &NotPayableError{
			Reason:     "outside the payable window",
			ClosingDay: cfg.ClosingDay,
			DueDay:     cfg.DueDay,
		}
	}
	return nil
}

// SettleInvoice pays a pending invoice. The settlement is atomic: invoice
// status, installment statuses and the limit release either all commit or
// none do.
func (s *Service) SettleInvoice(ctx context.Context, invoiceID string, userID int64, asOf time.Time) (*Invoice, error) {
	if invoiceID == "" {
		return nil, ErrInvalidInput
	}
	if asOf.IsZero() {
		asOf = time.Now()
	}

	inv, err := s.repo.GetByID(ctx, invoiceID)
	if err != nil {
		return nil, err
	}
	c, err := s.cardRepo.GetByID(ctx, inv.CardID)
	if err != nil {
		return nil, err
	}
	if c.UserID != userID {
		return nil, ErrForbidden
	}

	if err := CanPay(inv, c.CycleConfig(), asOf); err != nil {
		return nil, err
	}

	result, err := s.repo.ExecuteSettlement(ctx, SettleParams{InvoiceID: invoiceID, PaidAt: asOf})
	if err != nil {
		// The store re-checks the pending gate inside its transaction; a
		// concurrent settlement surfaces as NotPayable, not as a retry.
		if errors.Is(err, ErrInvoiceNotPending) {
			return nil, &NotPayableError{Reason: "invoice already paid"}
		}
		return nil, err
	}

	log.Printf("Invoice %s settled: released %s on card %s", invoiceID, result.Released, c.ID)

	if s.notifier != nil {
		s.notifier.InvoicePaid(ctx, c, result.Invoice)
	}

	return result.Invoice, nil
}

// GetCardInvoice returns one cycle's invoice with its installments, verifying
// card ownership.
func (s *Service) GetCardInvoice(ctx context.Context, cardID string, userID int64, key cycle.Key) (*Invoice, []*Installment, error) {
	c, err := s.cardRepo.GetByID(ctx, cardID)
	if err != nil {
		return nil, nil, err
	}
	if c.UserID != userID {
		return nil, nil, ErrForbidden
	}

	inv, err := s.repo.GetByCycle(ctx, cardID, key)
	if err != nil {
		return nil, nil, err
	}
	installments, err := s.repo.ListInstallments(ctx, inv.ID)
	if err != nil {
		return nil, nil, err
	}
	return inv, installments, nil
}

// ListCardInvoices returns all invoices of a card, newest cycle first,
// verifying card ownership.
func (s *Service) ListCardInvoices(ctx context.Context, cardID string, userID int64) ([]*Invoice, error) {
	c, err := s.cardRepo.GetByID(ctx, cardID)
	if err != nil {
		return nil, err
	}
	if c.UserID != userID {
		return nil, ErrForbidden
	}
	return s.repo.ListByCardID(ctx, cardID)
}
