package subscription

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"fatura/internal/domain/card"
	"fatura/internal/domain/cycle"
	"fatura/internal/domain/invoice"
)

// Purchaser posts the monthly charge against the card ledger. The invoice
// service implements it, so a subscription charge reserves limit and lands
// on an invoice exactly like a manual purchase.
type Purchaser interface {
	RecordPurchase(ctx context.Context, params invoice.RecordPurchaseParams) ([]*invoice.Invoice, error)
}

// Service owns the subscription lifecycle and the monthly posting sweep.
type Service struct {
	repo      Repository
	cards     card.Repository
	purchases Purchaser
}

func NewService(repo Repository, cards card.Repository, purchases Purchaser) *Service {
	return &Service{repo: repo, cards: cards, purchases: purchases}
}

// CreateSubscription registers a recurring purchase after verifying the
// card belongs to the user.
func (s *Service) CreateSubscription(ctx context.Context, params CreateParams) (*Subscription, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	c, err := s.cards.GetByID(ctx, params.CardID)
	if err != nil {
		return nil, err
	}
	if c.UserID != params.UserID {
		return nil, ErrForbidden
	}
	return s.repo.Create(ctx, params)
}

func (s *Service) ListSubscriptions(ctx context.Context, userID int64) ([]*Subscription, error) {
	if userID <= 0 {
		return nil, errors.New("valid user ID is required")
	}
	return s.repo.ListByUserID(ctx, userID)
}

// SetStatus pauses or resumes a subscription. An inactive subscription is
// skipped by the posting sweep but keeps its history.
func (s *Service) SetStatus(ctx context.Context, subscriptionID string, userID int64, status string) (*Subscription, error) {
	if status != StatusActive && status != StatusInactive {
		return nil, fmt.Errorf("%w: status must be active or inactive", ErrInvalidInput)
	}
	sub, err := s.ownedSubscription(ctx, subscriptionID, userID)
	if err != nil {
		return nil, err
	}
	if err := s.repo.SetStatus(ctx, sub.ID, status); err != nil {
		return nil, err
	}
	sub.Status = status
	return sub, nil
}

func (s *Service) DeleteSubscription(ctx context.Context, subscriptionID string, userID int64) error {
	sub, err := s.ownedSubscription(ctx, subscriptionID, userID)
	if err != nil {
		return err
	}
	return s.repo.Delete(ctx, sub.ID)
}

func (s *Service) ownedSubscription(ctx context.Context, subscriptionID string, userID int64) (*Subscription, error) {
	if subscriptionID == "" {
		return nil, ErrSubscriptionNotFound
	}
	sub, err := s.repo.GetByID(ctx, subscriptionID)
	if err != nil {
		return nil, err
	}
	if sub.UserID != userID {
		return nil, ErrForbidden
	}
	return sub, nil
}

// ListDue returns the subscriptions whose charge for now's month is
// outstanding.
func (s *Service) ListDue(ctx context.Context, now time.Time) ([]*Subscription, error) {
	return s.repo.ListDueOn(ctx, now)
}

// Post sends one subscription's monthly charge through the purchase path
// and marks the month as posted. A charge the card cannot absorb right now
// is left unmarked, so the sweep retries it on the following days of the
// same month.
func (s *Service) Post(ctx context.Context, sub *Subscription, now time.Time) error {
	key := cycle.KeyOf(now)
	if sub.PostedFor(key) {
		return nil
	}

	_, err := s.purchases.RecordPurchase(ctx, invoice.RecordPurchaseParams{
		UserID:       sub.UserID,
		CardID:       sub.CardID,
		Description:  fmt.Sprintf("Assinatura: %s", sub.Name),
		Amount:       sub.Amount,
		Installments: 1,
		Date:         now,
	})
	if err != nil {
		var limitErr *card.InsufficientLimitError
		if errors.As(err, &limitErr) {
			log.Printf("Subscription %s skipped: %v", sub.ID, err)
			return nil
		}
		return fmt.Errorf("post subscription %s: %w", sub.ID, err)
	}

	if err := s.repo.MarkPosted(ctx, sub.ID, key); err != nil {
		return fmt.Errorf("mark subscription %s posted: %w", sub.ID, err)
	}
	return nil
}
