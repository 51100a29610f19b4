package card

import (
	"context"
	"errors"

	"fatura/internal/domain/money"
)

// Service contains the business logic for card operations.
type Service struct {
	repo Repository
}

// NewService creates a new card service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// CreateCard registers a new card after validating its cycle configuration.
func (s *Service) CreateCard(ctx context.Context, params CreateParams) (*Card, error) {
	if params.Color == "" {
		params.Color = "#8B5CF6"
	}
	if err := params.Validate(); err != nil {
		return nil, err
	}
	return s.repo.Create(ctx, params)
}

// GetCard retrieves a card by ID and verifies user ownership.
func (s *Service) GetCard(ctx context.Context, cardID string, userID int64) (*Card, error) {
	c, err := s.repo.GetByID(ctx, cardID)
	if err != nil {
		return nil, err
	}
	if c.UserID != userID {
		return nil, ErrForbidden
	}
	return c, nil
}

// ListCards retrieves all cards for a user.
func (s *Service) ListCards(ctx context.Context, userID int64) ([]*Card, error) {
	if userID <= 0 {
		return nil, errors.New("valid user ID is required")
	}
	return s.repo.ListByUserID(ctx, userID)
}

// DeleteCard removes a card and everything it owns after verifying ownership.
func (s *Service) DeleteCard(ctx context.Context, cardID string, userID int64) error {
	if _, err := s.GetCard(ctx, cardID, userID); err != nil {
		return err
	}
	return s.repo.DeleteCascade(ctx, cardID)
}

// LimitAudit compares the maintained LimitUsed counter against the
// ground-truth sum of pending installments.
type LimitAudit struct {
	CardID     string      `json:"cardId"`
	LimitUsed  money.Cents `json:"limitUsed"`
	PendingSum money.Cents `json:"pendingSum"`
	Consistent bool        `json:"consistent"`
}

// AuditLimit recomputes consumed limit from installment rows and reports
// whether the counter drifted.
func (s *Service) AuditLimit(ctx context.Context, cardID string) (*LimitAudit, error) {
	c, err := s.repo.GetByID(ctx, cardID)
	if err != nil {
		return nil, err
	}
	sum, err := s.repo.PendingInstallmentTotal(ctx, cardID)
	if err != nil {
		return nil, err
	}
	return &LimitAudit{
		CardID:     cardID,
		LimitUsed:  c.LimitUsed,
		PendingSum: sum,
		Consistent: c.LimitUsed == sum,
	}, nil
}
