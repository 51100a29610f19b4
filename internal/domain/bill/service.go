package bill

import (
	"context"
	"fmt"
	"log"
	"time"

	"fatura/internal/domain/transaction"
)

// Notifier receives bill lifecycle events. The notification service
// implements it.
type Notifier interface {
	BillPaid(ctx context.Context, b *Bill, renewed bool)
}

// Service handles bill business logic
type Service struct {
	repo     Repository
	notifier Notifier
}

func NewService(repo Repository, notifier Notifier) *Service {
	return &Service{repo: repo, notifier: notifier}
}

func (s *Service) CreateBill(ctx context.Context, params CreateParams) (*Bill, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	return s.repo.Create(ctx, params)
}

func (s *Service) ListBills(ctx context.Context, userID int64) ([]*Bill, error) {
	return s.repo.ListByUserID(ctx, userID)
}

func (s *Service) DeleteBill(ctx context.Context, billID string, userID int64) error {
	b, err := s.repo.GetByID(ctx, billID)
	if err != nil {
		return err
	}
	if b.UserID != userID {
		return ErrForbidden
	}
	return s.repo.Delete(ctx, billID)
}

// SettleBill marks a pending bill as paid. In the same store transaction it
// records an expense for the paid amount and, for auto-renewing fixed bills,
// creates the next month's occurrence. Paying a bill that is already paid
// returns ErrBillNotPayable and leaves the store untouched.
func (s *Service) SettleBill(ctx context.Context, billID string, userID int64, paidAt time.Time) (*SettleResult, error) {
	b, err := s.repo.GetByID(ctx, billID)
	if err != nil {
		return nil, err
	}
	if b.UserID != userID {
		return nil, ErrForbidden
	}
	if b.Status != StatusPending {
		return nil, ErrBillNotPayable
	}

	params := SettleParams{
		BillID: billID,
		PaidAt: paidAt,
		Expense: transaction.CreateParams{
			UserID:      b.UserID,
			Description: fmt.Sprintf("Pagamento: %s", b.Name),
			Amount:      b.Amount,
			Type:        transaction.TypeExpense,
			Category:    b.Category,
			Date:        paidAt,
		},
	}
	if b.ShouldRenew() {
		params.Successor = b.Successor()
	}

	result, err := s.repo.ExecuteSettlement(ctx, params)
	if err != nil {
		return nil, err
	}

	if result.Successor != nil {
		log.Printf("Bill %s renewed for user %d, next due %s", b.Name, b.UserID, result.Successor.DueDate.Format("2006-01-02"))
	}
	if s.notifier != nil {
		s.notifier.BillPaid(ctx, result.Bill, result.Successor != nil)
	}
	return result, nil
}
