package invoice

import (
	"fmt"
	"time"

	"fatura/internal/domain/cycle"
	"fatura/internal/domain/money"
)

// MaxInstallments bounds how many slices a purchase may be split into.
const MaxInstallments = 48

// InstallmentPlan is one planned slice of a purchase before persistence.
type InstallmentPlan struct {
	Amount money.Cents
	Cycle  cycle.Key
	Number int
}

// SplitPurchase divides a purchase into count dated installments.
//
// Amounts are split equally with any residual cents allocated to the final
// installment, so the slices always sum exactly to the purchase amount.
// Installment 1 is resolved against the purchase date; installment k takes
// the cycle k-1 months later, rolled arithmetically rather than re-resolved
// against a shifted date, so month-end dates can never drift the assignment.
func SplitPurchase(amount money.Cents, count int, purchaseDate time.Time, cfg cycle.Config) ([]InstallmentPlan, error) {
	if amount <= 0 {
		return nil, fmt.Errorf("%w: amount must be positive", ErrInvalidInput)
	}
	if count < 1 || count > MaxInstallments {
		return nil, fmt.Errorf("%w: installment count out of range", ErrInvalidInput)
	}
	// Every installment must carry at least one cent.
	if int64(amount) < int64(count) {
		return nil, fmt.Errorf("%w: %s cannot be split into %d installments", ErrInvalidInput, amount, count)
	}

	first, err := cycle.Resolve(purchaseDate, cfg)
	if err != nil {
		return nil, err
	}

	base := amount / money.Cents(count)
	plans := make([]InstallmentPlan, count)
	for i := 0; i < count; i++ {
		plans[i] = InstallmentPlan{
			Amount: base,
			Cycle:  first.AddMonths(i),
			Number: i + 1,
		}
	}
	// Residual cents land on the final installment.
	plans[count-1].Amount += amount - base*money.Cents(count)

	return plans, nil
}
