package invoice

import (
	"errors"
	"testing"
	"time"

	"fatura/internal/domain/cycle"
	"fatura/internal/domain/money"
)

func TestSplitPurchaseSumIsExact(t *testing.T) {
	cfg := cycle.Config{ClosingDay: 5, DueDay: 15}
	date := time.Date(2026, time.March, 3, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name   string
		amount money.Cents
		count  int
	}{
		{"Even split", 30000, 3},
		{"Residual cent", 10000, 3},
		{"Residual two cents", 200, 3},
		{"Single installment", 9999, 1},
		{"Many installments", 100001, 12},
		{"Max installments", 777777, MaxInstallments},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plans, err := SplitPurchase(tt.amount, tt.count, date, cfg)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(plans) != tt.count {
				t.Fatalf("got %d plans, want %d", len(plans), tt.count)
			}

			var sum money.Cents
			for _, p := range plans {
				sum += p.Amount
			}
			if sum != tt.amount {
				t.Errorf("installments sum to %d, want %d", sum, tt.amount)
			}

			// Residual cents belong to the final installment only.
			base := tt.amount / money.Cents(tt.count)
			for i, p := range plans {
				if i < tt.count-1 && p.Amount != base {
					t.Errorf("installment %d amount = %d, want %d", i+1, p.Amount, base)
				}
			}
		})
	}
}

func TestSplitPurchaseCycleProgression(t *testing.T) {
	cfg := cycle.Config{ClosingDay: 5, DueDay: 15}
	date := time.Date(2026, time.November, 2, 0, 0, 0, 0, time.UTC)

	plans, err := SplitPurchase(50000, 5, date, cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	first := plans[0].Cycle
	if !first.Equal(cycle.Key{Month: 11, Year: 2026}) {
		t.Fatalf("first cycle = %v, want 11/2026", first)
	}
	for i, p := range plans {
		want := first.AddMonths(i)
		if !p.Cycle.Equal(want) {
			t.Errorf("installment %d cycle = %v, want %v", i+1, p.Cycle, want)
		}
		if p.Number != i+1 {
			t.Errorf("installment %d number = %d", i+1, p.Number)
		}
	}
	// Year rolled at December.
	if !plans[2].Cycle.Equal(cycle.Key{Month: 1, Year: 2027}) {
		t.Errorf("third installment cycle = %v, want 01/2027", plans[2].Cycle)
	}
}

func TestSplitPurchaseMonthEndNoDrift(t *testing.T) {
	// A purchase on Jan 31 after closing resolves to February's cycle; the
	// remaining cycles must advance one month each even though later months
	// have no day 31.
	cfg := cycle.Config{ClosingDay: 10, DueDay: 20}
	date := time.Date(2026, time.January, 31, 0, 0, 0, 0, time.UTC)

	plans, err := SplitPurchase(30000, 3, date, cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []cycle.Key{{Month: 2, Year: 2026}, {Month: 3, Year: 2026}, {Month: 4, Year: 2026}}
	for i, p := range plans {
		if !p.Cycle.Equal(want[i]) {
			t.Errorf("installment %d cycle = %v, want %v", i+1, p.Cycle, want[i])
		}
	}
}

func TestSplitPurchaseRejectsBadInput(t *testing.T) {
	cfg := cycle.Config{ClosingDay: 5, DueDay: 15}
	date := time.Date(2026, time.March, 3, 0, 0, 0, 0, time.UTC)

	if _, err := SplitPurchase(0, 3, date, cfg); err == nil {
		t.Error("expected error for zero amount")
	}
	if _, err := SplitPurchase(100, 0, date, cfg); err == nil {
		t.Error("expected error for zero count")
	}
	if _, err := SplitPurchase(100, MaxInstallments+1, date, cfg); err == nil {
		t.Error("expected error for count above maximum")
	}
	if _, err := SplitPurchase(100, 2, date, cycle.Config{ClosingDay: 0, DueDay: 15}); err == nil {
		t.Error("expected error for invalid cycle config")
	}
}

func TestSplitPurchaseRejectsAmountSmallerThanCount(t *testing.T) {
	cfg := cycle.Config{ClosingDay: 5, DueDay: 15}
	date := time.Date(2026, time.March, 3, 0, 0, 0, 0, time.UTC)

	// 30 cents in 48 slices would produce zero-cent installments.
	_, err := SplitPurchase(30, 48, date, cfg)
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("error = %v, want ErrInvalidInput", err)
	}

	// One cent per installment is the floor and still splits cleanly.
	plans, err := SplitPurchase(48, 48, date, cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i, p := range plans {
		if p.Amount != 1 {
			t.Errorf("installment %d amount = %d, want 1", i+1, p.Amount)
		}
	}
}
