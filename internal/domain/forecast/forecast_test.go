package forecast

import (
	"context"
	"testing"
	"time"

	"fatura/internal/domain/money"
	"fatura/internal/domain/transaction"
)

func expense(amount money.Cents, category string, year int, month time.Month, day int) *transaction.Transaction {
	tx := &transaction.Transaction{
		UserID: 1,
		Amount: amount,
		Type:   transaction.TypeExpense,
		Date:   time.Date(year, month, day, 0, 0, 0, 0, time.UTC),
	}
	if category != "" {
		tx.Category = &category
	}
	return tx
}

var today = time.Date(2026, time.March, 15, 0, 0, 0, 0, time.UTC)

func TestComputeNoHistory(t *testing.T) {
	tests := []struct {
		name    string
		history []*transaction.Transaction
	}{
		{"Empty history", nil},
		{"Only current month", []*transaction.Transaction{
			expense(5000, "Mercado", 2026, time.March, 2),
		}},
		{"Only income", []*transaction.Transaction{
			{UserID: 1, Amount: 500000, Type: transaction.TypeIncome, Date: time.Date(2026, time.February, 1, 0, 0, 0, 0, time.UTC)},
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Compute(tt.history, today)
			if result.HasHistory {
				t.Error("HasHistory should be false")
			}
			if result.TotalPredicted != 0 {
				t.Errorf("TotalPredicted = %d, want 0", result.TotalPredicted)
			}
			if result.MonthsAnalyzed != 0 {
				t.Errorf("MonthsAnalyzed = %d, want 0", result.MonthsAnalyzed)
			}
			if len(result.Categories) != 0 {
				t.Errorf("Categories = %v, want empty", result.Categories)
			}
		})
	}
}

func TestComputeSingleMonth(t *testing.T) {
	history := []*transaction.Transaction{
		expense(30000, "Mercado", 2026, time.February, 3),
		expense(10000, "Mercado", 2026, time.February, 20),
		expense(8000, "Transporte", 2026, time.February, 10),
	}
	result := Compute(history, today)

	if !result.HasHistory || result.MonthsAnalyzed != 1 {
		t.Fatalf("MonthsAnalyzed = %d, HasHistory = %v", result.MonthsAnalyzed, result.HasHistory)
	}
	if len(result.Categories) != 2 {
		t.Fatalf("got %d categories, want 2", len(result.Categories))
	}
	// Sorted by predicted spend, largest first.
	if result.Categories[0].Category != "Mercado" || result.Categories[0].PredictedMonthly != 40000 {
		t.Errorf("first category = %+v", result.Categories[0])
	}
	if result.Categories[0].AvgTransactions != 2 {
		t.Errorf("Mercado AvgTransactions = %v, want 2", result.Categories[0].AvgTransactions)
	}
	if result.Categories[1].Category != "Transporte" || result.Categories[1].PredictedMonthly != 8000 {
		t.Errorf("second category = %+v", result.Categories[1])
	}
	if result.TotalPredicted != 48000 {
		t.Errorf("TotalPredicted = %d, want 48000", result.TotalPredicted)
	}
}

func TestComputeAveragesAcrossMonths(t *testing.T) {
	history := []*transaction.Transaction{
		expense(30000, "Mercado", 2026, time.January, 5),
		expense(10000, "Mercado", 2026, time.February, 5),
		// no category falls into the fallback bucket
		expense(4000, "", 2026, time.January, 12),
		// current month is excluded from the baseline
		expense(99999, "Mercado", 2026, time.March, 1),
	}
	result := Compute(history, today)

	if result.MonthsAnalyzed != 2 {
		t.Fatalf("MonthsAnalyzed = %d, want 2", result.MonthsAnalyzed)
	}
	byName := make(map[string]CategoryForecast)
	for _, c := range result.Categories {
		byName[c.Category] = c
	}
	if got := byName["Mercado"].PredictedMonthly; got != 20000 {
		t.Errorf("Mercado predicted = %d, want 20000", got)
	}
	if got := byName[FallbackCategory].PredictedMonthly; got != 2000 {
		t.Errorf("%s predicted = %d, want 2000", FallbackCategory, got)
	}
	if got := byName["Mercado"].AvgTransactions; got != 1 {
		t.Errorf("Mercado AvgTransactions = %v, want 1", got)
	}
}

func TestComputeYearBoundary(t *testing.T) {
	january := time.Date(2026, time.January, 10, 0, 0, 0, 0, time.UTC)
	history := []*transaction.Transaction{
		expense(12000, "Mercado", 2025, time.December, 20),
		expense(12000, "Mercado", 2026, time.January, 5), // current month
	}
	result := Compute(history, january)
	if result.MonthsAnalyzed != 1 {
		t.Fatalf("MonthsAnalyzed = %d, want 1", result.MonthsAnalyzed)
	}
	if result.TotalPredicted != 12000 {
		t.Errorf("TotalPredicted = %d, want 12000", result.TotalPredicted)
	}
}

func TestCurrentMonthSpending(t *testing.T) {
	history := []*transaction.Transaction{
		expense(30000, "Mercado", 2026, time.February, 3),
		expense(5000, "Mercado", 2026, time.March, 2),
		expense(7000, "Lazer", 2026, time.March, 14),
		{UserID: 1, Amount: 100000, Type: transaction.TypeIncome, Date: today},
	}
	if got := CurrentMonthSpending(history, today); got != 12000 {
		t.Errorf("CurrentMonthSpending = %d, want 12000", got)
	}
}

// mockTransactionRepo implements transaction.Repository for service tests.
type mockTransactionRepo struct {
	expenses []*transaction.Transaction
	calls    int
}

func (m *mockTransactionRepo) Create(ctx context.Context, params transaction.CreateParams) (*transaction.Transaction, error) {
	return nil, nil
}

func (m *mockTransactionRepo) ListByUserID(ctx context.Context, userID int64, limit, offset int) ([]*transaction.Transaction, error) {
	return nil, nil
}

func (m *mockTransactionRepo) ListExpensesByUserID(ctx context.Context, userID int64) ([]*transaction.Transaction, error) {
	m.calls++
	return m.expenses, nil
}

type mapCache struct {
	entries map[string]*Result
}

func (c *mapCache) key(userID int64, month time.Time) string {
	return month.Format("2006-01")
}

func (c *mapCache) Get(ctx context.Context, userID int64, month time.Time) (*Result, error) {
	return c.entries[c.key(userID, month)], nil
}

func (c *mapCache) Set(ctx context.Context, userID int64, month time.Time, result *Result) error {
	c.entries[c.key(userID, month)] = result
	return nil
}

func (c *mapCache) Delete(ctx context.Context, userID int64, month time.Time) error {
	delete(c.entries, c.key(userID, month))
	return nil
}

func TestServiceCachesForecast(t *testing.T) {
	repo := &mockTransactionRepo{expenses: []*transaction.Transaction{
		expense(30000, "Mercado", 2026, time.February, 3),
	}}
	svc := NewService(repo, &mapCache{entries: make(map[string]*Result)})
	ctx := context.Background()

	first, err := svc.Forecast(ctx, 1, today)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := svc.Forecast(ctx, 1, today)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if repo.calls != 1 {
		t.Errorf("repository queried %d times, want 1 (second read served from cache)", repo.calls)
	}
	if first.TotalPredicted != second.TotalPredicted {
		t.Error("cached result differs from computed result")
	}
}

func TestServiceRecomputesAfterInvalidate(t *testing.T) {
	repo := &mockTransactionRepo{expenses: []*transaction.Transaction{
		expense(30000, "Mercado", 2026, time.February, 3),
	}}
	svc := NewService(repo, &mapCache{entries: make(map[string]*Result)})
	ctx := context.Background()

	if _, err := svc.Forecast(ctx, 1, today); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// A new expense lands, the write path drops the cached entry.
	repo.expenses = append(repo.expenses, expense(20000, "Farmácia", 2026, time.February, 10))
	svc.Invalidate(ctx, 1, today)

	result, err := svc.Forecast(ctx, 1, today)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if repo.calls != 2 {
		t.Errorf("repository queried %d times, want 2 (invalidation forces a recompute)", repo.calls)
	}
	fresh := Compute(repo.expenses, today)
	if result.TotalPredicted != fresh.TotalPredicted {
		t.Errorf("forecast = %d, want recomputed %d", result.TotalPredicted, fresh.TotalPredicted)
	}
}
