package forecast

import (
	"sort"
	"time"

	"fatura/internal/domain/cycle"
	"fatura/internal/domain/money"
	"fatura/internal/domain/transaction"
)

// FallbackCategory groups expenses that carry no category.
const FallbackCategory = "Outros"

// CategoryForecast is the predicted monthly spend for one category.
type CategoryForecast struct {
	Category         string      `json:"category"`
	PredictedMonthly money.Cents `json:"predicted_monthly"`
	AvgTransactions  float64     `json:"avg_transactions"`
}

// Result is a spending baseline derived from closed months of history.
type Result struct {
	Categories     []CategoryForecast `json:"categories"`
	TotalPredicted money.Cents        `json:"total_predicted"`
	MonthsAnalyzed int                `json:"months_analyzed"`
	HasHistory     bool               `json:"has_history"`
}

// Compute aggregates expenses dated in months strictly before today's month
// into a per-category monthly average. The current month is excluded so a
// half-elapsed month never drags the baseline down. With no closed history
// it returns an empty result with HasHistory false.
func Compute(history []*transaction.Transaction, today time.Time) *Result {
	current := cycle.KeyOf(today)

	months := make(map[cycle.Key]struct{})
	totals := make(map[string]money.Cents)
	counts := make(map[string]int)

	for _, tx := range history {
		if tx.Type != transaction.TypeExpense {
			continue
		}
		key := cycle.KeyOf(tx.Date)
		if !key.Before(current) {
			continue
		}
		months[key] = struct{}{}

		category := FallbackCategory
		if tx.Category != nil && *tx.Category != "" {
			category = *tx.Category
		}
		totals[category] += tx.Amount
		counts[category]++
	}

	analyzed := len(months)
	if analyzed == 0 {
		return &Result{Categories: []CategoryForecast{}}
	}

	result := &Result{
		MonthsAnalyzed: analyzed,
		HasHistory:     true,
	}
	for category, total := range totals {
		predicted := total / money.Cents(analyzed)
		result.Categories = append(result.Categories, CategoryForecast{
			Category:         category,
			PredictedMonthly: predicted,
			AvgTransactions:  float64(counts[category]) / float64(analyzed),
		})
		result.TotalPredicted += predicted
	}
	sort.Slice(result.Categories, func(i, j int) bool {
		if result.Categories[i].PredictedMonthly != result.Categories[j].PredictedMonthly {
			return result.Categories[i].PredictedMonthly > result.Categories[j].PredictedMonthly
		}
		return result.Categories[i].Category < result.Categories[j].Category
	})
	return result
}

// CurrentMonthSpending sums this month's expenses, for comparison against
// the predicted baseline.
func CurrentMonthSpending(history []*transaction.Transaction, today time.Time) money.Cents {
	current := cycle.KeyOf(today)
	var total money.Cents
	for _, tx := range history {
		if tx.Type != transaction.TypeExpense {
			continue
		}
		if cycle.KeyOf(tx.Date).Equal(current) {
			total += tx.Amount
		}
	}
	return total
}
