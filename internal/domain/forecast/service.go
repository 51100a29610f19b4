package forecast

import (
	"context"
	"log"
	"time"

	"fatura/internal/domain/money"
	"fatura/internal/domain/transaction"
)

// Cache stores computed forecasts keyed by user and month. A miss is
// signalled by (nil, nil).
type Cache interface {
	Get(ctx context.Context, userID int64, month time.Time) (*Result, error)
	Set(ctx context.Context, userID int64, month time.Time, result *Result) error
	Delete(ctx context.Context, userID int64, month time.Time) error
}

// Service computes spending forecasts, memoizing per user and month. The
// cache is best effort: a failing cache degrades to recomputation, never to
// an error.
type Service struct {
	transactions transaction.Repository
	cache        Cache
}

func NewService(transactions transaction.Repository, cache Cache) *Service {
	return &Service{transactions: transactions, cache: cache}
}

func (s *Service) Forecast(ctx context.Context, userID int64, today time.Time) (*Result, error) {
	if s.cache != nil {
		cached, err := s.cache.Get(ctx, userID, today)
		if err != nil {
			log.Printf("Forecast cache read failed for user %d: %v", userID, err)
		} else if cached != nil {
			return cached, nil
		}
	}

	history, err := s.transactions.ListExpensesByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	result := Compute(history, today)

	if s.cache != nil {
		if err := s.cache.Set(ctx, userID, today, result); err != nil {
			log.Printf("Forecast cache write failed for user %d: %v", userID, err)
		}
	}
	return result, nil
}

// Invalidate drops the cached forecast covering the given moment. Write
// paths call it after recording an expense so the next read recomputes
// instead of serving a value that predates the write. Best effort, like
// the rest of the cache.
func (s *Service) Invalidate(ctx context.Context, userID int64, month time.Time) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, userID, month); err != nil {
		log.Printf("Forecast cache invalidation failed for user %d: %v", userID, err)
	}
}

// CurrentMonth returns this month's accumulated spending next to the
// predicted baseline.
type CurrentMonth struct {
	Spent          money.Cents `json:"spent"`
	TotalPredicted money.Cents `json:"total_predicted"`
	HasHistory     bool        `json:"has_history"`
}

func (s *Service) CurrentMonthSummary(ctx context.Context, userID int64, today time.Time) (*CurrentMonth, error) {
	history, err := s.transactions.ListExpensesByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	result := Compute(history, today)
	return &CurrentMonth{
		Spent:          CurrentMonthSpending(history, today),
		TotalPredicted: result.TotalPredicted,
		HasHistory:     result.HasHistory,
	}, nil
}
