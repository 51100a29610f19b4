package scheduler

import (
	"context"
	"testing"
	"time"

	"fatura/internal/domain/cycle"
	"fatura/internal/domain/invoice"
	"fatura/internal/domain/subscription"
)

type stubSubscriptionRepo struct {
	subscription.Repository
	due    []*subscription.Subscription
	marked []string
}

func (s *stubSubscriptionRepo) ListDueOn(ctx context.Context, asOf time.Time) ([]*subscription.Subscription, error) {
	return s.due, nil
}

func (s *stubSubscriptionRepo) MarkPosted(ctx context.Context, id string, key cycle.Key) error {
	s.marked = append(s.marked, id)
	return nil
}

type stubPurchaser struct {
	calls []invoice.RecordPurchaseParams
}

func (p *stubPurchaser) RecordPurchase(ctx context.Context, params invoice.RecordPurchaseParams) ([]*invoice.Invoice, error) {
	p.calls = append(p.calls, params)
	return []*invoice.Invoice{{ID: "inv-1", CardID: params.CardID, Total: params.Amount}}, nil
}

func TestSubscriptionProviderPostsPerUser(t *testing.T) {
	repo := &stubSubscriptionRepo{
		due: []*subscription.Subscription{
			{ID: "sub-1", UserID: 1, CardID: "card-1", Name: "Netflix", Amount: 4490, BillingDay: 5, Status: subscription.StatusActive},
			{ID: "sub-2", UserID: 1, CardID: "card-2", Name: "Spotify", Amount: 2190, BillingDay: 5, Status: subscription.StatusActive},
			{ID: "sub-3", UserID: 2, CardID: "card-3", Name: "iCloud", Amount: 390, BillingDay: 5, Status: subscription.StatusActive},
		},
	}
	purchaser := &stubPurchaser{}
	provider := NewSubscriptionProvider(subscription.NewService(repo, nil, purchaser))

	jobs, err := provider.Jobs(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(jobs) != 2 {
		t.Fatalf("got %d jobs, want one per user (2)", len(jobs))
	}

	for _, j := range jobs {
		if err := j.Execute(context.Background()); err != nil {
			t.Fatalf("job for user %s failed: %v", j.UserID(), err)
		}
	}

	if len(purchaser.calls) != 3 {
		t.Errorf("posted %d charges, want 3", len(purchaser.calls))
	}
	if len(repo.marked) != 3 {
		t.Errorf("marked %d subscriptions posted, want 3", len(repo.marked))
	}
	for _, p := range purchaser.calls {
		if p.Installments != 1 {
			t.Errorf("charge posted with %d installments, want 1", p.Installments)
		}
	}
}
