package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"fatura/internal/domain/cycle"
	"fatura/internal/domain/subscription"
)

// MockSubscriptionRepo is a mock implementation of subscription.Repository.
type MockSubscriptionRepo struct {
	CreateFunc       func(ctx context.Context, params subscription.CreateParams) (*subscription.Subscription, error)
	GetByIDFunc      func(ctx context.Context, id string) (*subscription.Subscription, error)
	ListByUserIDFunc func(ctx context.Context, userID int64) ([]*subscription.Subscription, error)
	ListDueOnFunc    func(ctx context.Context, asOf time.Time) ([]*subscription.Subscription, error)
	MarkPostedFunc   func(ctx context.Context, id string, key cycle.Key) error
	SetStatusFunc    func(ctx context.Context, id, status string) error
	DeleteFunc       func(ctx context.Context, id string) error
}

func (m *MockSubscriptionRepo) Create(ctx context.Context, params subscription.CreateParams) (*subscription.Subscription, error) {
	return m.CreateFunc(ctx, params)
}

func (m *MockSubscriptionRepo) GetByID(ctx context.Context, id string) (*subscription.Subscription, error) {
	if m.GetByIDFunc == nil {
		return nil, subscription.ErrSubscriptionNotFound
	}
	return m.GetByIDFunc(ctx, id)
}

func (m *MockSubscriptionRepo) ListByUserID(ctx context.Context, userID int64) ([]*subscription.Subscription, error) {
	return m.ListByUserIDFunc(ctx, userID)
}

func (m *MockSubscriptionRepo) ListDueOn(ctx context.Context, asOf time.Time) ([]*subscription.Subscription, error) {
	return m.ListDueOnFunc(ctx, asOf)
}

func (m *MockSubscriptionRepo) MarkPosted(ctx context.Context, id string, key cycle.Key) error {
	return m.MarkPostedFunc(ctx, id, key)
}

func (m *MockSubscriptionRepo) SetStatus(ctx context.Context, id, status string) error {
	return m.SetStatusFunc(ctx, id, status)
}

func (m *MockSubscriptionRepo) Delete(ctx context.Context, id string) error {
	return m.DeleteFunc(ctx, id)
}

func subscriptionHandler(repo *MockSubscriptionRepo) *SubscriptionHandler {
	return NewSubscriptionHandler(subscription.NewService(repo, ownedCard(5, 15), nil))
}

func TestHandleSubscriptions_Create(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		var created subscription.CreateParams
		repo := &MockSubscriptionRepo{
			CreateFunc: func(ctx context.Context, params subscription.CreateParams) (*subscription.Subscription, error) {
				created = params
				return &subscription.Subscription{
					ID: "sub-1", UserID: params.UserID, CardID: params.CardID,
					Name: params.Name, Amount: params.Amount, BillingDay: params.BillingDay,
					Status: subscription.StatusActive,
				}, nil
			},
		}

		body := []byte(`{"cardId":"` + testCardID + `","name":"Netflix","amountCents":4490,"billingDay":5}`)
		rr := httptest.NewRecorder()
		subscriptionHandler(repo).HandleSubscriptions(rr, authedRequest(http.MethodPost, "/api/subscriptions", body))

		if rr.Code != http.StatusCreated {
			t.Fatalf("status = %d, want %d, body %s", rr.Code, http.StatusCreated, rr.Body.String())
		}
		if created.BillingDay != 5 || created.Amount != 4490 {
			t.Errorf("created = %+v", created)
		}
		var resp SubscriptionResponse
		json.NewDecoder(rr.Body).Decode(&resp)
		if resp.Status != subscription.StatusActive {
			t.Errorf("status = %q, want active", resp.Status)
		}
	})

	t.Run("Validation", func(t *testing.T) {
		bodies := []struct {
			name string
			body string
		}{
			{"Missing Name", `{"cardId":"` + testCardID + `","amountCents":4490,"billingDay":5}`},
			{"Zero Amount", `{"cardId":"` + testCardID + `","name":"Netflix","amountCents":0,"billingDay":5}`},
			{"Billing Day 32", `{"cardId":"` + testCardID + `","name":"Netflix","amountCents":4490,"billingDay":32}`},
			{"Bad Card ID", `{"cardId":"nope","name":"Netflix","amountCents":4490,"billingDay":5}`},
		}
		for _, tc := range bodies {
			t.Run(tc.name, func(t *testing.T) {
				rr := httptest.NewRecorder()
				subscriptionHandler(&MockSubscriptionRepo{}).HandleSubscriptions(rr, authedRequest(http.MethodPost, "/api/subscriptions", []byte(tc.body)))

				if rr.Code != http.StatusUnprocessableEntity {
					t.Errorf("status = %d, want %d", rr.Code, http.StatusUnprocessableEntity)
				}
			})
		}
	})
}

func TestHandleSubscriptions_List(t *testing.T) {
	repo := &MockSubscriptionRepo{
		ListByUserIDFunc: func(ctx context.Context, userID int64) ([]*subscription.Subscription, error) {
			return []*subscription.Subscription{
				{ID: "sub-1", UserID: userID, CardID: testCardID, Name: "Netflix", Amount: 4490, BillingDay: 5, Status: subscription.StatusActive},
				{ID: "sub-2", UserID: userID, CardID: testCardID, Name: "Spotify", Amount: 2190, BillingDay: 12, Status: subscription.StatusInactive},
			}, nil
		},
	}

	rr := httptest.NewRecorder()
	subscriptionHandler(repo).HandleSubscriptions(rr, authedRequest(http.MethodGet, "/api/subscriptions", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusOK)
	}
	var resp []SubscriptionResponse
	json.NewDecoder(rr.Body).Decode(&resp)
	if len(resp) != 2 {
		t.Fatalf("got %d subscriptions, want 2", len(resp))
	}
	if resp[1].Status != subscription.StatusInactive {
		t.Errorf("second status = %q, want inactive", resp[1].Status)
	}
}

func TestHandleSubscriptionStatus(t *testing.T) {
	owned := func() *MockSubscriptionRepo {
		return &MockSubscriptionRepo{
			GetByIDFunc: func(ctx context.Context, id string) (*subscription.Subscription, error) {
				return &subscription.Subscription{ID: id, UserID: 1, CardID: testCardID, Name: "Netflix", Amount: 4490, BillingDay: 5, Status: subscription.StatusActive}, nil
			},
			SetStatusFunc: func(ctx context.Context, id, status string) error { return nil },
		}
	}

	t.Run("Pause", func(t *testing.T) {
		req := authedRequest(http.MethodPost, "/api/subscriptions/sub-1/status", []byte(`{"status":"inactive"}`))
		req.SetPathValue("id", "sub-1")
		rr := httptest.NewRecorder()
		subscriptionHandler(owned()).HandleSubscriptionStatus(rr, req)

		if rr.Code != http.StatusOK {
			t.Fatalf("status = %d, want %d, body %s", rr.Code, http.StatusOK, rr.Body.String())
		}
		var resp SubscriptionResponse
		json.NewDecoder(rr.Body).Decode(&resp)
		if resp.Status != subscription.StatusInactive {
			t.Errorf("status = %q, want inactive", resp.Status)
		}
	})

	t.Run("Unknown Status", func(t *testing.T) {
		req := authedRequest(http.MethodPost, "/api/subscriptions/sub-1/status", []byte(`{"status":"paused"}`))
		req.SetPathValue("id", "sub-1")
		rr := httptest.NewRecorder()
		subscriptionHandler(owned()).HandleSubscriptionStatus(rr, req)

		if rr.Code != http.StatusUnprocessableEntity {
			t.Errorf("status = %d, want %d", rr.Code, http.StatusUnprocessableEntity)
		}
	})

	t.Run("Forbidden", func(t *testing.T) {
		repo := owned()
		repo.GetByIDFunc = func(ctx context.Context, id string) (*subscription.Subscription, error) {
			return &subscription.Subscription{ID: id, UserID: 99, Status: subscription.StatusActive}, nil
		}
		req := authedRequest(http.MethodPost, "/api/subscriptions/sub-1/status", []byte(`{"status":"inactive"}`))
		req.SetPathValue("id", "sub-1")
		rr := httptest.NewRecorder()
		subscriptionHandler(repo).HandleSubscriptionStatus(rr, req)

		if rr.Code != http.StatusForbidden {
			t.Errorf("status = %d, want %d", rr.Code, http.StatusForbidden)
		}
	})
}

func TestHandleDeleteSubscription(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		deleted := ""
		repo := &MockSubscriptionRepo{
			GetByIDFunc: func(ctx context.Context, id string) (*subscription.Subscription, error) {
				return &subscription.Subscription{ID: id, UserID: 1}, nil
			},
			DeleteFunc: func(ctx context.Context, id string) error {
				deleted = id
				return nil
			},
		}
		req := authedRequest(http.MethodDelete, "/api/subscriptions/sub-1", nil)
		req.SetPathValue("id", "sub-1")
		rr := httptest.NewRecorder()
		subscriptionHandler(repo).HandleDeleteSubscription(rr, req)

		if rr.Code != http.StatusNoContent {
			t.Fatalf("status = %d, want %d", rr.Code, http.StatusNoContent)
		}
		if deleted != "sub-1" {
			t.Errorf("deleted = %q, want sub-1", deleted)
		}
	})

	t.Run("Not Found", func(t *testing.T) {
		req := authedRequest(http.MethodDelete, "/api/subscriptions/sub-9", nil)
		req.SetPathValue("id", "sub-9")
		rr := httptest.NewRecorder()
		subscriptionHandler(&MockSubscriptionRepo{}).HandleDeleteSubscription(rr, req)

		if rr.Code != http.StatusNotFound {
			t.Errorf("status = %d, want %d", rr.Code, http.StatusNotFound)
		}
	})
}
