package notification

import (
	"context"
	"testing"
	"time"

	"fatura/internal/domain/bill"
	"fatura/internal/domain/card"
	"fatura/internal/domain/invoice"
)

// MockRepository is a mock implementation of Repository for testing
type MockRepository struct {
	CreateFunc       func(ctx context.Context, params CreateParams) (*Notification, error)
	ListByUserIDFunc func(ctx context.Context, userID int64, page, perPage int) ([]*Notification, int, error)
	MarkReadFunc     func(ctx context.Context, notificationID string, userID int64) error
	DeleteFunc       func(ctx context.Context, notificationID string, userID int64) error
	ExistsSinceFunc  func(ctx context.Context, userID int64, notifType string, since time.Time) (bool, error)
}

func (m *MockRepository) Create(ctx context.Context, params CreateParams) (*Notification, error) {
	return m.CreateFunc(ctx, params)
}

func (m *MockRepository) ListByUserID(ctx context.Context, userID int64, page, perPage int) ([]*Notification, int, error) {
	return m.ListByUserIDFunc(ctx, userID, page, perPage)
}

func (m *MockRepository) MarkRead(ctx context.Context, notificationID string, userID int64) error {
	return m.MarkReadFunc(ctx, notificationID, userID)
}

func (m *MockRepository) Delete(ctx context.Context, notificationID string, userID int64) error {
	return m.DeleteFunc(ctx, notificationID, userID)
}

func (m *MockRepository) ExistsSince(ctx context.Context, userID int64, notifType string, since time.Time) (bool, error) {
	return m.ExistsSinceFunc(ctx, userID, notifType, since)
}

type mockPublisher struct {
	events []Event
	err    error
}

func (p *mockPublisher) Publish(ctx context.Context, event Event) error {
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, event)
	return nil
}

func testCard() *card.Card {
	return &card.Card{ID: "card-1", UserID: 1, Name: "Nubank", LimitTotal: 100000, LimitUsed: 85000, ClosingDay: 5, DueDay: 15}
}

func TestInvoicePaidStoresAndPublishes(t *testing.T) {
	var stored CreateParams
	repo := &MockRepository{
		CreateFunc: func(ctx context.Context, params CreateParams) (*Notification, error) {
			stored = params
			return &Notification{ID: "n-1"}, nil
		},
	}
	pub := &mockPublisher{}
	svc := NewService(repo, pub)

	inv := &invoice.Invoice{ID: "inv-1", Month: 3, Year: 2026, Total: 30000}
	svc.InvoicePaid(context.Background(), testCard(), inv)

	if stored.Type != TypeInvoicePaid || stored.UserID != 1 {
		t.Errorf("stored = %+v", stored)
	}
	if len(pub.events) != 1 {
		t.Fatalf("published %d events, want 1", len(pub.events))
	}
	if pub.events[0].Type != TypeInvoicePaid {
		t.Errorf("event type = %s", pub.events[0].Type)
	}
	if pub.events[0].Data["invoice_id"] != "inv-1" {
		t.Errorf("event data = %v", pub.events[0].Data)
	}
}

func TestBrokerFailureDoesNotPropagate(t *testing.T) {
	created := 0
	repo := &MockRepository{
		CreateFunc: func(ctx context.Context, params CreateParams) (*Notification, error) {
			created++
			return &Notification{ID: "n-1"}, nil
		},
	}
	pub := &mockPublisher{err: context.DeadlineExceeded}
	svc := NewService(repo, pub)

	// must not panic or return anything; the record is still stored
	svc.LimitWarning(context.Background(), testCard())
	if created != 1 {
		t.Errorf("record stored %d times, want 1", created)
	}
}

func TestRemindersDedupePerDay(t *testing.T) {
	now := time.Date(2026, time.March, 5, 9, 0, 0, 0, time.UTC)

	t.Run("First reminder of the day is stored", func(t *testing.T) {
		created := 0
		var sinceSeen time.Time
		repo := &MockRepository{
			ExistsSinceFunc: func(ctx context.Context, userID int64, notifType string, since time.Time) (bool, error) {
				sinceSeen = since
				return false, nil
			},
			CreateFunc: func(ctx context.Context, params CreateParams) (*Notification, error) {
				created++
				return &Notification{ID: "n-1"}, nil
			},
		}
		svc := NewService(repo, nil)
		if err := svc.InvoiceClosing(context.Background(), testCard(), now); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if created != 1 {
			t.Errorf("created = %d, want 1", created)
		}
		wantSince := time.Date(2026, time.March, 5, 0, 0, 0, 0, time.UTC)
		if !sinceSeen.Equal(wantSince) {
			t.Errorf("dedupe window starts at %v, want %v", sinceSeen, wantSince)
		}
	})

	t.Run("Second reminder of the day is skipped", func(t *testing.T) {
		repo := &MockRepository{
			ExistsSinceFunc: func(ctx context.Context, userID int64, notifType string, since time.Time) (bool, error) {
				return true, nil
			},
			CreateFunc: func(ctx context.Context, params CreateParams) (*Notification, error) {
				t.Fatal("no record may be created when one already exists today")
				return nil, nil
			},
		}
		svc := NewService(repo, nil)
		b := &bill.Bill{ID: "bill-1", UserID: 1, Name: "Aluguel", Amount: 150000, DueDate: now.AddDate(0, 0, 2)}
		if err := svc.BillDueSoon(context.Background(), b, now); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})
}

// Card deletion removes matching notification rows by the card_id entry in
// the data payload, so every event about a card must carry it.
func TestCardEventsCarryCardID(t *testing.T) {
	now := time.Date(2026, time.March, 5, 9, 0, 0, 0, time.UTC)
	c := testCard()
	inv := &invoice.Invoice{ID: "inv-1", CardID: c.ID, Month: 3, Year: 2026, Total: 30000}

	tests := []struct {
		name string
		emit func(svc *Service) error
	}{
		{"InvoicePaid", func(svc *Service) error {
			svc.InvoicePaid(context.Background(), c, inv)
			return nil
		}},
		{"LimitWarning", func(svc *Service) error {
			svc.LimitWarning(context.Background(), c)
			return nil
		}},
		{"InvoiceClosing", func(svc *Service) error {
			return svc.InvoiceClosing(context.Background(), c, now)
		}},
		{"PaymentReminder", func(svc *Service) error {
			return svc.PaymentReminder(context.Background(), c, inv, now)
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var stored CreateParams
			repo := &MockRepository{
				ExistsSinceFunc: func(ctx context.Context, userID int64, notifType string, since time.Time) (bool, error) {
					return false, nil
				},
				CreateFunc: func(ctx context.Context, params CreateParams) (*Notification, error) {
					stored = params
					return &Notification{ID: "n-1"}, nil
				},
			}
			if err := tt.emit(NewService(repo, nil)); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if stored.Data["card_id"] != c.ID {
				t.Errorf("data = %v, want card_id %q", stored.Data, c.ID)
			}
		})
	}
}

func TestListNotificationsPagination(t *testing.T) {
	repo := &MockRepository{
		ListByUserIDFunc: func(ctx context.Context, userID int64, page, perPage int) ([]*Notification, int, error) {
			if page != 1 || perPage != 20 {
				t.Errorf("page = %d, perPage = %d; want defaults 1, 20", page, perPage)
			}
			return []*Notification{}, 0, nil
		},
	}
	svc := NewService(repo, nil)
	if _, _, err := svc.ListNotifications(context.Background(), 1, 0, 500); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
