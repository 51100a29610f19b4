package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"fatura/internal/domain/card"
	"fatura/internal/domain/cycle"
	"fatura/internal/domain/invoice"
)

// MockInvoiceRepo implements invoice.Repository for testing
type MockInvoiceRepo struct {
	GetByIDFunc           func(ctx context.Context, id string) (*invoice.Invoice, error)
	GetByCycleFunc        func(ctx context.Context, cardID string, key cycle.Key) (*invoice.Invoice, error)
	ListByCardIDFunc      func(ctx context.Context, cardID string) ([]*invoice.Invoice, error)
	ListInstallmentsFunc  func(ctx context.Context, invoiceID string) ([]*invoice.Installment, error)
	ExecutePurchaseFunc   func(ctx context.Context, params invoice.PurchaseParams) (*invoice.PurchaseResult, error)
	ExecuteSettlementFunc func(ctx context.Context, params invoice.SettleParams) (*invoice.SettleResult, error)
}

func (m *MockInvoiceRepo) GetByID(ctx context.Context, id string) (*invoice.Invoice, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return nil, invoice.ErrInvoiceNotFound
}

func (m *MockInvoiceRepo) GetByCycle(ctx context.Context, cardID string, key cycle.Key) (*invoice.Invoice, error) {
	if m.GetByCycleFunc != nil {
		return m.GetByCycleFunc(ctx, cardID, key)
	}
	return nil, invoice.ErrInvoiceNotFound
}

func (m *MockInvoiceRepo) ListByCardID(ctx context.Context, cardID string) ([]*invoice.Invoice, error) {
	if m.ListByCardIDFunc != nil {
		return m.ListByCardIDFunc(ctx, cardID)
	}
	return nil, nil
}

func (m *MockInvoiceRepo) ListInstallments(ctx context.Context, invoiceID string) ([]*invoice.Installment, error) {
	if m.ListInstallmentsFunc != nil {
		return m.ListInstallmentsFunc(ctx, invoiceID)
	}
	return nil, nil
}

func (m *MockInvoiceRepo) ExecutePurchase(ctx context.Context, params invoice.PurchaseParams) (*invoice.PurchaseResult, error) {
	if m.ExecutePurchaseFunc != nil {
		return m.ExecutePurchaseFunc(ctx, params)
	}
	return nil, nil
}

func (m *MockInvoiceRepo) ExecuteSettlement(ctx context.Context, params invoice.SettleParams) (*invoice.SettleResult, error) {
	if m.ExecuteSettlementFunc != nil {
		return m.ExecuteSettlementFunc(ctx, params)
	}
	return nil, nil
}

func ownedCard(closingDay, dueDay int) *MockCardRepo {
	return &MockCardRepo{
		GetByIDFunc: func(ctx context.Context, id string) (*card.Card, error) {
			return &card.Card{
				ID:         id,
				UserID:     1,
				Name:       "Nubank",
				LimitTotal: 500000,
				ClosingDay: closingDay,
				DueDay:     dueDay,
			}, nil
		},
	}
}

func TestHandlePayInvoice(t *testing.T) {
	// Invoice for March 2025 on a card that closes on the 5th, due on the 15th.
	pendingInvoice := func() *invoice.Invoice {
		return &invoice.Invoice{ID: "inv-1", CardID: "card-1", Month: 3, Year: 2025, Total: 30000, Status: invoice.StatusPending}
	}

	tests := []struct {
		name           string
		asOf           string
		inv            *invoice.Invoice
		expectedStatus int
		expectedReason string
	}{
		{
			name:           "Inside Window",
			asOf:           "2025-03-10",
			inv:            pendingInvoice(),
			expectedStatus: http.StatusOK,
		},
		{
			name:           "After Due Day",
			asOf:           "2025-03-20",
			inv:            pendingInvoice(),
			expectedStatus: http.StatusConflict,
			expectedReason: "outside the payable window",
		},
		{
			name:           "Wrong Cycle",
			asOf:           "2025-04-10",
			inv:            pendingInvoice(),
			expectedStatus: http.StatusConflict,
			expectedReason: "only the current month's invoice can be paid",
		},
		{
			name: "Already Paid",
			asOf: "2025-03-10",
			inv: &invoice.Invoice{
				ID: "inv-1", CardID: "card-1", Month: 3, Year: 2025, Total: 30000, Status: invoice.StatusPaid,
			},
			expectedStatus: http.StatusConflict,
			expectedReason: "invoice already paid",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &MockInvoiceRepo{
				GetByIDFunc: func(ctx context.Context, id string) (*invoice.Invoice, error) {
					return tt.inv, nil
				},
				ExecuteSettlementFunc: func(ctx context.Context, params invoice.SettleParams) (*invoice.SettleResult, error) {
					paid := *tt.inv
					paid.Status = invoice.StatusPaid
					paid.PaidAt = &params.PaidAt
					return &invoice.SettleResult{Invoice: &paid, Released: paid.Total}, nil
				},
			}
			handler := NewInvoiceHandler(invoice.NewService(repo, ownedCard(5, 15), nil))

			body, _ := json.Marshal(map[string]string{"asOf": tt.asOf})
			req := authedRequest(http.MethodPost, "/api/invoices/inv-1/pay", body)
			req.SetPathValue("id", "inv-1")
			rr := httptest.NewRecorder()
			handler.HandlePayInvoice(rr, req)

			if rr.Code != tt.expectedStatus {
				t.Fatalf("status = %d, want %d, body %s", rr.Code, tt.expectedStatus, rr.Body.String())
			}

			if tt.expectedStatus == http.StatusOK {
				var resp InvoiceResponse
				json.NewDecoder(rr.Body).Decode(&resp)
				if resp.Status != invoice.StatusPaid {
					t.Errorf("status = %q, want paid", resp.Status)
				}
				return
			}

			var errResp errorResponse
			json.NewDecoder(rr.Body).Decode(&errResp)
			if errResp.Error != "not_payable" {
				t.Errorf("error = %q, want not_payable", errResp.Error)
			}
			if errResp.Reason != tt.expectedReason {
				t.Errorf("reason = %q, want %q", errResp.Reason, tt.expectedReason)
			}
		})
	}
}

func TestHandlePayInvoice_WindowDetailsInBody(t *testing.T) {
	repo := &MockInvoiceRepo{
		GetByIDFunc: func(ctx context.Context, id string) (*invoice.Invoice, error) {
			return &invoice.Invoice{ID: id, CardID: "card-1", Month: 3, Year: 2025, Total: 30000, Status: invoice.StatusPending}, nil
		},
	}
	handler := NewInvoiceHandler(invoice.NewService(repo, ownedCard(5, 15), nil))

	body, _ := json.Marshal(map[string]string{"asOf": "2025-03-02"})
	req := authedRequest(http.MethodPost, "/api/invoices/inv-1/pay", body)
	req.SetPathValue("id", "inv-1")
	rr := httptest.NewRecorder()
	handler.HandlePayInvoice(rr, req)

	if rr.Code != http.StatusConflict {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusConflict)
	}

	var errResp errorResponse
	json.NewDecoder(rr.Body).Decode(&errResp)
	if errResp.ClosingDay != 5 || errResp.DueDay != 15 {
		t.Errorf("window = %d..%d, want 5..15", errResp.ClosingDay, errResp.DueDay)
	}
}

func TestHandleCardInvoices(t *testing.T) {
	repo := &MockInvoiceRepo{
		ListByCardIDFunc: func(ctx context.Context, cardID string) ([]*invoice.Invoice, error) {
			return []*invoice.Invoice{
				{ID: "inv-2", CardID: cardID, Month: 4, Year: 2025, Total: 10000, Status: invoice.StatusPending},
				{ID: "inv-1", CardID: cardID, Month: 3, Year: 2025, Total: 30000, Status: invoice.StatusPaid},
			}, nil
		},
		GetByCycleFunc: func(ctx context.Context, cardID string, key cycle.Key) (*invoice.Invoice, error) {
			if key.Month != 3 || key.Year != 2025 {
				return nil, invoice.ErrInvoiceNotFound
			}
			return &invoice.Invoice{ID: "inv-1", CardID: cardID, Month: 3, Year: 2025, Total: 30000, Status: invoice.StatusPaid}, nil
		},
		ListInstallmentsFunc: func(ctx context.Context, invoiceID string) ([]*invoice.Installment, error) {
			now := time.Now()
			return []*invoice.Installment{
				{ID: "ins-1", InvoiceID: invoiceID, PurchaseID: "p-1", Description: "Celular", Amount: 30000, Number: 1, TotalCount: 1, Status: invoice.StatusPaid, PaidAt: &now},
			}, nil
		},
	}
	handler := NewInvoiceHandler(invoice.NewService(repo, ownedCard(5, 15), nil))

	t.Run("List", func(t *testing.T) {
		req := authedRequest(http.MethodGet, "/api/cards/card-1/invoices", nil)
		req.SetPathValue("id", "card-1")
		rr := httptest.NewRecorder()
		handler.HandleCardInvoices(rr, req)

		if rr.Code != http.StatusOK {
			t.Fatalf("status = %d, want %d", rr.Code, http.StatusOK)
		}
		var invoices []InvoiceResponse
		json.NewDecoder(rr.Body).Decode(&invoices)
		if len(invoices) != 2 {
			t.Errorf("response length = %d, want 2", len(invoices))
		}
	})

	t.Run("Detail", func(t *testing.T) {
		req := authedRequest(http.MethodGet, "/api/cards/card-1/invoices?month=3&year=2025", nil)
		req.SetPathValue("id", "card-1")
		rr := httptest.NewRecorder()
		handler.HandleCardInvoices(rr, req)

		if rr.Code != http.StatusOK {
			t.Fatalf("status = %d, want %d, body %s", rr.Code, http.StatusOK, rr.Body.String())
		}
		var detail InvoiceDetailResponse
		json.NewDecoder(rr.Body).Decode(&detail)
		if detail.ID != "inv-1" {
			t.Errorf("id = %q, want inv-1", detail.ID)
		}
		if len(detail.Installments) != 1 {
			t.Errorf("installments = %d, want 1", len(detail.Installments))
		}
	})

	t.Run("Unknown Cycle", func(t *testing.T) {
		req := authedRequest(http.MethodGet, "/api/cards/card-1/invoices?month=1&year=2020", nil)
		req.SetPathValue("id", "card-1")
		rr := httptest.NewRecorder()
		handler.HandleCardInvoices(rr, req)

		if rr.Code != http.StatusNotFound {
			t.Errorf("status = %d, want %d", rr.Code, http.StatusNotFound)
		}
	})
}
