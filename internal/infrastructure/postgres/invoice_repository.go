package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"fatura/internal/domain/card"
	"fatura/internal/domain/cycle"
	"fatura/internal/domain/invoice"
	"fatura/internal/domain/money"
	"fatura/internal/domain/transaction"
)

type InvoiceRepository struct {
	db *DB
}

func NewInvoiceRepository(db *DB) *InvoiceRepository {
	return &InvoiceRepository{db: db}
}

const invoiceColumns = `id, card_id, month, year, total, status, paid_at, created_at`

func (r *InvoiceRepository) GetByID(ctx context.Context, id string) (*invoice.Invoice, error) {
	query := `SELECT ` + invoiceColumns + ` FROM invoices WHERE id = $1`

	var inv invoice.Invoice
	var paidAt sql.NullTime
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&inv.ID, &inv.CardID, &inv.Month, &inv.Year, &inv.Total,
		&inv.Status, &paidAt, &inv.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, invoice.ErrInvoiceNotFound
	}
	if err != nil {
		return nil, classify(fmt.Errorf("failed to get invoice: %w", err))
	}
	if paidAt.Valid {
		inv.PaidAt = &paidAt.Time
	}
	return &inv, nil
}

func (r *InvoiceRepository) GetByCycle(ctx context.Context, cardID string, key cycle.Key) (*invoice.Invoice, error) {
	query := `SELECT ` + invoiceColumns + ` FROM invoices WHERE card_id = $1 AND month = $2 AND year = $3`

	var inv invoice.Invoice
	var paidAt sql.NullTime
	err := r.db.QueryRowContext(ctx, query, cardID, key.Month, key.Year).Scan(
		&inv.ID, &inv.CardID, &inv.Month, &inv.Year, &inv.Total,
		&inv.Status, &paidAt, &inv.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, invoice.ErrInvoiceNotFound
	}
	if err != nil {
		return nil, classify(fmt.Errorf("failed to get invoice by cycle: %w", err))
	}
	if paidAt.Valid {
		inv.PaidAt = &paidAt.Time
	}
	return &inv, nil
}

func (r *InvoiceRepository) ListByCardID(ctx context.Context, cardID string) ([]*invoice.Invoice, error) {
	query := `SELECT ` + invoiceColumns + ` FROM invoices WHERE card_id = $1 ORDER BY year DESC, month DESC`

	rows, err := r.db.QueryContext(ctx, query, cardID)
	if err != nil {
		return nil, classify(fmt.Errorf("failed to list invoices: %w", err))
	}
	defer rows.Close()

	var invoices []*invoice.Invoice
	for rows.Next() {
		var inv invoice.Invoice
		var paidAt sql.NullTime
		err := rows.Scan(
			&inv.ID, &inv.CardID, &inv.Month, &inv.Year, &inv.Total,
			&inv.Status, &paidAt, &inv.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan invoice: %w", err)
		}
		if paidAt.Valid {
			inv.PaidAt = &paidAt.Time
		}
		invoices = append(invoices, &inv)
	}

	if err := rows.Err(); err != nil {
		return nil, classify(fmt.Errorf("error iterating invoices: %w", err))
	}
	return invoices, nil
}

func (r *InvoiceRepository) ListInstallments(ctx context.Context, invoiceID string) ([]*invoice.Installment, error) {
	query := `
		SELECT id, invoice_id, purchase_id, user_id, description, amount, number, total_count, status, paid_at, created_at
		FROM installments
		WHERE invoice_id = $1
		ORDER BY created_at, number
	`

	rows, err := r.db.QueryContext(ctx, query, invoiceID)
	if err != nil {
		return nil, classify(fmt.Errorf("failed to list installments: %w", err))
	}
	defer rows.Close()

	var installments []*invoice.Installment
	for rows.Next() {
		var ins invoice.Installment
		var paidAt sql.NullTime
		err := rows.Scan(
			&ins.ID, &ins.InvoiceID, &ins.PurchaseID, &ins.UserID, &ins.Description,
			&ins.Amount, &ins.Number, &ins.TotalCount, &ins.Status, &paidAt, &ins.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan installment: %w", err)
		}
		if paidAt.Valid {
			ins.PaidAt = &paidAt.Time
		}
		installments = append(installments, &ins)
	}

	if err := rows.Err(); err != nil {
		return nil, classify(fmt.Errorf("error iterating installments: %w", err))
	}
	return installments, nil
}

// ExecutePurchase applies a split purchase in one transaction: it locks the
// card row, re-checks the limit under the lock, creates missing invoices,
// inserts the installments and the expense record, and bumps the consumed
// limit. Concurrent purchases on the same card serialize on the row lock,
// so the limit can never be oversubscribed.
func (r *InvoiceRepository) ExecutePurchase(ctx context.Context, params invoice.PurchaseParams) (*invoice.PurchaseResult, error) {
	var result *invoice.PurchaseResult
	err := r.db.WithinTx(ctx, "db.ExecutePurchase", func(tx *sql.Tx) error {
		c := card.Card{ID: params.CardID}
		err := tx.QueryRowContext(ctx,
			`SELECT user_id, limit_total, limit_used FROM cards WHERE id = $1 FOR UPDATE`,
			params.CardID,
		).Scan(&c.UserID, &c.LimitTotal, &c.LimitUsed)
		if errors.Is(err, sql.ErrNoRows) {
			return card.ErrCardNotFound
		}
		if err != nil {
			return classify(fmt.Errorf("failed to lock card: %w", err))
		}

		if err := c.CanReserve(params.Total); err != nil {
			return err
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO transactions (user_id, description, amount, type, card_id, date)
			VALUES ($1, $2, $3, $4, $5, $6)`,
			params.UserID, params.Description, params.Total, transaction.TypeExpense,
			params.CardID, params.Date,
		)
		if err != nil {
			return classify(fmt.Errorf("failed to record purchase transaction: %w", err))
		}

		before := c.LimitUsed
		var pendingTotal money.Cents
		touched := make(map[string]*invoice.Invoice)

		for _, plan := range params.Plans {
			inv, err := getOrCreateInvoice(ctx, tx, params.CardID, plan.Cycle)
			if err != nil {
				return err
			}

			// Installments landing on an already settled invoice are born
			// paid. They never consume limit, so the counter stays equal to
			// the sum of pending installments.
			status := invoice.StatusPending
			if inv.Status == invoice.StatusPaid {
				status = invoice.StatusPaid
			} else {
				pendingTotal += plan.Amount
			}

			_, err = tx.ExecContext(ctx, `
				INSERT INTO installments (invoice_id, purchase_id, user_id, description, amount, number, total_count, status, paid_at)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8, CASE WHEN $8 = 'paid' THEN now() ELSE NULL END)`,
				inv.ID, params.PurchaseID, params.UserID, params.Description,
				plan.Amount, plan.Number, len(params.Plans), status,
			)
			if err != nil {
				return classify(fmt.Errorf("failed to insert installment: %w", err))
			}

			err = tx.QueryRowContext(ctx,
				`UPDATE invoices SET total = total + $1 WHERE id = $2 RETURNING total`,
				plan.Amount, inv.ID,
			).Scan(&inv.Total)
			if err != nil {
				return classify(fmt.Errorf("failed to update invoice total: %w", err))
			}
			touched[inv.ID] = inv
		}

		if pendingTotal > 0 {
			_, err = tx.ExecContext(ctx,
				`UPDATE cards SET limit_used = limit_used + $1, updated_at = now() WHERE id = $2`,
				pendingTotal, params.CardID,
			)
			if err != nil {
				return classify(fmt.Errorf("failed to reserve limit: %w", err))
			}
		}

		result = &invoice.PurchaseResult{
			LimitTotal:      c.LimitTotal,
			LimitUsedBefore: before,
			LimitUsedAfter:  before + pendingTotal,
		}
		for _, inv := range touched {
			result.Invoices = append(result.Invoices, inv)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func getOrCreateInvoice(ctx context.Context, tx *sql.Tx, cardID string, key cycle.Key) (*invoice.Invoice, error) {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO invoices (card_id, month, year)
		VALUES ($1, $2, $3)
		ON CONFLICT (card_id, month, year) DO NOTHING`,
		cardID, key.Month, key.Year,
	)
	if err != nil {
		return nil, classify(fmt.Errorf("failed to create invoice: %w", err))
	}

	var inv invoice.Invoice
	var paidAt sql.NullTime
	err = tx.QueryRowContext(ctx,
		`SELECT `+invoiceColumns+` FROM invoices WHERE card_id = $1 AND month = $2 AND year = $3 FOR UPDATE`,
		cardID, key.Month, key.Year,
	).Scan(
		&inv.ID, &inv.CardID, &inv.Month, &inv.Year, &inv.Total,
		&inv.Status, &paidAt, &inv.CreatedAt,
	)
	if err != nil {
		return nil, classify(fmt.Errorf("failed to load invoice: %w", err))
	}
	if paidAt.Valid {
		inv.PaidAt = &paidAt.Time
	}
	return &inv, nil
}

// ExecuteSettlement pays an invoice in one transaction: status flip guarded
// on pending, installment flips, and limit release. The guard's
// rows-affected count makes a concurrent double pay lose cleanly.
func (r *InvoiceRepository) ExecuteSettlement(ctx context.Context, params invoice.SettleParams) (*invoice.SettleResult, error) {
	var result *invoice.SettleResult
	err := r.db.WithinTx(ctx, "db.ExecuteSettlement", func(tx *sql.Tx) error {
		var cardID string
		err := tx.QueryRowContext(ctx,
			`SELECT card_id FROM invoices WHERE id = $1`, params.InvoiceID,
		).Scan(&cardID)
		if errors.Is(err, sql.ErrNoRows) {
			return invoice.ErrInvoiceNotFound
		}
		if err != nil {
			return classify(fmt.Errorf("failed to load invoice: %w", err))
		}

		// Same lock order as ExecutePurchase: card first.
		_, err = tx.ExecContext(ctx, `SELECT id FROM cards WHERE id = $1 FOR UPDATE`, cardID)
		if err != nil {
			return classify(fmt.Errorf("failed to lock card: %w", err))
		}

		var inv invoice.Invoice
		var paidAt sql.NullTime
		err = tx.QueryRowContext(ctx, `
			UPDATE invoices SET status = 'paid', paid_at = $2
			WHERE id = $1 AND status = 'pending'
			RETURNING `+invoiceColumns,
			params.InvoiceID, params.PaidAt,
		).Scan(
			&inv.ID, &inv.CardID, &inv.Month, &inv.Year, &inv.Total,
			&inv.Status, &paidAt, &inv.CreatedAt,
		)
		if errors.Is(err, sql.ErrNoRows) {
			return invoice.ErrInvoiceNotPending
		}
		if err != nil {
			return classify(fmt.Errorf("failed to settle invoice: %w", err))
		}
		if paidAt.Valid {
			inv.PaidAt = &paidAt.Time
		}

		var released money.Cents
		err = tx.QueryRowContext(ctx, `
			WITH flipped AS (
				UPDATE installments SET status = 'paid', paid_at = $2
				WHERE invoice_id = $1 AND status = 'pending'
				RETURNING amount
			)
			SELECT COALESCE(SUM(amount), 0) FROM flipped`,
			params.InvoiceID, params.PaidAt,
		).Scan(&released)
		if err != nil {
			return classify(fmt.Errorf("failed to settle installments: %w", err))
		}

		var usedAfter money.Cents
		err = tx.QueryRowContext(ctx, `
			UPDATE cards SET limit_used = limit_used - $1, updated_at = now()
			WHERE id = $2
			RETURNING limit_used`,
			released, cardID,
		).Scan(&usedAfter)
		if err != nil {
			return classify(fmt.Errorf("failed to release limit: %w", err))
		}

		result = &invoice.SettleResult{Invoice: &inv, Released: released, LimitUsedAfter: usedAfter}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}
