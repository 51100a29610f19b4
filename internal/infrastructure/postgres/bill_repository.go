package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"fatura/internal/domain/bill"
)

type BillRepository struct {
	db *DB
}

func NewBillRepository(db *DB) *BillRepository {
	return &BillRepository{db: db}
}

const billColumns = `id, user_id, name, amount, due_date, type, status, auto_renew, is_fixed_amount,
	total_installments, current_installment, category, notes, renewed_from, paid_at, created_at`

func (r *BillRepository) Create(ctx context.Context, params bill.CreateParams) (*bill.Bill, error) {
	query := `
		INSERT INTO bills (user_id, name, amount, due_date, type, auto_renew, is_fixed_amount,
		                   total_installments, current_installment, category, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING ` + billColumns

	totalInstallments := params.TotalInstallments
	currentInstallment := params.CurrentInstallment
	if params.Type == bill.TypeFixed {
		totalInstallments, currentInstallment = 1, 1
	}

	row := r.db.QueryRowContext(
		ctx, query,
		params.UserID, params.Name, params.Amount, params.DueDate, params.Type,
		params.AutoRenew, params.IsFixedAmount, totalInstallments, currentInstallment,
		params.Category, params.Notes,
	)
	b, err := scanBillRow(row)
	if err != nil {
		return nil, classify(fmt.Errorf("failed to create bill: %w", err))
	}
	return b, nil
}

func (r *BillRepository) GetByID(ctx context.Context, id string) (*bill.Bill, error) {
	query := `SELECT ` + billColumns + ` FROM bills WHERE id = $1`

	b, err := scanBillRow(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, bill.ErrBillNotFound
	}
	if err != nil {
		return nil, classify(fmt.Errorf("failed to get bill: %w", err))
	}
	return b, nil
}

func (r *BillRepository) ListByUserID(ctx context.Context, userID int64) ([]*bill.Bill, error) {
	query := `SELECT ` + billColumns + ` FROM bills WHERE user_id = $1 ORDER BY due_date, created_at`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, classify(fmt.Errorf("failed to list bills: %w", err))
	}
	defer rows.Close()

	return scanBills(rows)
}

func (r *BillRepository) ListPendingDueWithin(ctx context.Context, until time.Time) ([]*bill.Bill, error) {
	query := `SELECT ` + billColumns + ` FROM bills WHERE status = 'pending' AND due_date <= $1 ORDER BY user_id, due_date`

	rows, err := r.db.QueryContext(ctx, query, until)
	if err != nil {
		return nil, classify(fmt.Errorf("failed to list due bills: %w", err))
	}
	defer rows.Close()

	return scanBills(rows)
}

func (r *BillRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM bills WHERE id = $1`, id)
	if err != nil {
		return classify(fmt.Errorf("failed to delete bill: %w", err))
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return bill.ErrBillNotFound
	}
	return nil
}

// ExecuteSettlement pays a bill in one transaction. The status flip is
// guarded on pending so a retried or concurrent settlement finds zero
// affected rows and bails out before the expense or the successor is
// written. The partial unique index on renewed_from is the backstop
// against a duplicate successor.
func (r *BillRepository) ExecuteSettlement(ctx context.Context, params bill.SettleParams) (*bill.SettleResult, error) {
	var result *bill.SettleResult
	err := r.db.WithinTx(ctx, "db.SettleBill", func(tx *sql.Tx) error {
		row := tx.QueryRowContext(ctx, `
			UPDATE bills SET status = 'paid', paid_at = $2
			WHERE id = $1 AND status = 'pending'
			RETURNING `+billColumns,
			params.BillID, params.PaidAt,
		)
		paid, err := scanBillRow(row)
		if errors.Is(err, sql.ErrNoRows) {
			return bill.ErrBillNotPayable
		}
		if err != nil {
			return classify(fmt.Errorf("failed to settle bill: %w", err))
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO transactions (user_id, description, amount, type, category, date)
			VALUES ($1, $2, $3, $4, $5, $6)`,
			params.Expense.UserID, params.Expense.Description, params.Expense.Amount,
			params.Expense.Type, params.Expense.Category, params.Expense.Date,
		)
		if err != nil {
			return classify(fmt.Errorf("failed to record bill payment: %w", err))
		}

		result = &bill.SettleResult{Bill: paid}
		if params.Successor == nil {
			return nil
		}

		s := params.Successor
		row = tx.QueryRowContext(ctx, `
			INSERT INTO bills (user_id, name, amount, due_date, type, status, auto_renew, is_fixed_amount,
			                   total_installments, current_installment, category, notes, renewed_from)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
			RETURNING `+billColumns,
			s.UserID, s.Name, s.Amount, s.DueDate, s.Type, s.Status,
			s.AutoRenew, s.IsFixedAmount, s.TotalInstallments, s.CurrentInstallment,
			s.Category, s.Notes, s.RenewedFrom,
		)
		successor, err := scanBillRow(row)
		if err != nil {
			return classify(fmt.Errorf("failed to create successor bill: %w", err))
		}
		result.Successor = successor
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBillRow(row rowScanner) (*bill.Bill, error) {
	var b bill.Bill
	var category, notes, renewedFrom sql.NullString
	var paidAt sql.NullTime

	err := row.Scan(
		&b.ID, &b.UserID, &b.Name, &b.Amount, &b.DueDate, &b.Type, &b.Status,
		&b.AutoRenew, &b.IsFixedAmount, &b.TotalInstallments, &b.CurrentInstallment,
		&category, &notes, &renewedFrom, &paidAt, &b.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if category.Valid {
		b.Category = &category.String
	}
	if notes.Valid {
		b.Notes = &notes.String
	}
	if renewedFrom.Valid {
		b.RenewedFrom = &renewedFrom.String
	}
	if paidAt.Valid {
		b.PaidAt = &paidAt.Time
	}
	return &b, nil
}

func scanBills(rows *sql.Rows) ([]*bill.Bill, error) {
	var bills []*bill.Bill
	for rows.Next() {
		b, err := scanBillRow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan bill: %w", err)
		}
		bills = append(bills, b)
	}

	if err := rows.Err(); err != nil {
		return nil, classify(fmt.Errorf("error iterating bills: %w", err))
	}
	return bills, nil
}
