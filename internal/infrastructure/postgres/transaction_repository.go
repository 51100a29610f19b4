package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"fatura/internal/domain/transaction"
)

type TransactionRepository struct {
	db *DB
}

func NewTransactionRepository(db *DB) *TransactionRepository {
	return &TransactionRepository{db: db}
}

const transactionColumns = `id, user_id, description, amount, type, category, card_id, date, created_at`

func (r *TransactionRepository) Create(ctx context.Context, params transaction.CreateParams) (*transaction.Transaction, error) {
	query := `
		INSERT INTO transactions (user_id, description, amount, type, category, card_id, date)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING ` + transactionColumns

	row := r.db.QueryRowContext(
		ctx, query,
		params.UserID, params.Description, params.Amount, params.Type,
		params.Category, params.CardID, params.Date,
	)
	tx, err := scanTransactionRow(row)
	if err != nil {
		return nil, classify(fmt.Errorf("failed to create transaction: %w", err))
	}
	return tx, nil
}

func (r *TransactionRepository) ListByUserID(ctx context.Context, userID int64, limit, offset int) ([]*transaction.Transaction, error) {
	query := `
		SELECT ` + transactionColumns + `
		FROM transactions
		WHERE user_id = $1
		ORDER BY date DESC, created_at DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.db.QueryContext(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, classify(fmt.Errorf("failed to list transactions: %w", err))
	}
	defer rows.Close()

	return scanTransactions(rows)
}

func (r *TransactionRepository) ListExpensesByUserID(ctx context.Context, userID int64) ([]*transaction.Transaction, error) {
	query := `
		SELECT ` + transactionColumns + `
		FROM transactions
		WHERE user_id = $1 AND type = 'expense'
		ORDER BY date
	`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, classify(fmt.Errorf("failed to list expenses: %w", err))
	}
	defer rows.Close()

	return scanTransactions(rows)
}

func scanTransactionRow(row rowScanner) (*transaction.Transaction, error) {
	var tx transaction.Transaction
	var category, cardID sql.NullString

	err := row.Scan(
		&tx.ID, &tx.UserID, &tx.Description, &tx.Amount, &tx.Type,
		&category, &cardID, &tx.Date, &tx.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if category.Valid {
		tx.Category = &category.String
	}
	if cardID.Valid {
		tx.CardID = &cardID.String
	}
	return &tx, nil
}

func scanTransactions(rows *sql.Rows) ([]*transaction.Transaction, error) {
	var transactions []*transaction.Transaction
	for rows.Next() {
		tx, err := scanTransactionRow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		transactions = append(transactions, tx)
	}

	if err := rows.Err(); err != nil {
		return nil, classify(fmt.Errorf("error iterating transactions: %w", err))
	}
	return transactions, nil
}
