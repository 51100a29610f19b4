package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"fatura/internal/domain/card"
	"fatura/internal/domain/money"
)

type CardRepository struct {
	db *DB
}

func NewCardRepository(db *DB) *CardRepository {
	return &CardRepository{db: db}
}

const cardColumns = `id, user_id, name, number, color, limit_total, limit_used, closing_day, due_day, created_at, updated_at`

func (r *CardRepository) Create(ctx context.Context, params card.CreateParams) (*card.Card, error) {
	query := `
		INSERT INTO cards (user_id, name, number, color, limit_total, closing_day, due_day)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING ` + cardColumns

	var c card.Card
	err := r.db.QueryRowContext(
		ctx, query,
		params.UserID, params.Name, params.Number, params.Color,
		params.LimitTotal, params.ClosingDay, params.DueDay,
	).Scan(
		&c.ID, &c.UserID, &c.Name, &c.Number, &c.Color,
		&c.LimitTotal, &c.LimitUsed, &c.ClosingDay, &c.DueDay,
		&c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, classify(fmt.Errorf("failed to create card: %w", err))
	}
	return &c, nil
}

func (r *CardRepository) GetByID(ctx context.Context, id string) (*card.Card, error) {
	query := `SELECT ` + cardColumns + ` FROM cards WHERE id = $1`

	var c card.Card
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&c.ID, &c.UserID, &c.Name, &c.Number, &c.Color,
		&c.LimitTotal, &c.LimitUsed, &c.ClosingDay, &c.DueDay,
		&c.CreatedAt, &c.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, card.ErrCardNotFound
	}
	if err != nil {
		return nil, classify(fmt.Errorf("failed to get card: %w", err))
	}
	return &c, nil
}

func (r *CardRepository) ListByUserID(ctx context.Context, userID int64) ([]*card.Card, error) {
	query := `SELECT ` + cardColumns + ` FROM cards WHERE user_id = $1 ORDER BY created_at`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, classify(fmt.Errorf("failed to list cards: %w", err))
	}
	defer rows.Close()

	return scanCards(rows)
}

func (r *CardRepository) ListAll(ctx context.Context) ([]*card.Card, error) {
	query := `SELECT ` + cardColumns + ` FROM cards ORDER BY user_id, created_at`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, classify(fmt.Errorf("failed to list all cards: %w", err))
	}
	defer rows.Close()

	return scanCards(rows)
}

// PendingInstallmentTotal recomputes consumed limit from the installment
// rows. The audit command compares it against the cards.limit_used counter.
func (r *CardRepository) PendingInstallmentTotal(ctx context.Context, cardID string) (money.Cents, error) {
	query := `
		SELECT COALESCE(SUM(ins.amount), 0)
		FROM installments ins
		JOIN invoices inv ON ins.invoice_id = inv.id
		WHERE inv.card_id = $1 AND ins.status = 'pending'
	`

	var total money.Cents
	if err := r.db.QueryRowContext(ctx, query, cardID).Scan(&total); err != nil {
		return 0, classify(fmt.Errorf("failed to sum pending installments: %w", err))
	}
	return total, nil
}

// DeleteCascade removes the card, its invoices and installments through the
// schema's cascades, and its notifications, all in a single transaction.
func (r *CardRepository) DeleteCascade(ctx context.Context, id string) error {
	return r.db.WithinTx(ctx, "db.DeleteCardCascade", func(tx *sql.Tx) error {
		// Notifications reference their card inside the data payload, which
		// foreign keys cannot cascade over.
		_, err := tx.ExecContext(ctx, `
			DELETE FROM notifications n
			USING cards c
			WHERE c.id = $1 AND n.user_id = c.user_id AND n.data->>'card_id' = c.id::text`, id)
		if err != nil {
			return classify(fmt.Errorf("failed to delete card notifications: %w", err))
		}

		result, err := tx.ExecContext(ctx, `DELETE FROM cards WHERE id = $1`, id)
		if err != nil {
			return classify(fmt.Errorf("failed to delete card: %w", err))
		}
		rows, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get affected rows: %w", err)
		}
		if rows == 0 {
			return card.ErrCardNotFound
		}
		return nil
	})
}

func scanCards(rows *sql.Rows) ([]*card.Card, error) {
	var cards []*card.Card
	for rows.Next() {
		var c card.Card
		err := rows.Scan(
			&c.ID, &c.UserID, &c.Name, &c.Number, &c.Color,
			&c.LimitTotal, &c.LimitUsed, &c.ClosingDay, &c.DueDay,
			&c.CreatedAt, &c.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan card: %w", err)
		}
		cards = append(cards, &c)
	}

	if err := rows.Err(); err != nil {
		return nil, classify(fmt.Errorf("error iterating cards: %w", err))
	}
	return cards, nil
}
