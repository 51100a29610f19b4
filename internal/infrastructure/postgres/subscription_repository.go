package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"fatura/internal/domain/cycle"
	"fatura/internal/domain/subscription"
)

type SubscriptionRepository struct {
	db *DB
}

func NewSubscriptionRepository(db *DB) *SubscriptionRepository {
	return &SubscriptionRepository{db: db}
}

const subscriptionColumns = `id, user_id, card_id, name, amount, billing_day, category, status, last_posted_month, last_posted_year, created_at`

func (r *SubscriptionRepository) Create(ctx context.Context, params subscription.CreateParams) (*subscription.Subscription, error) {
	query := `
		INSERT INTO subscriptions (user_id, card_id, name, amount, billing_day, category)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING ` + subscriptionColumns

	row := r.db.QueryRowContext(
		ctx, query,
		params.UserID, params.CardID, params.Name, params.Amount, params.BillingDay, params.Category,
	)
	sub, err := scanSubscription(row)
	if err != nil {
		return nil, classify(fmt.Errorf("failed to create subscription: %w", err))
	}
	return sub, nil
}

func (r *SubscriptionRepository) GetByID(ctx context.Context, id string) (*subscription.Subscription, error) {
	query := `SELECT ` + subscriptionColumns + ` FROM subscriptions WHERE id = $1`

	sub, err := scanSubscription(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, subscription.ErrSubscriptionNotFound
	}
	if err != nil {
		return nil, classify(fmt.Errorf("failed to get subscription: %w", err))
	}
	return sub, nil
}

func (r *SubscriptionRepository) ListByUserID(ctx context.Context, userID int64) ([]*subscription.Subscription, error) {
	query := `SELECT ` + subscriptionColumns + ` FROM subscriptions WHERE user_id = $1 ORDER BY created_at`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, classify(fmt.Errorf("failed to list subscriptions: %w", err))
	}
	defer rows.Close()

	return scanSubscriptions(rows)
}

// ListDueOn clamps the billing day to the month's last day, so a day-31
// subscription still fires in February.
func (r *SubscriptionRepository) ListDueOn(ctx context.Context, asOf time.Time) ([]*subscription.Subscription, error) {
	query := `
		SELECT ` + subscriptionColumns + `
		FROM subscriptions
		WHERE status = 'active'
		  AND LEAST(billing_day, EXTRACT(DAY FROM (date_trunc('month', $1::date) + interval '1 month - 1 day'))::int) <= $2
		  AND (last_posted_year <> $3 OR last_posted_month <> $4)
		ORDER BY user_id, created_at
	`

	rows, err := r.db.QueryContext(ctx, query, asOf, asOf.Day(), asOf.Year(), int(asOf.Month()))
	if err != nil {
		return nil, classify(fmt.Errorf("failed to list due subscriptions: %w", err))
	}
	defer rows.Close()

	return scanSubscriptions(rows)
}

func (r *SubscriptionRepository) MarkPosted(ctx context.Context, id string, key cycle.Key) error {
	query := `UPDATE subscriptions SET last_posted_month = $2, last_posted_year = $3 WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, id, key.Month, key.Year)
	if err != nil {
		return classify(fmt.Errorf("failed to mark subscription posted: %w", err))
	}
	return requireSubscriptionRow(result)
}

func (r *SubscriptionRepository) SetStatus(ctx context.Context, id, status string) error {
	query := `UPDATE subscriptions SET status = $2 WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, id, status)
	if err != nil {
		return classify(fmt.Errorf("failed to set subscription status: %w", err))
	}
	return requireSubscriptionRow(result)
}

func (r *SubscriptionRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM subscriptions WHERE id = $1`, id)
	if err != nil {
		return classify(fmt.Errorf("failed to delete subscription: %w", err))
	}
	return requireSubscriptionRow(result)
}

func requireSubscriptionRow(result sql.Result) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return subscription.ErrSubscriptionNotFound
	}
	return nil
}

func scanSubscription(row rowScanner) (*subscription.Subscription, error) {
	var sub subscription.Subscription
	err := row.Scan(
		&sub.ID, &sub.UserID, &sub.CardID, &sub.Name, &sub.Amount,
		&sub.BillingDay, &sub.Category, &sub.Status,
		&sub.LastPostedMonth, &sub.LastPostedYear, &sub.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

func scanSubscriptions(rows *sql.Rows) ([]*subscription.Subscription, error) {
	var subs []*subscription.Subscription
	for rows.Next() {
		sub, err := scanSubscription(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan subscription: %w", err)
		}
		subs = append(subs, sub)
	}

	if err := rows.Err(); err != nil {
		return nil, classify(fmt.Errorf("error iterating subscriptions: %w", err))
	}
	return subs, nil
}
