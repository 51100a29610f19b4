package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"fatura/internal/domain/notification"
)

type NotificationRepository struct {
	db *DB
}

func NewNotificationRepository(db *DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

func (r *NotificationRepository) Create(ctx context.Context, params notification.CreateParams) (*notification.Notification, error) {
	var data []byte
	if params.Data != nil {
		var err error
		data, err = json.Marshal(params.Data)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal notification data: %w", err)
		}
	}

	query := `
		INSERT INTO notifications (user_id, type, title, message, data)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, user_id, type, title, message, data, read, created_at
	`

	n, err := scanNotificationRow(r.db.QueryRowContext(ctx, query,
		params.UserID, params.Type, params.Title, params.Message, data))
	if err != nil {
		return nil, classify(fmt.Errorf("failed to create notification: %w", err))
	}
	return n, nil
}

func (r *NotificationRepository) ListByUserID(ctx context.Context, userID int64, page, perPage int) ([]*notification.Notification, int, error) {
	var total int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM notifications WHERE user_id = $1`, userID,
	).Scan(&total)
	if err != nil {
		return nil, 0, classify(fmt.Errorf("failed to count notifications: %w", err))
	}

	query := `
		SELECT id, user_id, type, title, message, data, read, created_at
		FROM notifications
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.db.QueryContext(ctx, query, userID, perPage, (page-1)*perPage)
	if err != nil {
		return nil, 0, classify(fmt.Errorf("failed to list notifications: %w", err))
	}
	defer rows.Close()

	var notifications []*notification.Notification
	for rows.Next() {
		n, err := scanNotificationRow(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan notification: %w", err)
		}
		notifications = append(notifications, n)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, classify(fmt.Errorf("error iterating notifications: %w", err))
	}
	return notifications, total, nil
}

func (r *NotificationRepository) MarkRead(ctx context.Context, notificationID string, userID int64) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE notifications SET read = true WHERE id = $1 AND user_id = $2`,
		notificationID, userID,
	)
	if err != nil {
		return classify(fmt.Errorf("failed to mark notification read: %w", err))
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return notification.ErrNotificationNotFound
	}
	return nil
}

func (r *NotificationRepository) Delete(ctx context.Context, notificationID string, userID int64) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM notifications WHERE id = $1 AND user_id = $2`,
		notificationID, userID,
	)
	if err != nil {
		return classify(fmt.Errorf("failed to delete notification: %w", err))
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return notification.ErrNotificationNotFound
	}
	return nil
}

func (r *NotificationRepository) ExistsSince(ctx context.Context, userID int64, notifType string, since time.Time) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM notifications WHERE user_id = $1 AND type = $2 AND created_at >= $3)`,
		userID, notifType, since,
	).Scan(&exists)
	if err != nil {
		return false, classify(fmt.Errorf("failed to check notification existence: %w", err))
	}
	return exists, nil
}

func scanNotificationRow(row rowScanner) (*notification.Notification, error) {
	var n notification.Notification
	var data []byte

	err := row.Scan(&n.ID, &n.UserID, &n.Type, &n.Title, &n.Message, &data, &n.Read, &n.CreatedAt)
	if err != nil {
		return nil, err
	}

	if len(data) > 0 {
		if err := json.Unmarshal(data, &n.Data); err != nil {
			return nil, fmt.Errorf("failed to unmarshal notification data: %w", err)
		}
	}
	return &n, nil
}
