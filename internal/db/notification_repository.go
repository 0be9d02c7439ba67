package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/mwaf/smartstock/internal/models"
)

var (
	ErrNotificationNotFound = errors.New("notification not found")
	ErrNotificationNotSent  = errors.New("notification is not in SENT status")
)

type NotificationRepository struct {
	db *sql.DB
}

func NewNotificationRepository(database *PostgresDB) *NotificationRepository {
	return &NotificationRepository{db: database.Conn}
}

// Create persists a notification in its final state. The fan-out consumer
// builds the record in memory, attempts delivery, then stores the outcome
// exactly once.
func (r *NotificationRepository) Create(ctx context.Context, n *models.Notification) error {
	query := `
		INSERT INTO notifications
			(type, status, recipient_email, recipient_user_id, subject, content, error_message, sent_at)
		VALUES ($1, $2, $3, $4, $5, $6, NULLIF($7, ''), $8)
		RETURNING id, created_at
	`
	err := r.db.QueryRowContext(ctx, query,
		n.Type, n.Status, n.RecipientEmail, n.RecipientUserID, n.Subject, n.Content, n.ErrorMessage, n.SentAt,
	).Scan(&n.ID, &n.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create notification: %w", err)
	}

	return nil
}

func (r *NotificationRepository) GetByID(ctx context.Context, id int64) (*models.Notification, error) {
	n, err := r.scanOne(r.db.QueryRowContext(ctx, selectNotification+` WHERE id = $1`, id))
	if err == sql.ErrNoRows {
		return nil, ErrNotificationNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get notification: %w", err)
	}
	return n, nil
}

func (r *NotificationRepository) GetByUser(ctx context.Context, userID int64) ([]models.Notification, error) {
	rows, err := r.db.QueryContext(ctx,
		selectNotification+` WHERE recipient_user_id = $1 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query notifications: %w", err)
	}
	defer rows.Close()

	var notifications []models.Notification
	for rows.Next() {
		n, err := r.scanOne(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan notification: %w", err)
		}
		notifications = append(notifications, *n)
	}

	return notifications, rows.Err()
}

// MarkRead moves a SENT notification to READ. Pending or failed records are
// not readable.
func (r *NotificationRepository) MarkRead(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE notifications SET status = $1, read_at = NOW()
		WHERE id = $2 AND status = $3
	`, models.NotificationStatusRead, id, models.NotificationStatusSent)
	if err != nil {
		return fmt.Errorf("failed to mark notification read: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		if _, err := r.GetByID(ctx, id); err != nil {
			return err
		}
		return ErrNotificationNotSent
	}

	return nil
}

func (r *NotificationRepository) UnreadCountByUser(ctx context.Context, userID int64) (int64, error) {
	var count int64
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM notifications
		WHERE recipient_user_id = $1 AND status = $2
	`, userID, models.NotificationStatusSent).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count unread notifications: %w", err)
	}
	return count, nil
}

const selectNotification = `
	SELECT id, type, status, recipient_email, recipient_user_id, subject, content,
	       COALESCE(error_message, ''), created_at, sent_at, read_at
	FROM notifications`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func (r *NotificationRepository) scanOne(row rowScanner) (*models.Notification, error) {
	var n models.Notification
	err := row.Scan(&n.ID, &n.Type, &n.Status, &n.RecipientEmail, &n.RecipientUserID,
		&n.Subject, &n.Content, &n.ErrorMessage, &n.CreatedAt, &n.SentAt, &n.ReadAt)
	if err != nil {
		return nil, err
	}
	return &n, nil
}
