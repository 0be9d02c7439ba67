package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/mwaf/smartstock/internal/models"
)

type AdminNotificationRepository struct {
	db *sql.DB
}

func NewAdminNotificationRepository(database *PostgresDB) *AdminNotificationRepository {
	return &AdminNotificationRepository{db: database.Conn}
}

func (r *AdminNotificationRepository) Create(ctx context.Context, n *models.AdminNotification) error {
	query := `
		INSERT INTO admin_notifications
			(type, product_id, product_name, current_stock, level, message, read)
		VALUES ($1, $2, $3, $4, $5, $6, false)
		RETURNING id, created_at
	`
	err := r.db.QueryRowContext(ctx, query,
		n.Type, n.ProductID, n.ProductName, n.CurrentStock, n.Level, n.Message,
	).Scan(&n.ID, &n.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create admin notification: %w", err)
	}

	return nil
}

// UnreadLowStockCountSince counts unread low-stock alerts for a product
// created after the given time. The dedup policy allows at most one unread
// alert per product inside the rolling window.
func (r *AdminNotificationRepository) UnreadLowStockCountSince(ctx context.Context, productID int64, since time.Time) (int64, error) {
	var count int64
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM admin_notifications
		WHERE product_id = $1 AND type = $2 AND read = false AND created_at >= $3
	`, productID, models.AdminNotificationTypeLowStock, since).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count low stock notifications: %w", err)
	}
	return count, nil
}

// List returns admin notifications newest first, optionally filtered by read
// state.
func (r *AdminNotificationRepository) List(ctx context.Context, read *bool) ([]models.AdminNotification, error) {
	query := `
		SELECT id, type, product_id, product_name, current_stock, level, message, read, created_at
		FROM admin_notifications`
	var args []interface{}
	if read != nil {
		query += ` WHERE read = $1`
		args = append(args, *read)
	}
	query += ` ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query admin notifications: %w", err)
	}
	defer rows.Close()

	var notifications []models.AdminNotification
	for rows.Next() {
		var n models.AdminNotification
		err := rows.Scan(&n.ID, &n.Type, &n.ProductID, &n.ProductName, &n.CurrentStock,
			&n.Level, &n.Message, &n.Read, &n.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan admin notification: %w", err)
		}
		notifications = append(notifications, n)
	}

	return notifications, rows.Err()
}

func (r *AdminNotificationRepository) MarkRead(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE admin_notifications SET read = true WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to mark admin notification read: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return ErrNotificationNotFound
	}

	return nil
}

func (r *AdminNotificationRepository) UnreadCount(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM admin_notifications WHERE read = false`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count unread admin notifications: %w", err)
	}
	return count, nil
}
