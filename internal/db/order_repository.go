package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/mwaf/smartstock/internal/models"
)

var ErrOrderNotFound = errors.New("order not found")

type OrderRepository struct {
	db *sql.DB
}

func NewOrderRepository(database *PostgresDB) *OrderRepository {
	return &OrderRepository{db: database.Conn}
}

// Create inserts an order with its items in one transaction. Either the whole
// order is persisted or nothing is.
func (r *OrderRepository) Create(ctx context.Context, order *models.Order) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	orderQuery := `
		INSERT INTO orders (customer_id, status, total_amount)
		VALUES ($1, $2, $3)
		RETURNING id, order_date
	`
	err = tx.QueryRowContext(ctx, orderQuery, order.CustomerID, order.Status, order.TotalAmount).
		Scan(&order.ID, &order.OrderDate)
	if err != nil {
		return fmt.Errorf("failed to insert order: %w", err)
	}

	itemQuery := `
		INSERT INTO order_items (order_id, product_id, quantity, unit_price)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`
	for i := range order.Items {
		order.Items[i].OrderID = order.ID
		err = tx.QueryRowContext(ctx, itemQuery,
			order.ID,
			order.Items[i].ProductID,
			order.Items[i].Quantity,
			order.Items[i].UnitPrice,
		).Scan(&order.Items[i].ID)
		if err != nil {
			return fmt.Errorf("failed to insert order item: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

func (r *OrderRepository) GetAll(ctx context.Context) ([]models.Order, error) {
	return r.queryOrders(ctx, `SELECT id, customer_id, status, total_amount, order_date FROM orders ORDER BY id DESC`)
}

func (r *OrderRepository) GetByCustomer(ctx context.Context, customerID int64) ([]models.Order, error) {
	return r.queryOrders(ctx,
		`SELECT id, customer_id, status, total_amount, order_date FROM orders WHERE customer_id = $1 ORDER BY id DESC`,
		customerID)
}

func (r *OrderRepository) queryOrders(ctx context.Context, query string, args ...interface{}) ([]models.Order, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query orders: %w", err)
	}
	defer rows.Close()

	var orders []models.Order
	for rows.Next() {
		var o models.Order
		err := rows.Scan(&o.ID, &o.CustomerID, &o.Status, &o.TotalAmount, &o.OrderDate)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		orders = append(orders, o)
	}

	return orders, rows.Err()
}

func (r *OrderRepository) GetByID(ctx context.Context, id int64) (*models.Order, error) {
	var order models.Order
	err := r.db.QueryRowContext(ctx,
		`SELECT id, customer_id, status, total_amount, order_date FROM orders WHERE id = $1`, id).
		Scan(&order.ID, &order.CustomerID, &order.Status, &order.TotalAmount, &order.OrderDate)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to get order: %w", err)
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT id, order_id, product_id, quantity, unit_price FROM order_items WHERE order_id = $1 ORDER BY id`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query order items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var item models.OrderItem
		err := rows.Scan(&item.ID, &item.OrderID, &item.ProductID, &item.Quantity, &item.UnitPrice)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order item: %w", err)
		}
		order.Items = append(order.Items, item)
	}

	return &order, rows.Err()
}

// UpdateStatus sets a new status and returns the updated order so the caller
// can publish the status-changed event.
func (r *OrderRepository) UpdateStatus(ctx context.Context, id int64, status string) (*models.Order, error) {
	var order models.Order
	err := r.db.QueryRowContext(ctx, `
		UPDATE orders SET status = $1
		WHERE id = $2
		RETURNING id, customer_id, status, total_amount, order_date
	`, status, id).Scan(&order.ID, &order.CustomerID, &order.Status, &order.TotalAmount, &order.OrderDate)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to update order status: %w", err)
	}

	return &order, nil
}
