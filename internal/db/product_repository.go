package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/mwaf/smartstock/internal/models"
)

var (
	ErrProductNotFound   = errors.New("product not found")
	ErrInsufficientStock = errors.New("insufficient stock")

	// ErrReductionApplied means the (order, product) reduction was already
	// recorded by an earlier delivery or by the synchronous path. Stock is
	// left untouched.
	ErrReductionApplied = errors.New("stock reduction already applied")
)

type ProductRepository struct {
	db *sql.DB
}

func NewProductRepository(database *PostgresDB) *ProductRepository {
	return &ProductRepository{db: database.Conn}
}

func (r *ProductRepository) GetAll(ctx context.Context) ([]models.Product, error) {
	query := `SELECT id, name, description, price, stock_quantity, created_at FROM products ORDER BY id`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	defer rows.Close()

	var products []models.Product
	for rows.Next() {
		var p models.Product
		err := rows.Scan(&p.ID, &p.Name, &p.Description, &p.Price, &p.StockQuantity, &p.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, p)
	}

	return products, rows.Err()
}

func (r *ProductRepository) GetByID(ctx context.Context, id int64) (*models.Product, error) {
	query := `SELECT id, name, description, price, stock_quantity, created_at FROM products WHERE id = $1`

	var p models.Product
	err := r.db.QueryRowContext(ctx, query, id).
		Scan(&p.ID, &p.Name, &p.Description, &p.Price, &p.StockQuantity, &p.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to get product: %w", err)
	}

	return &p, nil
}

func (r *ProductRepository) Create(ctx context.Context, req models.CreateProductRequest) (*models.Product, error) {
	query := `
		INSERT INTO products (name, description, price, stock_quantity)
		VALUES ($1, $2, $3, $4)
		RETURNING id, name, description, price, stock_quantity, created_at
	`

	var p models.Product
	err := r.db.QueryRowContext(ctx, query, req.Name, req.Description, req.Price, req.StockQuantity).
		Scan(&p.ID, &p.Name, &p.Description, &p.Price, &p.StockQuantity, &p.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}

	return &p, nil
}

func (r *ProductRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return ErrProductNotFound
	}

	return nil
}

// Restock adds stock to a product. Like every stock mutation it goes through
// a single guarded UPDATE so concurrent writers cannot lose updates.
func (r *ProductRepository) Restock(ctx context.Context, id int64, quantity int) (*models.Product, error) {
	query := `
		UPDATE products SET stock_quantity = stock_quantity + $2
		WHERE id = $1
		RETURNING id, name, description, price, stock_quantity, created_at
	`

	var p models.Product
	err := r.db.QueryRowContext(ctx, query, id, quantity).
		Scan(&p.ID, &p.Name, &p.Description, &p.Price, &p.StockQuantity, &p.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to restock product: %w", err)
	}

	return &p, nil
}

// ListBelowThreshold returns products whose stock is under the low-stock
// threshold, for the manual recheck sweep.
func (r *ProductRepository) ListBelowThreshold(ctx context.Context, threshold int) ([]models.Product, error) {
	query := `SELECT id, name, description, price, stock_quantity, created_at FROM products WHERE stock_quantity < $1`

	rows, err := r.db.QueryContext(ctx, query, threshold)
	if err != nil {
		return nil, fmt.Errorf("failed to query low stock products: %w", err)
	}
	defer rows.Close()

	var products []models.Product
	for rows.Next() {
		var p models.Product
		err := rows.Scan(&p.ID, &p.Name, &p.Description, &p.Price, &p.StockQuantity, &p.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, p)
	}

	return products, rows.Err()
}

// ReduceStock decrements stock for a product. Returns the product after the
// decrement, or nil when the decrement drove stock to zero and the product
// row was removed. The non-negativity floor is enforced by the conditional
// UPDATE itself, never by a read-modify-write.
func (r *ProductRepository) ReduceStock(ctx context.Context, id int64, quantity int) (*models.Product, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	p, err := reduceStockTx(ctx, tx, id, quantity)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return p, nil
}

// ReduceStockForOrder is the idempotent variant used by the order saga. The
// (orderID, productID) marker is inserted in the same transaction as the
// decrement, so a redelivered OrderPlacedEvent, or the async consumer racing
// the synchronous reduction call, can never decrement twice.
func (r *ProductRepository) ReduceStockForOrder(ctx context.Context, orderID, productID int64, quantity int) (*models.Product, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx, `
		INSERT INTO order_reductions (order_id, product_id)
		VALUES ($1, $2)
		ON CONFLICT (order_id, product_id) DO NOTHING
	`, orderID, productID)
	if err != nil {
		return nil, fmt.Errorf("failed to record reduction marker: %w", err)
	}

	inserted, _ := result.RowsAffected()
	if inserted == 0 {
		return nil, ErrReductionApplied
	}

	p, err := reduceStockTx(ctx, tx, productID, quantity)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return p, nil
}

func reduceStockTx(ctx context.Context, tx *sql.Tx, id int64, quantity int) (*models.Product, error) {
	var p models.Product
	err := tx.QueryRowContext(ctx, `
		UPDATE products SET stock_quantity = stock_quantity - $2
		WHERE id = $1 AND stock_quantity >= $2
		RETURNING id, name, description, price, stock_quantity, created_at
	`, id, quantity).Scan(&p.ID, &p.Name, &p.Description, &p.Price, &p.StockQuantity, &p.CreatedAt)

	if err == sql.ErrNoRows {
		// Either the product is gone or the guard rejected the decrement.
		var exists bool
		if err := tx.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM products WHERE id = $1)`, id).Scan(&exists); err != nil {
			return nil, fmt.Errorf("failed to check product existence: %w", err)
		}
		if !exists {
			return nil, ErrProductNotFound
		}
		return nil, ErrInsufficientStock
	}
	if err != nil {
		return nil, fmt.Errorf("failed to reduce stock: %w", err)
	}

	// A product that sells out is removed entirely; "not found" doubles as
	// the zero-stock signal on this path.
	if p.StockQuantity == 0 {
		if _, err := tx.ExecContext(ctx, `DELETE FROM products WHERE id = $1`, id); err != nil {
			return nil, fmt.Errorf("failed to delete sold-out product: %w", err)
		}
		return nil, nil
	}

	return &p, nil
}
