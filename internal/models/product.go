package models

import "time"

type Product struct {
	ID            int64     `json:"id"`
	Name          string    `json:"name"`
	Description   string    `json:"description,omitempty"`
	Price         float64   `json:"price"`
	StockQuantity int       `json:"stockQuantity"`
	CreatedAt     time.Time `json:"createdAt"`
}

type CreateProductRequest struct {
	Name          string  `json:"name" binding:"required"`
	Description   string  `json:"description"`
	Price         float64 `json:"price" binding:"required"`
	StockQuantity int     `json:"stockQuantity"`
}

type RestockRequest struct {
	Quantity int `json:"quantity" binding:"required"`
}

// AdminNotification is an admin-facing alert raised on the inventory side.
// Only low-stock alerts exist today.
type AdminNotification struct {
	ID           int64     `json:"id"`
	Type         string    `json:"type"`
	ProductID    int64     `json:"productId"`
	ProductName  string    `json:"productName"`
	CurrentStock int       `json:"currentStock"`
	Level        string    `json:"level"`
	Message      string    `json:"message"`
	Read         bool      `json:"read"`
	CreatedAt    time.Time `json:"createdAt"`
}

const (
	AdminNotificationTypeLowStock = "LOW_STOCK"
	AdminNotificationLevelWarn    = "WARN"
)
