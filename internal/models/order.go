package models

import "time"

type Order struct {
	ID          int64       `json:"id"`
	CustomerID  int64       `json:"customerId"`
	Status      string      `json:"status"`
	TotalAmount float64     `json:"totalAmount"`
	OrderDate   time.Time   `json:"orderDate"`
	Items       []OrderItem `json:"orderItems"`
}

type OrderItem struct {
	ID        int64 `json:"id"`
	OrderID   int64 `json:"orderId"`
	ProductID int64 `json:"productId"`
	Quantity  int   `json:"quantity"`
	// UnitPrice is the product price captured when the order was placed.
	// It is never re-derived from the product catalog.
	UnitPrice float64 `json:"unitPrice"`
}

const (
	OrderStatusNew        = "NEW"
	OrderStatusProcessing = "PROCESSING"
	OrderStatusShipped    = "SHIPPED"
	OrderStatusCompleted  = "COMPLETED"
	OrderStatusCancelled  = "CANCELLED"
)

// ValidOrderStatus reports whether s is a known order status.
func ValidOrderStatus(s string) bool {
	switch s {
	case OrderStatusNew, OrderStatusProcessing, OrderStatusShipped,
		OrderStatusCompleted, OrderStatusCancelled:
		return true
	}
	return false
}

type PlaceOrderRequest struct {
	Items []PlaceOrderItem `json:"orderItems" binding:"required"`
}

type PlaceOrderItem struct {
	ProductID int64 `json:"productId" binding:"required"`
	Quantity  int   `json:"quantity" binding:"required"`
}

type UpdateOrderStatusRequest struct {
	Status string `json:"status" binding:"required"`
}
