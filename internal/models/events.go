package models

// OrderPlacedEvent is published after an order has been persisted.
// Delivery is at-least-once; consumers must tolerate duplicates.
type OrderPlacedEvent struct {
	OrderID    int64            `json:"orderId"`
	CustomerID int64            `json:"customerId"`
	Items      []OrderItemEvent `json:"items"`
}

type OrderItemEvent struct {
	ProductID int64 `json:"productId"`
	Quantity  int32 `json:"quantity"`
}

// OrderStatusChangedEvent is published when an admin changes an order status.
type OrderStatusChangedEvent struct {
	OrderID    int64  `json:"orderId"`
	CustomerID int64  `json:"customerId"`
	NewStatus  string `json:"newStatus"`
}

// UserRegisteredEvent is emitted by the auth service when a new account is
// created. The auth service lives outside this repo; only the payload is ours.
type UserRegisteredEvent struct {
	UserID   int64  `json:"userId"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Name     string `json:"name"`
	Phone    string `json:"phone"`
	Address  string `json:"address"`
}
