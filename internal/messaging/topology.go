package messaging

// Exchange and routing key names shared across services. Naming convention:
// <domain>-exchange, <domain>.<event> routing key, <consumer>.<event>.dlq for
// the quarantine key.
const (
	OrderExchange      = "order-exchange"
	AuthExchange       = "auth-exchange"
	DeadLetterExchange = "dlx.exchange"

	OrderPlacedKey        = "order.placed"
	OrderStatusChangedKey = "order.status.changed"
	UserRegisteredKey     = "auth.user.registered"
)

// QueueSpec describes one consumer queue and its dead-letter pair. Every
// queue gets its own DLQ; a rejected message is routed there by the broker
// because consumers reject without requeue.
type QueueSpec struct {
	Exchange        string
	Queue           string
	RoutingKey      string
	DeadLetterQueue string
	DeadLetterKey   string
}

var (
	// InventoryOrderPlaced feeds the product service's stock-reduction consumer.
	InventoryOrderPlaced = QueueSpec{
		Exchange:        OrderExchange,
		Queue:           "order-placed-queue",
		RoutingKey:      OrderPlacedKey,
		DeadLetterQueue: "order-placed-dlq",
		DeadLetterKey:   "order.placed.dlq",
	}

	// The notification service keeps its own queues so it consumes the same
	// events independently of the inventory side.
	NotificationOrderPlaced = QueueSpec{
		Exchange:        OrderExchange,
		Queue:           "notification-order-placed-queue",
		RoutingKey:      OrderPlacedKey,
		DeadLetterQueue: "notification-order-placed-dlq",
		DeadLetterKey:   "notification.order.placed.dlq",
	}

	NotificationOrderStatus = QueueSpec{
		Exchange:        OrderExchange,
		Queue:           "notification-order-status-queue",
		RoutingKey:      OrderStatusChangedKey,
		DeadLetterQueue: "notification-order-status-dlq",
		DeadLetterKey:   "notification.order.status.dlq",
	}

	NotificationUserRegistered = QueueSpec{
		Exchange:        AuthExchange,
		Queue:           "notification-user-registered-queue",
		RoutingKey:      UserRegisteredKey,
		DeadLetterQueue: "notification-user-registered-dlq",
		DeadLetterKey:   "notification.user.registered.dlq",
	}
)
