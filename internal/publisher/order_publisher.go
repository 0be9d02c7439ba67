package publisher

import (
	"encoding/json"
	"fmt"

	"github.com/mwaf/smartstock/internal/messaging"
	"github.com/mwaf/smartstock/internal/models"
)

type OrderPublisher struct {
	mq *messaging.RabbitMQ
}

func NewOrderPublisher(mq *messaging.RabbitMQ) (*OrderPublisher, error) {
	if err := mq.DeclareExchange(messaging.OrderExchange); err != nil {
		return nil, err
	}

	return &OrderPublisher{mq: mq}, nil
}

// PublishOrderPlaced emits the order.placed event for a freshly persisted
// order.
func (p *OrderPublisher) PublishOrderPlaced(order *models.Order) error {
	event := models.OrderPlacedEvent{
		OrderID:    order.ID,
		CustomerID: order.CustomerID,
	}

	for _, item := range order.Items {
		event.Items = append(event.Items, models.OrderItemEvent{
			ProductID: item.ProductID,
			Quantity:  int32(item.Quantity),
		})
	}

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	return p.mq.Publish(messaging.OrderExchange, messaging.OrderPlacedKey, data)
}

// PublishOrderStatusChanged emits order.status.changed after an admin status
// update.
func (p *OrderPublisher) PublishOrderStatusChanged(order *models.Order) error {
	event := models.OrderStatusChangedEvent{
		OrderID:    order.ID,
		CustomerID: order.CustomerID,
		NewStatus:  order.Status,
	}

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	return p.mq.Publish(messaging.OrderExchange, messaging.OrderStatusChangedKey, data)
}
