package consumer

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/mwaf/smartstock/internal/models"
)

type NotificationSender interface {
	SendWelcome(ctx context.Context, event models.UserRegisteredEvent) error
	SendOrderConfirmation(ctx context.Context, event models.OrderPlacedEvent) error
	SendAdminOrderAlert(ctx context.Context, event models.OrderPlacedEvent) error
	SendOrderStatusUpdate(ctx context.Context, event models.OrderStatusChangedEvent) error
}

// NotificationConsumer feeds the three subscribed event streams into the
// notifier. Only malformed payloads and persistence failures propagate;
// a failed mail send is recorded on the notification and acked.
type NotificationConsumer struct {
	notifier NotificationSender
	log      *logrus.Logger
}

func NewNotificationConsumer(notifier NotificationSender, log *logrus.Logger) *NotificationConsumer {
	return &NotificationConsumer{
		notifier: notifier,
		log:      log,
	}
}

func (c *NotificationConsumer) HandleUserRegistered(ctx context.Context, body []byte) error {
	var event models.UserRegisteredEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return fmt.Errorf("failed to parse auth.user.registered event: %w", err)
	}

	c.log.WithField("user_id", event.UserID).Info("processing user registration")
	return c.notifier.SendWelcome(ctx, event)
}

func (c *NotificationConsumer) HandleOrderPlaced(ctx context.Context, body []byte) error {
	var event models.OrderPlacedEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return fmt.Errorf("failed to parse order.placed event: %w", err)
	}

	c.log.WithField("order_id", event.OrderID).Info("processing order confirmation")

	if err := c.notifier.SendOrderConfirmation(ctx, event); err != nil {
		return err
	}
	return c.notifier.SendAdminOrderAlert(ctx, event)
}

func (c *NotificationConsumer) HandleOrderStatusChanged(ctx context.Context, body []byte) error {
	var event models.OrderStatusChangedEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return fmt.Errorf("failed to parse order.status.changed event: %w", err)
	}

	c.log.WithFields(logrus.Fields{
		"order_id": event.OrderID,
		"status":   event.NewStatus,
	}).Info("processing order status update")
	return c.notifier.SendOrderStatusUpdate(ctx, event)
}
