package notifier

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/mwaf/smartstock/internal/models"
)

const adminRecipient = "admin@smartstock.com"

type NotificationStore interface {
	Create(ctx context.Context, n *models.Notification) error
}

type CustomerLookup interface {
	GetCustomerByUserID(ctx context.Context, userID int64) (*models.Customer, error)
}

type Mailer interface {
	Send(to, subject, body string) error
}

type Broadcaster interface {
	NotifyUser(userID int64, n models.Notification)
	NotifyAdmins(n models.Notification)
}

// Service implements the notification fan-out: compose, attempt delivery,
// record the outcome, push to live subscribers. Mail failures are recorded
// on the notification and logged, but never fail the triggering event.
type Service struct {
	store         NotificationStore
	customers     CustomerLookup
	mailer        Mailer
	hub           Broadcaster
	fallbackEmail string
	log           *logrus.Logger
}

func NewService(store NotificationStore, customers CustomerLookup, mailer Mailer, hub Broadcaster, fallbackEmail string, log *logrus.Logger) *Service {
	return &Service{
		store:         store,
		customers:     customers,
		mailer:        mailer,
		hub:           hub,
		fallbackEmail: fallbackEmail,
		log:           log,
	}
}

func (s *Service) SendWelcome(ctx context.Context, event models.UserRegisteredEvent) error {
	n := &models.Notification{
		Type:            models.NotificationTypeEmail,
		Status:          models.NotificationStatusPending,
		RecipientEmail:  event.Email,
		RecipientUserID: event.UserID,
		Subject:         "Welcome to SmartStock!",
		Content:         buildWelcomeContent(event),
	}
	return s.deliver(ctx, n)
}

func (s *Service) SendOrderConfirmation(ctx context.Context, event models.OrderPlacedEvent) error {
	email := s.resolveEmail(ctx, event.CustomerID)

	n := &models.Notification{
		Type:            models.NotificationTypeEmail,
		Status:          models.NotificationStatusPending,
		RecipientEmail:  email,
		RecipientUserID: event.CustomerID,
		Subject:         fmt.Sprintf("Order Confirmation - Order #%d", event.OrderID),
		Content:         buildOrderConfirmationContent(event),
	}
	return s.deliver(ctx, n)
}

// SendAdminOrderAlert raises the in-app "new order" notice on the admin
// channel. No mail is involved.
func (s *Service) SendAdminOrderAlert(ctx context.Context, event models.OrderPlacedEvent) error {
	now := time.Now()
	n := &models.Notification{
		Type:           models.NotificationTypeInApp,
		Status:         models.NotificationStatusSent,
		RecipientEmail: adminRecipient,
		Subject:        fmt.Sprintf("New Order Placed - Order #%d", event.OrderID),
		Content: fmt.Sprintf("Customer %d has placed a new order #%d.",
			event.CustomerID, event.OrderID),
		SentAt: &now,
	}

	if err := s.store.Create(ctx, n); err != nil {
		return fmt.Errorf("failed to persist admin order alert: %w", err)
	}
	s.hub.NotifyAdmins(*n)
	return nil
}

func (s *Service) SendOrderStatusUpdate(ctx context.Context, event models.OrderStatusChangedEvent) error {
	email := s.resolveEmail(ctx, event.CustomerID)

	n := &models.Notification{
		Type:            models.NotificationTypeEmail,
		Status:          models.NotificationStatusPending,
		RecipientEmail:  email,
		RecipientUserID: event.CustomerID,
		Subject:         fmt.Sprintf("Order Status Update - Order #%d", event.OrderID),
		Content:         fmt.Sprintf("Your order status has been updated to: %s", event.NewStatus),
	}
	return s.deliver(ctx, n)
}

// resolveEmail looks the customer up, falling back to a placeholder address
// when the customer service is unreachable or the customer is unknown.
func (s *Service) resolveEmail(ctx context.Context, userID int64) string {
	customer, err := s.customers.GetCustomerByUserID(ctx, userID)
	if err != nil {
		s.log.WithError(err).WithField("user_id", userID).Warn("customer lookup failed, using fallback address")
		return s.fallbackEmail
	}
	return customer.Email
}

// deliver runs the send attempt and always persists the terminal outcome: the
// record leaves this function SENT or FAILED, never PENDING. Persist and
// broadcast happen in the deferred block so the outcome is recorded exactly
// once regardless of how the send went.
func (s *Service) deliver(ctx context.Context, n *models.Notification) (err error) {
	defer func() {
		if storeErr := s.store.Create(ctx, n); storeErr != nil {
			err = fmt.Errorf("failed to persist notification: %w", storeErr)
			return
		}
		s.hub.NotifyUser(n.RecipientUserID, *n)
	}()

	if sendErr := s.mailer.Send(n.RecipientEmail, n.Subject, n.Content); sendErr != nil {
		n.Status = models.NotificationStatusFailed
		n.ErrorMessage = sendErr.Error()
		s.log.WithError(sendErr).WithFields(logrus.Fields{
			"recipient": n.RecipientEmail,
			"subject":   n.Subject,
		}).Error("mail delivery failed")
		return nil
	}

	now := time.Now()
	n.Status = models.NotificationStatusSent
	n.SentAt = &now
	return nil
}

func buildWelcomeContent(event models.UserRegisteredEvent) string {
	var b strings.Builder
	b.WriteString("<html><body>")
	fmt.Fprintf(&b, "<h2>Hello %s,</h2>", event.Name)
	b.WriteString("<p>Thank you for registering with SmartStock! We're excited to have you on board.</p>")
	b.WriteString("<ul>")
	fmt.Fprintf(&b, "<li><strong>Username:</strong> %s</li>", event.Username)
	fmt.Fprintf(&b, "<li><strong>Email:</strong> %s</li>", event.Email)
	b.WriteString("</ul>")
	b.WriteString("<p>You can now start exploring our products and services!</p>")
	b.WriteString("</body></html>")
	return b.String()
}

func buildOrderConfirmationContent(event models.OrderPlacedEvent) string {
	var b strings.Builder
	b.WriteString("<html><body>")
	b.WriteString("<h2>Thank you for your order!</h2>")
	fmt.Fprintf(&b, "<p><strong>Order ID:</strong> #%d</p>", event.OrderID)
	b.WriteString("<ul>")
	for _, item := range event.Items {
		fmt.Fprintf(&b, "<li>Product ID: %d - Quantity: %d</li>", item.ProductID, item.Quantity)
	}
	b.WriteString("</ul>")
	b.WriteString("<p>You will receive another email once your order has been shipped.</p>")
	b.WriteString("</body></html>")
	return b.String()
}
