package notifier

import (
	"bytes"
	"context"
	"fmt"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mwaf/smartstock/internal/client"
	"github.com/mwaf/smartstock/internal/models"
)

type fakeStore struct {
	created []*models.Notification
	err     error
}

func (s *fakeStore) Create(_ context.Context, n *models.Notification) error {
	if s.err != nil {
		return s.err
	}
	n.ID = int64(len(s.created) + 1)
	s.created = append(s.created, n)
	return nil
}

type fakeCustomers struct {
	customers map[int64]*models.Customer
	err       error
}

func (c *fakeCustomers) GetCustomerByUserID(_ context.Context, userID int64) (*models.Customer, error) {
	if c.err != nil {
		return nil, c.err
	}
	customer, ok := c.customers[userID]
	if !ok {
		return nil, client.ErrCustomerNotFound
	}
	return customer, nil
}

type fakeMailer struct {
	sent []string
	err  error
}

func (m *fakeMailer) Send(to, subject, body string) error {
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, to)
	return nil
}

type fakeHub struct {
	user  []models.Notification
	admin []models.Notification
}

func (h *fakeHub) NotifyUser(_ int64, n models.Notification) { h.user = append(h.user, n) }
func (h *fakeHub) NotifyAdmins(n models.Notification)        { h.admin = append(h.admin, n) }

func newTestService(store *fakeStore, customers *fakeCustomers, mailer *fakeMailer, hub *fakeHub) *Service {
	log := logrus.New()
	log.SetOutput(bytes.NewBuffer(nil))
	return NewService(store, customers, mailer, hub, "customer@example.com", log)
}

func TestSendWelcomePersistsSentNotification(t *testing.T) {
	store := &fakeStore{}
	mailer := &fakeMailer{}
	hub := &fakeHub{}
	svc := newTestService(store, &fakeCustomers{}, mailer, hub)

	event := models.UserRegisteredEvent{UserID: 5, Username: "alice", Email: "alice@example.com", Name: "Alice"}
	require.NoError(t, svc.SendWelcome(context.Background(), event))

	require.Len(t, store.created, 1)
	n := store.created[0]
	assert.Equal(t, models.NotificationStatusSent, n.Status)
	assert.Equal(t, "alice@example.com", n.RecipientEmail)
	assert.NotNil(t, n.SentAt)
	assert.Contains(t, n.Content, "Alice")

	assert.Equal(t, []string{"alice@example.com"}, mailer.sent)
	require.Len(t, hub.user, 1)
}

func TestMailFailureRecordsFailedNotificationAndAcks(t *testing.T) {
	store := &fakeStore{}
	mailer := &fakeMailer{err: fmt.Errorf("smtp: connection refused")}
	hub := &fakeHub{}
	svc := newTestService(store, &fakeCustomers{}, mailer, hub)

	event := models.UserRegisteredEvent{UserID: 5, Email: "alice@example.com"}
	err := svc.SendWelcome(context.Background(), event)

	// A failed send is a recorded outcome, not a handler failure.
	require.NoError(t, err)
	require.Len(t, store.created, 1)
	n := store.created[0]
	assert.Equal(t, models.NotificationStatusFailed, n.Status)
	assert.Contains(t, n.ErrorMessage, "connection refused")
	assert.Nil(t, n.SentAt)
	require.Len(t, hub.user, 1)
}

func TestPersistFailurePropagates(t *testing.T) {
	store := &fakeStore{err: fmt.Errorf("db down")}
	svc := newTestService(store, &fakeCustomers{}, &fakeMailer{}, &fakeHub{})

	err := svc.SendWelcome(context.Background(), models.UserRegisteredEvent{UserID: 5, Email: "a@b.c"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "db down")
}

func TestOrderConfirmationResolvesCustomerEmail(t *testing.T) {
	store := &fakeStore{}
	customers := &fakeCustomers{customers: map[int64]*models.Customer{
		42: {ID: 1, UserID: 42, Name: "Alice", Email: "alice@example.com"},
	}}
	mailer := &fakeMailer{}
	svc := newTestService(store, customers, mailer, &fakeHub{})

	event := models.OrderPlacedEvent{OrderID: 10, CustomerID: 42, Items: []models.OrderItemEvent{{ProductID: 1, Quantity: 2}}}
	require.NoError(t, svc.SendOrderConfirmation(context.Background(), event))

	require.Len(t, store.created, 1)
	assert.Equal(t, "alice@example.com", store.created[0].RecipientEmail)
	assert.Contains(t, store.created[0].Subject, "Order #10")
}

func TestOrderConfirmationFallsBackWhenCustomerLookupFails(t *testing.T) {
	store := &fakeStore{}
	customers := &fakeCustomers{err: client.ErrServiceUnavailable}
	svc := newTestService(store, customers, &fakeMailer{}, &fakeHub{})

	event := models.OrderPlacedEvent{OrderID: 10, CustomerID: 42}
	require.NoError(t, svc.SendOrderConfirmation(context.Background(), event))

	require.Len(t, store.created, 1)
	assert.Equal(t, "customer@example.com", store.created[0].RecipientEmail)
}

func TestAdminOrderAlertIsInAppOnly(t *testing.T) {
	store := &fakeStore{}
	mailer := &fakeMailer{}
	hub := &fakeHub{}
	svc := newTestService(store, &fakeCustomers{}, mailer, hub)

	event := models.OrderPlacedEvent{OrderID: 10, CustomerID: 42}
	require.NoError(t, svc.SendAdminOrderAlert(context.Background(), event))

	require.Len(t, store.created, 1)
	n := store.created[0]
	assert.Equal(t, models.NotificationTypeInApp, n.Type)
	assert.Equal(t, models.NotificationStatusSent, n.Status)
	assert.Empty(t, mailer.sent)
	require.Len(t, hub.admin, 1)
	assert.Empty(t, hub.user)
}

func TestOrderStatusUpdateContent(t *testing.T) {
	store := &fakeStore{}
	customers := &fakeCustomers{customers: map[int64]*models.Customer{
		42: {UserID: 42, Email: "alice@example.com"},
	}}
	svc := newTestService(store, customers, &fakeMailer{}, &fakeHub{})

	event := models.OrderStatusChangedEvent{OrderID: 10, CustomerID: 42, NewStatus: "SHIPPED"}
	require.NoError(t, svc.SendOrderStatusUpdate(context.Background(), event))

	require.Len(t, store.created, 1)
	assert.Contains(t, store.created[0].Content, "SHIPPED")
}
