package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mwaf/smartstock/internal/client"
	"github.com/mwaf/smartstock/internal/db"
	"github.com/mwaf/smartstock/internal/models"
)

type fakeOrderStore struct {
	orders  map[int64]*models.Order
	nextID  int64
	created []*models.Order
	failing bool
}

func newFakeOrderStore() *fakeOrderStore {
	return &fakeOrderStore{orders: make(map[int64]*models.Order), nextID: 1}
}

func (s *fakeOrderStore) Create(_ context.Context, order *models.Order) error {
	if s.failing {
		return fmt.Errorf("insert failed")
	}
	order.ID = s.nextID
	s.nextID++
	s.orders[order.ID] = order
	s.created = append(s.created, order)
	return nil
}

func (s *fakeOrderStore) GetAll(_ context.Context) ([]models.Order, error) {
	var out []models.Order
	for _, o := range s.orders {
		out = append(out, *o)
	}
	return out, nil
}

func (s *fakeOrderStore) GetByID(_ context.Context, id int64) (*models.Order, error) {
	o, ok := s.orders[id]
	if !ok {
		return nil, db.ErrOrderNotFound
	}
	return o, nil
}

func (s *fakeOrderStore) GetByCustomer(_ context.Context, customerID int64) ([]models.Order, error) {
	var out []models.Order
	for _, o := range s.orders {
		if o.CustomerID == customerID {
			out = append(out, *o)
		}
	}
	return out, nil
}

func (s *fakeOrderStore) UpdateStatus(_ context.Context, id int64, status string) (*models.Order, error) {
	o, ok := s.orders[id]
	if !ok {
		return nil, db.ErrOrderNotFound
	}
	o.Status = status
	return o, nil
}

type fakeProductGateway struct {
	products     map[int64]*models.Product
	getErr       error
	reduceErr    error
	reduceCalls  []int64
	reduceOrders []int64
}

func (g *fakeProductGateway) GetProduct(_ context.Context, productID int64) (*models.Product, error) {
	if g.getErr != nil {
		return nil, g.getErr
	}
	p, ok := g.products[productID]
	if !ok {
		return nil, client.ErrProductNotFound
	}
	return p, nil
}

func (g *fakeProductGateway) ReduceStock(_ context.Context, productID int64, quantity int, orderID int64) error {
	g.reduceCalls = append(g.reduceCalls, productID)
	g.reduceOrders = append(g.reduceOrders, orderID)
	return g.reduceErr
}

type fakeOrderEvents struct {
	placed  []*models.Order
	changed []*models.Order
	err     error
}

func (e *fakeOrderEvents) PublishOrderPlaced(order *models.Order) error {
	e.placed = append(e.placed, order)
	return e.err
}

func (e *fakeOrderEvents) PublishOrderStatusChanged(order *models.Order) error {
	e.changed = append(e.changed, order)
	return e.err
}

func setupOrderRouter(store *fakeOrderStore, gateway *fakeProductGateway, events *fakeOrderEvents) *gin.Engine {
	gin.SetMode(gin.TestMode)
	log := logrus.New()
	log.SetOutput(bytes.NewBuffer(nil))

	handler := NewOrderHandler(store, gateway, events, log)

	router := gin.New()
	router.GET("/orders", handler.ListOrders)
	router.GET("/orders/:id", handler.GetOrder)
	router.GET("/orders/byCustomer/:customerId", handler.GetOrdersByCustomer)
	router.POST("/orders", handler.PlaceOrder)
	router.PATCH("/orders/:id/status", handler.UpdateOrderStatus)
	return router
}

func placeOrder(t *testing.T, router *gin.Engine, customerID string, req models.PlaceOrderRequest) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(req)
	require.NoError(t, err)

	httpReq := httptest.NewRequest(http.MethodPost, "/orders", bytes.NewReader(body))
	httpReq.Header.Set("Content-Type", "application/json")
	if customerID != "" {
		httpReq.Header.Set("X-Customer-ID", customerID)
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httpReq)
	return w
}

func TestPlaceOrderComputesTotalFromSnapshotPrices(t *testing.T) {
	store := newFakeOrderStore()
	gateway := &fakeProductGateway{products: map[int64]*models.Product{
		1: {ID: 1, Name: "Widget", Price: 19.99, StockQuantity: 10},
		2: {ID: 2, Name: "Gadget", Price: 5.00, StockQuantity: 3},
	}}
	events := &fakeOrderEvents{}
	router := setupOrderRouter(store, gateway, events)

	w := placeOrder(t, router, "42", models.PlaceOrderRequest{Items: []models.PlaceOrderItem{
		{ProductID: 1, Quantity: 2},
		{ProductID: 2, Quantity: 3},
	}})

	require.Equal(t, http.StatusCreated, w.Code)

	var order models.Order
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &order))
	assert.Equal(t, int64(42), order.CustomerID)
	assert.Equal(t, models.OrderStatusNew, order.Status)
	assert.InDelta(t, 2*19.99+3*5.00, order.TotalAmount, 0.001)
	require.Len(t, order.Items, 2)
	assert.Equal(t, 19.99, order.Items[0].UnitPrice)

	// Both reductions keyed by the new order's ID, and order.placed published.
	assert.Equal(t, []int64{1, 2}, gateway.reduceCalls)
	assert.Equal(t, []int64{order.ID, order.ID}, gateway.reduceOrders)
	require.Len(t, events.placed, 1)
	assert.Equal(t, order.ID, events.placed[0].ID)
}

func TestPlaceOrderInsufficientStockRejectsWholeOrder(t *testing.T) {
	store := newFakeOrderStore()
	gateway := &fakeProductGateway{products: map[int64]*models.Product{
		1: {ID: 1, Name: "Widget", Price: 10, StockQuantity: 10},
		2: {ID: 2, Name: "Gadget", Price: 5, StockQuantity: 1},
	}}
	events := &fakeOrderEvents{}
	router := setupOrderRouter(store, gateway, events)

	w := placeOrder(t, router, "42", models.PlaceOrderRequest{Items: []models.PlaceOrderItem{
		{ProductID: 1, Quantity: 2},
		{ProductID: 2, Quantity: 5},
	}})

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "insufficient stock for product ID: 2")
	assert.Contains(t, w.Body.String(), "Available: 1, Requested: 5")

	// Nothing persisted, reduced, or published.
	assert.Empty(t, store.created)
	assert.Empty(t, gateway.reduceCalls)
	assert.Empty(t, events.placed)
}

func TestPlaceOrderUnknownProduct(t *testing.T) {
	store := newFakeOrderStore()
	gateway := &fakeProductGateway{products: map[int64]*models.Product{}}
	router := setupOrderRouter(store, gateway, &fakeOrderEvents{})

	w := placeOrder(t, router, "42", models.PlaceOrderRequest{Items: []models.PlaceOrderItem{
		{ProductID: 99, Quantity: 1},
	}})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "product 99 not found")
	assert.Empty(t, store.created)
}

func TestPlaceOrderProductServiceUnavailable(t *testing.T) {
	store := newFakeOrderStore()
	gateway := &fakeProductGateway{getErr: client.ErrServiceUnavailable}
	router := setupOrderRouter(store, gateway, &fakeOrderEvents{})

	w := placeOrder(t, router, "42", models.PlaceOrderRequest{Items: []models.PlaceOrderItem{
		{ProductID: 1, Quantity: 1},
	}})

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Empty(t, store.created)
}

func TestPlaceOrderMissingCustomerIdentity(t *testing.T) {
	router := setupOrderRouter(newFakeOrderStore(), &fakeProductGateway{}, &fakeOrderEvents{})

	w := placeOrder(t, router, "", models.PlaceOrderRequest{Items: []models.PlaceOrderItem{
		{ProductID: 1, Quantity: 1},
	}})

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestPlaceOrderInvalidQuantity(t *testing.T) {
	gateway := &fakeProductGateway{products: map[int64]*models.Product{
		1: {ID: 1, Price: 10, StockQuantity: 10},
	}}
	router := setupOrderRouter(newFakeOrderStore(), gateway, &fakeOrderEvents{})

	w := placeOrder(t, router, "42", models.PlaceOrderRequest{Items: []models.PlaceOrderItem{
		{ProductID: 1, Quantity: -1},
	}})

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPlaceOrderSucceedsWhenSyncReductionFails(t *testing.T) {
	store := newFakeOrderStore()
	gateway := &fakeProductGateway{
		products:  map[int64]*models.Product{1: {ID: 1, Price: 10, StockQuantity: 10}},
		reduceErr: client.ErrServiceUnavailable,
	}
	events := &fakeOrderEvents{}
	router := setupOrderRouter(store, gateway, events)

	w := placeOrder(t, router, "42", models.PlaceOrderRequest{Items: []models.PlaceOrderItem{
		{ProductID: 1, Quantity: 2},
	}})

	// The async consumer converges stock, so the order still goes through.
	assert.Equal(t, http.StatusCreated, w.Code)
	require.Len(t, store.created, 1)
	require.Len(t, events.placed, 1)
}

func TestUpdateOrderStatusPublishesEvent(t *testing.T) {
	store := newFakeOrderStore()
	store.orders[7] = &models.Order{ID: 7, CustomerID: 42, Status: models.OrderStatusNew}
	store.nextID = 8
	events := &fakeOrderEvents{}
	router := setupOrderRouter(store, &fakeProductGateway{}, events)

	body := []byte(`{"status":"SHIPPED"}`)
	req := httptest.NewRequest(http.MethodPatch, "/orders/7/status", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, models.OrderStatusShipped, store.orders[7].Status)
	require.Len(t, events.changed, 1)
	assert.Equal(t, int64(7), events.changed[0].ID)
}

func TestUpdateOrderStatusRejectsUnknownStatus(t *testing.T) {
	store := newFakeOrderStore()
	store.orders[7] = &models.Order{ID: 7, Status: models.OrderStatusNew}
	events := &fakeOrderEvents{}
	router := setupOrderRouter(store, &fakeProductGateway{}, events)

	body := []byte(`{"status":"TELEPORTED"}`)
	req := httptest.NewRequest(http.MethodPatch, "/orders/7/status", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, models.OrderStatusNew, store.orders[7].Status)
	assert.Empty(t, events.changed)
}

func TestGetOrderNotFound(t *testing.T) {
	router := setupOrderRouter(newFakeOrderStore(), &fakeProductGateway{}, &fakeOrderEvents{})

	req := httptest.NewRequest(http.MethodGet, "/orders/123", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}
