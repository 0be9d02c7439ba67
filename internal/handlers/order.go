package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/mwaf/smartstock/internal/client"
	"github.com/mwaf/smartstock/internal/db"
	"github.com/mwaf/smartstock/internal/models"
)

type OrderStore interface {
	Create(ctx context.Context, order *models.Order) error
	GetAll(ctx context.Context) ([]models.Order, error)
	GetByID(ctx context.Context, id int64) (*models.Order, error)
	GetByCustomer(ctx context.Context, customerID int64) ([]models.Order, error)
	UpdateStatus(ctx context.Context, id int64, status string) (*models.Order, error)
}

// ProductGateway is the synchronous RPC surface of the inventory authority.
type ProductGateway interface {
	GetProduct(ctx context.Context, productID int64) (*models.Product, error)
	ReduceStock(ctx context.Context, productID int64, quantity int, orderID int64) error
}

type OrderEvents interface {
	PublishOrderPlaced(order *models.Order) error
	PublishOrderStatusChanged(order *models.Order) error
}

type OrderHandler struct {
	store    OrderStore
	products ProductGateway
	events   OrderEvents
	log      *logrus.Logger
}

func NewOrderHandler(store OrderStore, products ProductGateway, events OrderEvents, log *logrus.Logger) *OrderHandler {
	return &OrderHandler{
		store:    store,
		products: products,
		events:   events,
		log:      log,
	}
}

func (h *OrderHandler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy", "service": "order-service"})
}

// PlaceOrder runs the order saga's synchronous leg: quote every item against
// live stock, fail fast if anything is short, persist the order atomically,
// then reduce stock and publish order.placed. The gateway authenticates the
// caller and forwards the customer identity in X-Customer-ID.
func (h *OrderHandler) PlaceOrder(c *gin.Context) {
	customerID, err := strconv.ParseInt(c.GetHeader("X-Customer-ID"), 10, 64)
	if err != nil || customerID <= 0 {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing or invalid customer identity"})
		return
	}

	var req models.PlaceOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if len(req.Items) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "order must contain at least one item"})
		return
	}

	ctx := c.Request.Context()

	order := models.Order{
		CustomerID: customerID,
		Status:     models.OrderStatusNew,
	}

	// Quote step: any shortfall rejects the whole order before anything is
	// persisted or reserved.
	var totalAmount float64
	for _, item := range req.Items {
		if item.Quantity <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("invalid quantity for product %d", item.ProductID)})
			return
		}

		product, err := h.products.GetProduct(ctx, item.ProductID)
		if err != nil {
			h.quoteError(c, item.ProductID, err)
			return
		}

		if product.StockQuantity < item.Quantity {
			c.JSON(http.StatusConflict, gin.H{
				"error": fmt.Sprintf("insufficient stock for product ID: %d. Available: %d, Requested: %d",
					item.ProductID, product.StockQuantity, item.Quantity),
			})
			return
		}

		totalAmount += product.Price * float64(item.Quantity)
		order.Items = append(order.Items, models.OrderItem{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			UnitPrice: product.Price,
		})
	}
	order.TotalAmount = totalAmount

	if err := h.store.Create(ctx, &order); err != nil {
		h.log.WithError(err).Error("failed to persist order")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create order"})
		return
	}

	// Primary reduction path. Failures are logged, not surfaced: the async
	// consumer replays the same keyed reductions and converges stock.
	for _, item := range order.Items {
		if err := h.products.ReduceStock(ctx, item.ProductID, item.Quantity, order.ID); err != nil {
			h.log.WithError(err).WithFields(logrus.Fields{
				"order_id":   order.ID,
				"product_id": item.ProductID,
			}).Warn("synchronous stock reduction failed, async consumer will converge")
		}
	}

	if err := h.events.PublishOrderPlaced(&order); err != nil {
		h.log.WithError(err).WithField("order_id", order.ID).Error("failed to publish order.placed")
	}

	h.log.WithFields(logrus.Fields{
		"order_id": order.ID,
		"customer": order.CustomerID,
		"total":    order.TotalAmount,
	}).Info("order placed")
	c.JSON(http.StatusCreated, order)
}

// quoteError maps quote-step failures: unknown product is a business
// rejection, an unreachable inventory service is a retryable infrastructure
// failure.
func (h *OrderHandler) quoteError(c *gin.Context, productID int64, err error) {
	switch {
	case errors.Is(err, client.ErrProductNotFound):
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("product %d not found", productID)})
	case errors.Is(err, client.ErrServiceUnavailable):
		h.log.WithError(err).Error("product service unreachable during quote")
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "product service unavailable, retry later"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

func (h *OrderHandler) ListOrders(c *gin.Context) {
	orders, err := h.store.GetAll(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, orders)
}

func (h *OrderHandler) GetOrder(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid order ID"})
		return
	}

	order, err := h.store.GetByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, db.ErrOrderNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "order not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, order)
}

func (h *OrderHandler) GetOrdersByCustomer(c *gin.Context) {
	customerID, err := strconv.ParseInt(c.Param("customerId"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid customer ID"})
		return
	}

	orders, err := h.store.GetByCustomer(c.Request.Context(), customerID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, orders)
}

// UpdateOrderStatus is the administrative path; a successful update emits
// order.status.changed for the notification fan-out.
func (h *OrderHandler) UpdateOrderStatus(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid order ID"})
		return
	}

	var req models.UpdateOrderStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if !models.ValidOrderStatus(req.Status) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid status"})
		return
	}

	order, err := h.store.UpdateStatus(c.Request.Context(), id, req.Status)
	if err != nil {
		if errors.Is(err, db.ErrOrderNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "order not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	if err := h.events.PublishOrderStatusChanged(order); err != nil {
		h.log.WithError(err).WithField("order_id", order.ID).Error("failed to publish order.status.changed")
	}

	c.JSON(http.StatusOK, order)
}
