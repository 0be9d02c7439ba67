package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/mwaf/smartstock/internal/db"
	"github.com/mwaf/smartstock/internal/models"
)

// ProductStore is the inventory surface the handlers drive. All stock
// mutations funnel through the repository's guarded update.
type ProductStore interface {
	GetAll(ctx context.Context) ([]models.Product, error)
	GetByID(ctx context.Context, id int64) (*models.Product, error)
	Create(ctx context.Context, req models.CreateProductRequest) (*models.Product, error)
	Delete(ctx context.Context, id int64) error
	Restock(ctx context.Context, id int64, quantity int) (*models.Product, error)
	ReduceStock(ctx context.Context, id int64, quantity int) (*models.Product, error)
	ReduceStockForOrder(ctx context.Context, orderID, productID int64, quantity int) (*models.Product, error)
}

type LowStockPolicy interface {
	CheckAndNotify(ctx context.Context, product models.Product) error
}

type ProductHandler struct {
	store    ProductStore
	lowStock LowStockPolicy
	log      *logrus.Logger
}

func NewProductHandler(store ProductStore, lowStock LowStockPolicy, log *logrus.Logger) *ProductHandler {
	return &ProductHandler{
		store:    store,
		lowStock: lowStock,
		log:      log,
	}
}

func (h *ProductHandler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy", "service": "product-service"})
}

func (h *ProductHandler) ListProducts(c *gin.Context) {
	products, err := h.store.GetAll(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, products)
}

func (h *ProductHandler) GetProduct(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid product ID"})
		return
	}

	product, err := h.store.GetByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, db.ErrProductNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "product not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, product)
}

func (h *ProductHandler) CreateProduct(c *gin.Context) {
	var req models.CreateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if req.StockQuantity < 0 || req.Price < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "price and stock must be non-negative"})
		return
	}

	product, err := h.store.Create(c.Request.Context(), req)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	if err := h.lowStock.CheckAndNotify(c.Request.Context(), *product); err != nil {
		h.log.WithError(err).WithField("product_id", product.ID).Error("low stock check failed")
	}

	c.JSON(http.StatusCreated, product)
}

func (h *ProductHandler) DeleteProduct(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid product ID"})
		return
	}

	if err := h.store.Delete(c.Request.Context(), id); err != nil {
		if errors.Is(err, db.ErrProductNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "product not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "product deleted"})
}

func (h *ProductHandler) RestockProduct(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid product ID"})
		return
	}

	var req models.RestockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Quantity <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "quantity must be positive"})
		return
	}

	product, err := h.store.Restock(c.Request.Context(), id, req.Quantity)
	if err != nil {
		if errors.Is(err, db.ErrProductNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "product not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	if err := h.lowStock.CheckAndNotify(c.Request.Context(), *product); err != nil {
		h.log.WithError(err).WithField("product_id", product.ID).Error("low stock check failed")
	}

	c.JSON(http.StatusOK, product)
}

// ReduceStock is the synchronous reduction RPC used by the order
// orchestrator. An orderId keys the reduction for idempotency; a repeat call
// with the same key succeeds without touching stock.
func (h *ProductHandler) ReduceStock(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid product ID"})
		return
	}

	quantity, err := strconv.Atoi(c.Query("quantity"))
	if err != nil || quantity <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "quantity must be a positive integer"})
		return
	}

	var orderID int64
	if raw := c.Query("orderId"); raw != "" {
		orderID, err = strconv.ParseInt(raw, 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid order ID"})
			return
		}
	}

	ctx := c.Request.Context()

	var product *models.Product
	if orderID != 0 {
		product, err = h.store.ReduceStockForOrder(ctx, orderID, id, quantity)
		if errors.Is(err, db.ErrReductionApplied) {
			c.JSON(http.StatusOK, gin.H{"message": "stock reduction already applied"})
			return
		}
	} else {
		product, err = h.store.ReduceStock(ctx, id, quantity)
	}

	switch {
	case errors.Is(err, db.ErrProductNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "product not found"})
		return
	case errors.Is(err, db.ErrInsufficientStock):
		c.JSON(http.StatusConflict, gin.H{"error": "insufficient stock"})
		return
	case err != nil:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	if product == nil {
		// Sold out: the product row is gone.
		c.JSON(http.StatusOK, gin.H{"message": "stock reduced", "remainingStock": 0, "productDeleted": true})
		return
	}

	if err := h.lowStock.CheckAndNotify(ctx, *product); err != nil {
		h.log.WithError(err).WithField("product_id", product.ID).Error("low stock check failed")
	}

	c.JSON(http.StatusOK, gin.H{"message": "stock reduced", "remainingStock": product.StockQuantity})
}
