package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/mwaf/smartstock/internal/db"
	"github.com/mwaf/smartstock/internal/models"
)

// StockStore is the slice of the product repository the consumer needs. The
// returned product is nil when the decrement emptied the stock and the row
// was removed.
type StockStore interface {
	ReduceStockForOrder(ctx context.Context, orderID, productID int64, quantity int) (*models.Product, error)
}

type LowStockPolicy interface {
	CheckAndNotify(ctx context.Context, product models.Product) error
}

// InventoryConsumer applies stock reductions from order.placed events. The
// synchronous reduction RPC is the primary path; this consumer is the
// idempotent backstop that converges stock when the sync call did not land.
// Redelivered events no-op through the per-(order, product) marker.
type InventoryConsumer struct {
	store    StockStore
	lowStock LowStockPolicy
	log      *logrus.Logger
}

func NewInventoryConsumer(store StockStore, lowStock LowStockPolicy, log *logrus.Logger) *InventoryConsumer {
	return &InventoryConsumer{
		store:    store,
		lowStock: lowStock,
		log:      log,
	}
}

// HandleOrderPlaced processes one order.placed message. A malformed payload
// or a reduction that cannot be applied fails the handler, dead-lettering
// the message.
func (c *InventoryConsumer) HandleOrderPlaced(ctx context.Context, body []byte) error {
	var event models.OrderPlacedEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return fmt.Errorf("failed to parse order.placed event: %w", err)
	}

	log := c.log.WithField("order_id", event.OrderID)
	log.Info("processing order.placed event")

	for _, item := range event.Items {
		product, err := c.store.ReduceStockForOrder(ctx, event.OrderID, item.ProductID, int(item.Quantity))
		switch {
		case err == nil:
			if product == nil {
				log.WithField("product_id", item.ProductID).Info("product sold out and removed")
				continue
			}
			if err := c.lowStock.CheckAndNotify(ctx, *product); err != nil {
				log.WithError(err).WithField("product_id", item.ProductID).Error("low stock check failed")
			}
		case errors.Is(err, db.ErrReductionApplied):
			// Redelivery, or the synchronous path already applied it.
			log.WithField("product_id", item.ProductID).Debug("reduction already applied, skipping")
		case errors.Is(err, db.ErrProductNotFound):
			// Sold out and removed by an earlier application; nothing to do.
			log.WithField("product_id", item.ProductID).Warn("product missing during reduction")
		default:
			return fmt.Errorf("failed to reduce stock for product %d: %w", item.ProductID, err)
		}
	}

	return nil
}
