package alerts

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/mwaf/smartstock/internal/models"
)

const dedupWindow = 24 * time.Hour

// AdminNotificationStore is the slice of the admin notification repository
// the policy needs.
type AdminNotificationStore interface {
	Create(ctx context.Context, n *models.AdminNotification) error
	UnreadLowStockCountSince(ctx context.Context, productID int64, since time.Time) (int64, error)
}

type ProductLister interface {
	ListBelowThreshold(ctx context.Context, threshold int) ([]models.Product, error)
}

// LowStockNotifier raises a WARN admin alert whenever a stock mutation
// leaves a product under the threshold. Duplicate alerts are suppressed:
// at most one unread alert per product inside a rolling 24h window.
type LowStockNotifier struct {
	store     AdminNotificationStore
	products  ProductLister
	threshold int
	log       *logrus.Logger
}

func NewLowStockNotifier(store AdminNotificationStore, products ProductLister, threshold int, log *logrus.Logger) *LowStockNotifier {
	return &LowStockNotifier{
		store:     store,
		products:  products,
		threshold: threshold,
		log:       log,
	}
}

func (n *LowStockNotifier) Threshold() int {
	return n.threshold
}

// CheckAndNotify applies the policy to a product's current stock level.
func (n *LowStockNotifier) CheckAndNotify(ctx context.Context, product models.Product) error {
	if product.StockQuantity >= n.threshold {
		return nil
	}

	since := time.Now().Add(-dedupWindow)
	existing, err := n.store.UnreadLowStockCountSince(ctx, product.ID, since)
	if err != nil {
		return fmt.Errorf("failed to check existing alerts: %w", err)
	}
	if existing > 0 {
		n.log.WithField("product_id", product.ID).Debug("low stock alert suppressed by dedup window")
		return nil
	}

	alert := &models.AdminNotification{
		Type:         models.AdminNotificationTypeLowStock,
		ProductID:    product.ID,
		ProductName:  product.Name,
		CurrentStock: product.StockQuantity,
		Level:        models.AdminNotificationLevelWarn,
		Message: fmt.Sprintf("Product '%s' (ID: %d) has low stock: %d units remaining",
			product.Name, product.ID, product.StockQuantity),
	}
	if err := n.store.Create(ctx, alert); err != nil {
		return fmt.Errorf("failed to create low stock alert: %w", err)
	}

	n.log.WithFields(logrus.Fields{
		"product_id": product.ID,
		"stock":      product.StockQuantity,
	}).Info("low stock alert created")
	return nil
}

// RecheckAll sweeps every product under the threshold, creating alerts where
// the dedup window allows. Returns the number of products inspected.
func (n *LowStockNotifier) RecheckAll(ctx context.Context) (int, error) {
	products, err := n.products.ListBelowThreshold(ctx, n.threshold)
	if err != nil {
		return 0, fmt.Errorf("failed to list low stock products: %w", err)
	}

	for _, p := range products {
		if err := n.CheckAndNotify(ctx, p); err != nil {
			n.log.WithError(err).WithField("product_id", p.ID).Error("low stock recheck failed for product")
		}
	}

	return len(products), nil
}
