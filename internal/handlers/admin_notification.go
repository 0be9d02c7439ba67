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

type AdminNotificationStore interface {
	List(ctx context.Context, read *bool) ([]models.AdminNotification, error)
	MarkRead(ctx context.Context, id int64) error
	UnreadCount(ctx context.Context) (int64, error)
}

type LowStockRechecker interface {
	RecheckAll(ctx context.Context) (int, error)
}

// AdminNotificationHandler serves the admin alert inbox on the product
// service, including the manual low-stock sweep.
type AdminNotificationHandler struct {
	store    AdminNotificationStore
	lowStock LowStockRechecker
	log      *logrus.Logger
}

func NewAdminNotificationHandler(store AdminNotificationStore, lowStock LowStockRechecker, log *logrus.Logger) *AdminNotificationHandler {
	return &AdminNotificationHandler{
		store:    store,
		lowStock: lowStock,
		log:      log,
	}
}

func (h *AdminNotificationHandler) List(c *gin.Context) {
	var read *bool
	if raw := c.Query("read"); raw != "" {
		value, err := strconv.ParseBool(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "read must be true or false"})
			return
		}
		read = &value
	}

	notifications, err := h.store.List(c.Request.Context(), read)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, notifications)
}

func (h *AdminNotificationHandler) MarkRead(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid notification ID"})
		return
	}

	if err := h.store.MarkRead(c.Request.Context(), id); err != nil {
		if errors.Is(err, db.ErrNotificationNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "notification not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "notification marked as read"})
}

func (h *AdminNotificationHandler) UnreadCount(c *gin.Context) {
	count, err := h.store.UnreadCount(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"unreadCount": count})
}

// Recheck sweeps every product under the low-stock threshold and raises
// alerts the dedup window allows.
func (h *AdminNotificationHandler) Recheck(c *gin.Context) {
	checked, err := h.lowStock.RecheckAll(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	h.log.WithField("checked", checked).Info("low stock recheck completed")
	c.JSON(http.StatusOK, gin.H{"message": "low stock recheck completed", "productsChecked": checked})
}
