package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/mwaf/smartstock/internal/db"
	"github.com/mwaf/smartstock/internal/models"
)

type NotificationStore interface {
	GetByID(ctx context.Context, id int64) (*models.Notification, error)
	GetByUser(ctx context.Context, userID int64) ([]models.Notification, error)
	MarkRead(ctx context.Context, id int64) error
	UnreadCountByUser(ctx context.Context, userID int64) (int64, error)
}

type Subscriber interface {
	SubscribeUser(userID int64) (<-chan models.Notification, func())
	SubscribeAdmins() (<-chan models.Notification, func())
}

type NotificationHandler struct {
	store NotificationStore
	hub   Subscriber
	log   *logrus.Logger
}

func NewNotificationHandler(store NotificationStore, hub Subscriber, log *logrus.Logger) *NotificationHandler {
	return &NotificationHandler{
		store: store,
		hub:   hub,
		log:   log,
	}
}

func (h *NotificationHandler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy", "service": "notification-service"})
}

func (h *NotificationHandler) ListByUser(c *gin.Context) {
	userID, err := strconv.ParseInt(c.Query("userId"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "userId query parameter required"})
		return
	}

	notifications, err := h.store.GetByUser(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, notifications)
}

func (h *NotificationHandler) GetNotification(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid notification ID"})
		return
	}

	notification, err := h.store.GetByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, db.ErrNotificationNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "notification not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, notification)
}

// MarkRead moves a SENT notification to READ.
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid notification ID"})
		return
	}

	err = h.store.MarkRead(c.Request.Context(), id)
	switch {
	case errors.Is(err, db.ErrNotificationNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "notification not found"})
	case errors.Is(err, db.ErrNotificationNotSent):
		c.JSON(http.StatusConflict, gin.H{"error": "notification is not in SENT status"})
	case err != nil:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusOK, gin.H{"message": "notification marked as read"})
	}
}

func (h *NotificationHandler) UnreadCount(c *gin.Context) {
	userID, err := strconv.ParseInt(c.Query("userId"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "userId query parameter required"})
		return
	}

	count, err := h.store.UnreadCountByUser(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"unreadCount": count})
}

// Stream pushes saved notifications to the caller over SSE, either for one
// user (?userId=N) or for the admin channel (?admin=true).
func (h *NotificationHandler) Stream(c *gin.Context) {
	var (
		ch     <-chan models.Notification
		cancel func()
	)

	if c.Query("admin") == "true" {
		ch, cancel = h.hub.SubscribeAdmins()
	} else {
		userID, err := strconv.ParseInt(c.Query("userId"), 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "userId or admin=true required"})
			return
		}
		ch, cancel = h.hub.SubscribeUser(userID)
	}
	defer cancel()

	c.Stream(func(w io.Writer) bool {
		select {
		case n, ok := <-ch:
			if !ok {
				return false
			}
			c.SSEvent("notification", n)
			return true
		case <-c.Request.Context().Done():
			return false
		}
	})
}
