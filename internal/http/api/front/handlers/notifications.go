package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/perkhive/loyalty-server/internal/models"
	"gorm.io/gorm"
)

// NotificationHandler lists persisted notifications for the current user.
type NotificationHandler struct {
	db *gorm.DB
}

// NewNotificationHandler constructs a NotificationHandler.
func NewNotificationHandler(db *gorm.DB) *NotificationHandler {
	return &NotificationHandler{db: db}
}

// List returns the user's notifications, newest first.
func (h *NotificationHandler) List(c *gin.Context) {
	var rows []models.Notification
	if errFind := h.db.WithContext(c.Request.Context()).
		Where("user_id = ?", getUserID(c)).
		Order("created_at DESC").
		Limit(100).
		Find(&rows).Error; errFind != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list notifications failed"})
		return
	}
	out := make([]gin.H, 0, len(rows))
	for _, row := range rows {
		out = append(out, gin.H{
			"id":         row.ID,
			"event":      row.Event,
			"payload":    row.Payload,
			"read_at":    row.ReadAt,
			"created_at": row.CreatedAt,
		})
	}
	c.JSON(http.StatusOK, gin.H{"notifications": out})
}
