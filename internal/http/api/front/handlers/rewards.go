package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/perkhive/loyalty-server/internal/models"
	"gorm.io/gorm"
)

// RewardFrontHandler lists the redeemable reward catalog for customers.
type RewardFrontHandler struct {
	db *gorm.DB
}

// NewRewardFrontHandler constructs a RewardFrontHandler.
func NewRewardFrontHandler(db *gorm.DB) *RewardFrontHandler {
	return &RewardFrontHandler{db: db}
}

// List returns active rewards, cheapest first, optionally for one shop.
func (h *RewardFrontHandler) List(c *gin.Context) {
	q := h.db.WithContext(c.Request.Context()).
		Model(&models.Reward{}).
		Preload("Admin").
		Where("is_active = ?", true)
	if adminQ := strings.TrimSpace(c.Query("admin_id")); adminQ != "" {
		adminID, errParse := strconv.ParseUint(adminQ, 10, 64)
		if errParse != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid admin_id"})
			return
		}
		q = q.Where("admin_id = ?", adminID)
	}

	var rows []models.Reward
	if errFind := q.Order("points_required ASC").Find(&rows).Error; errFind != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list rewards failed"})
		return
	}
	out := make([]gin.H, 0, len(rows))
	for _, row := range rows {
		item := gin.H{
			"id":              row.ID,
			"name":            row.Name,
			"description":     row.Description,
			"points_required": row.PointsRequired,
		}
		if row.Admin != nil {
			item["shop_name"] = row.Admin.ShopName
		}
		out = append(out, item)
	}
	c.JSON(http.StatusOK, gin.H{"rewards": out})
}
