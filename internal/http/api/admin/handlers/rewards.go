package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/perkhive/loyalty-server/internal/models"
	"gorm.io/gorm"
)

// RewardHandler handles reward catalog management for an admin's shop.
type RewardHandler struct {
	db *gorm.DB
}

// NewRewardHandler constructs a RewardHandler.
func NewRewardHandler(db *gorm.DB) *RewardHandler {
	return &RewardHandler{db: db}
}

// createRewardRequest captures the payload for creating a reward.
type createRewardRequest struct {
	Name           string `json:"name"`
	Description    string `json:"description"`
	PointsRequired int64  `json:"points_required"`
	IsActive       *bool  `json:"is_active"`
}

// Create adds a reward to the admin's catalog.
func (h *RewardHandler) Create(c *gin.Context) {
	var body createRewardRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	name := strings.TrimSpace(body.Name)
	if name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing name"})
		return
	}
	if body.PointsRequired <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "points_required must be positive"})
		return
	}

	isActive := true
	if body.IsActive != nil {
		isActive = *body.IsActive
	}
	reward := models.Reward{
		AdminID:        getAdminID(c),
		Name:           name,
		Description:    strings.TrimSpace(body.Description),
		PointsRequired: body.PointsRequired,
		IsActive:       isActive,
	}
	if errCreate := h.db.WithContext(c.Request.Context()).Create(&reward).Error; errCreate != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "create reward failed"})
		return
	}
	c.JSON(http.StatusCreated, formatReward(&reward))
}

// List returns the admin's rewards, newest first.
func (h *RewardHandler) List(c *gin.Context) {
	var rows []models.Reward
	if errFind := h.db.WithContext(c.Request.Context()).
		Where("admin_id = ?", getAdminID(c)).
		Order("created_at DESC").
		Find(&rows).Error; errFind != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list rewards failed"})
		return
	}
	out := make([]gin.H, 0, len(rows))
	for i := range rows {
		out = append(out, formatReward(&rows[i]))
	}
	c.JSON(http.StatusOK, gin.H{"rewards": out})
}

// updateRewardRequest captures optional fields for reward updates.
type updateRewardRequest struct {
	Name           *string `json:"name"`
	Description    *string `json:"description"`
	PointsRequired *int64  `json:"points_required"`
	IsActive       *bool   `json:"is_active"`
}

// Update applies validated field changes to one of the admin's rewards.
func (h *RewardHandler) Update(c *gin.Context) {
	id, errParse := strconv.ParseUint(strings.TrimSpace(c.Param("id")), 10, 64)
	if errParse != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	var reward models.Reward
	if errFind := h.db.WithContext(c.Request.Context()).
		Where("id = ? AND admin_id = ?", id, getAdminID(c)).
		First(&reward).Error; errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}

	var body updateRewardRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	updates := map[string]any{}
	if body.Name != nil {
		name := strings.TrimSpace(*body.Name)
		if name == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "name cannot be empty"})
			return
		}
		updates["name"] = name
	}
	if body.Description != nil {
		updates["description"] = strings.TrimSpace(*body.Description)
	}
	if body.PointsRequired != nil {
		if *body.PointsRequired <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "points_required must be positive"})
			return
		}
		updates["points_required"] = *body.PointsRequired
	}
	if body.IsActive != nil {
		updates["is_active"] = *body.IsActive
	}
	if len(updates) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no fields to update"})
		return
	}

	if errSave := h.db.WithContext(c.Request.Context()).
		Model(&reward).
		Updates(updates).Error; errSave != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "update failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// Delete removes one of the admin's rewards.
func (h *RewardHandler) Delete(c *gin.Context) {
	id, errParse := strconv.ParseUint(strings.TrimSpace(c.Param("id")), 10, 64)
	if errParse != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	res := h.db.WithContext(c.Request.Context()).
		Where("admin_id = ?", getAdminID(c)).
		Delete(&models.Reward{}, id)
	if res.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "delete failed"})
		return
	}
	if res.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}
	c.Status(http.StatusNoContent)
}

// formatReward maps a reward into a response payload.
func formatReward(reward *models.Reward) gin.H {
	return gin.H{
		"id":              reward.ID,
		"name":            reward.Name,
		"description":     reward.Description,
		"points_required": reward.PointsRequired,
		"is_active":       reward.IsActive,
		"created_at":      reward.CreatedAt,
	}
}
