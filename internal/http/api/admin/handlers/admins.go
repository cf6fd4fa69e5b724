package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/perkhive/loyalty-server/internal/models"
	"gorm.io/gorm"
)

// AdminHandler handles super-admin management of shopkeeper accounts.
type AdminHandler struct {
	db *gorm.DB
}

// NewAdminHandler constructs an AdminHandler.
func NewAdminHandler(db *gorm.DB) *AdminHandler {
	return &AdminHandler{db: db}
}

// List returns shopkeeper accounts, optionally filtered by approval state.
func (h *AdminHandler) List(c *gin.Context) {
	approvedQ := strings.TrimSpace(c.Query("approved"))

	q := h.db.WithContext(c.Request.Context()).
		Model(&models.Admin{}).
		Where("is_super_admin = ?", false)
	if approvedQ == "true" || approvedQ == "1" {
		q = q.Where("approved = ?", true)
	} else if approvedQ == "false" || approvedQ == "0" {
		q = q.Where("approved = ?", false)
	}

	var rows []models.Admin
	if errFind := q.Order("created_at DESC").Find(&rows).Error; errFind != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list admins failed"})
		return
	}
	out := make([]gin.H, 0, len(rows))
	for _, row := range rows {
		out = append(out, gin.H{
			"id":              row.ID,
			"name":            row.Name,
			"email":           row.Email,
			"shop_name":       row.ShopName,
			"approved":        row.Approved,
			"active":          row.Active,
			"invoices_issued": row.InvoicesIssued,
			"created_at":      row.CreatedAt,
		})
	}
	c.JSON(http.StatusOK, gin.H{"admins": out})
}

// Approve marks a shopkeeper account as approved.
func (h *AdminHandler) Approve(c *gin.Context) {
	h.setFlags(c, map[string]any{"approved": true, "active": true})
}

// Deactivate blocks a shopkeeper account from signing in or acting.
func (h *AdminHandler) Deactivate(c *gin.Context) {
	h.setFlags(c, map[string]any{"active": false})
}

func (h *AdminHandler) setFlags(c *gin.Context, updates map[string]any) {
	id, errParse := strconv.ParseUint(strings.TrimSpace(c.Param("id")), 10, 64)
	if errParse != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	res := h.db.WithContext(c.Request.Context()).
		Model(&models.Admin{}).
		Where("id = ? AND is_super_admin = ?", id, false).
		Updates(updates)
	if res.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "update admin failed"})
		return
	}
	if res.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}
