package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/perkhive/loyalty-server/internal/ledger"
	"github.com/perkhive/loyalty-server/internal/models"
	"gorm.io/gorm"
)

// TokenHandler handles the customer's "check my tokens" view. Loading the view
// first sweeps the user's overdue grants so the listed balances are current.
type TokenHandler struct {
	db     *gorm.DB
	ledger *ledger.Ledger
}

// NewTokenHandler constructs a TokenHandler.
func NewTokenHandler(db *gorm.DB, l *ledger.Ledger) *TokenHandler {
	return &TokenHandler{db: db, ledger: l}
}

// Check sweeps the user's overdue grants per issuing admin, then returns the
// remaining valid grants, the balance, and the total just clawed back.
func (h *TokenHandler) Check(c *gin.Context) {
	userID := getUserID(c)

	var senderIDs []uint64
	if errFind := h.db.WithContext(c.Request.Context()).
		Model(&models.PaymentGrant{}).
		Distinct("sender_id").
		Where("receiver_id = ? AND status = ?", userID, models.GrantStatusValid).
		Pluck("sender_id", &senderIDs).Error; errFind != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query grants failed"})
		return
	}

	var totalDeducted int64
	for _, senderID := range senderIDs {
		deducted, errSweep := h.ledger.Sweep(c.Request.Context(), senderID, userID)
		if errSweep != nil {
			if errors.Is(errSweep, ledger.ErrUserNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": errSweep.Error()})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "sweep failed"})
			return
		}
		totalDeducted += deducted
	}

	var grants []models.PaymentGrant
	if errFind := h.db.WithContext(c.Request.Context()).
		Preload("Sender").
		Where("receiver_id = ? AND status = ?", userID, models.GrantStatusValid).
		Order("expiry_date ASC").
		Find(&grants).Error; errFind != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query grants failed"})
		return
	}

	var user models.User
	if errFind := h.db.WithContext(c.Request.Context()).First(&user, userID).Error; errFind != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query user failed"})
		return
	}

	out := make([]gin.H, 0, len(grants))
	for i := range grants {
		grant := &grants[i]
		remaining := ledger.GrantValue(grant)
		if grant.RemainingPoints != nil {
			remaining = *grant.RemainingPoints
		}
		item := gin.H{
			"id":               grant.ID,
			"points_value":     ledger.GrantValue(grant),
			"remaining_points": remaining,
			"expiry_date":      grant.ExpiryDate,
		}
		if grant.Sender != nil {
			item["shop_name"] = grant.Sender.ShopName
		}
		out = append(out, item)
	}
	c.JSON(http.StatusOK, gin.H{
		"points":                user.Points,
		"grants":                out,
		"total_points_deducted": totalDeducted,
	})
}
