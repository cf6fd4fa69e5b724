package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/perkhive/loyalty-server/internal/ledger"
	"github.com/perkhive/loyalty-server/internal/models"
	"gorm.io/gorm"
)

// RedemptionFrontHandler handles customer redemption requests.
type RedemptionFrontHandler struct {
	db     *gorm.DB
	ledger *ledger.Ledger
}

// NewRedemptionFrontHandler constructs a RedemptionFrontHandler.
func NewRedemptionFrontHandler(db *gorm.DB, l *ledger.Ledger) *RedemptionFrontHandler {
	return &RedemptionFrontHandler{db: db, ledger: l}
}

// createRedemptionRequest defines the request body for requesting a reward.
type createRedemptionRequest struct {
	RewardID uint64 `json:"reward_id"`
}

// Create requests a reward redemption. The point cost is debited immediately
// and refunded only if an admin rejects the request.
func (h *RedemptionFrontHandler) Create(c *gin.Context) {
	var body createRedemptionRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if body.RewardID == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing reward_id"})
		return
	}

	request, errRequest := h.ledger.RequestRedemption(c.Request.Context(), getUserID(c), body.RewardID)
	switch {
	case errRequest == nil:
	case errors.Is(errRequest, ledger.ErrRewardNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": errRequest.Error()})
		return
	case errors.Is(errRequest, ledger.ErrRewardInactive):
		c.JSON(http.StatusBadRequest, gin.H{"error": errRequest.Error()})
		return
	case errors.Is(errRequest, ledger.ErrInsufficientPoints):
		c.JSON(http.StatusConflict, gin.H{"error": errRequest.Error()})
		return
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "request redemption failed"})
		return
	}

	c.JSON(http.StatusCreated, formatRedemption(request))
}

// List returns the user's redemption requests, newest first.
func (h *RedemptionFrontHandler) List(c *gin.Context) {
	var rows []models.RedemptionRequest
	if errFind := h.db.WithContext(c.Request.Context()).
		Preload("Reward").
		Where("user_id = ?", getUserID(c)).
		Order("created_at DESC").
		Find(&rows).Error; errFind != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list redemptions failed"})
		return
	}
	out := make([]gin.H, 0, len(rows))
	for i := range rows {
		out = append(out, formatRedemption(&rows[i]))
	}
	c.JSON(http.StatusOK, gin.H{"redemptions": out})
}

// Cancel voids one of the user's pending redemptions. The debited points are
// not refunded.
func (h *RedemptionFrontHandler) Cancel(c *gin.Context) {
	id, errParse := strconv.ParseUint(strings.TrimSpace(c.Param("id")), 10, 64)
	if errParse != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	request, errCancel := h.ledger.CancelRedemption(c.Request.Context(), getUserID(c), id)
	switch {
	case errCancel == nil:
	case errors.Is(errCancel, ledger.ErrRedemptionNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": errCancel.Error()})
		return
	case errors.Is(errCancel, ledger.ErrAlreadyApproved),
		errors.Is(errCancel, ledger.ErrAlreadyRejected),
		errors.Is(errCancel, ledger.ErrAlreadyCancelled):
		c.JSON(http.StatusConflict, gin.H{"error": errCancel.Error()})
		return
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "cancel redemption failed"})
		return
	}

	c.JSON(http.StatusOK, formatRedemption(request))
}

// formatRedemption maps a redemption request into a response payload.
func formatRedemption(request *models.RedemptionRequest) gin.H {
	item := gin.H{
		"id":              request.ID,
		"reference":       request.Reference,
		"reward_id":       request.RewardID,
		"points_required": request.PointsRequired,
		"status":          request.Status,
		"redeemed_at":     request.RedeemedAt,
		"created_at":      request.CreatedAt,
	}
	if request.Reward != nil {
		item["reward"] = gin.H{
			"id":   request.Reward.ID,
			"name": request.Reward.Name,
		}
	}
	return item
}
