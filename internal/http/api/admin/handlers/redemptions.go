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

// RedemptionHandler handles admin review of redemption requests.
type RedemptionHandler struct {
	db     *gorm.DB
	ledger *ledger.Ledger
}

// NewRedemptionHandler constructs a RedemptionHandler.
func NewRedemptionHandler(db *gorm.DB, l *ledger.Ledger) *RedemptionHandler {
	return &RedemptionHandler{db: db, ledger: l}
}

// List returns redemption requests for rewards owned by this admin, optionally
// filtered by status.
func (h *RedemptionHandler) List(c *gin.Context) {
	statusQ := strings.TrimSpace(c.Query("status"))

	q := h.db.WithContext(c.Request.Context()).
		Model(&models.RedemptionRequest{}).
		Preload("User").
		Preload("Reward").
		Joins("JOIN rewards ON rewards.id = redemption_requests.reward_id").
		Where("rewards.admin_id = ?", getAdminID(c))
	switch statusQ {
	case "":
	case models.RedemptionStatusPending, models.RedemptionStatusApproved,
		models.RedemptionStatusRejected, models.RedemptionStatusCancelled:
		q = q.Where("redemption_requests.status = ?", statusQ)
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid status"})
		return
	}

	var rows []models.RedemptionRequest
	if errFind := q.Order("redemption_requests.created_at DESC").Find(&rows).Error; errFind != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list redemptions failed"})
		return
	}
	out := make([]gin.H, 0, len(rows))
	for i := range rows {
		out = append(out, formatRedemption(&rows[i]))
	}
	c.JSON(http.StatusOK, gin.H{"redemptions": out})
}

// Approve approves a pending redemption, consuming grant value for its cost.
func (h *RedemptionHandler) Approve(c *gin.Context) {
	id, errParse := strconv.ParseUint(strings.TrimSpace(c.Param("id")), 10, 64)
	if errParse != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	request, errApprove := h.ledger.ApproveRedemption(c.Request.Context(), id)
	if errApprove != nil {
		h.respondTransitionError(c, id, errApprove)
		return
	}
	c.JSON(http.StatusOK, formatRedemption(request))
}

// Reject refuses a pending redemption and refunds the user's points.
func (h *RedemptionHandler) Reject(c *gin.Context) {
	id, errParse := strconv.ParseUint(strings.TrimSpace(c.Param("id")), 10, 64)
	if errParse != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	request, errReject := h.ledger.RejectRedemption(c.Request.Context(), id)
	if errReject != nil {
		h.respondTransitionError(c, id, errReject)
		return
	}
	c.JSON(http.StatusOK, formatRedemption(request))
}

// respondTransitionError maps ledger transition errors onto HTTP responses.
// Terminal-state conflicts include the request's current state so repeated
// calls stay idempotent for the caller.
func (h *RedemptionHandler) respondTransitionError(c *gin.Context, id uint64, err error) {
	switch {
	case errors.Is(err, ledger.ErrRedemptionNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, ledger.ErrUserNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, ledger.ErrInsufficientPoints):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, ledger.ErrAlreadyApproved),
		errors.Is(err, ledger.ErrAlreadyRejected),
		errors.Is(err, ledger.ErrAlreadyCancelled):
		var request models.RedemptionRequest
		if errFind := h.db.WithContext(c.Request.Context()).First(&request, id).Error; errFind == nil {
			c.JSON(http.StatusConflict, gin.H{"error": err.Error(), "redemption": formatRedemption(&request)})
			return
		}
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "update redemption failed"})
	}
}

// formatRedemption maps a redemption request into a response payload.
func formatRedemption(request *models.RedemptionRequest) gin.H {
	item := gin.H{
		"id":              request.ID,
		"reference":       request.Reference,
		"user_id":         request.UserID,
		"reward_id":       request.RewardID,
		"points_required": request.PointsRequired,
		"status":          request.Status,
		"redeemed_at":     request.RedeemedAt,
		"created_at":      request.CreatedAt,
	}
	if request.User != nil {
		item["user"] = gin.H{
			"id":          request.User.ID,
			"name":        request.User.Name,
			"unique_code": request.User.UniqueCode,
		}
	}
	if request.Reward != nil {
		item["reward"] = gin.H{
			"id":   request.Reward.ID,
			"name": request.Reward.Name,
		}
	}
	return item
}
