package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	dbutil "github.com/perkhive/loyalty-server/internal/db"
	"github.com/perkhive/loyalty-server/internal/ledger"
	"github.com/perkhive/loyalty-server/internal/models"
	"gorm.io/gorm"
)

// UserHandler handles admin operations on customer accounts.
type UserHandler struct {
	db     *gorm.DB
	ledger *ledger.Ledger
}

// NewUserHandler constructs a UserHandler.
func NewUserHandler(db *gorm.DB, l *ledger.Ledger) *UserHandler {
	return &UserHandler{db: db, ledger: l}
}

// List returns customers filtered by name or unique code.
func (h *UserHandler) List(c *gin.Context) {
	var (
		nameQ = strings.TrimSpace(c.Query("name"))
		codeQ = strings.TrimSpace(c.Query("code"))
	)

	q := h.db.WithContext(c.Request.Context()).Model(&models.User{})
	if nameQ != "" {
		pattern := dbutil.NormalizeLikePattern(h.db, "%"+nameQ+"%")
		q = q.Where(dbutil.CaseInsensitiveLikeExpr(h.db, "name"), pattern)
	}
	if codeQ != "" {
		q = q.Where("unique_code = ?", codeQ)
	}

	var rows []models.User
	if errFind := q.Order("created_at DESC").Find(&rows).Error; errFind != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list users failed"})
		return
	}
	out := make([]gin.H, 0, len(rows))
	for _, row := range rows {
		out = append(out, gin.H{
			"id":          row.ID,
			"name":        row.Name,
			"unique_code": row.UniqueCode,
			"points":      row.Points,
			"disabled":    row.Disabled,
		})
	}
	c.JSON(http.StatusOK, gin.H{"users": out})
}

// creditTokensRequest captures the payload for crediting permanent tokens.
type creditTokensRequest struct {
	Points int64 `json:"points"`
}

// CreditTokens credits permanent, non-expiring points to a user.
func (h *UserHandler) CreditTokens(c *gin.Context) {
	id, errParse := strconv.ParseUint(strings.TrimSpace(c.Param("id")), 10, 64)
	if errParse != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	var body creditTokensRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if body.Points <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "points must be positive"})
		return
	}

	user, errCredit := h.ledger.CreditTokens(c.Request.Context(), id, body.Points)
	if errCredit != nil {
		if errors.Is(errCredit, ledger.ErrUserNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": errCredit.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "credit tokens failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"user_id": user.ID, "points": user.Points})
}

// Sweep expires this admin's overdue grants for a user and claws back their
// unconsumed value.
func (h *UserHandler) Sweep(c *gin.Context) {
	id, errParse := strconv.ParseUint(strings.TrimSpace(c.Param("id")), 10, 64)
	if errParse != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	total, errSweep := h.ledger.Sweep(c.Request.Context(), getAdminID(c), id)
	if errSweep != nil {
		if errors.Is(errSweep, ledger.ErrUserNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": errSweep.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "sweep failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"total_points_deducted": total})
}
