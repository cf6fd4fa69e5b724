package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	dbutil "github.com/perkhive/loyalty-server/internal/db"
	"github.com/perkhive/loyalty-server/internal/ledger"
	"github.com/perkhive/loyalty-server/internal/models"
	"gorm.io/gorm"
)

// PaymentHandler handles payment grant issuance and invoice history.
type PaymentHandler struct {
	db     *gorm.DB
	ledger *ledger.Ledger
}

// NewPaymentHandler constructs a PaymentHandler.
func NewPaymentHandler(db *gorm.DB, l *ledger.Ledger) *PaymentHandler {
	return &PaymentHandler{db: db, ledger: l}
}

// createPaymentRequest captures the payload for recording a payment.
type createPaymentRequest struct {
	InvoiceNumber    string  `json:"invoice_number"`
	Amount           float64 `json:"amount"`
	RewardPercentage float64 `json:"reward_percentage"`
	Expiry           string  `json:"expiry"`        // e.g. "3 months"
	ReceiverCode     string  `json:"receiver_code"` // user unique code
}

// Create records a payment: it issues a point grant to the receiver and
// credits their balance.
func (h *PaymentHandler) Create(c *gin.Context) {
	var body createPaymentRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	invoice := strings.TrimSpace(body.InvoiceNumber)
	if invoice == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing invoice_number"})
		return
	}
	if body.Amount <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "amount must be positive"})
		return
	}
	if body.RewardPercentage < 0 || body.RewardPercentage > 100 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "reward_percentage must be between 0 and 100"})
		return
	}
	if strings.TrimSpace(body.ReceiverCode) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing receiver_code"})
		return
	}

	grant, errCreate := h.ledger.CreateGrant(c.Request.Context(), ledger.CreateGrantParams{
		InvoiceNumber:    invoice,
		Amount:           body.Amount,
		RewardPercentage: body.RewardPercentage,
		ExpirySpec:       body.Expiry,
		SenderID:         getAdminID(c),
		ReceiverCode:     body.ReceiverCode,
	})
	switch {
	case errCreate == nil:
	case errors.Is(errCreate, ledger.ErrInvalidExpiryFormat):
		c.JSON(http.StatusBadRequest, gin.H{"error": errCreate.Error()})
		return
	case errors.Is(errCreate, ledger.ErrReceiverNotFound), errors.Is(errCreate, ledger.ErrSenderNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": errCreate.Error()})
		return
	case errors.Is(errCreate, ledger.ErrDuplicateInvoice):
		c.JSON(http.StatusConflict, gin.H{"error": errCreate.Error()})
		return
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "create payment failed"})
		return
	}

	c.JSON(http.StatusCreated, formatGrant(grant))
}

// List returns the admin's issued grants, newest first, with optional filters.
func (h *PaymentHandler) List(c *gin.Context) {
	var (
		invoiceQ = strings.TrimSpace(c.Query("invoice"))
		statusQ  = strings.TrimSpace(c.Query("status"))
	)

	q := h.db.WithContext(c.Request.Context()).
		Model(&models.PaymentGrant{}).
		Preload("Receiver").
		Where("sender_id = ?", getAdminID(c))
	if invoiceQ != "" {
		pattern := dbutil.NormalizeLikePattern(h.db, "%"+invoiceQ+"%")
		q = q.Where(dbutil.CaseInsensitiveLikeExpr(h.db, "invoice_number"), pattern)
	}
	if statusQ == models.GrantStatusValid || statusQ == models.GrantStatusExpired {
		q = q.Where("status = ?", statusQ)
	}

	var rows []models.PaymentGrant
	if errFind := q.Order("created_at DESC").Find(&rows).Error; errFind != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list payments failed"})
		return
	}
	out := make([]gin.H, 0, len(rows))
	for i := range rows {
		out = append(out, formatGrant(&rows[i]))
	}
	c.JSON(http.StatusOK, gin.H{"payments": out})
}

// formatGrant maps a payment grant into a response payload.
func formatGrant(grant *models.PaymentGrant) gin.H {
	item := gin.H{
		"id":                grant.ID,
		"invoice_number":    grant.InvoiceNumber,
		"amount":            grant.Amount,
		"reward_percentage": grant.RewardPercentage,
		"points_value":      ledger.GrantValue(grant),
		"expiry_date":       grant.ExpiryDate,
		"sender_id":         grant.SenderID,
		"receiver_id":       grant.ReceiverID,
		"status":            grant.Status,
		"remaining_points":  grant.RemainingPoints,
		"created_at":        grant.CreatedAt,
	}
	if grant.Receiver != nil {
		item["receiver"] = gin.H{
			"id":          grant.Receiver.ID,
			"name":        grant.Receiver.Name,
			"unique_code": grant.Receiver.UniqueCode,
		}
	}
	return item
}
