package handlers

import (
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/perkhive/loyalty-server/internal/models"
	"github.com/perkhive/loyalty-server/internal/security"
	"gorm.io/gorm"
)

// secretEntry stores a pending TOTP secret with expiry.
type secretEntry struct {
	secret  string
	expires time.Time
}

// secretStore keeps pending TOTP secrets in memory, keyed by admin ID.
// Handlers run on concurrent goroutines, so all access goes through the mutex.
type secretStore struct {
	mu    sync.Mutex
	items map[uint64]secretEntry
}

// newSecretStore creates an empty secret store.
func newSecretStore() *secretStore {
	return &secretStore{items: make(map[uint64]secretEntry)}
}

// Set stores a secret with expiry.
func (s *secretStore) Set(adminID uint64, secret string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[adminID] = secretEntry{secret: secret, expires: time.Now().Add(10 * time.Minute)}
}

// Get returns a secret if present and not expired.
func (s *secretStore) Get(adminID uint64) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.items[adminID]
	if !ok {
		return "", false
	}
	if time.Now().After(entry.expires) {
		delete(s.items, adminID)
		return "", false
	}
	return entry.secret, true
}

// Delete removes a secret entry.
func (s *secretStore) Delete(adminID uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.items, adminID)
}

// MFAHandler handles TOTP enrollment for admin accounts. pending holds
// generated secrets awaiting confirmation; confirmation must reach the same
// process that prepared the secret.
type MFAHandler struct {
	db      *gorm.DB
	pending *secretStore
}

// NewMFAHandler constructs an MFAHandler.
func NewMFAHandler(db *gorm.DB) *MFAHandler {
	return &MFAHandler{db: db, pending: newSecretStore()}
}

// Status reports whether TOTP is enabled for the current admin.
func (h *MFAHandler) Status(c *gin.Context) {
	adminID := getAdminID(c)
	var admin models.Admin
	if errFind := h.db.WithContext(c.Request.Context()).First(&admin, adminID).Error; errFind != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"totp_enabled": strings.TrimSpace(admin.TOTPSecret) != ""})
}

// Prepare generates a TOTP secret for the current admin to enroll with.
func (h *MFAHandler) Prepare(c *gin.Context) {
	adminID := getAdminID(c)
	var admin models.Admin
	if errFind := h.db.WithContext(c.Request.Context()).First(&admin, adminID).Error; errFind != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}
	if strings.TrimSpace(admin.TOTPSecret) != "" {
		c.JSON(http.StatusConflict, gin.H{"error": "mfa already enabled"})
		return
	}

	secret, url, errGen := security.GenerateTOTPSecret(admin.Email)
	if errGen != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "generate secret failed"})
		return
	}
	h.pending.Set(adminID, secret)
	c.JSON(http.StatusOK, gin.H{"secret": secret, "url": url})
}

// confirmTOTPRequest defines the request body for TOTP confirmation.
type confirmTOTPRequest struct {
	Code string `json:"code"`
}

// Confirm validates the first code against the pending secret and enables MFA.
func (h *MFAHandler) Confirm(c *gin.Context) {
	adminID := getAdminID(c)
	var body confirmTOTPRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	secret, ok := h.pending.Get(adminID)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no pending mfa setup"})
		return
	}
	if !security.ValidateTOTP(body.Code, secret) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid code"})
		return
	}

	if errSave := h.db.WithContext(c.Request.Context()).
		Model(&models.Admin{}).
		Where("id = ?", adminID).
		Update("totp_secret", secret).Error; errSave != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "enable mfa failed"})
		return
	}
	h.pending.Delete(adminID)
	c.JSON(http.StatusOK, gin.H{"totp_enabled": true})
}

// disableTOTPRequest defines the request body for disabling TOTP.
type disableTOTPRequest struct {
	Code string `json:"code"`
}

// Disable turns off TOTP after validating a current code.
func (h *MFAHandler) Disable(c *gin.Context) {
	adminID := getAdminID(c)
	var body disableTOTPRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	var admin models.Admin
	if errFind := h.db.WithContext(c.Request.Context()).First(&admin, adminID).Error; errFind != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}
	if strings.TrimSpace(admin.TOTPSecret) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "mfa is not enabled"})
		return
	}
	if !security.ValidateTOTP(body.Code, admin.TOTPSecret) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid code"})
		return
	}

	if errSave := h.db.WithContext(c.Request.Context()).
		Model(&models.Admin{}).
		Where("id = ?", adminID).
		Update("totp_secret", "").Error; errSave != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "disable mfa failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"totp_enabled": false})
}
