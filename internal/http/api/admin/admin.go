// Package admin registers shopkeeper and super-admin HTTP routes.
package admin

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/perkhive/loyalty-server/internal/config"
	"github.com/perkhive/loyalty-server/internal/http/api/admin/handlers"
	"github.com/perkhive/loyalty-server/internal/ledger"
	"github.com/perkhive/loyalty-server/internal/models"
	"github.com/perkhive/loyalty-server/internal/security"
	"gorm.io/gorm"
)

// RegisterAdminRoutes registers admin authentication and management routes.
func RegisterAdminRoutes(r *gin.Engine, db *gorm.DB, jwtCfg config.JWTConfig, l *ledger.Ledger) {
	if r == nil || db == nil {
		return
	}

	group := r.Group("/v0/admin")

	authHandler := handlers.NewAuthHandler(db, jwtCfg)
	group.POST("/register", authHandler.Register)
	group.POST("/login", authHandler.Login)
	group.POST("/login/totp", authHandler.LoginTOTP)

	authed := group.Group("")
	authed.Use(adminAuthMiddleware(db, jwtCfg))

	mfaHandler := handlers.NewMFAHandler(db)
	authed.GET("/mfa/totp", mfaHandler.Status)
	authed.POST("/mfa/totp/prepare", mfaHandler.Prepare)
	authed.POST("/mfa/totp/confirm", mfaHandler.Confirm)
	authed.POST("/mfa/totp/disable", mfaHandler.Disable)

	paymentHandler := handlers.NewPaymentHandler(db, l)
	authed.POST("/payments", paymentHandler.Create)
	authed.GET("/payments", paymentHandler.List)

	redemptionHandler := handlers.NewRedemptionHandler(db, l)
	authed.GET("/redemptions", redemptionHandler.List)
	authed.POST("/redemptions/:id/approve", redemptionHandler.Approve)
	authed.POST("/redemptions/:id/reject", redemptionHandler.Reject)

	rewardHandler := handlers.NewRewardHandler(db)
	authed.GET("/rewards", rewardHandler.List)
	authed.POST("/rewards", rewardHandler.Create)
	authed.PUT("/rewards/:id", rewardHandler.Update)
	authed.DELETE("/rewards/:id", rewardHandler.Delete)

	userHandler := handlers.NewUserHandler(db, l)
	authed.GET("/users", userHandler.List)
	authed.POST("/users/:id/tokens", userHandler.CreditTokens)
	authed.POST("/users/:id/sweep", userHandler.Sweep)

	super := authed.Group("")
	super.Use(superAdminMiddleware())

	adminHandler := handlers.NewAdminHandler(db)
	super.GET("/admins", adminHandler.List)
	super.POST("/admins/:id/approve", adminHandler.Approve)
	super.POST("/admins/:id/deactivate", adminHandler.Deactivate)
}

// adminAuthMiddleware validates admin JWTs and loads the admin into context.
// Unapproved shopkeepers can authenticate but not act.
func adminAuthMiddleware(db *gorm.DB, jwtCfg config.JWTConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing authorization header"})
			return
		}
		token := strings.TrimPrefix(authHeader, "Bearer ")
		if token == authHeader {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid authorization format"})
			return
		}
		token = strings.TrimSpace(token)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "empty token"})
			return
		}

		claims, errJWT := security.ParseAdminToken(jwtCfg.Secret, token)
		if errJWT != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		var admin models.Admin
		if errFind := db.WithContext(c.Request.Context()).First(&admin, claims.AdminID).Error; errFind != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "admin not found"})
			return
		}
		if !admin.Active {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "admin account is disabled"})
			return
		}
		if !admin.Approved && !admin.IsSuperAdmin {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "admin account is not approved"})
			return
		}

		c.Set("adminID", admin.ID)
		c.Set("isSuperAdmin", admin.IsSuperAdmin)
		c.Next()
	}
}

// superAdminMiddleware restricts routes to super-admin accounts.
func superAdminMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if v, ok := c.Get("isSuperAdmin"); !ok || v != true {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "super admin required"})
			return
		}
		c.Next()
	}
}
