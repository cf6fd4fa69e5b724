package db

import (
	"fmt"

	"github.com/perkhive/loyalty-server/internal/models"
	"gorm.io/gorm"
)

// Migrate creates or updates the schema for all loyalty models.
func Migrate(conn *gorm.DB) error {
	if conn == nil {
		return fmt.Errorf("db: nil connection")
	}

	if errMigrate := conn.AutoMigrate(
		&models.Admin{},
		&models.User{},
		&models.Reward{},
		&models.PaymentGrant{},
		&models.RedemptionRequest{},
		&models.Notification{},
	); errMigrate != nil {
		return fmt.Errorf("db: migrate: %w", errMigrate)
	}

	// Expired grants carry no remaining value. Repair rows written before the
	// invariant was enforced in the ledger.
	if errRepair := conn.Model(&models.PaymentGrant{}).
		Where("status = ? AND remaining_points IS NOT NULL", models.GrantStatusExpired).
		Update("remaining_points", nil).Error; errRepair != nil {
		return fmt.Errorf("db: repair expired grants: %w", errRepair)
	}

	return nil
}
