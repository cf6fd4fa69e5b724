package db

import (
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/perkhive/loyalty-server/internal/models"
	"gorm.io/gorm"
)

func TestMigrateSQLiteCreatesLoyaltyTables(t *testing.T) {
	conn, errOpen := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if errOpen != nil {
		t.Fatalf("open sqlite: %v", errOpen)
	}

	if errMigrate := Migrate(conn); errMigrate != nil {
		t.Fatalf("migrate: %v", errMigrate)
	}

	for _, table := range []string{
		"admins", "users", "rewards", "payment_grants", "redemption_requests", "notifications",
	} {
		if !conn.Migrator().HasTable(table) {
			t.Fatalf("missing table %s", table)
		}
	}
	for _, column := range []string{"invoice_number", "expiry_date", "remaining_points", "status"} {
		if !conn.Migrator().HasColumn("payment_grants", column) {
			t.Fatalf("payment_grants missing column %s", column)
		}
	}
}

func TestMigrateSQLiteClearsRemainingPointsOnExpiredGrants(t *testing.T) {
	conn, errOpen := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if errOpen != nil {
		t.Fatalf("open sqlite: %v", errOpen)
	}
	if errMigrate := Migrate(conn); errMigrate != nil {
		t.Fatalf("migrate: %v", errMigrate)
	}

	remaining := int64(15)
	grant := models.PaymentGrant{
		InvoiceNumber:    "INV-LEGACY",
		Amount:           100,
		RewardPercentage: 10,
		ExpiryDate:       time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		SenderID:         1,
		ReceiverID:       1,
		Status:           models.GrantStatusExpired,
		RemainingPoints:  &remaining,
	}
	if errCreate := conn.Create(&grant).Error; errCreate != nil {
		t.Fatalf("create legacy grant: %v", errCreate)
	}

	if errMigrate := Migrate(conn); errMigrate != nil {
		t.Fatalf("second migrate: %v", errMigrate)
	}

	var reloaded models.PaymentGrant
	if errFind := conn.First(&reloaded, grant.ID).Error; errFind != nil {
		t.Fatalf("reload grant: %v", errFind)
	}
	if reloaded.RemainingPoints != nil {
		t.Fatalf("expected remaining_points cleared on expired grant, got %d", *reloaded.RemainingPoints)
	}
}
