package ledger

import (
	"fmt"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	dbutil "github.com/perkhive/loyalty-server/internal/db"
	"github.com/perkhive/loyalty-server/internal/models"
	"gorm.io/gorm"
)

func openLedgerTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:ledger_%d?mode=memory&cache=shared", time.Now().UnixNano())
	conn, errOpen := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if errOpen != nil {
		t.Fatalf("open db: %v", errOpen)
	}
	if errMigrate := dbutil.Migrate(conn); errMigrate != nil {
		t.Fatalf("migrate db: %v", errMigrate)
	}
	return conn
}

func newTestLedger(t *testing.T, now time.Time) (*Ledger, *gorm.DB) {
	t.Helper()
	conn := openLedgerTestDB(t)
	l := New(conn, nil)
	l.now = func() time.Time { return now }
	return l, conn
}

func seedAdmin(t *testing.T, conn *gorm.DB, email string) *models.Admin {
	t.Helper()
	admin := models.Admin{
		Name:     "Shopkeeper",
		Email:    email,
		Password: "x",
		ShopName: "Corner Shop",
		Approved: true,
		Active:   true,
	}
	if errCreate := conn.Create(&admin).Error; errCreate != nil {
		t.Fatalf("create admin: %v", errCreate)
	}
	return &admin
}

func seedUser(t *testing.T, conn *gorm.DB, code string, points int64) *models.User {
	t.Helper()
	user := models.User{
		Name:       "Customer",
		Email:      code + "@example.com",
		Password:   "x",
		UniqueCode: code,
		Points:     points,
	}
	if errCreate := conn.Create(&user).Error; errCreate != nil {
		t.Fatalf("create user: %v", errCreate)
	}
	return &user
}

func seedReward(t *testing.T, conn *gorm.DB, adminID uint64, cost int64, active bool) *models.Reward {
	t.Helper()
	reward := models.Reward{
		AdminID:        adminID,
		Name:           "Free Coffee",
		PointsRequired: cost,
		IsActive:       active,
	}
	if errCreate := conn.Create(&reward).Error; errCreate != nil {
		t.Fatalf("create reward: %v", errCreate)
	}
	return &reward
}

// seedGrant inserts a valid grant directly. remaining == nil means untouched;
// the grant's floor value is amount/10 when percentage is 10.
func seedGrant(t *testing.T, conn *gorm.DB, senderID, receiverID uint64, invoice string, amount float64, expiry time.Time, remaining *int64) *models.PaymentGrant {
	t.Helper()
	grant := models.PaymentGrant{
		InvoiceNumber:    invoice,
		Amount:           amount,
		RewardPercentage: 10,
		ExpiryDate:       expiry,
		SenderID:         senderID,
		ReceiverID:       receiverID,
		Status:           models.GrantStatusValid,
		RemainingPoints:  remaining,
	}
	if errCreate := conn.Create(&grant).Error; errCreate != nil {
		t.Fatalf("create grant %s: %v", invoice, errCreate)
	}
	return &grant
}

func reloadGrant(t *testing.T, conn *gorm.DB, id uint64) *models.PaymentGrant {
	t.Helper()
	var grant models.PaymentGrant
	if errFind := conn.First(&grant, id).Error; errFind != nil {
		t.Fatalf("reload grant %d: %v", id, errFind)
	}
	return &grant
}

func reloadUser(t *testing.T, conn *gorm.DB, id uint64) *models.User {
	t.Helper()
	var user models.User
	if errFind := conn.First(&user, id).Error; errFind != nil {
		t.Fatalf("reload user %d: %v", id, errFind)
	}
	return &user
}

func int64Ptr(v int64) *int64 { return &v }
