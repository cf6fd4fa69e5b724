package models

import "time"

// PaymentGrant statuses.
const (
	// GrantStatusValid marks a grant whose value is still consumable.
	GrantStatusValid = "valid"
	// GrantStatusExpired marks a grant excluded from consumption and sweeps.
	GrantStatusExpired = "expired"
)

// PaymentGrant records the points issued by one payment, with its own expiry
// window and remaining consumable value.
type PaymentGrant struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	InvoiceNumber string `gorm:"type:text;not null;uniqueIndex"` // Invoice reference, unique per payment.

	Amount           float64 `gorm:"type:decimal(20,10);not null"` // Purchase amount in money units.
	RewardPercentage float64 `gorm:"not null"`                     // Reward percentage, 0-100.

	ExpiryDate time.Time `gorm:"not null;index"` // Date the grant's value expires.

	SenderID   uint64 `gorm:"not null;index"` // Issuing admin.
	ReceiverID uint64 `gorm:"not null;index"` // Receiving user.

	Status string `gorm:"type:text;not null;default:valid;index"` // valid or expired.

	// RemainingPoints is nil while the grant is untouched: its full floor value
	// is still at stake. A non-nil value is the exact remaining point value
	// attributable to this grant. Forced to nil once the grant expires.
	RemainingPoints *int64

	Sender   *Admin `gorm:"foreignKey:SenderID"`   // Issuing admin record.
	Receiver *User  `gorm:"foreignKey:ReceiverID"` // Receiving user record.

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Creation timestamp.
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime"` // Last update timestamp.
}
