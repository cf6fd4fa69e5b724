package models

import "time"

// RedemptionRequest statuses.
const (
	// RedemptionStatusPending marks a request awaiting admin review.
	RedemptionStatusPending = "pending"
	// RedemptionStatusApproved marks a fulfilled request.
	RedemptionStatusApproved = "approved"
	// RedemptionStatusRejected marks a refused request whose points were refunded.
	RedemptionStatusRejected = "rejected"
	// RedemptionStatusCancelled marks a request withdrawn by the user.
	RedemptionStatusCancelled = "cancelled"
)

// RedemptionRequest tracks a user's attempt to exchange points for a reward.
// The balance is debited when the request is created; approval consumes grant
// value and rejection refunds the debit.
type RedemptionRequest struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	Reference string `gorm:"type:text;not null;uniqueIndex"` // Public UUID reference.

	UserID   uint64 `gorm:"not null;index"` // Requesting user.
	RewardID uint64 `gorm:"not null;index"` // Requested reward.

	PointsRequired int64 `gorm:"not null"` // Cost snapshot taken at request time.

	Status string `gorm:"type:text;not null;default:pending;index"` // pending, approved, rejected or cancelled.

	RedeemedAt *time.Time // Approval time, if approved.

	User   *User   `gorm:"foreignKey:UserID"`   // Requesting user record.
	Reward *Reward `gorm:"foreignKey:RewardID"` // Requested reward record.

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Creation timestamp.
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime"` // Last update timestamp.
}
