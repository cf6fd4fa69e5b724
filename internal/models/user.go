package models

import "time"

// User represents a customer account holding a spendable point balance.
type User struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	Name     string `gorm:"type:text;not null"`             // Display name.
	Email    string `gorm:"type:text;not null;uniqueIndex"` // Unique login email.
	Password string `gorm:"type:text;not null"`             // Hashed password.

	UniqueCode string `gorm:"type:text;not null;uniqueIndex"` // Shareable code admins use to address the user.

	// Points is the current spendable balance. It never goes negative; all
	// mutation goes through ledger.CreditPoints and ledger.DebitPoints.
	Points int64 `gorm:"not null;default:0"`

	Disabled bool `gorm:"not null;default:false"` // Whether the user is blocked from signing in.

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Creation timestamp.
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime"` // Last update timestamp.
}
