package models

import "time"

// Admin represents a shopkeeper account stored in the database.
type Admin struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	Name     string `gorm:"type:text;not null"`             // Display name.
	Email    string `gorm:"type:text;not null;uniqueIndex"` // Unique login email.
	Password string `gorm:"type:text;not null"`             // Hashed password.
	ShopName string `gorm:"type:text;not null"`             // Shop display name.

	Approved     bool `gorm:"not null;default:false"` // Super-admin approval gate.
	Active       bool `gorm:"not null;default:true"`  // Whether the admin can sign in.
	IsSuperAdmin bool `gorm:"not null;default:false"` // Grants platform administration when true.

	TOTPSecret string `gorm:"type:text"` // TOTP secret for MFA.

	InvoicesIssued int64 `gorm:"not null;default:0"` // Count of payment grants issued.

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Creation timestamp.
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime"` // Last update timestamp.
}
