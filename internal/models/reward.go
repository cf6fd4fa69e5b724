package models

import "time"

// Reward is a catalog entry users can redeem points against.
type Reward struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	AdminID uint64 `gorm:"not null;index"` // Owning shopkeeper.

	Name        string `gorm:"type:text;not null"` // Display name.
	Description string `gorm:"type:text"`          // Optional description.

	PointsRequired int64 `gorm:"not null"` // Redemption cost in points.

	IsActive bool `gorm:"not null;default:true"` // Whether users can request it.

	Admin *Admin `gorm:"foreignKey:AdminID"` // Owning admin record.

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Creation timestamp.
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime"` // Last update timestamp.
}
