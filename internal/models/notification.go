package models

import (
	"time"

	"gorm.io/datatypes"
)

// Notification stores a user-facing event so the UI can replay missed pushes.
type Notification struct {
	ID string `gorm:"type:text;primaryKey"` // UUID primary key.

	UserID uint64 `gorm:"not null;index"`           // Target user.
	Event  string `gorm:"type:text;not null;index"` // Event name, e.g. points.granted.

	Payload datatypes.JSON `gorm:"type:jsonb;not null;default:'{}'"` // Event payload.

	ReadAt *time.Time // When the user acknowledged the notification.

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Creation timestamp.
}
