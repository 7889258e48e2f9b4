package audit

import (
	"time"

	"gorm.io/datatypes"
)

type Entry struct {
	ID           int64          `gorm:"primaryKey"`
	UserID       int64          `gorm:"column:user_id;not null;index"`
	ResourceType string         `gorm:"column:resource_type;not null"`
	ResourceID   int64          `gorm:"column:resource_id;not null"`
	Action       string         `gorm:"column:action;not null"`
	Details      datatypes.JSON `gorm:"column:details"`
	CreatedAt    time.Time      `gorm:"column:created_at"`
}

func (Entry) TableName() string {
	return "audit_entries"
}
