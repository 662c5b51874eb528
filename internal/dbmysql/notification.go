package dbmysql

import (
	"time"
)

type Notification struct {
	ID          string     `gorm:"primaryKey;size:36" json:"id"`
	Username    string     `gorm:"not null;index;size:50" json:"username"`
	Type        string     `gorm:"not null;size:50" json:"type"`
	RelatedUser string     `gorm:"size:50" json:"related_user"`
	ReadAt      *time.Time `json:"read_at,omitempty"`
	CreatedAt   time.Time  `gorm:"autoCreateTime" json:"created_at"`
}
