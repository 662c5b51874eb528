package dbmysql

import (
	"time"
)

// FileAttachment is a content-addressed blob record. ContentHash is the
// SHA-256 of the raw bytes and is unique: two uploads with identical bytes
// resolve to the same row. Rows are never mutated after creation.
type FileAttachment struct {
	ID           string    `gorm:"primaryKey;size:36" json:"id"`
	OriginalName string    `gorm:"size:255;not null" json:"original_name"`
	StoragePath  string    `gorm:"size:500;not null" json:"storage_path"`
	MimeType     string    `gorm:"size:100" json:"mime_type"`
	Size         int64     `gorm:"not null" json:"size"`
	ContentHash  string    `gorm:"size:64;uniqueIndex;not null" json:"content_hash"`
	ThumbPath    *string   `gorm:"size:500" json:"thumb_path,omitempty"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"created_at"`
}
