package dbmysql

import (
	"time"
)

// Message is immutable once persisted. Content for a file message is the
// inline "[FILE]name|size|attachmentID" tag; AttachmentID is set alongside.
type Message struct {
	ID             uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	ConversationID string    `gorm:"index;size:36;not null" json:"conversation_id"`
	Sender         string    `gorm:"index;size:50;not null" json:"sender"`
	Content        string    `gorm:"type:text" json:"content"`
	AttachmentID   *string   `gorm:"size:36" json:"attachment_id,omitempty"`
	CreatedAt      time.Time `gorm:"autoCreateTime;index" json:"created_at"`
}
