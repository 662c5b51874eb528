package dbmysql

import (
	"time"
)

// Conversation types. PRIVATE conversations carry the canonical pair name
// (min|max of the two usernames) so lookup by name is idempotent.
const (
	ConvGlobal  = "GLOBAL"
	ConvPrivate = "PRIVATE"
	ConvGroup   = "GROUP"
)

type Conversation struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	Type      string    `gorm:"type:enum('GLOBAL','PRIVATE','GROUP');not null" json:"type"`
	Name      string    `gorm:"uniqueIndex;size:120;not null" json:"name"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// Membership roles.
const (
	RoleOwner  = "owner"
	RoleMember = "member"
)

// Membership binds a user to a GROUP conversation and defines its routing
// fan-out list. GLOBAL and PRIVATE conversations route without it.
type Membership struct {
	ID             uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	ConversationID string    `gorm:"size:36;not null;index:idx_conv_user,unique" json:"conversation_id"`
	Username       string    `gorm:"size:50;not null;index:idx_conv_user,unique;index" json:"username"`
	Role           string    `gorm:"type:enum('owner','member');default:'member'" json:"role"`
	CreatedAt      time.Time `gorm:"autoCreateTime" json:"created_at"`
}
