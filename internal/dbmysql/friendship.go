package dbmysql

import (
	"time"
)

// Friendship statuses.
const (
	FriendPending  = "pending"
	FriendAccepted = "accepted"
	FriendRejected = "rejected"
)

// Friendship is directional at creation (User1 requested User2) but queried
// bidirectionally. PairKey is the canonical min|max of the two usernames and
// its unique index guarantees at most one row per unordered pair.
type Friendship struct {
	ID          uint64     `gorm:"primaryKey;autoIncrement" json:"id"`
	User1       string     `gorm:"column:user1;size:50;not null;index" json:"user1"`
	User2       string     `gorm:"column:user2;size:50;not null;index" json:"user2"`
	PairKey     string     `gorm:"column:pair_key;size:101;uniqueIndex;not null" json:"-"`
	Status      string     `gorm:"type:enum('pending','accepted','rejected');default:'pending'" json:"status"`
	RequestedAt time.Time  `gorm:"autoCreateTime" json:"requested_at"`
	RespondedAt *time.Time `json:"responded_at,omitempty"`
	UpdatedAt   time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}
