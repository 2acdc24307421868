package models

import (
	"time"
)

// Follow represents a follow or block relationship
type Follow struct {
	FollowerID  string    `gorm:"primaryKey;type:varchar(36);column:follower"`
	FollowingID string    `gorm:"primaryKey;type:varchar(36);column:following"`
	State       int16     `gorm:"type:smallint;not null;default:0;column:state"`
	CreatedAt   time.Time `gorm:"not null;column:created_at"`
}

// TableName specifies the table name for Follow
func (Follow) TableName() string {
	return "plaza_follows"
}

// Follow state constants
const (
	FollowStateNone   int16 = 0 // No relationship
	FollowStateActive int16 = 1 // Following
	FollowStateBlock  int16 = 2 // Blocked
)
