package models

import (
	"database/sql"
	"time"
)

// Account represents a user
type Account struct {
	ID          string         `gorm:"primaryKey;type:varchar(36);column:id"`
	Username    string         `gorm:"type:varchar(32);not null;uniqueIndex:plaza_accounts_ux1;column:username"`
	DisplayName sql.NullString `gorm:"type:varchar(64);column:display_name"`
	ImageKey    string         `gorm:"type:varchar(1024);not null;default:'';column:image_key"`

	// Social stats
	Followers int64 `gorm:"not null;default:0;column:followers"`
	Following int64 `gorm:"not null;default:0;column:following"`
	PostCount int64 `gorm:"not null;default:0;column:post_count"`

	CreatedAt time.Time `gorm:"not null;column:created_at"`
	ActiveAt  time.Time `gorm:"not null;default:'1970-01-01 00:00:00';column:active_at"`
}

// TableName specifies the table name for Account
func (Account) TableName() string {
	return "plaza_accounts"
}

// Name returns the best display name for the account.
func (a *Account) Name() string {
	if a.DisplayName.Valid && a.DisplayName.String != "" {
		return a.DisplayName.String
	}
	return a.Username
}
