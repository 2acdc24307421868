package models

import (
	"database/sql"
	"time"
)

// Business represents a business entity that can own posts and back a
// place identity.
type Business struct {
	ID      string         `gorm:"primaryKey;type:varchar(36);column:id"`
	PlaceID sql.NullString `gorm:"type:varchar(64);index;column:place_id"`
	Name    string         `gorm:"type:varchar(128);not null;column:name"`
	LogoKey string         `gorm:"type:varchar(1024);not null;default:'';column:logo_key"`

	About    sql.NullString `gorm:"type:varchar(512);column:about"`
	Address  sql.NullString `gorm:"type:varchar(256);column:address"`
	Website  sql.NullString `gorm:"type:varchar(128);column:website"`

	Lat float64 `gorm:"column:lat"`
	Lng float64 `gorm:"column:lng"`

	CreatedAt time.Time `gorm:"not null;column:created_at"`
}

// TableName specifies the table name for Business
func (Business) TableName() string {
	return "plaza_businesses"
}
