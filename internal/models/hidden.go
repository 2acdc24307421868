package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Hidden scope values. A hide is keyed by (type, id) and tracked per
// scope; the two scopes are separate records with separate lifecycles.
const (
	HiddenScopeProfile = "profile" // hidden from my profile (tagged-post scope)
	HiddenScopeGlobal  = "global"  // hidden everywhere
)

// HiddenRecord marks one target hidden by one owner in one scope.
// Created by a hide action, destroyed by the matching unhide. The same
// write also maintains a fast membership set keyed by TargetKey.
type HiddenRecord struct {
	ID         string    `gorm:"primaryKey;type:varchar(36);column:id"`
	OwnerID    string    `gorm:"type:varchar(36);not null;uniqueIndex:plaza_hidden_ux1,priority:1;column:owner_id"`
	TargetType string    `gorm:"type:varchar(16);not null;uniqueIndex:plaza_hidden_ux1,priority:2;column:target_type"`
	TargetID   string    `gorm:"type:varchar(36);not null;uniqueIndex:plaza_hidden_ux1,priority:3;column:target_id"`
	Scope      string    `gorm:"type:varchar(16);not null;uniqueIndex:plaza_hidden_ux1,priority:4;column:scope"`
	CreatedAt  time.Time `gorm:"not null;column:created_at"`
}

// TableName specifies the table name for HiddenRecord
func (HiddenRecord) TableName() string {
	return "plaza_hidden_records"
}

// BeforeCreate assigns the record id when the caller did not.
func (h *HiddenRecord) BeforeCreate(*gorm.DB) error {
	if h.ID == "" {
		h.ID = uuid.NewString()
	}
	return nil
}

// TargetKey returns the membership-set member for this record.
func (h *HiddenRecord) TargetKey() string {
	return HiddenTargetKey(h.TargetType, h.TargetID)
}

// HiddenTargetKey builds the canonical "type:id" membership key.
func HiddenTargetKey(targetType, targetID string) string {
	return fmt.Sprintf("%s:%s", targetType, targetID)
}
