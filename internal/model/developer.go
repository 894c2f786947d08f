package model

import (
	"time"

	"gorm.io/gorm"
)

// Developer audit actions
const (
	AuditSetFeatureOverride   = "set_feature_override"
	AuditClearFeatureOverride = "clear_feature_override"
	AuditRunRetention         = "run_retention"
)

// DeveloperAuditLog records developer-mode admin actions in the master store
type DeveloperAuditLog struct {
	ID             uint      `json:"id" gorm:"primaryKey"`
	DeveloperEmail string    `json:"developer_email" gorm:"type:varchar(255);index;not null"`
	Action         string    `json:"action" gorm:"type:varchar(64);not null"`
	TenantID       string    `json:"tenant_id,omitempty" gorm:"type:varchar(64);index"`
	TargetUserID   string    `json:"target_user_id,omitempty" gorm:"type:varchar(64)"`
	FeatureKey     string    `json:"feature_key,omitempty" gorm:"type:varchar(100)"`
	Details        string    `json:"details,omitempty" gorm:"type:jsonb"`
	CreatedAt      time.Time `json:"created_at" gorm:"index"`
}

// TableName overrides the table name
func (DeveloperAuditLog) TableName() string {
	return "developer_audit_logs"
}

// BeforeCreate stores an empty object when no details were given, since the
// column is jsonb.
func (l *DeveloperAuditLog) BeforeCreate(tx *gorm.DB) error {
	if l.Details == "" {
		l.Details = "{}"
	}
	return nil
}
