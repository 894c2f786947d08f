package model

import (
	"time"
)

// Retention actions
const (
	RetentionDelete  = "delete"
	RetentionArchive = "archive"
)

// RetentionEntities lists the tenant tables a retention policy may target
var RetentionEntities = map[string]bool{
	"sale_entries":     true,
	"sheet_records":    true,
	"daily_sale_rates": true,
}

// UserRetentionPolicy tells the cleanup job how long rows of one tenant
// table are kept.
type UserRetentionPolicy struct {
	ID            uint       `json:"id" gorm:"primaryKey"`
	TenantID      string     `json:"tenant_id" gorm:"type:varchar(64);index;not null"`
	UserID        string     `json:"user_id" gorm:"type:varchar(64);index"`
	Entity        string     `json:"entity" gorm:"type:varchar(64);not null" validate:"required"`
	RetentionDays int        `json:"retention_days" gorm:"not null" validate:"required,gt=0"`
	Action        string     `json:"action" gorm:"type:varchar(16);not null;default:'archive'" validate:"required,oneof=delete archive"`
	IsActive      bool       `json:"is_active" gorm:"default:true"`
	LastRunAt     *time.Time `json:"last_run_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// TableName overrides the table name
func (UserRetentionPolicy) TableName() string {
	return "user_retention_policies"
}

// UserDataBackup holds rows archived by the cleanup job
type UserDataBackup struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	TenantID    string    `json:"tenant_id" gorm:"type:varchar(64);index;not null"`
	UserID      string    `json:"user_id" gorm:"type:varchar(64)"`
	PolicyID    uint      `json:"policy_id" gorm:"index"`
	Entity      string    `json:"entity" gorm:"type:varchar(64);not null"`
	RecordCount int       `json:"record_count"`
	Payload     string    `json:"-" gorm:"type:jsonb"`
	CreatedAt   time.Time `json:"created_at"`
}

// TableName overrides the table name
func (UserDataBackup) TableName() string {
	return "user_data_backups"
}
