package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Tenant statuses
const (
	TenantStatusActive    = "active"
	TenantStatusSuspended = "suspended"
	TenantStatusDeleted   = "deleted"
)

// Tenant is a row of the master registry. Each tenant owns an isolated
// database reachable through ConnectionString.
type Tenant struct {
	ID               string    `json:"id" gorm:"type:uuid;primaryKey"`
	OrganizationName string    `json:"organization_name" gorm:"type:varchar(255);not null"`
	ConnectionString string    `json:"-" gorm:"type:text;not null"`
	Status           string    `json:"status" gorm:"type:varchar(32);not null;default:'active';index"`
	TenantDBName     string    `json:"tenant_db_name" gorm:"column:tenant_db_name;type:varchar(255)"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// TableName overrides the table name
func (Tenant) TableName() string {
	return "tenants"
}

// BeforeCreate assigns a random uuid when none was set
func (t *Tenant) BeforeCreate(tx *gorm.DB) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	return nil
}

// IsActive reports whether requests may be served for the tenant
func (t *Tenant) IsActive() bool {
	return t.Status == TenantStatusActive
}

// TenantUser maps a login to the tenant it belongs to
type TenantUser struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	UserEmail string    `json:"user_email" gorm:"type:varchar(255);uniqueIndex;not null"`
	TenantID  string    `json:"tenant_id" gorm:"type:uuid;index;not null"`
	UserID    string    `json:"user_id" gorm:"type:varchar(64);index"`
	CreatedAt time.Time `json:"created_at"`

	Tenant Tenant `json:"-" gorm:"foreignKey:TenantID"`
}

// TableName overrides the table name
func (TenantUser) TableName() string {
	return "tenant_users"
}

// MasterModels lists the models living in the master store
func MasterModels() []interface{} {
	return []interface{}{
		&Tenant{},
		&TenantUser{},
		&DeveloperAuditLog{},
		&UserRetentionPolicy{},
		&UserDataBackup{},
	}
}
