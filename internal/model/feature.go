package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// FeaturePermission is one entry of a tenant's feature flag catalog
type FeaturePermission struct {
	ID             string    `json:"id" gorm:"type:uuid;primaryKey"`
	FeatureKey     string    `json:"feature_key" gorm:"type:varchar(100);uniqueIndex;not null"`
	Label          string    `json:"label" gorm:"type:varchar(255)"`
	DefaultEnabled bool      `json:"default_enabled" gorm:"not null;default:false"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// TableName overrides the table name
func (FeaturePermission) TableName() string {
	return "feature_permissions"
}

// BeforeCreate assigns a random uuid when none was set
func (f *FeaturePermission) BeforeCreate(tx *gorm.DB) error {
	if f.ID == "" {
		f.ID = uuid.NewString()
	}
	return nil
}

// UserFeatureAccess overrides a catalog default for one user
type UserFeatureAccess struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	UserID    string    `json:"user_id" gorm:"type:varchar(64);not null;uniqueIndex:idx_user_feature"`
	FeatureID string    `json:"feature_id" gorm:"type:uuid;not null;uniqueIndex:idx_user_feature"`
	Allowed   bool      `json:"allowed" gorm:"not null"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName overrides the table name
func (UserFeatureAccess) TableName() string {
	return "user_feature_access"
}

// SchemaMigration records a migration applied to a tenant database
type SchemaMigration struct {
	Version   int       `json:"version" gorm:"primaryKey;autoIncrement:false"`
	Name      string    `json:"name" gorm:"type:varchar(255);not null"`
	AppliedAt time.Time `json:"applied_at"`
}

// TableName overrides the table name
func (SchemaMigration) TableName() string {
	return "schema_migrations"
}
