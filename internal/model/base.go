package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Base carries the id and timestamps shared by every tenant business table
type Base struct {
	ID        string         `json:"id" gorm:"type:uuid;primaryKey"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}

// BeforeCreate assigns a random uuid when none was set
func (b *Base) BeforeCreate(tx *gorm.DB) error {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	return nil
}

// Reset clears server-owned fields so a request body cannot set them
func (b *Base) Reset() {
	b.ID = ""
	b.CreatedAt = time.Time{}
	b.UpdatedAt = time.Time{}
	b.DeletedAt = gorm.DeletedAt{}
}

// PrimaryKey returns the row id
func (b *Base) PrimaryKey() string {
	return b.ID
}

// Entity is implemented by every model embedding Base
type Entity interface {
	Reset()
	PrimaryKey() string
}

// Checker is implemented by models with business rules beyond field validation
type Checker interface {
	Check() error
}
