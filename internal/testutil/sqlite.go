// Package testutil provides SQLite-backed databases for package tests.
package testutil

import (
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/supritimishra/FuelOne-1-sub007/internal/model"
	"github.com/supritimishra/FuelOne-1-sub007/pkg/database"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// MemoryDSN returns a DSN of a fresh shared-cache in-memory database
func MemoryDSN() string {
	return fmt.Sprintf("file:%s?mode=memory&cache=shared&_foreign_keys=1", uuid.NewString())
}

// OpenSQLite opens a SQLite database through the same pool setup as
// production. A single connection keeps the in-memory database alive and
// serializes access.
func OpenSQLite(dsn string) (*gorm.DB, error) {
	return database.OpenDialector(sqlite.Open(dsn), database.PoolConfig{
		MaxIdleConns: 1,
		MaxOpenConns: 1,
		LogLevel:     logger.Silent,
	})
}

// NewDB returns an empty in-memory database closed at test cleanup
func NewDB(t testing.TB) *gorm.DB {
	t.Helper()
	db, err := OpenSQLite(MemoryDSN())
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = database.Close(db) })
	return db
}

// NewMasterDB returns an in-memory master store with its schema created
func NewMasterDB(t testing.TB) *gorm.DB {
	t.Helper()
	db := NewDB(t)
	if err := db.AutoMigrate(model.MasterModels()...); err != nil {
		t.Fatalf("migrate master: %v", err)
	}
	return db
}

// NewEmptyDSN creates an in-memory database without tables and returns its
// DSN together with a handle that keeps it alive until test cleanup.
func NewEmptyDSN(t testing.TB) (string, *gorm.DB) {
	t.Helper()
	dsn := MemoryDSN()
	db, err := OpenSQLite(dsn)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = database.Close(db) })
	return dsn, db
}

// NewTenantDSN creates an in-memory tenant database with the business schema
// and returns its DSN together with a handle that keeps it alive until
// test cleanup.
func NewTenantDSN(t testing.TB) (string, *gorm.DB) {
	t.Helper()
	dsn, db := NewEmptyDSN(t)
	if err := db.AutoMigrate(model.TenantModels()...); err != nil {
		t.Fatalf("migrate tenant: %v", err)
	}
	return dsn, db
}

// AddTenant registers a tenant in the master store
func AddTenant(t testing.TB, master *gorm.DB, name, dsn, status string) *model.Tenant {
	t.Helper()
	tenant := &model.Tenant{
		OrganizationName: name,
		ConnectionString: dsn,
		Status:           status,
	}
	if err := master.Create(tenant).Error; err != nil {
		t.Fatalf("create tenant: %v", err)
	}
	return tenant
}

// AddTenantUser maps a login to a tenant
func AddTenantUser(t testing.TB, master *gorm.DB, tenantID, email, userID string) *model.TenantUser {
	t.Helper()
	tu := &model.TenantUser{TenantID: tenantID, UserEmail: email, UserID: userID}
	if err := master.Create(tu).Error; err != nil {
		t.Fatalf("create tenant user: %v", err)
	}
	return tu
}
