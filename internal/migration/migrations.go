// Package migration brings tenant databases to the current schema.
//
// Migrations are numbered and applied in order; each one runs in a
// transaction together with the schema_migrations row recording it, so a
// tenant is never left with a half-applied version.
package migration

import (
	"github.com/google/uuid"
	"github.com/supritimishra/FuelOne-1-sub007/internal/features"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Migration is one schema change of a tenant database
type Migration struct {
	Version int
	Name    string
	Up      func(tx *gorm.DB) error
}

// All lists the built-in tenant migrations in version order. Applied
// versions are never edited; schema changes get a new version.
var All = []Migration{
	{Version: 1, Name: "create_business_tables", Up: createBusinessTables},
	{Version: 2, Name: "seed_feature_catalog", Up: seedFeatureCatalog},
	{Version: 3, Name: "repair_swipe_machine_vendor", Up: repairSwipeMachineVendor},
	{Version: 4, Name: "add_sheet_record_date_index", Up: addSheetRecordDateIndex},
}

func createBusinessTables(tx *gorm.DB) error {
	// tenants provisioned before versioning already hold some tables
	return tx.AutoMigrate(v1Tables()...)
}

func seedFeatureCatalog(tx *gorm.DB) error {
	var rows []v1FeaturePermission
	for _, d := range features.Defaults() {
		rows = append(rows, v1FeaturePermission{
			ID:             uuid.NewString(),
			FeatureKey:     d.Key,
			Label:          d.Label,
			DefaultEnabled: d.DefaultEnabled,
		})
	}
	return tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "feature_key"}},
		DoNothing: true,
	}).Create(&rows).Error
}

// Older tenants were created without swipe_machines.vendor_id, and some hold
// ids of vendors that no longer exist.
func repairSwipeMachineVendor(tx *gorm.DB) error {
	m := tx.Migrator()
	if !m.HasColumn(&v3SwipeMachine{}, "VendorID") {
		if err := m.AddColumn(&v3SwipeMachine{}, "VendorID"); err != nil {
			return err
		}
	}
	if !m.HasIndex(&v3SwipeMachine{}, "VendorID") {
		if err := m.CreateIndex(&v3SwipeMachine{}, "VendorID"); err != nil {
			return err
		}
	}
	return tx.Exec(`UPDATE swipe_machines SET vendor_id = NULL
		WHERE vendor_id IS NOT NULL
		AND vendor_id NOT IN (SELECT id FROM vendors WHERE deleted_at IS NULL)`).Error
}

func addSheetRecordDateIndex(tx *gorm.DB) error {
	m := tx.Migrator()
	if m.HasIndex(&v4SheetRecord{}, "idx_sheet_records_record_date") {
		return nil
	}
	return m.CreateIndex(&v4SheetRecord{}, "idx_sheet_records_record_date")
}
